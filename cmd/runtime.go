package cmd

import (
	"fmt"
	"os"
	"sync"

	"glmcp/internal/config"
	"glmcp/internal/entities"
	"glmcp/internal/policy"
	"glmcp/internal/registry"
	"glmcp/pkg/logging"
)

// runtime is the loaded configuration plus the aggregator built from it.
type runtime struct {
	configPath string
	agg        *registry.Aggregator

	mu  sync.RWMutex
	cfg config.Config
}

func resolveConfigPath(opts *globalOptions) (string, error) {
	if opts.configPath != "" {
		return opts.configPath, nil
	}
	return config.DefaultConfigPath()
}

// loadRuntime loads config.yaml and builds the aggregator. The policy
// environment is the configured environment section overlaid by the
// process environment.
func loadRuntime(opts *globalOptions) (*runtime, error) {
	configPath, err := resolveConfigPath(opts)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	applyLogConfig(opts, cfg)

	rt := &runtime{configPath: configPath, cfg: cfg}
	rt.agg = registry.NewAggregator(
		entities.All(entities.EchoBackend{}),
		registry.WithEnvironment(rt.environment),
		registry.WithOracle(registry.NewStaticOracle(cfg.UnavailableTools)),
	)
	return rt, nil
}

// applyLogConfig applies the configured log settings unless a flag set them.
func applyLogConfig(opts *globalOptions, cfg config.Config) {
	levelName := opts.logLevel
	if levelName == "" {
		levelName = cfg.LogLevel
	}
	formatName := opts.logFormat
	if formatName == "" {
		formatName = cfg.LogFormat
	}
	if formatName == "" {
		formatName = string(logging.FormatText)
	}

	level, _ := logging.ParseLevel(levelName)
	logging.Init(level, logging.Format(formatName), os.Stderr)
}

func (rt *runtime) config() config.Config {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.cfg
}

func (rt *runtime) environment() map[string]string {
	return rt.config().PolicyEnvironment(policy.Environ())
}

// reload re-reads config.yaml and swaps policy and oracle. A broken file
// keeps the previous configuration in force.
func (rt *runtime) reload() error {
	cfg, err := config.Load(rt.configPath)
	if err != nil {
		return fmt.Errorf("keeping previous configuration: %w", err)
	}

	rt.mu.Lock()
	rt.cfg = cfg
	rt.mu.Unlock()

	rt.agg.ReplaceOracle(registry.NewStaticOracle(cfg.UnavailableTools))
	rt.agg.ReplacePolicy(policy.Load(rt.environment()))
	return nil
}
