package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"glmcp/pkg/logging"

	"gopkg.in/yaml.v3"
)

const (
	userConfigDir = ".config/glmcp"

	// FileName is the name of the configuration file inside the config directory.
	FileName = "config.yaml"
)

var osUserHomeDir = os.UserHomeDir

// DefaultConfigPath returns ~/.config/glmcp.
func DefaultConfigPath() (string, error) {
	homeDir, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(homeDir, userConfigDir), nil
}

// FilePath returns the configuration file inside configPath.
func FilePath(configPath string) string {
	return filepath.Join(configPath, FileName)
}

// Load loads config.yaml from configPath on top of the defaults and
// validates the result. A missing file yields the defaults.
func Load(configPath string) (Config, error) {
	configFilePath := FilePath(configPath)
	cfg := GetDefaultConfig()

	data, err := os.ReadFile(configFilePath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Info("ConfigLoader", "No %s found at %s, using defaults", FileName, configFilePath)
			return cfg, nil
		}
		return Config{}, &ConfigurationError{
			FilePath:  configFilePath,
			ErrorType: "io",
			Message:   "cannot read configuration file",
			Details:   err.Error(),
			Err:       err,
		}
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, &ConfigurationError{
			FilePath:    configFilePath,
			ErrorType:   "parse",
			Message:     "malformed YAML",
			Details:     err.Error(),
			Suggestions: []string{"Check indentation and quoting", "Policy values with ':' or ',' may need quotes"},
			Err:         err,
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, &ConfigurationError{
			FilePath:  configFilePath,
			ErrorType: "validation",
			Message:   "invalid configuration",
			Details:   err.Error(),
			Err:       err,
		}
	}

	logging.Info("ConfigLoader", "Loaded configuration from %s", configFilePath)
	return cfg, nil
}
