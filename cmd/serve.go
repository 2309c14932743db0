package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"glmcp/internal/config"
	"glmcp/internal/server"
	"glmcp/pkg/logging"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type serveOptions struct {
	transport string
	host      string
	port      int
	noWatch   bool
}

func newServeCmd(global *globalOptions) *cobra.Command {
	opts := &serveOptions{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the tool catalog over MCP",
		Long: `Starts the MCP server with the runtime tool catalog.

The catalog is computed once from config.yaml and the process environment.
Edits to config.yaml are picked up while serving: the policy is replaced and
connected clients are notified that the tool list changed.

Transports:
  stdio            one client over stdin/stdout (default)
  sse              Server-Sent Events on host:port
  streamable-http  streamable HTTP on host:port

With GITLAB_SCHEMA_MODE=auto the schema shape follows the most recently
initialized client. On HTTP transports that choice is shared by every session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, global, opts)
		},
	}

	cmd.Flags().StringVar(&opts.transport, "transport", "", "Transport: stdio, sse or streamable-http (overrides config.yaml)")
	cmd.Flags().StringVar(&opts.host, "host", "", "Host to bind for HTTP transports (overrides config.yaml)")
	cmd.Flags().IntVar(&opts.port, "port", 0, "Port for HTTP transports (overrides config.yaml)")
	cmd.Flags().BoolVar(&opts.noWatch, "no-watch", false, "Do not watch config.yaml for changes")

	return cmd
}

func (o *serveOptions) apply(cfg config.ServerConfig) config.ServerConfig {
	if o.transport != "" {
		cfg.Transport = o.transport
	}
	if o.host != "" {
		cfg.Host = o.host
	}
	if o.port != 0 {
		cfg.Port = o.port
	}
	return cfg
}

func runServe(cmd *cobra.Command, global *globalOptions, opts *serveOptions) error {
	rt, err := loadRuntime(global)
	if err != nil {
		return err
	}

	serverCfg := opts.apply(rt.config().Server)
	if err := (config.Config{Server: serverCfg}).Validate(); err != nil {
		return fmt.Errorf("invalid server flags: %w", err)
	}

	srv := server.New(serverCfg, cmd.Root().Version, rt.agg)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		// stdio ends when the client closes stdin; stop the watcher with it.
		defer cancel()
		return srv.Run(gctx)
	})

	if !opts.noWatch {
		watcher := config.NewWatcher(config.WatcherConfig{
			ConfigPath: rt.configPath,
			OnChange: func() {
				if err := rt.reload(); err != nil {
					logging.Warn("Serve", "Configuration change ignored: %v", err)
					return
				}
				srv.SyncTools()
			},
		})
		g.Go(func() error {
			return watcher.Run(gctx)
		})
	}

	return g.Wait()
}
