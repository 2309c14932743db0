package cmd

import (
	"errors"
	"fmt"
	"os"

	"glmcp/internal/config"
	"glmcp/internal/registry"
	"glmcp/pkg/logging"

	"github.com/spf13/cobra"
)

// Exit codes for CLI commands.
const (
	// ExitCodeSuccess indicates successful execution.
	ExitCodeSuccess = 0
	// ExitCodeError indicates a general error (command failed, invalid arguments).
	ExitCodeError = 1
	// ExitCodeToolNotFound indicates the named tool is not in the requested view.
	ExitCodeToolNotFound = 2
	// ExitCodeConfigError indicates config.yaml could not be read or is invalid.
	ExitCodeConfigError = 3
)

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
	logFormat  string
}

// rootCmd represents the base command for glmcp.
var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "glmcp",
		Short: "Serve GitLab tools over MCP with per-deployment policies",
		Long: `glmcp publishes GitLab entity tools (milestones, labels, issues, merge
requests, wiki) to MCP clients. Deployments shape the catalog through
environment variables or the environment section of config.yaml: feature
gates, read-only mode, denied tools and actions, description overrides and
the schema mode (flat, discriminated or auto-detected per client).`,
		// SilenceUsage prevents Cobra from printing the usage message on errors that are handled by the application.
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initLogging(opts)
		},
	}

	cmd.SetVersionTemplate(`{{printf "glmcp version %s\n" .Version}}`)

	cmd.PersistentFlags().StringVar(&opts.configPath, "config-path", "", "Configuration directory containing config.yaml (default ~/.config/glmcp)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.logFormat, "log-format", "", "Log format: text or json (overrides config.yaml)")

	cmd.AddCommand(newServeCmd(opts))
	cmd.AddCommand(newToolsCmd(opts))
	cmd.AddCommand(newDocsCmd(opts))
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// SetVersion sets the version reported by the CLI and the MCP server.
func SetVersion(v string) {
	rootCmd.Version = v
}

// GetVersion returns the current version of the application.
func GetVersion() string {
	return rootCmd.Version
}

// Execute runs the root command and exits with a code matching the error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var configErr *config.ConfigurationError
		if errors.As(err, &configErr) {
			fmt.Fprintln(os.Stderr, configErr.DetailedError())
		}
		os.Exit(getExitCode(err))
	}
}

// getExitCode determines the appropriate exit code based on the error type.
func getExitCode(err error) int {
	if registry.IsNotFound(err) {
		return ExitCodeToolNotFound
	}
	if config.IsConfigurationError(err) {
		return ExitCodeConfigError
	}
	return ExitCodeError
}

// initLogging configures logging from the flags. The configuration file may
// refine it later; until then CLI output stays at the requested level.
func initLogging(opts *globalOptions) error {
	level, ok := logging.ParseLevel(opts.logLevel)
	if !ok {
		return fmt.Errorf("invalid --log-level %q", opts.logLevel)
	}

	// Logs always go to stderr so the stdio transport owns stdout.
	switch format := logging.Format(opts.logFormat); format {
	case "", logging.FormatText:
		logging.InitForCLI(level, os.Stderr)
	case logging.FormatJSON:
		logging.Init(level, format, os.Stderr)
	default:
		return fmt.Errorf("invalid --log-format %q", opts.logFormat)
	}
	return nil
}
