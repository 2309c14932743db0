package cmd

import (
	"fmt"

	"glmcp/internal/entities"
	"glmcp/internal/formatting"

	"github.com/spf13/cobra"
)

func newDocsCmd(global *globalOptions) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Generate the tool reference",
		Long: `Generates a reference of every tool and action from the canonical schemas,
ignoring deployment policies.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(global)
			if err != nil {
				return err
			}

			page := formatting.BuildDocPage("glmcp tool reference", cmd.Root().Version, entities.Gates(), rt.agg.GetAllToolDefinitionsUnfiltered())

			switch format {
			case "html":
				return formatting.RenderHTML(cmd.OutOrStdout(), page)
			case "markdown", "md":
				return formatting.RenderMarkdown(cmd.OutOrStdout(), page)
			default:
				return fmt.Errorf("unsupported docs format %q (want markdown or html)", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "markdown", "Output format: markdown or html")
	return cmd
}
