package cmd

import (
	"fmt"
	"strings"

	"glmcp/internal/formatting"
	"glmcp/internal/registry"
	"glmcp/internal/schemamode"

	"github.com/spf13/cobra"
)

const (
	viewRuntime    = "runtime"
	viewTierless   = "tierless"
	viewUnfiltered = "unfiltered"
)

func newToolsCmd(global *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tools",
		Short: "Inspect the tool catalog",
		Long: `Inspect the tool catalog the way a client would see it.

Views:
  runtime     every policy applies, including unavailable tools (default)
  tierless    every policy except tool availability, read fresh from the environment
  unfiltered  every tool with its canonical schema`,
	}

	cmd.AddCommand(newToolsListCmd(global))
	cmd.AddCommand(newToolsSchemaCmd(global))
	cmd.AddCommand(newToolsWhyCmd(global))
	return cmd
}

func definitions(agg *registry.Aggregator, view string) ([]registry.ToolDefinition, error) {
	switch view {
	case viewRuntime:
		return agg.GetAllToolDefinitions(), nil
	case viewTierless:
		return agg.GetAllToolDefinitionsTierless(), nil
	case viewUnfiltered:
		return agg.GetAllToolDefinitionsUnfiltered(), nil
	default:
		return nil, fmt.Errorf("unknown view %q (want runtime, tierless or unfiltered)", view)
	}
}

func newToolsListCmd(global *globalOptions) *cobra.Command {
	var view, output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the tools of a view",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			rt, err := loadRuntime(global)
			if err != nil {
				return err
			}
			defs, err := definitions(rt.agg, view)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatting.FormatJSON:
				return formatting.WriteJSON(out, defs)
			case formatting.FormatYAML:
				return formatting.WriteYAML(out, defs)
			default:
				formatting.RenderToolTable(out, defs, formatting.TableOptions{})
				return nil
			}
		},
	}

	cmd.Flags().StringVar(&view, "view", viewRuntime, "Catalog view: runtime, tierless or unfiltered")
	cmd.Flags().StringVarP(&output, "output", "o", string(formatting.FormatTable), "Output format: table, json or yaml")
	return cmd
}

func newToolsSchemaCmd(global *globalOptions) *cobra.Command {
	var view, mode, output string

	cmd := &cobra.Command{
		Use:   "schema <name>",
		Short: "Print the input schema of a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := formatting.ParseOutputFormat(output, formatting.FormatJSON, formatting.FormatYAML)
			if err != nil {
				return err
			}
			rt, err := loadRuntime(global)
			if err != nil {
				return err
			}

			def, err := lookupDefinition(rt.agg, view, mode, args[0])
			if err != nil {
				return err
			}

			if format == formatting.FormatYAML {
				return formatting.WriteYAML(cmd.OutOrStdout(), def.InputSchema)
			}
			return formatting.WriteJSON(cmd.OutOrStdout(), def.InputSchema)
		},
	}

	cmd.Flags().StringVar(&view, "view", viewRuntime, "Catalog view: runtime, tierless or unfiltered")
	cmd.Flags().StringVar(&mode, "mode", "", "Schema mode for the runtime view: flat or discriminated (default: effective mode)")
	cmd.Flags().StringVarP(&output, "output", "o", string(formatting.FormatJSON), "Output format: json or yaml")
	return cmd
}

func lookupDefinition(agg *registry.Aggregator, view, mode, name string) (registry.ToolDefinition, error) {
	if mode != "" {
		if view != viewRuntime {
			return registry.ToolDefinition{}, fmt.Errorf("--mode applies to the runtime view only")
		}
		m, err := schemamode.Parse(mode)
		if err != nil {
			return registry.ToolDefinition{}, err
		}
		return agg.GetToolInMode(name, m)
	}

	if view == viewRuntime {
		return agg.GetTool(name)
	}

	defs, err := definitions(agg, view)
	if err != nil {
		return registry.ToolDefinition{}, err
	}
	for _, def := range defs {
		if strings.EqualFold(def.Name, name) {
			return def, nil
		}
	}
	return registry.ToolDefinition{}, &registry.NotFoundError{ToolName: name}
}

func newToolsWhyCmd(global *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "why <name>",
		Short: "Explain whether and why a tool is missing from the runtime view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := loadRuntime(global)
			if err != nil {
				return err
			}
			name := args[0]
			out := cmd.OutOrStdout()

			if drop, ok := rt.agg.DropReason(name); ok {
				formatting.RenderKeyValues(out, [][2]string{
					{"tool", drop.Tool},
					{"status", "filtered"},
					{"reason", string(drop.Reason)},
					{"detail", drop.Detail},
				}, formatting.TableOptions{})
				return nil
			}

			def, err := rt.agg.GetTool(name)
			if err != nil {
				return err
			}
			formatting.RenderKeyValues(out, [][2]string{
				{"tool", def.Name},
				{"status", "available"},
				{"schema mode", string(rt.agg.Resolver().Effective())},
			}, formatting.TableOptions{})
			return nil
		},
	}
}
