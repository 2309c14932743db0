package formatting

import (
	"fmt"
	"io"
	"strings"

	"glmcp/internal/registry"
	"glmcp/internal/schema"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const maxDescriptionWidth = 60

// TableOptions configures table rendering.
type TableOptions struct {
	Color bool
}

func (o TableOptions) header(s string) string {
	if !o.Color {
		return s
	}
	return text.FgHiCyan.Sprint(s)
}

// createTable creates a new table with standard styling
func createTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	return t
}

// RenderToolTable writes one row per tool: name, actions, required
// parameters and description.
func RenderToolTable(w io.Writer, defs []registry.ToolDefinition, opts TableOptions) {
	if len(defs) == 0 {
		fmt.Fprintln(w, "No tools found")
		return
	}

	t := createTable(w)
	t.AppendHeader(table.Row{opts.header("NAME"), opts.header("ACTIONS"), opts.header("REQUIRED"), opts.header("DESCRIPTION")})

	for _, def := range defs {
		t.AppendRow(table.Row{
			def.Name,
			strings.Join(schema.Actions(def.InputSchema), ", "),
			strings.Join(commonRequired(def.InputSchema), ", "),
			truncate(def.Description, maxDescriptionWidth),
		})
	}

	t.AppendFooter(table.Row{"", "", "Total", len(defs)})
	t.Render()
}

// RenderKeyValues writes a two-column table.
func RenderKeyValues(w io.Writer, rows [][2]string, opts TableOptions) {
	t := createTable(w)
	t.AppendHeader(table.Row{opts.header("KEY"), opts.header("VALUE")})
	for _, r := range rows {
		t.AppendRow(table.Row{r[0], r[1]})
	}
	t.Render()
}

// commonRequired lists the non-action parameters every action requires.
func commonRequired(s *schema.Schema) []string {
	if s == nil {
		return nil
	}

	var required []string
	if !schema.IsUnion(s) {
		required = s.Required
	} else {
		counts := make(map[string]int)
		branches := schema.Branches(s)
		var order []string
		for _, b := range branches {
			for _, name := range b.Schema.Required {
				if counts[name] == 0 {
					order = append(order, name)
				}
				counts[name]++
			}
		}
		for _, name := range order {
			if counts[name] == len(branches) {
				required = append(required, name)
			}
		}
	}

	out := make([]string, 0, len(required))
	for _, name := range required {
		if name != schema.ActionProperty {
			out = append(out, name)
		}
	}
	return out
}
