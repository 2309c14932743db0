package formatting

import (
	"bytes"
	"strings"
	"testing"

	"glmcp/internal/registry"
	"glmcp/internal/schema"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const labelUnion = `{
  "oneOf": [
    {"type": "object", "properties": {
      "action": {"type": "string", "const": "create", "description": "Create a label"},
      "project_id": {"type": "string"},
      "name": {"type": "string", "description": "Label name"}
    }, "required": ["action", "project_id", "name"]},
    {"type": "object", "properties": {
      "action": {"type": "string", "const": "delete", "description": "Delete a label"},
      "project_id": {"type": "string"},
      "label_id": {"type": "integer"}
    }, "required": ["action", "project_id", "label_id"]}
  ]
}`

const labelFlat = `{
  "type": "object",
  "properties": {
    "action": {"type": "string", "enum": ["create", "delete"]},
    "project_id": {"type": "string"}
  },
  "required": ["action", "project_id"]
}`

func testDefs() []registry.ToolDefinition {
	return []registry.ToolDefinition{
		{Name: "manage_label", Description: "Manage labels | tags", InputSchema: schema.MustParse(labelUnion)},
		{Name: "flat_label", Description: "", InputSchema: schema.MustParse(labelFlat)},
	}
}

func TestParseOutputFormat(t *testing.T) {
	f, err := ParseOutputFormat("JSON")
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, f)

	_, err = ParseOutputFormat("table", FormatJSON, FormatYAML)
	assert.EqualError(t, err, `unsupported output format "table" (want json, yaml)`)
}

func TestWriteYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteYAML(&buf, testDefs()[1]))

	out := buf.String()
	assert.Contains(t, out, "name: flat_label")
	assert.Contains(t, out, "inputSchema:")
	assert.Contains(t, out, "- create")
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestRenderToolTable(t *testing.T) {
	var buf bytes.Buffer
	RenderToolTable(&buf, testDefs(), TableOptions{})

	out := buf.String()
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "manage_label")
	assert.Contains(t, out, "create, delete")
	assert.Contains(t, out, "project_id")
	assert.NotContains(t, out, "label_id", "only parameters every action requires are listed")
}

func TestRenderToolTable_Empty(t *testing.T) {
	var buf bytes.Buffer
	RenderToolTable(&buf, nil, TableOptions{})
	assert.Equal(t, "No tools found\n", buf.String())
}

func TestRenderKeyValues(t *testing.T) {
	var buf bytes.Buffer
	RenderKeyValues(&buf, [][2]string{{"tool", "manage_wiki"}, {"reason", "gate"}}, TableOptions{Color: false})
	assert.Contains(t, buf.String(), "manage_wiki")
	assert.Contains(t, buf.String(), "gate")
}

func TestCommonRequired(t *testing.T) {
	defs := testDefs()
	assert.Equal(t, []string{"project_id"}, commonRequired(defs[0].InputSchema))
	assert.Equal(t, []string{"project_id"}, commonRequired(defs[1].InputSchema))
	assert.Nil(t, commonRequired(nil))
}

func TestBuildDocPage(t *testing.T) {
	page := BuildDocPage("Reference", "1.2.3", []string{"USE_LABELS"}, testDefs())
	require.Len(t, page.Tools, 2)

	union := page.Tools[0]
	require.Len(t, union.Actions, 2)
	assert.Equal(t, DocAction{
		Name:        "delete",
		Description: "Delete a label",
		Params: []DocParam{
			{Name: "project_id", Type: "string", Required: true},
			{Name: "label_id", Type: "integer", Required: true},
		},
	}, union.Actions[1])

	flat := page.Tools[1]
	require.Len(t, flat.Actions, 2)
	assert.Equal(t, "create", flat.Actions[0].Name)
	assert.Equal(t, flat.Actions[0].Params, flat.Actions[1].Params)
}

func TestRenderMarkdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderMarkdown(&buf, BuildDocPage("Reference", "1.2.3", []string{"USE_LABELS", "USE_WIKI"}, testDefs())))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "# Reference\n"))
	assert.Contains(t, out, "Generated by glmcp 1.2.3.")
	assert.Contains(t, out, "2 tools. Groups can be switched off with `USE_LABELS`, `USE_WIKI`.")
	assert.Contains(t, out, "## manage_label")
	assert.Contains(t, out, "| `create` | Create a label | `project_id` (string) **required**<br>`name` (string) **required** |")
	assert.Contains(t, out, "No description.")
	assert.Contains(t, out, "| `delete` | - |")
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, RenderHTML(&buf, BuildDocPage("Reference", "", nil, testDefs())))

	out := buf.String()
	assert.Contains(t, out, "<h1>Reference</h1>")
	assert.Contains(t, out, "<table>")
	assert.Contains(t, out, "<h2>manage_label</h2>")
	assert.Contains(t, out, "<code>create</code>")
	assert.NotContains(t, out, "Generated by")
}
