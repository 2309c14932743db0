package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"glmcp/internal/config"
	"glmcp/internal/policy"
	"glmcp/internal/registry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const policyConfig = `
environment:
  USE_WIKI: "false"
  GITLAB_DENIED_ACTIONS: "manage_milestone:delete"
  GITLAB_TOOL_BROWSE_LABELS: "Find labels"
unavailableTools:
  manage_issue: issues are disabled on this instance
`

func TestToolsList_Views(t *testing.T) {
	tests := []struct {
		view    string
		present []string
		absent  []string
	}{
		{view: "runtime", present: []string{"browse_issues", "manage_milestone"}, absent: []string{"manage_issue", "browse_wiki"}},
		{view: "tierless", present: []string{"manage_issue"}, absent: []string{"browse_wiki"}},
		{view: "unfiltered", present: []string{"manage_issue", "browse_wiki", "manage_wiki"}},
	}

	for _, tt := range tests {
		t.Run(tt.view, func(t *testing.T) {
			out, err := execute(t, policyConfig, "tools", "list", "--view", tt.view, "-o", "json")
			require.NoError(t, err)

			var defs []registry.ToolDefinition
			require.NoError(t, json.Unmarshal([]byte(out), &defs))

			names := make([]string, len(defs))
			for i, d := range defs {
				names[i] = d.Name
			}
			for _, p := range tt.present {
				assert.Contains(t, names, p)
			}
			for _, a := range tt.absent {
				assert.NotContains(t, names, a)
			}
		})
	}
}

func TestToolsList_Table(t *testing.T) {
	out, err := execute(t, policyConfig, "tools", "list")
	require.NoError(t, err)

	assert.Contains(t, out, "browse_labels")
	assert.Contains(t, out, "Find labels")
	assert.NotContains(t, out, "manage_wiki")
}

func TestToolsList_YAML(t *testing.T) {
	out, err := execute(t, "", "tools", "list", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "- description:")
	assert.Contains(t, out, "name: manage_milestone")
}

func TestToolsList_BadFlags(t *testing.T) {
	_, err := execute(t, "", "tools", "list", "--view", "secret")
	assert.Error(t, err)

	_, err = execute(t, "", "tools", "list", "-o", "csv")
	assert.Error(t, err)
}

func TestToolsSchema(t *testing.T) {
	out, err := execute(t, policyConfig, "tools", "schema", "manage_milestone", "--mode", "flat")
	require.NoError(t, err)

	var flat map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &flat))
	assert.NotContains(t, flat, "oneOf")
	action := flat["properties"].(map[string]any)["action"].(map[string]any)
	assert.Equal(t, []any{"create", "update", "promote"}, action["enum"])

	out, err = execute(t, policyConfig, "tools", "schema", "manage_milestone", "--mode", "discriminated")
	require.NoError(t, err)
	var disc map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &disc))
	assert.Len(t, disc["oneOf"], 3)

	out, err = execute(t, policyConfig, "tools", "schema", "manage_milestone", "--view", "unfiltered", "-o", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "const: delete")
}

func TestToolsSchema_Errors(t *testing.T) {
	_, err := execute(t, policyConfig, "tools", "schema", "manage_issue")
	require.Error(t, err)
	assert.Equal(t, ExitCodeToolNotFound, getExitCode(err), "unavailable tools are not in the runtime view")

	_, err = execute(t, policyConfig, "tools", "schema", "nope", "--view", "unfiltered")
	assert.Equal(t, ExitCodeToolNotFound, getExitCode(err))

	_, err = execute(t, policyConfig, "tools", "schema", "manage_label", "--view", "tierless", "--mode", "flat")
	assert.EqualError(t, err, "--mode applies to the runtime view only")

	_, err = execute(t, policyConfig, "tools", "schema", "manage_label", "--mode", "tree")
	assert.Error(t, err)
}

func TestToolsWhy(t *testing.T) {
	out, err := execute(t, policyConfig, "tools", "why", "manage_issue")
	require.NoError(t, err)
	assert.Contains(t, out, string(registry.DropUnavailable))
	assert.Contains(t, out, "issues are disabled on this instance")

	out, err = execute(t, policyConfig, "tools", "why", "browse_wiki")
	require.NoError(t, err)
	assert.Contains(t, out, string(registry.DropGate))

	out, err = execute(t, policyConfig, "tools", "why", "manage_label")
	require.NoError(t, err)
	assert.Contains(t, out, "available")

	_, err = execute(t, policyConfig, "tools", "why", "nope")
	assert.Equal(t, ExitCodeToolNotFound, getExitCode(err))
}

func TestRuntimeReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.FileName)
	require.NoError(t, os.WriteFile(path, []byte(""), 0644))

	rt, err := loadRuntime(&globalOptions{configPath: dir})
	require.NoError(t, err)
	require.Contains(t, rt.agg.GetAvailableToolNames(), "manage_wiki")

	require.NoError(t, os.WriteFile(path, []byte(`
environment:
  GITLAB_DENIED_TOOLS_REGEX: "^manage_"
unavailableTools:
  browse_wiki: gone
`), 0644))
	require.NoError(t, rt.reload())

	for _, name := range rt.agg.GetAvailableToolNames() {
		assert.True(t, strings.HasPrefix(name, "browse_"), name)
	}
	assert.NotContains(t, rt.agg.GetAvailableToolNames(), "browse_wiki")
	assert.True(t, rt.agg.Policy().IsToolDenied("manage_label"))

	// A broken file keeps the previous configuration.
	require.NoError(t, os.WriteFile(path, []byte("environment: [\n"), 0644))
	assert.Error(t, rt.reload())
	assert.Equal(t, "^manage_", rt.config().Environment[policy.EnvDeniedToolsRegex])
}
