package policy

import (
	"testing"

	"glmcp/internal/schemamode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDeniedActions_RoundTrip(t *testing.T) {
	denied := ParseDeniedActions(" A:X , b:y,B:Z ")

	require.Len(t, denied, 2)
	assert.Equal(t, map[string]struct{}{"x": {}}, denied["a"])
	assert.Equal(t, map[string]struct{}{"y": {}, "z": {}}, denied["b"])
}

func TestParseDeniedActions_SkipsMalformedPairs(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  DeniedActions
	}{
		{name: "empty", input: "", want: DeniedActions{}},
		{name: "no colon", input: "manage_issue", want: DeniedActions{}},
		{name: "empty tool", input: ":delete", want: DeniedActions{}},
		{name: "empty action", input: "manage_issue:", want: DeniedActions{}},
		{name: "empty entries", input: ",,manage_issue:delete,,", want: DeniedActions{
			"manage_issue": {"delete": {}},
		}},
		{name: "mixed", input: "bad,manage_label:delete, :x", want: DeniedActions{
			"manage_label": {"delete": {}},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseDeniedActions(tt.input))
		})
	}
}

func TestDeniedActions_Lookups(t *testing.T) {
	denied := ParseDeniedActions("manage_milestone:delete,manage_milestone:promote")

	assert.True(t, denied.IsDenied("Manage_Milestone", "DELETE"))
	assert.False(t, denied.IsDenied("manage_milestone", "create"))
	assert.False(t, denied.IsDenied("manage_label", "delete"))

	assert.True(t, denied.AllDenied("manage_milestone", []string{"delete", "Promote"}))
	assert.False(t, denied.AllDenied("manage_milestone", []string{"delete", "create"}))
	assert.False(t, denied.AllDenied("manage_milestone", nil))

	assert.Equal(t, []string{"delete", "promote"}, denied.Actions("manage_milestone"))
}

func TestParseOverrides(t *testing.T) {
	env := map[string]string{
		"GITLAB_TOOL_BROWSE_LABELS":              "List labels of a project",
		"GITLAB_ACTION_MANAGE_MILESTONE_DELETE":  "Remove permanently",
		"GITLAB_PARAM_MANAGE_ISSUE_TITLE":        "Issue headline",
		"GITLAB_PARAM_MANAGE_ISSUE_DESCRIPTION":  "",
		"GITLAB_ACTION_NOSPLIT":                  "ignored",
		"GITLAB_ACTION_TRAILING_":                "ignored",
		"GITLAB_TOOL_":                           "ignored",
		"UNRELATED_VARIABLE":                     "ignored",
		"GITLAB_PARAM_manage_merge_request_DRAFT": "Mark as draft",
	}

	o := ParseOverrides(env)

	assert.Equal(t, map[string]string{"browse_labels": "List labels of a project"}, o.Tools)
	assert.Equal(t, map[string]string{"manage_milestone:delete": "Remove permanently"}, o.Actions)
	assert.Equal(t, map[string]string{
		"manage_issue:title":         "Issue headline",
		"manage_merge_request:draft": "Mark as draft",
	}, o.Params)

	v, ok := o.ActionDescription("MANAGE_MILESTONE", "Delete")
	assert.True(t, ok)
	assert.Equal(t, "Remove permanently", v)

	_, ok = o.ParamDescription("manage_issue", "description")
	assert.False(t, ok, "empty values must not be stored")

	assert.True(t, o.HasSchemaOverrides("manage_issue"))
	assert.True(t, o.HasSchemaOverrides("Manage_Milestone"))
	assert.False(t, o.HasSchemaOverrides("browse_labels"))
	assert.False(t, o.HasSchemaOverrides("manage"))
}

func TestLoad(t *testing.T) {
	s := Load(map[string]string{
		EnvDeniedActions:    "manage_issue:delete",
		EnvDeniedToolsRegex: "^manage_wiki",
		EnvReadOnlyMode:     "true",
		EnvSchemaMode:       "discriminated",
		"USE_LABELS":        "false",
		"USE_WIKI":          "maybe",
		"USE_ISSUES":        "on",
	})

	assert.True(t, s.DeniedActions.IsDenied("manage_issue", "delete"))
	assert.True(t, s.IsToolDenied("manage_wiki"))
	assert.False(t, s.IsToolDenied("browse_wiki"))
	assert.True(t, s.ReadOnly)
	assert.Equal(t, schemamode.ModeDiscriminated, s.SchemaMode)

	assert.False(t, s.IsGateEnabled("USE_LABELS", true))
	assert.True(t, s.IsGateEnabled("USE_WIKI", true), "unparsable gate falls back to default")
	assert.True(t, s.IsGateEnabled("USE_ISSUES", false))
	assert.True(t, s.IsGateEnabled("USE_MILESTONE", true))
}

func TestLoad_InvalidValuesDegrade(t *testing.T) {
	s := Load(map[string]string{
		EnvDeniedToolsRegex: "([",
		EnvReadOnlyMode:     "definitely",
		EnvSchemaMode:       "oneOf",
	})

	assert.Nil(t, s.DeniedToolsRegex)
	assert.False(t, s.IsToolDenied("anything"))
	assert.False(t, s.ReadOnly)
	assert.Equal(t, schemamode.ModeFlat, s.SchemaMode)
}

func TestLoad_CopiesEnvironment(t *testing.T) {
	env := map[string]string{"USE_LABELS": "true"}
	s := Load(env)
	env["USE_LABELS"] = "false"

	assert.True(t, s.IsGateEnabled("USE_LABELS", false))
}

func TestMergeAndEnvironFrom(t *testing.T) {
	merged := Merge(
		map[string]string{"A": "file", "B": "file"},
		environFrom([]string{"B=process", "C=x=y", "=bad", "novalue"}),
	)

	assert.Equal(t, map[string]string{"A": "file", "B": "process", "C": "x=y"}, merged)
}
