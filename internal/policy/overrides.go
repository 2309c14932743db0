package policy

import (
	"strings"

	"glmcp/pkg/logging"
)

// Overrides holds the description overrides read from the environment.
// All keys are lower-cased. Action and param keys have the form "tool:name".
type Overrides struct {
	Tools   map[string]string
	Actions map[string]string
	Params  map[string]string
}

// NewOverrides returns an empty override set.
func NewOverrides() Overrides {
	return Overrides{
		Tools:   make(map[string]string),
		Actions: make(map[string]string),
		Params:  make(map[string]string),
	}
}

// ParseOverrides extracts the three override families from env.
//
//	GITLAB_TOOL_<NAME>             tool description
//	GITLAB_ACTION_<TOOL>_<ACTION>  action description
//	GITLAB_PARAM_<TOOL>_<PARAM>    parameter description
//
// Tool and trailing segment are split at the last underscore so tool names
// containing underscores survive. Empty values count as unset.
func ParseOverrides(env map[string]string) Overrides {
	o := NewOverrides()

	for key, value := range env {
		if value == "" {
			continue
		}

		switch {
		case strings.HasPrefix(key, ToolOverridePrefix):
			name := strings.ToLower(strings.TrimPrefix(key, ToolOverridePrefix))
			if name == "" {
				continue
			}
			o.Tools[name] = value

		case strings.HasPrefix(key, ActionOverridePrefix):
			tool, action, ok := splitLastUnderscore(strings.TrimPrefix(key, ActionOverridePrefix))
			if !ok {
				logging.Debug("Policy", "Ignoring action override %s: no tool/action split point", key)
				continue
			}
			o.Actions[tool+":"+action] = value

		case strings.HasPrefix(key, ParamOverridePrefix):
			tool, param, ok := splitLastUnderscore(strings.TrimPrefix(key, ParamOverridePrefix))
			if !ok {
				logging.Debug("Policy", "Ignoring param override %s: no tool/param split point", key)
				continue
			}
			o.Params[tool+":"+param] = value
		}
	}

	return o
}

func splitLastUnderscore(rest string) (string, string, bool) {
	idx := strings.LastIndex(rest, "_")
	if idx <= 0 || idx == len(rest)-1 {
		return "", "", false
	}
	return strings.ToLower(rest[:idx]), strings.ToLower(rest[idx+1:]), true
}

// ToolDescription returns the tool-level override for tool.
func (o Overrides) ToolDescription(tool string) (string, bool) {
	v, ok := o.Tools[strings.ToLower(tool)]
	return v, ok
}

// ActionDescription returns the action-level override for tool:action.
func (o Overrides) ActionDescription(tool, action string) (string, bool) {
	v, ok := o.Actions[strings.ToLower(tool)+":"+strings.ToLower(action)]
	return v, ok
}

// ParamDescription returns the param-level override for tool:param.
func (o Overrides) ParamDescription(tool, param string) (string, bool) {
	v, ok := o.Params[strings.ToLower(tool)+":"+strings.ToLower(param)]
	return v, ok
}

// HasSchemaOverrides reports whether any action or param override targets tool.
func (o Overrides) HasSchemaOverrides(tool string) bool {
	prefix := strings.ToLower(tool) + ":"
	for key := range o.Actions {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	for key := range o.Params {
		if strings.HasPrefix(key, prefix) {
			return true
		}
	}
	return false
}
