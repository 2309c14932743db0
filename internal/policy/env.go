package policy

import (
	"os"
	"strings"
)

// Environment variable names consumed by the policy layer.
const (
	EnvDeniedActions    = "GITLAB_DENIED_ACTIONS"
	EnvDeniedToolsRegex = "GITLAB_DENIED_TOOLS_REGEX"
	EnvReadOnlyMode     = "GITLAB_READ_ONLY_MODE"
	EnvSchemaMode       = "GITLAB_SCHEMA_MODE"

	// Prefixes of the description override families.
	ToolOverridePrefix   = "GITLAB_TOOL_"
	ActionOverridePrefix = "GITLAB_ACTION_"
	ParamOverridePrefix  = "GITLAB_PARAM_"
)

// Environ returns the current process environment as a map.
func Environ() map[string]string {
	return environFrom(os.Environ())
}

func environFrom(pairs []string) map[string]string {
	env := make(map[string]string, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			continue
		}
		env[key] = value
	}
	return env
}

// Merge layers environment maps; later maps win.
func Merge(layers ...map[string]string) map[string]string {
	merged := make(map[string]string)
	for _, layer := range layers {
		for k, v := range layer {
			merged[k] = v
		}
	}
	return merged
}
