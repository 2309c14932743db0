package policy

import (
	"sort"
	"strings"

	"glmcp/pkg/logging"
)

// DeniedActions indexes denied actions per tool. Both levels are lower-cased.
type DeniedActions map[string]map[string]struct{}

// ParseDeniedActions parses a comma separated list of "tool:action" pairs.
//
// Malformed pairs (no colon, empty tool or action) are skipped. The parser
// never fails: a misconfigured list must not take the catalog down.
func ParseDeniedActions(value string) DeniedActions {
	denied := make(DeniedActions)
	if strings.TrimSpace(value) == "" {
		return denied
	}

	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		tool, action, ok := strings.Cut(pair, ":")
		tool = strings.ToLower(strings.TrimSpace(tool))
		action = strings.ToLower(strings.TrimSpace(action))
		if !ok || tool == "" || action == "" {
			logging.Debug("Policy", "Ignoring malformed denied action entry %q", pair)
			continue
		}

		actions, exists := denied[tool]
		if !exists {
			actions = make(map[string]struct{})
			denied[tool] = actions
		}
		actions[action] = struct{}{}
	}

	return denied
}

// IsDenied reports whether action is denied for tool.
func (d DeniedActions) IsDenied(tool, action string) bool {
	actions, ok := d[strings.ToLower(tool)]
	if !ok {
		return false
	}
	_, denied := actions[strings.ToLower(action)]
	return denied
}

// ForTool returns the denied set for tool, or nil.
func (d DeniedActions) ForTool(tool string) map[string]struct{} {
	return d[strings.ToLower(tool)]
}

// AllDenied reports whether every action in actions is denied for tool.
// An empty action list is never "all denied".
func (d DeniedActions) AllDenied(tool string, actions []string) bool {
	if len(actions) == 0 {
		return false
	}
	for _, action := range actions {
		if !d.IsDenied(tool, action) {
			return false
		}
	}
	return true
}

// Actions returns the sorted denied actions of tool.
func (d DeniedActions) Actions(tool string) []string {
	set := d.ForTool(tool)
	out := make([]string, 0, len(set))
	for action := range set {
		out = append(out, action)
	}
	sort.Strings(out)
	return out
}
