package schema

// Branch is one variant of a discriminated union, tagged by its action.
type Branch struct {
	// Action is the branch's action identity. Empty when Identified is false.
	Action     string
	Identified bool
	Schema     *Schema
}

// IsUnion reports whether s carries branches.
func IsUnion(s *Schema) bool {
	return s != nil && (len(s.OneOf) > 0 || len(s.AnyOf) > 0)
}

// Branches returns the tagged branches of a union schema in schema order.
func Branches(s *Schema) []Branch {
	raw := rawBranches(s)
	if len(raw) == 0 {
		return nil
	}
	out := make([]Branch, 0, len(raw))
	for _, b := range raw {
		action, ok := ActionOf(b)
		out = append(out, Branch{Action: action, Identified: ok, Schema: b})
	}
	return out
}

func rawBranches(s *Schema) []*Schema {
	if s == nil {
		return nil
	}
	if len(s.OneOf) > 0 {
		return s.OneOf
	}
	return s.AnyOf
}

// setBranches stores branches back under the keyword the schema used.
func setBranches(s *Schema, branches []Branch) {
	raw := make([]*Schema, len(branches))
	for i, b := range branches {
		raw[i] = b.Schema
	}
	if len(s.OneOf) > 0 {
		s.OneOf = raw
		return
	}
	s.AnyOf = raw
}

// ActionOf derives the action identity of a branch: the const value of its
// "action" property, or the single value of its enum.
func ActionOf(branch *Schema) (string, bool) {
	prop, ok := Property(branch, ActionProperty)
	if !ok {
		return "", false
	}
	if str, ok := prop.Const.(string); ok && str != "" {
		return str, true
	}
	if len(prop.Enum) == 1 {
		if str, ok := prop.Enum[0].(string); ok && str != "" {
			return str, true
		}
	}
	return "", false
}

// ActionEnum returns the enumerated actions of a flat schema.
func ActionEnum(s *Schema) ([]string, bool) {
	if IsUnion(s) {
		return nil, false
	}
	prop, ok := Property(s, ActionProperty)
	if !ok || len(prop.Enum) == 0 {
		return nil, false
	}
	return stringValues(prop.Enum)
}

// Actions lists every action a schema offers: branch identities for a
// union (deduplicated, first appearance wins), enum values for a flat schema.
func Actions(s *Schema) []string {
	if IsUnion(s) {
		var out []string
		seen := make(map[string]struct{})
		for _, b := range Branches(s) {
			if !b.Identified {
				continue
			}
			if _, dup := seen[b.Action]; dup {
				continue
			}
			seen[b.Action] = struct{}{}
			out = append(out, b.Action)
		}
		return out
	}
	actions, _ := ActionEnum(s)
	return actions
}
