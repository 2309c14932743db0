package schema

import (
	"strings"

	"glmcp/internal/policy"
	"glmcp/internal/schemamode"
	"glmcp/pkg/logging"
)

// Transformer applies the policy-driven pipeline to tool schemas.
//
// Transform is a pure function of (tool, schema, policy, mode): the input
// schema is never modified, and applying Transform to its own output under
// the same policy returns an equal schema.
type Transformer struct {
	denied    policy.DeniedActions
	overrides policy.Overrides
}

// NewTransformer creates a transformer for one policy snapshot.
func NewTransformer(denied policy.DeniedActions, overrides policy.Overrides) *Transformer {
	if denied == nil {
		denied = policy.DeniedActions{}
	}
	return &Transformer{denied: denied, overrides: overrides}
}

// NewTransformerFromSnapshot creates a transformer for p.
func NewTransformerFromSnapshot(p *policy.Snapshot) *Transformer {
	return NewTransformer(p.DeniedActions, p.Overrides)
}

// Transform runs filter, override and, in flat mode, flatten.
// When no stage applies the input is returned as is.
func (t *Transformer) Transform(tool string, s *Schema, mode schemamode.Mode) *Schema {
	if s == nil {
		return nil
	}

	needsFilter := len(t.denied.ForTool(tool)) > 0
	needsOverride := t.overrides.HasSchemaOverrides(tool)
	needsFlatten := mode == schemamode.ModeFlat && IsUnion(s)
	if !needsFilter && !needsOverride && !needsFlatten {
		return s
	}

	out := Clone(s)
	if needsFilter {
		out = t.filter(tool, out)
	}
	if needsOverride {
		t.override(tool, out)
	}
	if mode == schemamode.ModeFlat && IsUnion(out) {
		out = t.flatten(tool, out)
	}
	return out
}

// FilterDeniedActions returns s with the tool's denied actions removed.
func (t *Transformer) FilterDeniedActions(tool string, s *Schema) *Schema {
	if s == nil || len(t.denied.ForTool(tool)) == 0 {
		return s
	}
	return t.filter(tool, Clone(s))
}

// ApplyOverrides returns s with description overrides applied.
func (t *Transformer) ApplyOverrides(tool string, s *Schema) *Schema {
	if s == nil || !t.overrides.HasSchemaOverrides(tool) {
		return s
	}
	out := Clone(s)
	t.override(tool, out)
	return out
}

// Flatten merges the branches of a union into one object schema.
func (t *Transformer) Flatten(tool string, s *Schema) *Schema {
	if !IsUnion(s) {
		return s
	}
	return t.flatten(tool, Clone(s))
}

// filter drops denied action branches, or denied enum values of a flat
// schema. It mutates s and returns the schema to continue with.
func (t *Transformer) filter(tool string, s *Schema) *Schema {
	if IsUnion(s) {
		branches := Branches(s)
		kept := branches[:0:0]
		for _, b := range branches {
			if b.Identified && t.denied.IsDenied(tool, b.Action) {
				logging.Debug("SchemaTransform", "Removing denied action %s from %s", b.Action, tool)
				continue
			}
			kept = append(kept, b)
		}

		if len(kept) == len(branches) {
			return s
		}
		if len(kept) == 0 {
			logging.Warn("SchemaTransform", "All actions of %s are denied; tool schema reduced to an empty object and the tool is not usable", tool)
			return EmptyObject(s.Version)
		}
		setBranches(s, kept)
		return s
	}

	actions, ok := ActionEnum(s)
	if !ok {
		return s
	}
	remaining := make([]string, 0, len(actions))
	for _, a := range actions {
		if !t.denied.IsDenied(tool, a) {
			remaining = append(remaining, a)
		}
	}
	if len(remaining) == len(actions) {
		return s
	}
	if len(remaining) == 0 {
		// Legacy flat schemas keep their enum rather than advertising no actions.
		logging.Warn("SchemaTransform", "All actions of flat schema %s are denied; leaving the action enum unchanged", tool)
		return s
	}

	prop, _ := Property(s, ActionProperty)
	prop.Enum = anyValues(remaining)
	prop.Description = actionListDescription(remaining)
	return s
}

// override applies param, action and tool-wide action descriptions in place.
func (t *Transformer) override(tool string, s *Schema) {
	if IsUnion(s) {
		for _, b := range Branches(s) {
			t.overrideProperties(tool, b.Schema, b.Action, b.Identified)
		}
		return
	}

	for _, name := range PropertyNames(s) {
		prop, _ := Property(s, name)
		if name == ActionProperty && len(prop.Enum) > 0 {
			t.describeActionEnum(tool, prop)
			continue
		}
		if d, ok := t.overrides.ParamDescription(tool, name); ok {
			applyDescription(prop, d)
		}
	}
}

func (t *Transformer) overrideProperties(tool string, branch *Schema, action string, identified bool) {
	for _, name := range PropertyNames(branch) {
		prop, _ := Property(branch, name)

		if name == ActionProperty && identified {
			if d, ok := t.overrides.ActionDescription(tool, action); ok {
				applyDescription(prop, d)
				continue
			}
		}
		if d, ok := t.overrides.ParamDescription(tool, name); ok {
			applyDescription(prop, d)
		}
	}
}

// describeActionEnum sets the tool-wide action description of a flat
// action property and lists action-level overrides below it.
func (t *Transformer) describeActionEnum(tool string, prop *Schema) {
	actions, ok := stringValues(prop.Enum)
	if !ok {
		return
	}

	desc := prop.Description
	if d, ok := t.overrides.ParamDescription(tool, ActionProperty); ok && desc != d && !strings.HasPrefix(desc, d+"\n") {
		desc = d
	}
	for _, a := range actions {
		d, ok := t.overrides.ActionDescription(tool, a)
		if !ok {
			continue
		}
		entry := "- " + a + ": " + d
		if strings.Contains(desc, entry) {
			continue
		}
		if desc == "" {
			desc = entry
		} else {
			desc += "\n" + entry
		}
	}
	prop.Description = desc
}

// applyDescription replaces a description unless it is the override
// already carrying a flatten coverage annotation.
func applyDescription(prop *Schema, d string) {
	if strings.HasPrefix(prop.Description, d+" "+requiredForPrefix) {
		return
	}
	prop.Description = d
}

func actionListDescription(actions []string) string {
	return "Action to perform: " + strings.Join(actions, ", ") + "."
}
