package schema

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const requiredForPrefix = "Required for"

// mergedProperty accumulates what the branches say about one property.
type mergedProperty struct {
	def         *Schema
	description string
	declaredBy  []string
	branchCount int
	required    int
}

// flatten merges the branches of s into a single object schema:
//
//   - "action" becomes a string enum of every branch action, in order
//   - other properties are unioned; the first definition wins but takes
//     the longest description any branch gave it
//   - required is the set of properties required by every branch
//   - properties only some branches declare get a "Required for" note
func (t *Transformer) flatten(tool string, s *Schema) *Schema {
	branches := Branches(s)

	var actions []string
	seenAction := make(map[string]struct{})
	for _, b := range branches {
		if !b.Identified {
			continue
		}
		if _, dup := seenAction[b.Action]; dup {
			continue
		}
		seenAction[b.Action] = struct{}{}
		actions = append(actions, b.Action)
	}

	var order []string
	merged := make(map[string]*mergedProperty)
	for _, b := range branches {
		for _, name := range PropertyNames(b.Schema) {
			if name == ActionProperty {
				continue
			}
			prop, _ := Property(b.Schema, name)

			m, exists := merged[name]
			if !exists {
				m = &mergedProperty{def: prop, description: prop.Description}
				merged[name] = m
				order = append(order, name)
			} else if utf8.RuneCountInString(prop.Description) > utf8.RuneCountInString(m.description) {
				m.description = prop.Description
			}

			m.branchCount++
			if b.Identified {
				m.declaredBy = append(m.declaredBy, b.Action)
			}
			if isRequired(b.Schema, name) {
				m.required++
			}
		}
	}

	out := &Schema{
		Version:              s.Version,
		Title:                s.Title,
		Description:          s.Description,
		Type:                 "object",
		Properties:           NewProperties(),
		AdditionalProperties: s.AdditionalProperties,
		Definitions:          s.Definitions,
	}

	actionProp := &Schema{
		Type:        "string",
		Enum:        anyValues(actions),
		Description: actionListDescription(actions),
	}
	t.describeActionEnum(tool, actionProp)
	out.Properties.Set(ActionProperty, actionProp)
	out.Required = []string{ActionProperty}

	total := len(branches)
	for _, name := range order {
		m := merged[name]
		def := m.def
		def.Description = m.description

		if m.branchCount < total && len(m.declaredBy) > 0 && !strings.Contains(def.Description, requiredForPrefix) {
			def.Description = appendSentence(def.Description, requiredForClause(m.declaredBy))
		}

		out.Properties.Set(name, def)
		if m.required == total {
			out.Required = append(out.Required, name)
		}
	}

	return out
}

func requiredForClause(actions []string) string {
	quoted := make([]string, len(actions))
	for i, a := range actions {
		quoted[i] = fmt.Sprintf("'%s'", a)
	}
	return fmt.Sprintf("%s %s action(s).", requiredForPrefix, strings.Join(quoted, ", "))
}

func appendSentence(desc, sentence string) string {
	if desc == "" {
		return sentence
	}
	return desc + " " + sentence
}
