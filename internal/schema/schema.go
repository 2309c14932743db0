// Package schema models tool input schemas and implements the transform
// pipeline that turns a canonical discriminated-union schema into the shape
// a session is allowed to see.
//
// A canonical schema is an object whose branches live in oneOf (or anyOf).
// Every branch is an object schema with an "action" property pinned to one
// literal, either as const or as a single-value enum:
//
//	{"oneOf": [
//	  {"type": "object", "properties": {"action": {"const": "create"}, ...}},
//	  {"type": "object", "properties": {"action": {"enum": ["delete"]}, ...}}
//	]}
//
// The pipeline runs filter -> override -> flatten, in that order.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Schema is a JSON Schema node with ordered properties.
type Schema = jsonschema.Schema

// Properties is the ordered property map of a Schema.
type Properties = orderedmap.OrderedMap[string, *Schema]

// ActionProperty is the discriminator property of a tool schema.
const ActionProperty = "action"

// Parse decodes a JSON schema document.
func Parse(data []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	return s, nil
}

// MustParse is Parse for schema literals compiled into the binary.
func MustParse(doc string) *Schema {
	s, err := Parse([]byte(doc))
	if err != nil {
		panic(err)
	}
	return s
}

// Marshal encodes a schema, preserving property order.
func Marshal(s *Schema) (json.RawMessage, error) {
	if s == nil {
		return json.RawMessage("{}"), nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return data, nil
}

// Clone returns a deep copy of s. Keywords the schema model does not know
// are not carried over.
func Clone(s *Schema) *Schema {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(s)
	if err != nil {
		panic(fmt.Sprintf("schema: clone marshal: %v", err))
	}
	out := &Schema{}
	if err := json.Unmarshal(data, out); err != nil {
		panic(fmt.Sprintf("schema: clone unmarshal: %v", err))
	}
	return out
}

// Equal reports whether two schemas encode to the same JSON.
func Equal(a, b *Schema) bool {
	ja, errA := Marshal(a)
	jb, errB := Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}

// EmptyObject returns {"type":"object","properties":{}} carrying the given
// dialect tag.
func EmptyObject(version string) *Schema {
	return &Schema{
		Version:    version,
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
}

// NewProperties returns an empty ordered property map.
func NewProperties() *Properties {
	return jsonschema.NewProperties()
}

// Property returns the named property of an object schema.
func Property(s *Schema, name string) (*Schema, bool) {
	if s == nil || s.Properties == nil {
		return nil, false
	}
	p, ok := s.Properties.Get(name)
	return p, ok && p != nil
}

// PropertyNames lists the properties of s in declaration order.
func PropertyNames(s *Schema) []string {
	if s == nil || s.Properties == nil {
		return nil
	}
	names := make([]string, 0, s.Properties.Len())
	for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
		names = append(names, pair.Key)
	}
	return names
}

func isRequired(s *Schema, name string) bool {
	for _, r := range s.Required {
		if r == name {
			return true
		}
	}
	return false
}

func stringValues(values []any) ([]string, bool) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		str, ok := v.(string)
		if !ok {
			return nil, false
		}
		out = append(out, str)
	}
	return out, true
}

func anyValues(values []string) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
