package entities

import (
	"glmcp/internal/schema"
)

const schemaVersion = "https://json-schema.org/draft/2020-12/schema"

// param is one property of an action branch.
type param struct {
	name     string
	schema   *schema.Schema
	required bool
}

func str(name, description string) param {
	return param{name: name, schema: &schema.Schema{Type: "string", Description: description}}
}

func integer(name, description string) param {
	return param{name: name, schema: &schema.Schema{Type: "integer", Description: description}}
}

func boolean(name, description string) param {
	return param{name: name, schema: &schema.Schema{Type: "boolean", Description: description}}
}

func enum(name, description string, values ...string) param {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return param{name: name, schema: &schema.Schema{Type: "string", Description: description, Enum: vals}}
}

func strList(name, description string) param {
	return param{name: name, schema: &schema.Schema{
		Type:        "array",
		Description: description,
		Items:       &schema.Schema{Type: "string"},
	}}
}

func (p param) req() param {
	p.required = true
	return p
}

// action builds one branch of a tool union, pinned to name.
func action(name, description string, params ...param) *schema.Schema {
	props := schema.NewProperties()
	props.Set(schema.ActionProperty, &schema.Schema{Type: "string", Const: name, Description: description})
	required := []string{schema.ActionProperty}

	for _, p := range params {
		props.Set(p.name, p.schema)
		if p.required {
			required = append(required, p.name)
		}
	}

	return &schema.Schema{
		Type:       "object",
		Properties: props,
		Required:   required,
	}
}

// union assembles a canonical discriminated-union tool schema.
func union(branches ...*schema.Schema) *schema.Schema {
	return &schema.Schema{
		Version: schemaVersion,
		OneOf:   branches,
	}
}

// Parameters shared by most GitLab resources.
func projectID() param {
	return str("project_id", "Project ID or URL-encoded path").req()
}

func namespace() []param {
	return []param{
		str("project_id", "Project ID or URL-encoded path"),
		str("group_id", "Group ID or URL-encoded path"),
	}
}

func paging() []param {
	return []param{
		integer("page", "Page number"),
		integer("per_page", "Number of items per page"),
	}
}

func concat(groups ...[]param) []param {
	var out []param
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
