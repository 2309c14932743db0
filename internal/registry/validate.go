package registry

import (
	"bytes"
	"encoding/json"
	"fmt"

	"glmcp/internal/schema"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compileSchema compiles a tool schema for argument validation.
func compileSchema(toolName string, s *schema.Schema) (*jsonschema.Schema, error) {
	raw, err := schema.Marshal(s)
	if err != nil {
		return nil, err
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("schema of %s is not valid JSON: %w", toolName, err)
	}

	c := jsonschema.NewCompiler()
	resource := toolName + ".json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, fmt.Errorf("failed to add schema of %s: %w", toolName, err)
	}
	compiled, err := c.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema of %s: %w", toolName, err)
	}
	return compiled, nil
}

// validateArgs checks args against a compiled tool schema.
func validateArgs(compiled *jsonschema.Schema, args map[string]any) error {
	if args == nil {
		args = map[string]any{}
	}

	// Round-trip through JSON so numbers reach the validator as json.Number.
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("arguments are not serializable: %w", err)
	}
	instance, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("arguments are not valid JSON: %w", err)
	}

	return compiled.Validate(instance)
}
