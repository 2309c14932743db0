package config

import (
	"fmt"
	"regexp"
	"strings"

	"glmcp/internal/policy"
	"glmcp/internal/schemamode"
	"glmcp/pkg/logging"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

func oneOf(value string, allowed []string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}

// Validate checks the configuration and reports every problem at once.
//
// Policy variables are checked strictly here even though the policy layer
// tolerates bad values at runtime: a typo in a file is worth failing on.
func (c Config) Validate() error {
	var errs ValidationErrors

	if strings.TrimSpace(c.Server.Name) == "" {
		errs.Add("server.name", "is required", c.Server.Name)
	}
	if !oneOf(c.Server.Transport, Transports) {
		errs.Add("server.transport", fmt.Sprintf("must be one of: %s", strings.Join(Transports, ", ")), c.Server.Transport)
	}
	if c.Server.IsMultiClient() && (c.Server.Port < 1 || c.Server.Port > 65535) {
		errs.Add("server.port", "must be between 1 and 65535", c.Server.Port)
	}

	if c.LogLevel != "" {
		if _, ok := logging.ParseLevel(c.LogLevel); !ok {
			errs.Add("logLevel", "must be one of: debug, info, warn, error", c.LogLevel)
		}
	}
	if c.LogFormat != "" && !oneOf(c.LogFormat, []string{string(logging.FormatText), string(logging.FormatJSON)}) {
		errs.Add("logFormat", "must be one of: text, json", c.LogFormat)
	}

	for key, value := range c.Environment {
		field := "environment." + key
		switch {
		case strings.TrimSpace(key) == "":
			errs.Add("environment", "contains an empty variable name")
		case key == policy.EnvSchemaMode:
			if _, err := schemamode.Parse(value); err != nil {
				errs.Add(field, err.Error(), value)
			}
		case key == policy.EnvDeniedToolsRegex && value != "":
			if _, err := regexp.Compile(value); err != nil {
				errs.Add(field, fmt.Sprintf("is not a valid regular expression: %v", err), value)
			}
		}
	}

	for tool := range c.UnavailableTools {
		if strings.TrimSpace(tool) == "" {
			errs.Add("unavailableTools", "contains an empty tool name")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
