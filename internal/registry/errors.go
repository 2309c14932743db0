package registry

import (
	"errors"
	"fmt"
)

// NotFoundError is returned when a tool is not part of the runtime catalog,
// whether it never existed or was filtered out by policy.
type NotFoundError struct {
	ToolName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("tool %s not found", e.ToolName)
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// ActionDeniedError is returned when a call names an action the deployment
// has denied, even though the published schema no longer offers it.
type ActionDeniedError struct {
	ToolName string
	Action   string
}

func (e *ActionDeniedError) Error() string {
	return fmt.Sprintf("action %q of tool %s is denied by configuration", e.Action, e.ToolName)
}

// IsActionDenied checks if an error is or wraps an ActionDeniedError.
func IsActionDenied(err error) bool {
	var deniedErr *ActionDeniedError
	return errors.As(err, &deniedErr)
}

// ValidationError is returned when call arguments do not match the tool's
// published schema.
type ValidationError struct {
	ToolName string
	Err      error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid arguments for tool %s: %v", e.ToolName, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsValidationError checks if an error is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var validationErr *ValidationError
	return errors.As(err, &validationErr)
}
