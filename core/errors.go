package core

import (
	"errors"
	"fmt"
)

// Sentinel errors surfaced by the registry and factory. Callers branch with
// errors.Is.
var (
	// ErrDuplicateAgent is returned when registering an agent whose id is
	// already present. The existing entry is left untouched.
	ErrDuplicateAgent = errors.New("agent id already registered")

	// ErrUnknownAgentType is returned by the factory when no constructor is
	// registered for the requested type tag.
	ErrUnknownAgentType = errors.New("unknown agent type")

	// ErrAgentNotFound is returned on lookup of an unregistered agent id.
	ErrAgentNotFound = errors.New("agent not found")
)

// ValidationError reports a missing or malformed required input field.
// Validation errors are never retried: the workflow moves straight to FAILED.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("validation failed for %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("missing required field %q", e.Field)
}

// NewValidationError reports a missing required field.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
