// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
	"strings"
)

// Business Logic Errors - These indicate client errors (4xx responses).
var (
	// ErrInvalidDefinition is returned when a definition fails validation before saving.
	ErrInvalidDefinition = errors.New("invalid workflow definition")

	// ErrNameMismatch is returned when a definition is saved under a name other than its own.
	ErrNameMismatch = errors.New("definition name does not match workflow name")
)

// ValidationError lists every problem found in a rejected definition.
type ValidationError struct {
	Op       string   // Operation name
	Workflow string   // Workflow the definition was submitted for
	Problems []string // Human-readable problems, one per finding
	Err      error    // Underlying error
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return fmt.Sprintf("%s: workflow %s: %v", e.Op, e.Workflow, e.Err)
	}

	return fmt.Sprintf("%s: workflow %s: %v: %s", e.Op, e.Workflow, e.Err, strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func (e *ValidationError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// IsValidationError checks if an error is a validation error that should return HTTP 422.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDefinition) ||
		errors.Is(err, ErrNameMismatch)
}

// NewValidationError creates a new validation error with context.
func NewValidationError(op, workflow string, problems []string, err error) *ValidationError {
	return &ValidationError{
		Op:       op,
		Workflow: workflow,
		Problems: problems,
		Err:      err,
	}
}
