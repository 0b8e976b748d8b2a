// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrWorkflowNotFound indicates no definition is stored under the given name.
	ErrWorkflowNotFound = errors.New("workflow not found")

	// ErrInvalidWorkflowName indicates a name that cannot address a definition.
	ErrInvalidWorkflowName = errors.New("invalid workflow name")

	// ErrMalformedDefinition indicates stored content that cannot be turned into JSON.
	ErrMalformedDefinition = errors.New("malformed workflow definition")
)

// WorkflowError wraps workflow-related errors with additional context.
type WorkflowError struct {
	Op   string // Operation being performed (e.g., "Workflow", "SaveWorkflow")
	Name string // Workflow name
	Err  error  // Underlying error
}

func (e *WorkflowError) Error() string {
	return fmt.Sprintf("%s operation failed for workflow %s: %v", e.Op, e.Name, e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for workflow errors.
func (e *WorkflowError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewWorkflowError creates a new workflow error with context.
func NewWorkflowError(op, name string, err error) *WorkflowError {
	return &WorkflowError{
		Op:   op,
		Name: name,
		Err:  err,
	}
}

// IsWorkflowNotFound checks if an error indicates a workflow was not found.
func IsWorkflowNotFound(err error) bool {
	return errors.Is(err, ErrWorkflowNotFound)
}

// IsMalformedDefinition checks if an error indicates unreadable stored content.
func IsMalformedDefinition(err error) bool {
	return errors.Is(err, ErrMalformedDefinition)
}

// IsInvalidWorkflowName checks if an error indicates an unusable workflow name.
func IsInvalidWorkflowName(err error) bool {
	return errors.Is(err, ErrInvalidWorkflowName)
}
