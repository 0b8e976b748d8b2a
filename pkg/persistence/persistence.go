// Package persistence provides the workflow definition store abstraction.
package persistence

import (
	"context"
	"strings"
)

// DefinitionReader returns the raw JSON definition stored under a workflow name.
type DefinitionReader interface {
	Workflow(ctx context.Context, name string) ([]byte, error)
}

// Persistence is a workflow definition store. Definitions are addressed by name,
// one definition per name, and returned as raw JSON.
type Persistence interface {
	DefinitionReader

	Workflows(ctx context.Context) ([]string, error)
	SaveWorkflow(ctx context.Context, name string, definition []byte) error
	DeleteWorkflow(ctx context.Context, name string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}

// ValidateName rejects names that cannot be used as store keys.
func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" ||
		strings.ContainsAny(name, `/\`) ||
		strings.Contains(name, "..") {
		return NewWorkflowError("ValidateName", name, ErrInvalidWorkflowName)
	}

	return nil
}
