// Package file provides file-based persistence for workflow definitions.
package file

import (
	"context"
	"os"
	"strings"

	"github.com/dukex/stepwise/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the file system.
type Persistence struct {
	root         string
	workflowRepo *WorkflowRepository
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
// Definitions live directly under root as <name>.json (or <name>.yaml / <name>.yml).
func NewPersistence(root string) *Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{
		root:         cleanRoot,
		workflowRepo: NewWorkflowRepository(cleanRoot),
	}
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

func (fp *Persistence) Workflow(ctx context.Context, name string) ([]byte, error) {
	return fp.workflowRepo.GetByName(ctx, name)
}

func (fp *Persistence) Workflows(ctx context.Context) ([]string, error) {
	return fp.workflowRepo.Names(ctx)
}

func (fp *Persistence) SaveWorkflow(ctx context.Context, name string, definition []byte) error {
	return fp.workflowRepo.Save(ctx, name, definition)
}

func (fp *Persistence) DeleteWorkflow(ctx context.Context, name string) error {
	return fp.workflowRepo.Delete(ctx, name)
}

var _ persistence.Persistence = (*Persistence)(nil)
