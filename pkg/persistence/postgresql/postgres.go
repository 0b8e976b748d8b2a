// Package postgresql provides PostgreSQL persistence for workflow definitions.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db           *sql.DB
	logger       *slog.Logger
	workflowRepo *WorkflowRepository
}

// NewPersistence connects to PostgreSQL and brings the schema up to date.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:           database,
		logger:       logger,
		workflowRepo: NewWorkflowRepository(database, logger),
	}, nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Workflow returns the raw definition stored under name.
func (p *Persistence) Workflow(ctx context.Context, name string) ([]byte, error) {
	return p.workflowRepo.GetByName(ctx, name)
}

// Workflows returns every stored workflow name.
func (p *Persistence) Workflows(ctx context.Context) ([]string, error) {
	return p.workflowRepo.Names(ctx)
}

// SaveWorkflow inserts or replaces a definition.
func (p *Persistence) SaveWorkflow(ctx context.Context, name string, definition []byte) error {
	return p.workflowRepo.Save(ctx, name, definition)
}

// DeleteWorkflow removes a definition.
func (p *Persistence) DeleteWorkflow(ctx context.Context, name string) error {
	return p.workflowRepo.Delete(ctx, name)
}

var _ persistence.Persistence = (*Persistence)(nil)
