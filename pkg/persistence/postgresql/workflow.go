package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/stepwise/pkg/persistence"
)

// WorkflowRepository handles workflow definition database operations.
type WorkflowRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewWorkflowRepository creates a new workflow repository.
func NewWorkflowRepository(db *sql.DB, logger *slog.Logger) *WorkflowRepository {
	return &WorkflowRepository{db: db, logger: logger}
}

// GetByName returns the stored definition text.
func (r *WorkflowRepository) GetByName(ctx context.Context, name string) ([]byte, error) {
	err := persistence.ValidateName(name)
	if err != nil {
		return nil, err
	}

	var definition string

	err = r.db.QueryRowContext(ctx,
		`SELECT definition FROM workflow_definitions WHERE name = $1`, name,
	).Scan(&definition)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewWorkflowError("GetByName", name, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to query workflow %s: %w", name, err)
	}

	return []byte(definition), nil
}

// Names returns all workflow names in ascending order.
func (r *WorkflowRepository) Names(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT name FROM workflow_definitions ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query workflows: %w", err)
	}

	defer func(ctx context.Context, r *WorkflowRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	names := make([]string, 0)

	for rows.Next() {
		var name string

		err := rows.Scan(&name)
		if err != nil {
			return nil, fmt.Errorf("failed to scan workflow name: %w", err)
		}

		names = append(names, name)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating workflows: %w", err)
	}

	return names, nil
}

// Save upserts a definition.
func (r *WorkflowRepository) Save(ctx context.Context, name string, definition []byte) error {
	err := persistence.ValidateName(name)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO workflow_definitions (name, definition, created_at, updated_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (name) DO UPDATE SET
			definition = EXCLUDED.definition,
			updated_at = NOW()
	`

	_, err = r.db.ExecContext(ctx, query, name, string(definition))
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", name, err)
	}

	return nil
}

// Delete removes a definition, reporting ErrWorkflowNotFound when nothing was deleted.
func (r *WorkflowRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM workflow_definitions WHERE name = $1`, name)
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", name, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if affected == 0 {
		return persistence.NewWorkflowError("Delete", name, persistence.ErrWorkflowNotFound)
	}

	return nil
}
