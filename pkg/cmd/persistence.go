// Package cmd provides common initialization functions for command-line applications.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/persistence/file"
	"github.com/dukex/stepwise/pkg/persistence/postgresql"
	"github.com/dukex/stepwise/pkg/persistence/redisstore"
)

var supportedPersistenceProviders = []string{"file", "postgres", "postgresql", "redis", "rediss"}

// NewPersistence opens the workflow store selected by the URL scheme. A URL without
// a known scheme is treated as a file system path.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (persistence.Persistence, error) {
	provider := parsePersistenceProvider(databaseURL)
	logger = logger.With("module", "persistence", "provider", provider)

	switch provider {
	case "postgres", "postgresql":
		store, err := postgresql.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgresql store: %w", err)
		}

		return store, nil
	case "redis", "rediss":
		store, err := redisstore.NewPersistence(ctx, logger, databaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis store: %w", err)
		}

		return store, nil
	default:
		return file.NewPersistence(databaseURL), nil
	}
}

func parsePersistenceProvider(databaseURL string) string {
	provider, _, found := strings.Cut(databaseURL, "://")
	if !found {
		return "file"
	}

	for _, supported := range supportedPersistenceProviders {
		if provider == supported {
			return provider
		}
	}

	return "file"
}
