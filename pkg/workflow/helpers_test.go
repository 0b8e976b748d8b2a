package workflow

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/stepwise/pkg/persistence/file"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, definitions map[string]string) (*file.Persistence, string) {
	t.Helper()

	dir := t.TempDir()
	for name, body := range definitions {
		writeDefinition(t, dir, name, body)
	}

	return file.NewPersistence(dir), dir
}

func writeDefinition(t *testing.T, dir, name, body string) {
	t.Helper()

	err := os.WriteFile(filepath.Join(dir, name+".json"), []byte(body), 0o600)
	require.NoError(t, err)
}

func newTestResolver(t *testing.T, definitions map[string]string) (*Resolver, string) {
	t.Helper()

	store, dir := newTestStore(t, definitions)

	return NewResolver(store, slog.New(slog.DiscardHandler), nil), dir
}
