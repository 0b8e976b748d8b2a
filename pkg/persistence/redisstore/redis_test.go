package redisstore_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/dukex/stepwise/pkg/persistence"
	"github.com/dukex/stepwise/pkg/persistence/redisstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

func setupRedis(t *testing.T) (*redisstore.Persistence, context.Context) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping Redis container test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Second)

	container, err := tcredis.Run(ctx, "redis:7-alpine")
	require.NoError(t, err)

	url, err := container.ConnectionString(ctx)
	require.NoError(t, err)

	p, err := redisstore.NewPersistence(ctx, slog.Default(), url)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = p.Close(ctx)
		_ = container.Terminate(ctx)

		cancel()
	})

	return p, ctx
}

func TestNewPersistence_InvalidURL(t *testing.T) {
	_, err := redisstore.NewPersistence(context.Background(), slog.Default(), "not-a-redis-url")
	assert.Error(t, err)
}

func TestPersistence_SaveReadDelete(t *testing.T) {
	p, ctx := setupRedis(t)

	require.NoError(t, p.HealthCheck(ctx))

	_, err := p.Workflow(ctx, "greet")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	definition := []byte(`{"name":"greet","steps":[{"type":"prompt","template":"Hi"}]}`)
	require.NoError(t, p.SaveWorkflow(ctx, "greet", definition))
	require.NoError(t, p.SaveWorkflow(ctx, "beta", definition))

	got, err := p.Workflow(ctx, "greet")
	require.NoError(t, err)
	assert.Equal(t, definition, got)

	names, err := p.Workflows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta", "greet"}, names)

	require.NoError(t, p.DeleteWorkflow(ctx, "greet"))

	err = p.DeleteWorkflow(ctx, "greet")
	assert.True(t, persistence.IsWorkflowNotFound(err))

	names, err = p.Workflows(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"beta"}, names)
}
