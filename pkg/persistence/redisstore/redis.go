// Package redisstore provides Redis persistence for workflow definitions.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/dukex/stepwise/pkg/persistence"
	redis "github.com/redis/go-redis/v9"
)

const defaultKeyPrefix = "stepwise:"

// Persistence stores each definition as a string key and tracks names in a set.
type Persistence struct {
	client    redis.UniversalClient
	logger    *slog.Logger
	keyPrefix string
}

// NewPersistence connects using a redis:// or rediss:// URL.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	options, err := redis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid redis URL: %w", err)
	}

	client := redis.NewClient(options)

	err = client.Ping(ctx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return NewPersistenceWithClient(client, logger, defaultKeyPrefix), nil
}

// NewPersistenceWithClient wraps an existing client. keyPrefix namespaces every key.
func NewPersistenceWithClient(client redis.UniversalClient, logger *slog.Logger, keyPrefix string) *Persistence {
	return &Persistence{
		client:    client,
		logger:    logger,
		keyPrefix: keyPrefix,
	}
}

func (p *Persistence) definitionKey(name string) string {
	return p.keyPrefix + "workflow:" + name
}

func (p *Persistence) namesKey() string {
	return p.keyPrefix + "workflows"
}

func (p *Persistence) Workflow(ctx context.Context, name string) ([]byte, error) {
	err := persistence.ValidateName(name)
	if err != nil {
		return nil, err
	}

	definition, err := p.client.Get(ctx, p.definitionKey(name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, persistence.NewWorkflowError("Workflow", name, persistence.ErrWorkflowNotFound)
		}

		return nil, fmt.Errorf("failed to fetch workflow %s: %w", name, err)
	}

	return definition, nil
}

func (p *Persistence) Workflows(ctx context.Context) ([]string, error) {
	names, err := p.client.SMembers(ctx, p.namesKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list workflows: %w", err)
	}

	sort.Strings(names)

	return names, nil
}

func (p *Persistence) SaveWorkflow(ctx context.Context, name string, definition []byte) error {
	err := persistence.ValidateName(name)
	if err != nil {
		return err
	}

	_, err = p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, p.definitionKey(name), definition, 0)
		pipe.SAdd(ctx, p.namesKey(), name)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save workflow %s: %w", name, err)
	}

	return nil
}

func (p *Persistence) DeleteWorkflow(ctx context.Context, name string) error {
	var deleted *redis.IntCmd

	_, err := p.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		deleted = pipe.Del(ctx, p.definitionKey(name))
		pipe.SRem(ctx, p.namesKey(), name)

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete workflow %s: %w", name, err)
	}

	if deleted.Val() == 0 {
		return persistence.NewWorkflowError("DeleteWorkflow", name, persistence.ErrWorkflowNotFound)
	}

	return nil
}

func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping redis: %w", err)
	}

	return nil
}

func (p *Persistence) Close(ctx context.Context) error {
	err := p.client.Close()
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to close redis client", "error", err)

		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

var _ persistence.Persistence = (*Persistence)(nil)
