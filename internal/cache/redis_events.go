package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/tradedesk/internal/guard"
	"github.com/fortuna/tradedesk/internal/store"
)

const processedKeyPrefix = "tradedesk:processed:"

// RedisEventStore is a guard.Store backed by SET NX. Records optionally
// expire after a retention period.
type RedisEventStore struct {
	client    *redis.Client
	retention time.Duration
}

// NewRedisEventStore creates an event store; retention zero keeps records forever.
func NewRedisEventStore(client *redis.Client, retention time.Duration) *RedisEventStore {
	return &RedisEventStore{client: client, retention: retention}
}

func (s *RedisEventStore) Insert(ctx context.Context, rec guard.Record) error {
	ok, err := s.client.SetNX(ctx, processedKeyPrefix+rec.ExternalID,
		rec.ProcessedAt.UTC().Format(time.RFC3339Nano), s.retention).Result()
	if err != nil {
		return fmt.Errorf("insert processed event: %w", err)
	}
	if !ok {
		return store.ErrDuplicateKey
	}
	return nil
}

func (s *RedisEventStore) Get(ctx context.Context, externalID string) (*guard.Record, error) {
	val, err := s.client.Get(ctx, processedKeyPrefix+externalID).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get processed event: %w", err)
	}

	processedAt, err := time.Parse(time.RFC3339Nano, val)
	if err != nil {
		return nil, fmt.Errorf("parse processed_at %q: %w", val, err)
	}
	return &guard.Record{ExternalID: externalID, ProcessedAt: processedAt}, nil
}

func (s *RedisEventStore) Delete(ctx context.Context, externalID string) error {
	if err := s.client.Del(ctx, processedKeyPrefix+externalID).Err(); err != nil {
		return fmt.Errorf("delete processed event: %w", err)
	}
	return nil
}
