package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// TradesAppliedStream carries one entry per trade applied to the ledger.
	TradesAppliedStream = "trades.applied"
	// RatingsSyncedStream carries one summary per finished rating sync run.
	RatingsSyncedStream = "ratings.synced"

	defaultMaxLen = 10000
)

// RedisStreamPublisher publishes events to Redis streams
type RedisStreamPublisher struct {
	client *redis.Client
	maxLen int64
	now    func() time.Time
}

// NewRedisStreamPublisher creates a new Redis stream publisher from existing client
func NewRedisStreamPublisher(client *redis.Client) *RedisStreamPublisher {
	return &RedisStreamPublisher{
		client: client,
		maxLen: defaultMaxLen,
		now:    time.Now,
	}
}

// PublishTradeApplied appends an applied trade to the trades stream
func (rsp *RedisStreamPublisher) PublishTradeApplied(ctx context.Context, messageID string, payload any) error {
	return rsp.publish(ctx, TradesAppliedStream, map[string]any{"message_id": messageID}, payload)
}

// PublishRatingsSynced appends a rating sync summary to the ratings stream
func (rsp *RedisStreamPublisher) PublishRatingsSynced(ctx context.Context, runID string, payload any) error {
	return rsp.publish(ctx, RatingsSyncedStream, map[string]any{"run_id": runID}, payload)
}

func (rsp *RedisStreamPublisher) publish(ctx context.Context, stream string, extra map[string]any, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling %s event: %w", stream, err)
	}

	values := map[string]any{
		"data":      string(data),
		"timestamp": rsp.now().Unix(),
	}
	for k, v := range extra {
		values[k] = v
	}

	err = rsp.client.XAdd(ctx, &redis.XAddArgs{
		Stream: stream,
		MaxLen: rsp.maxLen,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		return fmt.Errorf("publishing to %s: %w", stream, err)
	}
	return nil
}
