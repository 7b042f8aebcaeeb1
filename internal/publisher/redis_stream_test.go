package publisher

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(60 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err, "failed to start redis container")

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() {
		client.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})
	return client
}

func TestPublishTradeApplied(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	pub := NewRedisStreamPublisher(client)
	pub.now = func() time.Time { return time.Unix(1700000000, 0) }

	payload := map[string]any{"teams": []string{"Sixers", "Knicks"}}
	require.NoError(t, pub.PublishTradeApplied(ctx, "msg-123", payload))

	entries, err := client.XRange(ctx, TradesAppliedStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)

	values := entries[0].Values
	assert.Equal(t, "msg-123", values["message_id"])
	assert.Equal(t, "1700000000", values["timestamp"])
	assert.JSONEq(t, `{"teams":["Sixers","Knicks"]}`, values["data"].(string))
}

func TestPublishRatingsSynced(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	pub := NewRedisStreamPublisher(client)
	require.NoError(t, pub.PublishRatingsSynced(ctx, "42", map[string]int{"updated": 3}))
	require.NoError(t, pub.PublishRatingsSynced(ctx, "43", map[string]int{"updated": 0}))

	entries, err := client.XRange(ctx, RatingsSyncedStream, "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "42", entries[0].Values["run_id"])
	assert.Equal(t, "43", entries[1].Values["run_id"])

	n, err := client.XLen(ctx, TradesAppliedStream).Result()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPublish_UnmarshalablePayload(t *testing.T) {
	pub := NewRedisStreamPublisher(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}))
	err := pub.PublishTradeApplied(context.Background(), "msg-1", make(chan int))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "marshaling trades.applied event")
}
