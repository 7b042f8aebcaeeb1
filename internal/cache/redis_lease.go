package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "tradedesk:lease:"

var (
	renewIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

	releaseIfOwner = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)
)

// RedisLeaseStore is a lease.Store using key expiry as the staleness timeout.
type RedisLeaseStore struct {
	client *redis.Client
}

// NewRedisLeaseStore creates a lease store on client.
func NewRedisLeaseStore(client *redis.Client) *RedisLeaseStore {
	return &RedisLeaseStore{client: client}
}

func (s *RedisLeaseStore) TryAcquire(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, leaseKeyPrefix+name, owner, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("setnx lease: %w", err)
	}
	if ok {
		return true, nil
	}
	// Already ours: treat as a renewal.
	return s.Renew(ctx, name, owner, ttl)
}

func (s *RedisLeaseStore) Renew(ctx context.Context, name, owner string, ttl time.Duration) (bool, error) {
	n, err := renewIfOwner.Run(ctx, s.client, []string{leaseKeyPrefix + name}, owner, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("renew lease: %w", err)
	}
	return n == 1, nil
}

func (s *RedisLeaseStore) Release(ctx context.Context, name, owner string) error {
	if err := releaseIfOwner.Run(ctx, s.client, []string{leaseKeyPrefix + name}, owner).Err(); err != nil {
		return fmt.Errorf("release lease: %w", err)
	}
	return nil
}
