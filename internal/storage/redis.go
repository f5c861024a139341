package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of the go-redis client used by RedisThrottleStore
type RedisClient interface {
	Ping(ctx context.Context) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Close() error
}

// RedisThrottleStore keeps throttle state in Redis. A claim is a SET NX with
// the window as TTL, so an unexpired key means the cooldown is still running
// and expiry returns the key to idle without any background work.
type RedisThrottleStore struct {
	client RedisClient
	prefix string
}

// Ensure RedisThrottleStore implements ThrottleStore
var _ ThrottleStore = (*RedisThrottleStore)(nil)

// NewRedisThrottleStore connects to addr and verifies the connection with PING
func NewRedisThrottleStore(ctx context.Context, addr, password string, db int, prefix string) (*RedisThrottleStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s failed: %w", addr, err)
	}

	return NewRedisThrottleStoreWithClient(client, prefix), nil
}

// NewRedisThrottleStoreWithClient wraps an existing client
func NewRedisThrottleStoreWithClient(client RedisClient, prefix string) *RedisThrottleStore {
	return &RedisThrottleStore{client: client, prefix: prefix}
}

// Claim sets key with the window as TTL if it is not already set
func (s *RedisThrottleStore) Claim(ctx context.Context, key string, now time.Time, window time.Duration) (bool, error) {
	if window <= 0 {
		return true, nil
	}

	ok, err := s.client.SetNX(ctx, s.prefix+key, strconv.FormatInt(now.UnixNano(), 10), window).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim throttle key %s: %w", key, err)
	}
	return ok, nil
}

// LastSent reads the claim time stored under key
func (s *RedisThrottleStore) LastSent(ctx context.Context, key string) (time.Time, bool, error) {
	val, err := s.client.Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("failed to read throttle key %s: %w", key, err)
	}

	nanos, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("malformed throttle value for %s: %w", key, err)
	}
	return time.Unix(0, nanos).UTC(), true, nil
}

// Close releases the Redis connection
func (s *RedisThrottleStore) Close() error {
	return s.client.Close()
}
