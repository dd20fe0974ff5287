package queue

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// NewRedisClient connects to Redis using a redis:// URL.
func NewRedisClient(url, password string, db int) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if password != "" {
		opts.Password = password
	}
	opts.DB = db

	client := redis.NewClient(opts)
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

// SweepLock is a coarse distributed lock around the referral registration
// sweep, so overlapping runs (slow sweep, multiple instances) cannot grant
// the same reward twice before the database constraint would catch it.
type SweepLock struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// NewSweepLock creates a lock with the given key and expiry.
func NewSweepLock(client *redis.Client, key string, ttl time.Duration) *SweepLock {
	return &SweepLock{client: client, key: key, ttl: ttl}
}

// TryAcquire attempts to take the lock. Returns false when another holder
// has it.
func (l *SweepLock) TryAcquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, "1", l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire sweep lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock early. The TTL covers crashed holders.
func (l *SweepLock) Release(ctx context.Context) error {
	return l.client.Del(ctx, l.key).Err()
}
