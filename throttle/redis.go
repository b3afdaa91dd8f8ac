package throttle

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/authgate/redis"
)

// RedisLimiter counts attempts in Redis with a fixed window per key, so the
// limit holds across every instance sharing the Redis.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	prefix string
}

var _ Limiter = (*RedisLimiter)(nil)

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, cfg Config) *RedisLimiter {
	cfg.ApplyDefaults()
	return &RedisLimiter{
		client: client,
		limit:  int64(cfg.MaxAttempts),
		window: cfg.Window,
		prefix: cfg.KeyPrefix,
	}
}

// Allow increments the attempt counter for key.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	n, err := l.client.IncrWindow(ctx, l.prefix+key, l.window)
	if err != nil {
		return false, fmt.Errorf("throttle: %w", err)
	}
	return n <= l.limit, nil
}

// Reset deletes the counter for key.
func (l *RedisLimiter) Reset(ctx context.Context, key string) error {
	if err := l.client.Del(ctx, l.prefix+key); err != nil {
		return fmt.Errorf("throttle: reset: %w", err)
	}
	return nil
}

// RetryAfter reports how long key stays locked out.
func (l *RedisLimiter) RetryAfter(ctx context.Context, key string) (time.Duration, error) {
	return l.client.TTL(ctx, l.prefix+key)
}
