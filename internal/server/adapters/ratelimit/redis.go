package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"notedrop/internal/server/ports/services"
)

// keyPrefix namespaces limiter counters in the shared store.
const keyPrefix = "ratelimit:"

// RedisLimiter is a fixed-window limiter backed by a shared Redis
// counter, suitable for multi-instance deployments.
type RedisLimiter struct {
	client      *redis.Client
	maxRequests int
	window      time.Duration
}

// NewRedisLimiter creates a Redis-backed limiter.
func NewRedisLimiter(client *redis.Client, maxRequests int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client:      client,
		maxRequests: maxRequests,
		window:      window,
	}
}

// Allow increments the key's window counter, setting the expiry on
// first increment, and reports whether it is within the limit.
func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := keyPrefix + key

	count, err := l.client.Incr(ctx, redisKey).Result()
	if err != nil {
		return false, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	if count == 1 {
		if err := l.client.Expire(ctx, redisKey, l.window).Err(); err != nil {
			return false, fmt.Errorf("failed to set rate limit expiry: %w", err)
		}
	}

	return count <= int64(l.maxRequests), nil
}

var _ services.RateLimiter = (*RedisLimiter)(nil)
