// Package broadcast provides the Redis pub/sub implementation of the
// broadcast channel.
package broadcast

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notedrop/internal/server/config"
	"notedrop/internal/server/ports/services"
	"notedrop/pkg/logger"
)

// Error messages.
const (
	ErrConnectRedis  = "failed to connect to redis"
	ErrPublishFailed = "failed to publish to channel"
)

// RedisBroadcaster implements services.Broadcaster over Redis pub/sub.
type RedisBroadcaster struct {
	client *redis.Client
}

// NewRedisBroadcaster connects to Redis and verifies the connection.
func NewRedisBroadcaster(ctx context.Context, cfg *config.RedisConfig) (*RedisBroadcaster, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.GetAddressString(),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", ErrConnectRedis, err)
	}

	return &RedisBroadcaster{client: client}, nil
}

// NewRedisBroadcasterFromClient wraps an existing client, used by tests
// and by callers that share one connection.
func NewRedisBroadcasterFromClient(client *redis.Client) *RedisBroadcaster {
	return &RedisBroadcaster{client: client}
}

// Publish relays the payload to all current subscribers of the channel.
// Delivery is at-least-once for subscribed members; there is no replay
// for members that join later.
func (b *RedisBroadcaster) Publish(ctx context.Context, channel string, payload []byte) error {
	log := logger.Log(ctx).With(zap.String("method", "RedisBroadcaster.Publish"), zap.String("channel", channel))

	if err := b.client.Publish(ctx, channel, payload).Err(); err != nil {
		log.Error(ctx, ErrPublishFailed, zap.Error(err))
		return fmt.Errorf("%s %s: %w", ErrPublishFailed, channel, err)
	}

	return nil
}

// Client returns the underlying Redis client.
func (b *RedisBroadcaster) Client() *redis.Client {
	return b.client
}

// Close closes the Redis connection.
func (b *RedisBroadcaster) Close() error {
	return b.client.Close()
}

var _ services.Broadcaster = (*RedisBroadcaster)(nil)
