// Package transport implements the realtime transport for the sync
// engine: inbound events arrive over a Redis subscription, outbound
// events go through the server's broadcast endpoint so the relay stays
// the single writer on the channel.
package transport

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"notedrop/internal/client/sync"
	"notedrop/internal/realtime"
	"notedrop/pkg/logger"
)

// Publisher relays an event to a channel through the server.
type Publisher interface {
	Broadcast(ctx context.Context, channel string, event realtime.Event) error
}

// RedisTransport implements sync.Transport.
type RedisTransport struct {
	client    *redis.Client
	publisher Publisher
}

// NewRedisTransport creates a transport over an existing Redis client.
func NewRedisTransport(client *redis.Client, publisher Publisher) *RedisTransport {
	return &RedisTransport{client: client, publisher: publisher}
}

// Subscribe streams raw event frames from the channel until the context
// is cancelled.
func (t *RedisTransport) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	sub := t.client.Subscribe(ctx, channel)

	// Surface subscription errors before handing back the stream.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, err
	}

	frames := make(chan []byte)
	go func() {
		defer close(frames)
		defer func() {
			if err := sub.Close(); err != nil {
				logger.Log(ctx).Warn(ctx, "failed to close subscription", zap.Error(err))
			}
		}()

		messages := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-messages:
				if !ok {
					return
				}
				select {
				case frames <- []byte(msg.Payload):
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return frames, nil
}

// Publish sends an event through the server relay.
func (t *RedisTransport) Publish(ctx context.Context, channel string, event realtime.Event) error {
	return t.publisher.Broadcast(ctx, channel, event)
}

var _ sync.Transport = (*RedisTransport)(nil)
