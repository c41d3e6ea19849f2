package broadcast_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedrop/internal/server/adapters/broadcast"
)

func newTestBroadcaster(t *testing.T) (*miniredis.Miniredis, *broadcast.RedisBroadcaster) {
	t.Helper()
	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	b := broadcast.NewRedisBroadcasterFromClient(client)
	t.Cleanup(func() { _ = b.Close() })
	return mini, b
}

func TestPublishDeliversToSubscribers(t *testing.T) {
	ctx := context.Background()
	mini, b := newTestBroadcaster(t)

	subscriber := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = subscriber.Close() })

	sub := subscriber.Subscribe(ctx, "note-my-note")
	t.Cleanup(func() { _ = sub.Close() })
	_, err := sub.Receive(ctx)
	require.NoError(t, err)

	require.NoError(t, b.Publish(ctx, "note-my-note", []byte(`{"event":"content-updated"}`)))

	select {
	case msg := <-sub.Channel():
		assert.Equal(t, "note-my-note", msg.Channel)
		assert.JSONEq(t, `{"event":"content-updated"}`, msg.Payload)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for published message")
	}
}

func TestPublishWithoutSubscribersSucceeds(t *testing.T) {
	ctx := context.Background()
	_, b := newTestBroadcaster(t)

	// Pub/sub has no replay: publishing into an empty channel is not an
	// error, the frame is simply dropped.
	assert.NoError(t, b.Publish(ctx, "note-empty", []byte("{}")))
}

func TestPublishConnectionFailure(t *testing.T) {
	ctx := context.Background()
	mini, b := newTestBroadcaster(t)

	mini.Close()

	err := b.Publish(ctx, "note-my-note", []byte("{}"))
	assert.Error(t, err)
}
