package services_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"notedrop/internal/realtime"
	"notedrop/internal/server/app/dto"
	"notedrop/internal/server/app/services"
)

const channelSecret = "test-channel-secret"

func TestAuthorize(t *testing.T) {
	ctx := context.Background()

	t.Run("success - signed auth with presence metadata", func(t *testing.T) {
		svc := services.NewChannelService(new(mockBroadcaster), channelSecret)

		resp, err := svc.Authorize(ctx, "socket-123", "note-my-note", "user_ab12cd34")
		require.NoError(t, err)
		require.NotNil(t, resp)

		var presence services.PresenceData
		require.NoError(t, json.Unmarshal([]byte(resp.ChannelData), &presence))
		assert.Equal(t, "user_ab12cd34", presence.UserID)
		assert.Equal(t, "user_ab12cd34", presence.UserInfo.ID)
		assert.Equal(t, "User cd34", presence.UserInfo.Name)

		token, err := jwt.Parse(resp.Auth, func(*jwt.Token) (any, error) {
			return []byte(channelSecret), nil
		}, jwt.WithValidMethods([]string{"HS256"}))
		require.NoError(t, err)
		require.True(t, token.Valid)

		claims, ok := token.Claims.(jwt.MapClaims)
		require.True(t, ok)
		assert.Equal(t, "socket-123", claims["socket_id"])
		assert.Equal(t, "note-my-note", claims["channel"])
		assert.Equal(t, resp.ChannelData, claims["channel_data"])
		assert.NotEmpty(t, claims["exp"])
	})

	t.Run("error - missing parameters", func(t *testing.T) {
		svc := services.NewChannelService(new(mockBroadcaster), channelSecret)

		tests := []struct {
			name      string
			socketID  string
			channel   string
			sessionID string
		}{
			{name: "no socket id", channel: "note-x", sessionID: "user_1"},
			{name: "no channel", socketID: "s-1", sessionID: "user_1"},
			{name: "no session id", socketID: "s-1", channel: "note-x"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := svc.Authorize(ctx, tt.socketID, tt.channel, tt.sessionID)
				assert.ErrorIs(t, err, services.ErrMissingAuthParams)
			})
		}
	})

	t.Run("short session id keeps full tail", func(t *testing.T) {
		svc := services.NewChannelService(new(mockBroadcaster), channelSecret)

		resp, err := svc.Authorize(ctx, "socket-123", "note-my-note", "ab")
		require.NoError(t, err)

		var presence services.PresenceData
		require.NoError(t, json.Unmarshal([]byte(resp.ChannelData), &presence))
		assert.Equal(t, "User ab", presence.UserInfo.Name)
	})
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()

	contentData, err := json.Marshal(realtime.ContentUpdated{
		Content:  "hello",
		SenderID: "user_1",
	})
	require.NoError(t, err)

	t.Run("success - valid event relayed as canonical frame", func(t *testing.T) {
		broadcaster := new(mockBroadcaster)

		var published []byte
		broadcaster.On("Publish", mock.Anything, "note-my-note", mock.Anything).
			Run(func(args mock.Arguments) {
				published = args.Get(2).([]byte)
			}).
			Return(nil).Once()

		svc := services.NewChannelService(broadcaster, channelSecret)
		err := svc.Broadcast(ctx, &dto.BroadcastRequest{
			Channel: "note-my-note",
			Event:   string(realtime.KindContentUpdated),
			Data:    contentData,
		})

		require.NoError(t, err)
		broadcaster.AssertExpectations(t)

		event, err := realtime.Unmarshal(published)
		require.NoError(t, err)
		updated, ok := event.(realtime.ContentUpdated)
		require.True(t, ok)
		assert.Equal(t, "hello", updated.Content)
		assert.Equal(t, "user_1", updated.SenderID)
	})

	t.Run("error - missing fields", func(t *testing.T) {
		svc := services.NewChannelService(new(mockBroadcaster), channelSecret)

		err := svc.Broadcast(ctx, &dto.BroadcastRequest{Channel: "note-x"})
		assert.ErrorIs(t, err, services.ErrMissingBroadcastFields)
	})

	t.Run("error - unknown event kind", func(t *testing.T) {
		broadcaster := new(mockBroadcaster)

		svc := services.NewChannelService(broadcaster, channelSecret)
		err := svc.Broadcast(ctx, &dto.BroadcastRequest{
			Channel: "note-my-note",
			Event:   "made-up-event",
			Data:    contentData,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, realtime.ErrUnknownEventKind)
		broadcaster.AssertNotCalled(t, "Publish")
	})

	t.Run("error - publish failure", func(t *testing.T) {
		broadcaster := new(mockBroadcaster)
		broadcaster.On("Publish", mock.Anything, "note-my-note", mock.Anything).Return(errDatabase).Once()

		svc := services.NewChannelService(broadcaster, channelSecret)
		err := svc.Broadcast(ctx, &dto.BroadcastRequest{
			Channel: "note-my-note",
			Event:   string(realtime.KindContentUpdated),
			Data:    contentData,
		})

		require.Error(t, err)
		assert.ErrorIs(t, err, errDatabase)
	})
}
