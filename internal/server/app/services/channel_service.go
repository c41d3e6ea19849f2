package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"notedrop/internal/realtime"
	"notedrop/internal/server/app/dto"
	"notedrop/internal/server/ports/services"
	"notedrop/pkg/logger"
)

// authTokenTTL bounds how long a channel authorization stays usable.
const authTokenTTL = 5 * time.Minute

// PresenceData is the membership metadata attached to a channel
// authorization.
type PresenceData struct {
	UserID   string       `json:"user_id"`
	UserInfo PresenceInfo `json:"user_info"`
}

// PresenceInfo is the display portion of the presence metadata.
type PresenceInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ChannelService signs channel authorizations and relays broadcast
// events to the channel provider.
type ChannelService struct {
	broadcaster services.Broadcaster
	secret      []byte
}

// NewChannelService creates the channel service.
func NewChannelService(broadcaster services.Broadcaster, secret string) *ChannelService {
	return &ChannelService{
		broadcaster: broadcaster,
		secret:      []byte(secret),
	}
}

// Authorize produces a signed authorization payload for a connection
// joining a channel, including presence metadata derived from the
// caller's session identity.
func (s *ChannelService) Authorize(ctx context.Context, socketID, channelName, sessionID string) (*dto.ChannelAuthResponse, error) {
	log := logger.Log(ctx).With(zap.String("service", "ChannelService.Authorize"), zap.String("channel", channelName))

	if socketID == "" || channelName == "" || sessionID == "" {
		return nil, ErrMissingAuthParams
	}

	presence := PresenceData{
		UserID: sessionID,
		UserInfo: PresenceInfo{
			ID:   sessionID,
			Name: displayName(sessionID),
		},
	}

	channelData, err := json.Marshal(presence)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal presence data: %w", err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"socket_id":    socketID,
		"channel":      channelName,
		"channel_data": string(channelData),
		"iat":          now.Unix(),
		"exp":          now.Add(authTokenTTL).Unix(),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		log.Error(ctx, "failed to sign channel authorization", zap.Error(err))
		return nil, fmt.Errorf("failed to sign channel authorization: %w", err)
	}

	return &dto.ChannelAuthResponse{
		Auth:        signed,
		ChannelData: string(channelData),
	}, nil
}

// Broadcast validates the event against the known variants and relays
// it to the channel.
func (s *ChannelService) Broadcast(ctx context.Context, req *dto.BroadcastRequest) error {
	log := logger.Log(ctx).With(zap.String("service", "ChannelService.Broadcast"), zap.String("channel", req.Channel))

	if req.Channel == "" || req.Event == "" || len(req.Data) == 0 {
		return ErrMissingBroadcastFields
	}

	// Decode into the typed variant so malformed or unknown payloads
	// are rejected before they reach subscribers.
	event, err := realtime.Decode(realtime.Envelope{
		Event: realtime.EventKind(req.Event),
		Data:  req.Data,
	})
	if err != nil {
		return fmt.Errorf("invalid broadcast event: %w", err)
	}

	frame, err := realtime.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast frame: %w", err)
	}

	if err := s.broadcaster.Publish(ctx, req.Channel, frame); err != nil {
		log.Error(ctx, "failed to publish broadcast", zap.Error(err))
		return fmt.Errorf("failed to publish broadcast: %w", err)
	}

	return nil
}

// displayName derives the presence label from the session identity,
// showing only its tail.
func displayName(sessionID string) string {
	tail := sessionID
	if len(tail) > 4 {
		tail = tail[len(tail)-4:]
	}
	return "User " + tail
}
