// Package services defines the collaborator interfaces the application
// services depend on.
package services

import (
	"context"
	"io"
	"time"
)

// ObjectStorage stores attachment bytes under server-generated keys.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	// PresignGet returns a time-limited URL for downloading the object.
	PresignGet(ctx context.Context, key string, expires time.Duration) (string, error)
}

// Broadcaster relays events to all current subscribers of a channel.
type Broadcaster interface {
	Publish(ctx context.Context, channel string, payload []byte) error
}

// CaptchaVerifier checks an opaque challenge token against the
// external challenge service.
type CaptchaVerifier interface {
	// Verify checks a challenge token. remoteIP may be empty.
	Verify(ctx context.Context, token, remoteIP string) (bool, error)
}

// RateLimiter is a counter store for sliding-window request limits.
// Implementations may be process-local or backed by a shared store.
type RateLimiter interface {
	// Allow records one request for the key and reports whether it is
	// within the limit.
	Allow(ctx context.Context, key string) (bool, error)
}
