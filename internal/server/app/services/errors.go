// Package services contains the application services of the note
// service: notes, files, and the realtime channel relay.
package services

import "errors"

// Sentinel errors mapped to HTTP statuses by the handlers.
var (
	ErrInvalidPath            = errors.New("invalid note path format")
	ErrNoFiles                = errors.New("no files provided")
	ErrTooManyFiles           = errors.New("maximum files per note exceeded")
	ErrFileNotFound           = errors.New("file not found")
	ErrFileExpired            = errors.New("file has expired")
	ErrMissingAuthParams      = errors.New("missing required parameters")
	ErrMissingBroadcastFields = errors.New("missing required fields: channel, event, data")
)
