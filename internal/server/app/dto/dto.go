// Package dto defines the request and response shapes of the HTTP API.
package dto

import (
	"encoding/json"
	"io"
	"time"

	"notedrop/internal/server/domain/entities"
)

// NoteResponse is the wire shape of a note. UpdatedAt is zero for the
// empty placeholder returned for never-saved paths.
type NoteResponse struct {
	Content   string              `json:"content"`
	Files     []*entities.FileRef `json:"files"`
	Path      string              `json:"path"`
	UpdatedAt time.Time           `json:"updatedAt,omitzero"`
}

// UpsertNoteRequest is the PUT body for a note.
type UpsertNoteRequest struct {
	Content *string `json:"content"`
}

// UploadFile is one file from a multipart upload request.
type UploadFile struct {
	Name        string
	Size        int64
	ContentType string
	Open        func() (io.ReadCloser, error)
}

// UploadedFile is the per-file portion of a successful upload response.
type UploadedFile struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// UploadFailure reports one file that was rejected while the rest of
// the batch proceeded.
type UploadFailure struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

// UploadResponse is the upload endpoint response.
type UploadResponse struct {
	Success  bool            `json:"success"`
	Files    []UploadedFile  `json:"files"`
	Failures []UploadFailure `json:"failures,omitempty"`
	Message  string          `json:"message"`
}

// DeleteFileResponse is the delete endpoint response.
type DeleteFileResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// BroadcastRequest relays one event to a channel.
type BroadcastRequest struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

// ChannelAuthResponse is the signed channel authorization payload.
type ChannelAuthResponse struct {
	Auth        string `json:"auth"`
	ChannelData string `json:"channel_data"`
}

// CaptchaRequest carries the opaque challenge token.
type CaptchaRequest struct {
	Token string `json:"token"`
}

// CaptchaResponse is the verification result.
type CaptchaResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
