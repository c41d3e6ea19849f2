// Package realtime defines the broadcast channel event types shared by
// the server relay and the client sync engine. Every event kind has a
// fixed payload shape so receivers can dispatch exhaustively instead of
// duck-typing incoming data.
package realtime

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// EventKind discriminates the broadcast event variants.
type EventKind string

// Broadcast event kinds.
const (
	KindContentUpdated EventKind = "content-updated"
	KindFileUploaded   EventKind = "file-uploaded"
	KindFileDeleted    EventKind = "file-deleted"
)

// ChannelPrefix prefixes every note channel name.
const ChannelPrefix = "note-"

// ErrUnknownEventKind is returned when an envelope carries an
// unrecognized event name.
var ErrUnknownEventKind = errors.New("unknown event kind")

// ChannelForPath returns the broadcast channel name for a note path.
func ChannelForPath(path string) string {
	return ChannelPrefix + path
}

// Event is implemented by all broadcast event payloads.
type Event interface {
	Kind() EventKind
}

// ContentUpdated announces a new draft of the note content.
type ContentUpdated struct {
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updatedAt"`
	SenderID  string    `json:"senderId"`
}

// Kind implements Event.
func (ContentUpdated) Kind() EventKind { return KindContentUpdated }

// FileSummary is the per-file portion of a FileUploaded event.
type FileSummary struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// FileUploaded announces that an upload batch completed.
type FileUploaded struct {
	Files     []FileSummary `json:"files"`
	Timestamp time.Time     `json:"timestamp"`
}

// Kind implements Event.
func (FileUploaded) Kind() EventKind { return KindFileUploaded }

// FileDeleted announces that an attachment was removed.
type FileDeleted struct {
	FileID    string    `json:"fileId"`
	FileName  string    `json:"fileName"`
	Timestamp time.Time `json:"timestamp"`
}

// Kind implements Event.
func (FileDeleted) Kind() EventKind { return KindFileDeleted }

// Envelope is the wire frame carried on the channel.
type Envelope struct {
	Event EventKind       `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Marshal wraps an event into its wire frame.
func Marshal(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", ev.Kind(), err)
	}
	frame, err := json.Marshal(Envelope{Event: ev.Kind(), Data: data})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal envelope: %w", err)
	}
	return frame, nil
}

// Unmarshal decodes a wire frame into its typed event.
func Unmarshal(frame []byte) (Event, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("failed to unmarshal envelope: %w", err)
	}
	return Decode(env)
}

// Decode turns an envelope into its typed event.
func Decode(env Envelope) (Event, error) {
	switch env.Event {
	case KindContentUpdated:
		var ev ContentUpdated
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Event, err)
		}
		return ev, nil
	case KindFileUploaded:
		var ev FileUploaded
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Event, err)
		}
		return ev, nil
	case KindFileDeleted:
		var ev FileDeleted
		if err := json.Unmarshal(env.Data, &ev); err != nil {
			return nil, fmt.Errorf("failed to unmarshal %s payload: %w", env.Event, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventKind, env.Event)
	}
}
