package sync

import (
	"context"
	"time"

	"notedrop/internal/realtime"
)

// Snapshot is the server-side state of one note.
type Snapshot struct {
	Path      string
	Content   string
	Files     []realtime.FileSummary
	UpdatedAt time.Time
}

// NoteClient reads and writes note snapshots on the server.
type NoteClient interface {
	Load(ctx context.Context, path string) (*Snapshot, error)
	// Save persists the full content snapshot. Last write wins.
	Save(ctx context.Context, path, content string) (*Snapshot, error)
}

// Transport delivers realtime events between sessions on a channel.
type Transport interface {
	// Subscribe returns a stream of raw event frames for the channel.
	// The channel closes when the subscription ends.
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
	Publish(ctx context.Context, channel string, event realtime.Event) error
}

// Hooks are optional callbacks invoked from the engine loop. They must
// not block; long work belongs on the caller's own goroutine.
type Hooks struct {
	// OnRemoteUpdate fires when another session's content is adopted.
	OnRemoteUpdate func(content string)
	// OnFilesChanged fires after the attachment list is reloaded.
	OnFilesChanged func(files []realtime.FileSummary)
	// OnSaved fires after a successful durable save.
	OnSaved func(snapshot Snapshot)
	// OnSaveError fires when a durable save attempt fails.
	OnSaveError func(err error)
}
