// Package sync implements the client-side synchronization loop for one
// note session: edits fan out to other sessions after a short broadcast
// debounce and reach durable storage after a longer save debounce.
package sync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"notedrop/internal/realtime"
	"notedrop/pkg/debounce"
	"notedrop/pkg/logger"
)

// Default debounce windows.
const (
	DefaultBroadcastDelay = 300 * time.Millisecond
	DefaultSaveDelay      = 3 * time.Second
)

// Log messages.
const (
	LogEngineStarted   = "sync engine started"
	LogEngineStopped   = "sync engine stopped"
	LogPublishFailed   = "broadcast publish failed, next edit will resend"
	LogSaveFailed      = "durable save failed, will retry"
	LogRemoteAdopted   = "adopted remote content"
	LogReloadFailed    = "attachment reload failed"
	LogUnknownEvent    = "ignoring unknown event frame"
	LogSelfEchoDropped = "dropped self-echo"
)

// ErrTransportClosed reports that the subscription stream ended while
// the engine was still running.
var ErrTransportClosed = errors.New("realtime transport closed")

// Options tune an engine. Zero values fall back to defaults.
type Options struct {
	// BroadcastDelay is the settle window before edits are published to
	// other sessions.
	BroadcastDelay time.Duration
	// SaveDelay is the settle window before edits are written to
	// durable storage.
	SaveDelay time.Duration
	// SessionID identifies this session in outgoing events. Generated
	// when empty.
	SessionID string
	Hooks     Hooks
}

// View is a point-in-time copy of the engine state.
type View struct {
	Content       string
	LastBroadcast string
	LastSaved     string
	UpdatedAt     time.Time
	Files         []realtime.FileSummary
	Saving        bool
}

// Engine owns the synchronization state for one note path. All state
// lives on the Run goroutine; Edit and Snapshot communicate with it
// through channels.
type Engine struct {
	client    NoteClient
	transport Transport
	path      string
	sessionID string
	opts      Options

	edits chan string
	views chan chan View
}

// NewEngine creates an engine for the note path.
func NewEngine(client NoteClient, transport Transport, path string, opts Options) *Engine {
	if opts.BroadcastDelay <= 0 {
		opts.BroadcastDelay = DefaultBroadcastDelay
	}
	if opts.SaveDelay <= 0 {
		opts.SaveDelay = DefaultSaveDelay
	}
	if opts.SessionID == "" {
		opts.SessionID = GenerateSessionID()
	}

	return &Engine{
		client:    client,
		transport: transport,
		path:      path,
		sessionID: opts.SessionID,
		opts:      opts,
		edits:     make(chan string, 64),
		views:     make(chan chan View),
	}
}

// GenerateSessionID returns a fresh session identifier.
func GenerateSessionID() string {
	return "user_" + uuid.NewString()[:8]
}

// SessionID returns the identifier stamped on outgoing events.
func (e *Engine) SessionID() string {
	return e.sessionID
}

// Edit replaces the local content. Successive edits within the debounce
// windows coalesce into one broadcast and one save.
func (e *Engine) Edit(content string) {
	e.edits <- content
}

// Snapshot returns a copy of the current engine state. It blocks until
// the Run loop serves the request.
func (e *Engine) Snapshot() View {
	reply := make(chan View, 1)
	e.views <- reply
	return <-reply
}

type publishResult struct {
	content string
	err     error
}

type saveResult struct {
	content  string
	snapshot *Snapshot
	err      error
}

type reloadResult struct {
	snapshot *Snapshot
	err      error
}

// engineState is the loop-owned mutable state.
type engineState struct {
	content       string
	lastBroadcast string
	lastSaved     string
	updatedAt     time.Time
	files         []realtime.FileSummary

	publishing     bool
	saving         bool
	reloading      bool
	reloadPending  bool
	publishPending bool
	savePending    bool

	// Set when a remote adoption supersedes an in-flight operation:
	// its result must not touch the adopted state.
	discardPublish bool
	discardSave    bool
}

func (st *engineState) view() View {
	files := make([]realtime.FileSummary, len(st.files))
	copy(files, st.files)
	return View{
		Content:       st.content,
		LastBroadcast: st.lastBroadcast,
		LastSaved:     st.lastSaved,
		UpdatedAt:     st.updatedAt,
		Files:         files,
		Saving:        st.saving,
	}
}

// Run loads the note, subscribes to its channel, and processes events
// until the context is cancelled or the transport closes.
func (e *Engine) Run(ctx context.Context) error {
	log := logger.Log(ctx).With(
		zap.String("path", e.path),
		zap.String("session_id", e.sessionID),
	)

	snap, err := e.client.Load(ctx, e.path)
	if err != nil {
		return fmt.Errorf("failed to load note: %w", err)
	}

	inbound, err := e.transport.Subscribe(ctx, realtime.ChannelForPath(e.path))
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	st := &engineState{
		content:       snap.Content,
		lastBroadcast: snap.Content,
		lastSaved:     snap.Content,
		updatedAt:     snap.UpdatedAt,
		files:         snap.Files,
	}

	broadcastTimer := debounce.New(e.opts.BroadcastDelay)
	saveTimer := debounce.New(e.opts.SaveDelay)
	defer broadcastTimer.Stop()
	defer saveTimer.Stop()

	publishDone := make(chan publishResult, 1)
	saveDone := make(chan saveResult, 1)
	reloadDone := make(chan reloadResult, 1)

	log.Info(ctx, LogEngineStarted)
	defer log.Info(ctx, LogEngineStopped)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case content := <-e.edits:
			if content == st.content {
				continue
			}
			st.content = content
			broadcastTimer.Bump()
			saveTimer.Bump()

		case payload, ok := <-inbound:
			if !ok {
				return ErrTransportClosed
			}
			e.handleInbound(ctx, log, st, payload, broadcastTimer, saveTimer, reloadDone)

		case <-broadcastTimer.C():
			broadcastTimer.Fired()
			e.maybePublish(ctx, st, publishDone)

		case <-saveTimer.C():
			saveTimer.Fired()
			e.maybeSave(ctx, st, saveDone)

		case res := <-publishDone:
			st.publishing = false
			if st.discardPublish {
				st.discardPublish = false
				st.publishPending = false
				continue
			}
			if res.err != nil {
				// lastBroadcast stays dirty, so the next edit's scheduled
				// attempt resends naturally. No active retry.
				log.Warn(ctx, LogPublishFailed, zap.Error(res.err))
				st.publishPending = false
				continue
			}
			st.lastBroadcast = res.content
			if st.publishPending && st.content != st.lastBroadcast {
				broadcastTimer.Bump()
			}
			st.publishPending = false

		case res := <-saveDone:
			st.saving = false
			if st.discardSave {
				st.discardSave = false
				st.savePending = false
				continue
			}
			if res.err != nil {
				log.Warn(ctx, LogSaveFailed, zap.Error(res.err))
				if e.opts.Hooks.OnSaveError != nil {
					e.opts.Hooks.OnSaveError(res.err)
				}
				saveTimer.Bump()
				continue
			}
			st.lastSaved = res.content
			if res.snapshot != nil {
				st.updatedAt = res.snapshot.UpdatedAt
			}
			if e.opts.Hooks.OnSaved != nil {
				e.opts.Hooks.OnSaved(Snapshot{
					Path:      e.path,
					Content:   res.content,
					Files:     st.files,
					UpdatedAt: st.updatedAt,
				})
			}
			st.savePending = false
			// The user kept typing while the save was in flight.
			if st.content != st.lastSaved {
				saveTimer.Bump()
			}

		case res := <-reloadDone:
			st.reloading = false
			if res.err != nil {
				log.Warn(ctx, LogReloadFailed, zap.Error(res.err))
			} else {
				st.files = res.snapshot.Files
				if e.opts.Hooks.OnFilesChanged != nil {
					e.opts.Hooks.OnFilesChanged(res.snapshot.Files)
				}
			}
			if st.reloadPending {
				st.reloadPending = false
				e.startReload(ctx, st, reloadDone)
			}

		case reply := <-e.views:
			reply <- st.view()
		}
	}
}

// maybePublish starts an async publish when the settled content has not
// been broadcast yet. Only one publish is in flight at a time. Empty
// content never leaves the session: clearing a note is a local state,
// not a publishable one.
func (e *Engine) maybePublish(ctx context.Context, st *engineState, done chan<- publishResult) {
	if st.content == "" || st.content == st.lastBroadcast {
		return
	}
	if st.publishing {
		st.publishPending = true
		return
	}
	st.publishing = true

	content := st.content
	event := realtime.ContentUpdated{
		Content:   content,
		UpdatedAt: time.Now().UTC(),
		SenderID:  e.sessionID,
	}
	go func() {
		err := e.transport.Publish(ctx, realtime.ChannelForPath(e.path), event)
		done <- publishResult{content: content, err: err}
	}()
}

// maybeSave starts an async durable save when the settled content has
// not been saved yet. Saves never run concurrently within one session,
// and empty content is never written over a stored note.
func (e *Engine) maybeSave(ctx context.Context, st *engineState, done chan<- saveResult) {
	if st.content == "" || st.content == st.lastSaved {
		return
	}
	if st.saving {
		st.savePending = true
		return
	}
	st.saving = true

	content := st.content
	go func() {
		snap, err := e.client.Save(ctx, e.path, content)
		done <- saveResult{content: content, snapshot: snap, err: err}
	}()
}

// startReload refreshes the attachment list from the server.
func (e *Engine) startReload(ctx context.Context, st *engineState, done chan<- reloadResult) {
	if st.reloading {
		st.reloadPending = true
		return
	}
	st.reloading = true
	go func() {
		snap, err := e.client.Load(ctx, e.path)
		done <- reloadResult{snapshot: snap, err: err}
	}()
}

// handleInbound applies one event frame from the channel.
func (e *Engine) handleInbound(
	ctx context.Context,
	log *logger.Logger,
	st *engineState,
	payload []byte,
	broadcastTimer, saveTimer *debounce.Debouncer,
	reloadDone chan<- reloadResult,
) {
	event, err := realtime.Unmarshal(payload)
	if err != nil {
		log.Debug(ctx, LogUnknownEvent, zap.Error(err))
		return
	}

	switch ev := event.(type) {
	case realtime.ContentUpdated:
		if ev.SenderID == e.sessionID {
			log.Debug(ctx, LogSelfEchoDropped)
			return
		}
		if ev.Content == st.content {
			return
		}
		// Last write wins: the remote snapshot replaces local state and
		// cancels any pending broadcast or save of the overwritten text.
		st.content = ev.Content
		st.lastBroadcast = ev.Content
		st.lastSaved = ev.Content
		st.updatedAt = ev.UpdatedAt
		st.discardPublish = st.publishing
		st.discardSave = st.saving
		broadcastTimer.Stop()
		saveTimer.Stop()
		log.Debug(ctx, LogRemoteAdopted)
		if e.opts.Hooks.OnRemoteUpdate != nil {
			e.opts.Hooks.OnRemoteUpdate(ev.Content)
		}

	case realtime.FileUploaded, realtime.FileDeleted:
		e.startReload(ctx, st, reloadDone)
	}
}
