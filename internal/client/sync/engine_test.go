package sync_test

import (
	"context"
	"errors"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedrop/internal/client/sync"
	"notedrop/internal/realtime"
)

var (
	errSaveRejected    = errors.New("save rejected")
	errPublishRejected = errors.New("publish rejected")
)

// fakeClient is an in-memory NoteClient that records saves and can fail
// a configured number of them.
type fakeClient struct {
	mu        stdsync.Mutex
	snapshot  sync.Snapshot
	saves     []string
	loads     int
	failSaves int
}

func (c *fakeClient) Load(context.Context, string) (*sync.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.loads++
	snap := c.snapshot
	return &snap, nil
}

func (c *fakeClient) Save(_ context.Context, _, content string) (*sync.Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failSaves > 0 {
		c.failSaves--
		return nil, errSaveRejected
	}
	c.saves = append(c.saves, content)
	c.snapshot.Content = content
	c.snapshot.UpdatedAt = time.Now()
	snap := c.snapshot
	return &snap, nil
}

func (c *fakeClient) savedContents() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.saves...)
}

func (c *fakeClient) loadCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loads
}

func (c *fakeClient) setFiles(files []realtime.FileSummary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot.Files = files
}

// fakeTransport records published events, lets tests inject inbound
// frames, and can fail a configured number of publishes.
type fakeTransport struct {
	mu          stdsync.Mutex
	published   []realtime.Event
	attempts    int
	failPublish int
	inbound     chan []byte
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{inbound: make(chan []byte, 16)}
}

func (t *fakeTransport) Subscribe(context.Context, string) (<-chan []byte, error) {
	return t.inbound, nil
}

func (t *fakeTransport) Publish(_ context.Context, _ string, event realtime.Event) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.attempts++
	if t.failPublish > 0 {
		t.failPublish--
		return errPublishRejected
	}
	t.published = append(t.published, event)
	return nil
}

func (t *fakeTransport) publishedEvents() []realtime.Event {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]realtime.Event(nil), t.published...)
}

func (t *fakeTransport) publishAttempts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.attempts
}

func (t *fakeTransport) inject(t2 *testing.T, event realtime.Event) {
	frame, err := realtime.Marshal(event)
	require.NoError(t2, err)
	t.inbound <- frame
}

func startEngine(t *testing.T, client *fakeClient, transport *fakeTransport, opts sync.Options) *sync.Engine {
	t.Helper()

	if opts.BroadcastDelay == 0 {
		opts.BroadcastDelay = 40 * time.Millisecond
	}
	if opts.SaveDelay == 0 {
		opts.SaveDelay = 120 * time.Millisecond
	}

	engine := sync.NewEngine(client, transport, "my-note", opts)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = engine.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Wait until the loop is serving before the test interacts with it.
	engine.Snapshot()
	return engine
}

func TestEditsCoalesceIntoOneBroadcastAndOneSave(t *testing.T) {
	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{})

	engine.Edit("h")
	engine.Edit("he")
	engine.Edit("hello")

	require.Eventually(t, func() bool {
		return len(transport.publishedEvents()) == 1
	}, time.Second, 5*time.Millisecond, "rapid edits should settle into one broadcast")

	updated, ok := transport.publishedEvents()[0].(realtime.ContentUpdated)
	require.True(t, ok)
	assert.Equal(t, "hello", updated.Content)
	assert.Equal(t, engine.SessionID(), updated.SenderID)

	require.Eventually(t, func() bool {
		return len(client.savedContents()) == 1
	}, time.Second, 5*time.Millisecond, "rapid edits should settle into one save")
	assert.Equal(t, "hello", client.savedContents()[0])

	view := engine.Snapshot()
	assert.Equal(t, "hello", view.Content)
	assert.Equal(t, "hello", view.LastBroadcast)
	assert.Equal(t, "hello", view.LastSaved)
}

func TestEditMatchingCurrentContentIsIgnored(t *testing.T) {
	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note", Content: "hello"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{})

	engine.Edit("hello")

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, transport.publishedEvents())
	assert.Empty(t, client.savedContents())
}

func TestEmptyContentIsNeitherBroadcastNorSaved(t *testing.T) {
	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note", Content: "hello"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{})

	engine.Edit("")

	time.Sleep(300 * time.Millisecond)
	assert.Empty(t, transport.publishedEvents(), "clearing a note must not be broadcast")
	assert.Empty(t, client.savedContents(), "clearing a note must not be saved")
	assert.Empty(t, engine.Snapshot().Content)

	// Typing again resumes both flows.
	engine.Edit("hello again")
	require.Eventually(t, func() bool {
		return len(transport.publishedEvents()) == 1
	}, time.Second, 5*time.Millisecond)

	updated, ok := transport.publishedEvents()[0].(realtime.ContentUpdated)
	require.True(t, ok)
	assert.Equal(t, "hello again", updated.Content)

	require.Eventually(t, func() bool {
		saves := client.savedContents()
		return len(saves) == 1 && saves[0] == "hello again"
	}, time.Second, 5*time.Millisecond)
}

func TestPublishFailureWaitsForNextEdit(t *testing.T) {
	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note"}}
	transport := newFakeTransport()
	transport.failPublish = 1
	engine := startEngine(t, client, transport, sync.Options{})

	engine.Edit("first draft")

	require.Eventually(t, func() bool {
		return transport.publishAttempts() == 1
	}, time.Second, 5*time.Millisecond)

	// The failed publish is not retried on its own.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, transport.publishAttempts())
	assert.Empty(t, transport.publishedEvents())

	// The next edit's scheduled attempt resends.
	engine.Edit("second draft")
	require.Eventually(t, func() bool {
		events := transport.publishedEvents()
		if len(events) != 1 {
			return false
		}
		updated, ok := events[0].(realtime.ContentUpdated)
		return ok && updated.Content == "second draft"
	}, time.Second, 5*time.Millisecond)
}

func TestSelfEchoIsSuppressed(t *testing.T) {
	remoteUpdates := make(chan string, 1)

	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note", Content: "hello"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{
		Hooks: sync.Hooks{
			OnRemoteUpdate: func(content string) { remoteUpdates <- content },
		},
	})

	transport.inject(t, realtime.ContentUpdated{
		Content:  "echoed back",
		SenderID: engine.SessionID(),
	})

	select {
	case content := <-remoteUpdates:
		t.Fatalf("self-echo must not surface as a remote update, got %q", content)
	case <-time.After(200 * time.Millisecond):
	}

	assert.Equal(t, "hello", engine.Snapshot().Content)
}

func TestRemoteUpdateAdoptedAndCancelsPendingWork(t *testing.T) {
	remoteUpdates := make(chan string, 1)

	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note", Content: "hello"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{
		BroadcastDelay: 100 * time.Millisecond,
		SaveDelay:      200 * time.Millisecond,
		Hooks: sync.Hooks{
			OnRemoteUpdate: func(content string) { remoteUpdates <- content },
		},
	})

	// A local draft is pending when the remote snapshot arrives.
	engine.Edit("local draft")
	transport.inject(t, realtime.ContentUpdated{
		Content:   "remote wins",
		UpdatedAt: time.Now(),
		SenderID:  "user_other",
	})

	select {
	case content := <-remoteUpdates:
		assert.Equal(t, "remote wins", content)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for remote update")
	}

	view := engine.Snapshot()
	assert.Equal(t, "remote wins", view.Content)
	assert.Equal(t, "remote wins", view.LastBroadcast)
	assert.Equal(t, "remote wins", view.LastSaved)

	// Last write wins: the overwritten local draft is neither broadcast
	// nor saved.
	time.Sleep(400 * time.Millisecond)
	assert.Empty(t, transport.publishedEvents())
	assert.Empty(t, client.savedContents())
}

func TestDuplicateRemoteContentIsIgnored(t *testing.T) {
	remoteUpdates := make(chan string, 1)

	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note", Content: "hello"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{
		Hooks: sync.Hooks{
			OnRemoteUpdate: func(content string) { remoteUpdates <- content },
		},
	})

	transport.inject(t, realtime.ContentUpdated{
		Content:  "hello",
		SenderID: "user_other",
	})

	select {
	case <-remoteUpdates:
		t.Fatal("identical remote content must not surface as an update")
	case <-time.After(200 * time.Millisecond):
	}

	assert.Equal(t, "hello", engine.Snapshot().Content)
}

func TestSaveFailureRetries(t *testing.T) {
	saveErrors := make(chan error, 4)

	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note"}, failSaves: 1}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{
		SaveDelay: 60 * time.Millisecond,
		Hooks: sync.Hooks{
			OnSaveError: func(err error) { saveErrors <- err },
		},
	})

	engine.Edit("important text")

	select {
	case err := <-saveErrors:
		assert.ErrorIs(t, err, errSaveRejected)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for save error")
	}

	require.Eventually(t, func() bool {
		saves := client.savedContents()
		return len(saves) == 1 && saves[0] == "important text"
	}, 2*time.Second, 10*time.Millisecond, "failed save should be retried")
}

func TestEditsDuringSaveTriggerFollowupSave(t *testing.T) {
	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{
		SaveDelay: 50 * time.Millisecond,
	})

	engine.Edit("first")
	require.Eventually(t, func() bool {
		return len(client.savedContents()) == 1
	}, time.Second, 5*time.Millisecond)

	engine.Edit("second")
	require.Eventually(t, func() bool {
		saves := client.savedContents()
		return len(saves) == 2 && saves[1] == "second"
	}, time.Second, 5*time.Millisecond, "content edited after a save needs its own save")
}

func TestFileEventsReloadAttachments(t *testing.T) {
	filesChanged := make(chan []realtime.FileSummary, 1)

	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note"}}
	transport := newFakeTransport()
	_ = startEngine(t, client, transport, sync.Options{
		Hooks: sync.Hooks{
			OnFilesChanged: func(files []realtime.FileSummary) { filesChanged <- files },
		},
	})

	uploaded := []realtime.FileSummary{{ID: "file-1", Name: "a.png", Size: 100, Type: "image/png"}}
	client.setFiles(uploaded)
	transport.inject(t, realtime.FileUploaded{Files: uploaded, Timestamp: time.Now()})

	select {
	case files := <-filesChanged:
		require.Len(t, files, 1)
		assert.Equal(t, "file-1", files[0].ID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for attachment reload")
	}

	assert.GreaterOrEqual(t, client.loadCount(), 2, "initial load plus reload")
}

func TestFileDeletedEventReloadsAttachments(t *testing.T) {
	filesChanged := make(chan []realtime.FileSummary, 1)

	client := &fakeClient{snapshot: sync.Snapshot{
		Path:  "my-note",
		Files: []realtime.FileSummary{{ID: "file-1", Name: "a.png"}},
	}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{
		Hooks: sync.Hooks{
			OnFilesChanged: func(files []realtime.FileSummary) { filesChanged <- files },
		},
	})

	client.setFiles(nil)
	transport.inject(t, realtime.FileDeleted{FileID: "file-1", FileName: "a.png", Timestamp: time.Now()})

	select {
	case files := <-filesChanged:
		assert.Empty(t, files)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for attachment reload")
	}

	assert.Empty(t, engine.Snapshot().Files)
}

func TestOnSavedHookFires(t *testing.T) {
	saved := make(chan sync.Snapshot, 1)

	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note"}}
	transport := newFakeTransport()
	engine := startEngine(t, client, transport, sync.Options{
		SaveDelay: 50 * time.Millisecond,
		Hooks: sync.Hooks{
			OnSaved: func(snapshot sync.Snapshot) { saved <- snapshot },
		},
	})

	engine.Edit("durable now")

	select {
	case snapshot := <-saved:
		assert.Equal(t, "durable now", snapshot.Content)
		assert.Equal(t, "my-note", snapshot.Path)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for save confirmation")
	}
}

func TestTransportCloseStopsEngine(t *testing.T) {
	client := &fakeClient{snapshot: sync.Snapshot{Path: "my-note"}}
	transport := newFakeTransport()
	engine := sync.NewEngine(client, transport, "my-note", sync.Options{})

	done := make(chan error, 1)
	go func() {
		done <- engine.Run(context.Background())
	}()
	engine.Snapshot()

	close(transport.inbound)

	select {
	case err := <-done:
		assert.ErrorIs(t, err, sync.ErrTransportClosed)
	case <-time.After(time.Second):
		t.Fatal("engine should stop when the transport closes")
	}
}
