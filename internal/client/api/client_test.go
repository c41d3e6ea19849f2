package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notedrop/internal/client/api"
	"notedrop/internal/realtime"
)

func TestLoad(t *testing.T) {
	ctx := context.Background()

	t.Run("success - snapshot decoded", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/api/v1/notes/my-note", r.URL.Path)
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{
				"content": "hello",
				"path": "my-note",
				"files": [{"id": "file-1", "name": "a.png", "size": 100, "type": "image/png"}],
				"updatedAt": "2026-08-01T10:00:00Z"
			}`))
		}))
		defer server.Close()

		snap, err := api.NewClient(server.URL, nil).Load(ctx, "my-note")

		require.NoError(t, err)
		assert.Equal(t, "hello", snap.Content)
		assert.Equal(t, "my-note", snap.Path)
		require.Len(t, snap.Files, 1)
		assert.Equal(t, "file-1", snap.Files[0].ID)
		assert.False(t, snap.UpdatedAt.IsZero())
	})

	t.Run("error - server failure", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer server.Close()

		_, err := api.NewClient(server.URL, nil).Load(ctx, "my-note")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "500")
	})
}

func TestSave(t *testing.T) {
	ctx := context.Background()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/notes/my-note", r.URL.Path)

		var body struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "new draft", body.Content)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"content":   body.Content,
			"path":      "my-note",
			"files":     []any{},
			"updatedAt": time.Now().Format(time.RFC3339),
		})
	}))
	defer server.Close()

	snap, err := api.NewClient(server.URL, nil).Save(ctx, "my-note", "new draft")

	require.NoError(t, err)
	assert.Equal(t, "new draft", snap.Content)
	assert.False(t, snap.UpdatedAt.IsZero())
}

func TestBroadcast(t *testing.T) {
	ctx := context.Background()

	var got struct {
		Channel string          `json:"channel"`
		Event   string          `json:"event"`
		Data    json.RawMessage `json:"data"`
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/realtime/broadcast", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success": true}`))
	}))
	defer server.Close()

	err := api.NewClient(server.URL, nil).Broadcast(ctx, "note-my-note", realtime.ContentUpdated{
		Content:  "hello",
		SenderID: "user_1",
	})

	require.NoError(t, err)
	assert.Equal(t, "note-my-note", got.Channel)
	assert.Equal(t, "content-updated", got.Event)

	var payload realtime.ContentUpdated
	require.NoError(t, json.Unmarshal(got.Data, &payload))
	assert.Equal(t, "hello", payload.Content)
	assert.Equal(t, "user_1", payload.SenderID)
}
