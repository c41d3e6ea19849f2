// Package api is the HTTP client for the note service API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"notedrop/internal/client/sync"
	"notedrop/internal/realtime"
)

// DefaultTimeout bounds individual API calls.
const DefaultTimeout = 15 * time.Second

// noteBody mirrors the server's note response shape.
type noteBody struct {
	Content   string                 `json:"content"`
	Files     []realtime.FileSummary `json:"files"`
	Path      string                 `json:"path"`
	UpdatedAt time.Time              `json:"updatedAt"`
}

// upsertBody mirrors the server's PUT request shape.
type upsertBody struct {
	Content string `json:"content"`
}

// broadcastBody mirrors the server's broadcast request shape.
type broadcastBody struct {
	Channel string          `json:"channel"`
	Event   string          `json:"event"`
	Data    json.RawMessage `json:"data"`
}

// Client talks to the note service over HTTP. It implements
// sync.NoteClient; the broadcast endpoint is exposed for transports.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the API at baseURL. A nil httpClient
// falls back to a default with DefaultTimeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	return &Client{baseURL: baseURL, http: httpClient}
}

// Load fetches the note snapshot for a path.
func (c *Client) Load(ctx context.Context, path string) (*sync.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/notes/%s", c.baseURL, url.PathEscape(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	var body noteBody
	if err := c.do(req, &body); err != nil {
		return nil, fmt.Errorf("failed to load note %q: %w", path, err)
	}

	return &sync.Snapshot{
		Path:      body.Path,
		Content:   body.Content,
		Files:     body.Files,
		UpdatedAt: body.UpdatedAt,
	}, nil
}

// Save writes the full content snapshot for a path.
func (c *Client) Save(ctx context.Context, path, content string) (*sync.Snapshot, error) {
	endpoint := fmt.Sprintf("%s/api/v1/notes/%s", c.baseURL, url.PathEscape(path))

	payload, err := json.Marshal(upsertBody{Content: content})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal note body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	var body noteBody
	if err := c.do(req, &body); err != nil {
		return nil, fmt.Errorf("failed to save note %q: %w", path, err)
	}

	return &sync.Snapshot{
		Path:      body.Path,
		Content:   body.Content,
		Files:     body.Files,
		UpdatedAt: body.UpdatedAt,
	}, nil
}

// Broadcast relays an event frame to a channel through the server.
func (c *Client) Broadcast(ctx context.Context, channel string, event realtime.Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", event.Kind(), err)
	}

	payload, err := json.Marshal(broadcastBody{
		Channel: channel,
		Event:   string(event.Kind()),
		Data:    data,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal broadcast body: %w", err)
	}

	endpoint := c.baseURL + "/api/v1/realtime/broadcast"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("failed to broadcast to %q: %w", channel, err)
	}
	return nil
}

// do executes a request and decodes a 2xx JSON body into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

var _ sync.NoteClient = (*Client)(nil)
