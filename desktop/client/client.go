// Package client talks to the crisis scenarios server over REST and keeps a
// live snapshot of one session through its websocket.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Client drives one session
type Client struct {
	baseURL   string
	sessionID string
	http      *http.Client

	mu    sync.RWMutex
	state *Snapshot
	event string
	conn  *websocket.Conn
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// SessionID returns the attached session
func (c *Client) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessionID
}

// State returns the latest snapshot and the event that delivered it
func (c *Client) State() (*Snapshot, string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state, c.event
}

func (c *Client) setState(snap *Snapshot, event string) {
	if snap == nil {
		return
	}
	c.mu.Lock()
	c.state = snap
	c.event = event
	c.mu.Unlock()
}

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, apiErr.Error)
		}
		return fmt.Errorf("%s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("failed to parse response: %w (body: %s)", err, string(data))
	}
	return nil
}

// Create starts a new session on the given suite and attaches to it
func (c *Client) Create(ctx context.Context, suiteID string) error {
	var body any
	if suiteID != "" {
		body = map[string]string{"suite_id": suiteID}
	}
	var info SessionInfo
	if err := c.do(ctx, http.MethodPost, "/api/sessions", body, &info); err != nil {
		return err
	}

	c.mu.Lock()
	c.sessionID = info.ID
	c.mu.Unlock()
	c.setState(info.Snapshot, "created")
	log.Printf("Created new session: %s (suite: %s)", info.ID, info.SuiteName)
	return nil
}

// Attach uses an existing session
func (c *Client) Attach(ctx context.Context, sessionID string) error {
	c.mu.Lock()
	c.sessionID = sessionID
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Refresh fetches the session state
func (c *Client) Refresh(ctx context.Context) error {
	var snap Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/sessions/"+url.PathEscape(c.SessionID())+"/state", nil, &snap); err != nil {
		return err
	}
	c.setState(&snap, "refresh")
	return nil
}

// Do posts a session action and stores the resulting snapshot
func (c *Client) Do(ctx context.Context, action string, body any) (*ActionResult, error) {
	var result ActionResult
	path := "/api/sessions/" + url.PathEscape(c.SessionID()) + "/" + action
	if err := c.do(ctx, http.MethodPost, path, body, &result); err != nil {
		return nil, err
	}
	c.setState(result.Snapshot, action)
	return &result, nil
}

// Hover starts or ends a hover on a hub tile
func (c *Client) Hover(ctx context.Context, tile int, enter bool) (*ActionResult, error) {
	return c.Do(ctx, "hover", map[string]any{"tile": tile, "enter": enter})
}

// Click performs whatever pressing the tile means in its scene
func (c *Client) Click(ctx context.Context, t Tile) (*ActionResult, error) {
	switch t.Ref.Group {
	case "hub":
		return c.Do(ctx, "activate", map[string]int{"tile": t.Ref.Index})
	case "prompt":
		return c.Do(ctx, "select", map[string]int{"index": t.Ref.Index})
	case "target":
		return c.Do(ctx, "attempt", map[string]int{"index": t.Ref.Index})
	default:
		return nil, fmt.Errorf("tile group %q is not clickable", t.Ref.Group)
	}
}

// Connect opens the session websocket
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("session", c.SessionID())
	u.RawQuery = q.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()
	log.Printf("WebSocket connected for session %s", c.SessionID())
	return nil
}

// Listen applies websocket updates until the connection closes
func (c *Client) Listen() error {
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return fmt.Errorf("not connected")
	}
	defer conn.Close()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Printf("WebSocket JSON parse error: %v", err)
			continue
		}
		if msg.Snapshot != nil {
			c.setState(msg.Snapshot, msg.Event)
		}
	}
}

// Close drops the websocket
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}
