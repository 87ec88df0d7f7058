package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

type recorded struct {
	method string
	path   string
	body   map[string]any
}

type recorder struct {
	mu    sync.Mutex
	calls []recorded
}

func (r *recorder) add(rec recorded) {
	r.mu.Lock()
	r.calls = append(r.calls, rec)
	r.mu.Unlock()
}

func (r *recorder) last() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

func (r *recorder) first() recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[0]
}

// fakeServer answers every action with a snapshot whose scene is the
// action name, and pushes one update over the websocket
func fakeServer(t *testing.T, calls *recorder) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/ws" {
			conn, err := upgrader.Upgrade(w, r, nil)
			if err != nil {
				return
			}
			defer conn.Close()
			conn.WriteJSON(Message{
				SessionID: r.URL.Query().Get("session"),
				Event:     "state_update",
				Snapshot:  &Snapshot{SessionID: r.URL.Query().Get("session"), Scene: View{Name: "pushed"}},
			})
			return
		}

		rec := recorded{method: r.Method, path: r.URL.Path}
		data, _ := io.ReadAll(r.Body)
		if len(data) > 0 {
			json.Unmarshal(data, &rec.body)
		}
		calls.add(rec)

		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/api/sessions":
			json.NewEncoder(w).Encode(SessionInfo{ID: "ab12", SuiteName: "Crisis", Snapshot: &Snapshot{SessionID: "ab12", Scene: View{Name: "exploreScene", Kind: "hub"}}})
		case strings.HasSuffix(r.URL.Path, "/state"):
			json.NewEncoder(w).Encode(Snapshot{SessionID: "ab12", Scene: View{Name: "state"}})
		case strings.HasSuffix(r.URL.Path, "/missing"):
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "session not found"})
		default:
			action := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
			json.NewEncoder(w).Encode(ActionResult{Success: true, Message: action + " done", Snapshot: &Snapshot{Scene: View{Name: action}}})
		}
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestCreateAndActions(t *testing.T) {
	calls := &recorder{}
	ts := fakeServer(t, calls)
	c := New(ts.URL + "/")
	ctx := context.Background()

	if err := c.Create(ctx, "classroom"); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if c.SessionID() != "ab12" {
		t.Errorf("Expected session ab12, got %s", c.SessionID())
	}
	if calls.first().body["suite_id"] != "classroom" {
		t.Errorf("Expected suite_id classroom, got %v", calls.first().body)
	}
	snap, event := c.State()
	if snap == nil || snap.Scene.Name != "exploreScene" || event != "created" {
		t.Errorf("Unexpected state after create: %+v %s", snap, event)
	}

	tests := []struct {
		tile   Tile
		action string
		field  string
	}{
		{Tile{Ref: TileRef{Group: "hub", Index: 4}}, "activate", "tile"},
		{Tile{Ref: TileRef{Group: "prompt", Index: 1}}, "select", "index"},
		{Tile{Ref: TileRef{Group: "target", Index: 2}}, "attempt", "index"},
	}
	for _, tt := range tests {
		result, err := c.Click(ctx, tt.tile)
		if err != nil {
			t.Fatalf("Click %s failed: %v", tt.action, err)
		}
		last := calls.last()
		if last.path != "/api/sessions/ab12/"+tt.action {
			t.Errorf("Expected %s, got %s", tt.action, last.path)
		}
		if last.body[tt.field] != float64(tt.tile.Ref.Index) {
			t.Errorf("Expected %s=%d, got %v", tt.field, tt.tile.Ref.Index, last.body)
		}
		if result.Message != tt.action+" done" {
			t.Errorf("Unexpected message %q", result.Message)
		}
		if snap, _ := c.State(); snap.Scene.Name != tt.action {
			t.Errorf("Expected state from %s, got %s", tt.action, snap.Scene.Name)
		}
	}

	if _, err := c.Click(ctx, Tile{Ref: TileRef{Group: "other"}}); err == nil {
		t.Error("Expected error for unknown tile group")
	}

	if _, err := c.Hover(ctx, 3, false); err != nil {
		t.Fatalf("Hover failed: %v", err)
	}
	last := calls.last()
	if last.body["tile"] != float64(3) || last.body["enter"] != false {
		t.Errorf("Unexpected hover body %v", last.body)
	}
}

func TestAttachAndErrors(t *testing.T) {
	calls := &recorder{}
	ts := fakeServer(t, calls)
	c := New(ts.URL)
	ctx := context.Background()

	if err := c.Attach(ctx, "ab12"); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if snap, event := c.State(); snap.Scene.Name != "state" || event != "refresh" {
		t.Errorf("Unexpected state after attach: %s %s", snap.Scene.Name, event)
	}

	_, err := c.Do(ctx, "missing", nil)
	if err == nil || !strings.Contains(err.Error(), "session not found") {
		t.Errorf("Expected API error message, got %v", err)
	}
}

func TestListen(t *testing.T) {
	calls := &recorder{}
	ts := fakeServer(t, calls)
	c := New(ts.URL)
	ctx := context.Background()

	if err := c.Attach(ctx, "ab12"); err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	if err := c.Connect(ctx); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}

	done := make(chan error, 1)
	go func() { done <- c.Listen() }()

	select {
	case err := <-done:
		if err == nil {
			t.Error("Expected Listen to end with the closed connection")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Listen did not return")
	}

	snap, event := c.State()
	if snap.Scene.Name != "pushed" || event != "state_update" {
		t.Errorf("Expected pushed state, got %s %s", snap.Scene.Name, event)
	}
}

func TestHitTesting(t *testing.T) {
	snap := &Snapshot{
		Canvas: Canvas{
			Tiles: []Tile{
				{Ref: TileRef{Group: "prompt", Index: 0}, At: Point{X: 100, Y: 100}, Size: Size{W: 140, H: 140}, Visible: true},
				{Ref: TileRef{Group: "prompt", Index: 1}, At: Point{X: 300, Y: 100}, Size: Size{W: 140, H: 140}, Visible: false},
			},
			Visuals: []Visual{
				{Kind: "connector", From: Point{X: 0, Y: 0}, To: Point{X: 640, Y: 670}},
				{Kind: "control", Label: "Continue", At: Point{X: 640, Y: 670}},
			},
		},
	}

	if tile, ok := snap.TileAt(Point{X: 160, Y: 40}); !ok || tile.Ref.Index != 0 {
		t.Errorf("Expected prompt 0 at its corner, got %v %v", tile, ok)
	}
	if _, ok := snap.TileAt(Point{X: 300, Y: 100}); ok {
		t.Error("Hidden tiles must not be hit")
	}
	if v, ok := snap.ControlAt(Point{X: 700, Y: 690}); !ok || v.Label != "Continue" {
		t.Errorf("Expected the continue control, got %v %v", v, ok)
	}
	if _, ok := snap.ControlAt(Point{X: 100, Y: 100}); ok {
		t.Error("No control at a tile")
	}
}
