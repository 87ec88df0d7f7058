package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
	"github.com/wricardo/mcp-training/crisisgame/game/service"
)

func testSnapshot(sessionID string) *service.Snapshot {
	return &service.Snapshot{
		SessionID: sessionID,
		Scene:     scene.View{Name: "WaterGame", Kind: scene.KindMatch},
		ClockMS:   1500,
	}
}

func startHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(func() {
		cancel()
		<-hub.done
	})
	return hub
}

func dial(t *testing.T, hub *Hub, sessionID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("session"))
	}))
	t.Cleanup(server.Close)

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?session=" + sessionID
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.ClientCount(sessionID) == 1 }, time.Second, 5*time.Millisecond)
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.sessions == nil {
		t.Error("Hub sessions map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels are not initialized")
	}
}

func TestHubRegisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:       hub,
		sessionID: "test-session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)

	if !hub.sessions["test-session"][client] {
		t.Error("Client was not registered in session")
	}
	if len(hub.sessions["test-session"]) != 1 {
		t.Errorf("Expected 1 client in session, got %d", len(hub.sessions["test-session"]))
	}
}

func TestHubUnregisterClient(t *testing.T) {
	hub := NewHub()

	client := &Client{
		hub:       hub,
		sessionID: "test-session",
		send:      make(chan []byte, 256),
	}

	hub.registerClient(client)
	hub.unregisterClient(client)

	if _, exists := hub.sessions["test-session"]; exists {
		t.Error("Session should have been cleaned up after last client unregistered")
	}

	// The send channel is closed exactly once
	_, open := <-client.send
	assert.False(t, open)
	hub.unregisterClient(client)
}

func TestHubMultipleClientsInSession(t *testing.T) {
	hub := NewHub()
	sessionID := "multi-client-session"

	client1 := &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, 256)}
	client2 := &Client{hub: hub, sessionID: sessionID, send: make(chan []byte, 256)}

	hub.registerClient(client1)
	hub.registerClient(client2)
	assert.Len(t, hub.sessions[sessionID], 2)

	hub.unregisterClient(client1)
	assert.Len(t, hub.sessions[sessionID], 1)
	assert.True(t, hub.sessions[sessionID][client2])
}

func TestHubBroadcastMessageOnlyReachesSession(t *testing.T) {
	hub := NewHub()

	mine := &Client{hub: hub, sessionID: "a", send: make(chan []byte, 1)}
	other := &Client{hub: hub, sessionID: "b", send: make(chan []byte, 1)}
	hub.registerClient(mine)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{SessionID: "a", Event: EventStateUpdate, Snapshot: testSnapshot("a")})

	require.Len(t, mine.send, 1)
	assert.Empty(t, other.send)

	var msg Message
	require.NoError(t, json.Unmarshal(<-mine.send, &msg))
	assert.Equal(t, EventStateUpdate, msg.Event)
	require.NotNil(t, msg.Snapshot)
	assert.Equal(t, "WaterGame", msg.Snapshot.Scene.Name)
	assert.Equal(t, int64(1500), msg.Snapshot.ClockMS)
}

func TestHubDropsSlowClient(t *testing.T) {
	hub := NewHub()

	slow := &Client{hub: hub, sessionID: "slow", send: make(chan []byte, 1)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{SessionID: "slow", Event: "one"})
	hub.broadcastMessage(&Message{SessionID: "slow", Event: "two"})

	_, exists := hub.sessions["slow"]
	assert.False(t, exists, "a client with a full buffer is unregistered")
}

func TestHubBroadcastQueuesMessages(t *testing.T) {
	hub := NewHub()

	hub.BroadcastEvent("event-test", "custom-event", "test-data")
	hub.BroadcastToSession("event-test", testSnapshot("event-test"))

	first := <-hub.broadcast
	assert.Equal(t, "custom-event", first.Event)
	assert.Equal(t, "test-data", first.Data)

	second := <-hub.broadcast
	assert.Equal(t, EventStateUpdate, second.Event)
	assert.Equal(t, "event-test", second.Snapshot.SessionID)
}

func TestHubBroadcastResult(t *testing.T) {
	hub := NewHub()

	hub.BroadcastResult("s1", &service.ActionResult{
		Events: []service.GameEvent{
			{Type: "attempted", Prompt: 0, Target: 1},
			{Type: "matched", Prompt: 0, Target: 1, Matches: 1},
		},
		Snapshot: testSnapshot("s1"),
	})
	hub.BroadcastResult("s1", nil)

	require.Len(t, hub.broadcast, 3)
	assert.Equal(t, "attempted", (<-hub.broadcast).Event)
	assert.Equal(t, "matched", (<-hub.broadcast).Event)
	assert.Equal(t, EventStateUpdate, (<-hub.broadcast).Event)
}

func TestWebSocketLifecycle(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "ws-test")

	conn.Close()

	assert.Eventually(t, func() bool { return hub.ClientCount("ws-test") == 0 }, time.Second, 5*time.Millisecond)
}

func TestWebSocketReceivesStateUpdates(t *testing.T) {
	hub := startHub(t)
	conn := dial(t, hub, "msg-test")

	hub.BroadcastEvent("msg-test", "solved", map[string]int{"matches": 3})
	hub.BroadcastToSession("msg-test", testSnapshot("msg-test"))

	ev := readMessage(t, conn)
	assert.Equal(t, "solved", ev.Event)
	assert.Equal(t, map[string]any{"matches": float64(3)}, ev.Data)

	state := readMessage(t, conn)
	assert.Equal(t, "msg-test", state.SessionID)
	assert.Equal(t, EventStateUpdate, state.Event)
	require.NotNil(t, state.Snapshot)
	assert.Equal(t, scene.KindMatch, state.Snapshot.Scene.Kind)
}

func TestHubShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, "bye")
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.ClientCount("bye") == 1 }, time.Second, 5*time.Millisecond)

	cancel()
	<-hub.done

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.ClientCount("bye"))

	// Broadcasting after shutdown does not block
	hub.BroadcastToSession("bye", testSnapshot("bye"))
}
