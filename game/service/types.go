package service

import (
	"time"

	"github.com/wricardo/mcp-training/crisisgame/game/host"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string    `json:"id"`
	SuiteID        string    `json:"suite_id"`
	SuiteName      string    `json:"suite_name"`
	Scene          string    `json:"scene"`
	CreatedAt      time.Time `json:"created_at"`
	LastAccessedAt time.Time `json:"last_accessed_at"`
	Snapshot       *Snapshot `json:"snapshot,omitempty"`
}

// Snapshot is the full client-visible state of a session
type Snapshot struct {
	SessionID string              `json:"session_id"`
	Scene     scene.View          `json:"scene"`
	Scenes    []string            `json:"scenes"`
	Canvas    host.CanvasSnapshot `json:"canvas"`
	ClockMS   int64               `json:"clock_ms"`
	Timers    int                 `json:"timers"`
}

// ActionResult is returned by every operation that changes a session
type ActionResult struct {
	Success  bool        `json:"success"`
	Outcome  string      `json:"outcome,omitempty"`
	Message  string      `json:"message"`
	Events   []GameEvent `json:"events"`
	Fired    int         `json:"fired,omitempty"`
	Snapshot *Snapshot   `json:"snapshot"`
}

// GameEvent is something that happened inside a session
type GameEvent struct {
	Type      string    `json:"type"`
	Scene     string    `json:"scene"`
	Prompt    int       `json:"prompt"`
	Target    int       `json:"target"`
	Matches   int       `json:"matches"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// EventSceneChanged is recorded for every completed scene transition
const EventSceneChanged = "scene_changed"
