package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/crisisgame/game/config"
)

var (
	ErrWrongScene  = errors.New("operation not available in the current scene")
	ErrInvalidTick = errors.New("invalid tick duration")
)

// MaxTick bounds a single clock advance
const MaxTick = time.Minute

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, suiteID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game State
	GetState(ctx context.Context, sessionID string) (*Snapshot, error)

	// Puzzle Operations
	SelectPrompt(ctx context.Context, sessionID string, index int) (*ActionResult, error)
	AttemptTarget(ctx context.Context, sessionID string, index int) (*ActionResult, error)
	Continue(ctx context.Context, sessionID string) (*ActionResult, error)
	Reset(ctx context.Context, sessionID string) (*ActionResult, error)

	// Hub and Navigation
	Hover(ctx context.Context, sessionID string, tile int, enter bool) (*ActionResult, error)
	ActivateTile(ctx context.Context, sessionID string, tile int) (*ActionResult, error)
	FollowLink(ctx context.Context, sessionID string, link int) (*ActionResult, error)
	Back(ctx context.Context, sessionID string) (*ActionResult, error)
	Navigate(ctx context.Context, sessionID, sceneName string) (*ActionResult, error)

	// Clock
	Tick(ctx context.Context, sessionID string, d time.Duration) (*ActionResult, error)
	AdvanceAll(ctx context.Context, d time.Duration) []*ActionResult

	// Suites
	ListSuites(ctx context.Context) ([]config.SuiteInfo, error)
	LoadSuite(ctx context.Context, suiteID string) (*config.Suite, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, suiteID string, suite *config.Suite) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// SuiteManager handles suite loading
type SuiteManager interface {
	Load(id string) (*config.Suite, error)
	List() ([]config.SuiteInfo, error)
	Default() *config.Suite
	DefaultID() string
}

// Session represents an active game session
type Session struct {
	ID             string
	SuiteID        string
	Suite          *config.Suite
	World          *World
	CreatedAt      time.Time

	mu sync.Mutex

	// accessMu guards lastAccessed; nothing else is locked while it is held
	accessMu     sync.Mutex
	lastAccessed time.Time
}

// Lock serializes access to the session's world
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session's world
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records at as the session's last access time
func (s *Session) Touch(at time.Time) {
	s.accessMu.Lock()
	s.lastAccessed = at
	s.accessMu.Unlock()
}

// LastAccessed returns the last access time recorded by Touch
func (s *Session) LastAccessed() time.Time {
	s.accessMu.Lock()
	defer s.accessMu.Unlock()
	return s.lastAccessed
}
