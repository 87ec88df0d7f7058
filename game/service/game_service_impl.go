package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/crisisgame/game/config"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	suites   SuiteManager
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, suites SuiteManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		suites:   suites,
	}
}

// CreateSession creates a new session started in the suite's start scene
func (s *gameServiceImpl) CreateSession(ctx context.Context, suiteID string) (*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if suiteID == "" {
		suiteID = s.suites.DefaultID()
	}

	suite, err := s.suites.Load(suiteID)
	if err != nil {
		if errors.Is(err, config.ErrSuiteNotFound) {
			if infos, listErr := s.suites.List(); listErr == nil && len(infos) > 0 {
				ids := make([]string, 0, len(infos))
				for _, info := range infos {
					ids = append(ids, info.ID)
				}
				return nil, fmt.Errorf("suite '%s' not found, available suites: %v: %w", suiteID, ids, err)
			}
		}
		return nil, fmt.Errorf("failed to load suite %s: %w", suiteID, err)
	}

	// Let the session manager generate the ID
	sess, err := s.sessions.Create("", suiteID, suite)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	log.Info().Str("session", sess.ID).Str("suite", suiteID).Msg("session created")
	return s.info(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.info(sess), nil
}

// ListSessions returns all active sessions, most recently used first
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, s.info(sess))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].LastAccessedAt.After(result[j].LastAccessedAt)
	})
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.sessions.Delete(sessionID)
}

// GetState returns the current snapshot of a session
func (s *gameServiceImpl) GetState(ctx context.Context, sessionID string) (*Snapshot, error) {
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()
	return sess.World.Snapshot(sess.ID), nil
}

// SelectPrompt picks a prompt in the active puzzle
func (s *gameServiceImpl) SelectPrompt(ctx context.Context, sessionID string, index int) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		m, err := currentMatch(w)
		if err != nil {
			return "", err
		}
		out, err := m.SelectPrompt(index)
		return out.String(), err
	})
}

// AttemptTarget pairs the selected prompt with a target in the active puzzle
func (s *gameServiceImpl) AttemptTarget(ctx context.Context, sessionID string, index int) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		m, err := currentMatch(w)
		if err != nil {
			return "", err
		}
		out, err := m.AttemptTarget(index)
		return out.String(), err
	})
}

// Continue activates the Continue control of a solved puzzle
func (s *gameServiceImpl) Continue(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		m, err := currentMatch(w)
		if err != nil {
			return "", err
		}
		return "", m.Continue()
	})
}

// Reset restarts the active puzzle
func (s *gameServiceImpl) Reset(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		m, err := currentMatch(w)
		if err != nil {
			return "", err
		}
		return "", m.Reset()
	})
}

// Hover moves the pointer onto or off a hub tile
func (s *gameServiceImpl) Hover(ctx context.Context, sessionID string, tile int, enter bool) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		h, err := currentHub(w)
		if err != nil {
			return "", err
		}
		return "", h.Hover(tile, enter)
	})
}

// ActivateTile opens the scene behind a hub tile
func (s *gameServiceImpl) ActivateTile(ctx context.Context, sessionID string, tile int) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		h, err := currentHub(w)
		if err != nil {
			return "", err
		}
		return "", h.Activate(tile)
	})
}

// FollowLink follows a link of the active topic scene
func (s *gameServiceImpl) FollowLink(ctx context.Context, sessionID string, link int) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		info, ok := w.Current().(*scene.InfoScene)
		if !ok {
			return "", wrongScene(w, "links")
		}
		return "", info.Follow(link)
	})
}

// Back returns to the parent of the active scene
func (s *gameServiceImpl) Back(ctx context.Context, sessionID string) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		switch cur := w.Current().(type) {
		case *scene.MatchScene:
			return "", cur.Back()
		case *scene.InfoScene:
			return "", cur.Back()
		default:
			return "", wrongScene(w, "a parent scene")
		}
	})
}

// Navigate switches directly to a named scene
func (s *gameServiceImpl) Navigate(ctx context.Context, sessionID, sceneName string) (*ActionResult, error) {
	return s.act(ctx, sessionID, func(w *World) (string, error) {
		return "", w.Director.RequestScene(sceneName)
	})
}

// Tick advances the session's clock
func (s *gameServiceImpl) Tick(ctx context.Context, sessionID string, d time.Duration) (*ActionResult, error) {
	if d < 0 || d > MaxTick {
		return nil, fmt.Errorf("%w: %s (allowed 0 to %s)", ErrInvalidTick, d, MaxTick)
	}

	var fired int
	result, err := s.act(ctx, sessionID, func(w *World) (string, error) {
		fired = w.Advance(d)
		return "", nil
	})
	if err != nil {
		return nil, err
	}
	result.Fired = fired
	return result, nil
}

// AdvanceAll advances every session's clock and returns a result for each
// session in which at least one callback ran
func (s *gameServiceImpl) AdvanceAll(ctx context.Context, d time.Duration) []*ActionResult {
	var results []*ActionResult
	for _, sess := range s.sessions.List() {
		if ctx.Err() != nil {
			break
		}

		sess.Lock()
		fired := sess.World.Advance(d)
		if fired > 0 {
			results = append(results, &ActionResult{
				Success:  true,
				Message:  message(sess.World),
				Events:   sess.World.DrainEvents(),
				Fired:    fired,
				Snapshot: sess.World.Snapshot(sess.ID),
			})
		}
		sess.Unlock()
	}
	return results
}

// ListSuites returns available suites
func (s *gameServiceImpl) ListSuites(ctx context.Context) ([]config.SuiteInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.suites.List()
}

// LoadSuite returns a suite definition
func (s *gameServiceImpl) LoadSuite(ctx context.Context, suiteID string) (*config.Suite, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.suites.Load(suiteID)
}

// act runs fn against the session's world under its lock and collects the
// resulting events and snapshot
func (s *gameServiceImpl) act(ctx context.Context, sessionID string, fn func(w *World) (string, error)) (*ActionResult, error) {
	sess, err := s.get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	sess.Lock()
	defer sess.Unlock()

	outcome, err := fn(sess.World)
	if err != nil {
		// Anything recorded before the failure still belongs to the next result
		return nil, err
	}

	return &ActionResult{
		Success:  outcome != puzzle.OutcomeIgnored.String() && outcome != puzzle.OutcomeDuplicate.String(),
		Outcome:  outcome,
		Message:  message(sess.World),
		Events:   sess.World.DrainEvents(),
		Snapshot: sess.World.Snapshot(sess.ID),
	}, nil
}

func (s *gameServiceImpl) get(ctx context.Context, sessionID string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.UpdateLastAccessed(sessionID); err != nil {
		log.Debug().Err(err).Str("session", sessionID).Msg("failed to update last access")
	}
	return sess, nil
}

func (s *gameServiceImpl) info(sess *Session) *SessionInfo {
	sess.Lock()
	defer sess.Unlock()

	return &SessionInfo{
		ID:             sess.ID,
		SuiteID:        sess.SuiteID,
		SuiteName:      sess.Suite.Name,
		Scene:          sess.World.Director.CurrentName(),
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessed(),
		Snapshot:       sess.World.Snapshot(sess.ID),
	}
}

func currentMatch(w *World) (*scene.MatchScene, error) {
	m, ok := w.Current().(*scene.MatchScene)
	if !ok {
		return nil, wrongScene(w, "a puzzle")
	}
	return m, nil
}

func currentHub(w *World) (*scene.HubScene, error) {
	h, ok := w.Current().(*scene.HubScene)
	if !ok {
		return nil, wrongScene(w, "hub tiles")
	}
	return h, nil
}

func wrongScene(w *World, what string) error {
	return fmt.Errorf("%w: %s has no %s", ErrWrongScene, w.Director.CurrentName(), what)
}

// message describes the active scene for humans and agents
func message(w *World) string {
	cur := w.Current()
	if cur == nil {
		return "No active scene"
	}
	v := cur.View()
	switch v.Kind {
	case scene.KindMatch:
		return v.Puzzle.Status
	case scene.KindHub:
		return fmt.Sprintf("%s: hover a tile to preview it, activate it to open its scene", v.Title)
	default:
		return v.Title
	}
}
