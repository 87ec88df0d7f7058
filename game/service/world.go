package service

import (
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/crisisgame/game/config"
	"github.com/wricardo/mcp-training/crisisgame/game/host"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

// World is the scene graph of one session together with its canvas and clock
type World struct {
	Canvas   *host.Canvas
	Clock    *host.FrameScheduler
	Director *scene.Director

	events []GameEvent
}

// NewWorld registers every scene of the suite and enters its start scene
func NewWorld(suite *config.Suite) (*World, error) {
	if suite == nil {
		return nil, fmt.Errorf("%w: nil suite", config.ErrInvalidSuite)
	}
	if err := suite.Validate(); err != nil {
		return nil, err
	}

	w := &World{
		Canvas:   host.NewCanvas(),
		Clock:    host.NewFrameScheduler(),
		Director: scene.NewDirector(),
	}

	var scenes []scene.Scene
	if suite.Hub != nil {
		hub, err := scene.NewHubScene(*suite.Hub, w.Canvas, w.Director)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, hub)
	}
	for _, def := range suite.Puzzles {
		m, err := scene.NewMatchScene(def, w.Canvas, w.Clock, w.Director)
		if err != nil {
			return nil, err
		}
		name := def.Name
		m.Observe(func(ev puzzle.Event) { w.recordPuzzle(name, ev) })
		scenes = append(scenes, m)
	}
	for _, def := range suite.Scenes {
		info, err := scene.NewInfoScene(def, w.Director)
		if err != nil {
			return nil, err
		}
		scenes = append(scenes, info)
	}

	for _, s := range scenes {
		if err := w.Director.Register(s); err != nil {
			return nil, err
		}
	}

	w.Director.OnChange(func(from, to string) {
		w.events = append(w.events, GameEvent{
			Type:      EventSceneChanged,
			Scene:     to,
			Prompt:    -1,
			Target:    -1,
			From:      from,
			To:        to,
			Timestamp: time.Now(),
		})
	})

	if err := w.Director.Start(suite.Start); err != nil {
		return nil, err
	}
	return w, nil
}

// Advance moves the clock forward and returns the number of callbacks run
func (w *World) Advance(d time.Duration) int {
	return w.Clock.Advance(d)
}

// DrainEvents returns and clears the events recorded since the last drain
func (w *World) DrainEvents() []GameEvent {
	events := w.events
	w.events = nil
	if events == nil {
		events = []GameEvent{}
	}
	return events
}

// Current returns the active scene
func (w *World) Current() scene.Scene {
	return w.Director.Current()
}

// Snapshot captures the world for the given session id
func (w *World) Snapshot(sessionID string) *Snapshot {
	snap := &Snapshot{
		SessionID: sessionID,
		Scenes:    w.Director.Names(),
		Canvas:    w.Canvas.Snapshot(),
		ClockMS:   w.Clock.Now().Milliseconds(),
		Timers:    w.Clock.Pending(),
	}
	if cur := w.Director.Current(); cur != nil {
		snap.Scene = cur.View()
	}
	return snap
}

// Close exits the active scene, destroying everything it created
func (w *World) Close() {
	w.Director.Stop()
}

func (w *World) recordPuzzle(sceneName string, ev puzzle.Event) {
	w.events = append(w.events, GameEvent{
		Type:      string(ev.Kind),
		Scene:     sceneName,
		Prompt:    ev.Prompt,
		Target:    ev.Target,
		Matches:   ev.Matches,
		Timestamp: time.Now(),
	})
}
