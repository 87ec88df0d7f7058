package scene

import (
	"errors"
	"fmt"
	"time"

	"github.com/wricardo/mcp-training/crisisgame/game/feedback"
	"github.com/wricardo/mcp-training/crisisgame/game/host"
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
)

// MatchTileSize is the static size of puzzle tiles
var MatchTileSize = host.Size{W: 140, H: 140}

// Layout positions the two puzzle rows
type Layout struct {
	CenterX   float64 `json:"center_x" yaml:"center_x"`
	PromptY   float64 `json:"prompt_y" yaml:"prompt_y"`
	TargetY   float64 `json:"target_y" yaml:"target_y"`
	Spacing   float64 `json:"spacing" yaml:"spacing"`
	ContinueX float64 `json:"continue_x" yaml:"continue_x"`
	ContinueY float64 `json:"continue_y" yaml:"continue_y"`
}

// DefaultLayout fits a 1280x720 stage
var DefaultLayout = Layout{
	CenterX:   1280.0 / 3,
	PromptY:   300,
	TargetY:   450,
	Spacing:   150,
	ContinueX: 640,
	ContinueY: 670,
}

// Timing overrides the puzzle delays. Zero keeps the default.
type Timing struct {
	IncorrectDelayMS  int `json:"incorrect_delay_ms,omitempty" yaml:"incorrect_delay_ms,omitempty"`
	CompletionDelayMS int `json:"completion_delay_ms,omitempty" yaml:"completion_delay_ms,omitempty"`
	StatusDelayMS     int `json:"status_delay_ms,omitempty" yaml:"status_delay_ms,omitempty"`
}

// MatchDef describes a matching puzzle scene
type MatchDef struct {
	Name         string          `json:"name" yaml:"name"`
	Title        string          `json:"title" yaml:"title"`
	Instructions string          `json:"instructions,omitempty" yaml:"instructions,omitempty"`
	Parent       string          `json:"parent" yaml:"parent"`
	Prompts      []puzzle.Item   `json:"prompts" yaml:"prompts"`
	Targets      []puzzle.Item   `json:"targets" yaml:"targets"`
	Solution     puzzle.Solution `json:"solution" yaml:"solution"`
	Layout       *Layout         `json:"layout,omitempty" yaml:"layout,omitempty"`
	Timing       Timing          `json:"timing" yaml:"timing,omitempty"`
}

// Validate checks the rows line up with a valid solution
func (m MatchDef) Validate() error {
	if m.Name == "" {
		return errors.New("puzzle name is required")
	}
	if m.Parent == "" {
		return fmt.Errorf("puzzle %s has no parent scene", m.Name)
	}
	if len(m.Prompts) != len(m.Solution) || len(m.Targets) != len(m.Solution) {
		return fmt.Errorf("puzzle %s: %d prompts and %d targets for a solution of %d",
			m.Name, len(m.Prompts), len(m.Targets), len(m.Solution))
	}
	if err := m.Solution.Validate(); err != nil {
		return fmt.Errorf("puzzle %s: %w", m.Name, err)
	}
	if m.Timing.IncorrectDelayMS < 0 || m.Timing.CompletionDelayMS < 0 || m.Timing.StatusDelayMS < 0 {
		return fmt.Errorf("puzzle %s: delays cannot be negative", m.Name)
	}
	return nil
}

// Board returns the renderer geometry for the definition
func (m MatchDef) Board() feedback.Board {
	l := DefaultLayout
	if m.Layout != nil {
		l = *m.Layout
	}
	b := feedback.RowLayout(len(m.Solution), l.CenterX, l.PromptY, l.TargetY, l.Spacing)
	b.ContinueAt = host.Point{X: l.ContinueX, Y: l.ContinueY}
	return b
}

// MatchScene hosts one pair-matching puzzle. Puzzle state does not survive
// leaving the scene.
type MatchScene struct {
	def   MatchDef
	stage host.Stage
	sched host.Scheduler
	nav   host.Navigator

	engine    *puzzle.PuzzleEngine
	renderer  *feedback.Renderer
	observers []puzzle.Listener
}

// NewMatchScene creates a match scene
func NewMatchScene(def MatchDef, stage host.Stage, sched host.Scheduler, nav host.Navigator) (*MatchScene, error) {
	if err := def.Validate(); err != nil {
		return nil, err
	}
	if stage == nil || sched == nil || nav == nil {
		return nil, fmt.Errorf("match scene requires a stage, scheduler and navigator")
	}
	return &MatchScene{def: def, stage: stage, sched: sched, nav: nav}, nil
}

func (m *MatchScene) Name() string { return m.def.Name }

// Observe registers a listener attached to every engine this scene builds
func (m *MatchScene) Observe(l puzzle.Listener) {
	if l != nil {
		m.observers = append(m.observers, l)
	}
}

// Enter places the puzzle rows and starts a fresh engine and renderer
func (m *MatchScene) Enter() {
	board := m.def.Board()

	m.stage.ClearTiles()
	for i, item := range m.def.Prompts {
		m.stage.PlaceTile(host.Tile{
			Ref:      host.TileRef{Group: host.GroupPrompt, Index: i},
			Label:    item.Label,
			ImageKey: item.ImageKey,
			At:       board.Prompts[i],
			Size:     MatchTileSize,
		})
	}
	for j, item := range m.def.Targets {
		m.stage.PlaceTile(host.Tile{
			Ref:      host.TileRef{Group: host.GroupTarget, Index: j},
			Label:    item.Label,
			ImageKey: item.ImageKey,
			At:       board.Targets[j],
			Size:     MatchTileSize,
		})
	}

	var opts []puzzle.Option
	if ms := m.def.Timing.IncorrectDelayMS; ms > 0 {
		opts = append(opts, puzzle.WithIncorrectDelay(time.Duration(ms)*time.Millisecond))
	}
	var ropts []feedback.Option
	if ms := m.def.Timing.CompletionDelayMS; ms > 0 {
		ropts = append(ropts, feedback.WithCompletionDelay(time.Duration(ms)*time.Millisecond))
	}
	if ms := m.def.Timing.StatusDelayMS; ms > 0 {
		ropts = append(ropts, feedback.WithStatusDelay(time.Duration(ms)*time.Millisecond))
	}

	// The definition and dependencies were validated in NewMatchScene
	m.engine, _ = puzzle.NewEngine(m.def.Solution, m.sched, opts...)
	m.renderer, _ = feedback.NewRenderer(m.stage, m.sched, m.nav, m.def.Parent, board, ropts...)
	m.engine.Subscribe(m.renderer.Handle)
	for _, l := range m.observers {
		m.engine.Subscribe(l)
	}
}

// Exit tears the renderer down and discards the engine
func (m *MatchScene) Exit() {
	if m.renderer != nil {
		m.renderer.Teardown()
		m.renderer = nil
	}
	if m.engine != nil {
		m.engine.Close()
		m.engine = nil
	}
	m.stage.ClearTiles()
}

func (m *MatchScene) SelectPrompt(index int) (puzzle.Outcome, error) {
	if m.engine == nil {
		return puzzle.OutcomeIgnored, ErrNotActive
	}
	return m.engine.SelectPrompt(index)
}

func (m *MatchScene) AttemptTarget(index int) (puzzle.Outcome, error) {
	if m.engine == nil {
		return puzzle.OutcomeIgnored, ErrNotActive
	}
	return m.engine.AttemptTarget(index)
}

// Reset restarts the puzzle in place
func (m *MatchScene) Reset() error {
	if m.engine == nil {
		return ErrNotActive
	}
	m.engine.Reset()
	return nil
}

// Continue activates the control shown after the puzzle is solved
func (m *MatchScene) Continue() error {
	if m.renderer == nil {
		return ErrNotActive
	}
	return m.renderer.Continue()
}

// Back returns to the parent scene without finishing the puzzle
func (m *MatchScene) Back() error {
	if m.engine == nil {
		return ErrNotActive
	}
	return m.nav.RequestScene(m.def.Parent)
}

// Engine returns the live engine, nil when not entered
func (m *MatchScene) Engine() *puzzle.PuzzleEngine {
	return m.engine
}

// Renderer returns the live renderer, nil when not entered
func (m *MatchScene) Renderer() *feedback.Renderer {
	return m.renderer
}

func (m *MatchScene) View() View {
	v := View{
		Name:   m.def.Name,
		Kind:   KindMatch,
		Title:  m.def.Title,
		Parent: m.def.Parent,
	}

	pv := &PuzzleView{
		Instructions: m.def.Instructions,
		Prompts:      indexed(m.def.Prompts),
		Targets:      indexed(m.def.Targets),
		Size:         len(m.def.Solution),
		Matches:      []puzzle.Match{},
		Selection:    puzzle.Selection{Prompt: -1},
		Status:       feedback.StatusStart,
	}
	if m.engine != nil {
		pv.State = m.engine.State()
		pv.Selection = m.engine.Selection()
		pv.Pending = m.engine.Pending()
		if matches := m.engine.Matches(); matches != nil {
			pv.Matches = matches
		}
		pv.Status = m.renderer.Status()
		pv.ContinueVisible = m.renderer.Control() != nil
	}
	v.Puzzle = pv
	return v
}

func indexed(items []puzzle.Item) []puzzle.Item {
	out := make([]puzzle.Item, len(items))
	for i, item := range items {
		item.Index = i
		out[i] = item
	}
	return out
}
