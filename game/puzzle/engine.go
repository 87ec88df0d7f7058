package puzzle

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/wricardo/mcp-training/crisisgame/game/host"
)

// Engine provides the main interface for puzzle operations
type Engine interface {
	// Input
	SelectPrompt(index int) (Outcome, error)
	AttemptTarget(index int) (Outcome, error)
	Reset()

	// State
	State() State
	Selection() Selection
	Matches() []Match
	Size() int
	Generation() uint64
	Pending() bool
	IsMatchedPrompt(index int) bool
	IsMatchedTarget(index int) bool

	Subscribe(l Listener)
}

// PuzzleEngine implements Engine
type PuzzleEngine struct {
	solution  Solution
	scheduler host.Scheduler
	delay     time.Duration

	state      State
	selection  Selection
	generation uint64

	pending       bool
	pendingTarget int

	matches       []Match
	matchedPrompt []bool
	matchedTarget []bool

	listeners []Listener
}

// Option configures a PuzzleEngine
type Option func(*PuzzleEngine)

// WithIncorrectDelay sets how long an incorrect pairing is displayed before
// the selection is cleared
func WithIncorrectDelay(d time.Duration) Option {
	return func(e *PuzzleEngine) {
		if d >= 0 {
			e.delay = d
		}
	}
}

// NewEngine creates an engine for the given solution. The solution is copied.
func NewEngine(solution Solution, scheduler host.Scheduler, opts ...Option) (*PuzzleEngine, error) {
	if err := solution.Validate(); err != nil {
		return nil, err
	}
	if scheduler == nil {
		return nil, fmt.Errorf("scheduler cannot be nil")
	}

	e := &PuzzleEngine{
		solution:  append(Solution(nil), solution...),
		scheduler: scheduler,
		delay:     DefaultIncorrectDelay,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.clear()
	return e, nil
}

// Subscribe registers a listener for engine events
func (e *PuzzleEngine) Subscribe(l Listener) {
	if l != nil {
		e.listeners = append(e.listeners, l)
	}
}

// SelectPrompt picks a prompt, replacing any earlier selection
func (e *PuzzleEngine) SelectPrompt(index int) (Outcome, error) {
	if err := e.checkIndex("prompt", index); err != nil {
		return OutcomeIgnored, err
	}
	if e.state == Complete {
		return OutcomeIgnored, nil
	}
	if e.matchedPrompt[index] {
		return OutcomeDuplicate, nil
	}

	// A newer selection supersedes any incorrect attempt still on display
	e.generation++
	e.pending = false
	e.selection = Selection{Active: true, Prompt: index, Generation: e.generation}
	e.state = AwaitingTarget

	e.emit(Event{Kind: EventPromptSelected, Prompt: index, Target: -1})
	return OutcomeSelected, nil
}

// AttemptTarget pairs the selected prompt with a target
func (e *PuzzleEngine) AttemptTarget(index int) (Outcome, error) {
	if err := e.checkIndex("target", index); err != nil {
		return OutcomeIgnored, err
	}
	if e.state != AwaitingTarget || e.pending {
		return OutcomeIgnored, nil
	}
	if e.matchedTarget[index] {
		return OutcomeDuplicate, nil
	}

	prompt := e.selection.Prompt
	e.emit(Event{Kind: EventAttempted, Prompt: prompt, Target: index})

	if e.solution[prompt] != index {
		e.pending = true
		e.pendingTarget = index
		gen := e.generation
		e.emit(Event{Kind: EventIncorrect, Prompt: prompt, Target: index})
		e.scheduler.Schedule(e.delay, func() { e.resolve(gen) })
		return OutcomeIncorrect, nil
	}

	e.matches = append(e.matches, Match{Prompt: prompt, Target: index})
	e.matchedPrompt[prompt] = true
	e.matchedTarget[index] = true
	e.selection = Selection{Prompt: -1, Generation: e.generation}
	e.emit(Event{Kind: EventMatched, Prompt: prompt, Target: index})

	if len(e.matches) == len(e.solution) {
		e.state = Complete
		e.emit(Event{Kind: EventSolved, Prompt: -1, Target: -1})
		return OutcomeSolved, nil
	}

	e.state = Idle
	return OutcomeMatched, nil
}

// Reset clears every match and the selection and returns to Idle
func (e *PuzzleEngine) Reset() {
	e.generation++
	e.clear()
	e.emit(Event{Kind: EventReset, Prompt: -1, Target: -1})
}

// Close detaches listeners and invalidates scheduled resolutions. The engine
// must not be used afterwards.
func (e *PuzzleEngine) Close() {
	e.generation++
	e.pending = false
	e.listeners = nil
}

// State returns the current state
func (e *PuzzleEngine) State() State {
	return e.state
}

// Selection returns the current selection
func (e *PuzzleEngine) Selection() Selection {
	return e.selection
}

// Matches returns a copy of the confirmed matches in the order they were made
func (e *PuzzleEngine) Matches() []Match {
	return append([]Match(nil), e.matches...)
}

// Size returns the number of prompts (and targets)
func (e *PuzzleEngine) Size() int {
	return len(e.solution)
}

// Generation returns the current generation token
func (e *PuzzleEngine) Generation() uint64 {
	return e.generation
}

// Pending reports whether an incorrect attempt is waiting to be resolved
func (e *PuzzleEngine) Pending() bool {
	return e.pending
}

// IsMatchedPrompt reports whether a prompt is part of a match
func (e *PuzzleEngine) IsMatchedPrompt(index int) bool {
	return index >= 0 && index < len(e.matchedPrompt) && e.matchedPrompt[index]
}

// IsMatchedTarget reports whether a target is part of a match
func (e *PuzzleEngine) IsMatchedTarget(index int) bool {
	return index >= 0 && index < len(e.matchedTarget) && e.matchedTarget[index]
}

// resolve runs when an incorrect attempt's display delay has elapsed
func (e *PuzzleEngine) resolve(gen uint64) {
	if gen != e.generation || !e.pending {
		log.Debug().
			Uint64("scheduled_generation", gen).
			Uint64("generation", e.generation).
			Msg("stale puzzle resolution dropped")
		return
	}

	prompt, target := e.selection.Prompt, e.pendingTarget
	e.pending = false
	e.selection = Selection{Prompt: -1, Generation: e.generation}
	e.state = Idle
	e.emit(Event{Kind: EventResolved, Prompt: prompt, Target: target})
}

func (e *PuzzleEngine) clear() {
	n := len(e.solution)
	e.state = Idle
	e.selection = Selection{Prompt: -1, Generation: e.generation}
	e.pending = false
	e.pendingTarget = -1
	e.matches = nil
	e.matchedPrompt = make([]bool, n)
	e.matchedTarget = make([]bool, n)
}

func (e *PuzzleEngine) checkIndex(group string, index int) error {
	if index < 0 || index >= len(e.solution) {
		return fmt.Errorf("%w: %s %d outside 0..%d", ErrInvalidIndex, group, index, len(e.solution)-1)
	}
	return nil
}

func (e *PuzzleEngine) emit(ev Event) {
	ev.Generation = e.generation
	ev.Matches = len(e.matches)
	for _, l := range e.listeners {
		l(ev)
	}
}
