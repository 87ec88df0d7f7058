package puzzle

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidIndex    = errors.New("invalid index")
	ErrInvalidSolution = errors.New("invalid solution")
)

const (
	// DefaultIncorrectDelay is how long an incorrect pairing stays on screen
	DefaultIncorrectDelay = 1500 * time.Millisecond
)

// State is the engine's position in the matching state machine
type State int

const (
	Idle State = iota
	AwaitingTarget
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case AwaitingTarget:
		return "awaiting_target"
	case Complete:
		return "complete"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// MarshalText renders the state by name
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses a state name
func (s *State) UnmarshalText(text []byte) error {
	for _, st := range []State{Idle, AwaitingTarget, Complete} {
		if st.String() == string(text) {
			*s = st
			return nil
		}
	}
	return fmt.Errorf("unknown puzzle state %q", text)
}

// Item is a prompt or target shown to the player
type Item struct {
	Index    int    `json:"index" yaml:"-"`
	Label    string `json:"label" yaml:"label"`
	ImageKey string `json:"image_key" yaml:"image_key"`
}

// Solution maps each prompt index to its one correct target index
type Solution []int

// Validate checks the mapping is a bijection over 0..len-1
func (s Solution) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("%w: empty", ErrInvalidSolution)
	}
	seen := make([]bool, len(s))
	for prompt, target := range s {
		if target < 0 || target >= len(s) {
			return fmt.Errorf("%w: prompt %d maps to out-of-range target %d", ErrInvalidSolution, prompt, target)
		}
		if seen[target] {
			return fmt.Errorf("%w: target %d is used more than once", ErrInvalidSolution, target)
		}
		seen[target] = true
	}
	return nil
}

// Match is one confirmed correct pairing
type Match struct {
	Prompt int `json:"prompt"`
	Target int `json:"target"`
}

// Selection is the prompt currently picked, if any
type Selection struct {
	Active     bool   `json:"active"`
	Prompt     int    `json:"prompt"`
	Generation uint64 `json:"generation"`
}

// Outcome reports what an input did
type Outcome int

const (
	OutcomeIgnored Outcome = iota
	OutcomeDuplicate
	OutcomeSelected
	OutcomeMatched
	OutcomeIncorrect
	OutcomeSolved
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIgnored:
		return "ignored"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeSelected:
		return "selected"
	case OutcomeMatched:
		return "matched"
	case OutcomeIncorrect:
		return "incorrect"
	case OutcomeSolved:
		return "solved"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText renders the outcome by name
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText parses an outcome name
func (o *Outcome) UnmarshalText(text []byte) error {
	for _, out := range []Outcome{OutcomeIgnored, OutcomeDuplicate, OutcomeSelected, OutcomeMatched, OutcomeIncorrect, OutcomeSolved} {
		if out.String() == string(text) {
			*o = out
			return nil
		}
	}
	return fmt.Errorf("unknown outcome %q", text)
}

// EventKind names an engine signal
type EventKind string

const (
	EventPromptSelected EventKind = "prompt_selected"
	EventAttempted      EventKind = "attempted"
	EventMatched        EventKind = "matched"
	EventIncorrect      EventKind = "incorrect"
	EventSolved         EventKind = "solved"
	EventResolved       EventKind = "resolved"
	EventReset          EventKind = "reset"
)

// Event is delivered to listeners synchronously, in the order things happen.
// Prompt and Target are -1 when they do not apply.
type Event struct {
	Kind       EventKind `json:"kind"`
	Prompt     int       `json:"prompt"`
	Target     int       `json:"target"`
	Generation uint64    `json:"generation"`
	Matches    int       `json:"matches"`
}

// Listener receives engine events
type Listener func(Event)
