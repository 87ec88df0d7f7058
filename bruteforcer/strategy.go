package main

import (
	"github.com/wricardo/mcp-training/crisisgame/game/puzzle"
	"github.com/wricardo/mcp-training/crisisgame/game/scene"
)

// SystematicStrategy solves a matching puzzle by trying every remaining
// target for each prompt in order, never repeating a pair it has seen fail
type SystematicStrategy struct {
	size     int
	matched  map[int]int // prompt -> target
	taken    map[int]bool
	wrong    map[int]map[int]bool
	attempts int
	misses   int
}

// NewSystematicStrategy seeds a strategy from a puzzle view, keeping any
// pairs that are already matched
func NewSystematicStrategy(view *scene.PuzzleView) *SystematicStrategy {
	s := &SystematicStrategy{size: view.Size}
	s.Reset()
	for _, m := range view.Matches {
		s.matched[m.Prompt] = m.Target
		s.taken[m.Target] = true
	}
	return s
}

// Next returns the next pair to try. ok is false once every prompt is
// matched or no candidate remains.
func (s *SystematicStrategy) Next() (prompt, target int, ok bool) {
	for p := 0; p < s.size; p++ {
		if _, done := s.matched[p]; done {
			continue
		}
		for t := 0; t < s.size; t++ {
			if s.taken[t] || s.wrong[p][t] {
				continue
			}
			return p, t, true
		}
		return 0, 0, false
	}
	return 0, 0, false
}

// Record stores the outcome of attempting target for prompt
func (s *SystematicStrategy) Record(prompt, target int, outcome puzzle.Outcome) {
	s.attempts++
	switch outcome {
	case puzzle.OutcomeMatched, puzzle.OutcomeSolved:
		s.matched[prompt] = target
		s.taken[target] = true
	case puzzle.OutcomeIncorrect:
		s.misses++
		if s.wrong[prompt] == nil {
			s.wrong[prompt] = make(map[int]bool)
		}
		s.wrong[prompt][target] = true
	}
}

// Solved reports whether every prompt has a match
func (s *SystematicStrategy) Solved() bool {
	return len(s.matched) == s.size
}

// Solution returns the pairs found so far. Unmatched prompts map to -1.
func (s *SystematicStrategy) Solution() puzzle.Solution {
	sol := make(puzzle.Solution, s.size)
	for p := range sol {
		t, ok := s.matched[p]
		if !ok {
			t = -1
		}
		sol[p] = t
	}
	return sol
}

// Attempts is the number of target attempts recorded
func (s *SystematicStrategy) Attempts() int { return s.attempts }

// Misses is the number of incorrect attempts recorded
func (s *SystematicStrategy) Misses() int { return s.misses }

// Reset forgets everything learned
func (s *SystematicStrategy) Reset() {
	s.matched = make(map[int]int)
	s.taken = make(map[int]bool)
	s.wrong = make(map[int]map[int]bool)
	s.attempts = 0
	s.misses = 0
}
