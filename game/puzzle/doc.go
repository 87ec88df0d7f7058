// Package puzzle provides the pair-matching puzzle engine.
//
// The engine owns the matching-game state machine:
//   - Candidate selection from the prompt group
//   - Validation of attempted pairings against a hidden solution
//   - Match bookkeeping with permanent, unique matches
//   - Completion detection
//
// States:
//
//	Idle            no prompt selected, puzzle incomplete
//	AwaitingTarget  a prompt is selected, puzzle incomplete
//	Complete        every prompt is matched
//
// An incorrect attempt does not clear the selection synchronously. The engine
// schedules the resolution on the host scheduler and tags it with the current
// generation. Every new selection, reset or close bumps the generation, so a
// resolution that fires after the player has moved on is dropped.
//
// Usage:
//
//	sched := host.NewFrameScheduler()
//	eng, err := puzzle.NewEngine(puzzle.Solution{1, 2, 0}, sched)
//	if err != nil {
//		log.Fatal(err)
//	}
//	eng.Subscribe(func(ev puzzle.Event) { ... })
//
//	eng.SelectPrompt(0)
//	outcome, err := eng.AttemptTarget(1) // OutcomeMatched
//
// Indices outside the puzzle size are programmer errors and return
// ErrInvalidIndex without touching state. Clicks on already matched items are
// reported as OutcomeDuplicate and otherwise ignored.
package puzzle
