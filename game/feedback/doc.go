// Package feedback draws the visual response to puzzle events.
//
// A Renderer subscribes to a puzzle.PuzzleEngine and reacts to its events by
// styling tiles, drawing connectors between the prompt and target rows and,
// once the puzzle is solved, presenting a Continue control that navigates
// back to the parent scene. All visuals are created through a host.Factory
// and are owned by the renderer: Teardown destroys every one of them.
//
// Delayed work (the completion control, the follow-up status message) is
// scheduled on a host.Scheduler and guarded by an epoch token, so callbacks
// that fire after Teardown or Reset do nothing.
//
//	r, err := feedback.NewRenderer(canvas, sched, director, "WaterScene", board)
//	engine.Subscribe(r.Handle)
//	...
//	r.Teardown()
package feedback
