// Package host defines the narrow contracts the puzzle and preview cores use
// to reach the outside world, plus in-process implementations of them.
//
// The cores never render anything themselves. They talk to:
//   - Scheduler: one-shot delayed callbacks driven by a frame clock
//   - Factory: creation and destruction of overlays, connectors and controls,
//     and tile styling/visibility
//   - Navigator: requests to transition to a named scene
//
// Implementations:
//
// FrameScheduler is a deterministic scheduler advanced explicitly by the
// caller (a frame tick, a background clock routine or a test). Canvas is a
// retained in-memory Stage that tracks every live visual so it can be
// serialized for remote clients and inspected by tests.
//
// Usage:
//
//	sched := host.NewFrameScheduler()
//	canvas := host.NewCanvas()
//
//	sched.Schedule(1500*time.Millisecond, func() { ... })
//	fired := sched.Advance(50 * time.Millisecond)
//
//	h, err := canvas.CreateOverlay(host.OverlaySpec{MediaKey: "flood_video"})
//	canvas.Destroy(h)
package host
