package host

import (
	"container/heap"
	"time"
)

// FrameScheduler is a Scheduler whose clock only moves when Advance is called.
// Callbacks fire in due-time order; callbacks due at the same instant fire in
// the order they were scheduled.
type FrameScheduler struct {
	now   time.Duration
	seq   uint64
	queue timerQueue
}

type timer struct {
	due time.Duration
	seq uint64
	fn  func()
}

type timerQueue []*timer

func (q timerQueue) Len() int { return len(q) }
func (q timerQueue) Less(i, j int) bool {
	if q[i].due == q[j].due {
		return q[i].seq < q[j].seq
	}
	return q[i].due < q[j].due
}
func (q timerQueue) Swap(i, j int)  { q[i], q[j] = q[j], q[i] }
func (q *timerQueue) Push(x any)    { *q = append(*q, x.(*timer)) }
func (q *timerQueue) Pop() any {
	old := *q
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return t
}

// NewFrameScheduler creates a scheduler with its clock at zero
func NewFrameScheduler() *FrameScheduler {
	return &FrameScheduler{}
}

// Schedule registers fn to run once delay after the current clock.
// Negative delays are treated as zero.
func (s *FrameScheduler) Schedule(delay time.Duration, fn func()) {
	if fn == nil {
		return
	}
	if delay < 0 {
		delay = 0
	}
	s.seq++
	heap.Push(&s.queue, &timer{due: s.now + delay, seq: s.seq, fn: fn})
}

// Advance moves the clock forward by dt and fires every callback that became
// due, including ones scheduled by callbacks fired during this call.
// It returns the number of callbacks fired.
func (s *FrameScheduler) Advance(dt time.Duration) int {
	if dt < 0 {
		dt = 0
	}
	target := s.now + dt
	fired := 0

	for s.queue.Len() > 0 && s.queue[0].due <= target {
		t := heap.Pop(&s.queue).(*timer)
		s.now = t.due
		t.fn()
		fired++
	}

	s.now = target
	return fired
}

// Now returns the scheduler clock
func (s *FrameScheduler) Now() time.Duration {
	return s.now
}

// Pending returns how many callbacks have not fired yet
func (s *FrameScheduler) Pending() int {
	return s.queue.Len()
}
