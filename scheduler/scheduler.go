// Package scheduler implements the deadline-ordered callback queue described
// in SPEC_FULL §4.15: a min-heap of (deadline, callback) entries ticked by
// the top-level loop, used to give one-cycle-latency to NDMA trigger
// acknowledgement and to stage simulated WiFi firmware replies.
package scheduler

import "container/heap"

// Callback is invoked when its deadline is reached, receiving the opaque
// param it was scheduled with.
type Callback func(param any)

type event struct {
	deadline uint64
	seq      uint64 // insertion order, used to break deadline ties
	cb       Callback
	param    any
}

type eventHeap []*event

func (h eventHeap) Len() int { return len(h) }

func (h eventHeap) Less(i, j int) bool {
	if h[i].deadline != h[j].deadline {
		return h[i].deadline < h[j].deadline
	}
	return h[i].seq < h[j].seq
}

func (h eventHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *eventHeap) Push(x any) { *h = append(*h, x.(*event)) }

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	*h = old[:n-1]
	return e
}

// Scheduler is a deadline-ordered queue of pending callbacks.
type Scheduler struct {
	now   uint64
	seq   uint64
	queue eventHeap
}

// New returns an empty scheduler with its clock at zero.
func New() *Scheduler {
	return &Scheduler{}
}

// Now returns the scheduler's current time, in the same units as the
// deadlines passed to After/At (the tick loop advances it every cycle).
func (s *Scheduler) Now() uint64 {
	return s.now
}

// At schedules cb to run at the given absolute deadline.
func (s *Scheduler) At(deadline uint64, cb Callback, param any) {
	heap.Push(&s.queue, &event{deadline: deadline, seq: s.seq, cb: cb, param: param})
	s.seq++
}

// After schedules cb to run delta ticks from now.
func (s *Scheduler) After(delta uint64, cb Callback, param any) {
	s.At(s.now+delta, cb, param)
}

// Advance moves the clock forward by delta ticks and runs every callback
// whose deadline is now less than or equal to the new time, in deadline
// then insertion order.
func (s *Scheduler) Advance(delta uint64) {
	s.now += delta

	for s.queue.Len() > 0 && s.queue[0].deadline <= s.now {
		e := heap.Pop(&s.queue).(*event)
		e.cb(e.param)
	}
}

// Pending reports how many callbacks are still queued.
func (s *Scheduler) Pending() int {
	return s.queue.Len()
}
