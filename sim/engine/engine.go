// Package engine implements the simulator's single-threaded discrete-event
// scheduler: a min-heap of events keyed by (virtual time, priority,
// insertion sequence), advanced by a cooperative Run loop.
//
// Go has no first-class coroutines to mirror the "yield env.timeout(...)"
// suspension style of the swarmNDN/SimPy original this system is grounded
// on, so every suspension point becomes a callback scheduled at a future
// virtual time instead of a parked goroutine (spec.md §9: "reuse a
// discrete-event min-heap with continuation callbacks"). Because the whole
// simulation runs on one goroutine, no locks are needed anywhere in sim/.
package engine

import "container/heap"

// Callback is invoked by the Engine when its scheduled event's time arrives.
type Callback func(e *Engine)

// TraceHook is invoked with (time, priority, seq, label) immediately before
// a non-timeout event's callback runs. It is the sole event-level
// observability seam described in spec.md §4.1.
type TraceHook func(t float64, prio int64, seq uint64, label string)

// event is one entry in the scheduler's min-heap, ordered by (time, prio,
// seq) exactly as spec.md §4.1 specifies. The heap shape is lifted from the
// teacher's std/types/priority_queue.Item/wrapper, but container/heap.Interface
// is implemented directly here because the ordering key (time, prio, seq)
// is a composite that golang.org/x/exp/constraints.Ordered cannot express
// as a single priority type.
type event struct {
	time     float64
	prio     int64
	seq      uint64
	callback Callback
	label    string
	isTrace  bool // false for pure timeouts: filtered from the trace hook
	index    int
}

func (a *event) less(b *event) bool {
	if a.time != b.time {
		return a.time < b.time
	}
	if a.prio != b.prio {
		return a.prio < b.prio
	}
	return a.seq < b.seq
}

type eventHeap []*event

func (h eventHeap) Len() int            { return len(h) }
func (h eventHeap) Less(i, j int) bool  { return h[i].less(h[j]) }
func (h eventHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *eventHeap) Push(x any) {
	ev := x.(*event)
	ev.index = len(*h)
	*h = append(*h, ev)
}

func (h *eventHeap) Pop() any {
	old := *h
	n := len(old)
	ev := old[n-1]
	old[n-1] = nil
	ev.index = -1
	*h = old[:n-1]
	return ev
}

// Engine is the virtual-time scheduler. It is not safe for concurrent use
// from multiple goroutines; the whole point of the design is that it
// doesn't need to be.
type Engine struct {
	now   float64
	seq   uint64
	heap  eventHeap
	trace TraceHook
	rng   *Rand
}

// New constructs an Engine seeded from the given seed, for reproducible
// replay (spec.md §9: "all random draws ... MUST come from a single seeded
// stream per run").
func New(seed int64) *Engine {
	e := &Engine{rng: NewRand(seed)}
	heap.Init(&e.heap)
	return e
}

// Now returns the current virtual time.
func (e *Engine) Now() float64 { return e.now }

// Rand returns this run's single seeded random stream.
func (e *Engine) Rand() *Rand { return e.rng }

// SetTrace installs the tracing hook used for event-level observability.
func (e *Engine) SetTrace(hook TraceHook) { e.trace = hook }

// Pending reports how many events remain in the queue.
func (e *Engine) Pending() int { return len(e.heap) }

// Schedule enqueues cb to run at absolute virtual time t with priority prio
// (lower runs first among events with the same t), labeled for tracing.
func (e *Engine) Schedule(t float64, prio int64, label string, cb Callback) {
	e.scheduleEvent(t, prio, label, cb, true)
}

// After enqueues cb to run delay time units from now. This is the engine's
// modeling of a timeout suspension point (spec.md §5): pure pacing delays
// are filtered from the trace hook.
func (e *Engine) After(delay float64, prio int64, cb Callback) {
	e.scheduleEvent(e.now+delay, prio, "timeout", cb, false)
}

func (e *Engine) scheduleEvent(t float64, prio int64, label string, cb Callback, isTrace bool) {
	if t < e.now {
		t = e.now
	}
	ev := &event{
		time:     t,
		prio:     prio,
		seq:      e.seq,
		callback: cb,
		label:    label,
		isTrace:  isTrace,
	}
	e.seq++
	heap.Push(&e.heap, ev)
}

// Step pops and runs the single earliest-scheduled event, returning false if
// the queue was empty.
func (e *Engine) Step() bool {
	if len(e.heap) == 0 {
		return false
	}
	ev := heap.Pop(&e.heap).(*event)

	e.now = ev.time
	if e.trace != nil && ev.isTrace {
		e.trace(ev.time, ev.prio, ev.seq, ev.label)
	}
	ev.callback(e)
	return true
}

// Run advances the simulation until the event queue is empty or the next
// scheduled event's time would exceed until, whichever comes first.
func (e *Engine) Run(until float64) {
	for len(e.heap) > 0 {
		if e.heap[0].time > until {
			e.now = until
			return
		}
		e.Step()
	}
	if e.now < until {
		e.now = until
	}
}
