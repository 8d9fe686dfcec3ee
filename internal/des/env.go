// Package des is a small discrete-event scheduler. Processes are goroutines,
// but exactly one of them (or the scheduler) runs at any moment, so process
// code needs no locking. Simulated time only advances between events.
package des

import (
	"container/heap"
	"context"
	"errors"
	"time"
)

// ErrKilled is returned from Wait once the environment has shut down.
var ErrKilled = errors.New("des: environment shut down")

// Env owns the simulated clock and the event queue.
type Env struct {
	now   time.Time
	queue itemHeap
	seq   uint64
	yield chan struct{}
	procs []*Proc
}

// NewEnv starts the clock at start.
func NewEnv(start time.Time) *Env {
	return &Env{now: start, yield: make(chan struct{})}
}

// Now returns the current simulated time.
func (e *Env) Now() time.Time { return e.now }

// Pending reports how many scheduled items are queued.
func (e *Env) Pending() int { return len(e.queue) }

// Run processes events in time order until the queue drains, ctx is done,
// or the next event lies after until (a zero until means no limit). When it
// returns, every process still alive has been shut down.
func (e *Env) Run(ctx context.Context, until time.Time) error {
	defer e.shutdown()
	for len(e.queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		next := e.queue[0]
		if !until.IsZero() && next.at.After(until) {
			e.now = until
			return nil
		}
		heap.Pop(&e.queue)
		e.now = next.at
		next.fn()
	}
	return nil
}

// Timeout returns an event that fires after d.
func (e *Env) Timeout(d time.Duration) *Event {
	return e.TimeoutAt(e.now.Add(max(d, 0)))
}

// TimeoutAt returns an event that fires at t, or now if t is in the past.
func (e *Env) TimeoutAt(t time.Time) *Event {
	if t.Before(e.now) {
		t = e.now
	}
	ev := e.NewEvent()
	e.schedule(t, func() { ev.fire(nil) })
	ev.triggered = true
	return ev
}

// AnyOf returns an event that fires with the first of evs to fire.
// Its value is that event.
func (e *Env) AnyOf(evs ...*Event) *Event {
	first := e.NewEvent()
	for _, ev := range evs {
		if ev.processed {
			_ = first.Succeed(ev)
			return first
		}
	}
	for _, ev := range evs {
		ev.onFire(func(fired *Event) {
			if !first.triggered {
				_ = first.Succeed(fired)
			}
		})
	}
	return first
}

func (e *Env) schedule(at time.Time, fn func()) {
	e.seq++
	heap.Push(&e.queue, &item{at: at, seq: e.seq, fn: fn})
}

// scheduleUrgent queues fn ahead of every other item due at the same time.
func (e *Env) scheduleUrgent(at time.Time, fn func()) {
	e.seq++
	heap.Push(&e.queue, &item{at: at, urgent: true, seq: e.seq, fn: fn})
}

// resume hands control to p and blocks until p parks or finishes.
func (e *Env) resume(p *Proc, msg resumeMsg) {
	p.resume <- msg
	<-e.yield
}

func (e *Env) shutdown() {
	for _, p := range e.procs {
		if p.finished {
			continue
		}
		p.killed = true
		if p.started && !p.waiting {
			// Running processes cannot exist here; the scheduler holds control.
			continue
		}
		p.waiting = false
		e.resume(p, resumeMsg{kill: true})
	}
	e.procs = nil
	e.queue = nil
}

type item struct {
	at     time.Time
	urgent bool
	seq    uint64
	fn     func()
}

type itemHeap []*item

func (h itemHeap) Len() int { return len(h) }
func (h itemHeap) Less(i, j int) bool {
	if h[i].at.Equal(h[j].at) {
		if h[i].urgent != h[j].urgent {
			return h[i].urgent
		}
		return h[i].seq < h[j].seq
	}
	return h[i].at.Before(h[j].at)
}
func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *itemHeap) Push(x any) { *h = append(*h, x.(*item)) }
func (h *itemHeap) Pop() any {
	old := *h
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return it
}
