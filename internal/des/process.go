package des

import (
	"fmt"
	"runtime/debug"
	"time"
)

// Interrupt is returned from Wait when another process interrupts the waiter.
type Interrupt struct {
	Cause any
}

func (i *Interrupt) Error() string { return fmt.Sprintf("des: interrupted: %v", i.Cause) }

// ProcFunc is the body of a process. Returning ends the process.
type ProcFunc func(p *Proc) error

// Proc is a running process.
type Proc struct {
	env  *Env
	Name string
	// Done fires with the process's returned error when it ends.
	Done *Event

	resume   chan resumeMsg
	started  bool
	finished bool
	waiting  bool
	killed   bool
	waitGen  uint64
	pending  *Interrupt
	err      error
}

type resumeMsg struct {
	fired     *Event
	interrupt *Interrupt
	kill      bool
}

// Process starts fn as a process at the current time.
func (e *Env) Process(name string, fn ProcFunc) *Proc {
	p := &Proc{env: e, Name: name, Done: e.NewEvent(), resume: make(chan resumeMsg)}
	e.procs = append(e.procs, p)
	go p.run(fn)
	e.schedule(e.now, func() {
		p.started = true
		e.resume(p, resumeMsg{})
	})
	return p
}

func (p *Proc) run(fn ProcFunc) {
	msg := <-p.resume
	if msg.kill {
		p.finished = true
		p.env.yield <- struct{}{}
		return
	}
	defer func() {
		if r := recover(); r != nil {
			p.err = fmt.Errorf("process %s panicked: %v\n%s", p.Name, r, debug.Stack())
		}
		p.finished = true
		p.waiting = false
		if !p.killed {
			_ = p.Done.Succeed(p.err)
		}
		p.env.yield <- struct{}{}
	}()
	p.err = fn(p)
}

// Env returns the process's environment.
func (p *Proc) Env() *Env { return p.env }

// Err returns the error the process ended with.
func (p *Proc) Err() error { return p.err }

// Finished reports whether the process has ended.
func (p *Proc) Finished() bool { return p.finished }

// Wait parks the process until the first of evs fires and returns it. It
// returns an *Interrupt if the process is interrupted first, and ErrKilled
// once the environment shuts down.
func (p *Proc) Wait(evs ...*Event) (*Event, error) {
	if p.killed {
		return nil, ErrKilled
	}
	if p.pending != nil {
		in := p.pending
		p.pending = nil
		return nil, in
	}
	for _, ev := range evs {
		if ev.processed {
			return ev, nil
		}
	}

	p.waitGen++
	gen := p.waitGen
	for _, ev := range evs {
		ev.onFire(func(fired *Event) {
			if p.waiting && p.waitGen == gen {
				p.waiting = false
				p.env.resume(p, resumeMsg{fired: fired})
			}
		})
	}
	p.waiting = true
	p.env.yield <- struct{}{}
	msg := <-p.resume

	switch {
	case msg.kill:
		return nil, ErrKilled
	case msg.interrupt != nil:
		return nil, msg.interrupt
	default:
		return msg.fired, nil
	}
}

// Sleep waits for d of simulated time.
func (p *Proc) Sleep(d time.Duration) error {
	_, err := p.Wait(p.env.Timeout(d))
	return err
}

// Interrupt schedules an interrupt for p at the current time, ahead of any
// other event due now, so p cannot resume from a same-time wait first. A
// process that is not waiting receives it on its next Wait; a finished
// process ignores it.
func (p *Proc) Interrupt(cause any) {
	env := p.env
	env.scheduleUrgent(env.now, func() {
		if p.finished {
			return
		}
		in := &Interrupt{Cause: cause}
		if !p.waiting {
			p.pending = in
			return
		}
		p.waiting = false
		p.waitGen++
		env.resume(p, resumeMsg{interrupt: in})
	})
}
