package des

import "errors"

// ErrAlreadyTriggered is returned when an event is succeeded twice.
var ErrAlreadyTriggered = errors.New("des: event already triggered")

// Event is something processes can wait on. It fires at most once.
type Event struct {
	env       *Env
	triggered bool
	processed bool
	value     any
	callbacks []func(*Event)
}

// NewEvent returns an untriggered event.
func (e *Env) NewEvent() *Event {
	return &Event{env: e}
}

// Succeed schedules the event to fire at the current time with value v.
func (ev *Event) Succeed(v any) error {
	if ev.triggered {
		return ErrAlreadyTriggered
	}
	ev.triggered = true
	ev.env.schedule(ev.env.now, func() { ev.fire(v) })
	return nil
}

// Triggered reports whether the event has been scheduled to fire.
func (ev *Event) Triggered() bool { return ev.triggered }

// Processed reports whether the event has fired.
func (ev *Event) Processed() bool { return ev.processed }

// Value returns the value the event fired with.
func (ev *Event) Value() any { return ev.value }

func (ev *Event) fire(v any) {
	ev.processed = true
	ev.value = v
	cbs := ev.callbacks
	ev.callbacks = nil
	for _, cb := range cbs {
		cb(ev)
	}
}

func (ev *Event) onFire(cb func(*Event)) {
	if ev.processed {
		cb(ev)
		return
	}
	ev.callbacks = append(ev.callbacks, cb)
}
