package event

import "sync/atomic"

// Event is the capability set shared by dispatched events.
type Event interface {
	Type() string
	PreventDefault()
	DefaultPrevented() bool
}

type baseEvent struct {
	prevented atomic.Bool
}

func (e *baseEvent) PreventDefault() {
	e.prevented.Store(true)
}

func (e *baseEvent) DefaultPrevented() bool {
	return e.prevented.Load()
}

func (e *baseEvent) reset() {
	e.prevented.Store(false)
}
