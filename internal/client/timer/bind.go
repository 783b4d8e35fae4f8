package timer

import (
	"github.com/dmitrijs2005/gophstudy/internal/client/events"
)

// Bind drives e from lifecycle events: a new session resets the countdown,
// every card advance restarts it from the full duration, and the end of a
// session stops it. The returned function detaches the engine.
func Bind(e *Engine, bus *events.Bus) (unbind func()) {
	return bus.Subscribe(func(ev events.Event) {
		switch ev.Kind {
		case events.SessionStarted:
			e.Reset()
		case events.CardAdvanced:
			e.Reset()
			e.Start()
		case events.SessionEnded:
			e.Stop()
		}
	}, events.SessionStarted, events.CardAdvanced, events.SessionEnded)
}
