// Package events carries study lifecycle notifications between the
// controllers and the components that react to them, such as the timer.
package events

import (
	"sync"
)

type Kind int

const (
	SessionStarted Kind = iota + 1
	CardAdvanced
	SessionEnded
)

func (k Kind) String() string {
	switch k {
	case SessionStarted:
		return "session-started"
	case CardAdvanced:
		return "card-advanced"
	case SessionEnded:
		return "session-ended"
	default:
		return "unknown"
	}
}

// Event is one lifecycle notification. CardID is set for CardAdvanced only.
type Event struct {
	Kind      Kind
	SessionID string
	CardID    int64
}

type subscriber struct {
	id    int
	kinds map[Kind]struct{}
	fn    func(Event)
}

// Bus delivers events synchronously, in subscription order, on the
// publisher's goroutine. Handlers run without the bus lock held, so they
// may publish or subscribe themselves.
type Bus struct {
	mu     sync.RWMutex
	nextID int
	subs   []subscriber
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn for the given kinds, or for every kind when none
// are given. The returned function removes the subscription.
func (b *Bus) Subscribe(fn func(Event), kinds ...Kind) (unsubscribe func()) {
	s := subscriber{fn: fn}
	if len(kinds) > 0 {
		s.kinds = make(map[Kind]struct{}, len(kinds))
		for _, k := range kinds {
			s.kinds[k] = struct{}{}
		}
	}

	b.mu.Lock()
	b.nextID++
	s.id = b.nextID
	b.subs = append(b.subs, s)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { b.remove(s.id) })
	}
}

func (b *Bus) remove(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, s := range b.subs {
		if s.id == id {
			b.subs = append(b.subs[:i:i], b.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers e to every matching subscriber before returning.
// A nil bus drops the event.
func (b *Bus) Publish(e Event) {
	if b == nil {
		return
	}

	b.mu.RLock()
	targets := make([]func(Event), 0, len(b.subs))
	for _, s := range b.subs {
		if s.kinds == nil {
			targets = append(targets, s.fn)
			continue
		}
		if _, ok := s.kinds[e.Kind]; ok {
			targets = append(targets, s.fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range targets {
		fn(e)
	}
}
