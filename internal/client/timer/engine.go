// Package timer implements the review countdown.
//
// An Engine owns at most one countdown handle. Start refuses to create a
// second one while a handle is live, and ticks delivered by a cancelled
// handle are recognised by their generation and dropped, so duplicate
// ticking cannot happen even when a stale tick races a Stop/Start pair.
//
// On reaching zero the engine stops itself, restores the full duration and
// notifies OnExpire subscribers exactly once. It never restarts itself.
package timer

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/logging"
)

// Ticker is the subset of *time.Ticker the engine needs.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type realTicker struct{ t *time.Ticker }

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }

func newRealTicker(d time.Duration) Ticker {
	return realTicker{t: time.NewTicker(d)}
}

// State is a snapshot of the countdown.
type State struct {
	Remaining time.Duration
	Running   bool
}

type handle struct {
	gen    uint64
	ticker Ticker
	done   chan struct{}
}

type Engine struct {
	mu        sync.Mutex
	duration  time.Duration
	interval  time.Duration
	remaining time.Duration
	gen       uint64
	live      *handle
	newTicker TickerFunc
	onExpire  []func()
	onTick    []func(State)
	log       logging.Logger
}

type Option func(*Engine)

// WithTicker replaces the wall-clock ticker, typically with a manual one in
// tests.
func WithTicker(f TickerFunc) Option {
	return func(e *Engine) { e.newTicker = f }
}

// WithInterval sets the tick granularity. Default is one second.
func WithInterval(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(e *Engine) { e.log = l }
}

// New returns a stopped engine holding the full duration.
func New(duration time.Duration, opts ...Option) *Engine {
	e := &Engine{
		duration:  duration,
		interval:  time.Second,
		remaining: duration,
		newTicker: newRealTicker,
		log:       logging.Nop(),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// OnExpire registers fn to run once per completed countdown.
func (e *Engine) OnExpire(fn func()) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onExpire = append(e.onExpire, fn)
}

// OnTick registers fn to receive the state after every accepted tick.
func (e *Engine) OnTick(fn func(State)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onTick = append(e.onTick, fn)
}

// Duration is the configured length of one countdown.
func (e *Engine) Duration() time.Duration {
	return e.duration
}

func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return State{Remaining: e.remaining, Running: e.live != nil}
}

// LiveHandles reports how many countdown handles exist: 0 or 1.
func (e *Engine) LiveHandles() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.live != nil {
		return 1
	}
	return 0
}

// Start resumes the countdown from the current remaining time. It is a
// no-op while running.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.live != nil {
		return
	}
	if e.remaining <= 0 {
		e.remaining = e.duration
	}
	e.gen++
	h := &handle{gen: e.gen, ticker: e.newTicker(e.interval), done: make(chan struct{})}
	e.live = h
	go e.run(h)
}

// Stop pauses the countdown. Remaining time is kept.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
}

// Reset stops the countdown and restores the full duration.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cancelLocked()
	e.remaining = e.duration
}

func (e *Engine) cancelLocked() {
	if e.live == nil {
		return
	}
	e.live.ticker.Stop()
	close(e.live.done)
	e.live = nil
}

func (e *Engine) run(h *handle) {
	for {
		select {
		case <-h.done:
			return
		case <-h.ticker.C():
			e.tick(h.gen)
		}
	}
}

// tick advances the countdown on behalf of handle gen. Ticks from any
// handle other than the live one are dropped.
func (e *Engine) tick(gen uint64) {
	e.mu.Lock()
	if e.live == nil || e.live.gen != gen {
		e.mu.Unlock()
		return
	}

	e.remaining -= e.interval
	expired := e.remaining <= 0
	if expired {
		e.cancelLocked()
		e.remaining = e.duration
	}

	state := State{Remaining: e.remaining, Running: e.live != nil}
	tickFns := append(([]func(State))(nil), e.onTick...)
	var expireFns []func()
	if expired {
		expireFns = append(expireFns, e.onExpire...)
	}
	e.mu.Unlock()

	for _, fn := range tickFns {
		fn(state)
	}
	if expired {
		e.log.Info(context.Background(), "timer expired", "duration", e.duration)
		for _, fn := range expireFns {
			fn()
		}
	}
}
