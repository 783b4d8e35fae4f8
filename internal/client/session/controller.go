// Package session owns "the one active session" of the client.
//
// Controller is the only writer of the current session. Readers get copies
// that are valid for the step that read them. Ending is idempotent and
// single-flight: concurrent End calls share one service call, and a later
// call finds nothing to end.
package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/dmitrijs2005/gophstudy/internal/client/client"
	"github.com/dmitrijs2005/gophstudy/internal/client/events"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstudy/internal/common"
	"github.com/dmitrijs2005/gophstudy/internal/logging"
	"golang.org/x/sync/singleflight"
)

var (
	ErrSessionActive = errors.New("a study session is already active")
	// ErrStaleSession is returned by Start while a session from an earlier
	// failed end is still open on the service and cannot be closed.
	ErrStaleSession = errors.New("a previous session could not be closed")
)

// Scheduler is the part of client.Client the controller calls.
type Scheduler interface {
	CreateSession(ctx context.Context, deckID, userID, name string) (*models.Session, error)
	EndSession(ctx context.Context, sessionID string) error
}

// MarkerStore persists the id of the open session across restarts.
// metadata.Repository satisfies it.
type MarkerStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type Controller struct {
	scheduler Scheduler
	store     MarkerStore
	bus       *events.Bus
	log       logging.Logger

	mu       sync.Mutex
	current  *models.Session
	starting bool

	endGroup singleflight.Group
}

type Option func(*Controller)

func WithStore(s MarkerStore) Option {
	return func(c *Controller) { c.store = s }
}

func WithBus(b *events.Bus) Option {
	return func(c *Controller) { c.bus = b }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func NewController(s Scheduler, opts ...Option) *Controller {
	c := &Controller{scheduler: s, log: logging.Nop()}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Start creates a session on the service and makes it current. The deck is
// validated locally first; nothing is sent when it is missing. A marker left
// by an earlier failed End is recovered before the new session is created,
// and Start is refused while that fails. Start does not retry.
func (c *Controller) Start(ctx context.Context, deckID, userID, name string) (*models.Session, error) {
	req := models.StartSessionRequest{
		DeckID: strings.TrimSpace(deckID),
		UserID: strings.TrimSpace(userID),
		Name:   strings.TrimSpace(name),
	}
	if err := common.Validate(req); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.current != nil || c.starting {
		c.mu.Unlock()
		return nil, ErrSessionActive
	}
	c.starting = true
	c.mu.Unlock()

	if err := c.Recover(ctx); err != nil {
		c.mu.Lock()
		c.starting = false
		c.mu.Unlock()
		c.log.Warn(ctx, "stale session blocks start", "deck", req.DeckID, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrStaleSession, err)
	}

	s, err := c.scheduler.CreateSession(ctx, req.DeckID, req.UserID, req.Name)
	if err == nil {
		s = fillSession(s, req)
	}

	c.mu.Lock()
	c.starting = false
	if err == nil {
		cp := *s
		c.current = &cp
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn(ctx, "create session failed", "deck", req.DeckID, "error", err)
		return nil, err
	}

	c.saveMarker(ctx, s.ID)
	c.log.Info(ctx, "session started", "session_id", s.ID, "deck", req.DeckID, "name", s.Name)
	c.bus.Publish(events.Event{Kind: events.SessionStarted, SessionID: s.ID})

	cp := *s
	return &cp, nil
}

// fillSession copies s and sets the fields the service left out from the
// request that created it.
func fillSession(s *models.Session, req models.StartSessionRequest) *models.Session {
	cp := *s
	if cp.DeckID == "" {
		cp.DeckID = req.DeckID
	}
	if cp.UserID == "" {
		cp.UserID = req.UserID
	}
	if cp.Name == "" {
		cp.Name = req.Name
	}
	return &cp
}

// End ends the current session, if any. The session is cleared locally even
// when the service call fails; in that case the error is returned and the
// persisted marker is kept so Recover can finish the job later.
func (c *Controller) End(ctx context.Context) error {
	_, err, _ := c.endGroup.Do("end", func() (any, error) {
		return nil, c.end(ctx)
	})
	return err
}

func (c *Controller) end(ctx context.Context) error {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return nil
	}

	err := c.scheduler.EndSession(ctx, s.ID)

	c.mu.Lock()
	if c.current != nil && c.current.ID == s.ID {
		c.current = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.log.Warn(ctx, "end session failed", "session_id", s.ID, "error", err)
	} else {
		c.clearMarker(ctx)
		c.log.Info(ctx, "session ended", "session_id", s.ID)
	}
	c.bus.Publish(events.Event{Kind: events.SessionEnded, SessionID: s.ID})
	return err
}

// Current returns a copy of the active session, or nil.
func (c *Controller) Current() *models.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current == nil {
		return nil
	}
	cp := *c.current
	return &cp
}

// Active reports whether a session is current.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// Recover ends a session left open on the service by a previous run that
// did not shut down cleanly. It is a no-op without a store or marker.
func (c *Controller) Recover(ctx context.Context) error {
	if c.store == nil {
		return nil
	}
	id, ok, err := c.store.Get(ctx, metadata.KeyActiveSession)
	if err != nil {
		return err
	}
	if !ok || id == "" {
		return nil
	}
	if cur := c.Current(); cur != nil && cur.ID == id {
		return nil
	}

	err = c.scheduler.EndSession(ctx, id)
	var se *client.ServiceError
	if err != nil && (!errors.As(err, &se) || se.Fatal()) {
		return fmt.Errorf("end orphaned session %s: %w", id, err)
	}

	c.log.Info(ctx, "orphaned session closed", "session_id", id, "service_error", err)
	c.clearMarker(ctx)
	return nil
}

func (c *Controller) saveMarker(ctx context.Context, id string) {
	if c.store == nil {
		return
	}
	if err := c.store.Set(ctx, metadata.KeyActiveSession, id); err != nil {
		c.log.Warn(ctx, "persist session marker failed", "session_id", id, "error", err)
	}
}

func (c *Controller) clearMarker(ctx context.Context) {
	if c.store == nil {
		return
	}
	if err := c.store.Delete(ctx, metadata.KeyActiveSession); err != nil {
		c.log.Warn(ctx, "clear session marker failed", "error", err)
	}
}
