// Package review drives the per-card study protocol:
//
//	Idle -> FetchingCard -> FrontShown -> BackShown -> Submitting -> FrontShown | SessionEnded
//
// Every outstanding request is tagged with the flow epoch and session it was
// issued for. A completion whose tag is no longer current is discarded and
// reported as ErrStale instead of being applied. Card advances and session
// ends are announced on the event bus, which is what keeps the timer in step.
package review

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/client/client"
	"github.com/dmitrijs2005/gophstudy/internal/client/events"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/common"
	"github.com/dmitrijs2005/gophstudy/internal/logging"
)

var ErrStale = errors.New("result superseded")

// Scheduler is the part of client.Client the flow calls.
type Scheduler interface {
	FetchNextCard(ctx context.Context, deckID, userID string) (*models.Card, error)
	SubmitReview(ctx context.Context, deckID, userID string, cardID int64, rating models.Rating, sessionID string) (*models.Card, error)
}

// Sessions is the part of the session controller the flow uses to end a
// session it can no longer continue.
type Sessions interface {
	Current() *models.Session
	End(ctx context.Context) error
}

// Journal records accepted ratings locally.
type Journal interface {
	Append(ctx context.Context, rec *models.ReviewRecord) error
}

type tag struct {
	epoch     uint64
	sessionID string
}

type Controller struct {
	scheduler Scheduler
	sessions  Sessions
	bus       *events.Bus
	journal   Journal
	policy    BackoffPolicy
	log       logging.Logger
	now       func() time.Time

	mu      sync.Mutex
	state   State
	session *models.Session
	card    *models.ReviewCard
	rating  models.Rating
	epoch   uint64
}

type Option func(*Controller)

func WithBackoff(p BackoffPolicy) Option {
	return func(c *Controller) { c.policy = p }
}

// WithBus publishes lifecycle events on b and follows session ends announced
// by other components.
func WithBus(b *events.Bus) Option {
	return func(c *Controller) { c.bus = b }
}

func WithJournal(j Journal) Option {
	return func(c *Controller) { c.journal = j }
}

func WithLogger(l logging.Logger) Option {
	return func(c *Controller) { c.log = l }
}

func NewController(s Scheduler, sessions Sessions, opts ...Option) *Controller {
	c := &Controller{
		scheduler: s,
		sessions:  sessions,
		policy:    DefaultBackoff(),
		log:       logging.Nop(),
		now:       time.Now,
		rating:    models.DefaultRating,
	}
	for _, o := range opts {
		o(c)
	}
	if c.bus != nil {
		c.bus.Subscribe(c.onSessionEnded, events.SessionEnded)
	}
	return c
}

func (c *Controller) tagLocked() tag {
	t := tag{epoch: c.epoch}
	if c.session != nil {
		t.sessionID = c.session.ID
	}
	return t
}

func (c *Controller) currentLocked(t tag) bool {
	return c.epoch == t.epoch && c.session != nil && c.session.ID == t.sessionID
}

// Begin fetches the first card of s. The fetch goes through the backoff
// policy: one retry, never more. When both attempts fail the error is
// returned and the flow never stays in FetchingCard: a transport failure
// returns it to Idle with the session left current, any other failure ends
// the session.
func (c *Controller) Begin(ctx context.Context, s *models.Session) (*models.Card, error) {
	return c.begin(ctx, s, c.policy)
}

// Resume retries the first card fetch of s after Begin gave up on a
// transport failure. It makes a single attempt with no delay; the service
// has had its registration time already. Failures are handled as in Begin.
func (c *Controller) Resume(ctx context.Context, s *models.Session) (*models.Card, error) {
	return c.begin(ctx, s, BackoffPolicy{Attempts: 1})
}

func (c *Controller) begin(ctx context.Context, s *models.Session, policy BackoffPolicy) (*models.Card, error) {
	if s == nil {
		return nil, common.ErrNoActiveSession
	}

	c.mu.Lock()
	if c.state != Idle && c.state != SessionEnded {
		c.mu.Unlock()
		return nil, common.ErrInvalidState
	}
	sess := *s
	c.epoch++
	c.state = FetchingCard
	c.session = &sess
	c.card = nil
	c.rating = models.DefaultRating
	t := c.tagLocked()
	c.mu.Unlock()

	var card *models.Card
	err := policy.Do(ctx, func(ctx context.Context) error {
		if !c.isCurrent(t) {
			return ErrStale
		}
		next, err := c.scheduler.FetchNextCard(ctx, sess.DeckID, sess.UserID)
		if err != nil {
			return err
		}
		if next == nil {
			return fmt.Errorf("%w: next_card missing", client.ErrProtocol)
		}
		card = next
		return nil
	}, func(attempt int, err error) {
		c.log.Warn(ctx, "first card fetch failed, retrying", "session_id", sess.ID, "attempt", attempt, "error", err)
	})

	c.mu.Lock()
	if !c.currentLocked(t) {
		c.mu.Unlock()
		return nil, ErrStale
	}

	if err != nil {
		c.card = nil
		if errors.Is(err, client.ErrUnavailable) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			c.state = Idle
			c.mu.Unlock()
			c.log.Warn(ctx, "study start aborted", "session_id", sess.ID, "error", err)
			return nil, err
		}
		c.state = SessionEnded
		c.epoch++
		c.mu.Unlock()
		c.log.Error(ctx, "study start failed, ending session", "session_id", sess.ID, "error", err)
		c.endSession(ctx, sess.ID)
		return nil, err
	}

	c.epoch++
	c.state = FrontShown
	c.card = &models.ReviewCard{Card: *card}
	c.rating = models.DefaultRating
	c.mu.Unlock()

	c.log.Debug(ctx, "card shown", "session_id", sess.ID, "card_id", card.ID)
	c.bus.Publish(events.Event{Kind: events.CardAdvanced, SessionID: sess.ID, CardID: card.ID})
	return card, nil
}

func (c *Controller) isCurrent(t tag) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.currentLocked(t)
}

// Reveal shows the back of the current card. Allowed once per card.
func (c *Controller) Reveal() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != FrontShown || c.card == nil {
		return common.ErrInvalidState
	}
	c.card.Revealed = true
	c.state = BackShown
	return nil
}

// SetRating stores r, clamped into [MinRating, MaxRating], as the pending
// rating and returns the stored value.
func (c *Controller) SetRating(r int) models.Rating {
	rating := models.ClampRating(r)
	c.mu.Lock()
	c.rating = rating
	c.mu.Unlock()
	return rating
}

// Submit sends the pending rating for the revealed card. It is accepted only
// in BackShown, which also rejects a second submit while one is in flight.
//
// A next card moves the flow to FrontShown with the rating reset to
// DefaultRating. No next card completes the session. A fatal error ends the
// session; any other error returns to BackShown so the user can retry.
func (c *Controller) Submit(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.state != BackShown || c.card == nil || c.session == nil {
		c.mu.Unlock()
		return Result{}, common.ErrInvalidState
	}
	c.state = Submitting
	sess := *c.session
	cardID := c.card.Card.ID
	rating := c.rating
	t := c.tagLocked()
	c.mu.Unlock()

	next, err := c.scheduler.SubmitReview(ctx, sess.DeckID, sess.UserID, cardID, rating, sess.ID)

	c.mu.Lock()
	if !c.currentLocked(t) || c.state != Submitting {
		c.mu.Unlock()
		return Result{}, ErrStale
	}

	switch {
	case err == nil && next != nil:
		c.epoch++
		c.state = FrontShown
		c.card = &models.ReviewCard{Card: *next}
		c.rating = models.DefaultRating
		c.mu.Unlock()

		c.record(ctx, sess, cardID, rating)
		c.log.Debug(ctx, "card advanced", "session_id", sess.ID, "rated", cardID, "rating", int(rating), "next", next.ID)
		c.bus.Publish(events.Event{Kind: events.CardAdvanced, SessionID: sess.ID, CardID: next.ID})
		return Result{Next: next}, nil

	case err == nil || client.IsNoMoreCards(err):
		c.finishLocked()
		c.mu.Unlock()

		if err == nil {
			c.record(ctx, sess, cardID, rating)
		}
		c.log.Info(ctx, "session complete", "session_id", sess.ID)
		c.endSession(ctx, sess.ID)
		return Result{Completed: true}, nil

	case client.IsFatal(err):
		c.finishLocked()
		c.mu.Unlock()

		c.log.Error(ctx, "review failed, ending session", "session_id", sess.ID, "error", err)
		c.endSession(ctx, sess.ID)
		return Result{}, err

	default:
		c.state = BackShown
		c.mu.Unlock()

		c.log.Warn(ctx, "review submit failed", "session_id", sess.ID, "card_id", cardID, "error", err)
		return Result{}, err
	}
}

func (c *Controller) finishLocked() {
	c.epoch++
	c.state = SessionEnded
	c.card = nil
}

// Snapshot returns a copy of the flow state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Snapshot{State: c.state, Rating: c.rating}
	if c.card != nil {
		cp := *c.card
		s.Card = &cp
	}
	if c.session != nil {
		s.SessionID = c.session.ID
	}
	return s
}

// endSession ends sessionID through the session controller when it is still
// the current session; otherwise it announces the end itself.
func (c *Controller) endSession(ctx context.Context, sessionID string) {
	if c.sessions != nil {
		if cur := c.sessions.Current(); cur != nil && cur.ID == sessionID {
			if err := c.sessions.End(ctx); err != nil {
				c.log.Warn(ctx, "end session failed", "session_id", sessionID, "error", err)
			}
			return
		}
	}
	c.bus.Publish(events.Event{Kind: events.SessionEnded, SessionID: sessionID})
}

// onSessionEnded moves the flow to SessionEnded when its session is ended
// elsewhere, for example by the navigation guard. In-flight results become
// stale.
func (c *Controller) onSessionEnded(e events.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil || c.session.ID != e.SessionID || c.state == SessionEnded {
		return
	}
	c.finishLocked()
}

func (c *Controller) record(ctx context.Context, sess models.Session, cardID int64, rating models.Rating) {
	if c.journal == nil {
		return
	}
	rec := &models.ReviewRecord{
		DeckID:     sess.DeckID,
		SessionID:  sess.ID,
		CardID:     cardID,
		Rating:     rating,
		ReviewedAt: c.now(),
	}
	if err := c.journal.Append(ctx, rec); err != nil {
		c.log.Warn(ctx, "journal append failed", "session_id", sess.ID, "card_id", cardID, "error", err)
	}
}
