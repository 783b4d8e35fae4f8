package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/client/client"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/review"
	"github.com/dmitrijs2005/gophstudy/internal/client/session"
	"github.com/dmitrijs2005/gophstudy/internal/common"
)

func defaultSessionName(deck string, now time.Time) string {
	return fmt.Sprintf("%s %s", deck, now.Format("2006-01-02 15:04"))
}

// Study starts a session on the working deck and shows its first card. When
// a session is already open but its first card never arrived, the fetch is
// attempted again instead.
func (a *App) Study(ctx context.Context) error {
	if err := a.requireDeck(); err != nil {
		return err
	}

	if cur := a.sessions.Current(); cur != nil {
		if a.flow.Snapshot().State != review.Idle {
			a.println("A session is already active. Type 'end' to finish it.")
			return session.ErrSessionActive
		}
		a.setView(models.ViewReview)
		return a.begin(ctx, cur, a.flow.Resume)
	}

	name := defaultSessionName(a.deck, time.Now())
	if a.bridge != nil {
		n, ok := a.bridge.PromptForSessionName("Name this study session", name)
		if !ok {
			a.setView(models.ViewDecks)
			a.println("Study cancelled.")
			return nil
		}
		name = n
	}

	s, err := a.sessions.Start(ctx, a.deck, a.config.UserID, name)
	if err != nil {
		a.setView(models.ViewDecks)
		return a.fail(ctx, "start session", err)
	}
	a.lastSession = s.ID
	a.setView(models.ViewReview)
	a.printf("Session %q started.\n", s.Name)

	return a.begin(ctx, s, a.flow.Begin)
}

func (a *App) begin(ctx context.Context, s *models.Session, fetch func(context.Context, *models.Session) (*models.Card, error)) error {
	card, err := fetch(ctx, s)
	if err != nil {
		_ = a.fail(ctx, "fetch first card", err)
		a.setView(models.ViewDecks)
		if a.flow.Snapshot().State != review.SessionEnded {
			a.println("Type 'study' to try again or 'end' to give up.")
		}
		return err
	}
	a.printFront(card)
	return nil
}

func (a *App) Reveal(ctx context.Context) error {
	if err := a.flow.Reveal(); err != nil {
		a.println("No card to reveal.")
		return err
	}
	snap := a.flow.Snapshot()
	a.printBack(&snap.Card.Card)
	a.printf("Rate it with 'rate <0-10>' (now %d), then 'submit'.\n", snap.Rating)
	return nil
}

func (a *App) Rate(ctx context.Context, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		a.println("Usage: rate <0-10>")
		return &common.ValidationError{Field: "rating", Reason: "must be a number"}
	}
	a.printf("Rating: %d\n", a.flow.SetRating(n))
	return nil
}

func (a *App) Submit(ctx context.Context) error {
	res, err := a.flow.Submit(ctx)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrInvalidState):
			a.println("Reveal the card first ('show').")
		case errors.Is(err, review.ErrStale):
			a.println("The session ended before the rating was recorded.")
		default:
			_ = a.fail(ctx, "submit review", err)
			switch {
			case a.flow.Snapshot().State == review.SessionEnded:
				a.finishSession(ctx)
			case errors.Is(err, client.ErrUnavailable):
				a.setView(models.ViewDecks)
				a.println("Type 'view review' and 'submit' to try again.")
			default:
				a.println("Type 'submit' to try again.")
			}
		}
		return err
	}

	if res.Completed {
		a.println("Session complete! No more cards to review.")
		a.finishSession(ctx)
		return nil
	}
	a.printFront(res.Next)
	return nil
}

func (a *App) Timer(ctx context.Context, action string) error {
	switch action {
	case "":
	case "pause":
		a.timer.Stop()
	case "resume":
		if !a.sessions.Active() {
			a.println("No active session.")
			return common.ErrNoActiveSession
		}
		a.timer.Start()
	case "reset":
		a.timer.Reset()
	default:
		a.println("Usage: timer [pause|resume|reset]")
		return &common.ValidationError{Field: "action", Reason: "must be one of [pause resume reset]"}
	}

	st := a.timer.State()
	state := "paused"
	if st.Running {
		state = "running"
	}
	a.printf("Timer %s, %s left\n", state, formatClock(st.Remaining))
	return nil
}

func (a *App) End(ctx context.Context) error {
	if !a.sessions.Active() {
		a.println("No active session.")
		return common.ErrNoActiveSession
	}
	err := a.sessions.End(ctx)
	if err != nil {
		_ = a.fail(ctx, "end session", err)
	}
	a.finishSession(ctx)
	return err
}

// finishSession prints the journal summary of the last session and returns
// to the deck list.
func (a *App) finishSession(ctx context.Context) {
	a.setView(models.ViewDecks)
	if a.lastSession == "" {
		return
	}
	sum, err := a.repos.Reviews.Summarize(ctx, a.lastSession)
	if err != nil {
		a.log.Warn(ctx, "summarize session failed", "session_id", a.lastSession, "error", err)
		return
	}
	a.printf("Reviewed %d cards, %.0f%% recalled.\n", sum.Reviews, sum.SuccessRate())
}

func (a *App) History(ctx context.Context) error {
	id := a.sessionForReport()
	if id == "" {
		a.println("No session yet.")
		return common.ErrNoActiveSession
	}
	recs, err := a.repos.Reviews.ListBySession(ctx, id)
	if err != nil {
		return a.fail(ctx, "read history", err)
	}
	if len(recs) == 0 {
		a.println("No ratings recorded.")
		return nil
	}
	for _, r := range recs {
		a.printf("%s  card %d  rated %d\n", r.ReviewedAt.Format("15:04:05"), r.CardID, r.Rating)
	}
	return nil
}

func (a *App) sessionForReport() string {
	if cur := a.sessions.Current(); cur != nil {
		return cur.ID
	}
	return a.lastSession
}

func (a *App) printFront(c *models.Card) {
	a.printf("\n[%d] %s\n", c.ID, c.Front)
	if c.FrontImage != "" {
		a.println("(image)")
	}
	a.println("Type 'show' to reveal the answer.")
}

func (a *App) printBack(c *models.Card) {
	a.printf("---\n%s\n", c.Back)
	if c.BackImage != "" {
		a.println("(image)")
	}
}

func formatClock(d time.Duration) string {
	secs := int(d.Round(time.Second) / time.Second)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

func oneLine(s string) string {
	return strings.ReplaceAll(s, "\n", " / ")
}
