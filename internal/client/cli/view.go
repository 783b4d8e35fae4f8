package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/gophstudy/internal/client/host"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/common"
)

func (a *App) setView(v models.View) {
	a.view = v
}

func (a *App) status() string {
	parts := []string{string(a.view)}
	if a.deck != "" {
		parts = append(parts, a.deck)
	}
	if a.view == models.ViewReview && a.sessions.Active() {
		parts = append(parts, a.flow.Snapshot().State.String(), formatClock(a.timer.State().Remaining))
	}
	return "(" + strings.Join(parts, " ") + ")"
}

func (a *App) View(ctx context.Context, name string) error {
	v, err := models.ParseView(name)
	if err != nil {
		a.println("Unknown view:", name)
		return err
	}
	return a.changeView(ctx, v)
}

// changeView switches to v. Leaving the review view is guarded.
func (a *App) changeView(ctx context.Context, v models.View) error {
	if a.view != models.ViewReview || v == models.ViewReview {
		a.setView(v)
		return nil
	}

	ok, err := a.guard.Navigate(ctx, v, func() { a.setView(v) })
	if err != nil {
		return a.fail(ctx, "navigate", err)
	}
	if !ok {
		a.println("Staying in review.")
	}
	return nil
}

func (a *App) Exit(ctx context.Context) bool {
	if !a.sessions.Active() {
		return true
	}
	ok, err := a.guard.Navigate(ctx, models.ViewDecks, func() {})
	if err != nil {
		_ = a.fail(ctx, "exit", err)
		return false
	}
	if !ok {
		a.println("Exit cancelled.")
	}
	return ok
}

// drainHost applies every queued host command.
func (a *App) drainHost(ctx context.Context) {
	for _, cmd := range a.port.Pending() {
		a.log.Debug(ctx, "host command", "type", string(cmd.Type), "deck", cmd.Deck, "view", string(cmd.View))

		switch cmd.Type {
		case host.CmdSetCurrentDeck:
			_ = a.Use(ctx, cmd.Deck)

		case host.CmdOpenAddCard:
			if err := a.Use(ctx, cmd.Deck); err != nil {
				continue
			}
			if err := a.changeView(ctx, models.ViewAdd); err == nil && a.view == models.ViewAdd {
				a.printf("Type 'addcard' to add a card to %s.\n", a.deck)
			}

		case host.CmdSetView:
			_ = a.changeView(ctx, cmd.View)
		}
	}
}

func (a *App) Sessions(ctx context.Context) error {
	list, err := a.decks.ListSessions(ctx, a.config.UserID, a.deck)
	if err != nil {
		return a.fail(ctx, "list sessions", err)
	}
	if len(list) == 0 {
		a.println("No sessions yet.")
		return nil
	}
	for _, s := range list {
		state := "ended"
		if s.Active() {
			state = "active"
		}
		a.printf("%s  %-20s %-12s %s  %d cards  %.0f%%  %s\n",
			s.StartTime.Format("2006-01-02 15:04"), s.Name, s.DeckID, state, s.CardsStudied, s.SuccessRate, s.ID)
	}
	return nil
}

// Stats saves a statistics chart. args are an optional kind followed by an
// optional file name.
func (a *App) Stats(ctx context.Context, args []string) error {
	kind := models.StatsUser
	if len(args) > 0 {
		kind = models.StatsKind(args[0])
	}

	dir, name := ".", ""
	if len(args) > 1 {
		dir, name = filepath.Dir(args[1]), filepath.Base(args[1])
	}

	q := models.StatsQuery{
		Kind:      kind,
		UserID:    a.config.UserID,
		DeckID:    a.deck,
		SessionID: a.sessionForReport(),
	}

	path, err := a.decks.SaveStats(ctx, q, dir, name)
	if err != nil {
		var ve *common.ValidationError
		if errors.As(err, &ve) {
			a.println("Usage: stats [user|deck|session] [file]")
		}
		return a.fail(ctx, "save stats", fmt.Errorf("%s stats: %w", kind, err))
	}
	a.println("Saved", path)
	return nil
}
