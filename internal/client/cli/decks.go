package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/session"
	"github.com/dmitrijs2005/gophstudy/internal/common"
)

func (a *App) Decks(ctx context.Context) error {
	decks, err := a.decks.ListDecks(ctx)
	if err != nil {
		return a.fail(ctx, "list decks", err)
	}
	if len(decks) == 0 {
		a.println("No decks yet. Create one with 'newdeck'.")
		return nil
	}
	for _, d := range decks {
		mark := " "
		if d.Name == a.deck {
			mark = "*"
		}
		a.printf("%s %s\n", mark, d.Name)
	}
	return nil
}

// Use selects name as the working deck. The deck cannot change while a
// session is active.
func (a *App) Use(ctx context.Context, name string) error {
	if a.sessions.Active() && name != a.deck {
		a.println("Finish the active session first ('end').")
		return session.ErrSessionActive
	}
	if err := a.decks.UseDeck(ctx, name); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			a.println("Unknown deck:", name)
			return err
		}
		return a.fail(ctx, "use deck", err)
	}
	a.deck = name
	a.println("Using deck", name)
	return nil
}

func (a *App) NewDeck(ctx context.Context) error {
	name, err := GetSimpleText(a.reader, "Deck name", a.out)
	if err != nil {
		return err
	}
	if err := a.decks.CreateDeck(ctx, name); err != nil {
		return a.fail(ctx, "create deck", err)
	}
	a.println("Deck created.")
	return nil
}

func (a *App) requireDeck() error {
	if a.deck == "" {
		a.println("Select a deck first: use <deck>")
		return &common.ValidationError{Field: "deck", Reason: "is required"}
	}
	return nil
}

func (a *App) Cards(ctx context.Context) error {
	if err := a.requireDeck(); err != nil {
		return err
	}
	cards, err := a.decks.ListCards(ctx, a.deck)
	if err != nil {
		return a.fail(ctx, "list cards", err)
	}
	if len(cards) == 0 {
		a.println("This deck has no cards.")
		return nil
	}
	for _, c := range cards {
		a.printf("[%d] %s | %s\n", c.ID, oneLine(c.Front), oneLine(c.Back))
	}
	return nil
}

func (a *App) AddCard(ctx context.Context) error {
	if err := a.requireDeck(); err != nil {
		return err
	}

	front, err := GetSimpleText(a.reader, "Front", a.out)
	if err != nil {
		return err
	}
	back, err := GetMultiline(a.reader, "Back", a.out)
	if err != nil {
		return err
	}

	id, err := a.decks.AddCard(ctx, a.deck, models.CardInput{Front: front, Back: back})
	if err != nil {
		return a.fail(ctx, "add card", err)
	}
	a.printf("Card %d added to %s.\n", id, a.deck)
	return nil
}

func (a *App) DeleteCard(ctx context.Context, raw string) error {
	if err := a.requireDeck(); err != nil {
		return err
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		a.println("Usage: delcard <id>")
		return fmt.Errorf("parse card id: %w", err)
	}
	if err := a.decks.DeleteCard(ctx, a.deck, id); err != nil {
		return a.fail(ctx, "delete card", err)
	}
	a.printf("Card %d deleted.\n", id)
	return nil
}
