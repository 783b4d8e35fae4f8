package client

import (
	"context"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
)

// Client is the request/response contract of the scheduling service.
// Implementations keep no study state between calls.
type Client interface {
	Close() error
	Ping(ctx context.Context) error

	CreateSession(ctx context.Context, deckID, userID, name string) (*models.Session, error)
	EndSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context, userID, deckID string) ([]models.Session, error)

	FetchNextCard(ctx context.Context, deckID, userID string) (*models.Card, error)
	// SubmitReview records rating for cardID and returns the next card, or
	// (nil, nil) when the deck has nothing left to review.
	SubmitReview(ctx context.Context, deckID, userID string, cardID int64, rating models.Rating, sessionID string) (*models.Card, error)

	ListDecks(ctx context.Context) ([]models.Deck, error)
	CreateDeck(ctx context.Context, name string) error
	ListCards(ctx context.Context, deckID string) ([]models.Card, error)
	AddCard(ctx context.Context, deckID string, in models.CardInput) (int64, error)
	UpdateCard(ctx context.Context, deckID string, cardID int64, in models.CardInput) (*models.Card, error)
	DeleteCard(ctx context.Context, deckID string, cardID int64) error

	Stats(ctx context.Context, q models.StatsQuery) ([]byte, error)
}
