package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophstudy/internal/client/client"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstudy/internal/common"
	"github.com/dmitrijs2005/gophstudy/internal/filex"
	"github.com/dmitrijs2005/gophstudy/internal/logging"
)

// DeckService manages decks and cards on the scheduling service. Input is
// validated locally; an invalid request never reaches the network.
type DeckService interface {
	ListDecks(ctx context.Context) ([]models.Deck, error)
	CreateDeck(ctx context.Context, name string) error
	ListCards(ctx context.Context, deck string) ([]models.Card, error)
	AddCard(ctx context.Context, deck string, in models.CardInput) (int64, error)
	UpdateCard(ctx context.Context, deck string, id int64, in models.CardInput) (*models.Card, error)
	DeleteCard(ctx context.Context, deck string, id int64) error
	ListSessions(ctx context.Context, userID, deck string) ([]models.Session, error)

	// SaveStats downloads the statistics chart selected by q and writes it
	// into dir. It returns the path written.
	SaveStats(ctx context.Context, q models.StatsQuery, dir, name string) (string, error)

	// CurrentDeck returns the remembered working deck, "" when none.
	CurrentDeck(ctx context.Context) (string, error)
	// UseDeck checks that name exists and remembers it as the working deck.
	UseDeck(ctx context.Context, name string) error
}

type deckService struct {
	client       client.Client
	metadataRepo metadata.Repository
	log          logging.Logger
}

func NewDeckService(c client.Client, metadataRepo metadata.Repository, l logging.Logger) DeckService {
	if l == nil {
		l = logging.Nop()
	}
	return &deckService{client: c, metadataRepo: metadataRepo, log: l}
}

func deckName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if err := common.ValidateVar("deck", name, "required,max=100"); err != nil {
		return "", err
	}
	return name, nil
}

func (s *deckService) ListDecks(ctx context.Context) ([]models.Deck, error) {
	return s.client.ListDecks(ctx)
}

func (s *deckService) CreateDeck(ctx context.Context, name string) error {
	name, err := deckName(name)
	if err != nil {
		return err
	}
	if err := s.client.CreateDeck(ctx, name); err != nil {
		return err
	}
	s.log.Info(ctx, "deck created", "deck", name)
	return nil
}

func (s *deckService) ListCards(ctx context.Context, deck string) ([]models.Card, error) {
	deck, err := deckName(deck)
	if err != nil {
		return nil, err
	}
	return s.client.ListCards(ctx, deck)
}

func cardInput(in models.CardInput) (models.CardInput, error) {
	in.Front = strings.TrimSpace(in.Front)
	in.Back = strings.TrimSpace(in.Back)
	in.Type = strings.TrimSpace(in.Type)
	if in.Type == "" {
		in.Type = models.DefaultCardType
	}
	if err := common.Validate(in); err != nil {
		return in, err
	}
	return in, nil
}

func (s *deckService) AddCard(ctx context.Context, deck string, in models.CardInput) (int64, error) {
	deck, err := deckName(deck)
	if err != nil {
		return 0, err
	}
	in, err = cardInput(in)
	if err != nil {
		return 0, err
	}

	id, err := s.client.AddCard(ctx, deck, in)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "card added", "deck", deck, "card_id", id)
	return id, nil
}

func (s *deckService) UpdateCard(ctx context.Context, deck string, id int64, in models.CardInput) (*models.Card, error) {
	deck, err := deckName(deck)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, &common.ValidationError{Field: "id", Reason: "must be greater than 0"}
	}
	in, err = cardInput(in)
	if err != nil {
		return nil, err
	}
	return s.client.UpdateCard(ctx, deck, id, in)
}

func (s *deckService) DeleteCard(ctx context.Context, deck string, id int64) error {
	deck, err := deckName(deck)
	if err != nil {
		return err
	}
	if id <= 0 {
		return &common.ValidationError{Field: "id", Reason: "must be greater than 0"}
	}
	if err := s.client.DeleteCard(ctx, deck, id); err != nil {
		return err
	}
	s.log.Info(ctx, "card deleted", "deck", deck, "card_id", id)
	return nil
}

func (s *deckService) ListSessions(ctx context.Context, userID, deck string) ([]models.Session, error) {
	return s.client.ListSessions(ctx, strings.TrimSpace(userID), strings.TrimSpace(deck))
}

func (s *deckService) SaveStats(ctx context.Context, q models.StatsQuery, dir, name string) (string, error) {
	if err := common.Validate(q); err != nil {
		return "", err
	}
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("%s_stats.png", q.Kind)
	}

	data, err := s.client.Stats(ctx, q)
	if err != nil {
		return "", err
	}

	path, err := filex.WriteInDir(dir, name, data)
	if err != nil {
		return "", fmt.Errorf("save stats: %w", err)
	}
	s.log.Info(ctx, "stats saved", "kind", string(q.Kind), "path", path, "bytes", len(data))
	return path, nil
}

func (s *deckService) CurrentDeck(ctx context.Context) (string, error) {
	if s.metadataRepo == nil {
		return "", nil
	}
	v, _, err := s.metadataRepo.Get(ctx, metadata.KeyCurrentDeck)
	if err != nil {
		return "", fmt.Errorf("read current deck: %w", err)
	}
	return v, nil
}

func (s *deckService) UseDeck(ctx context.Context, name string) error {
	name, err := deckName(name)
	if err != nil {
		return err
	}

	decks, err := s.client.ListDecks(ctx)
	if err != nil {
		return err
	}
	found := false
	for _, d := range decks {
		if d.Name == name {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("deck %q: %w", name, common.ErrorNotFound)
	}

	if s.metadataRepo != nil {
		if err := s.metadataRepo.Set(ctx, metadata.KeyCurrentDeck, name); err != nil {
			return fmt.Errorf("remember current deck: %w", err)
		}
	}
	return nil
}
