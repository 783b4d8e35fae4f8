package models

import "fmt"

// View identifies a top-level screen of the client.
type View string

const (
	ViewDecks  View = "decks"
	ViewAdd    View = "add"
	ViewReview View = "review"
	ViewStats  View = "stats"
	ViewManage View = "manage"
)

var knownViews = map[View]struct{}{
	ViewDecks:  {},
	ViewAdd:    {},
	ViewReview: {},
	ViewStats:  {},
	ViewManage: {},
}

// ParseView converts s to a View, rejecting unknown names.
func ParseView(s string) (View, error) {
	v := View(s)
	if _, ok := knownViews[v]; !ok {
		return "", fmt.Errorf("unknown view %q", s)
	}
	return v, nil
}

// StatsKind selects the statistics artifact to fetch.
type StatsKind string

const (
	StatsUser    StatsKind = "user"
	StatsDeck    StatsKind = "deck"
	StatsSession StatsKind = "session"
)

// StatsQuery selects a statistics artifact. Which selectors are required
// depends on Kind.
type StatsQuery struct {
	Kind      StatsKind `validate:"oneof=user deck session"`
	UserID    string    `validate:"required"`
	DeckID    string    `validate:"required_if=Kind deck"`
	SessionID string    `validate:"required_if=Kind session"`
}
