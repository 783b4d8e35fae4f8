package review

import "github.com/dmitrijs2005/gophstudy/internal/client/models"

// State is a step of the per-card protocol.
type State int

const (
	Idle State = iota
	FetchingCard
	FrontShown
	BackShown
	Submitting
	SessionEnded
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case FetchingCard:
		return "fetching"
	case FrontShown:
		return "front"
	case BackShown:
		return "back"
	case Submitting:
		return "submitting"
	case SessionEnded:
		return "ended"
	default:
		return "unknown"
	}
}

// Snapshot is a copy of the flow state. Card is nil while no card is
// presented.
type Snapshot struct {
	State     State
	Card      *models.ReviewCard
	Rating    models.Rating
	SessionID string
}

// Result describes the outcome of a successful Submit.
type Result struct {
	// Next is the card now shown, nil when the session completed.
	Next      *models.Card
	Completed bool
}
