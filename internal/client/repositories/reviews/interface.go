package reviews

import (
	"context"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
)

// Summary aggregates the journal of one session.
type Summary struct {
	Reviews   int
	Successes int
}

// SuccessRate is the share of successful recalls in percent.
func (s Summary) SuccessRate() float64 {
	if s.Reviews == 0 {
		return 0
	}
	return float64(s.Successes) * 100 / float64(s.Reviews)
}

// Repository describes the journal operations used by the review flow and
// the CLI.
type Repository interface {
	// Append stores rec. A record with an empty ID gets a fresh UUID.
	Append(ctx context.Context, rec *models.ReviewRecord) error

	// ListBySession returns the records of sessionID, oldest first.
	ListBySession(ctx context.Context, sessionID string) ([]models.ReviewRecord, error)

	// Summarize counts reviews and successful recalls of sessionID.
	Summarize(ctx context.Context, sessionID string) (Summary, error)
}
