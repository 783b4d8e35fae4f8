package reviews

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/dbx"
	"github.com/google/uuid"
)

// successThreshold matches models.Rating.Success.
const successThreshold = 7

// SQLiteRepository implements Repository over a dbx.DBTX.
type SQLiteRepository struct {
	db dbx.DBTX
}

func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Append(ctx context.Context, rec *models.ReviewRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.ReviewedAt.IsZero() {
		rec.ReviewedAt = time.Now()
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO reviews (id, deck_id, session_id, card_id, rating, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.DeckID, rec.SessionID, rec.CardID, int(rec.Rating), rec.ReviewedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to append review: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListBySession(ctx context.Context, sessionID string) ([]models.ReviewRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, deck_id, session_id, card_id, rating, reviewed_at
		FROM reviews WHERE session_id = ? ORDER BY reviewed_at, rowid
	`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to select reviews: %w", err)
	}
	defer rows.Close()

	var result []models.ReviewRecord
	for rows.Next() {
		var (
			rec    models.ReviewRecord
			rating int
			at     int64
		)
		if err := rows.Scan(&rec.ID, &rec.DeckID, &rec.SessionID, &rec.CardID, &rating, &at); err != nil {
			return nil, fmt.Errorf("failed to scan review row: %w", err)
		}
		rec.Rating = models.Rating(rating)
		rec.ReviewedAt = time.UnixMilli(at)
		result = append(result, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate review rows: %w", err)
	}
	return result, nil
}

func (r *SQLiteRepository) Summarize(ctx context.Context, sessionID string) (Summary, error) {
	var s Summary
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN rating >= ? THEN 1 ELSE 0 END), 0)
		FROM reviews WHERE session_id = ?
	`, successThreshold, sessionID).Scan(&s.Reviews, &s.Successes)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize reviews: %w", err)
	}
	return s, nil
}
