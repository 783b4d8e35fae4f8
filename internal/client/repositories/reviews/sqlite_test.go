package reviews

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE reviews (
  id          TEXT PRIMARY KEY,
  deck_id     TEXT NOT NULL,
  session_id  TEXT NOT NULL,
  card_id     INTEGER NOT NULL,
  rating      INTEGER NOT NULL,
  reviewed_at INTEGER NOT NULL
);`)
	require.NoError(t, err)
	return db
}

func TestAppend_AssignsIDAndListsInOrder(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()
	base := time.UnixMilli(1_700_000_000_000)

	first := &models.ReviewRecord{DeckID: "Spanish", SessionID: "s1", CardID: 1, Rating: 7, ReviewedAt: base}
	second := &models.ReviewRecord{DeckID: "Spanish", SessionID: "s1", CardID: 2, Rating: 3, ReviewedAt: base.Add(time.Second)}
	other := &models.ReviewRecord{DeckID: "Spanish", SessionID: "s2", CardID: 1, Rating: 10, ReviewedAt: base}

	require.NoError(t, r.Append(ctx, second))
	require.NoError(t, r.Append(ctx, first))
	require.NoError(t, r.Append(ctx, other))
	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)

	got, err := r.ListBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].CardID)
	assert.Equal(t, models.Rating(7), got[0].Rating)
	assert.True(t, got[0].ReviewedAt.Equal(base))
	assert.Equal(t, int64(2), got[1].CardID)
}

func TestAppend_DuplicateIDFails(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	rec := &models.ReviewRecord{ID: "fixed", DeckID: "d", SessionID: "s", CardID: 1, Rating: 5}
	require.NoError(t, r.Append(ctx, rec))

	err := r.Append(ctx, &models.ReviewRecord{ID: "fixed", DeckID: "d", SessionID: "s", CardID: 2, Rating: 5})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append review")
}

func TestSummarize(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	for _, rating := range []models.Rating{10, 7, 6, 0} {
		require.NoError(t, r.Append(ctx, &models.ReviewRecord{DeckID: "d", SessionID: "s", CardID: 1, Rating: rating}))
	}

	sum, err := r.Summarize(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, Summary{Reviews: 4, Successes: 2}, sum)
	assert.InDelta(t, 50.0, sum.SuccessRate(), 0.001)

	empty, err := r.Summarize(ctx, "nope")
	require.NoError(t, err)
	assert.Zero(t, empty.Reviews)
	assert.Zero(t, empty.SuccessRate())
}

func TestListBySession_Errors(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, deck_id").WillReturnError(errors.New("locked"))
	mock.ExpectQuery("SELECT id, deck_id").
		WillReturnRows(sqlmock.NewRows([]string{"id", "deck_id", "session_id", "card_id", "rating", "reviewed_at"}).
			AddRow("r1", "d", "s", "not-a-number", 5, 0))

	r := NewSQLiteRepository(db)
	ctx := context.Background()

	_, err = r.ListBySession(ctx, "s")
	require.ErrorContains(t, err, "failed to select reviews")

	_, err = r.ListBySession(ctx, "s")
	require.ErrorContains(t, err, "failed to scan review row")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSummarize_Error(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").WillReturnError(errors.New("locked"))

	_, err = NewSQLiteRepository(db).Summarize(context.Background(), "s")
	require.ErrorContains(t, err, "failed to summarize reviews")
}
