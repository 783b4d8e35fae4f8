package client

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/repositories/metadata"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?`, name).Scan(&n)
	require.NoError(t, err)
	return n > 0
}

func TestInitDatabase_AppliesMigrations(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "study.db")

	db, err := InitDatabase(ctx, dsn)
	require.NoError(t, err)
	defer db.Close()

	for _, table := range []string{"goose_db_version", "metadata", "reviews"} {
		assert.True(t, tableExists(t, db, table), table)
	}
}

func TestRunMigrations_IsIdempotent(t *testing.T) {
	ctx := context.Background()
	dsn := filepath.Join(t.TempDir(), "study.db")

	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(ctx, db))
	require.NoError(t, RunMigrations(ctx, db))
	assert.True(t, tableExists(t, db, "reviews"))
}

func TestNewRepositories_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	defer db.Close()

	repos := NewRepositories(db)

	require.NoError(t, repos.Metadata.Set(ctx, metadata.KeyActiveSession, "s-1"))
	v, ok, err := repos.Metadata.Get(ctx, metadata.KeyActiveSession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s-1", v)

	require.NoError(t, repos.Reviews.Append(ctx, &models.ReviewRecord{DeckID: "Spanish", SessionID: "s-1", CardID: 4, Rating: 8}))
	sum, err := repos.Reviews.Summarize(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Successes)
}

func TestRepositories_AppendRemembersLastSession(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	defer db.Close()

	repos := NewRepositories(db)
	rec := &models.ReviewRecord{DeckID: "Spanish", SessionID: "s-2", CardID: 1, Rating: 3}
	require.NoError(t, repos.Append(ctx, rec))
	assert.NotEmpty(t, rec.ID)

	v, ok, err := repos.Metadata.Get(ctx, metadata.KeyLastSession)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "s-2", v)

	recs, err := repos.Reviews.ListBySession(ctx, "s-2")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, models.Rating(3), recs[0].Rating)
}

func TestRepositories_AppendRollsBackOnInvalidRating(t *testing.T) {
	ctx := context.Background()
	db, err := InitDatabase(ctx, filepath.Join(t.TempDir(), "study.db"))
	require.NoError(t, err)
	defer db.Close()

	repos := NewRepositories(db)
	require.Error(t, repos.Append(ctx, &models.ReviewRecord{SessionID: "s-3", CardID: 1, Rating: 42}))

	_, ok, err := repos.Metadata.Get(ctx, metadata.KeyLastSession)
	require.NoError(t, err)
	assert.False(t, ok)
}
