package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/gophstudy/internal/client/migrations"
	"github.com/dmitrijs2005/gophstudy/internal/client/models"
	"github.com/dmitrijs2005/gophstudy/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/gophstudy/internal/client/repositories/reviews"
	"github.com/dmitrijs2005/gophstudy/internal/dbx"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Repositories bundles the local stores opened over one database.
type Repositories struct {
	DB       *sql.DB
	Metadata metadata.Repository
	Reviews  reviews.Repository
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("set goose dialect: %w", err)
	}

	return goose.UpContext(ctx, db, ".")
}

// InitDatabase opens the SQLite database at dsn and applies migrations.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", dsn, err)
	}
	return db, nil
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		DB:       db,
		Metadata: metadata.NewSQLiteRepository(db),
		Reviews:  reviews.NewSQLiteRepository(db),
	}
}

// Append journals rec and remembers its session as the last one studied, in
// one transaction.
func (r *Repositories) Append(ctx context.Context, rec *models.ReviewRecord) error {
	return dbx.WithTx(ctx, r.DB, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := reviews.NewSQLiteRepository(tx).Append(ctx, rec); err != nil {
			return err
		}
		return metadata.NewSQLiteRepository(tx).Set(ctx, metadata.KeyLastSession, rec.SessionID)
	})
}
