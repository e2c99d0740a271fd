package client

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/mediaupload/internal/client/migrations"
	"github.com/dmitrijs2005/mediaupload/internal/client/repositories/diagnostics"
	"github.com/dmitrijs2005/mediaupload/internal/client/repositories/queue"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Repositories groups the local stores used by the uploader and the queue.
type Repositories struct {
	Queue       queue.Repository
	Diagnostics diagnostics.Repository
}

func NewRepositories(db *sql.DB) *Repositories {
	return &Repositories{
		Queue:       queue.NewSQLiteRepository(db),
		Diagnostics: diagnostics.NewSQLiteRepository(db),
	}
}

// sqlitePragmas are applied to every local database. The queue worker and
// interactive uploads write concurrently, so writers wait instead of
// failing with SQLITE_BUSY.
var sqlitePragmas = []string{
	"PRAGMA busy_timeout = 5000",
	"PRAGMA journal_mode = WAL",
	"PRAGMA foreign_keys = ON",
}

func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to migrate local database: %w", err)
	}
	return nil
}

// InitDatabase opens the SQLite database at dsn, applies pragmas and brings
// its schema up to date. A single connection serializes writers.
func InitDatabase(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	for _, p := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to apply %q: %w", p, err)
		}
	}

	if err := RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
