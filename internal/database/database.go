// Package database opens the sqlite database and keeps its schema current.
package database

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/harshitpdoshi/news-app/internal/migrations"
)

// Connection options: foreign keys on, WAL so readers don't block the writer,
// and writers wait on each other instead of failing with SQLITE_BUSY.
const dsnParams = "_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"

// Open connects to the sqlite database at path, creating it if needed, and
// brings its schema up to date.
func Open(path string) (*sqlx.DB, error) {
	dbx, err := sqlx.Open("sqlite", fmt.Sprintf("%s?%s", path, dsnParams))
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	if err := dbx.Ping(); err != nil {
		dbx.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	if err := upgrade(dbx); err != nil {
		dbx.Close()
		return nil, err
	}

	return dbx, nil
}

// upgrade applies the embedded migrations that haven't run yet.
func upgrade(dbx *sqlx.DB) error {
	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return fmt.Errorf("error reading embedded migrations: %w", err)
	}
	driver, err := migratesqlite.WithInstance(dbx.DB, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("error preparing schema migration: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("error preparing schema migration: %w", err)
	}

	before, _, _ := m.Version()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("error migrating schema from version %d: %w", before, err)
	}
	after, dirty, _ := m.Version()
	slog.Debug("schema up to date", "from", before, "version", after, "dirty", dirty)

	return nil
}
