// Package db is kasl's persistence layer: an embedded single-file SQLite
// store holding workdays, pauses, tasks, tags, templates, and the
// migration log.
package db

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kasl-dev/kasl/internal/kerrors"

	_ "modernc.org/sqlite"
)

// Store is the single writer's handle onto kasl.db. The daemon holds
// exactly one of these.
type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and applies every
// pending migration.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db directory: %v", kerrors.ErrStorageError, err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: open database: %v", kerrors.ErrStorageError, err)
	}

	// A single daemon writer plus the locking the embedded engine performs
	// for concurrent readers: cap to one connection so that
	// busy_timeout, not a second in-process connection, serializes access.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("%w: exec pragma %q: %v", kerrors.ErrStorageError, p, err)
		}
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", kerrors.ErrMigrationFailure, err)
	}

	return &Store{db: db}, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying connection to packages (report adjustments)
// that need to run multi-statement transactions spanning more than one
// table. Inside the daemon, the state-machine worker and the
// housekeeping worker both use it.
func (s *Store) DB() *sql.DB {
	return s.db
}

const timeLayout = time.RFC3339

func formatTimestamp(t time.Time) string {
	return t.Local().Format(timeLayout)
}

func parseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		// Fall back to sqlite's own datetime('now') rendering, which has
		// no zone suffix and is already in UTC.
		t, err = time.ParseInLocation("2006-01-02 15:04:05", s, time.UTC)
	}
	return t, err
}

func dateOf(t time.Time) string {
	return t.Local().Format("2006-01-02")
}
