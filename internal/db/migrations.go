package db

import (
	"database/sql"
	"fmt"
)

// migration is one ordered, idempotent schema change. The core does not
// define down-steps.
type migration struct {
	version int
	name    string
	up      string
}

// migrations is the ordered migration list, the source of truth for schema
// evolution: current schema version is never detected by introspection.
// Versions must be contiguous from 1.
var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		up: `
			CREATE TABLE IF NOT EXISTS workdays (
				id    INTEGER PRIMARY KEY AUTOINCREMENT,
				date  TEXT NOT NULL UNIQUE,
				start TEXT NOT NULL,
				end   TEXT
			);

			CREATE TABLE IF NOT EXISTS pauses (
				id       INTEGER PRIMARY KEY AUTOINCREMENT,
				date     TEXT NOT NULL,
				start    TEXT NOT NULL,
				end      TEXT,
				duration INTEGER
			);
			CREATE INDEX IF NOT EXISTS idx_pauses_date ON pauses(date);

			CREATE TABLE IF NOT EXISTS tags (
				id    INTEGER PRIMARY KEY AUTOINCREMENT,
				name  TEXT NOT NULL UNIQUE,
				color TEXT
			);

			CREATE TABLE IF NOT EXISTS templates (
				id                   INTEGER PRIMARY KEY AUTOINCREMENT,
				name                 TEXT NOT NULL UNIQUE,
				task_name            TEXT NOT NULL,
				comment              TEXT,
				default_completeness INTEGER NOT NULL DEFAULT 0
			);
		`,
	},
	{
		version: 2,
		name:    "tasks_and_task_tags",
		up: `
			CREATE TABLE IF NOT EXISTS tasks (
				id                    INTEGER PRIMARY KEY AUTOINCREMENT,
				timestamp             TEXT NOT NULL,
				name                  TEXT NOT NULL,
				comment               TEXT,
				completeness          INTEGER NOT NULL DEFAULT 0,
				task_id               TEXT,
				excluded_from_search  INTEGER NOT NULL DEFAULT 0
			);
			CREATE INDEX IF NOT EXISTS idx_tasks_timestamp ON tasks(timestamp);

			CREATE TABLE IF NOT EXISTS task_tags (
				task_id INTEGER NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
				tag_id  INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
				PRIMARY KEY (task_id, tag_id)
			);
		`,
	},
	{
		version: 3,
		name:    "pauses_manual_flag",
		up: `
			ALTER TABLE pauses ADD COLUMN manual INTEGER NOT NULL DEFAULT 0;
		`,
	},
}

// applyMigrations ensures the migrations table exists, then applies every
// pending migration inside its own transaction, in order.
// A failure rolls that migration back and returns an error identifying
// the version; New wraps it in ErrMigrationFailure.
func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS migrations (
			version    INTEGER PRIMARY KEY,
			name       TEXT NOT NULL,
			applied_at TEXT NOT NULL
		);
	`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	var maxVersion int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM migrations`).Scan(&maxVersion); err != nil {
		return fmt.Errorf("read max migration version: %w", err)
	}

	for _, m := range migrations {
		if m.version <= maxVersion {
			continue
		}
		if err := applyOne(db, m); err != nil {
			return err
		}
	}
	return nil
}

func applyOne(db *sql.DB, m migration) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("migration %d begin: %w", m.version, err)
	}

	if _, err := tx.Exec(m.up); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d (%s) failed: %w", m.version, m.name, err)
	}

	if _, err := tx.Exec(
		`INSERT INTO migrations (version, name, applied_at) VALUES (?, ?, datetime('now'))`,
		m.version, m.name,
	); err != nil {
		tx.Rollback()
		return fmt.Errorf("migration %d (%s) record failed: %w", m.version, m.name, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("migration %d (%s) commit failed: %w", m.version, m.name, err)
	}
	return nil
}

// AppliedMigrations returns every applied migration, ordered by version,
// for diagnostics, and to let callers verify the replay is idempotent.
func (s *Store) AppliedMigrations() ([]Migration, error) {
	rows, err := s.db.Query(`SELECT version, name, applied_at FROM migrations ORDER BY version`)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	defer rows.Close()

	var out []Migration
	for rows.Next() {
		var m Migration
		var appliedAt string
		if err := rows.Scan(&m.Version, &m.Name, &appliedAt); err != nil {
			return nil, err
		}
		m.AppliedAt, _ = parseTimestamp(appliedAt)
		out = append(out, m)
	}
	return out, rows.Err()
}
