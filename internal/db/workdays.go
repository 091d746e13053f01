package db

import (
	"database/sql"
	"fmt"
	"time"
)

// UpsertWorkdayStart inserts a workday for date starting at start, or is a
// no-op if one already exists for that date — start is set exactly once
// Must run inside tx so it composes with a pause-start insert under one
// transaction boundary.
func UpsertWorkdayStart(tx *sql.Tx, date string, start time.Time) error {
	_, err := tx.Exec(
		`INSERT INTO workdays (date, start) VALUES (?, ?) ON CONFLICT(date) DO NOTHING`,
		date, formatTimestamp(start),
	)
	if err != nil {
		return fmt.Errorf("upsert workday start: %w", err)
	}
	return nil
}

// SetWorkdayEnd advances a workday's end to end if and only if end is
// later than the currently stored value (or the value is unset),
// preserving the monotonic guarantee that end never moves backward.
func SetWorkdayEnd(tx *sql.Tx, date string, end time.Time) error {
	_, err := tx.Exec(
		`UPDATE workdays SET end = ? WHERE date = ? AND (end IS NULL OR end < ?)`,
		formatTimestamp(end), date, formatTimestamp(end),
	)
	if err != nil {
		return fmt.Errorf("set workday end: %w", err)
	}
	return nil
}

// GetWorkdayByDate returns the workday for date, or nil if none exists.
func (s *Store) GetWorkdayByDate(date string) (*Workday, error) {
	return getWorkdayByDate(s.db, date)
}

// GetWorkdayByDateTx is GetWorkdayByDate against an in-flight
// transaction, for callers (adjustments) that must read-then-write
// consistently within one transaction.
func GetWorkdayByDateTx(tx *sql.Tx, date string) (*Workday, error) {
	return getWorkdayByDate(tx, date)
}

func getWorkdayByDate(q querier, date string) (*Workday, error) {
	w := &Workday{}
	var start string
	var end sql.NullString
	err := q.QueryRow(`SELECT id, date, start, end FROM workdays WHERE date = ?`, date).
		Scan(&w.ID, &w.Date, &start, &end)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get workday %s: %w", date, err)
	}
	if w.Start, err = parseTimestamp(start); err != nil {
		return nil, fmt.Errorf("parse workday start: %w", err)
	}
	if end.Valid {
		t, err := parseTimestamp(end.String)
		if err != nil {
			return nil, fmt.Errorf("parse workday end: %w", err)
		}
		w.End = &t
	}
	return w, nil
}

// ListWorkdaysInMonth returns every workday whose date falls in the month
// containing ref.
func (s *Store) ListWorkdaysInMonth(ref time.Time) ([]Workday, error) {
	rows, err := s.db.Query(
		`SELECT id, date, start, end FROM workdays WHERE strftime('%Y-%m', date) = strftime('%Y-%m', ?) ORDER BY date`,
		dateOf(ref),
	)
	if err != nil {
		return nil, fmt.Errorf("list workdays: %w", err)
	}
	defer rows.Close()

	var out []Workday
	for rows.Next() {
		var w Workday
		var start string
		var end sql.NullString
		if err := rows.Scan(&w.ID, &w.Date, &start, &end); err != nil {
			return nil, err
		}
		if w.Start, err = parseTimestamp(start); err != nil {
			return nil, err
		}
		if end.Valid {
			t, err := parseTimestamp(end.String)
			if err != nil {
				return nil, err
			}
			w.End = &t
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// SetWorkdayStartRaw force-sets a workday's start timestamp (used by
// manual adjustments, which re-check invariants themselves before commit).
func SetWorkdayStartRaw(tx *sql.Tx, date string, start time.Time) error {
	_, err := tx.Exec(`UPDATE workdays SET start = ? WHERE date = ?`, formatTimestamp(start), date)
	if err != nil {
		return fmt.Errorf("set workday start: %w", err)
	}
	return nil
}

// SetWorkdayEndRaw force-sets a workday's end timestamp, bypassing the
// monotonic guard (used by the trim-end adjustment, which has already
// validated the new value; daemon finalize uses SetWorkdayEnd).
func SetWorkdayEndRaw(tx *sql.Tx, date string, end time.Time) error {
	_, err := tx.Exec(`UPDATE workdays SET end = ? WHERE date = ?`, formatTimestamp(end), date)
	if err != nil {
		return fmt.Errorf("set workday end raw: %w", err)
	}
	return nil
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryRow(query string, args ...any) *sql.Row
	Query(query string, args ...any) (*sql.Rows, error)
}
