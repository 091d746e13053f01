package db

import (
	"database/sql"
	"fmt"
	"time"
)

// InsertPauseStart records the start of a sampler-detected pause (stored
// with manual = 0; manual pauses go through InsertCompletedPause). At
// most one pause per date may have a NULL end at any instant (invariant
// I4); callers are responsible for checking that before calling this.
func InsertPauseStart(tx *sql.Tx, start time.Time) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO pauses (date, start, end, duration, manual) VALUES (?, ?, NULL, NULL, 0)`,
		dateOf(start), formatTimestamp(start),
	)
	if err != nil {
		return 0, fmt.Errorf("insert pause start: %w", err)
	}
	return res.LastInsertId()
}

// CompletePause sets end and duration on the pause row identified by id.
func CompletePause(tx *sql.Tx, id int64, end time.Time, duration int64) error {
	_, err := tx.Exec(
		`UPDATE pauses SET end = ?, duration = ? WHERE id = ?`,
		formatTimestamp(end), duration, id,
	)
	if err != nil {
		return fmt.Errorf("complete pause %d: %w", id, err)
	}
	return nil
}

// InsertCompletedPause records a fully-formed pause in one statement.
// manual distinguishes an "adjust" insertion from a sampler-detected
// completed pause seeded directly (as tests do); longestIntervalMidpoint
// relies on this flag to keep its placement deterministic across repeat
// calls.
func InsertCompletedPause(tx *sql.Tx, start, end time.Time, duration int64, manual bool) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO pauses (date, start, end, duration, manual) VALUES (?, ?, ?, ?, ?)`,
		dateOf(start), formatTimestamp(start), formatTimestamp(end), duration, manual,
	)
	if err != nil {
		return 0, fmt.Errorf("insert completed pause: %w", err)
	}
	return res.LastInsertId()
}

// GetOpenPause returns the pause on date with a NULL end, if any.
func GetOpenPause(q querier, date string) (*Pause, error) {
	p := &Pause{}
	var start string
	err := q.QueryRow(
		`SELECT id, date, start FROM pauses WHERE date = ? AND end IS NULL`, date,
	).Scan(&p.ID, &p.Date, &start)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get open pause for %s: %w", date, err)
	}
	if p.Start, err = parseTimestamp(start); err != nil {
		return nil, err
	}
	return p, nil
}

// (s *Store) GetOpenPause is the store-level convenience wrapper.
func (s *Store) GetOpenPause(date string) (*Pause, error) {
	return GetOpenPause(s.db, date)
}

// ListPausesByDate returns every pause on date, ordered by start.
func (s *Store) ListPausesByDate(date string) ([]Pause, error) {
	return listPauses(s.db, `WHERE date = ?`, date)
}

// ListCompletedPausesByDate returns only the completed pauses on date, in
// start order — used by the report aggregator, which treats
// any open pause as not-yet-completed).
func (s *Store) ListCompletedPausesByDate(date string) ([]Pause, error) {
	return listPauses(s.db, `WHERE date = ? AND end IS NOT NULL`, date)
}

// ListPausesByDateTx is ListPausesByDate against an in-flight
// transaction, for callers (adjustments) that must read-then-write
// consistently within one transaction.
func ListPausesByDateTx(tx *sql.Tx, date string) ([]Pause, error) {
	return listPauses(tx, `WHERE date = ?`, date)
}

func listPauses(q querier, where string, args ...any) ([]Pause, error) {
	rows, err := q.Query(
		`SELECT id, date, start, end, duration, manual FROM pauses `+where+` ORDER BY start`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list pauses: %w", err)
	}
	defer rows.Close()

	var out []Pause
	for rows.Next() {
		var p Pause
		var start string
		var end sql.NullString
		var duration sql.NullInt64
		if err := rows.Scan(&p.ID, &p.Date, &start, &end, &duration, &p.Manual); err != nil {
			return nil, err
		}
		if p.Start, err = parseTimestamp(start); err != nil {
			return nil, err
		}
		if end.Valid {
			t, err := parseTimestamp(end.String)
			if err != nil {
				return nil, err
			}
			p.End = &t
		}
		if duration.Valid {
			p.Duration = &duration.Int64
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// DeletePause removes a pause row. The core never deletes pauses: a
// rejected manual insert is undone by rolling back its transaction, not
// through this function.
func DeletePause(tx *sql.Tx, id int64) error {
	_, err := tx.Exec(`DELETE FROM pauses WHERE id = ?`, id)
	return err
}
