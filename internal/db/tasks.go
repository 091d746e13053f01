package db

import (
	"database/sql"
	"fmt"

	"github.com/kasl-dev/kasl/internal/kerrors"
)

// CreateTask inserts a task, auxiliary to the core workday/pause model.
func (s *Store) CreateTask(t Task) (int64, error) {
	if t.Completeness < 0 || t.Completeness > 100 {
		return 0, fmt.Errorf("%w: completeness must be in [0,100]", kerrors.ErrInvariantViolation)
	}
	res, err := s.db.Exec(
		`INSERT INTO tasks (timestamp, name, comment, completeness, task_id, excluded_from_search)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		formatTimestamp(t.Timestamp), t.Name, t.Comment, t.Completeness, t.TaskID, t.ExcludedFromSearch,
	)
	if err != nil {
		return 0, fmt.Errorf("create task: %w", err)
	}
	return res.LastInsertId()
}

// ListTasksByDate returns every task timestamped to date, including ones
// flagged excluded_from_search (the flag is returned on each Task), read
// by the report aggregator when assembling a daily report.
func (s *Store) ListTasksByDate(date string) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT id, timestamp, name, comment, completeness, task_id, excluded_from_search
		 FROM tasks WHERE date(timestamp) = ? ORDER BY timestamp`, date,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks for %s: %w", date, err)
	}
	defer rows.Close()

	var out []Task
	for rows.Next() {
		var t Task
		var ts string
		var comment, taskID sql.NullString
		if err := rows.Scan(&t.ID, &ts, &t.Name, &comment, &t.Completeness, &taskID, &t.ExcludedFromSearch); err != nil {
			return nil, err
		}
		var err2 error
		if t.Timestamp, err2 = parseTimestamp(ts); err2 != nil {
			return nil, err2
		}
		if comment.Valid {
			t.Comment = &comment.String
		}
		if taskID.Valid {
			t.TaskID = &taskID.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// UpdateTaskCompleteness sets a task's completeness, which must be in [0,100].
func (s *Store) UpdateTaskCompleteness(id int64, completeness int) error {
	if completeness < 0 || completeness > 100 {
		return fmt.Errorf("completeness must be in [0,100], got %d", completeness)
	}
	_, err := s.db.Exec(`UPDATE tasks SET completeness = ? WHERE id = ?`, completeness, id)
	return err
}

// DeleteTask removes a task and cascades to its task_tags links.
func (s *Store) DeleteTask(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tasks WHERE id = ?`, id)
	return err
}
