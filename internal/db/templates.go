package db

import (
	"database/sql"
	"fmt"
)

// CreateTemplate inserts a reusable task skeleton with a unique name.
func (s *Store) CreateTemplate(t Template) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO templates (name, task_name, comment, default_completeness) VALUES (?, ?, ?, ?)`,
		t.Name, t.TaskName, t.Comment, t.DefaultCompleteness,
	)
	if err != nil {
		return 0, fmt.Errorf("create template %q: %w", t.Name, err)
	}
	return res.LastInsertId()
}

// GetTemplateByName returns the template named name, or nil if none exists.
func (s *Store) GetTemplateByName(name string) (*Template, error) {
	t := &Template{}
	var comment sql.NullString
	err := s.db.QueryRow(
		`SELECT id, name, task_name, comment, default_completeness FROM templates WHERE name = ?`, name,
	).Scan(&t.ID, &t.Name, &t.TaskName, &comment, &t.DefaultCompleteness)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get template %q: %w", name, err)
	}
	if comment.Valid {
		t.Comment = &comment.String
	}
	return t, nil
}

// ListTemplates returns every template, ordered by name.
func (s *Store) ListTemplates() ([]Template, error) {
	rows, err := s.db.Query(`SELECT id, name, task_name, comment, default_completeness FROM templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	defer rows.Close()

	var out []Template
	for rows.Next() {
		var t Template
		var comment sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &t.TaskName, &comment, &t.DefaultCompleteness); err != nil {
			return nil, err
		}
		if comment.Valid {
			t.Comment = &comment.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTemplate removes a template by name.
func (s *Store) DeleteTemplate(name string) error {
	_, err := s.db.Exec(`DELETE FROM templates WHERE name = ?`, name)
	return err
}

// TaskFromTemplate instantiates a task from template at ts, applying the
// template's default completeness.
func (s *Store) TaskFromTemplate(template Template, ts Task) (int64, error) {
	ts.Name = template.TaskName
	ts.Completeness = template.DefaultCompleteness
	return s.CreateTask(ts)
}
