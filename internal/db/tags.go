package db

import (
	"database/sql"
	"fmt"
)

// CreateTag inserts a tag with a unique name.
func (s *Store) CreateTag(name string, color *string) (int64, error) {
	res, err := s.db.Exec(`INSERT INTO tags (name, color) VALUES (?, ?)`, name, color)
	if err != nil {
		return 0, fmt.Errorf("create tag %q: %w", name, err)
	}
	return res.LastInsertId()
}

// ListTags returns every tag, ordered by name.
func (s *Store) ListTags() ([]Tag, error) {
	rows, err := s.db.Query(`SELECT id, name, color FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list tags: %w", err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		var color sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &color); err != nil {
			return nil, err
		}
		if color.Valid {
			t.Color = &color.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// DeleteTag removes a tag; ON DELETE CASCADE drops its task_tags links.
func (s *Store) DeleteTag(id int64) error {
	_, err := s.db.Exec(`DELETE FROM tags WHERE id = ?`, id)
	return err
}

// TagTask links taskID and tagID; the composite primary key on task_tags
// makes this idempotent.
func (s *Store) TagTask(taskID, tagID int64) error {
	_, err := s.db.Exec(
		`INSERT OR IGNORE INTO task_tags (task_id, tag_id) VALUES (?, ?)`, taskID, tagID,
	)
	return err
}

// UntagTask removes one task/tag link.
func (s *Store) UntagTask(taskID, tagID int64) error {
	_, err := s.db.Exec(`DELETE FROM task_tags WHERE task_id = ? AND tag_id = ?`, taskID, tagID)
	return err
}

// ListTagsForTask returns every tag linked to taskID.
func (s *Store) ListTagsForTask(taskID int64) ([]Tag, error) {
	rows, err := s.db.Query(
		`SELECT t.id, t.name, t.color FROM tags t
		 JOIN task_tags tt ON tt.tag_id = t.id
		 WHERE tt.task_id = ? ORDER BY t.name`, taskID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tags for task %d: %w", taskID, err)
	}
	defer rows.Close()

	var out []Tag
	for rows.Next() {
		var t Tag
		var color sql.NullString
		if err := rows.Scan(&t.ID, &t.Name, &color); err != nil {
			return nil, err
		}
		if color.Valid {
			t.Color = &color.String
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
