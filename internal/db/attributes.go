package db

import (
	"database/sql"
)

func insertAttributes(tx *sql.Tx, subtaskID int64, attrs []string) error {
	for _, a := range attrs {
		if _, err := tx.Exec("INSERT INTO subtask_attributes (subtask_id, name) VALUES (?, ?)", subtaskID, a); err != nil {
			return err
		}
	}
	return nil
}

func (db *DB) listAttributes(subtaskID int64) ([]string, error) {
	rows, err := db.Query("SELECT name FROM subtask_attributes WHERE subtask_id = ? ORDER BY id", subtaskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		attrs = append(attrs, name)
	}
	return attrs, rows.Err()
}

// ProjectAttributes lists the distinct subtask attributes used in a
// project, sorted by name
func (db *DB) ProjectAttributes(projectID int64) ([]string, error) {
	rows, err := db.Query(`
		SELECT DISTINCT a.name
		FROM subtask_attributes a
		JOIN subtasks s ON s.id = a.subtask_id
		JOIN tasks t ON t.id = s.task_id
		WHERE t.project_id = ?
		ORDER BY a.name
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attrs []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		attrs = append(attrs, name)
	}
	return attrs, rows.Err()
}
