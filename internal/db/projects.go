package db

import (
	"github.com/tgienger/ganttchart/internal/models"
)

const projectColumns = `
	p.id, p.name, p.detail, p.created_at, p.updated_at,
	(SELECT COUNT(*) FROM tasks t WHERE t.project_id = p.id)
`

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(row scanner) (*models.Project, error) {
	p := &models.Project{}
	if err := row.Scan(&p.ID, &p.Name, &p.Detail, &p.CreatedAt, &p.UpdatedAt, &p.TaskCount); err != nil {
		return nil, err
	}
	return p, nil
}

// CreateProject creates a new, empty project
func (db *DB) CreateProject(name string) (*models.Project, error) {
	if name == "" {
		name = models.DefaultProjectName
	}
	result, err := db.Exec(`
		INSERT INTO projects (name) VALUES (?)
	`, name)
	if err != nil {
		return nil, err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, err
	}

	return db.GetProject(id)
}

// GetProject retrieves a project by ID
func (db *DB) GetProject(id int64) (*models.Project, error) {
	return scanProject(db.QueryRow(`SELECT `+projectColumns+` FROM projects p WHERE p.id = ?`, id))
}

// ListProjects returns all projects, most recently updated first
func (db *DB) ListProjects() ([]models.Project, error) {
	rows, err := db.Query(`SELECT ` + projectColumns + ` FROM projects p ORDER BY p.updated_at DESC, p.id DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var projects []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, rows.Err()
}

// RenameProject updates a project's name
func (db *DB) RenameProject(id int64, name string) error {
	_, err := db.Exec(`
		UPDATE projects SET name = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, name, id)
	return err
}

// DeleteProject deletes a project and everything scheduled in it
func (db *DB) DeleteProject(id int64) error {
	_, err := db.Exec("DELETE FROM projects WHERE id = ?", id)
	return err
}

// ProjectCount returns the number of projects
func (db *DB) ProjectCount() (int, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM projects").Scan(&count)
	return count, err
}
