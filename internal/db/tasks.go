package db

import (
	"database/sql"
	"fmt"

	"github.com/tgienger/ganttchart/internal/models"
)

// SaveProject replaces the stored contents of project id with pool. The
// project takes the pool's name, bounds, date style and detail flag.
func (db *DB) SaveProject(id int64, pool *models.Pool) error {
	d := pool.Snapshot()

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(`
		UPDATE projects
		SET name = ?, detail = ?, date_style = ?, start_ms = ?, end_ms = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, d.Name, d.Detail, int(d.DateStyle), d.Start.UnixMilli(), d.End.UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("update project %d: %w", id, err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("save project %d: %w", id, sql.ErrNoRows)
	}

	// Children cascade from tasks
	if _, err := tx.Exec("DELETE FROM tasks WHERE project_id = ?", id); err != nil {
		return fmt.Errorf("clear project %d: %w", id, err)
	}

	for pos, td := range d.Tasks {
		if err := insertTask(tx, id, pos, td); err != nil {
			return fmt.Errorf("save task %q: %w", td.Name, err)
		}
	}

	return tx.Commit()
}

func insertTask(tx *sql.Tx, projectID int64, pos int, td models.TaskData) error {
	result, err := tx.Exec(`
		INSERT INTO tasks (project_id, position, name, color, folded) VALUES (?, ?, ?, ?, ?)
	`, projectID, pos, td.Name, td.Color.RGB(), td.Folded)
	if err != nil {
		return err
	}
	taskID, err := result.LastInsertId()
	if err != nil {
		return err
	}

	if err := insertInstances(tx, "task_instances", "task_id", taskID, td.Instances); err != nil {
		return err
	}

	for subPos, sd := range td.SubTasks {
		result, err := tx.Exec(`
			INSERT INTO subtasks (task_id, position, name, color) VALUES (?, ?, ?, ?)
		`, taskID, subPos, sd.Name, sd.Color.RGB())
		if err != nil {
			return err
		}
		subID, err := result.LastInsertId()
		if err != nil {
			return err
		}
		if err := insertInstances(tx, "subtask_instances", "subtask_id", subID, sd.Instances); err != nil {
			return err
		}
		if err := insertAttributes(tx, subID, sd.Attributes); err != nil {
			return err
		}
	}
	return nil
}

// ImportProject stores pool as a new project
func (db *DB) ImportProject(pool *models.Pool) (*models.Project, error) {
	p, err := db.CreateProject(pool.ProjectName())
	if err != nil {
		return nil, err
	}
	if err := db.SaveProject(p.ID, pool); err != nil {
		return nil, err
	}
	return db.GetProject(p.ID)
}

// LoadProject builds a pool from project id. Stored instances go through
// the normal merge path, exactly as a file load does.
func (db *DB) LoadProject(id int64) (*models.Pool, *models.LoadReport, error) {
	var (
		d              models.PoolData
		style          int
		startMs, endMs sql.NullInt64
	)
	err := db.QueryRow(`
		SELECT name, detail, date_style, start_ms, end_ms FROM projects WHERE id = ?
	`, id).Scan(&d.Name, &d.Detail, &style, &startMs, &endMs)
	if err != nil {
		return nil, nil, fmt.Errorf("load project %d: %w", id, err)
	}
	d.DateStyle = models.DateStyle(style)
	if startMs.Valid {
		d.Start = models.FromMillis(startMs.Int64)
	}
	if endMs.Valid {
		d.End = models.FromMillis(endMs.Int64)
	}

	d.Tasks, err = db.listTasks(id)
	if err != nil {
		return nil, nil, fmt.Errorf("load project %d: %w", id, err)
	}

	pool, report := models.Build(d)
	return pool, report, nil
}

func (db *DB) listTasks(projectID int64) ([]models.TaskData, error) {
	rows, err := db.Query(`
		SELECT id, name, color, folded
		FROM tasks
		WHERE project_id = ?
		ORDER BY position
	`, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		ids   []int64
		tasks []models.TaskData
	)
	for rows.Next() {
		var (
			id    int64
			color int32
			td    models.TaskData
		)
		if err := rows.Scan(&id, &td.Name, &color, &td.Folded); err != nil {
			return nil, err
		}
		td.Color = models.ColorFromRGB(color)
		ids = append(ids, id)
		tasks = append(tasks, td)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// Load children for each task
	for i := range tasks {
		if tasks[i].Instances, err = db.listInstances("task_instances", "task_id", ids[i]); err != nil {
			return nil, err
		}
		if tasks[i].SubTasks, err = db.listSubTasks(ids[i]); err != nil {
			return nil, err
		}
	}
	return tasks, nil
}

func (db *DB) listSubTasks(taskID int64) ([]models.SubTaskData, error) {
	rows, err := db.Query(`
		SELECT id, name, color
		FROM subtasks
		WHERE task_id = ?
		ORDER BY position
	`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		ids  []int64
		subs []models.SubTaskData
	)
	for rows.Next() {
		var (
			id    int64
			color int32
			sd    models.SubTaskData
		)
		if err := rows.Scan(&id, &sd.Name, &color); err != nil {
			return nil, err
		}
		sd.Color = models.ColorFromRGB(color)
		ids = append(ids, id)
		subs = append(subs, sd)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range subs {
		if subs[i].Instances, err = db.listInstances("subtask_instances", "subtask_id", ids[i]); err != nil {
			return nil, err
		}
		if subs[i].Attributes, err = db.listAttributes(ids[i]); err != nil {
			return nil, err
		}
	}
	return subs, nil
}
