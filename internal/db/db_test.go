package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/ganttchart/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "nested", "gantt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func day(d int) time.Time {
	return models.Date(2024, time.May, d)
}

func samplePool() *models.Pool {
	p := models.NewPool("Roadmap")
	p.SetDetail(true)
	p.SetDateStyle(models.ByHour)
	p.SetStartDate(day(1))
	p.SetEndDate(day(31))

	blue := p.Palette().LookupName("Blue")
	p.Palette().Claim(blue)
	a := p.AddTask("alpha")
	a.SetColor(blue.Color)
	a.SetFolded(false)
	a.AddInstance(day(3), day(7))
	a.AddInstance(day(12), day(15))
	st := a.AddSubTask("draft", blue.SubColors[2].Color)
	st.AddInstance(day(3), day(4))
	st.AddAttributes("docs,review")
	a.AddSubTask("empty", blue.SubColors[0].Color)

	p.AddTask("beta").AddInstance(day(20), day(20))
	return p
}

func TestNew_CreatesSchema(t *testing.T) {
	db := newTestDB(t)

	count, err := db.ProjectCount()
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSettings(t *testing.T) {
	db := newTestDB(t)

	v, err := db.GetSetting("missing")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, db.SetSetting("k", "1"))
	require.NoError(t, db.SetSetting("k", "2"))
	v, err = db.GetSetting("k")
	require.NoError(t, err)
	assert.Equal(t, "2", v)

	id, err := db.LastProjectID()
	require.NoError(t, err)
	assert.Zero(t, id)
	require.NoError(t, db.SetLastProjectID(42))
	id, err = db.LastProjectID()
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)
}

func TestProjects_CRUD(t *testing.T) {
	db := newTestDB(t)

	p, err := db.CreateProject("")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultProjectName, p.Name)
	assert.Zero(t, p.TaskCount)
	assert.False(t, p.CreatedAt.IsZero())

	q, err := db.CreateProject("second")
	require.NoError(t, err)

	require.NoError(t, db.RenameProject(p.ID, "first"))
	got, err := db.GetProject(p.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Name)

	list, err := db.ListProjects()
	require.NoError(t, err)
	require.Len(t, list, 2)

	require.NoError(t, db.DeleteProject(q.ID))
	_, err = db.GetProject(q.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestSaveLoadProject_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	orig := samplePool()

	proj, err := db.ImportProject(orig)
	require.NoError(t, err)
	assert.Equal(t, "Roadmap", proj.Name)
	assert.True(t, proj.Detail)
	assert.Equal(t, 2, proj.TaskCount)

	loaded, report, err := db.LoadProject(proj.ID)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Equal(t, orig.Snapshot(), loaded.Snapshot())
	assert.True(t, loaded.Palette().LookupName("Blue").InUse)

	attrs, err := db.ProjectAttributes(proj.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"docs", "review"}, attrs)
}

func TestSaveProject_ReplacesChildren(t *testing.T) {
	db := newTestDB(t)
	pool := samplePool()
	proj, err := db.ImportProject(pool)
	require.NoError(t, err)

	pool.DeleteTask(pool.Task(0))
	pool.SetProjectName("Trimmed")
	require.NoError(t, db.SaveProject(proj.ID, pool))

	got, err := db.GetProject(proj.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trimmed", got.Name)
	assert.Equal(t, 1, got.TaskCount)

	var orphans int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM subtask_attributes").Scan(&orphans))
	assert.Zero(t, orphans, "children cascade with their task")
}

func TestSaveProject_Missing(t *testing.T) {
	db := newTestDB(t)
	err := db.SaveProject(99, models.NewPool("x"))
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestDeleteProject_Cascades(t *testing.T) {
	db := newTestDB(t)
	proj, err := db.ImportProject(samplePool())
	require.NoError(t, err)

	require.NoError(t, db.DeleteProject(proj.ID))

	for _, table := range []string{"tasks", "task_instances", "subtasks", "subtask_instances", "subtask_attributes"} {
		var n int
		require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestLoadProject_ReportsOverlaps(t *testing.T) {
	db := newTestDB(t)
	proj, err := db.CreateProject("overlap")
	require.NoError(t, err)

	res, err := db.Exec("INSERT INTO tasks (project_id, position, name, color) VALUES (?, 0, 'a', ?)", proj.ID, models.Black.RGB())
	require.NoError(t, err)
	taskID, err := res.LastInsertId()
	require.NoError(t, err)
	for _, r := range [][2]int{{1, 10}, {5, 12}} {
		_, err := db.Exec("INSERT INTO task_instances (task_id, start_ms, end_ms) VALUES (?, ?, ?)",
			taskID, day(r[0]).UnixMilli(), day(r[1]).UnixMilli())
		require.NoError(t, err)
	}

	pool, report, err := db.LoadProject(proj.ID)
	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "a", report.Failed[0].Task)
	require.Equal(t, 1, pool.Task(0).NumberOfInstances())
	assert.Equal(t, models.NewDateRange(day(1), day(12)), pool.Task(0).Instance(0).Range())
	assert.True(t, pool.StartDate().Equal(models.NewPool("").StartDate()), "unset bounds keep the defaults")
}

func TestLoadProject_Missing(t *testing.T) {
	db := newTestDB(t)
	_, _, err := db.LoadProject(7)
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
