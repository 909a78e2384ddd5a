package views

import (
	"path/filepath"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/ganttchart/internal/config"
	"github.com/tgienger/ganttchart/internal/db"
	"github.com/tgienger/ganttchart/internal/logging"
	"github.com/tgienger/ganttchart/internal/models"
)

func newTestDB(t *testing.T) *db.DB {
	t.Helper()
	database, err := db.New(filepath.Join(t.TempDir(), "gantt.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

func newTestChart(t *testing.T) (*ChartView, *db.DB, int64) {
	t.Helper()
	database := newTestDB(t)
	project, err := database.CreateProject("plan")
	require.NoError(t, err)

	cfg := &config.Config{DateFormat: config.DefaultDateFormat, ChartDays: 14}
	v := NewChartView(database, cfg, logging.Discard(), *project)
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	v.Update(v.Init()())
	require.NotNil(t, v.Pool())
	return v, database, project.ID
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// press sends each key in turn and returns the last command
func press(m tea.Model, keys ...string) tea.Cmd {
	var cmd tea.Cmd
	for _, k := range keys {
		_, cmd = m.Update(keyMsg(k))
	}
	return cmd
}

func addTask(v *ChartView, name string) {
	press(v, "n", name, "enter", "enter")
}

func TestChartView_AddTaskAndSchedule(t *testing.T) {
	v, database, id := newTestChart(t)
	assert.Contains(t, v.View(), "No tasks")

	addTask(v, "design")
	pool := v.Pool()
	require.Equal(t, 1, pool.NumberOfTasks())
	task := pool.Task(0)
	assert.Equal(t, "design", task.Name())
	assert.True(t, task.HasColor())
	assert.True(t, v.Dirty())
	assert.False(t, v.editing)

	press(v, "i", "enter", "enter", "enter")
	require.Equal(t, 1, task.NumberOfInstances())
	assert.NotNil(t, task.InstanceOn(v.day))

	press(v, "ctrl+s")
	assert.False(t, v.Dirty())

	stored, report, err := database.LoadProject(id)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Equal(t, pool.Snapshot(), stored.Snapshot())
}

func TestChartView_RejectsDuplicateTask(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	addTask(v, "design")

	assert.Equal(t, 1, v.Pool().NumberOfTasks())
	assert.True(t, v.editing)
	assert.Contains(t, v.View(), "already exists")

	press(v, "esc")
	assert.False(t, v.editing)
}

func TestChartView_BadDateKeepsForm(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")

	press(v, "i")
	v.inputs[0].SetValue("2024-01-05")
	press(v, "ctrl+s")

	assert.True(t, v.editing)
	assert.Equal(t, 0, v.Pool().Task(0).NumberOfInstances())
}

func TestChartView_DetailAndSubTasks(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	press(v, "i", "enter", "enter", "enter")
	task := v.Pool().Task(0)

	press(v, "s")
	assert.False(t, v.editing)
	assert.Contains(t, v.status, "detail mode")

	press(v, "D")
	require.True(t, v.Pool().Detail())
	require.Equal(t, 1, task.NumberOfSubTasks())
	assert.Len(t, v.rows(), 1)

	press(v, "space")
	assert.Len(t, v.rows(), 2)

	press(v, "s", "sketch", "enter", "enter", "enter", "ui, review", "enter", "enter")
	require.Equal(t, 2, task.NumberOfSubTasks())
	st := task.SubTask(1)
	assert.Equal(t, "sketch", st.Name())
	assert.Equal(t, []string{"ui", "review"}, st.Attributes())
	palette := v.Pool().Palette()
	assert.NotNil(t, palette.LookupSub(palette.Lookup(task.Color()), st.Color()))
	assert.Equal(t, 2, v.cursor)

	press(v, "D")
	require.True(t, v.confirming)
	press(v, "n")
	assert.True(t, v.Pool().Detail())

	press(v, "D", "y")
	assert.False(t, v.Pool().Detail())
	assert.Equal(t, 0, task.NumberOfSubTasks())
	assert.Len(t, v.rows(), 1)
	top := palette.Lookup(task.Color())
	assert.Len(t, palette.Available(top), len(top.SubColors), "shades released")
}

func TestChartView_KeepsLastSubTask(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	press(v, "D", "space", "down", "d")

	assert.False(t, v.confirming)
	assert.Equal(t, 1, v.Pool().Task(0).NumberOfSubTasks())
}

func TestChartView_DeleteInstanceThenTask(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	press(v, "i", "enter", "enter", "enter")
	pool := v.Pool()

	press(v, "d")
	require.True(t, v.confirming)
	assert.Equal(t, "Delete Instance?", v.confirmTitle)
	press(v, "y")
	assert.Equal(t, 0, pool.Task(0).NumberOfInstances())

	press(v, "d")
	assert.Equal(t, "Delete Task?", v.confirmTitle)
	press(v, "y")
	assert.Equal(t, 0, pool.NumberOfTasks())
	assert.Len(t, pool.Palette().Available(nil), len(pool.Palette().Entries()))
}

func TestChartView_MoveTask(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "a")
	addTask(v, "b")
	require.Equal(t, 1, v.cursor)

	press(v, "K")
	assert.Equal(t, "b", v.Pool().Task(0).Name())
	assert.Equal(t, 0, v.cursor)

	press(v, "J")
	assert.Equal(t, "a", v.Pool().Task(0).Name())
	assert.Equal(t, 1, v.cursor)
}

func TestChartView_DayCursor(t *testing.T) {
	v, _, _ := newTestChart(t)
	start := v.day

	press(v, "l", "l")
	assert.Equal(t, start.AddDate(0, 0, 2), v.day)
	press(v, "h")
	assert.Equal(t, start.AddDate(0, 0, 1), v.day)
	press(v, "t")
	assert.Equal(t, models.Truncate(v.now()), v.day)

	for range 30 {
		press(v, "l")
	}
	assert.Equal(t, v.day, v.first.AddDate(0, 0, v.visibleDays()-1))
}

func TestChartView_BackSavesChanges(t *testing.T) {
	v, database, id := newTestChart(t)
	addTask(v, "design")

	cmd := press(v, "esc")
	require.NotNil(t, cmd)
	assert.Equal(t, BackToProjects{}, cmd())

	stored, _, err := database.LoadProject(id)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.NumberOfTasks())
}

func TestChartView_OpensAtFirstInstance(t *testing.T) {
	database := newTestDB(t)
	project, err := database.CreateProject("plan")
	require.NoError(t, err)

	pool := models.NewPool("plan")
	task := pool.AddTask("design")
	task.AddInstance(models.Date(2024, 5, 10), models.Date(2024, 5, 12))
	later := pool.AddTask("build")
	later.AddInstance(models.Date(2024, 6, 1), models.Date(2024, 6, 3))
	require.NoError(t, database.SaveProject(project.ID, pool))

	cfg := &config.Config{DateFormat: config.DefaultDateFormat, ChartDays: 14}
	v := NewChartView(database, cfg, logging.Discard(), *project)
	v.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	v.Update(v.Init()())

	assert.Equal(t, models.Date(2024, 5, 10), v.day)
	assert.Contains(t, v.View(), "design")
}

func TestProjectListView_CreateOpensProject(t *testing.T) {
	database := newTestDB(t)
	v := NewProjectListView(database, logging.Discard())
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	v.Update(v.Init()())
	assert.Contains(t, v.View(), "No Charts")

	cmd := press(v, "n", "roadmap", "ctrl+s")
	require.NotNil(t, cmd)
	msg, ok := cmd().(SelectedProject)
	require.True(t, ok)
	assert.Equal(t, "roadmap", msg.Project.Name)

	n, err := database.ProjectCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestProjectListView_Delete(t *testing.T) {
	database := newTestDB(t)
	_, err := database.CreateProject("roadmap")
	require.NoError(t, err)

	v := NewProjectListView(database, logging.Discard())
	v.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	v.Update(v.Init()())

	press(v, "d")
	require.True(t, v.confirmingDelete)
	assert.Contains(t, v.View(), "roadmap")

	cmd := press(v, "y")
	require.NotNil(t, cmd)
	v.Update(cmd())

	projects, err := database.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.Contains(t, v.View(), "No Charts")
}

func TestChartView_EditInstance(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	press(v, "i", "enter", "enter", "enter")
	task := v.Pool().Task(0)
	day := v.day
	layout := v.cfg.DateFormat

	press(v, "e")
	require.True(t, v.editing)
	assert.Equal(t, formEditInstance, v.form)
	assert.Equal(t, day.Format(layout), v.value(0))

	v.inputs[0].SetValue(day.AddDate(0, 0, 2).Format(layout))
	v.inputs[1].SetValue(day.AddDate(0, 0, 5).Format(layout))
	press(v, "ctrl+s")

	assert.False(t, v.editing)
	require.Equal(t, 1, task.NumberOfInstances())
	assert.Equal(t, models.NewDateRange(day.AddDate(0, 0, 2), day.AddDate(0, 0, 5)), task.Instance(0).Range())
	assert.Equal(t, day.AddDate(0, 0, 2), v.day)
}

func TestChartView_EditSubTaskInstanceWidensTask(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	press(v, "i", "enter", "enter", "enter", "D", "space", "down")
	task := v.Pool().Task(0)
	day := v.day
	layout := v.cfg.DateFormat

	press(v, "e")
	require.Equal(t, formEditInstance, v.form)
	v.inputs[1].SetValue(day.AddDate(0, 0, 3).Format(layout))
	press(v, "ctrl+s")

	want := models.NewDateRange(day, day.AddDate(0, 0, 3))
	assert.Equal(t, want, task.Instance(0).Range())
	assert.Equal(t, want, task.SubTask(0).Instance(0).Range())
	assert.Equal(t, 1, v.cursor)
}

func TestChartView_RenameAndRecolorTask(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	addTask(v, "build")
	pool := v.Pool()
	palette := pool.Palette()
	task := pool.Task(0)
	old := palette.Lookup(task.Color())
	taken := palette.Lookup(pool.Task(1).Color())

	press(v, "k", "e")
	require.Equal(t, formEditTask, v.form)
	assert.Equal(t, old.Name, v.value(1))

	v.inputs[1].SetValue(taken.Name)
	press(v, "ctrl+s")
	assert.True(t, v.editing)
	assert.Contains(t, v.status, "in use")

	v.inputs[1].SetValue("Mauve")
	press(v, "ctrl+s")
	assert.Contains(t, v.status, "no palette color")

	free := palette.Allocate(nil)
	v.inputs[0].SetValue("research")
	v.inputs[1].SetValue(free.Name)
	press(v, "ctrl+s")

	assert.False(t, v.editing)
	assert.Equal(t, "research", task.Name())
	assert.Equal(t, free.Color, task.Color())
	assert.True(t, free.InUse)
	assert.False(t, old.InUse)
	assert.NoError(t, pool.CheckColors())
}

func TestChartView_EditSubTask(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")
	press(v, "D", "space", "down", "e")
	require.Equal(t, formEditSubTask, v.form)

	v.inputs[0].SetValue("sketch")
	v.inputs[1].SetValue("ui, review")
	press(v, "ctrl+s")

	st := v.Pool().Task(0).SubTask(0)
	assert.Equal(t, "sketch", st.Name())
	assert.Equal(t, []string{"ui", "review"}, st.Attributes())
}

func TestChartView_ProjectSettings(t *testing.T) {
	v, database, id := newTestChart(t)
	layout := v.cfg.DateFormat

	press(v, "p")
	require.Equal(t, formProject, v.form)
	assert.Equal(t, "plan", v.value(0))

	v.inputs[0].SetValue("roadmap")
	v.inputs[1].SetValue(models.Date(2024, 3, 1).Format(layout))
	v.inputs[2].SetValue(models.Date(2024, 1, 1).Format(layout))
	press(v, "ctrl+s")
	assert.True(t, v.editing, "inverted bounds")

	v.inputs[2].SetValue(models.Date(2024, 6, 30).Format(layout))
	press(v, "ctrl+s")
	require.False(t, v.editing)

	pool := v.Pool()
	assert.Equal(t, "roadmap", pool.ProjectName())
	assert.Equal(t, models.Date(2024, 3, 1), pool.StartDate())
	assert.Equal(t, models.Date(2024, 6, 30), pool.EndDate())
	assert.False(t, v.day.Before(pool.StartDate()))
	assert.False(t, v.day.After(pool.EndDate()))

	press(v, "ctrl+s")
	project, err := database.GetProject(id)
	require.NoError(t, err)
	assert.Equal(t, "roadmap", project.Name)
}

func TestChartView_HighlightAttribute(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "design")

	press(v, "/")
	assert.False(t, v.editing)
	assert.Contains(t, v.status, "detail")

	press(v, "D", "space")
	press(v, "s", "sketch", "enter", "enter", "enter", "ui", "enter", "enter")
	press(v, "/", "ui", "enter", "enter")

	assert.False(t, v.editing)
	assert.Equal(t, "ui", v.highlight)
	assert.Contains(t, v.status, "1 subtasks")
	assert.Contains(t, v.View(), "/ui")

	press(v, "/")
	v.inputs[0].SetValue("")
	press(v, "ctrl+s")
	assert.Empty(t, v.highlight)
}

func TestChartView_CursorFollowsRowAfterDelete(t *testing.T) {
	v, _, _ := newTestChart(t)
	addTask(v, "a")
	addTask(v, "b")
	press(v, "D", "k", "space")
	press(v, "s", "s1", "enter", "enter", "enter", "enter", "enter")
	require.Equal(t, 2, v.cursor)

	// the instance goes first, the row stays selected
	press(v, "d", "y")
	assert.Equal(t, 2, v.cursor)

	press(v, "d")
	require.Equal(t, "Delete Subtask?", v.confirmTitle)
	press(v, "y")

	r, ok := v.selected()
	require.True(t, ok)
	assert.Equal(t, "a", r.task.Name())
	assert.Nil(t, r.sub)
}
