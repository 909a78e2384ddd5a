package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tgienger/ganttchart/internal/models"
	"github.com/tgienger/ganttchart/internal/poolfile"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "data"))
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "config"))
	for _, k := range []string{"DATA_DIR", "DB_PATH", "LOG_LEVEL", "DATE_FORMAT", "CHART_DAYS"} {
		for _, key := range []string{k, "GANTT_" + k} {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}

	noColor := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = noColor })
	return dir
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd("test")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, stderr, err := run(t, args...)
	require.NoError(t, err, stderr)
	return out
}

func TestVersion(t *testing.T) {
	setupEnv(t)
	assert.Equal(t, "gantt test\n", mustRun(t, "version"))
}

func TestNewTask_CreatesFileAndAllocatesColors(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")

	mustRun(t, "new", "task", file, "design")
	mustRun(t, "new", "task", file, "build", "--color", "orange")

	pool, report, err := poolfile.Open(file)
	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Equal(t, "plan", pool.ProjectName())
	require.Equal(t, 2, pool.NumberOfTasks())
	assert.Equal(t, models.Black, pool.Task(0).Color())
	assert.Equal(t, models.Color{R: 255, G: 200, B: 0}, pool.Task(1).Color())
	require.NoError(t, pool.CheckColors())

	_, _, err = run(t, "new", "task", file, "design")
	assert.ErrorContains(t, err, "already exists")
	_, _, err = run(t, "new", "task", file, "test", "--color", "Orange")
	assert.ErrorContains(t, err, "already used")
	_, _, err = run(t, "new", "task", file, "test", "--color", "teal")
	assert.ErrorContains(t, err, "unknown color")
}

func TestNewInstance(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")
	mustRun(t, "new", "task", file, "design")

	out := mustRun(t, "new", "instance", file, "1", "05/01/2024", "10/01/2024")
	assert.Contains(t, out, "Scheduled design.")
	out = mustRun(t, "new", "instance", file, "1", "08/01/2024", "15/01/2024")
	assert.Contains(t, out, "Merged")

	pool, _, err := poolfile.Open(file)
	require.NoError(t, err)
	require.Equal(t, 1, pool.Task(0).NumberOfInstances())
	assert.Equal(t, 11, pool.Task(0).Instance(0).Days())

	_, _, err = run(t, "new", "instance", file, "2", "05/01/2024", "10/01/2024")
	assert.ErrorContains(t, err, "no task 2")
	_, _, err = run(t, "new", "instance", file, "1", "10/01/2024", "05/01/2024")
	assert.ErrorContains(t, err, "before start")
	_, _, err = run(t, "new", "instance", file, "1", "2024-01-05", "10/01/2024")
	assert.ErrorContains(t, err, "start date")
}

func TestSubTaskWorkflow(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")
	mustRun(t, "new", "task", file, "design", "--color", "red")
	mustRun(t, "new", "instance", file, "1", "01/03/2024", "10/03/2024")

	_, _, err := run(t, "new", "subtask", file, "1", "sketch", "02/03/2024", "04/03/2024")
	assert.ErrorContains(t, err, "detail mode")

	mustRun(t, "convert", file)
	_, stderr, err := run(t, "new", "subtask", file, "1", "sketch", "02/03/2024", "04/03/2024", "--attrs", "ui, review")
	require.NoError(t, err)
	assert.Empty(t, stderr)
	_, stderr, err = run(t, "new", "subtask", file, "1", "later", "20/03/2024", "22/03/2024", "--color", "pale red")
	require.NoError(t, err)
	assert.Contains(t, stderr, "outside every instance")

	out := mustRun(t, "show", file)
	assert.Contains(t, out, "detail on")
	assert.Contains(t, out, " 1. ■ design")
	assert.Contains(t, out, "- ■ SubTask")
	assert.Contains(t, out, "- ■ sketch [ui, review]")
	assert.Contains(t, out, "02/03/2024 - 04/03/2024 (3 days)")

	pool, _, err := poolfile.Open(file)
	require.NoError(t, err)
	subs := pool.Task(0).SubTasks()
	require.Len(t, subs, 3)
	assert.Equal(t, models.Blue, subs[0].Color())
	assert.Equal(t, "Maroon Red", pool.Palette().LookupSub(pool.Palette().LookupName("Red"), subs[1].Color()).Name)
	assert.Equal(t, models.Color{R: 255, G: 48, B: 48}, subs[2].Color())

	out = mustRun(t, "revalidate", file)
	assert.Contains(t, out, "Revalidated")
	pool, _, err = poolfile.Open(file)
	require.NoError(t, err)
	assert.Equal(t, 0, pool.Task(0).SubTasks()[2].NumberOfInstances())

	mustRun(t, "convert", file, "--detail=false")
	pool, _, err = poolfile.Open(file)
	require.NoError(t, err)
	assert.False(t, pool.Detail())
	assert.Equal(t, 0, pool.Task(0).NumberOfSubTasks())

	out = mustRun(t, "convert", file, "--detail=false")
	assert.Contains(t, out, "already false")
}

func TestSet(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")
	mustRun(t, "new", "task", file, "design")

	_, _, err := run(t, "set", file)
	assert.ErrorContains(t, err, "nothing to set")
	_, _, err = run(t, "set", file, "--start", "01/07/2024", "--end", "01/03/2024")
	assert.ErrorContains(t, err, "before start")
	_, _, err = run(t, "set", file, "--name", "")
	assert.ErrorContains(t, err, "cannot be empty")

	out := mustRun(t, "set", file, "--name", "roadmap", "--start", "01/03/2024", "--end", "30/06/2024")
	assert.Contains(t, out, "Updated roadmap.")

	pool, _, err := poolfile.Open(file)
	require.NoError(t, err)
	assert.Equal(t, "roadmap", pool.ProjectName())
	assert.Equal(t, models.Date(2024, 3, 1), pool.StartDate())
	assert.Equal(t, models.Date(2024, 6, 30), pool.EndDate())

	// one bound alone is checked against the stored other
	_, _, err = run(t, "set", file, "--end", "01/01/2024")
	assert.ErrorContains(t, err, "before start")
}

func TestEditTask(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")
	mustRun(t, "new", "task", file, "design", "--color", "red")
	mustRun(t, "new", "task", file, "build", "--color", "green")

	_, _, err := run(t, "edit", "task", file, "1")
	assert.ErrorContains(t, err, "nothing to change")
	_, _, err = run(t, "edit", "task", file, "1", "--name", "build")
	assert.ErrorContains(t, err, "already exists")
	_, _, err = run(t, "edit", "task", file, "1", "--color", "green")
	assert.ErrorIs(t, err, models.ErrColorInUse)
	_, _, err = run(t, "edit", "task", file, "1", "--color", "teal")
	assert.ErrorContains(t, err, "unknown color")

	mustRun(t, "edit", "task", file, "1", "--name", "research", "--color", "yellow")

	pool, _, err := poolfile.Open(file)
	require.NoError(t, err)
	task := pool.Task(0)
	assert.Equal(t, "research", task.Name())
	assert.Equal(t, "Yellow", pool.Palette().Lookup(task.Color()).Name)
	assert.False(t, pool.Palette().LookupName("Red").InUse)
}

func TestEditInstance(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")
	mustRun(t, "new", "task", file, "design", "--color", "red")
	mustRun(t, "new", "instance", file, "1", "01/01/2024", "05/01/2024")
	mustRun(t, "new", "instance", file, "1", "10/01/2024", "12/01/2024")

	_, _, err := run(t, "edit", "instance", file, "1", "3", "01/01/2024", "02/01/2024")
	assert.ErrorContains(t, err, "no instance 3")

	out := mustRun(t, "edit", "instance", file, "1", "2", "06/01/2024", "08/01/2024")
	assert.Contains(t, out, "now 1 instances")

	mustRun(t, "convert", file)
	mustRun(t, "new", "subtask", file, "1", "sketch", "02/01/2024", "03/01/2024")
	_, _, err = run(t, "edit", "instance", file, "1", "1", "01/01/2024", "02/01/2024", "--subtask", "3")
	assert.ErrorContains(t, err, "no subtask 3")

	mustRun(t, "edit", "instance", file, "1", "1", "02/01/2024", "10/01/2024", "--subtask", "2")

	pool, _, err := poolfile.Open(file)
	require.NoError(t, err)
	task := pool.Task(0)
	require.Equal(t, 1, task.NumberOfInstances())
	assert.Equal(t, models.NewDateRange(models.Date(2024, 1, 1), models.Date(2024, 1, 10)), task.Instance(0).Range())
	sketch := task.SubTask(1)
	require.Equal(t, 1, sketch.NumberOfInstances())
	assert.Equal(t, models.NewDateRange(models.Date(2024, 1, 2), models.Date(2024, 1, 10)), sketch.Instance(0).Range())

	_, stderr, err := run(t, "edit", "instance", file, "1", "1", "20/01/2024", "22/01/2024", "--subtask", "2")
	require.NoError(t, err)
	assert.Contains(t, stderr, "was dropped")
}

func TestColors(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")
	mustRun(t, "new", "task", file, "design", "--color", "green")

	out := mustRun(t, "colors", file)
	assert.Contains(t, out, "■ Green    in use")
	assert.Contains(t, out, "■ Blue     free")
	assert.Contains(t, out, "■ Dark Green")
}

func TestShow_ReportsLoadWarnings(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "odd.xml")
	require.NoError(t, os.WriteFile(file, []byte(`<pool version="3" name="odd"><task color="-16711423" name="x"/></pool>`), 0o644))

	out, stderr, err := run(t, "show", file)
	require.NoError(t, err)
	assert.Contains(t, out, "odd")
	assert.Contains(t, stderr, "color #010101 is not in the palette")
}

func TestShow_VersionMismatch(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "old.xml")
	require.NoError(t, os.WriteFile(file, []byte(`<pool version="2"/>`), 0o644))

	_, _, err := run(t, "show", file)
	assert.ErrorIs(t, err, poolfile.ErrVersionMismatch)
}

func TestLibraryWorkflow(t *testing.T) {
	dir := setupEnv(t)
	file := filepath.Join(dir, "plan.xml")
	mustRun(t, "new", "task", file, "design")
	mustRun(t, "new", "instance", file, "1", "01/03/2024", "10/03/2024")

	out := mustRun(t, "projects")
	assert.Contains(t, out, "No projects")

	out = mustRun(t, "import", file)
	assert.Contains(t, out, "Imported plan as project 1.")

	out = mustRun(t, "projects")
	assert.Contains(t, out, "plan")
	assert.Contains(t, out, "1 tasks")

	exported := filepath.Join(dir, "copy.xml")
	mustRun(t, "export", "1", exported)
	orig, _, err := poolfile.Open(file)
	require.NoError(t, err)
	copied, _, err := poolfile.Open(exported)
	require.NoError(t, err)
	assert.Equal(t, orig.Snapshot(), copied.Snapshot())

	report := filepath.Join(dir, "report.yaml")
	mustRun(t, "export", "1", report, "--format", "yaml")
	b, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(b), "name: plan")

	_, _, err = run(t, "export", "1", report, "--format", "csv")
	assert.ErrorContains(t, err, "unknown format")

	mustRun(t, "projects", "rm", "1")
	_, _, err = run(t, "projects", "rm", "1")
	assert.Error(t, err)
}
