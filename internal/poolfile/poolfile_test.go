package poolfile

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/tgienger/ganttchart/internal/models"
)

func day(d int) time.Time {
	return models.Date(2024, time.March, d)
}

func ms(d int) int64 {
	return day(d).UnixMilli()
}

func samplePool(t *testing.T) *models.Pool {
	t.Helper()
	p := models.NewPool("Launch")
	p.SetDetail(true)
	p.SetStartDate(day(1))
	p.SetEndDate(day(31))

	red := p.Palette().LookupName("Red")
	p.Palette().Claim(red)
	build := p.AddTask("build")
	build.SetColor(red.Color)
	build.AddInstance(day(2), day(6))
	build.AddInstance(day(10), day(14))

	shade := p.Palette().Allocate(red)
	p.Palette().Claim(shade)
	st := build.AddSubTask("design & review", shade.Color)
	st.AddInstance(day(2), day(3))
	st.AddInstance(day(11), day(12))
	st.AddAttributes("urgent,<external>")

	p.AddTask("ship")
	return p
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "chart.xml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	orig := samplePool(t)
	path := filepath.Join(t.TempDir(), "chart.xml")
	require.NoError(t, Save(path, orig))

	loaded := models.NewPool("")
	report, err := Load(path, loaded)

	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Equal(t, orig.Snapshot(), loaded.Snapshot())
	assert.True(t, loaded.Palette().LookupName("Red").InUse)
	assert.Equal(t, "Dull Red", loaded.Palette().Allocate(loaded.Palette().LookupName("Red")).Name)
}

func TestSave_KeepsBackup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.xml")
	p := samplePool(t)
	require.NoError(t, Save(path, p))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	p.SetProjectName("Renamed")
	require.NoError(t, Save(path, p))

	bak, err := os.ReadFile(path + ".bak")
	require.NoError(t, err)
	assert.Equal(t, first, bak)

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(current), `name="Renamed"`)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 2, "temp file is cleaned up")
}

func TestEncode_Layout(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, samplePool(t)))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `<pool version="3" datestyle="2" detail="true" name="Launch"`)
	assert.Contains(t, out, fmt.Sprintf(`start="%d" end="%d"`, ms(1), ms(31)))
	assert.Contains(t, out, `<task color="-65536" name="build">`)
	assert.Contains(t, out, `<subtaskdefinition name="design &amp; review" color="-8388608">`)
	assert.Contains(t, out, fmt.Sprintf(`<subtask start="%d" end="%d">`, ms(2), ms(3)))
	assert.Contains(t, out, `<attribute name="&lt;external&gt;">`)
	assert.Contains(t, out, fmt.Sprintf(`<instance start="%d" end="%d">`, ms(10), ms(14)))
	// tasks without subtasks still carry both containers
	assert.Contains(t, out, `<task color="-16777216" name="ship">`)
	assert.Equal(t, 2, strings.Count(out, "<definitions>"))
}

func TestLoad_VersionMismatchLeavesPoolUnchanged(t *testing.T) {
	path := writeFile(t, fmt.Sprintf(
		`<pool version="2" name="old" start="%d" end="%d"><task color="-65536" name="x"/></pool>`, ms(1), ms(2)))
	p := samplePool(t)
	before := p.Snapshot()

	report, err := Load(path, p)

	require.ErrorIs(t, err, ErrVersionMismatch)
	assert.Nil(t, report)
	assert.Equal(t, before, p.Snapshot())
}

func TestLoad_ParseErrorLeavesPoolUnchanged(t *testing.T) {
	tests := map[string]string{
		"truncated":   `<pool version="3" name="x"><task`,
		"bad start":   `<pool version="3" start="soon" end="0"/>`,
		"bad version": `<pool version="three"/>`,
		"bad color":   `<pool version="3"><task color="red" name="x"/></pool>`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			p := samplePool(t)
			before := p.Snapshot()

			_, err := Load(writeFile(t, content), p)

			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrVersionMismatch)
			assert.Equal(t, before, p.Snapshot())
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.xml"), models.NewPool(""))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestDecode_Defaults(t *testing.T) {
	p, report, err := Decode(strings.NewReader(`<pool version="3"/>`))

	require.NoError(t, err)
	assert.True(t, report.Empty())
	assert.Equal(t, models.DefaultProjectName, p.ProjectName())
	assert.Equal(t, models.ByDay, p.DateStyle())
	assert.False(t, p.Detail())
	assert.True(t, p.StartDate().Equal(models.NewPool("").StartDate()))
}

func TestDecode_Detail(t *testing.T) {
	tests := map[string]bool{
		"true":  true,
		"TRUE":  true,
		"True":  true,
		"false": false,
		"yes":   false,
		"":      false,
	}
	for attr, want := range tests {
		t.Run(attr, func(t *testing.T) {
			p, _, err := Decode(strings.NewReader(fmt.Sprintf(`<pool version="3" detail="%s"/>`, attr)))
			require.NoError(t, err)
			assert.Equal(t, want, p.Detail())
		})
	}
}

func TestDecode_DateStyle(t *testing.T) {
	p, _, err := Decode(strings.NewReader(`<pool version="3" datestyle="1"/>`))
	require.NoError(t, err)
	assert.Equal(t, models.ByHour, p.DateStyle())

	p, _, err = Decode(strings.NewReader(`<pool version="3" datestyle="9"/>`))
	require.NoError(t, err)
	assert.Equal(t, models.ByDay, p.DateStyle())
}

func TestDecode_ReportsAbsorbedInstances(t *testing.T) {
	doc := fmt.Sprintf(`<pool version="3" name="p">
  <task color="-16776961" name="a">
    <definitions/>
    <instances>
      <instance start="%d" end="%d"/>
      <instance start="%d" end="%d"/>
      <instance start="%d" end="%d"/>
    </instances>
  </task>
</pool>`, ms(1), ms(10), ms(4), ms(6), ms(20), ms(22))

	p, report, err := Decode(strings.NewReader(doc))

	require.NoError(t, err)
	require.Len(t, report.Failed, 1)
	assert.Equal(t, "a", report.Failed[0].Task)
	assert.True(t, report.Failed[0].Range.Start.Equal(day(4)))
	assert.Equal(t, 2, p.Task(0).NumberOfInstances())
	assert.True(t, p.Palette().LookupName("Blue").InUse)
}

func TestDecode_UnknownColors(t *testing.T) {
	doc := `<pool version="3">
  <task color="-16711423" name="odd">
    <definitions><subtaskdefinition name="s" color="-1"/></definitions>
  </task>
</pool>`

	p, report, err := Decode(strings.NewReader(doc))

	require.NoError(t, err)
	require.Len(t, report.UnknownColors, 2)
	assert.Equal(t, "odd", report.UnknownColors[0].Task)
	assert.Equal(t, "s", report.UnknownColors[1].SubTask)
	assert.Equal(t, models.Color{R: 1, G: 1, B: 1}, p.Task(0).Color())
	assert.Len(t, p.Palette().Available(nil), 7)
}

func TestEncodeYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, EncodeYAML(&buf, samplePool(t)))

	var got map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &got))

	assert.Equal(t, "Launch", got["name"])
	assert.Equal(t, "2024-03-01", got["start"])
	assert.Equal(t, "day", got["datestyle"])
	assert.Equal(t, true, got["detail"])

	tasks := got["tasks"].([]any)
	require.Len(t, tasks, 2)
	build := tasks[0].(map[string]any)
	assert.Equal(t, "#ff0000", build["color"])
	first := build["instances"].([]any)[0].(map[string]any)
	assert.Equal(t, "2024-03-02", first["start"])
	assert.Equal(t, 5, first["days"])
	sub := build["subtasks"].([]any)[0].(map[string]any)
	assert.Equal(t, []any{"urgent", "<external>"}, sub["attributes"])
	assert.NotContains(t, tasks[1].(map[string]any), "instances")
}

func TestSaveYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.yaml")
	require.NoError(t, SaveYAML(path, samplePool(t)))

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(b), "name: Launch")
}
