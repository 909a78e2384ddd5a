package views

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/tgienger/ganttchart/internal/config"
	"github.com/tgienger/ganttchart/internal/db"
	"github.com/tgienger/ganttchart/internal/models"
	"github.com/tgienger/ganttchart/internal/ui/keys"
	"github.com/tgienger/ganttchart/internal/ui/styles"
)

// clamp returns val clamped between minVal and maxVal
func clamp(val, minVal, maxVal int) int {
	if val < minVal {
		return minVal
	}
	if val > maxVal {
		return maxVal
	}
	return val
}

// row is one line of the chart: a task, or one of its subtasks
type row struct {
	task *models.Task
	sub  *models.SubTask
}

type formKind int

const (
	formTask formKind = iota
	formInstance
	formSubTask
	formEditInstance
	formEditTask
	formEditSubTask
	formProject
	formHighlight
)

// ChartView draws one project as a Gantt chart and edits it in place
type ChartView struct {
	db      *db.DB
	logger  *log.Logger
	cfg     *config.Config
	project models.Project
	pool    *models.Pool
	styles  *styles.Styles
	keys    keys.KeyMap

	width  int
	height int

	loaded    bool
	dirty     bool
	cursor    int       // selected row
	offset    int       // first visible row
	day       time.Time // selected day
	first     time.Time // first visible day
	allFolded bool

	status      string
	statusLevel log.Level

	// Forms
	editing  bool
	form     formKind
	inputs   []textinput.Model
	labels   []string
	focusIdx int // len(inputs) is the button

	// IDs of what an edit form changes, resolved again on submit
	editTask string
	editSub  string
	editInst string

	// Subtask attribute to highlight, empty for none
	highlight string

	// Confirmation popup
	confirming     bool
	confirmTitle   string
	confirmText    string
	confirmAction  func()
	confirmSuccess string

	showHelpPopup bool

	now func() time.Time
}

// NewChartView creates a chart view for project
func NewChartView(database *db.DB, cfg *config.Config, logger *log.Logger, project models.Project) *ChartView {
	v := &ChartView{
		db:      database,
		logger:  logger,
		cfg:     cfg,
		project: project,
		styles:  styles.NewStyles(),
		keys:    keys.DefaultKeyMap(),
		now:     time.Now,
	}
	v.day = models.Truncate(v.now())
	v.first = v.day
	return v
}

// BackToProjects signals to go back to project list
type BackToProjects struct{}

type poolLoadedMsg struct {
	pool   *models.Pool
	report *models.LoadReport
}

// Init loads the project
func (v *ChartView) Init() tea.Cmd {
	return v.loadPool
}

func (v *ChartView) loadPool() tea.Msg {
	pool, report, err := v.db.LoadProject(v.project.ID)
	if err != nil {
		return errMsg{err: err}
	}
	return poolLoadedMsg{pool: pool, report: report}
}

// Pool returns the chart being edited, nil until loaded
func (v *ChartView) Pool() *models.Pool {
	return v.pool
}

// Dirty reports whether there are unsaved changes
func (v *ChartView) Dirty() bool {
	return v.dirty
}

// Update handles messages
func (v *ChartView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		v.scrollToDay()
		v.ensureVisible()
		return v, nil

	case poolLoadedMsg:
		v.pool = msg.pool
		v.loaded = true
		v.onLoaded(msg.report)
		return v, nil

	case errMsg:
		v.logger.Error("chart", "project", v.project.ID, "err", msg.err)
		v.setStatus(log.ErrorLevel, msg.err.Error())
		v.loaded = true
		return v, nil

	case tea.KeyMsg:
		if v.showHelpPopup {
			v.showHelpPopup = false
			return v, nil
		}

		if v.confirming {
			return v.updateConfirm(msg)
		}

		if v.editing {
			return v.updateEditing(msg)
		}

		return v.updateNormal(msg)
	}

	return v, nil
}

func (v *ChartView) onLoaded(report *models.LoadReport) {
	if report != nil {
		for _, f := range report.Failed {
			v.logger.Warn("instance merged on load", "task", f.Task,
				"start", f.Range.Start.Format(v.cfg.DateFormat), "end", f.Range.End.Format(v.cfg.DateFormat))
		}
		for _, u := range report.UnknownColors {
			v.logger.Warn("color not in palette", "task", u.Task, "subtask", u.SubTask, "color", u.Color.Hex())
		}
	}
	if !report.Empty() {
		n := len(report.Failed) + len(report.UnknownColors)
		v.setStatus(log.WarnLevel, fmt.Sprintf("%d load warnings, see the log", n))
	}
	if err := v.pool.CheckColors(); err != nil {
		v.logger.Warn("color check", "err", err)
		v.setStatus(log.WarnLevel, err.Error())
	}

	// Start at the first scheduled day when there is one
	var earliest time.Time
	for _, t := range v.pool.Tasks() {
		if t.NumberOfInstances() == 0 {
			continue
		}
		if start := t.Instance(0).Start(); earliest.IsZero() || start.Before(earliest) {
			earliest = start
		}
	}
	if !earliest.IsZero() {
		v.day = earliest
	}
	v.clampDay()
	v.first = v.day
}

func (v *ChartView) updateNormal(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Quit):
		if err := v.saveIfDirty(); err != nil {
			return v, nil
		}
		return v, tea.Quit

	case key.Matches(msg, v.keys.Back):
		if err := v.saveIfDirty(); err != nil {
			return v, nil
		}
		return v, func() tea.Msg { return BackToProjects{} }

	case key.Matches(msg, v.keys.Help):
		v.showHelpPopup = true
		return v, nil
	}

	if v.pool == nil {
		return v, nil
	}

	switch {
	case key.Matches(msg, v.keys.Up):
		if v.cursor > 0 {
			v.cursor--
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Down):
		if v.cursor < len(v.rows())-1 {
			v.cursor++
			v.ensureVisible()
		}

	case key.Matches(msg, v.keys.Left):
		v.day = v.day.AddDate(0, 0, -1)
		v.clampDay()
		v.scrollToDay()

	case key.Matches(msg, v.keys.Right):
		v.day = v.day.AddDate(0, 0, 1)
		v.clampDay()
		v.scrollToDay()

	case key.Matches(msg, v.keys.Today):
		v.day = models.Truncate(v.now())
		v.clampDay()
		v.scrollToDay()

	case key.Matches(msg, v.keys.Save):
		if err := v.save(); err == nil {
			v.setStatus(log.InfoLevel, "Saved.")
		}

	case key.Matches(msg, v.keys.New):
		return v, v.startForm(formTask)

	case key.Matches(msg, v.keys.NewInstance):
		if _, ok := v.selected(); ok {
			return v, v.startForm(formInstance)
		}

	case key.Matches(msg, v.keys.NewSubTask):
		if _, ok := v.selected(); !ok {
			break
		}
		if !v.pool.Detail() {
			v.setStatus(log.WarnLevel, "Subtasks need detail mode, press D to turn it on.")
			break
		}
		return v, v.startForm(formSubTask)

	case key.Matches(msg, v.keys.Fold):
		v.toggleFold()

	case key.Matches(msg, v.keys.FoldAll):
		taskID, subID := v.selectionIDs()
		v.allFolded = !v.allFolded
		v.pool.SetFolded(v.allFolded)
		v.restoreSelection(taskID, subID)

	case key.Matches(msg, v.keys.MoveUp):
		v.move(true)

	case key.Matches(msg, v.keys.MoveDown):
		v.move(false)

	case key.Matches(msg, v.keys.Delete):
		v.confirmDelete()

	case key.Matches(msg, v.keys.Detail):
		v.toggleDetail()

	case key.Matches(msg, v.keys.Revalidate):
		taskID, subID := v.selectionIDs()
		v.pool.Revalidate()
		v.dirty = true
		v.restoreSelection(taskID, subID)
		v.setStatus(log.InfoLevel, "Revalidated.")

	case key.Matches(msg, v.keys.Edit):
		return v, v.startEdit()

	case key.Matches(msg, v.keys.Settings):
		return v, v.startForm(formProject)

	case key.Matches(msg, v.keys.Highlight):
		if !v.pool.Detail() {
			v.setStatus(log.WarnLevel, "Attributes belong to subtasks, press D to turn detail on.")
			break
		}
		return v, v.startForm(formHighlight)
	}
	return v, nil
}

func (v *ChartView) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		taskID, subID := v.selectionIDs()
		v.confirming = false
		v.confirmAction()
		v.dirty = true
		v.restoreSelection(taskID, subID)
		v.setStatus(log.InfoLevel, v.confirmSuccess)
		return v, nil
	case "n", "N", "esc":
		v.confirming = false
		return v, nil
	}
	return v, nil
}

func (v *ChartView) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	n := len(v.inputs) + 1
	switch {
	case key.Matches(msg, v.keys.Back):
		v.editing = false
		return v, nil

	case key.Matches(msg, v.keys.Save):
		v.submitForm()
		return v, nil

	case key.Matches(msg, v.keys.Tab):
		v.focusIdx = (v.focusIdx + 1) % n
		v.updateFocus()
		return v, nil

	case msg.String() == "shift+tab":
		v.focusIdx = (v.focusIdx + n - 1) % n
		v.updateFocus()
		return v, nil

	case key.Matches(msg, v.keys.Enter):
		if v.focusIdx < len(v.inputs) {
			v.focusIdx++
			v.updateFocus()
			return v, nil
		}
		v.submitForm()
		return v, nil
	}

	var cmd tea.Cmd
	if v.focusIdx < len(v.inputs) {
		v.inputs[v.focusIdx], cmd = v.inputs[v.focusIdx].Update(msg)
	}
	return v, cmd
}

func (v *ChartView) updateFocus() {
	for i := range v.inputs {
		v.inputs[i].Blur()
	}
	if v.focusIdx < len(v.inputs) {
		v.inputs[v.focusIdx].Focus()
	}
}

// startEdit opens the form for the instance under the day cursor, or for
// the selected row itself when nothing is scheduled there
func (v *ChartView) startEdit() tea.Cmd {
	r, ok := v.selected()
	if !ok {
		return nil
	}
	v.editTask, v.editSub, v.editInst = r.task.ID(), "", ""
	if r.sub != nil {
		v.editSub = r.sub.ID()
		if si := r.sub.InstanceOn(v.day); si != nil {
			v.editInst = si.ID()
			return v.startForm(formEditInstance)
		}
		return v.startForm(formEditSubTask)
	}
	if ti := r.task.InstanceOn(v.day); ti != nil {
		v.editInst = ti.ID()
		return v.startForm(formEditInstance)
	}
	return v.startForm(formEditTask)
}

// editTarget resolves the IDs stored by startEdit; either may come back nil
func (v *ChartView) editTarget() (*models.Task, *models.SubTask) {
	t := v.pool.TaskByID(v.editTask)
	if t == nil || v.editSub == "" {
		return t, nil
	}
	return t, t.SubTaskByID(v.editSub)
}

func (v *ChartView) editRange() models.DateRange {
	t, st := v.editTarget()
	switch {
	case st != nil:
		if si := st.InstanceByID(v.editInst); si != nil {
			return si.Range()
		}
	case t != nil:
		if ti := t.InstanceByID(v.editInst); ti != nil {
			return ti.Range()
		}
	}
	return models.NewDateRange(v.day, v.day)
}

// colorName is the palette name of the task color, empty while unassigned
func (v *ChartView) colorName(t *models.Task) string {
	if !t.HasColor() {
		return ""
	}
	if e := v.pool.Palette().Lookup(t.Color()); e != nil {
		return e.Name
	}
	return t.Color().Hex()
}

func (v *ChartView) startForm(kind formKind) tea.Cmd {
	layout := v.cfg.DateFormat
	day := v.day.Format(layout)
	v.form = kind
	v.inputs = nil
	v.labels = nil
	switch kind {
	case formTask:
		v.addInput("Name:", "Task name", "")
	case formInstance:
		v.addInput("Start:", v.cfg.DateFormat, day)
		v.addInput("End:", v.cfg.DateFormat, day)
	case formSubTask:
		v.addInput("Name:", "Subtask name", "")
		v.addInput("Start:", v.cfg.DateFormat, day)
		v.addInput("End:", v.cfg.DateFormat, day)
		v.addInput("Attributes:", "comma separated (optional)", "")
	case formEditInstance:
		r := v.editRange()
		v.addInput("Start:", layout, r.Start.Format(layout))
		v.addInput("End:", layout, r.End.Format(layout))
	case formEditTask:
		t, _ := v.editTarget()
		var free []string
		for _, e := range v.pool.Palette().Available(nil) {
			free = append(free, e.Name)
		}
		v.addInput("Name:", "Task name", t.Name())
		v.addInput("Color:", strings.Join(free, ", "), v.colorName(t))
	case formEditSubTask:
		_, st := v.editTarget()
		v.addInput("Name:", "Subtask name", st.Name())
		v.addInput("Attributes:", "comma separated (optional)", strings.Join(st.Attributes(), ", "))
	case formProject:
		v.addInput("Name:", "Project name", v.pool.ProjectName())
		v.addInput("Start:", layout, v.pool.StartDate().Format(layout))
		v.addInput("End:", layout, v.pool.EndDate().Format(layout))
	case formHighlight:
		v.addInput("Attribute:", "leave empty to clear", v.highlight)
	}
	v.status = ""
	v.editing = true
	v.focusIdx = 0
	v.updateFocus()
	return textinput.Blink
}

func (v *ChartView) addInput(label, placeholder, value string) {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 100
	in.SetValue(value)
	v.inputs = append(v.inputs, in)
	v.labels = append(v.labels, label)
}

func (v *ChartView) value(i int) string {
	return strings.TrimSpace(v.inputs[i].Value())
}

func (v *ChartView) parseRange(startIdx int) (time.Time, time.Time, error) {
	start, err := time.ParseInLocation(v.cfg.DateFormat, v.value(startIdx), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("start date must look like %s", v.cfg.DateFormat)
	}
	end, err := time.ParseInLocation(v.cfg.DateFormat, v.value(startIdx+1), time.Local)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("end date must look like %s", v.cfg.DateFormat)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, errors.New("end is before start")
	}
	return start, end, nil
}

func (v *ChartView) submitForm() {
	var err error
	switch v.form {
	case formTask:
		err = v.submitTask()
	case formInstance:
		err = v.submitInstance()
	case formSubTask:
		err = v.submitSubTask()
	case formEditInstance:
		err = v.submitEditInstance()
	case formEditTask:
		err = v.submitEditTask()
	case formEditSubTask:
		err = v.submitEditSubTask()
	case formProject:
		err = v.submitProject()
	case formHighlight:
		v.submitHighlight()
		v.editing = false
		return
	}
	if err != nil {
		v.setStatus(log.ErrorLevel, err.Error())
		return
	}
	v.editing = false
	v.dirty = true
	v.ensureVisible()
}

func (v *ChartView) submitTask() error {
	name := v.value(0)
	if name == "" {
		return errors.New("name is required")
	}
	if v.pool.Contains(name) {
		return fmt.Errorf("task %q already exists", name)
	}

	t := v.pool.AddTask(name)
	if !v.pool.AssignColor(t) {
		v.logger.Warn("palette exhausted, task left black", "task", name)
	}
	if v.pool.Detail() {
		t.AddSubTask(models.DefaultSubTaskName, models.Blue)
	}
	v.cursor = v.rowOf(t, nil)
	v.setStatus(log.InfoLevel, "Added "+name+".")
	return nil
}

func (v *ChartView) submitInstance() error {
	r, ok := v.selected()
	if !ok {
		return errors.New("no row selected")
	}
	start, end, err := v.parseRange(0)
	if err != nil {
		return err
	}

	if r.sub != nil {
		if !r.sub.AddInstance(start, end) {
			v.setStatus(log.InfoLevel, "Merged into an existing instance of "+r.sub.Name()+".")
			return nil
		}
		si := r.sub.InstanceOn(start)
		if si != nil && !covered(r.task, si) {
			v.setStatus(log.WarnLevel, si.DefinitionName()+" lies outside "+r.task.Name()+"; revalidate will drop it.")
			return nil
		}
		v.setStatus(log.InfoLevel, "Scheduled "+r.sub.Name()+".")
		return nil
	}

	if !r.task.AddInstance(start, end) {
		v.setStatus(log.InfoLevel, "Merged into an existing instance of "+r.task.Name()+".")
		return nil
	}
	v.setStatus(log.InfoLevel, "Scheduled "+r.task.Name()+".")
	return nil
}

func (v *ChartView) submitSubTask() error {
	r, ok := v.selected()
	if !ok {
		return errors.New("no row selected")
	}
	name := v.value(0)
	if name == "" {
		return errors.New("name is required")
	}
	start, end, err := v.parseRange(1)
	if err != nil {
		return err
	}
	var attrs []string
	for _, a := range strings.Split(v.value(3), ",") {
		if a = strings.TrimSpace(a); a != "" {
			attrs = append(attrs, a)
		}
	}

	st := r.task.AddSubTaskWithInstance(name, v.pool.ClaimShade(r.task), start, end, attrs)
	r.task.SetFolded(false)
	v.cursor = v.rowOf(r.task, st)
	if !covered(r.task, st.Instance(0)) {
		v.setStatus(log.WarnLevel, name+" lies outside "+r.task.Name()+"; revalidate will drop it.")
		return nil
	}
	v.setStatus(log.InfoLevel, "Added "+name+" to "+r.task.Name()+".")
	return nil
}

func (v *ChartView) submitEditInstance() error {
	t, st := v.editTarget()
	if t == nil {
		return errors.New("the task is gone")
	}
	start, end, err := v.parseRange(0)
	if err != nil {
		return err
	}

	if st != nil {
		si := st.InstanceByID(v.editInst)
		if si == nil {
			return errors.New("the instance is gone")
		}
		st.Reschedule(si, start, end)
		v.moveDay(start)
		if st.InstanceOn(models.Truncate(start)) == nil {
			v.setStatus(log.WarnLevel, st.Name()+" lies outside "+t.Name()+" and was dropped.")
			return nil
		}
		v.setStatus(log.InfoLevel, "Moved "+st.Name()+".")
		return nil
	}

	ti := t.InstanceByID(v.editInst)
	if ti == nil {
		return errors.New("the instance is gone")
	}
	t.Reschedule(ti, start, end)
	v.moveDay(start)
	v.setStatus(log.InfoLevel, "Moved "+t.Name()+".")
	return nil
}

func (v *ChartView) submitEditTask() error {
	t, _ := v.editTarget()
	if t == nil {
		return errors.New("the task is gone")
	}
	name := v.value(0)
	if name == "" {
		return errors.New("name is required")
	}
	if name != t.Name() && v.pool.Contains(name) {
		return fmt.Errorf("task %q already exists", name)
	}

	if c := v.value(1); c != "" && c != v.colorName(t) {
		e := v.pool.Palette().LookupName(c)
		if e == nil {
			return fmt.Errorf("no palette color named %q", c)
		}
		if err := v.pool.Recolor(t, e); err != nil {
			return err
		}
		v.logger.Debug("recolored task", "task", t.Name(), "color", e.Name)
	}
	t.SetName(name)
	v.setStatus(log.InfoLevel, "Updated "+name+".")
	return nil
}

func (v *ChartView) submitEditSubTask() error {
	_, st := v.editTarget()
	if st == nil {
		return errors.New("the subtask is gone")
	}
	name := v.value(0)
	if name == "" {
		return errors.New("name is required")
	}
	st.SetName(name)
	st.ClearAttributes()
	st.AddAttributes(v.value(1))
	v.setStatus(log.InfoLevel, "Updated "+name+".")
	return nil
}

func (v *ChartView) submitProject() error {
	name := v.value(0)
	if name == "" {
		return errors.New("name is required")
	}
	start, end, err := v.parseRange(1)
	if err != nil {
		return err
	}
	v.pool.SetProjectName(name)
	v.pool.SetStartDate(start)
	v.pool.SetEndDate(end)
	v.clampDay()
	v.scrollToDay()
	v.setStatus(log.InfoLevel, "Project updated.")
	return nil
}

func (v *ChartView) submitHighlight() {
	v.highlight = v.value(0)
	if v.highlight == "" {
		v.setStatus(log.InfoLevel, "Highlight cleared.")
		return
	}
	n := 0
	for _, t := range v.pool.Tasks() {
		for _, st := range t.SubTasks() {
			if st.HasAttribute(v.highlight) {
				n++
			}
		}
	}
	v.setStatus(log.InfoLevel, fmt.Sprintf("%d subtasks marked %q.", n, v.highlight))
}

func (v *ChartView) moveDay(day time.Time) {
	v.day = models.Truncate(day)
	v.clampDay()
	v.scrollToDay()
}

func covered(t *models.Task, si *models.SubTaskInstance) bool {
	for _, ti := range t.Instances() {
		if ti.Includes(si) {
			return true
		}
	}
	return false
}

func (v *ChartView) toggleFold() {
	r, ok := v.selected()
	if !ok || !v.pool.Detail() {
		return
	}
	r.task.SetFolded(!r.task.Folded())
	v.cursor = v.rowOf(r.task, nil)
	v.ensureVisible()
}

func (v *ChartView) move(up bool) {
	r, ok := v.selected()
	if !ok {
		return
	}
	if r.sub != nil {
		r.task.MoveSubTask(r.sub, up)
	} else {
		v.pool.MoveTask(r.task, up)
	}
	v.cursor = v.rowOf(r.task, r.sub)
	v.dirty = true
	v.ensureVisible()
}

// confirmDelete removes the instance under the day cursor, or the whole row
// when nothing is scheduled there
func (v *ChartView) confirmDelete() {
	r, ok := v.selected()
	if !ok {
		return
	}
	day := v.day.Format(v.cfg.DateFormat)

	switch {
	case r.sub != nil && r.sub.InstanceOn(v.day) != nil:
		si := r.sub.InstanceOn(v.day)
		v.askConfirm("Delete Instance?",
			fmt.Sprintf("The %s instance of \"%s\" on %s will be deleted.", formatSpan(si.Range(), v.cfg.DateFormat), r.sub.Name(), day),
			func() { r.sub.RemoveInstance(si) }, "Deleted instance.")

	case r.sub != nil:
		if r.task.NumberOfSubTasks() == 1 {
			v.setStatus(log.WarnLevel, "A task keeps at least one subtask in detail mode.")
			return
		}
		v.askConfirm("Delete Subtask?",
			fmt.Sprintf("\"%s\" and its instances will be deleted.", r.sub.Name()),
			func() {
				v.pool.ReleaseShade(r.sub)
				r.task.RemoveSubTask(r.sub)
			}, "Deleted "+r.sub.Name()+".")

	case r.task.InstanceOn(v.day) != nil:
		ti := r.task.InstanceOn(v.day)
		text := fmt.Sprintf("The %s instance of \"%s\" will be deleted.", formatSpan(ti.Range(), v.cfg.DateFormat), r.task.Name())
		if n := ti.NumberOfSubTaskInstances(); n > 0 {
			text += fmt.Sprintf(" %d subtask instances inside it go too.", n)
		}
		v.askConfirm("Delete Instance?", text, func() { r.task.RemoveInstanceOn(v.day) }, "Deleted instance.")

	default:
		v.askConfirm("Delete Task?",
			fmt.Sprintf("\"%s\" and everything scheduled for it will be deleted.", r.task.Name()),
			func() {
				v.pool.ReleaseColors(r.task)
				v.pool.DeleteTask(r.task)
			}, "Deleted "+r.task.Name()+".")
	}
}

func (v *ChartView) toggleDetail() {
	if !v.pool.Detail() {
		v.pool.ConvertToDetail(true)
		v.dirty = true
		v.setStatus(log.InfoLevel, "Detail on.")
		return
	}
	v.askConfirm("Turn Detail Off?",
		"All subtasks will be deleted. Turning detail on again does not bring them back.",
		func() { v.pool.ConvertToDetail(false) }, "Detail off.")
}

func (v *ChartView) askConfirm(title, text string, action func(), success string) {
	v.confirming = true
	v.confirmTitle = title
	v.confirmText = text
	v.confirmAction = action
	v.confirmSuccess = success
}

func (v *ChartView) save() error {
	if err := v.db.SaveProject(v.project.ID, v.pool); err != nil {
		v.logger.Error("save project", "id", v.project.ID, "err", err)
		v.setStatus(log.ErrorLevel, "Save failed: "+err.Error())
		return err
	}
	v.logger.Debug("saved project", "id", v.project.ID, "tasks", v.pool.NumberOfTasks())
	v.dirty = false
	return nil
}

func (v *ChartView) saveIfDirty() error {
	if !v.dirty || v.pool == nil {
		return nil
	}
	return v.save()
}

func (v *ChartView) setStatus(level log.Level, text string) {
	v.status = text
	v.statusLevel = level
}

func (v *ChartView) rows() []row {
	if v.pool == nil {
		return nil
	}
	var rows []row
	for _, t := range v.pool.Tasks() {
		rows = append(rows, row{task: t})
		if !v.pool.Detail() || t.Folded() {
			continue
		}
		for _, st := range t.SubTasks() {
			rows = append(rows, row{task: t, sub: st})
		}
	}
	return rows
}

func (v *ChartView) selected() (row, bool) {
	rows := v.rows()
	if v.cursor < 0 || v.cursor >= len(rows) {
		return row{}, false
	}
	return rows[v.cursor], true
}

// selectionIDs returns the IDs of the selected task and subtask
func (v *ChartView) selectionIDs() (string, string) {
	r, ok := v.selected()
	switch {
	case !ok:
		return "", ""
	case r.sub != nil:
		return r.task.ID(), r.sub.ID()
	}
	return r.task.ID(), ""
}

// restoreSelection puts the cursor back on a row after the rows changed. A
// subtask that is gone or folded away falls back to its task; a task that
// is gone keeps the cursor position.
func (v *ChartView) restoreSelection(taskID, subID string) {
	defer v.ensureVisible()
	t := v.pool.TaskByID(taskID)
	if t == nil {
		v.cursor = clamp(v.cursor, 0, max(0, len(v.rows())-1))
		return
	}
	if st := t.SubTaskByID(subID); st != nil {
		if i := slices.IndexFunc(v.rows(), func(r row) bool { return r.sub == st }); i >= 0 {
			v.cursor = i
			return
		}
	}
	v.cursor = v.rowOf(t, nil)
}

func (v *ChartView) rowOf(t *models.Task, st *models.SubTask) int {
	for i, r := range v.rows() {
		if r.task == t && r.sub == st {
			return i
		}
	}
	return clamp(v.cursor, 0, max(0, len(v.rows())-1))
}

func (v *ChartView) labelWidth() int {
	return clamp(v.width/4, 12, 28)
}

func (v *ChartView) visibleDays() int {
	fit := (v.width - v.labelWidth() - 1) / 2
	return clamp(fit, 1, max(1, v.cfg.ChartDays))
}

func (v *ChartView) visibleRows() int {
	// title, blank, two header lines, status, help with padding
	return max(1, v.height-9)
}

func (v *ChartView) ensureVisible() {
	visible := v.visibleRows()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visible {
		v.offset = v.cursor - visible + 1
	}
	v.offset = max(0, v.offset)
}

func (v *ChartView) clampDay() {
	if v.pool == nil {
		return
	}
	if v.day.Before(v.pool.StartDate()) {
		v.day = v.pool.StartDate()
	}
	if v.day.After(v.pool.EndDate()) {
		v.day = v.pool.EndDate()
	}
}

// scrollToDay moves the window so the selected day is on screen
func (v *ChartView) scrollToDay() {
	days := v.visibleDays()
	if v.day.Before(v.first) {
		v.first = v.day
	}
	if last := v.first.AddDate(0, 0, days-1); v.day.After(last) {
		v.first = v.day.AddDate(0, 0, -(days - 1))
	}
}

func formatSpan(r models.DateRange, layout string) string {
	return r.Start.Format(layout) + " - " + r.End.Format(layout)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// View renders the view
func (v *ChartView) View() string {
	if v.showHelpPopup {
		return v.renderHelpPopup()
	}

	if v.confirming {
		return v.renderConfirm()
	}

	if v.editing {
		return v.renderForm()
	}

	if !v.loaded {
		return v.styles.TitleMuted.Render("Loading...")
	}

	var b strings.Builder
	b.WriteString(v.renderTitle())
	b.WriteString("\n\n")

	if v.pool == nil {
		b.WriteString(v.renderStatus())
		return b.String()
	}

	b.WriteString(v.renderDayHeader())
	b.WriteString("\n")
	b.WriteString(v.renderRows())
	b.WriteString("\n")
	b.WriteString(v.renderStatus())
	b.WriteString(v.renderHelp())
	return b.String()
}

func (v *ChartView) renderTitle() string {
	s := v.styles
	name := v.project.Name
	if v.pool != nil {
		name = v.pool.ProjectName()
	}
	title := s.Title.Render(name)
	if v.dirty {
		title += s.TitleMuted.Render(" *")
	}
	if v.pool != nil && v.pool.Detail() {
		title += s.TitleMuted.Render("  detail")
	}
	if v.highlight != "" {
		title += s.Highlighted.Render("  /" + v.highlight)
	}
	return title
}

func (v *ChartView) renderDayHeader() string {
	s := v.styles
	days := v.visibleDays()
	pad := strings.Repeat(" ", v.labelWidth()+1)
	today := models.Truncate(v.now())

	months := []rune(strings.Repeat(" ", days*2))
	var nums strings.Builder
	for i := range days {
		d := v.first.AddDate(0, 0, i)
		if i == 0 || d.Day() == 1 {
			label := []rune(d.Format("Jan 06"))
			copy(months[i*2:], label[:min(len(label), len(months)-i*2)])
		}

		cell := fmt.Sprintf("%2d", d.Day())
		switch {
		case d.Equal(v.day):
			nums.WriteString(s.RowSelected.Render(cell))
		case d.Equal(today):
			nums.WriteString(s.DayToday.Render(cell))
		case d.Weekday() == time.Saturday || d.Weekday() == time.Sunday:
			nums.WriteString(s.DayWeekend.Render(cell))
		default:
			nums.WriteString(s.DayHeader.Render(cell))
		}
	}
	return pad + s.DayHeader.Render(string(months)) + "\n" + pad + nums.String()
}

func (v *ChartView) renderRows() string {
	s := v.styles
	rows := v.rows()
	if len(rows) == 0 {
		return s.TitleMuted.Render("No tasks. Press 'n' to add one.") + "\n"
	}

	labelWidth := v.labelWidth()
	days := v.visibleDays()
	end := min(len(rows), v.offset+v.visibleRows())

	var b strings.Builder
	for i := v.offset; i < end; i++ {
		r := rows[i]
		selected := i == v.cursor

		var label string
		var c models.Color
		switch {
		case r.sub != nil:
			label = "   " + r.sub.Name()
			c = r.sub.Color()
		case v.pool.Detail() && r.task.Folded():
			label = "▸ " + r.task.Name()
			c = r.task.Color()
		case v.pool.Detail():
			label = "▾ " + r.task.Name()
			c = r.task.Color()
		default:
			label = "  " + r.task.Name()
			c = r.task.Color()
		}

		labelStyle := s.RowLabel
		if r.sub != nil {
			labelStyle = s.SubTaskLabel
		}
		marked := r.sub != nil && v.highlight != "" && r.sub.HasAttribute(v.highlight)
		if marked {
			labelStyle = s.Highlighted
		}
		if selected {
			labelStyle = s.RowSelected
		}
		b.WriteString(styles.Bar(c.Hex()).Render(" "))
		b.WriteString(labelStyle.Width(labelWidth).Render(truncate(label, labelWidth)))

		bar := styles.Bar(c.Hex())
		if r.sub != nil && v.highlight != "" && !marked {
			bar = styles.Bar(string(styles.Current.Border))
		}
		for d := range days {
			day := v.first.AddDate(0, 0, d)
			var scheduled bool
			if r.sub != nil {
				scheduled = r.sub.InstanceOn(day) != nil
			} else {
				scheduled = r.task.InstanceOn(day) != nil
			}
			cursor := selected && day.Equal(v.day)
			switch {
			case scheduled && cursor:
				b.WriteString(bar.Render("<>"))
			case scheduled:
				b.WriteString(bar.Render("  "))
			case cursor:
				b.WriteString(s.RowSelected.Render("<>"))
			default:
				b.WriteString(s.EmptyCell.Render("· "))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v *ChartView) renderStatus() string {
	if v.status == "" {
		return ""
	}
	switch v.statusLevel {
	case log.ErrorLevel:
		return v.styles.StatusError.Render(v.status) + "\n"
	case log.WarnLevel:
		return v.styles.StatusWarning.Render(v.status) + "\n"
	}
	return v.styles.StatusBar.Render(v.status) + "\n"
}

func (v *ChartView) renderHelp() string {
	if v.width > 0 && v.width < 70 {
		return v.styles.Help.Render(v.styles.HelpKey.Render("?") + " help")
	}
	return v.styles.Help.Render(
		fmt.Sprintf("%s task • %s schedule • %s subtask • %s edit • %s del • %s fold • %s detail • %s save • %s back • %s help",
			v.styles.HelpKey.Render("n"),
			v.styles.HelpKey.Render("i"),
			v.styles.HelpKey.Render("s"),
			v.styles.HelpKey.Render("e"),
			v.styles.HelpKey.Render("d"),
			v.styles.HelpKey.Render("space"),
			v.styles.HelpKey.Render("D"),
			v.styles.HelpKey.Render("ctrl+s"),
			v.styles.HelpKey.Render("esc"),
			v.styles.HelpKey.Render("?"),
		),
	)
}

func (v *ChartView) renderHelpPopup() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	bindings := []key.Binding{
		v.keys.Up, v.keys.Down, v.keys.Left, v.keys.Right, v.keys.Today,
		v.keys.New, v.keys.NewInstance, v.keys.NewSubTask, v.keys.Edit, v.keys.Delete,
		v.keys.Fold, v.keys.FoldAll, v.keys.MoveUp, v.keys.MoveDown,
		v.keys.Detail, v.keys.Revalidate, v.keys.Settings, v.keys.Highlight, v.keys.Save, v.keys.Back, v.keys.Quit,
	}
	helpItems := make([]string, 0, len(bindings)+2)
	for _, kb := range bindings {
		h := kb.Help()
		helpItems = append(helpItems, s.HelpKey.Width(8).Render(h.Key)+s.HelpDesc.Render(h.Desc))
	}
	helpItems = append(helpItems, "", s.TitleMuted.Render("Press any key to close"))

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{s.Title.Render("Keyboard Shortcuts"), ""}, helpItems...)...,
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		s.Popup.Render(content),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ChartView) renderForm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)
	inputWidth := clamp(contentWidth-6, 20, 50)

	title := "New Task"
	switch v.form {
	case formInstance:
		if r, ok := v.selected(); ok && r.sub != nil {
			title = "Schedule " + r.sub.Name()
		} else if ok {
			title = "Schedule " + r.task.Name()
		}
	case formSubTask:
		if r, ok := v.selected(); ok {
			title = "New Subtask of " + r.task.Name()
		}
	case formEditInstance:
		title = "Edit Instance"
	case formEditTask, formEditSubTask:
		title = "Edit"
		if t, st := v.editTarget(); st != nil {
			title += " " + st.Name()
		} else if t != nil {
			title += " " + t.Name()
		}
	case formProject:
		title = "Project Settings"
	case formHighlight:
		title = "Highlight Attribute"
	}
	button, hint := " Add ", "Ctrl+S: add"
	if v.form >= formEditInstance {
		button, hint = " Save ", "Ctrl+S: save"
	}

	lines := []string{s.Title.Render(title), ""}
	for i, in := range v.inputs {
		style := s.Input
		if i == v.focusIdx {
			style = s.InputFocused
		}
		lines = append(lines, v.labels[i], style.Width(inputWidth).Render(in.View()), "")
	}
	btnStyle := s.Button
	if v.focusIdx == len(v.inputs) {
		btnStyle = s.ButtonFocused
	}
	lines = append(lines, btnStyle.Render(button), "")
	if v.status != "" && v.statusLevel == log.ErrorLevel {
		lines = append(lines, s.StatusError.Render(v.status), "")
	}
	lines = append(lines, s.TitleMuted.Render("Tab: next • "+hint+" • Esc: cancel"))

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Left, lines...),
	)
	return styles.CenterView(centered, v.width, v.height)
}

func (v *ChartView) renderConfirm() string {
	s := v.styles
	contentWidth := styles.ContentWidth(v.width)

	content := lipgloss.JoinVertical(lipgloss.Center,
		s.Title.Foreground(styles.Current.Error).Render(v.confirmTitle),
		"",
		s.TitleMuted.Width(clamp(contentWidth-4, 20, 60)).Align(lipgloss.Center).Render(v.confirmText),
		"",
		lipgloss.JoinHorizontal(lipgloss.Center,
			s.ButtonPrimary.Render(" Y - Yes "),
			"  ",
			s.Button.Render(" N - No "),
		),
	)

	centered := lipgloss.Place(contentWidth, v.height,
		lipgloss.Center, lipgloss.Center,
		content,
	)
	return styles.CenterView(centered, v.width, v.height)
}
