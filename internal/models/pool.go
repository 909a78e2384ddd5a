package models

import (
	"errors"
	"fmt"
	"slices"
	"time"
)

// DefaultProjectName is used when a project has no name
const DefaultProjectName = "Untitled"

// DefaultSubTaskName names the subtask synthesized when detail is enabled
const DefaultSubTaskName = "SubTask"

// Pool holds every task of a project, the project metadata and the color
// palette.
type Pool struct {
	projectName string
	start       time.Time
	end         time.Time
	dateStyle   DateStyle
	detail      bool
	tasks       []*Task
	palette     *Palette
}

// NewPool creates an empty pool
func NewPool(name string) *Pool {
	if name == "" {
		name = DefaultProjectName
	}
	return &Pool{
		projectName: name,
		start:       Date(1900, time.February, 1),
		end:         Date(2500, time.February, 1),
		dateStyle:   ByDay,
		palette:     NewPalette(),
	}
}

func (p *Pool) ProjectName() string        { return p.projectName }
func (p *Pool) SetProjectName(name string) { p.projectName = name }
func (p *Pool) StartDate() time.Time       { return p.start }
func (p *Pool) SetStartDate(t time.Time)   { p.start = Truncate(t) }
func (p *Pool) EndDate() time.Time         { return p.end }
func (p *Pool) SetEndDate(t time.Time)     { p.end = Truncate(t) }
func (p *Pool) DateStyle() DateStyle       { return p.dateStyle }
func (p *Pool) Detail() bool               { return p.detail }
func (p *Pool) SetDetail(detail bool)      { p.detail = detail }
func (p *Pool) Palette() *Palette          { return p.palette }

// SetDateStyle accepts ByHour or ByDay and ignores anything else
func (p *Pool) SetDateStyle(style DateStyle) {
	if style == ByHour || style == ByDay {
		p.dateStyle = style
	}
}

// AddTask creates a task and appends it. Name uniqueness is up to the
// caller (see Contains).
func (p *Pool) AddTask(name string) *Task {
	t := NewTask(name)
	p.tasks = append(p.tasks, t)
	return t
}

// AppendTask adds an already built task
func (p *Pool) AppendTask(t *Task) {
	p.tasks = append(p.tasks, t)
}

// DeleteTask clears t and removes it from the pool. Colors claimed by the
// task stay claimed; see ReleaseColors.
func (p *Pool) DeleteTask(t *Task) {
	t.Clear()
	p.tasks = slices.DeleteFunc(p.tasks, func(x *Task) bool { return x == t })
}

// ReleaseColors frees the palette entries held by t and its subtasks
func (p *Pool) ReleaseColors(t *Task) {
	p.ReleaseShades(t)
	p.palette.Release(p.palette.Lookup(t.color))
}

// ReleaseShades frees every shade held by the subtasks of t, shared ones
// included. Use it when all of them go at once.
func (p *Pool) ReleaseShades(t *Task) {
	top := p.palette.Lookup(t.color)
	for _, st := range t.subTasks {
		p.palette.Release(p.palette.LookupSub(top, st.color))
	}
}

// Recolor moves t to the palette entry e, releasing the entry it held.
// Subtask shades are left alone.
func (p *Pool) Recolor(t *Task, e *ColorEntry) error {
	if e == nil || p.palette.Lookup(e.Color) != e {
		return ErrNotTopColor
	}
	if t.colored && t.color == e.Color {
		return nil
	}
	if e.InUse {
		return fmt.Errorf("%w: %s", ErrColorInUse, e.Name)
	}
	if t.colored {
		p.palette.Release(p.palette.Lookup(t.color))
	}
	p.palette.Claim(e)
	t.SetColor(e.Color)
	return nil
}

// ReleaseShade frees the shade of st unless a sibling still uses it.
// Call it before removing a single subtask.
func (p *Pool) ReleaseShade(st *SubTask) {
	t := st.owner
	for _, other := range t.subTasks {
		if other != st && other.color == st.color {
			return
		}
	}
	p.palette.Release(p.palette.LookupSub(p.palette.Lookup(t.color), st.color))
}

// AssignColor gives t the first free palette color and claims it. It
// reports false and leaves t alone when every color is taken.
func (p *Pool) AssignColor(t *Task) bool {
	e := p.palette.Allocate(nil)
	if e == nil {
		return false
	}
	p.palette.Claim(e)
	t.SetColor(e.Color)
	return true
}

// ClaimShade picks and claims the first free shade of t's color. Blue is
// returned when t has no palette color or no free shade is left.
func (p *Pool) ClaimShade(t *Task) Color {
	top := p.palette.Lookup(t.color)
	if !t.colored || top == nil {
		return Blue
	}
	e := p.palette.Allocate(top)
	if e == nil {
		return Blue
	}
	p.palette.Claim(e)
	return e.Color
}

// Task returns the i-th task
func (p *Pool) Task(i int) *Task {
	return p.tasks[i]
}

// TaskByID finds a task by its stable ID
func (p *Pool) TaskByID(id string) *Task {
	for _, t := range p.tasks {
		if t.id == id {
			return t
		}
	}
	return nil
}

// Tasks returns a copy of the task list in display order
func (p *Pool) Tasks() []*Task {
	return slices.Clone(p.tasks)
}

// NumberOfTasks returns the task count
func (p *Pool) NumberOfTasks() int {
	return len(p.tasks)
}

// NumberOfTasksAndSubTasks counts tasks plus all their subtask definitions
func (p *Pool) NumberOfTasksAndSubTasks() int {
	n := len(p.tasks)
	for _, t := range p.tasks {
		n += len(t.subTasks)
	}
	return n
}

// Contains reports whether a task named name exists
func (p *Pool) Contains(name string) bool {
	return slices.ContainsFunc(p.tasks, func(t *Task) bool { return t.name == name })
}

// TaskIndex returns the position of t, or -1
func (p *Pool) TaskIndex(t *Task) int {
	return slices.Index(p.tasks, t)
}

// MoveTask swaps t with its predecessor (up) or successor; no-op at the ends
func (p *Pool) MoveTask(t *Task, up bool) {
	swapNeighbour(p.tasks, p.TaskIndex(t), up)
}

// SetFolded folds or unfolds every task
func (p *Pool) SetFolded(folded bool) {
	for _, t := range p.tasks {
		t.folded = folded
	}
}

// NumberOfDays returns the inclusive day count of the project bounds
func (p *Pool) NumberOfDays() int {
	return DayCount(p.start, p.end)
}

// DaysFromStart counts the days from the project start through date
func (p *Pool) DaysFromStart(date time.Time) int {
	return DaysBetween(p.start, date)
}

// ConvertToDetail switches the detail level. Enabling gives every task one
// blue "SubTask" mirroring its instances; disabling releases their shades,
// drops all subtasks and cannot be undone. Asking for the current level
// does nothing.
func (p *Pool) ConvertToDetail(enable bool) {
	if enable == p.detail {
		return
	}
	p.detail = enable
	for _, t := range p.tasks {
		if enable {
			st := t.AddSubTask(DefaultSubTaskName, Blue)
			for _, ti := range t.instances {
				st.AddInstance(ti.r.Start, ti.r.End)
			}
			continue
		}
		p.ReleaseShades(t)
		t.RemoveAllSubTasks()
	}
}

// Revalidate revalidates every task
func (p *Pool) Revalidate() {
	for _, t := range p.tasks {
		t.Revalidate()
	}
}

// ReplaceWith moves the whole state of other into p
func (p *Pool) ReplaceWith(other *Pool) {
	*p = *other
}

var (
	ErrNotTopColor = errors.New("not a top-level palette color")
	ErrColorInUse  = errors.New("color already in use")
)

// ErrColorShared is returned by CheckColors when two tasks use one color
var ErrColorShared = errors.New("color shared by two tasks")

// CheckColors verifies that no two tasks with an assigned color share it
func (p *Pool) CheckColors() error {
	seen := make(map[Color]string, len(p.tasks))
	for _, t := range p.tasks {
		if !t.colored {
			continue
		}
		if other, ok := seen[t.color]; ok {
			return fmt.Errorf("%w: %q and %q are both %s", ErrColorShared, other, t.name, t.color.Hex())
		}
		seen[t.color] = t.name
	}
	return nil
}
