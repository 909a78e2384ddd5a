package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Task is a named, colored top-level work item. It owns its instances and
// its subtask definitions.
type Task struct {
	id        string
	name      string
	color     Color
	colored   bool
	folded    bool
	instances []*TaskInstance
	subTasks  []*SubTask
}

// NewTask creates a black, folded task
func NewTask(name string) *Task {
	return &Task{
		id:     uuid.NewString(),
		name:   name,
		color:  Black,
		folded: true,
	}
}

func (t *Task) ID() string            { return t.id }
func (t *Task) Name() string          { return t.name }
func (t *Task) SetName(name string)   { t.name = name }
func (t *Task) Color() Color          { return t.color }
func (t *Task) Folded() bool          { return t.folded }
func (t *Task) SetFolded(folded bool) { t.folded = folded }

// SetColor assigns the task color
func (t *Task) SetColor(c Color) {
	t.color = c
	t.colored = true
}

// HasColor reports whether a color was ever assigned
func (t *Task) HasColor() bool { return t.colored }

// AddInstance schedules [start, end] using the same overlap rules as
// SubTask.AddInstance. False means no separate instance was created: the
// range was absorbed into an existing one, or it was inverted.
func (t *Task) AddInstance(start, end time.Time) bool {
	start, end = Truncate(start), Truncate(end)
	if end.Before(start) {
		return false
	}

	merged := false
	for _, ti := range t.instances {
		if absorbs(&ti.r, start, end) {
			merged = true
		}
	}
	if merged {
		return false
	}

	idx := insertIndex(len(t.instances), func(i int) time.Time { return t.instances[i].r.Start }, start)
	t.instances = slices.Insert(t.instances, idx, newTaskInstance(t, start, end))
	return true
}

// Instance returns the i-th instance in start order
func (t *Task) Instance(i int) *TaskInstance {
	return t.instances[i]
}

// Instances returns a copy of the instance list in start order
func (t *Task) Instances() []*TaskInstance {
	return slices.Clone(t.instances)
}

// NumberOfInstances returns the instance count
func (t *Task) NumberOfInstances() int {
	return len(t.instances)
}

// InstanceOn returns the instance containing date, or nil
func (t *Task) InstanceOn(date time.Time) *TaskInstance {
	for _, ti := range t.instances {
		if ti.Contains(date) {
			return ti
		}
	}
	return nil
}

// InstanceByID finds an instance by its stable ID
func (t *Task) InstanceByID(id string) *TaskInstance {
	for _, ti := range t.instances {
		if ti.id == id {
			return ti
		}
	}
	return nil
}

// Reschedule moves ti to [start, end] and revalidates the task. It reports
// false and changes nothing for an inverted range or a foreign instance.
func (t *Task) Reschedule(ti *TaskInstance, start, end time.Time) bool {
	r := NewDateRange(start, end)
	if !r.Valid() || ti.owner != t {
		return false
	}
	ti.r = r
	t.sortInstances()
	t.Revalidate()
	return true
}

func (t *Task) sortInstances() {
	slices.SortStableFunc(t.instances, func(a, b *TaskInstance) int { return a.r.Start.Compare(b.r.Start) })
}

// RemoveInstance drops ti together with the sub-instances it includes
func (t *Task) RemoveInstance(ti *TaskInstance) {
	ti.Remove()
	t.instances = slices.DeleteFunc(t.instances, func(x *TaskInstance) bool { return x == ti })
}

// RemoveInstanceOn drops every instance containing date
func (t *Task) RemoveInstanceOn(date time.Time) {
	for _, ti := range t.Instances() {
		if ti.Contains(date) {
			t.RemoveInstance(ti)
		}
	}
}

// RevalidateInstances merges the first adjacent pair of instances that
// overlap or touch. One pair per call; reports whether it merged.
func (t *Task) RevalidateInstances() bool {
	for i := 0; i+1 < len(t.instances); i++ {
		a, b := t.instances[i], t.instances[i+1]
		if touches(a.r, b.r) {
			a.r = span(a.r, b.r)
			t.instances = slices.Delete(t.instances, i+1, i+2)
			return true
		}
	}
	return false
}

// Revalidate merges instances until no adjacent pair overlaps or touches.
// Every sub-instance is then clamped to the merged instances, or removed,
// before any sub-instance merge, so each one ends up inside a single task
// instance.
func (t *Task) Revalidate() {
	for t.RevalidateInstances() {
	}
	for _, st := range t.subTasks {
		for _, si := range st.Instances() {
			if !si.clamp() {
				st.RemoveInstance(si)
			}
		}
		st.sortInstances()
		for st.RevalidateInstances() {
		}
	}
}

// AddSubTask appends a new subtask definition
func (t *Task) AddSubTask(name string, color Color) *SubTask {
	st := newSubTask(t, name, color)
	t.subTasks = append(t.subTasks, st)
	return st
}

// AddSubTaskWithInstance appends a subtask with one instance and the given
// attributes
func (t *Task) AddSubTaskWithInstance(name string, color Color, start, end time.Time, attrs []string) *SubTask {
	st := t.AddSubTask(name, color)
	st.AddInstance(start, end)
	for _, a := range attrs {
		st.AddAttribute(a)
	}
	return st
}

// SubTask returns the i-th subtask definition
func (t *Task) SubTask(i int) *SubTask {
	return t.subTasks[i]
}

// SubTaskByID finds a subtask definition by its stable ID
func (t *Task) SubTaskByID(id string) *SubTask {
	for _, st := range t.subTasks {
		if st.id == id {
			return st
		}
	}
	return nil
}

// SubTasks returns a copy of the subtask definitions in display order
func (t *Task) SubTasks() []*SubTask {
	return slices.Clone(t.subTasks)
}

// NumberOfSubTasks returns the definition count
func (t *Task) NumberOfSubTasks() int {
	return len(t.subTasks)
}

// NumberOfSubTaskInstances counts instances across all definitions
func (t *Task) NumberOfSubTaskInstances() int {
	n := 0
	for _, st := range t.subTasks {
		n += len(st.instances)
	}
	return n
}

// SubTaskIndex returns the position of st, or -1
func (t *Task) SubTaskIndex(st *SubTask) int {
	return slices.Index(t.subTasks, st)
}

// RemoveSubTask drops the definition and its instances
func (t *Task) RemoveSubTask(st *SubTask) {
	idx := t.SubTaskIndex(st)
	if idx < 0 {
		return
	}
	st.Clear()
	t.subTasks = slices.Delete(t.subTasks, idx, idx+1)
}

// RemoveAllSubTasks drops every subtask definition
func (t *Task) RemoveAllSubTasks() {
	t.subTasks = nil
}

// MoveSubTask swaps st with its predecessor (up) or successor. At either
// end of the list it does nothing.
func (t *Task) MoveSubTask(st *SubTask, up bool) {
	swapNeighbour(t.subTasks, t.SubTaskIndex(st), up)
}

// Clear drops all instances and subtask definitions
func (t *Task) Clear() {
	t.instances = nil
	for _, st := range t.subTasks {
		st.Clear()
	}
	t.subTasks = nil
}

func swapNeighbour[T any](s []T, i int, up bool) {
	if i < 0 {
		return
	}
	j := i + 1
	if up {
		j = i - 1
	}
	if j < 0 || j >= len(s) {
		return
	}
	s[i], s[j] = s[j], s[i]
}
