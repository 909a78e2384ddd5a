package models

import (
	"time"

	"github.com/google/uuid"
)

// TaskInstance is one scheduled occurrence of a Task
type TaskInstance struct {
	id    string
	r     DateRange
	owner *Task
}

func newTaskInstance(owner *Task, start, end time.Time) *TaskInstance {
	return &TaskInstance{
		id:    uuid.NewString(),
		r:     NewDateRange(start, end),
		owner: owner,
	}
}

func (ti *TaskInstance) ID() string           { return ti.id }
func (ti *TaskInstance) Owner() *Task         { return ti.owner }
func (ti *TaskInstance) Start() time.Time     { return ti.r.Start }
func (ti *TaskInstance) End() time.Time       { return ti.r.End }
func (ti *TaskInstance) Range() DateRange     { return ti.r }
func (ti *TaskInstance) Days() int            { return ti.r.Days() }
func (ti *TaskInstance) SetStart(t time.Time) { ti.r.Start = Truncate(t) }
func (ti *TaskInstance) SetEnd(t time.Time)   { ti.r.End = Truncate(t) }

// Contains reports whether date falls within the instance
func (ti *TaskInstance) Contains(date time.Time) bool {
	return ti.r.Contains(date)
}

// Includes reports whether the sub-instance starts or ends inside this
// instance. A sub-instance spanning the whole instance is not included.
func (ti *TaskInstance) Includes(si *SubTaskInstance) bool {
	return ti.r.Contains(si.r.Start) || ti.r.Contains(si.r.End)
}

// SubTaskInstances collects, across every subtask of the owner, the
// sub-instances this instance includes
func (ti *TaskInstance) SubTaskInstances() []*SubTaskInstance {
	var out []*SubTaskInstance
	for _, st := range ti.owner.subTasks {
		for _, si := range st.instances {
			if ti.Includes(si) {
				out = append(out, si)
			}
		}
	}
	return out
}

// NumberOfSubTaskInstances returns len(SubTaskInstances())
func (ti *TaskInstance) NumberOfSubTaskInstances() int {
	return len(ti.SubTaskInstances())
}

// Remove deletes every sub-instance this instance includes. The instance
// itself stays in its task; use Task.RemoveInstance to drop both.
func (ti *TaskInstance) Remove() {
	for _, si := range ti.SubTaskInstances() {
		si.Remove()
	}
}

// SubTaskInstance is one scheduled occurrence of a SubTask
type SubTaskInstance struct {
	id         string
	r          DateRange
	definition *SubTask
}

func newSubTaskInstance(def *SubTask, start, end time.Time) *SubTaskInstance {
	return &SubTaskInstance{
		id:         uuid.NewString(),
		r:          NewDateRange(start, end),
		definition: def,
	}
}

func (si *SubTaskInstance) ID() string             { return si.id }
func (si *SubTaskInstance) Definition() *SubTask   { return si.definition }
func (si *SubTaskInstance) Start() time.Time       { return si.r.Start }
func (si *SubTaskInstance) End() time.Time         { return si.r.End }
func (si *SubTaskInstance) Range() DateRange       { return si.r }
func (si *SubTaskInstance) Days() int              { return si.r.Days() }
func (si *SubTaskInstance) SetStart(t time.Time)   { si.r.Start = Truncate(t) }
func (si *SubTaskInstance) SetEnd(t time.Time)     { si.r.End = Truncate(t) }
func (si *SubTaskInstance) DefinitionName() string { return si.definition.name }

// Contains reports whether date falls within the sub-instance
func (si *SubTaskInstance) Contains(date time.Time) bool {
	return si.r.Contains(date)
}

// Remove detaches the sub-instance from its subtask
func (si *SubTaskInstance) Remove() {
	si.definition.RemoveInstance(si)
}

// clamp narrows the sub-instance into the first task instance that
// includes it and reports whether one did. A sub-instance reaching from one
// instance into the next keeps the part inside the first.
func (si *SubTaskInstance) clamp() bool {
	for _, ti := range si.definition.owner.instances {
		if !ti.Includes(si) {
			continue
		}
		if si.r.Start.Before(ti.r.Start) {
			si.r.Start = ti.r.Start
		}
		if si.r.End.After(ti.r.End) {
			si.r.End = ti.r.End
		}
		return true
	}
	return false
}

// Revalidate narrows the sub-instance into the task instance that includes
// it, or removes it when none does. It then runs one merge step on its
// subtask. Task.Revalidate is the full pass.
func (si *SubTaskInstance) Revalidate() {
	if !si.clamp() {
		si.Remove()
	}
	si.definition.RevalidateInstances()
}
