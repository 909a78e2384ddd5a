package models

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SubTask is a named, colored breakdown of a Task. It owns its instances
// and a list of free-text attributes.
type SubTask struct {
	id         string
	name       string
	color      Color
	owner      *Task
	instances  []*SubTaskInstance
	attributes []string
}

func newSubTask(owner *Task, name string, color Color) *SubTask {
	return &SubTask{
		id:    uuid.NewString(),
		name:  name,
		color: color,
		owner: owner,
	}
}

// ID returns the stable identifier of the subtask
func (st *SubTask) ID() string { return st.id }

// Index returns the current position of the subtask within its task, or -1
// once it has been removed. It shifts when earlier subtasks are removed or
// reordered.
func (st *SubTask) Index() int { return st.owner.SubTaskIndex(st) }

func (st *SubTask) Name() string           { return st.name }
func (st *SubTask) SetName(name string)    { st.name = name }
func (st *SubTask) Color() Color           { return st.color }
func (st *SubTask) SetColor(c Color)       { st.color = c }
func (st *SubTask) Owner() *Task           { return st.owner }
func (st *SubTask) NumberOfInstances() int { return len(st.instances) }

// Instance returns the i-th instance in start order
func (st *SubTask) Instance(i int) *SubTaskInstance {
	return st.instances[i]
}

// Instances returns a copy of the instance list in start order
func (st *SubTask) Instances() []*SubTaskInstance {
	return slices.Clone(st.instances)
}

// AddInstance schedules [start, end]. When the range overlaps an existing
// instance that instance is widened instead and false is returned; false is
// also returned for an inverted range. True means a new instance was
// inserted in start order.
func (st *SubTask) AddInstance(start, end time.Time) bool {
	start, end = Truncate(start), Truncate(end)
	if end.Before(start) {
		return false
	}

	merged := false
	for _, si := range st.instances {
		if absorbs(&si.r, start, end) {
			merged = true
		}
	}
	if merged {
		return false
	}

	idx := insertIndex(len(st.instances), func(i int) time.Time { return st.instances[i].r.Start }, start)
	st.instances = slices.Insert(st.instances, idx, newSubTaskInstance(st, start, end))
	return true
}

// RemoveInstance drops si from the subtask
func (st *SubTask) RemoveInstance(si *SubTaskInstance) {
	st.instances = slices.DeleteFunc(st.instances, func(x *SubTaskInstance) bool { return x == si })
}

// InstanceByID finds an instance by its stable ID
func (st *SubTask) InstanceByID(id string) *SubTaskInstance {
	for _, si := range st.instances {
		if si.id == id {
			return si
		}
	}
	return nil
}

// Reschedule moves si to [start, end]. A task instance the new range
// reaches into is widened to cover it, then the owning task is revalidated,
// which drops si if it lies outside every task instance. Inverted ranges
// and foreign instances are rejected.
func (st *SubTask) Reschedule(si *SubTaskInstance, start, end time.Time) bool {
	r := NewDateRange(start, end)
	if !r.Valid() || si.definition != st {
		return false
	}
	si.r = r
	for _, ti := range st.owner.instances {
		if !r.Start.After(ti.r.Start) && !r.End.Before(ti.r.Start) {
			ti.r.Start = r.Start
		}
		if !r.Start.After(ti.r.End) && !r.End.Before(ti.r.End) {
			ti.r.End = r.End
		}
	}
	st.owner.sortInstances()
	st.sortInstances()
	st.owner.Revalidate()
	return true
}

func (st *SubTask) sortInstances() {
	slices.SortStableFunc(st.instances, func(a, b *SubTaskInstance) int { return a.r.Start.Compare(b.r.Start) })
}

// InstanceOn returns the first instance containing date, or nil
func (st *SubTask) InstanceOn(date time.Time) *SubTaskInstance {
	for _, si := range st.instances {
		if si.Contains(date) {
			return si
		}
	}
	return nil
}

// RevalidateInstances merges the first adjacent pair of instances that
// overlap or touch into one spanning instance. At most one pair is merged
// per call; the return value reports whether a merge happened.
func (st *SubTask) RevalidateInstances() bool {
	for i := 0; i+1 < len(st.instances); i++ {
		a, b := st.instances[i], st.instances[i+1]
		if touches(a.r, b.r) {
			a.r = span(a.r, b.r)
			st.instances = slices.Delete(st.instances, i+1, i+2)
			return true
		}
	}
	return false
}

// Attributes returns a copy of the attribute list
func (st *SubTask) Attributes() []string {
	return slices.Clone(st.attributes)
}

// SetAttributes replaces the attribute list
func (st *SubTask) SetAttributes(attrs []string) {
	st.attributes = slices.Clone(attrs)
}

// AddAttribute appends one attribute
func (st *SubTask) AddAttribute(attr string) {
	st.attributes = append(st.attributes, attr)
}

// AddAttributes splits a comma separated list and appends each non-empty entry
func (st *SubTask) AddAttributes(csv string) {
	for _, part := range strings.Split(csv, ",") {
		if part = strings.TrimSpace(part); part != "" {
			st.AddAttribute(part)
		}
	}
}

// RemoveAttribute drops every occurrence of attr
func (st *SubTask) RemoveAttribute(attr string) {
	st.attributes = slices.DeleteFunc(st.attributes, func(a string) bool { return a == attr })
}

// HasAttribute reports whether attr is set
func (st *SubTask) HasAttribute(attr string) bool {
	return slices.Contains(st.attributes, attr)
}

// ClearAttributes removes all attributes
func (st *SubTask) ClearAttributes() {
	st.attributes = nil
}

// Clear removes all instances and attributes
func (st *SubTask) Clear() {
	st.attributes = nil
	st.instances = nil
}
