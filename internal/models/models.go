package models

import "time"

// Project is a saved pool as listed by the project library
type Project struct {
	ID        int64
	Name      string
	Detail    bool
	TaskCount int
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FailedInstance is a stored instance that could not be inserted on its
// own because it overlapped one loaded before it
type FailedInstance struct {
	Task  string
	Range DateRange
}

// UnknownColor is a stored task or subtask color missing from the palette
type UnknownColor struct {
	Task    string
	SubTask string // empty for the task's own color
	Color   Color
}

// LoadReport collects the soft errors of a load. The load itself succeeded.
type LoadReport struct {
	Failed        []FailedInstance
	UnknownColors []UnknownColor
}

// Empty reports whether nothing went wrong
func (r *LoadReport) Empty() bool {
	return r == nil || (len(r.Failed) == 0 && len(r.UnknownColors) == 0)
}
