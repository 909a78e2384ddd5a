package models

import "time"

// DateStyle selects the granularity a chart is drawn in
type DateStyle int

const (
	ByHour DateStyle = 1
	ByDay  DateStyle = 2
)

// Truncate drops the time-of-day part of t, keeping its location
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Date returns local midnight of the given day
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.Local)
}

// FromMillis converts epoch milliseconds into a local time
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).In(time.Local)
}

// DayCount returns the number of days in [start, end], inclusive.
// It steps one calendar day at a time so DST shifts and leap days
// are counted as whole days.
func DayCount(start, end time.Time) int {
	days := 0
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days++
	}
	return days
}

// DaysBetween counts the day increments from a until it passes b
func DaysBetween(a, b time.Time) int {
	return DayCount(a, b)
}

// DateRange is a whole-day interval with both ends included
type DateRange struct {
	Start time.Time
	End   time.Time
}

// NewDateRange truncates both ends to whole days
func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: Truncate(start), End: Truncate(end)}
}

// Contains reports whether date lies within the range
func (r DateRange) Contains(date time.Time) bool {
	return !date.Before(r.Start) && !date.After(r.End)
}

// Days returns the inclusive day count of the range
func (r DateRange) Days() int {
	return DayCount(r.Start, r.End)
}

// Valid reports whether the range is not inverted
func (r DateRange) Valid() bool {
	return !r.End.Before(r.Start)
}

// absorbs applies the three overlap clauses of an insertion of [start, end]
// against an existing range, widening the existing range where the clauses
// say so. The clauses are checked in a fixed order and each one that matches
// is applied.
func absorbs(existing *DateRange, start, end time.Time) bool {
	merged := false
	// new range lies inside the existing one
	if !start.Before(existing.Start) && !end.After(existing.End) {
		merged = true
	}
	// new range starts earlier and reaches into the existing one
	if !start.After(existing.Start) && !start.After(existing.End) && !end.Before(existing.Start) {
		existing.Start = start
		merged = true
	}
	// new range overlaps the existing end and runs past it
	if !start.After(existing.End) && !end.Before(existing.End) {
		existing.End = end
		merged = true
	}
	return merged
}

// touches reports whether b (starting no earlier than a) overlaps a or
// begins on the day right after a ends
func touches(a, b DateRange) bool {
	return !a.End.Before(b.Start.AddDate(0, 0, -1)) && !a.Start.After(b.End)
}

// span returns the smallest range covering both a and b
func span(a, b DateRange) DateRange {
	out := a
	if b.Start.Before(out.Start) {
		out.Start = b.Start
	}
	if b.End.After(out.End) {
		out.End = b.End
	}
	return out
}

// insertIndex returns the position after the last range whose start
// precedes start
func insertIndex(n int, startAt func(i int) time.Time, start time.Time) int {
	idx := 0
	for i := 0; i < n; i++ {
		if start.After(startAt(i)) {
			idx = i + 1
		}
	}
	return idx
}
