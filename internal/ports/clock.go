package ports

import "time"

// SystemClock is the wall clock in a fixed location.
type SystemClock struct {
	Location *time.Location // nil means time.Local
}

var (
	_ Clock     = SystemClock{}
	_ Scheduler = SystemClock{}
)

func (c SystemClock) Now() time.Time {
	return time.Now().In(c.location())
}

// HourOf returns the hour of t in the clock's location.
func (c SystemClock) HourOf(t time.Time) int {
	return t.In(c.location()).Hour()
}

func (c SystemClock) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

func (c SystemClock) location() *time.Location {
	if c.Location == nil {
		return time.Local
	}
	return c.Location
}

// InWindow reports whether hour lies in the half-open window [start, end).
// A window with start > end wraps midnight, so [23, 7) covers 23..6.
func InWindow(hour, start, end int) bool {
	if start <= end {
		return hour >= start && hour < end
	}
	return hour >= start || hour < end
}
