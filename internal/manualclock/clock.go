// Package manualclock provides a clock whose time only moves when told to.
// The scenario runner and the device tests use it for deterministic time.
package manualclock

import (
	"sort"
	"sync"
	"time"

	"device_controller/internal/ports"
)

// Clock is a ports.Clock and ports.Scheduler whose time only moves when told to.
// Scheduled funcs run synchronously inside Advance or Set, in due order.
//
// Thread-safety: all methods are safe for concurrent use; callbacks are
// invoked without the internal lock held.
type Clock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*pendingTimer
}

var (
	_ ports.Clock     = (*Clock)(nil)
	_ ports.Scheduler = (*Clock)(nil)
)

type pendingTimer struct {
	at      time.Time
	seq     int
	f       func()
	stopped bool
	fired   bool
}

// New starts at start; HourOf uses start's location.
func New(start time.Time) *Clock {
	return &Clock{now: start}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) HourOf(t time.Time) int {
	c.mu.Lock()
	loc := c.now.Location()
	c.mu.Unlock()
	return t.In(loc).Hour()
}

func (c *Clock) AfterFunc(d time.Duration, f func()) func() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	t := &pendingTimer{at: c.now.Add(d), seq: c.seq, f: f}
	c.timers = append(c.timers, t)
	return func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		if t.stopped || t.fired {
			return false
		}
		t.stopped = true
		return true
	}
}

// Advance moves time forward by d, firing every timer that comes due.
// It returns the number of timers fired.
func (c *Clock) Advance(d time.Duration) int {
	c.mu.Lock()
	target := c.now.Add(d)
	c.mu.Unlock()
	return c.advanceTo(target)
}

// Set jumps to t (forward or backward) and fires timers due by then.
func (c *Clock) Set(t time.Time) int {
	return c.advanceTo(t)
}

// AtHour returns the current day at hour h, in the clock's location.
func (c *Clock) AtHour(h int) time.Time {
	now := c.Now()
	y, m, d := now.Date()
	return time.Date(y, m, d, h, 0, 0, 0, now.Location())
}

// Pending counts timers that are neither fired nor stopped.
func (c *Clock) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *Clock) advanceTo(target time.Time) int {
	fired := 0
	for {
		c.mu.Lock()
		next := c.nextDueLocked(target)
		if next == nil {
			c.now = target
			c.mu.Unlock()
			return fired
		}
		next.fired = true
		if next.at.After(c.now) {
			c.now = next.at
		}
		c.mu.Unlock()

		next.f()
		fired++
	}
}

func (c *Clock) nextDueLocked(target time.Time) *pendingTimer {
	var due []*pendingTimer
	for _, t := range c.timers {
		if !t.stopped && !t.fired && !t.at.After(target) {
			due = append(due, t)
		}
	}
	if len(due) == 0 {
		return nil
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].at.Equal(due[j].at) {
			return due[i].seq < due[j].seq
		}
		return due[i].at.Before(due[j].at)
	})
	return due[0]
}
