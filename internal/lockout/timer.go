// Package lockout schedules the single deferred auto-transition a device may
// have pending, such as unlocking a panel after a failed-attempt lockout.
package lockout

import (
	"sync"
	"time"

	"device_controller/internal/fsm"
	"device_controller/internal/ports"

	"github.com/google/uuid"
)

// Timer holds at most one live token. Arming a new token supersedes the old
// one, and a superseded or cancelled token never reaches its fire func.
type Timer struct {
	sched ports.Scheduler

	mu   sync.Mutex
	live fsm.TimerToken
	stop func() bool
}

func New(sched ports.Scheduler) *Timer {
	return &Timer{sched: sched}
}

// Arm schedules fire(token) after delay and returns the token.
// fire runs on the scheduler's goroutine; it must only post an event.
func (t *Timer) Arm(purpose string, delay time.Duration, fire func(fsm.TimerToken)) fsm.TimerToken {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.cancelLocked()

	tok := fsm.TimerToken{ID: uuid.New(), Purpose: purpose}
	t.live = tok
	t.stop = t.sched.AfterFunc(delay, func() {
		t.mu.Lock()
		current := t.live == tok
		t.mu.Unlock()
		if current {
			fire(tok)
		}
	})
	return tok
}

// Cancel invalidates the live token. It reports whether one was live.
func (t *Timer) Cancel() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelLocked()
}

// Live returns the live token, if any. A token stays live after firing
// until the owner cancels it on leaving the timed state.
func (t *Timer) Live() (fsm.TimerToken, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live, !t.live.IsZero()
}

// Matches reports whether tok is the live token.
func (t *Timer) Matches(tok fsm.TimerToken) bool {
	if tok.IsZero() {
		return false
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.live == tok
}

func (t *Timer) cancelLocked() bool {
	if t.live.IsZero() {
		return false
	}
	if t.stop != nil {
		t.stop()
	}
	t.live = fsm.TimerToken{}
	t.stop = nil
	return true
}
