// Package fsm drives a device through a closed set of states.
//
// An Engine owns the current state and applies one event at a time. All
// guard logic lives in a Policy, dispatched through a single Evaluate call;
// the engine runs the exit, entry and steady-state hooks in that order.
// Work arriving from other goroutines (timers) goes through Post, never Step.
package fsm

import "fmt"

// State is a member of a policy's closed state enum.
type State interface {
	comparable
	fmt.Stringer
	Valid() bool
}

// Verdict says what the policy made of an event.
type Verdict uint8

const (
	// Accepted events run hooks and may move the machine.
	Accepted Verdict = iota
	// Rejected events are not valid in the current state; reported, no change.
	Rejected
	// Ignored events are dropped silently, e.g. a timer that lost its race.
	Ignored
)

func (v Verdict) String() string {
	switch v {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	case Ignored:
		return "ignored"
	default:
		return fmt.Sprintf("verdict(%d)", uint8(v))
	}
}

// Outcome is the result of evaluating guards for the current state.
type Outcome[S State] struct {
	Verdict Verdict
	Move    bool
	Next    S
	// SkipSteady suppresses the new state's steady action on the entry tick.
	SkipSteady bool
	// Reason explains a rejection.
	Reason string
}

func Remain[S State]() Outcome[S] {
	return Outcome[S]{Verdict: Accepted}
}

func MoveTo[S State](next S) Outcome[S] {
	return Outcome[S]{Verdict: Accepted, Move: true, Next: next}
}

func Reject[S State](reason string) Outcome[S] {
	return Outcome[S]{Verdict: Rejected, Reason: reason}
}

func Ignore[S State]() Outcome[S] {
	return Outcome[S]{Verdict: Ignored}
}

// Env is what a policy may do to the world beyond its own fields.
type Env interface {
	Device() string
	// Post enqueues a synthetic event for a later step.
	Post(ev Event)
	// Notify reports an observable condition such as "out of water".
	Notify(code, message string, kv ...any)
}

// Policy holds the guards and side effects of one device kind.
//
// Evaluate may update the policy's extended state (counters, buffers) but
// must not touch actuators; those commands belong in Exit, Enter and Steady.
type Policy[S State] interface {
	Kind() string
	Initial() S
	Evaluate(env Env, current S, ev Event) Outcome[S]
	Exit(env Env, from S, ev Event)
	Enter(env Env, from, to S, ev Event)
	Steady(env Env, current S, ev Event)
}

// Inspector is implemented by policies that expose extended state
// (relay position, attempt counter) for monitoring.
type Inspector interface {
	Facts() map[string]any
}
