package fsm

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"device_controller/internal/logger"
)

// Engine applies events to one device. Step, Drain and Run belong to a
// single owner goroutine; Current and Post are safe from anywhere.
type Engine[S State] struct {
	name      string
	policy    Policy[S]
	current   S
	published atomic.Value // S
	observers []Observer
	log       *logger.Logger
	now       func() time.Time

	mu      sync.Mutex
	pending []Event
	signal  chan struct{}
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	observers []Observer
	log       *logger.Logger
	now       func() time.Time
}

func WithObserver(o Observer) Option {
	return func(opts *options) {
		if o != nil {
			opts.observers = append(opts.observers, o)
		}
	}
}

func WithLogger(l *logger.Logger) Option {
	return func(opts *options) { opts.log = l }
}

// WithNow overrides the time source used to stamp events that carry none.
func WithNow(now func() time.Time) Option {
	return func(opts *options) { opts.now = now }
}

// New builds an engine sitting in the policy's initial state.
// The initial state's entry action is not run.
func New[S State](name string, p Policy[S], opts ...Option) (*Engine[S], error) {
	if p == nil {
		return nil, ErrNilPolicy
	}
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	initial := p.Initial()
	if !initial.Valid() {
		return nil, ErrInvalidInitialState
	}
	e := &Engine[S]{
		name:      name,
		policy:    p,
		current:   initial,
		observers: o.observers,
		log:       o.log.Device(name, p.Kind()),
		now:       o.now,
		pending:   make([]Event, 0, 16),
		signal:    make(chan struct{}, 1),
	}
	e.published.Store(initial)
	return e, nil
}

func (e *Engine[S]) Device() string { return e.name }

func (e *Engine[S]) Kind() string { return e.policy.Kind() }

// State returns the name of the active state.
func (e *Engine[S]) State() string { return e.Current().String() }

// Current returns the active state without blocking.
func (e *Engine[S]) Current() S {
	return e.published.Load().(S)
}

// Step consumes one event. It returns the state after the step and whether
// the event was accepted. A rejected or ignored event changes nothing.
func (e *Engine[S]) Step(ev Event) (S, bool) {
	from := e.current
	if !ev.Valid() {
		e.reject(from, ev, "malformed event")
		e.report(ev, Rejected)
		return from, false
	}
	if ev.At.IsZero() {
		ev.At = e.now()
	}

	out := e.policy.Evaluate(e, from, ev)
	switch out.Verdict {
	case Rejected:
		e.reject(from, ev, out.Reason)
		e.report(ev, Rejected)
		return from, false
	case Ignored:
		e.log.Debugw("event_ignored", "state", from.String(), "event", ev.Kind.String())
		e.report(ev, Ignored)
		return from, false
	}

	if out.Move && out.Next != from {
		if !out.Next.Valid() {
			e.log.Errorw("policy_invalid_next_state", "state", from.String(), "event", ev.Kind.String())
			e.policy.Steady(e, from, ev)
			e.report(ev, Accepted)
			return from, true
		}
		to := out.Next
		e.policy.Exit(e, from, ev)
		e.current = to
		e.published.Store(to)
		e.transitioned(from, to, ev)
		e.policy.Enter(e, from, to, ev)
		if !out.SkipSteady {
			e.policy.Steady(e, to, ev)
		}
	} else {
		e.policy.Steady(e, from, ev)
	}

	e.report(ev, Accepted)
	return e.current, true
}

// Post enqueues ev for the owner goroutine. It never blocks and never drops.
func (e *Engine[S]) Post(ev Event) {
	e.mu.Lock()
	e.pending = append(e.pending, ev)
	e.mu.Unlock()

	select {
	case e.signal <- struct{}{}:
	default:
	}
}

// Pending returns the number of queued events.
func (e *Engine[S]) Pending() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.pending)
}

// Drain steps every queued event, including ones posted while draining,
// and returns how many were processed.
func (e *Engine[S]) Drain() int {
	n := 0
	for {
		ev, ok := e.pop()
		if !ok {
			return n
		}
		e.Step(ev)
		n++
	}
}

// Run is the owner loop: it drains the inbox each time something is posted
// until ctx is done.
func (e *Engine[S]) Run(ctx context.Context) {
	e.log.Infow("engine_started", "state", e.Current().String())
	defer e.log.Infow("engine_stopped", "state", e.Current().String())
	for {
		e.Drain()
		select {
		case <-ctx.Done():
			return
		case <-e.signal:
		}
	}
}

// Notify implements Env.
func (e *Engine[S]) Notify(code, message string, kv ...any) {
	n := Notice{
		Device:  e.name,
		Kind:    e.policy.Kind(),
		State:   e.current.String(),
		Code:    code,
		Message: message,
		Fields:  fields(kv),
		At:      e.now(),
	}
	e.log.Infow("device_notice", append([]any{"code", code, "message", message}, kv...)...)
	for _, o := range e.observers {
		o.Noticed(n)
	}
}

func (e *Engine[S]) pop() (Event, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.pending) == 0 {
		return Event{}, false
	}
	ev := e.pending[0]
	e.pending = e.pending[1:]
	return ev, true
}

func (e *Engine[S]) reject(state S, ev Event, reason string) {
	err := &RejectedError{Device: e.name, State: state.String(), Event: ev.Kind, Reason: reason}
	e.log.Debugw("event_rejected", "state", err.State, "event", ev.Kind.String(), "reason", reason)
	for _, o := range e.observers {
		o.Rejected(err)
	}
}

func (e *Engine[S]) transitioned(from, to S, ev Event) {
	t := Transition{
		Device: e.name,
		Kind:   e.policy.Kind(),
		From:   from.String(),
		To:     to.String(),
		Event:  ev,
		At:     ev.At,
	}
	e.log.Infow("device_transition", "from", t.From, "to", t.To, "event", ev.Kind.String())
	for _, o := range e.observers {
		o.Transitioned(t)
	}
}

func (e *Engine[S]) report(ev Event, v Verdict) {
	if len(e.observers) == 0 {
		return
	}
	r := Report{
		Device:   e.name,
		Kind:     e.policy.Kind(),
		State:    e.current.String(),
		Event:    ev,
		Verdict:  v,
		Finished: e.now(),
	}
	if in, ok := e.policy.(Inspector); ok {
		r.Facts = in.Facts()
	}
	for _, o := range e.observers {
		o.Stepped(r)
	}
}

// fields turns alternating key/value pairs into a map; a trailing key is dropped.
func fields(kv []any) map[string]any {
	if len(kv) < 2 {
		return nil
	}
	m := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok {
			continue
		}
		m[k] = kv[i+1]
	}
	return m
}
