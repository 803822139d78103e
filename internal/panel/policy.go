// Package panel gates function access behind a short credential, with a
// timed lockout after too many failed attempts.
package panel

import (
	"errors"
	"strings"

	"device_controller/internal/fsm"
	"device_controller/internal/lockout"
	"device_controller/internal/ports"
)

const Kind = "access_panel"

// Notice codes.
const (
	NoticeAttemptFailed = "attempt_failed"
	NoticeGranted       = "access_granted"
	NoticeLocked        = "locked"
	NoticeUnlocked      = "unlocked"
	NoticeFunctionRun   = "function_run"
)

var errMissingDependency = errors.New("panel: credential store and lockout timer are required")

// Policy implements fsm.Policy[State].
type Policy struct {
	cfg       Config
	store     ports.CredentialStore
	timer     *lockout.Timer
	functions ports.FunctionRunner

	buffer   []rune
	attempts int
	selected int
}

var (
	_ fsm.Policy[State] = (*Policy)(nil)
	_ fsm.Inspector     = (*Policy)(nil)
)

// NewPolicy builds the policy. A nil runner means selected functions are no-ops.
func NewPolicy(cfg Config, store ports.CredentialStore, timer *lockout.Timer, functions ports.FunctionRunner) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if store == nil || timer == nil {
		return nil, errMissingDependency
	}
	if functions == nil {
		functions = ports.NopFunctions
	}
	return &Policy{
		cfg:       cfg,
		store:     store,
		timer:     timer,
		functions: functions,
		buffer:    make([]rune, 0, cfg.CredentialLength),
	}, nil
}

func (p *Policy) Kind() string { return Kind }

func (p *Policy) Initial() State { return AwaitingCredential }

func (p *Policy) Evaluate(env fsm.Env, current State, ev fsm.Event) fsm.Outcome[State] {
	switch ev.Kind {
	case fsm.KindCredentialChar:
		if current != AwaitingCredential {
			return fsm.Reject[State]("credential input not accepted")
		}
		return p.acceptChar(env, ev.Char)

	case fsm.KindSelectFunction:
		if current != FunctionSelect {
			return fsm.Reject[State]("function selection not accepted")
		}
		if ev.Function < 1 || ev.Function > p.cfg.Functions {
			return fsm.Reject[State]("unknown function")
		}
		p.selected = ev.Function
		return fsm.MoveTo(AwaitingCredential)

	case fsm.KindTimerFired:
		// a token that lost its race against a state change is dropped
		if current != Locked || ev.Token.Purpose != Locked.String() || !p.timer.Matches(ev.Token) {
			return fsm.Ignore[State]()
		}
		return fsm.MoveTo(AwaitingCredential)

	case fsm.KindOverride:
		if current == AwaitingCredential {
			p.reset()
			return fsm.Remain[State]()
		}
		return fsm.MoveTo(AwaitingCredential)

	default:
		return fsm.Reject[State]("panel does not take ticks")
	}
}

func (p *Policy) Exit(env fsm.Env, from State, ev fsm.Event) {
	switch from {
	case Locked:
		p.timer.Cancel()
	case FunctionSelect:
		if ev.Kind == fsm.KindSelectFunction {
			p.functions.Run(p.selected)
			env.Notify(NoticeFunctionRun, "function executed", "function", p.selected)
		}
	}
}

func (p *Policy) Enter(env fsm.Env, from, to State, ev fsm.Event) {
	switch to {
	case FunctionSelect:
		env.Notify(NoticeGranted, "credential accepted")
	case Locked:
		if _, live := p.timer.Live(); live {
			return
		}
		p.timer.Arm(Locked.String(), p.cfg.LockoutDelay, func(tok fsm.TimerToken) {
			env.Post(fsm.TimerFired(tok))
		})
		env.Notify(NoticeLocked, "too many failed attempts, panel locked",
			"attempts", p.attempts, "lockout", p.cfg.LockoutDelay.String())
	case AwaitingCredential:
		if from == Locked || ev.Kind == fsm.KindOverride {
			p.reset()
		}
		if from == Locked {
			env.Notify(NoticeUnlocked, "lockout elapsed, enter credential")
		}
	}
}

func (p *Policy) Steady(fsm.Env, State, fsm.Event) {}

func (p *Policy) Facts() map[string]any {
	facts := map[string]any{
		"attempts":      p.attempts,
		"attempt_limit": p.cfg.AttemptLimit,
		"entered":       strings.Repeat("*", len(p.buffer)),
	}
	if tok, ok := p.timer.Live(); ok {
		facts["lockout_token"] = tok.ID.String()
	}
	return facts
}

// Attempts is the failed-attempt counter, always within [0, AttemptLimit].
func (p *Policy) Attempts() int { return p.attempts }

// Buffered is the number of credential characters entered so far.
func (p *Policy) Buffered() int { return len(p.buffer) }

func (p *Policy) acceptChar(env fsm.Env, c rune) fsm.Outcome[State] {
	p.buffer = append(p.buffer, c)
	if len(p.buffer) < p.cfg.CredentialLength {
		return fsm.Remain[State]()
	}

	candidate := string(p.buffer)
	p.buffer = p.buffer[:0]

	if p.store.Verify(candidate) {
		p.attempts = 0
		return fsm.MoveTo(FunctionSelect)
	}

	p.attempts++
	env.Notify(NoticeAttemptFailed, "credential rejected",
		"attempts", p.attempts, "remaining", p.cfg.AttemptLimit-p.attempts)
	if p.attempts >= p.cfg.AttemptLimit {
		return fsm.MoveTo(Locked)
	}
	return fsm.Remain[State]()
}

func (p *Policy) reset() {
	p.buffer = p.buffer[:0]
	p.attempts = 0
}
