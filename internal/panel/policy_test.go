package panel

import (
	"testing"
	"time"

	"device_controller/internal/fsm"
	"device_controller/internal/lockout"
	"device_controller/internal/ports"
	"device_controller/internal/manualclock"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type harness struct {
	clock  *manualclock.Clock
	timer  *lockout.Timer
	policy *Policy
	engine *fsm.Engine[State]
	rec    *fsm.Recorder
	ran    []int
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	store, err := ports.NewStaticSecret("1234")
	require.NoError(t, err)
	return newHarnessWithStore(t, store)
}

func newHarnessWithStore(t *testing.T, store ports.CredentialStore) *harness {
	t.Helper()
	h := &harness{
		clock: manualclock.New(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
		rec:   &fsm.Recorder{},
	}
	h.timer = lockout.New(h.clock)
	runner := ports.FunctionRunnerFunc(func(fn int) { h.ran = append(h.ran, fn) })
	p, err := NewPolicy(DefaultConfig(), store, h.timer, runner)
	require.NoError(t, err)
	h.policy = p
	e, err := fsm.New[State]("door", p, fsm.WithObserver(h.rec), fsm.WithNow(h.clock.Now))
	require.NoError(t, err)
	h.engine = e
	return h
}

// enter types a credential one character at a time and returns the last result.
func (h *harness) enter(code string) (State, bool) {
	var (
		st State
		ok bool
	)
	for _, c := range code {
		st, ok = h.engine.Step(fsm.CredentialChar(c))
	}
	return st, ok
}

func (h *harness) lock(t *testing.T) {
	t.Helper()
	for _, code := range []string{"0000", "0000", "0000"} {
		h.enter(code)
	}
	require.Equal(t, Locked, h.engine.Current())
}

func TestPolicy_PanelScenario(t *testing.T) {
	h := newHarness(t)

	st, ok := h.enter("1235")
	require.True(t, ok)
	require.Equal(t, AwaitingCredential, st)
	require.Equal(t, 1, h.policy.Attempts())

	h.enter("1236")
	require.Equal(t, 2, h.policy.Attempts())

	st, _ = h.enter("1237")
	require.Equal(t, Locked, st)
	require.Equal(t, 3, h.policy.Attempts())
	require.Equal(t, 1, h.clock.Pending(), "exactly one lockout timer is armed")
	require.Len(t, h.rec.NoticesWithCode(NoticeLocked), 1)

	require.Equal(t, 0, h.clock.Advance(119*time.Second))
	require.Equal(t, 1, h.clock.Advance(time.Second))
	require.Equal(t, Locked, h.engine.Current(), "the timer posts; it never mutates state directly")
	require.Equal(t, 1, h.engine.Pending())

	require.Equal(t, 1, h.engine.Drain())
	require.Equal(t, AwaitingCredential, h.engine.Current())
	require.Equal(t, 0, h.policy.Attempts())
	_, live := h.timer.Live()
	require.False(t, live, "token is destroyed when Locked is left")

	st, _ = h.enter("1234")
	require.Equal(t, FunctionSelect, st)

	st, ok = h.engine.Step(fsm.SelectFunction(1))
	require.True(t, ok)
	require.Equal(t, AwaitingCredential, st)
	require.Equal(t, []int{1}, h.ran)
}

func TestPolicy_CorrectCredentialResetsCounter(t *testing.T) {
	for fails := 0; fails < 3; fails++ {
		h := newHarness(t)
		for i := 0; i < fails; i++ {
			h.enter("9999")
		}
		require.Equal(t, fails, h.policy.Attempts())

		st, ok := h.enter("1234")
		require.True(t, ok)
		require.Equal(t, FunctionSelect, st)
		require.Equal(t, 0, h.policy.Attempts())
		require.Equal(t, 0, h.policy.Buffered())
	}
}

func TestPolicy_BufferClearedOnEveryVerification(t *testing.T) {
	h := newHarness(t)
	h.engine.Step(fsm.CredentialChar('1'))
	h.engine.Step(fsm.CredentialChar('2'))
	require.Equal(t, 2, h.policy.Buffered())

	h.engine.Step(fsm.CredentialChar('3'))
	h.engine.Step(fsm.CredentialChar('9'))
	require.Equal(t, 0, h.policy.Buffered())
	require.Equal(t, 1, h.policy.Attempts())
}

func TestPolicy_LockedRejectsInput(t *testing.T) {
	h := newHarness(t)
	h.lock(t)

	for _, ev := range []fsm.Event{
		fsm.CredentialChar('1'),
		fsm.SelectFunction(1),
		fsm.Tick(h.clock.Now(), fsm.Snapshot{}),
	} {
		st, ok := h.engine.Step(ev)
		require.False(t, ok)
		require.Equal(t, Locked, st)
	}
	h.enter("1234")
	require.Equal(t, Locked, h.engine.Current(), "even the right credential is refused while locked")
	require.Equal(t, 3, h.policy.Attempts())
}

func TestPolicy_RejectsEventsNotAcceptedInState(t *testing.T) {
	tests := []struct {
		name  string
		state State
		drive func(t *testing.T, h *harness)
		ev    fsm.Event
	}{
		{"select while awaiting", AwaitingCredential, func(*testing.T, *harness) {}, fsm.SelectFunction(1)},
		{"tick while awaiting", AwaitingCredential, func(*testing.T, *harness) {}, fsm.Tick(time.Now(), fsm.Snapshot{})},
		{"char while selecting", FunctionSelect, func(_ *testing.T, h *harness) { h.enter("1234") }, fsm.CredentialChar('1')},
		{"unknown function", FunctionSelect, func(_ *testing.T, h *harness) { h.enter("1234") }, fsm.SelectFunction(42)},
		{"function zero", FunctionSelect, func(_ *testing.T, h *harness) { h.enter("1234") }, fsm.SelectFunction(0)},
		{"char while locked", Locked, func(t *testing.T, h *harness) { h.lock(t) }, fsm.CredentialChar('1')},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			tt.drive(t, h)
			require.Equal(t, tt.state, h.engine.Current())
			before := len(h.rec.Rejections)

			st, ok := h.engine.Step(tt.ev)
			require.False(t, ok)
			require.Equal(t, tt.state, st)
			require.Len(t, h.rec.Rejections, before+1)
			require.True(t, fsm.IsRejected(h.rec.Rejections[before]))
		})
	}
}

func TestPolicy_StaleTimerTokenIgnoredWhileLocked(t *testing.T) {
	h := newHarness(t)
	h.lock(t)

	stale := fsm.TimerToken{ID: uuid.New(), Purpose: Locked.String()}
	st, ok := h.engine.Step(fsm.TimerFired(stale))
	require.False(t, ok)
	require.Equal(t, Locked, st)
	require.Empty(t, h.rec.Rejections, "an ignored timer is not reported as a rejection")
}

func TestPolicy_TimerRaceAfterOverrideIsNoop(t *testing.T) {
	h := newHarness(t)
	h.lock(t)
	tok, live := h.timer.Live()
	require.True(t, live)

	st, ok := h.engine.Step(fsm.Override("operator"))
	require.True(t, ok)
	require.Equal(t, AwaitingCredential, st)
	require.Equal(t, 0, h.policy.Attempts())
	require.Equal(t, 0, h.clock.Pending(), "leaving Locked cancels the timer")

	// a fire that was already in flight when the override landed
	h.engine.Post(fsm.TimerFired(tok))
	require.Equal(t, 1, h.engine.Drain())
	require.Equal(t, AwaitingCredential, h.engine.Current())
	require.Equal(t, 1, h.rec.EntriesInto(AwaitingCredential.String()))

	h.clock.Advance(time.Hour)
	require.Equal(t, 0, h.engine.Pending())
}

func TestPolicy_RelockArmsFreshTimer(t *testing.T) {
	h := newHarness(t)
	h.lock(t)
	first, _ := h.timer.Live()

	h.clock.Advance(120 * time.Second)
	h.engine.Drain()
	require.Equal(t, AwaitingCredential, h.engine.Current())

	h.lock(t)
	second, live := h.timer.Live()
	require.True(t, live)
	require.NotEqual(t, first.ID, second.ID)
	require.Equal(t, 1, h.clock.Pending())
}

func TestPolicy_OverrideFromFunctionSelectDoesNotRunFunction(t *testing.T) {
	h := newHarness(t)
	h.enter("1234")
	st, ok := h.engine.Step(fsm.Override("operator"))
	require.True(t, ok)
	require.Equal(t, AwaitingCredential, st)
	require.Empty(t, h.ran)
}

func TestPolicy_WorksWithHashedSecret(t *testing.T) {
	hash, err := ports.HashSecret("1234")
	require.NoError(t, err)
	store, err := ports.NewHashedSecret(hash)
	require.NoError(t, err)

	h := newHarnessWithStore(t, store)
	st, _ := h.enter("1234")
	require.Equal(t, FunctionSelect, st)
}

func TestPolicy_FactsMaskInput(t *testing.T) {
	h := newHarness(t)
	h.engine.Step(fsm.CredentialChar('1'))
	h.engine.Step(fsm.CredentialChar('2'))
	facts := h.policy.Facts()
	require.Equal(t, "**", facts["entered"])
	require.Equal(t, 0, facts["attempts"])
	require.NotContains(t, facts, "lockout_token")

	h.engine.Step(fsm.Override("operator"))
	h.lock(t)
	require.Contains(t, h.policy.Facts(), "lockout_token")
}

func TestNewPolicy_Validation(t *testing.T) {
	store, _ := ports.NewStaticSecret("1234")
	timer := lockout.New(manualclock.New(time.Now()))

	for _, mutate := range []func(*Config){
		func(c *Config) { c.CredentialLength = 0 },
		func(c *Config) { c.AttemptLimit = 0 },
		func(c *Config) { c.LockoutDelay = 0 },
		func(c *Config) { c.Functions = 0 },
	} {
		cfg := DefaultConfig()
		mutate(&cfg)
		_, err := NewPolicy(cfg, store, timer, nil)
		require.Error(t, err)
	}

	_, err := NewPolicy(DefaultConfig(), nil, timer, nil)
	require.Error(t, err)

	p, err := NewPolicy(DefaultConfig(), store, timer, nil)
	require.NoError(t, err)
	require.NotNil(t, p.functions)
}
