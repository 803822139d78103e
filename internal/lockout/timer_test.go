package lockout

import (
	"testing"
	"time"

	"device_controller/internal/fsm"
	"device_controller/internal/manualclock"

	"github.com/stretchr/testify/require"
)

func newClock() *manualclock.Clock {
	return manualclock.New(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))
}

func TestTimer_FiresOnceAfterDelay(t *testing.T) {
	clk := newClock()
	tm := New(clk)

	var fired []fsm.TimerToken
	tok := tm.Arm("Locked", 120*time.Second, func(tok fsm.TimerToken) { fired = append(fired, tok) })

	require.False(t, tok.IsZero())
	require.Equal(t, "Locked", tok.Purpose)
	require.True(t, tm.Matches(tok))

	require.Equal(t, 0, clk.Advance(119*time.Second))
	require.Empty(t, fired)

	require.Equal(t, 1, clk.Advance(time.Second))
	require.Equal(t, []fsm.TimerToken{tok}, fired)

	clk.Advance(time.Hour)
	require.Len(t, fired, 1, "a token fires exactly once")

	live, ok := tm.Live()
	require.True(t, ok, "token stays live until the owner cancels it")
	require.Equal(t, tok, live)
}

func TestTimer_CancelPreventsFire(t *testing.T) {
	clk := newClock()
	tm := New(clk)

	calls := 0
	tok := tm.Arm("Locked", time.Minute, func(fsm.TimerToken) { calls++ })

	require.True(t, tm.Cancel())
	require.False(t, tm.Cancel(), "second cancel has nothing to cancel")
	require.False(t, tm.Matches(tok))

	clk.Advance(2 * time.Minute)
	require.Zero(t, calls)
	require.Zero(t, clk.Pending())
}

func TestTimer_ArmSupersedesPreviousToken(t *testing.T) {
	clk := newClock()
	tm := New(clk)

	var fired []fsm.TimerToken
	record := func(tok fsm.TimerToken) { fired = append(fired, tok) }

	first := tm.Arm("Locked", time.Minute, record)
	second := tm.Arm("Locked", 2*time.Minute, record)
	require.NotEqual(t, first.ID, second.ID)
	require.False(t, tm.Matches(first))
	require.True(t, tm.Matches(second))
	require.Equal(t, 1, clk.Pending(), "only one token is live per timer")

	clk.Advance(3 * time.Minute)
	require.Equal(t, []fsm.TimerToken{second}, fired)
}

func TestTimer_FireAfterCancelRaceIsNoop(t *testing.T) {
	clk := newClock()
	tm := New(clk)

	calls := 0
	tm.Arm("Locked", time.Minute, func(fsm.TimerToken) { calls++ })

	// Simulate the scheduler having already dispatched the callback: the
	// stop func loses, but the callback must still see the token is gone.
	tm.mu.Lock()
	tm.stop = func() bool { return false }
	tm.mu.Unlock()

	tm.Cancel()
	clk.Advance(time.Minute)
	require.Zero(t, calls)
}

func TestTimer_MatchesRejectsZeroToken(t *testing.T) {
	tm := New(newClock())
	require.False(t, tm.Matches(fsm.TimerToken{}))
}
