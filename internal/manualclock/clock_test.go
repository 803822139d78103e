package manualclock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestClock_FiresInDueOrder(t *testing.T) {
	c := New(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	var got []string
	c.AfterFunc(3*time.Second, func() { got = append(got, "c") })
	c.AfterFunc(time.Second, func() { got = append(got, "a") })
	c.AfterFunc(time.Second, func() { got = append(got, "b") })

	require.Equal(t, 2, c.Advance(2*time.Second))
	require.Equal(t, []string{"a", "b"}, got)
	require.Equal(t, 1, c.Pending())

	require.Equal(t, 1, c.Advance(time.Second))
	require.Equal(t, []string{"a", "b", "c"}, got)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 3, 0, time.UTC), c.Now())
}

func TestClock_StopPreventsFire(t *testing.T) {
	c := New(time.Now())
	fired := false
	stop := c.AfterFunc(time.Minute, func() { fired = true })

	require.True(t, stop())
	require.False(t, stop(), "second stop reports nothing to stop")
	require.Zero(t, c.Advance(time.Hour))
	require.False(t, fired)
}

func TestClock_CallbackMayScheduleMore(t *testing.T) {
	c := New(time.Now())
	n := 0
	var again func()
	again = func() {
		n++
		if n < 3 {
			c.AfterFunc(time.Second, again)
		}
	}
	c.AfterFunc(time.Second, again)

	require.Equal(t, 3, c.Advance(10*time.Second))
	require.Equal(t, 3, n)
}

func TestClock_HourOfUsesStartLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	c := New(time.Date(2025, 1, 1, 8, 0, 0, 0, tokyo))

	require.Equal(t, 8, c.HourOf(c.Now().UTC()))
	require.Equal(t, time.Date(2025, 1, 1, 23, 0, 0, 0, tokyo), c.AtHour(23))
}
