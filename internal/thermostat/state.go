package thermostat

import (
	"errors"
	"fmt"
)

// State is the thermostat's operating state.
type State uint8

const (
	Normal State = iota + 1
	Sleep
	Fault
)

func (s State) String() string {
	switch s {
	case Normal:
		return "Normal"
	case Sleep:
		return "Sleep"
	case Fault:
		return "Fault"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

func (s State) Valid() bool {
	return s >= Normal && s <= Fault
}

// Config holds the thresholds and the sleep window.
type Config struct {
	LowC           int // heat below this when water is present
	HighC          int // never heat at or above this
	SleepStartHour int // sleep window is [SleepStartHour, WakeHour), wrapping midnight
	WakeHour       int
}

func DefaultConfig() Config {
	return Config{
		LowC:           20,
		HighC:          100,
		SleepStartHour: 23,
		WakeHour:       7,
	}
}

var (
	errThresholds  = errors.New("thermostat: low threshold must be below high threshold")
	errHourRange   = errors.New("thermostat: sleep and wake hours must be within 0..23")
	errEmptyWindow = errors.New("thermostat: sleep start and wake hour must differ")
)

func (c Config) Validate() error {
	if c.LowC >= c.HighC {
		return errThresholds
	}
	if c.SleepStartHour < 0 || c.SleepStartHour > 23 || c.WakeHour < 0 || c.WakeHour > 23 {
		return errHourRange
	}
	if c.SleepStartHour == c.WakeHour {
		return errEmptyWindow
	}
	return nil
}
