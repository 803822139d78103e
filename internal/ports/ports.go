// Package ports holds the narrow capability interfaces a device policy talks to.
// Concrete sensors, relays and secret storage are supplied by the environment.
package ports

import "time"

// TemperatureSensor returns the last known temperature in °C.
type TemperatureSensor interface {
	ReadTemperature() int
}

// PresenceSensor reports whether the watched medium (water) is present.
type PresenceSensor interface {
	ReadPresence() bool
}

// Relay is an idempotent, fire-and-forget actuator.
type Relay interface {
	Set(on bool)
}

// FaultLatch holds an externally raised fault signal until the policy clears it.
type FaultLatch interface {
	Raised() bool
	Clear()
}

// Clock supplies wall time and the local hour used by time-of-day guards.
type Clock interface {
	Now() time.Time
	HourOf(t time.Time) int
}

// Scheduler runs f once after d on its own goroutine.
// The returned stop func reports whether the call was prevented.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

// CredentialStore checks a candidate secret without leaking timing information.
type CredentialStore interface {
	Verify(candidate string) bool
}

// FunctionRunner executes a function selected on the access panel.
type FunctionRunner interface {
	Run(function int)
}

// FunctionRunnerFunc adapts a plain func to FunctionRunner.
type FunctionRunnerFunc func(function int)

func (f FunctionRunnerFunc) Run(function int) { f(function) }

// NopFunctions is the placeholder runner: selected functions do nothing.
var NopFunctions FunctionRunner = FunctionRunnerFunc(func(int) {})
