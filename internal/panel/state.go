package panel

import (
	"errors"
	"fmt"
	"time"
)

// State is the access panel's operating state.
type State uint8

const (
	AwaitingCredential State = iota + 1
	FunctionSelect
	Locked
)

func (s State) String() string {
	switch s {
	case AwaitingCredential:
		return "AwaitingCredential"
	case FunctionSelect:
		return "FunctionSelect"
	case Locked:
		return "Locked"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

func (s State) Valid() bool {
	return s >= AwaitingCredential && s <= Locked
}

// Config holds the credential and lockout parameters.
type Config struct {
	CredentialLength int
	AttemptLimit     int
	LockoutDelay     time.Duration
	Functions        int // selectable functions are 1..Functions
}

func DefaultConfig() Config {
	return Config{
		CredentialLength: 4,
		AttemptLimit:     3,
		LockoutDelay:     120 * time.Second,
		Functions:        9,
	}
}

var (
	errCredentialLength = errors.New("panel: credential length must be positive")
	errAttemptLimit     = errors.New("panel: attempt limit must be positive")
	errLockoutDelay     = errors.New("panel: lockout delay must be positive")
	errFunctions        = errors.New("panel: at least one function is required")
)

func (c Config) Validate() error {
	switch {
	case c.CredentialLength < 1:
		return errCredentialLength
	case c.AttemptLimit < 1:
		return errAttemptLimit
	case c.LockoutDelay <= 0:
		return errLockoutDelay
	case c.Functions < 1:
		return errFunctions
	}
	return nil
}
