package fsm

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInitialState = errors.New("policy initial state is not valid")
	ErrNilPolicy           = errors.New("policy is nil")
)

// RejectedError describes an event that is not accepted in the current state.
// It is never fatal; the engine only reports it.
type RejectedError struct {
	Device string
	State  string
	Event  Kind
	Reason string
}

func (e *RejectedError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("%s: %s not accepted in state %s: %s", e.Device, e.Event, e.State, e.Reason)
	}
	return fmt.Sprintf("%s: %s not accepted in state %s", e.Device, e.Event, e.State)
}

func IsRejected(err error) bool {
	var e *RejectedError
	return errors.As(err, &e)
}
