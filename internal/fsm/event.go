package fsm

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind tags the variant held by an Event.
type Kind uint8

const (
	KindTick Kind = iota + 1
	KindCredentialChar
	KindSelectFunction
	KindTimerFired
	KindOverride
)

func (k Kind) String() string {
	switch k {
	case KindTick:
		return "tick"
	case KindCredentialChar:
		return "credential_char"
	case KindSelectFunction:
		return "select_function"
	case KindTimerFired:
		return "timer_fired"
	case KindOverride:
		return "override"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Snapshot is the sensor reading carried by a tick.
type Snapshot struct {
	Temperature  int  `json:"temperature_c"`
	WaterPresent bool `json:"water_present"`
	Fault        bool `json:"fault"`
}

// TimerToken identifies one pending deferred transition.
// Purpose names the state the token was armed for.
type TimerToken struct {
	ID      uuid.UUID `json:"id"`
	Purpose string    `json:"purpose"`
}

func (t TimerToken) IsZero() bool { return t.ID == uuid.Nil }

// Event is one input to Engine.Step. Only the fields that belong to Kind are set.
type Event struct {
	Kind     Kind
	At       time.Time
	Snapshot Snapshot   // KindTick
	Char     rune       // KindCredentialChar
	Function int        // KindSelectFunction
	Token    TimerToken // KindTimerFired
	Reason   string     // KindOverride
}

func Tick(at time.Time, s Snapshot) Event {
	return Event{Kind: KindTick, At: at, Snapshot: s}
}

func CredentialChar(c rune) Event {
	return Event{Kind: KindCredentialChar, Char: c}
}

func SelectFunction(fn int) Event {
	return Event{Kind: KindSelectFunction, Function: fn}
}

// TimerFired is the synthetic event a fired lockout timer posts back.
func TimerFired(tok TimerToken) Event {
	return Event{Kind: KindTimerFired, Token: tok}
}

// Override is an operator reset that forces a policy back to its idle state.
func Override(reason string) Event {
	return Event{Kind: KindOverride, Reason: reason}
}

// Valid reports whether the event is well-formed for its kind.
func (e Event) Valid() bool {
	switch e.Kind {
	case KindTick:
		return !e.At.IsZero()
	case KindCredentialChar:
		return e.Char != 0
	case KindSelectFunction, KindOverride:
		return true
	case KindTimerFired:
		return !e.Token.IsZero()
	default:
		return false
	}
}
