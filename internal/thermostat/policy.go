// Package thermostat gates a heating relay on temperature, water presence,
// time of day and an external fault signal.
package thermostat

import (
	"errors"

	"device_controller/internal/fsm"
	"device_controller/internal/ports"
)

const Kind = "thermostat"

// Notice codes.
const (
	NoticeOutOfWater = "out_of_water"
	NoticeFault      = "fault"
	NoticeSleeping   = "sleeping"
)

var errMissingPort = errors.New("thermostat: clock and relay are required")

// Policy implements fsm.Policy[State].
//
// Guards are checked in priority order on every tick: fault, then the
// sleep window, then the temperature/water rules of Normal.
type Policy struct {
	cfg    Config
	clock  ports.Clock
	relay  ports.Relay
	faults ports.FaultLatch

	relayOn bool
	last    fsm.Snapshot
	sampled bool
}

var (
	_ fsm.Policy[State] = (*Policy)(nil)
	_ fsm.Inspector     = (*Policy)(nil)
)

// NewPolicy builds the policy. faults may be nil when no latch is wired.
func NewPolicy(cfg Config, clock ports.Clock, relay ports.Relay, faults ports.FaultLatch) (*Policy, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if clock == nil || relay == nil {
		return nil, errMissingPort
	}
	return &Policy{cfg: cfg, clock: clock, relay: relay, faults: faults}, nil
}

func (p *Policy) Kind() string { return Kind }

func (p *Policy) Initial() State { return Normal }

func (p *Policy) Evaluate(_ fsm.Env, current State, ev fsm.Event) fsm.Outcome[State] {
	switch ev.Kind {
	case fsm.KindTick:
	case fsm.KindOverride:
		if current == Normal {
			return fsm.Remain[State]()
		}
		return fsm.MoveTo(Normal)
	default:
		return fsm.Reject[State]("thermostat accepts ticks only")
	}

	p.last = ev.Snapshot
	p.sampled = true

	// Fault lasts one tick. A fault seen again while in Fault was sampled
	// before entry cleared the latch, so it does not extend the excursion.
	if ev.Snapshot.Fault && current != Fault {
		return fsm.MoveTo(Fault)
	}

	if p.asleep(p.clock.HourOf(ev.At)) {
		if current == Sleep {
			return fsm.Remain[State]()
		}
		return fsm.MoveTo(Sleep)
	}

	if current != Normal {
		return fsm.MoveTo(Normal)
	}
	return fsm.Remain[State]()
}

func (p *Policy) Exit(fsm.Env, State, fsm.Event) {}

func (p *Policy) Enter(env fsm.Env, _ State, to State, _ fsm.Event) {
	switch to {
	case Fault:
		p.forceOff()
		p.clearFault()
		env.Notify(NoticeFault, "fault raised, heating stopped")
	case Sleep:
		p.forceOff()
		env.Notify(NoticeSleeping, "sleep window, heating stopped")
	}
}

func (p *Policy) Steady(env fsm.Env, current State, ev fsm.Event) {
	if ev.Kind != fsm.KindTick {
		return
	}
	switch current {
	case Normal:
		p.regulate(env, ev.Snapshot)
	case Sleep:
		p.switchRelay(false)
	}
}

func (p *Policy) Facts() map[string]any {
	facts := map[string]any{"relay_on": p.relayOn}
	if p.sampled {
		facts["temperature_c"] = p.last.Temperature
		facts["water_present"] = p.last.WaterPresent
	}
	return facts
}

// RelayOn reports the last commanded relay position.
func (p *Policy) RelayOn() bool { return p.relayOn }

func (p *Policy) regulate(env fsm.Env, s fsm.Snapshot) {
	switch {
	case s.Temperature < p.cfg.LowC && s.WaterPresent:
		p.switchRelay(true)
	case s.Temperature >= p.cfg.HighC:
		p.switchRelay(false)
	case !s.WaterPresent:
		p.switchRelay(false)
		env.Notify(NoticeOutOfWater, "water tank empty, heating stopped", "temperature_c", s.Temperature)
	}
}

func (p *Policy) asleep(hour int) bool {
	return ports.InWindow(hour, p.cfg.SleepStartHour, p.cfg.WakeHour)
}

// switchRelay commands the relay only when the position changes.
func (p *Policy) switchRelay(on bool) {
	if p.relayOn == on {
		return
	}
	p.relay.Set(on)
	p.relayOn = on
}

func (p *Policy) forceOff() {
	p.relay.Set(false)
	p.relayOn = false
}

func (p *Policy) clearFault() {
	if p.faults != nil && p.faults.Raised() {
		p.faults.Clear()
	}
}
