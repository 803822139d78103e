// Package scenario replays the reference thermostat day and access panel
// lockout against in-memory ports and a manual clock. The output is a
// deterministic transcript used by the scenario command and golden tests.
package scenario

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"device_controller/internal/fsm"
	"device_controller/internal/lockout"
	"device_controller/internal/panel"
	"device_controller/internal/ports"
	"device_controller/internal/manualclock"
	"device_controller/internal/thermostat"
)

const (
	ThermostatDevice = "thermostat-1"
	PanelDevice      = "panel-1"
	panelSecret      = "1234"
)

var ErrUnknownScenario = errors.New("scenario: unknown scenario")

var scenarios = map[string]func() (string, error){
	"thermostat": Thermostat,
	"panel":      Panel,
}

// Names lists the runnable scenarios.
func Names() []string {
	out := make([]string, 0, len(scenarios))
	for name := range scenarios {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Run writes the transcript of the named scenario to w.
func Run(name string, w io.Writer) error {
	run, ok := scenarios[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	out, err := run()
	if err != nil {
		return fmt.Errorf("scenario %s: %w", name, err)
	}
	_, err = io.WriteString(w, out)
	return err
}

func start() time.Time {
	return time.Date(2025, 6, 1, 8, 0, 0, 0, time.UTC)
}

type reading struct {
	hour  int
	temp  int
	water bool
	fault bool
}

// Thermostat heats a cold tank in the morning, stops at boiling, runs dry
// at 18:00, faults at 19:00, recovers at 20:00 and goes to sleep at 23:00.
func Thermostat() (string, error) {
	clock := manualclock.New(start())
	sensors := ports.NewMemorySensors(0, false)
	relay := &ports.MemoryRelay{}
	faults := &ports.MemoryFaultLatch{}

	policy, err := thermostat.NewPolicy(thermostat.DefaultConfig(), clock, relay, faults)
	if err != nil {
		return "", err
	}
	tr := &transcript{}
	engine, err := fsm.New[thermostat.State](ThermostatDevice, policy,
		fsm.WithObserver(tr), fsm.WithNow(clock.Now))
	if err != nil {
		return "", err
	}
	sampler := thermostat.Sampler{Clock: clock, Temp: sensors, Water: sensors, Faults: faults}

	tr.say("# %s %s, starts %s", thermostat.Kind, ThermostatDevice, engine.Current())
	for _, r := range []reading{
		{hour: 8, temp: 18, water: true},
		{hour: 9, temp: 18, water: true},
		{hour: 10, temp: 18, water: true},
		{hour: 15, temp: 100, water: true},
		{hour: 16, temp: 100, water: true},
		{hour: 17, temp: 100, water: true},
		{hour: 18, temp: 50, water: false},
		{hour: 19, temp: 50, water: true, fault: true},
		{hour: 20, temp: 50, water: true},
		{hour: 23, temp: 50, water: true},
	} {
		clock.Set(clock.AtHour(r.hour))
		sensors.SetTemperature(r.temp)
		sensors.SetPresence(r.water)
		if r.fault {
			faults.Raise()
		}
		engine.Post(sampler.Sample())
		engine.Drain()
	}
	tr.say("# end %s relay_on=%t relay_commands=%d", engine.Current(), relay.On(), len(relay.Commands()))
	return tr.String(), nil
}

// Panel fails the credential three times, sits out the lockout, then
// enters the right credential and runs function 1.
func Panel() (string, error) {
	clock := manualclock.New(start().Add(time.Hour))
	store, err := ports.NewStaticSecret(panelSecret)
	if err != nil {
		return "", err
	}
	timer := lockout.New(clock)
	tr := &transcript{}
	runner := ports.FunctionRunnerFunc(func(fn int) {
		tr.note("run function %d", fn)
	})

	cfg := panel.DefaultConfig()
	policy, err := panel.NewPolicy(cfg, store, timer, runner)
	if err != nil {
		return "", err
	}
	engine, err := fsm.New[panel.State](PanelDevice, policy,
		fsm.WithObserver(tr), fsm.WithNow(clock.Now))
	if err != nil {
		return "", err
	}

	typeCode := func(code string) {
		for _, c := range code {
			engine.Post(fsm.CredentialChar(c))
		}
		engine.Drain()
	}
	advance := func(d time.Duration) {
		fired := clock.Advance(d)
		tr.say("# advance %s to %s, timers fired=%d", d, clock.Now().Format(timeLayout), fired)
		engine.Drain()
	}

	tr.say("# %s %s, starts %s", panel.Kind, PanelDevice, engine.Current())
	typeCode("1235")
	typeCode("1236")
	typeCode("1237")
	typeCode("9")
	advance(cfg.LockoutDelay - time.Second)
	advance(time.Second)
	typeCode(panelSecret)
	engine.Post(fsm.SelectFunction(1))
	engine.Drain()
	tr.say("# end %s attempts=%d", engine.Current(), policy.Attempts())
	return tr.String(), nil
}
