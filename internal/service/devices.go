package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"device_controller/internal/fsm"
	"device_controller/internal/lockout"
	"device_controller/internal/logger"
	"device_controller/internal/panel"
	"device_controller/internal/ports"
	"device_controller/internal/thermostat"
)

// Device is the type-erased view of one engine.
type Device interface {
	Device() string
	Kind() string
	State() string
	Post(ev fsm.Event)
	Run(ctx context.Context)
}

var (
	_ Device = (*fsm.Engine[thermostat.State])(nil)
	_ Device = (*fsm.Engine[panel.State])(nil)
)

// DevicesConfig names and parameterizes the two controllers.
type DevicesConfig struct {
	ThermostatName string
	Thermostat     thermostat.Config
	PanelName      string
	Panel          panel.Config
}

// Devices owns the thermostat and the access panel together with the
// in-memory ports they drive.
type Devices struct {
	Thermostat *fsm.Engine[thermostat.State]
	Panel      *fsm.Engine[panel.State]

	Sensors *ports.MemorySensors
	Relay   *ports.MemoryRelay
	Faults  *ports.MemoryFaultLatch
	Lockout *lockout.Timer

	byName map[string]Device
}

var ErrDeviceNotFound = errors.New("device not found")

// NewDevices builds both engines. The clock decides the thermostat's hour of
// day; the scheduler backs the panel's lockout timer.
func NewDevices(
	cfg DevicesConfig,
	clock ports.Clock,
	sched ports.Scheduler,
	store ports.CredentialStore,
	observer fsm.Observer,
	log *logger.Logger,
) (*Devices, error) {
	if cfg.ThermostatName == cfg.PanelName {
		return nil, fmt.Errorf("device names must differ, both are %q", cfg.ThermostatName)
	}
	if log == nil {
		log = logger.Nop()
	}

	d := &Devices{
		Sensors: ports.NewMemorySensors(cfg.Thermostat.LowC, true),
		Relay:   &ports.MemoryRelay{},
		Faults:  &ports.MemoryFaultLatch{},
		Lockout: lockout.New(sched),
	}

	opts := []fsm.Option{fsm.WithLogger(log), fsm.WithNow(clock.Now)}
	if observer != nil {
		opts = append(opts, fsm.WithObserver(observer))
	}

	tp, err := thermostat.NewPolicy(cfg.Thermostat, clock, d.Relay, d.Faults)
	if err != nil {
		return nil, fmt.Errorf("thermostat %q: %w", cfg.ThermostatName, err)
	}
	if d.Thermostat, err = fsm.New[thermostat.State](cfg.ThermostatName, tp, opts...); err != nil {
		return nil, fmt.Errorf("thermostat %q: %w", cfg.ThermostatName, err)
	}

	functions := ports.FunctionRunnerFunc(func(fn int) {
		log.Device(cfg.PanelName, panel.Kind).Infow("panel_function_executed", "function", fn)
	})
	pp, err := panel.NewPolicy(cfg.Panel, store, d.Lockout, functions)
	if err != nil {
		return nil, fmt.Errorf("panel %q: %w", cfg.PanelName, err)
	}
	if d.Panel, err = fsm.New[panel.State](cfg.PanelName, pp, opts...); err != nil {
		return nil, fmt.Errorf("panel %q: %w", cfg.PanelName, err)
	}

	d.byName = map[string]Device{
		cfg.ThermostatName: d.Thermostat,
		cfg.PanelName:      d.Panel,
	}
	return d, nil
}

// Get looks a device up by name.
func (d *Devices) Get(name string) (Device, error) {
	dev, ok := d.byName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, name)
	}
	return dev, nil
}

// Names lists device names in sorted order.
func (d *Devices) Names() []string {
	names := make([]string, 0, len(d.byName))
	for n := range d.byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Run starts every engine's owner loop and blocks until ctx is done and
// all loops have returned.
func (d *Devices) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, dev := range d.byName {
		wg.Add(1)
		go func(dev Device) {
			defer wg.Done()
			dev.Run(ctx)
		}(dev)
	}
	wg.Wait()
	d.Lockout.Cancel()
}
