package service

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"device_controller/internal/fsm"
	"device_controller/internal/models"
	"device_controller/internal/panel"
	"device_controller/internal/ports"
	"device_controller/internal/repository"
	"device_controller/internal/manualclock"
	"device_controller/internal/thermostat"
)

// fakeEventRepo satisfies repository.EventRepo in memory.
type fakeEventRepo struct {
	mu        sync.Mutex
	appended  []models.DeviceEvent
	appendErr error

	gotFilter models.EventFilter
	events    []models.DeviceEvent
	listErr   error
	calls     int
}

func (f *fakeEventRepo) Append(_ context.Context, e models.DeviceEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	f.appended = append(f.appended, e)
	return nil
}

func (f *fakeEventRepo) List(_ context.Context, flt models.EventFilter) ([]models.DeviceEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotFilter = flt
	return f.events, f.listErr
}

func (f *fakeEventRepo) ofType(typ string) []models.DeviceEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeviceEvent
	for _, e := range f.appended {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

// fakeStateRepo satisfies repository.StateRepo in memory.
type fakeStateRepo struct {
	mu      sync.Mutex
	rows    map[string]models.DeviceSnapshot
	saves   int
	loadErr error
	listErr error
}

func newFakeStateRepo() *fakeStateRepo {
	return &fakeStateRepo{rows: make(map[string]models.DeviceSnapshot)}
}

func (f *fakeStateRepo) Save(_ context.Context, s models.DeviceSnapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	f.rows[s.Device] = s
	return nil
}

func (f *fakeStateRepo) Load(_ context.Context, device string) (models.DeviceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return models.DeviceSnapshot{}, f.loadErr
	}
	s, ok := f.rows[device]
	if !ok {
		return models.DeviceSnapshot{}, repository.ErrUnknownDevice
	}
	return s, nil
}

func (f *fakeStateRepo) List(context.Context) ([]models.DeviceSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]models.DeviceSnapshot, 0, len(f.rows))
	for _, s := range f.rows {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Device < out[j].Device })
	return out, nil
}

func (f *fakeStateRepo) Reset(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = make(map[string]models.DeviceSnapshot)
	return nil
}

func (f *fakeStateRepo) get(device string) (models.DeviceSnapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[device]
	return s, ok
}

func testDevicesConfig() DevicesConfig {
	return DevicesConfig{
		ThermostatName: "tank",
		Thermostat:     thermostat.DefaultConfig(),
		PanelName:      "door",
		Panel:          panel.DefaultConfig(),
	}
}

// newTestDevices builds the registry on a manual clock starting at 09:00 UTC.
func newTestDevices(t *testing.T, obs fsm.Observer) (*Devices, *manualclock.Clock) {
	t.Helper()
	clock := manualclock.New(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC))
	store, err := ports.NewStaticSecret("1234")
	if err != nil {
		t.Fatalf("NewStaticSecret: %v", err)
	}
	d, err := NewDevices(testDevicesConfig(), clock, clock, store, obs, nil)
	if err != nil {
		t.Fatalf("NewDevices: %v", err)
	}
	return d, clock
}
