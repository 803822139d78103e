package service

import (
	"context"
	"math"
	"sync"
	"time"

	"device_controller/internal/fsm"
	"device_controller/internal/ports"
	"device_controller/internal/thermostat"
)

// ----------- Simulation constants -----------
const (
	AmbientC         = 15.0 // tank drifts toward this when not heated
	HeatCPerHour     = 45.0 // °C per simulated hour with the relay on
	CoolCPerHour     = 12.0 // °C per simulated hour with the relay off
	BoilC            = 100.0
	DryHour          = 18 // water runs out for this hour
	FaultHour        = 19 // a fault is raised once when this hour starts
	defaultStartHour = 8
)

// SimulatorService is the thermostat's environment: a water tank whose
// temperature follows the relay, on a simulated clock that runs hourStep per
// sample so a whole day passes in minutes.
type SimulatorService struct {
	tank    interface{ Post(fsm.Event) }
	sensors *ports.MemorySensors
	relay   interface{ On() bool }
	faults  *ports.MemoryFaultLatch

	hourStep time.Duration

	mu       sync.Mutex
	simNow   time.Time
	tempC    float64
	faultDay string // date the fault was last raised
}

// NewSimulatorService starts the simulated day at 08:00 of start's date.
func NewSimulatorService(d *Devices, start time.Time, hourStep time.Duration) *SimulatorService {
	y, m, day := start.Date()
	return &SimulatorService{
		tank:     d.Thermostat,
		sensors:  d.Sensors,
		relay:    d.Relay,
		faults:   d.Faults,
		hourStep: hourStep,
		simNow:   time.Date(y, m, day, defaultStartHour, 0, 0, 0, start.Location()),
		tempC:    float64(d.Sensors.ReadTemperature()),
	}
}

// Now is the simulated time; together with HourOf it makes the simulator
// the clock that stamps sampled ticks.
func (s *SimulatorService) Now() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.simNow
}

func (s *SimulatorService) HourOf(t time.Time) int {
	return t.In(s.simNow.Location()).Hour()
}

// Run samples at the given interval until ctx is canceled.
func (s *SimulatorService) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.Step()
		}
	}
}

// Step advances the simulated clock by one hour step, updates the sensors and
// posts a tick to the thermostat. It returns the posted event.
func (s *SimulatorService) Step() fsm.Event {
	s.mu.Lock()
	s.simNow = s.simNow.Add(s.hourStep)
	now := s.simNow
	hours := s.hourStep.Hours()

	s.tempC = nextTemperature(s.tempC, s.relay.On(), hours)
	water := now.Hour() != DryHour
	if day := now.Format(time.DateOnly); now.Hour() == FaultHour && s.faultDay != day {
		s.faultDay = day
		s.faults.Raise()
	}
	temp := int(math.Round(s.tempC))
	s.mu.Unlock()

	s.sensors.SetTemperature(temp)
	s.sensors.SetPresence(water)

	ev := thermostat.Sampler{Clock: s, Temp: s.sensors, Water: s.sensors, Faults: s.faults}.Sample()
	s.tank.Post(ev)
	return ev
}

// nextTemperature ramps toward boiling while heated and drifts toward
// ambient otherwise.
func nextTemperature(cur float64, heating bool, hours float64) float64 {
	if heating {
		return math.Min(cur+HeatCPerHour*hours, BoilC)
	}
	if cur > AmbientC {
		return math.Max(cur-CoolCPerHour*hours, AmbientC)
	}
	return cur
}
