package thermostat

import (
	"device_controller/internal/fsm"
	"device_controller/internal/ports"
)

// Sampler turns the current port readings into a tick event.
type Sampler struct {
	Clock  ports.Clock
	Temp   ports.TemperatureSensor
	Water  ports.PresenceSensor
	Faults ports.FaultLatch // optional
}

func (s Sampler) Sample() fsm.Event {
	snap := fsm.Snapshot{
		Temperature:  s.Temp.ReadTemperature(),
		WaterPresent: s.Water.ReadPresence(),
	}
	if s.Faults != nil {
		snap.Fault = s.Faults.Raised()
	}
	return fsm.Tick(s.Clock.Now(), snap)
}
