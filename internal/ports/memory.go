package ports

import "sync"

// MemorySensors is an in-memory temperature and water sensor pair.
// Values are set by a simulator or a test and read by a sampler.
type MemorySensors struct {
	mu    sync.RWMutex
	temp  int
	water bool
}

func NewMemorySensors(temp int, water bool) *MemorySensors {
	return &MemorySensors{temp: temp, water: water}
}

func (s *MemorySensors) ReadTemperature() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.temp
}

func (s *MemorySensors) ReadPresence() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.water
}

func (s *MemorySensors) SetTemperature(temp int) {
	s.mu.Lock()
	s.temp = temp
	s.mu.Unlock()
}

func (s *MemorySensors) SetPresence(water bool) {
	s.mu.Lock()
	s.water = water
	s.mu.Unlock()
}

// MemoryRelay records the relay position and every command it received.
type MemoryRelay struct {
	mu       sync.RWMutex
	on       bool
	commands []bool
}

func (r *MemoryRelay) Set(on bool) {
	r.mu.Lock()
	r.on = on
	r.commands = append(r.commands, on)
	r.mu.Unlock()
}

// On reports the last commanded position.
func (r *MemoryRelay) On() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.on
}

// Commands returns a copy of all commands in order.
func (r *MemoryRelay) Commands() []bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]bool, len(r.commands))
	copy(out, r.commands)
	return out
}

// MemoryFaultLatch is a FaultLatch raised by an operator or integration layer.
type MemoryFaultLatch struct {
	mu     sync.Mutex
	raised bool
}

func (l *MemoryFaultLatch) Raise() {
	l.mu.Lock()
	l.raised = true
	l.mu.Unlock()
}

func (l *MemoryFaultLatch) Raised() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.raised
}

func (l *MemoryFaultLatch) Clear() {
	l.mu.Lock()
	l.raised = false
	l.mu.Unlock()
}
