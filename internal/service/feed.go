package service

import (
	"sync"

	"device_controller/internal/models"
)

const subscriberBuffer = 8

// Feed fans snapshots out to live subscribers (websocket clients).
// Publish never blocks: a subscriber that falls behind misses updates.
type Feed struct {
	mu   sync.Mutex
	next int
	subs map[int]*subscription
}

type subscription struct {
	device string
	ch     chan models.DeviceSnapshot
}

func NewFeed() *Feed {
	return &Feed{subs: make(map[int]*subscription)}
}

// Subscribe returns a channel of snapshots for device ("" for all) and a
// cancel func that closes it.
func (f *Feed) Subscribe(device string) (<-chan models.DeviceSnapshot, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	s := &subscription{device: device, ch: make(chan models.DeviceSnapshot, subscriberBuffer)}
	f.subs[id] = s

	var once sync.Once
	return s.ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(s.ch)
		})
	}
}

func (f *Feed) Publish(snap models.DeviceSnapshot) {
	if f == nil {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subs {
		if s.device != "" && s.device != snap.Device {
			continue
		}
		select {
		case s.ch <- snap:
		default:
		}
	}
}

// Subscribers reports the number of open subscriptions.
func (f *Feed) Subscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subs)
}
