package service

import (
	"context"
	"fmt"
	"time"

	"device_controller/internal/fsm"
	"device_controller/internal/logger"
	"device_controller/internal/models"
	"device_controller/internal/repository"
)

const journalWriteTimeout = 2 * time.Second

// Journal is the fsm.Observer used by the running service. It appends
// transitions, rejections and notices to the event log and mirrors each
// device's latest snapshot for monitoring.
//
// It runs on the engines' owner goroutines; write failures are logged and
// never reach the engine.
type Journal struct {
	events repository.EventRepo
	states repository.StateRepo
	log    *logger.Logger
	now    func() time.Time
	feed   *Feed
}

var _ fsm.Observer = (*Journal)(nil)

func NewJournal(events repository.EventRepo, states repository.StateRepo, feed *Feed, log *logger.Logger) *Journal {
	if log == nil {
		log = logger.Nop()
	}
	return &Journal{events: events, states: states, log: log, now: time.Now, feed: feed}
}

func (j *Journal) Transitioned(t fsm.Transition) {
	j.append(models.DeviceEvent{
		Device:      t.Device,
		Type:        models.EventTransition,
		Description: fmt.Sprintf("%s -> %s", t.From, t.To),
		Metadata: map[string]any{
			"from":     t.From,
			"to":       t.To,
			"event":    t.Event.Kind.String(),
			"event_at": t.At,
		},
	})
}

func (j *Journal) Rejected(err *fsm.RejectedError) {
	j.append(models.DeviceEvent{
		Device:      err.Device,
		Type:        models.EventRejected,
		Description: err.Error(),
		Metadata: map[string]any{
			"state":  err.State,
			"event":  err.Event.String(),
			"reason": err.Reason,
		},
	})
}

func (j *Journal) Noticed(n fsm.Notice) {
	meta := map[string]any{"code": n.Code, "state": n.State}
	for k, v := range n.Fields {
		meta[k] = v
	}
	j.append(models.DeviceEvent{
		Device:      n.Device,
		Type:        models.EventNotice,
		Description: n.Message,
		Metadata:    meta,
	})
}

// Stepped mirrors the device after every step, accepted or not.
func (j *Journal) Stepped(r fsm.Report) {
	snap := models.DeviceSnapshot{
		Device:    r.Device,
		Kind:      r.Kind,
		State:     r.State,
		Facts:     r.Facts,
		UpdatedAt: j.now().UTC(),
	}
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	if err := j.states.Save(ctx, snap); err != nil {
		j.log.Warnw("journal_state_save_failed", "device", r.Device, "err", err)
	}
	j.feed.Publish(snap)
}

func (j *Journal) append(e models.DeviceEvent) {
	e.OccurredAt = j.now().UTC()
	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	if err := j.events.Append(ctx, e); err != nil {
		j.log.Warnw("journal_append_failed", "device", e.Device, "type", e.Type, "err", err)
	}
}
