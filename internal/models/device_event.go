package models

import "time"

// Event types written to the journal.
const (
	EventTransition = "TRANSITION"
	EventRejected   = "REJECTED"
	EventNotice     = "NOTICE"
)

// DeviceEvent is a single journal entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	Device      string    `json:"device"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // TRANSITION | REJECTED | NOTICE
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// EventFilter narrows a journal query. Zero fields match everything.
type EventFilter struct {
	Device string
	From   time.Time
	To     time.Time
	Type   string
}
