package models

import "time"

// DeviceSnapshot is the monitoring view of one device after its last step.
type DeviceSnapshot struct {
	Device    string         `json:"device"`
	Kind      string         `json:"kind"`  // thermostat | access_panel
	State     string         `json:"state"` // e.g. Normal, Locked
	Facts     map[string]any `json:"facts,omitempty"`
	UpdatedAt time.Time      `json:"updated_at"`
}
