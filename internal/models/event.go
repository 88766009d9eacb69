package models

import "time"

// Event types recorded in the device history.
const (
	EventActivate     = "ACTIVATE"
	EventDeactivate   = "DEACTIVATE"
	EventSeasonChange = "SEASON_CHANGE"
	EventCycle        = "CYCLE"
	EventCommand      = "COMMAND"
	EventWarning      = "WARNING"
	EventError        = "ERROR"
)

// DeviceEvent is a single log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // ACTIVATE | DEACTIVATE | SEASON_CHANGE | CYCLE | COMMAND | WARNING | ERROR
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}

// DeviceStatus is a point-in-time view of the controller.
type DeviceStatus struct {
	Active      bool        `json:"active"`
	Season      Season      `json:"season"`
	ActiveHours ActiveHours `json:"active_hours"`
	WindowOpen  bool        `json:"window_open"`
	LastCycleAt *time.Time  `json:"last_cycle_at,omitempty"`
	LastPattern string      `json:"last_pattern,omitempty"`
}
