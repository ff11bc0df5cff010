package models

import "time"

// Event types recorded in the device log.
const (
	EventRelay     = "RELAY"
	EventRunning   = "RUNNING"
	EventSchedule  = "SCHEDULE"
	EventProvision = "PROVISION"
	EventReset     = "RESET"
	EventMode      = "MODE"
)

// DeviceEvent is a single log entry.
type DeviceEvent struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // RELAY | RUNNING | SCHEDULE | PROVISION | RESET | MODE
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
