package schedule_controller

import "schedule_controller/internal/models"

// Status is the read-only snapshot served by GET /api.
type Status struct {
	Running  bool                  `json:"running"`
	Relay1   bool                  `json:"relay1"`
	Relay2   bool                  `json:"relay2"`
	Time     string                `json:"time"`     // HH:MM:SS or --:--:-- before time sync
	Date     string                `json:"date"`     // DD.MM.YYYY or --.--.----
	DayIndex int                   `json:"dayIndex"` // 0=Monday .. 6=Sunday, -1 before time sync
	Mode     string                `json:"mode,omitempty"`
	IP       string                `json:"ip,omitempty"`
	MDNS     string                `json:"mdns,omitempty"` // e.g. harm.local while advertised
	Schedule [7]models.ScheduleDay `json:"schedule"`
}
