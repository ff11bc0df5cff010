package models

// DaysPerWeek is the number of schedule slots, Monday=0 .. Sunday=6.
const DaysPerWeek = 7

// RelaySelector addresses one relay or both. The numeric values are the
// persisted encoding.
type RelaySelector uint8

const (
	Relay1 RelaySelector = 1
	Relay2 RelaySelector = 2
	Both   RelaySelector = 3
)

// Valid reports whether s is one of Relay1, Relay2, Both.
func (s RelaySelector) Valid() bool {
	return s >= Relay1 && s <= Both
}

// Includes reports whether s targets the relay with the given number (1 or 2).
func (s RelaySelector) Includes(relay int) bool {
	switch relay {
	case 1:
		return s == Relay1 || s == Both
	case 2:
		return s == Relay2 || s == Both
	}
	return false
}

// ScheduleDay is the on/off window of a single weekday.
type ScheduleDay struct {
	HourOn    uint8         `json:"hourOn"`
	MinuteOn  uint8         `json:"minuteOn"`
	HourOff   uint8         `json:"hourOff"`
	MinuteOff uint8         `json:"minuteOff"`
	Relay     RelaySelector `json:"relay"`
	Active    bool          `json:"active"`
}

// Week is the full schedule, indexed Monday-first.
type Week [DaysPerWeek]ScheduleDay

// Default schedule values used at boot and whenever a persisted field is out of range.
const (
	DefaultHourOn    = 8
	DefaultMinuteOn  = 0
	DefaultHourOff   = 20
	DefaultMinuteOff = 0
	DefaultRelay     = Relay1
)

// DefaultDay returns 08:00-20:00 on relay 1, inactive.
func DefaultDay() ScheduleDay {
	return ScheduleDay{
		HourOn:    DefaultHourOn,
		MinuteOn:  DefaultMinuteOn,
		HourOff:   DefaultHourOff,
		MinuteOff: DefaultMinuteOff,
		Relay:     DefaultRelay,
		Active:    false,
	}
}

// DefaultWeek returns seven DefaultDay values.
func DefaultWeek() Week {
	var w Week
	for i := range w {
		w[i] = DefaultDay()
	}
	return w
}
