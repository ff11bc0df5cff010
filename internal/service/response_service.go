package service

import (
	"fmt"
	"strconv"
	"time"

	"schedule_controller/internal/models"
)

// DayPatch holds the fields supplied for one day; nil means "leave as is".
type DayPatch struct {
	HourOn    *int
	MinuteOn  *int
	HourOff   *int
	MinuteOff *int
	Relay     *int
	Active    *bool
}

// Empty reports whether no field was supplied.
func (p DayPatch) Empty() bool {
	return p.HourOn == nil && p.MinuteOn == nil && p.HourOff == nil &&
		p.MinuteOff == nil && p.Relay == nil && p.Active == nil
}

// ScheduleUpdate is a sparse update, indexed Monday-first.
type ScheduleUpdate [models.DaysPerWeek]DayPatch

// Form field suffixes of the schedule form, e.g. d0hon for Monday's hourOn.
const (
	fieldHourOn    = "hon"
	fieldMinuteOn  = "mon"
	fieldHourOff   = "hof"
	fieldMinuteOff = "mof"
	fieldRelay     = "rl"
	fieldActive    = "act"
)

// FormKey returns the form field name for a day and suffix.
func FormKey(day int, suffix string) string {
	return fmt.Sprintf("d%d%s", day, suffix)
}

// ParseScheduleForm builds an update from form values. Fields that are
// absent or do not parse are left nil; range checks happen when applied.
func ParseScheduleForm(get func(key string) (string, bool)) ScheduleUpdate {
	var upd ScheduleUpdate
	for i := range upd {
		p := &upd[i]
		p.HourOn = formInt(get, FormKey(i, fieldHourOn))
		p.MinuteOn = formInt(get, FormKey(i, fieldMinuteOn))
		p.HourOff = formInt(get, FormKey(i, fieldHourOff))
		p.MinuteOff = formInt(get, FormKey(i, fieldMinuteOff))
		p.Relay = formInt(get, FormKey(i, fieldRelay))
		if v, ok := get(FormKey(i, fieldActive)); ok {
			if b, err := strconv.ParseBool(v); err == nil {
				p.Active = &b
			}
		}
	}
	return upd
}

func formInt(get func(string) (string, bool), key string) *int {
	v, ok := get(key)
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "RELAY", "RUNNING", "SCHEDULE", "PROVISION", "RESET", "MODE"
}
