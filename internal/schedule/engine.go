// Package schedule turns (time, weekly schedule, running flag) into relay
// writes. Evaluation is pure; Apply performs the edge-triggered writes.
package schedule

import (
	"fmt"
	"time"

	"schedule_controller/internal/models"
)

// Relays is the part of the relay driver the engine needs.
type Relays interface {
	SetRelay(sel models.RelaySelector, on bool) error
	State(sel models.RelaySelector) bool
}

// DayIndex maps time.Weekday (Sunday=0) to the Monday-first schedule index.
func DayIndex(wd time.Weekday) int {
	if wd == time.Sunday {
		return 6
	}
	return int(wd) - 1
}

// MinuteOfDay returns hour*60+minute.
func MinuteOfDay(hour, minute int) int {
	return hour*60 + minute
}

// InWindow reports whether cur falls inside the day's on window. Windows with
// on > off span midnight; on == off is an empty window.
func InWindow(day models.ScheduleDay, cur int) bool {
	on := MinuteOfDay(int(day.HourOn), int(day.MinuteOn))
	off := MinuteOfDay(int(day.HourOff), int(day.MinuteOff))
	if on <= off {
		return cur >= on && cur < off
	}
	return cur >= on || cur < off
}

// Outcome says what a tick decided.
type Outcome int

const (
	// Skipped: no wall-clock time yet, nothing evaluated.
	Skipped Outcome = iota
	// Stopped: running flag off, both relays forced off.
	Stopped
	// Held: today's entry is inactive, relays left as they were.
	Held
	// Evaluated: today's window was evaluated against the target relays.
	Evaluated
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Stopped:
		return "stopped"
	case Held:
		return "held"
	case Evaluated:
		return "evaluated"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

// Change is one relay write performed by Apply.
type Change struct {
	Relay int  `json:"relay"`
	On    bool `json:"on"`
}

// Result of one Apply.
type Result struct {
	Outcome  Outcome
	DayIndex int
	Desired  bool
	Changes  []Change
}

// Input is everything one evaluation looks at. Synced false means Now is
// not a real wall-clock time.
type Input struct {
	Now      time.Time
	Synced   bool
	Running  bool
	Schedule *models.Week
}

// Apply runs one evaluation and writes only relays whose mirrored state
// differs from the desired one. On a write error the changes made so far are
// returned together with the error.
func Apply(in Input, relays Relays) (Result, error) {
	if !in.Running {
		res := Result{Outcome: Stopped, DayIndex: -1}
		r1, r2 := relays.State(models.Relay1), relays.State(models.Relay2)
		if !r1 && !r2 {
			return res, nil
		}
		if err := relays.SetRelay(models.Both, false); err != nil {
			return res, err
		}
		if r1 {
			res.Changes = append(res.Changes, Change{Relay: 1, On: false})
		}
		if r2 {
			res.Changes = append(res.Changes, Change{Relay: 2, On: false})
		}
		return res, nil
	}

	if !in.Synced {
		return Result{Outcome: Skipped, DayIndex: -1}, nil
	}

	idx := DayIndex(in.Now.Weekday())
	day := in.Schedule[idx]
	if !day.Active {
		return Result{Outcome: Held, DayIndex: idx}, nil
	}

	desired := InWindow(day, MinuteOfDay(in.Now.Hour(), in.Now.Minute()))
	res := Result{Outcome: Evaluated, DayIndex: idx, Desired: desired}
	for n := 1; n <= 2; n++ {
		if !day.Relay.Includes(n) {
			continue
		}
		sel := models.RelaySelector(n)
		if relays.State(sel) == desired {
			continue
		}
		if err := relays.SetRelay(sel, desired); err != nil {
			return res, err
		}
		res.Changes = append(res.Changes, Change{Relay: n, On: desired})
	}
	return res, nil
}
