package service

import (
	"context"
	"time"

	"schedule_controller"
	"schedule_controller/internal/models"
	"schedule_controller/internal/schedule"
)

const (
	statusTimeLayout = "15:04:05"
	statusDateLayout = "02.01.2006"

	unsyncedTime = "--:--:--"
	unsyncedDate = "--.--.----"
)

// GetStatus returns the device state as served by /api.
func (d *Device) GetStatus(ctx context.Context) (schedule_controller.Status, error) {
	if err := ctx.Err(); err != nil {
		return schedule_controller.Status{}, err
	}

	d.mu.Lock()
	rec := d.rec
	r1, r2 := d.relays.Snapshot()
	network, mdns := d.network, d.mdns
	d.mu.Unlock()

	now, synced := d.clock.Now()
	st := buildStatus(rec, r1, r2, now, synced)
	if network != nil {
		st.Mode = network.Mode().String()
		if ip := network.Address(); ip != nil {
			st.IP = ip.String()
		}
	}
	if mdns != nil {
		st.MDNS = mdns.Hostname()
	}
	return st, nil
}

// buildStatus renders a status snapshot; before time sync the clock fields
// are placeholders and the day index is -1.
func buildStatus(rec models.Record, relay1, relay2 bool, now time.Time, synced bool) schedule_controller.Status {
	st := schedule_controller.Status{
		Running:  rec.Running,
		Relay1:   relay1,
		Relay2:   relay2,
		Time:     unsyncedTime,
		Date:     unsyncedDate,
		DayIndex: -1,
		Schedule: rec.Schedule,
	}
	if synced {
		st.Time = now.Format(statusTimeLayout)
		st.Date = now.Format(statusDateLayout)
		st.DayIndex = schedule.DayIndex(now.Weekday())
	}
	return st
}
