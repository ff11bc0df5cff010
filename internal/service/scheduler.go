package service

import (
	"context"
	"fmt"
	"time"

	"schedule_controller/internal/models"
	"schedule_controller/internal/schedule"
)

// Run evaluates the schedule every tick until ctx is canceled.
func (d *Device) Run(ctx context.Context, tick time.Duration) {
	t := time.NewTicker(tick)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			d.Tick(ctx)
		}
	}
}

// Tick runs one schedule evaluation.
func (d *Device) Tick(ctx context.Context) schedule.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.evaluateLocked(ctx, "tick")
}

// evaluateLocked applies the schedule to the relays. mu must be held.
// After Stop it reports Stopped without touching the relays.
func (d *Device) evaluateLocked(ctx context.Context, reason string) schedule.Result {
	if d.stopped {
		return schedule.Result{Outcome: schedule.Stopped, DayIndex: -1}
	}
	now, synced := d.clock.Now()
	res, err := schedule.Apply(schedule.Input{
		Now:      now,
		Synced:   synced,
		Running:  d.rec.Running,
		Schedule: &d.rec.Schedule,
	}, d.relays)
	if err != nil {
		d.log.Errorw("relay_write_failed", "reason", reason, "err", err)
	}
	if res.Outcome == schedule.Skipped {
		d.log.Debugw("schedule_skipped_unsynced", "reason", reason)
	}

	for _, c := range res.Changes {
		d.log.Infow("relay_switched", "relay", c.Relay, "on", c.On, "day", res.DayIndex, "reason", reason)
		d.appendEvent(ctx, models.EventRelay, relayDescription(c), map[string]any{
			"relay":  c.Relay,
			"on":     c.On,
			"day":    res.DayIndex,
			"reason": reason,
		})
	}
	return res
}

func relayDescription(c schedule.Change) string {
	if c.On {
		return fmt.Sprintf("Relay %d on", c.Relay)
	}
	return fmt.Sprintf("Relay %d off", c.Relay)
}
