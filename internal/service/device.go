package service

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"schedule_controller/internal/clock"
	"schedule_controller/internal/logger"
	"schedule_controller/internal/models"
	"schedule_controller/internal/netmode"
	"schedule_controller/internal/relay"
	"schedule_controller/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrCredentialsTooLong = fmt.Errorf("credentials exceed %d bytes", models.MaxCredentialLen)
	ErrEmptySSID          = errors.New("ssid must not be empty")
)

// RecordStore persists the device record.
type RecordStore interface {
	Save(ctx context.Context, rec models.Record) error
	FactoryReset(ctx context.Context) error
}

// NetworkInfo reports the current network mode for status output.
type NetworkInfo interface {
	Mode() netmode.Mode
	Address() net.IP
}

// HostnameSource reports the advertised mDNS name, "" when not advertising.
type HostnameSource interface {
	Hostname() string
}

// Device owns the in-memory record and the relays. Every mutation of
// either goes through mu, so the scheduler tick and HTTP commands never
// interleave.
type Device struct {
	mu      sync.Mutex
	rec     models.Record
	relays  *relay.Driver
	store   RecordStore
	clock   clock.Source
	events  repository.EventRepo
	restart Restarter
	network NetworkInfo
	mdns    HostnameSource
	log     *logger.Logger
	stopped bool

	// now stamps event log entries.
	now func() time.Time
}

// NewDevice takes ownership of rec, the record loaded at boot.
func NewDevice(rec models.Record, relays *relay.Driver, store RecordStore, clk clock.Source,
	events repository.EventRepo, restart Restarter, log *logger.Logger) *Device {
	return &Device{
		rec:     rec,
		relays:  relays,
		store:   store,
		clock:   clk,
		events:  events,
		restart: restart,
		log:     log,
		now:     time.Now,
	}
}

// AttachNetwork sets the source of mode and address for status output.
func (d *Device) AttachNetwork(n NetworkInfo) {
	d.mu.Lock()
	d.network = n
	d.mu.Unlock()
}

// AttachMDNS sets the source of the mDNS name for status output.
func (d *Device) AttachMDNS(h HostnameSource) {
	d.mu.Lock()
	d.mdns = h
	d.mu.Unlock()
}

// Record returns a copy of the current record.
func (d *Device) Record() models.Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rec
}

// SetSchedule applies the supplied fields. Out-of-range values are dropped
// one field at a time. The record is persisted and the relays re-evaluated
// only if something changed.
func (d *Device) SetSchedule(ctx context.Context, upd ScheduleUpdate) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	var changedDays []int
	for i, p := range upd {
		if p.Empty() {
			continue
		}
		if applyDayPatch(&d.rec.Schedule[i], p) {
			changedDays = append(changedDays, i)
		}
	}
	if len(changedDays) == 0 {
		return false, nil
	}

	// The in-memory schedule is live from here on, saved or not.
	if err := d.store.Save(ctx, d.rec); err != nil {
		d.log.Errorw("schedule_persist_failed", "err", err)
		d.evaluateLocked(ctx, "schedule_update")
		return true, err
	}
	d.log.Infow("schedule_updated", "days", changedDays)
	d.appendEvent(ctx, models.EventSchedule, "Schedule updated", map[string]any{"days": changedDays})
	d.evaluateLocked(ctx, "schedule_update")
	return true, nil
}

// applyDayPatch reports whether day changed.
func applyDayPatch(day *models.ScheduleDay, p DayPatch) bool {
	before := *day
	if v, ok := inRange(p.HourOn, 23); ok {
		day.HourOn = uint8(v)
	}
	if v, ok := inRange(p.MinuteOn, 59); ok {
		day.MinuteOn = uint8(v)
	}
	if v, ok := inRange(p.HourOff, 23); ok {
		day.HourOff = uint8(v)
	}
	if v, ok := inRange(p.MinuteOff, 59); ok {
		day.MinuteOff = uint8(v)
	}
	if v, ok := inRange(p.Relay, int(models.Both)); ok && models.RelaySelector(v).Valid() {
		day.Relay = models.RelaySelector(v)
	}
	if p.Active != nil {
		day.Active = *p.Active
	}
	return *day != before
}

func inRange(v *int, limit int) (int, bool) {
	if v == nil || *v < 0 || *v > limit {
		return 0, false
	}
	return *v, true
}

// SetRunning toggles the master switch. Switching off forces both relays
// off right away and reports a relay that could not be switched off.
// Switching on evaluates the schedule immediately.
func (d *Device) SetRunning(ctx context.Context, running bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.rec.Running == running {
		return nil
	}
	d.rec.Running = running
	var offErr error
	if !running {
		if offErr = d.relays.AllOff(); offErr != nil {
			d.log.Errorw("relays_off_failed", "err", offErr)
		}
	}
	if err := d.store.Save(ctx, d.rec); err != nil {
		d.log.Errorw("running_persist_failed", "err", err)
		return errors.Join(offErr, err)
	}
	d.log.Infow("running_changed", "running", running)
	d.appendEvent(ctx, models.EventRunning, runningDescription(running), map[string]any{"running": running})
	if running {
		d.evaluateLocked(ctx, "running_enabled")
	}
	return offErr
}

// Stop drives both relays off and keeps them off: later schedule
// evaluations no longer touch the outputs. Called once per boot after every
// other goroutine that can reach the device has returned.
func (d *Device) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if err := d.relays.AllOff(); err != nil {
		d.log.Errorw("relays_off_failed", "reason", "stop", "err", err)
		return err
	}
	return nil
}

func runningDescription(running bool) string {
	if running {
		return "Scheduler enabled"
	}
	return "Scheduler disabled; relays forced off"
}

// ResetToFactory switches both relays off, erases the record and restarts.
// If the erase fails the device keeps running on its current record.
func (d *Device) ResetToFactory(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.log.Warnw("factory_reset")
	if err := d.relays.AllOff(); err != nil {
		d.log.Errorw("relays_off_failed", "err", err)
	}
	if err := d.store.FactoryReset(ctx); err != nil {
		d.log.Errorw("factory_reset_failed", "err", err)
		return err
	}
	d.rec = models.DefaultRecord()
	d.appendEvent(ctx, models.EventReset, "Factory reset", nil)
	d.restart.Restart("factory reset")
	return nil
}

// SetCredentials validates and persists the network credentials.
func (d *Device) SetCredentials(ctx context.Context, creds models.Credentials) error {
	if creds.SSID == "" {
		return ErrEmptySSID
	}
	if len(creds.SSID) > models.MaxCredentialLen || len(creds.Password) > models.MaxCredentialLen {
		return ErrCredentialsTooLong
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.rec.Credentials = creds
	if err := d.store.Save(ctx, d.rec); err != nil {
		d.log.Errorw("credentials_persist_failed", "err", err)
		return err
	}
	d.log.Infow("credentials_saved", "ssid", creds.SSID)
	d.appendEvent(ctx, models.EventProvision, "Network credentials saved", map[string]any{"ssid": creds.SSID})
	return nil
}

// appendEvent records an entry in the event log. Failures are logged only.
func (d *Device) appendEvent(ctx context.Context, typ, desc string, meta map[string]any) {
	if d.events == nil {
		return
	}
	ev := models.DeviceEvent{
		EventID:     uuid.NewString(),
		OccurredAt:  d.now().UTC(),
		Type:        typ,
		Description: desc,
	}
	if meta != nil {
		ev.Metadata = meta
	}
	if err := d.events.Append(ctx, ev); err != nil {
		d.log.Warnw("event_append_failed", "type", typ, "err", err)
	}
}
