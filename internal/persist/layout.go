// Package persist owns the fixed byte layout of the non-volatile region:
// magic, credentials, running flag and the seven-day schedule.
//
//	offset  size  field
//	0       4     magic (little-endian 0xA5B6C7D9)
//	4       64    ssid, NUL padded
//	68      64    password, NUL padded
//	132     1     running flag (1 = running)
//	133     7*6   schedule, per day: hourOn minuteOn hourOff minuteOff relay active
//
// Writes are not crash-atomic: power loss during Save can leave the region
// half written. A torn magic reads back as never provisioned; torn schedule
// bytes are clamped on the next Load.
package persist

import (
	"bytes"
	"encoding/binary"
	"errors"

	"schedule_controller/internal/models"
)

const (
	// RegionSize is the number of bytes reserved for the record.
	RegionSize = 512

	// Magic marks a region written by Save.
	Magic uint32 = 0xA5B6C7D9

	// ResetFill is written over the whole region by a factory reset.
	ResetFill = 0xFF

	offMagic    = 0
	offSSID     = 4
	offPassword = offSSID + models.MaxCredentialLen
	offRunning  = offPassword + models.MaxCredentialLen
	offSchedule = offRunning + 1
	dayStride   = 6

	// recordEnd is the first byte past the schedule.
	recordEnd = offSchedule + models.DaysPerWeek*dayStride
)

// ErrNotProvisioned is returned when the region does not carry Magic.
var ErrNotProvisioned = errors.New("persist: region not provisioned")

// Encode lays rec out in a RegionSize buffer. Bytes past the record are left
// at ResetFill. Credentials longer than the slot are cut to fit.
func Encode(rec models.Record) []byte {
	b := bytes.Repeat([]byte{ResetFill}, RegionSize)

	binary.LittleEndian.PutUint32(b[offMagic:], Magic)
	putString(b[offSSID:offSSID+models.MaxCredentialLen], rec.Credentials.SSID)
	putString(b[offPassword:offPassword+models.MaxCredentialLen], rec.Credentials.Password)

	b[offRunning] = 0
	if rec.Running {
		b[offRunning] = 1
	}

	for i, d := range rec.Schedule {
		at := offSchedule + i*dayStride
		b[at+0] = d.HourOn
		b[at+1] = d.MinuteOn
		b[at+2] = d.HourOff
		b[at+3] = d.MinuteOff
		b[at+4] = uint8(d.Relay)
		b[at+5] = 0
		if d.Active {
			b[at+5] = 1
		}
	}
	return b
}

// Decode parses a region. A missing or wrong magic, or a buffer too short to
// hold the record, yields DefaultRecord and ErrNotProvisioned. Out-of-range
// schedule bytes are clamped without error.
func Decode(b []byte) (models.Record, error) {
	if len(b) < recordEnd || binary.LittleEndian.Uint32(b[offMagic:]) != Magic {
		return models.DefaultRecord(), ErrNotProvisioned
	}

	rec := models.Record{
		Credentials: models.Credentials{
			SSID:     getString(b[offSSID : offSSID+models.MaxCredentialLen]),
			Password: getString(b[offPassword : offPassword+models.MaxCredentialLen]),
		},
		Running: b[offRunning] == 1,
	}
	for i := range rec.Schedule {
		at := offSchedule + i*dayStride
		rec.Schedule[i] = clampDay(b[at : at+dayStride])
	}
	return rec, nil
}

// clampDay decodes one day, replacing each out-of-range field with its default.
func clampDay(raw []byte) models.ScheduleDay {
	d := models.ScheduleDay{
		HourOn:    raw[0],
		MinuteOn:  raw[1],
		HourOff:   raw[2],
		MinuteOff: raw[3],
		Relay:     models.RelaySelector(raw[4]),
		Active:    raw[5] == 1,
	}
	if d.HourOn > 23 {
		d.HourOn = models.DefaultHourOn
	}
	if d.MinuteOn > 59 {
		d.MinuteOn = models.DefaultMinuteOn
	}
	if d.HourOff > 23 {
		d.HourOff = models.DefaultHourOff
	}
	if d.MinuteOff > 59 {
		d.MinuteOff = models.DefaultMinuteOff
	}
	if !d.Relay.Valid() {
		d.Relay = models.DefaultRelay
	}
	return d
}

func putString(dst []byte, s string) {
	n := copy(dst, s)
	clear(dst[n:])
}

// getString reads up to the first NUL; a full slot has no terminator.
func getString(src []byte) string {
	if i := bytes.IndexByte(src, 0); i >= 0 {
		src = src[:i]
	}
	return string(src)
}
