package persist

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"schedule_controller/internal/models"
)

func validRecord() models.Record {
	rec := models.DefaultRecord()
	rec.Credentials = models.Credentials{SSID: "home-net", Password: "s3cret"}
	rec.Running = true
	rec.Schedule[0] = models.ScheduleDay{HourOn: 22, MinuteOn: 30, HourOff: 6, MinuteOff: 15, Relay: models.Both, Active: true}
	rec.Schedule[6] = models.ScheduleDay{HourOn: 0, MinuteOn: 0, HourOff: 23, MinuteOff: 59, Relay: models.Relay2, Active: true}
	return rec
}

func TestLayoutOffsets(t *testing.T) {
	if offSSID != 4 || offPassword != 68 || offRunning != 132 || offSchedule != 133 {
		t.Fatalf("offsets moved: ssid=%d pass=%d running=%d schedule=%d", offSSID, offPassword, offRunning, offSchedule)
	}
	if recordEnd > RegionSize {
		t.Fatalf("record (%d bytes) does not fit region (%d)", recordEnd, RegionSize)
	}
}

func TestEncode_ByteLayout(t *testing.T) {
	b := Encode(validRecord())

	if len(b) != RegionSize {
		t.Fatalf("len = %d, want %d", len(b), RegionSize)
	}
	if got := b[0:4]; !bytes.Equal(got, []byte{0xD9, 0xC7, 0xB6, 0xA5}) {
		t.Fatalf("magic bytes = %x", got)
	}
	if got := string(b[4:12]); got != "home-net" || b[12] != 0 {
		t.Fatalf("ssid slot = %q, next=%x", got, b[12])
	}
	if got := string(b[68:74]); got != "s3cret" || b[74] != 0 {
		t.Fatalf("password slot = %q", got)
	}
	if b[132] != 1 {
		t.Fatalf("running byte = %d", b[132])
	}
	if got := b[133:139]; !bytes.Equal(got, []byte{22, 30, 6, 15, 3, 1}) {
		t.Fatalf("monday bytes = %v", got)
	}
	if b[recordEnd] != ResetFill || b[RegionSize-1] != ResetFill {
		t.Fatalf("tail should stay erased")
	}
}

func TestRoundTrip_AllValidDays(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		rec := models.DefaultRecord()
		rec.Credentials.SSID = "net"
		rec.Running = r.IntN(2) == 1
		for d := range rec.Schedule {
			rec.Schedule[d] = models.ScheduleDay{
				HourOn:    uint8(r.IntN(24)),
				MinuteOn:  uint8(r.IntN(60)),
				HourOff:   uint8(r.IntN(24)),
				MinuteOff: uint8(r.IntN(60)),
				Relay:     models.RelaySelector(1 + r.IntN(3)),
				Active:    r.IntN(2) == 1,
			}
		}

		got, err := Decode(Encode(rec))
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		if got != rec {
			t.Fatalf("round trip mismatch:\n got  %+v\n want %+v", got, rec)
		}
	}
}

func TestRoundTrip_FullWidthCredentials(t *testing.T) {
	rec := models.DefaultRecord()
	rec.Credentials.SSID = strings.Repeat("s", models.MaxCredentialLen)
	rec.Credentials.Password = strings.Repeat("p", models.MaxCredentialLen)

	got, err := Decode(Encode(rec))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got.Credentials != rec.Credentials {
		t.Fatalf("credentials = %+v", got.Credentials)
	}
}

func TestDecode_InvalidMagicYieldsDefaults(t *testing.T) {
	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 500; i++ {
		b := make([]byte, r.IntN(RegionSize+1))
		for j := range b {
			b[j] = byte(r.UintN(256))
		}
		if len(b) >= 4 && binary.LittleEndian.Uint32(b) == Magic {
			b[0]++
		}

		got, err := Decode(b)
		if !errors.Is(err, ErrNotProvisioned) {
			t.Fatalf("len=%d: err = %v, want ErrNotProvisioned", len(b), err)
		}
		if got != models.DefaultRecord() {
			t.Fatalf("len=%d: got %+v, want defaults", len(b), got)
		}
	}
}

func TestDecode_ErasedRegionIsNotProvisioned(t *testing.T) {
	_, err := Decode(bytes.Repeat([]byte{ResetFill}, RegionSize))
	if !errors.Is(err, ErrNotProvisioned) {
		t.Fatalf("err = %v", err)
	}
}

func TestDecode_TruncatedRegionWithMagic(t *testing.T) {
	b := Encode(validRecord())[:recordEnd-1]
	if _, err := Decode(b); !errors.Is(err, ErrNotProvisioned) {
		t.Fatalf("err = %v", err)
	}
}

func TestDecode_ClampsOutOfRangeFields(t *testing.T) {
	tests := []struct {
		name string
		raw  [dayStride]byte
		want models.ScheduleDay
	}{
		{
			name: "hourOn 200",
			raw:  [dayStride]byte{200, 10, 18, 0, 1, 1},
			want: models.ScheduleDay{HourOn: 8, MinuteOn: 10, HourOff: 18, Relay: models.Relay1, Active: true},
		},
		{
			name: "hourOff 24",
			raw:  [dayStride]byte{7, 0, 24, 45, 2, 0},
			want: models.ScheduleDay{HourOn: 7, HourOff: 20, MinuteOff: 45, Relay: models.Relay2},
		},
		{
			name: "minutes 60 and 255",
			raw:  [dayStride]byte{5, 60, 6, 255, 3, 1},
			want: models.ScheduleDay{HourOn: 5, MinuteOn: 0, HourOff: 6, MinuteOff: 0, Relay: models.Both, Active: true},
		},
		{
			name: "relay 0",
			raw:  [dayStride]byte{8, 0, 20, 0, 0, 1},
			want: models.ScheduleDay{HourOn: 8, HourOff: 20, Relay: models.Relay1, Active: true},
		},
		{
			name: "relay 4 and active 2",
			raw:  [dayStride]byte{8, 0, 20, 0, 4, 2},
			want: models.ScheduleDay{HourOn: 8, HourOff: 20, Relay: models.Relay1, Active: false},
		},
		{
			name: "all erased",
			raw:  [dayStride]byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			want: models.DefaultDay(),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := Encode(validRecord())
			copy(b[offSchedule+3*dayStride:], tc.raw[:])

			got, err := Decode(b)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if got.Schedule[3] != tc.want {
				t.Fatalf("day 3 = %+v, want %+v", got.Schedule[3], tc.want)
			}
			assertDayInvariants(t, got.Schedule[3])
		})
	}
}

func TestDecode_AnyScheduleBytesSatisfyInvariants(t *testing.T) {
	r := rand.New(rand.NewPCG(5, 6))
	for i := 0; i < 500; i++ {
		b := Encode(validRecord())
		for j := offRunning; j < recordEnd; j++ {
			b[j] = byte(r.UintN(256))
		}
		got, err := Decode(b)
		if err != nil {
			t.Fatalf("Decode: %v", err)
		}
		for _, d := range got.Schedule {
			assertDayInvariants(t, d)
		}
	}
}

func TestDecode_RunningOnlyWhenExactlyOne(t *testing.T) {
	for _, v := range []byte{0, 2, 0xFF} {
		b := Encode(validRecord())
		b[offRunning] = v
		got, _ := Decode(b)
		if got.Running {
			t.Fatalf("running byte %d decoded as true", v)
		}
	}
}

func assertDayInvariants(t *testing.T, d models.ScheduleDay) {
	t.Helper()
	if d.HourOn > 23 || d.HourOff > 23 || d.MinuteOn > 59 || d.MinuteOff > 59 || !d.Relay.Valid() {
		t.Fatalf("invariants violated: %+v", d)
	}
}
