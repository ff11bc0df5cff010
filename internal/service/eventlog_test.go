package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"schedule_controller/internal/models"
)

// fakeEventRepo records the last List query.
type fakeEventRepo struct {
	gotFrom time.Time
	gotTo   time.Time
	gotType string

	events []models.DeviceEvent
	err    error
	calls  int
}

func (f *fakeEventRepo) List(ctx context.Context, from, to time.Time, typ string) ([]models.DeviceEvent, error) {
	f.calls++
	f.gotFrom, f.gotTo, f.gotType = from, to, typ
	return f.events, f.err
}

func (f *fakeEventRepo) Append(ctx context.Context, e models.DeviceEvent) error {
	return nil
}

// Warsaw summer time, the zone the device clock usually runs in.
var cest = time.FixedZone("CEST", 2*3600)

func TestEventLogService_AcceptsEveryRecordedType(t *testing.T) {
	for _, typ := range []string{
		models.EventRelay, models.EventRunning, models.EventSchedule,
		models.EventProvision, models.EventReset, models.EventMode,
	} {
		repo := &fakeEventRepo{}
		if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{Type: typ}); err != nil {
			t.Fatalf("type %s rejected: %v", typ, err)
		}
		if repo.gotType != typ {
			t.Fatalf("type %s passed as %q", typ, repo.gotType)
		}
	}
}

func TestEventLogService_RejectsFilterBeforeQuery(t *testing.T) {
	cases := []struct {
		name string
		f    LogFilter
		want error
	}{
		{
			name: "overheat is not a device event",
			f:    LogFilter{Type: "overheat"},
			want: ErrUnknownEventType,
		},
		{
			name: "mode change spelled out",
			f:    LogFilter{Type: "MODE_CHANGE"},
			want: ErrUnknownEventType,
		},
		{
			name: "evening before morning",
			f: LogFilter{
				From: time.Date(2025, time.June, 2, 22, 0, 0, 0, cest),
				To:   time.Date(2025, time.June, 2, 6, 0, 0, 0, cest),
			},
			want: errInvalidTimeRange,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakeEventRepo{}
			_, err := NewEventLogService(repo).List(context.Background(), tc.f)
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v; want %v", err, tc.want)
			}
			if repo.calls != 0 {
				t.Fatalf("repo queried %d times for a rejected filter", repo.calls)
			}
		})
	}
}

func TestEventLogService_NormalizesToStorageForm(t *testing.T) {
	// A relay window 06:00-22:00 local on the device clock.
	on := time.Date(2025, time.June, 2, 6, 0, 0, 0, cest)
	off := time.Date(2025, time.June, 2, 22, 0, 0, 0, cest)
	repo := &fakeEventRepo{events: []models.DeviceEvent{{EventID: "r1", Type: models.EventRelay}}}

	out, err := NewEventLogService(repo).List(context.Background(), LogFilter{From: on, To: off, Type: " relay "})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(out) != 1 || out[0].EventID != "r1" {
		t.Fatalf("events = %+v", out)
	}
	if !repo.gotFrom.Equal(time.Date(2025, time.June, 2, 4, 0, 0, 0, time.UTC)) {
		t.Fatalf("from = %v; want 04:00Z", repo.gotFrom)
	}
	if !repo.gotTo.Equal(time.Date(2025, time.June, 2, 20, 0, 0, 0, time.UTC)) {
		t.Fatalf("to = %v; want 20:00Z", repo.gotTo)
	}
	if repo.gotType != models.EventRelay {
		t.Fatalf("type = %q", repo.gotType)
	}
}

func TestEventLogService_OpenBoundsStayZero(t *testing.T) {
	repo := &fakeEventRepo{}
	since := time.Date(2025, time.June, 1, 0, 0, 0, 0, cest)

	if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{From: since}); err != nil {
		t.Fatalf("List: %v", err)
	}
	if !repo.gotTo.IsZero() || repo.gotType != "" {
		t.Fatalf("open bounds changed: to=%v type=%q", repo.gotTo, repo.gotType)
	}
	if !repo.gotFrom.Equal(since) || repo.gotFrom.Location() != time.UTC {
		t.Fatalf("from = %v", repo.gotFrom)
	}
}

func TestEventLogService_StorageErrorReturned(t *testing.T) {
	repo := &fakeEventRepo{err: errors.New("database is locked")}
	if _, err := NewEventLogService(repo).List(context.Background(), LogFilter{}); !errors.Is(err, repo.err) {
		t.Fatalf("err = %v; want storage error", err)
	}
}
