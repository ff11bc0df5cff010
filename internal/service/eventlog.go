package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"schedule_controller/internal/models"
	"schedule_controller/internal/repository"
)

// EventLogService serves the device event history.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

var (
	errInvalidTimeRange = errors.New("invalid time range: From must be <= To")
	// ErrUnknownEventType is returned for a type filter outside the known set.
	ErrUnknownEventType = errors.New("unknown event type")
)

var eventTypes = map[string]struct{}{
	models.EventRelay:     {},
	models.EventRunning:   {},
	models.EventSchedule:  {},
	models.EventProvision: {},
	models.EventReset:     {},
	models.EventMode:      {},
}

// normalizeToUTC returns t in UTC, preserving zero time values.
func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

// normalizeEventType trims spaces and uppercases the event type filter.
func normalizeEventType(s string) string {
	return strings.TrimSpace(strings.ToUpper(s))
}

// normalizeAndValidateFilter prepares query parameters and validates the time range.
func normalizeAndValidateFilter(f LogFilter) (time.Time, time.Time, string, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)

	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return time.Time{}, time.Time{}, "", errInvalidTimeRange
	}

	eventType := normalizeEventType(f.Type)
	if eventType != "" {
		if _, ok := eventTypes[eventType]; !ok {
			return time.Time{}, time.Time{}, "", fmt.Errorf("%w: %q", ErrUnknownEventType, eventType)
		}
	}
	return from, to, eventType, nil
}

// List returns events matching f, newest first.
func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error) {
	from, to, typ, err := normalizeAndValidateFilter(f)
	if err != nil {
		return nil, err
	}
	return s.eventRepo.List(ctx, from, to, typ)
}
