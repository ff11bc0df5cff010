package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"schedule_controller/internal/models"
	"schedule_controller/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	errFromInvalid = "invalid 'from' time; use RFC3339 or YYYY-MM-DD"
	errToInvalid   = "invalid 'to' time; use RFC3339 or YYYY-MM-DD"
	errLastInvalid = "invalid 'last'; use a positive duration such as 30m or 24h"
	errRange       = "'from' must be <= 'to'"

	layoutDateTime = "2006-01-02 15:04:05"
	layoutDate     = "2006-01-02"
)

var queryTimeLayouts = []string{time.RFC3339, layoutDateTime, layoutDate}

// logsQuery is the raw query of GET /api/v1/logs.
type logsQuery struct {
	From string `form:"from"`
	To   string `form:"to"`
	Last string `form:"last"`
	Type string `form:"type"`
}

type logsResponse struct {
	Count  int                  `json:"count"`
	Events []models.DeviceEvent `json:"events"`
}

// filter turns the query into a service filter. A date-only 'to' covers the
// whole day. 'last' overrides 'from' with now minus the duration, which is
// what the control page uses for "relay switches today".
func (q logsQuery) filter(now time.Time) (service.LogFilter, string) {
	var f service.LogFilter
	f.Type = strings.ToUpper(strings.TrimSpace(q.Type))

	if q.From != "" {
		t, err := parseQueryTime(q.From)
		if err != nil {
			return f, errFromInvalid
		}
		f.From = t
	}
	if q.To != "" {
		t, err := parseQueryTime(q.To)
		if err != nil {
			return f, errToInvalid
		}
		if isDateOnly(q.To) {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.To = t
	}
	if q.Last != "" {
		d, err := time.ParseDuration(q.Last)
		if err != nil || d <= 0 {
			return f, errLastInvalid
		}
		f.From = now.Add(-d).UTC()
	}
	if !f.From.IsZero() && !f.To.IsZero() && f.From.After(f.To) {
		return f, errRange
	}
	return f, ""
}

func isDateOnly(s string) bool {
	return !strings.ContainsAny(s, "T ")
}

// @Summary      List device events
// @Description  Relay switches, schedule edits, running toggles, mode changes, provisioning and resets, newest first. Dates accept RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'; a date-only 'to' is inclusive of that day.
// @Tags         logs
// @Produce      json
// @Param        from  query   string  false  "Start of range"  example(2025-08-01)
// @Param        to    query   string  false  "End of range; date-only means end of that day"  example(2025-08-31)
// @Param        last  query   string  false  "Only events newer than this duration; overrides from"  example(24h)
// @Param        type  query   string  false  "Event type"  Enums(RELAY,RUNNING,SCHEDULE,PROVISION,RESET,MODE)
// @Success      200   {object}  logsResponse
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /api/v1/logs [get]
func (h *Handler) getLogs(c *gin.Context) {
	var q logsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidFilter + err.Error()})
		return
	}
	f, msg := q.filter(time.Now())
	if msg != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}

	events, err := h.services.EventLog.List(c.Request.Context(), f)
	switch {
	case errors.Is(err, service.ErrUnknownEventType):
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidFilter + err.Error()})
		return
	case err != nil:
		h.logAndJSONError(c, http.StatusInternalServerError, "failed to load logs", "logs_list_failed", err,
			"from", f.From, "to", f.To, "type", f.Type)
		return
	}
	c.JSON(http.StatusOK, logsResponse{Count: len(events), Events: events})
}

// parseQueryTime accepts RFC3339, date-time or date-only input, in UTC.
func parseQueryTime(s string) (time.Time, error) {
	for _, layout := range queryTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid time %q: want RFC3339, 'YYYY-MM-DD HH:MM:SS' or 'YYYY-MM-DD'", s)
}
