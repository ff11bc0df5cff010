package handlers

import (
	"net/http"
	"strconv"

	"schedule_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// Common response/status constants to avoid magic strings and typos.
const (
	statusOK        = "ok"
	statusSaved     = "saved"
	statusUnchanged = "unchanged"
	statusRunning   = "running_set"
	statusResetting = "resetting"

	errGetStatus     = "failed to load status"
	errSaveSchedule  = "failed to save schedule"
	errSetRunning    = "failed to set running flag"
	errFactoryReset  = "factory reset failed"
	errRunningParam  = "invalid 'running'; use 1 or 0"
	errCredsTooLong  = "ssid and password must be at most 64 bytes"
	errCredsEmpty    = "ssid is required"
	errProvision     = "failed to save credentials"
	errInvalidFilter = "invalid filter: "
)

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// Respond with a status and include current device status if available (best-effort).
func (h *Handler) respondWithStatusAndState(c *gin.Context, status string, extra gin.H) {
	ctx := c.Request.Context()
	resp := gin.H{"status": status}
	for k, v := range extra {
		resp[k] = v
	}
	st, err := h.services.GetStatus(ctx)
	if err == nil {
		resp["state"] = st
	}
	c.JSON(http.StatusOK, resp)
}

// formLookup reads a field from the POST body first, then the query string.
func formLookup(c *gin.Context) func(string) (string, bool) {
	return func(key string) (string, bool) {
		if v, ok := c.GetPostForm(key); ok {
			return v, true
		}
		return c.GetQuery(key)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": statusOK,
	})
}

// @Summary      Device status
// @Description  Relays, running flag, local time and the weekly schedule. Time fields read --:--:-- until the clock is synced.
// @Tags         control
// @Produce      json
// @Success      200  {object}  schedule_controller.Status
// @Failure      500  {object}  map[string]string
// @Router       /api [get]
func (h *Handler) getStatus(c *gin.Context) {
	ctx := c.Request.Context()
	st, err := h.services.GetStatus(ctx)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errGetStatus, "get_status_failed", err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// @Summary      Update schedule
// @Description  Sparse update. Fields are d{i}hon, d{i}mon, d{i}hof, d{i}mof, d{i}rl, d{i}act with i=0 (Monday) .. 6 (Sunday). Malformed or out-of-range fields are ignored.
// @Tags         control
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        d0hon  formData  int     false  "Monday hour on (0-23)"
// @Param        d0act  formData  string  false  "Monday active (1 or 0)"
// @Success      200  {object}  map[string]interface{}  "status, changed, state"
// @Failure      429  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /setSchedule [post]
func (h *Handler) setSchedule(c *gin.Context) {
	ctx := c.Request.Context()
	upd := service.ParseScheduleForm(formLookup(c))
	changed, err := h.services.SetSchedule(ctx, upd)
	if err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSaveSchedule, "set_schedule_failed", err)
		return
	}
	status := statusUnchanged
	if changed {
		status = statusSaved
	}
	h.respondWithStatusAndState(c, status, gin.H{"changed": changed})
}

// @Summary      Enable or disable the scheduler
// @Description  running=0 switches both relays off immediately.
// @Tags         control
// @Accept       x-www-form-urlencoded
// @Produce      json
// @Param        running  formData  string  true  "1 or 0"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /setRunning [post]
func (h *Handler) setRunning(c *gin.Context) {
	v, ok := formLookup(c)("running")
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": errRunningParam})
		return
	}
	running, err := strconv.ParseBool(v)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errRunningParam})
		return
	}
	ctx := c.Request.Context()
	if err := h.services.SetRunning(ctx, running); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errSetRunning, "set_running_failed", err, "running", running)
		return
	}
	h.respondWithStatusAndState(c, statusRunning, gin.H{"running": running})
}

// @Summary      Factory reset
// @Description  Switches both relays off, erases the stored record and restarts into setup mode.
// @Tags         control
// @Produce      json
// @Success      200  {object}  map[string]string
// @Failure      500  {object}  map[string]string
// @Router       /reset [post]
func (h *Handler) resetToFactory(c *gin.Context) {
	ctx := c.Request.Context()
	if h.log != nil {
		h.log.Warnw("factory_reset_requested", "client", clientIP(c.Request))
	}
	if err := h.services.ResetToFactory(ctx); err != nil {
		h.logAndJSONError(c, http.StatusInternalServerError, errFactoryReset, "factory_reset_failed", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": statusResetting})
}
