package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"schedule_controller"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	pongWait         = 60 * time.Second
	pingPeriod       = (pongWait * 9) / 10
	maxMsgSize       = 1 << 12 // 4 KB
	defaultInterval  = 1 * time.Second
	maxInterval      = 10 * time.Second
	maxIntervalMilli = 10_000

	wsTypeStatus = "status"
	wsTypeError  = "error"

	// closeRestart tells the page the device is rebooting and it should
	// reconnect (possibly to the setup portal).
	closeRestart = "device restarting"
)

type wsEnvelope struct {
	Type  string      `json:"type"`
	Data  interface{} `json:"data,omitempty"`
	Error string      `json:"error,omitempty"`
}

// The control page is served from a bare IP, so origins are not checked.
var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// statusStream pushes device status over one upgraded connection. A frame
// goes out on every interval tick; unchanged relay or mode state still
// refreshes the clock fields on the page.
type statusStream struct {
	h        *Handler
	conn     *websocket.Conn
	interval time.Duration
	last     schedule_controller.Status
	sent     bool
}

// @Summary      Status stream
// @Description  WebSocket upgrade. Sends {"type":"status","data":Status} immediately and then every interval (?interval=2s or ?interval_ms=2000, max 10s). Closed with 1001 when the device restarts.
// @Tags         control
// @Router       /ws [get]
func (h *Handler) wsConnect(c *gin.Context) {
	interval := h.parseInterval(c)

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		if h.log != nil {
			h.log.Errorw("ws_upgrade_failed", "err", err)
		}
		return
	}
	defer func() { _ = conn.Close() }()

	s := &statusStream{h: h, conn: conn, interval: interval}
	s.run(c.Request.Context(), h.lifetime)
}

// run streams until the client goes away, the request ends or the device
// lifetime ends. On lifetime end the client gets a going-away close frame.
func (s *statusStream) run(reqCtx, lifetime context.Context) {
	s.conn.SetReadLimit(maxMsgSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	gone := make(chan struct{})
	go s.drain(gone)

	if err := s.push(reqCtx); err != nil {
		s.logInfo("ws_initial_write_failed", err)
		return
	}

	ticker := time.NewTicker(s.interval)
	ping := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	defer ping.Stop()

	for {
		select {
		case <-gone:
			return
		case <-reqCtx.Done():
			return
		case <-lifetime.Done():
			s.closeRestarting()
			return
		case <-ping.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logInfo("ws_ping_failed", err)
				return
			}
		case <-ticker.C:
			if err := s.push(reqCtx); err != nil {
				s.logInfo("ws_write_failed", err)
				return
			}
		}
	}
}

// drain reads and discards client frames so control frames are handled
// and a disconnect is noticed.
func (s *statusStream) drain(gone chan<- struct{}) {
	defer close(gone)
	for {
		if _, _, err := s.conn.ReadMessage(); err != nil {
			s.logInfo("ws_read_closed", err)
			return
		}
	}
}

// push writes the current status, or an error envelope when the device
// cannot report one.
func (s *statusStream) push(ctx context.Context) error {
	st, err := s.h.services.GetStatus(ctx)
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err != nil {
		if s.h.log != nil {
			s.h.log.Errorw("ws_get_status_failed", "err", err)
		}
		return s.conn.WriteJSON(wsEnvelope{Type: wsTypeError, Error: errGetStatus})
	}
	if s.sent && relaysOrModeChanged(s.last, st) && s.h.log != nil {
		s.h.log.Debugw("ws_status_changed", "relay1", st.Relay1, "relay2", st.Relay2, "mode", st.Mode)
	}
	s.last, s.sent = st, true
	return s.conn.WriteJSON(wsEnvelope{Type: wsTypeStatus, Data: st})
}

func (s *statusStream) closeRestarting() {
	msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, closeRestart)
	_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
}

func (s *statusStream) logInfo(event string, err error) {
	if s.h.log != nil {
		s.h.log.Infow(event, "err", err)
	}
}

func relaysOrModeChanged(a, b schedule_controller.Status) bool {
	return a.Relay1 != b.Relay1 || a.Relay2 != b.Relay2 || a.Running != b.Running || a.Mode != b.Mode
}

// parseInterval reads ?interval=2s or ?interval_ms=2000 with bounds.
func (h *Handler) parseInterval(c *gin.Context) time.Duration {
	if s := c.Query("interval"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 && d <= maxInterval {
			return d
		}
	}
	if ms := c.Query("interval_ms"); ms != "" {
		if v, err := strconv.Atoi(ms); err == nil && v > 0 && v <= maxIntervalMilli {
			return time.Duration(v) * time.Millisecond
		}
	}
	return defaultInterval
}
