package handlers

import (
	"context"
	"net"
	"time"

	"schedule_controller"
	"schedule_controller/internal/models"
	"schedule_controller/internal/netmode"
	"schedule_controller/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockControl struct {
	status    schedule_controller.Status
	statusErr error

	scheduleChanged bool
	scheduleErr     error
	lastUpdate      service.ScheduleUpdate
	scheduleCalls   int

	runningErr   error
	lastRunning  bool
	runningCalls int

	resetErr   error
	resetCalls int
}

func (m *mockControl) GetStatus(ctx context.Context) (schedule_controller.Status, error) {
	return m.status, m.statusErr
}
func (m *mockControl) SetSchedule(ctx context.Context, upd service.ScheduleUpdate) (bool, error) {
	m.scheduleCalls++
	m.lastUpdate = upd
	return m.scheduleChanged, m.scheduleErr
}
func (m *mockControl) SetRunning(ctx context.Context, running bool) error {
	m.runningCalls++
	m.lastRunning = running
	return m.runningErr
}
func (m *mockControl) ResetToFactory(ctx context.Context) error {
	m.resetCalls++
	return m.resetErr
}

type mockProvisioning struct {
	mode         netmode.Mode
	ip           net.IP
	provisionErr error

	lastSSID       string
	lastPassword   string
	provisionCalls int
}

func (m *mockProvisioning) Mode() netmode.Mode { return m.mode }
func (m *mockProvisioning) Serving() bool {
	return m.mode == netmode.Unprovisioned || m.mode == netmode.Fallback
}
func (m *mockProvisioning) Address() net.IP { return m.ip }
func (m *mockProvisioning) ShouldRedirect(host string) bool {
	if !m.Serving() || m.ip == nil {
		return false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return host != m.ip.String()
}
func (m *mockProvisioning) Provision(ctx context.Context, ssid, password string) error {
	m.provisionCalls++
	m.lastSSID = ssid
	m.lastPassword = password
	return m.provisionErr
}

type mockEventLog struct {
	resp     []models.DeviceEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.DeviceEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

var apIP = net.IPv4(192, 168, 4, 1)

func provisioned() *mockProvisioning {
	return &mockProvisioning{mode: netmode.Provisioned, ip: net.IPv4(10, 0, 0, 7)}
}

func setupMode() *mockProvisioning {
	return &mockProvisioning{mode: netmode.Unprovisioned, ip: apIP}
}

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
