package service

import (
	"context"
	"net"
	"time"

	"schedule_controller"
	"schedule_controller/internal/models"
	"schedule_controller/internal/netmode"
	"schedule_controller/internal/repository"
)

// Control is the ControlAPI the HTTP layer calls in provisioned mode.
type Control interface {
	GetStatus(ctx context.Context) (schedule_controller.Status, error)
	// SetSchedule applies the supplied fields and reports whether anything changed.
	SetSchedule(ctx context.Context, upd ScheduleUpdate) (bool, error)
	SetRunning(ctx context.Context, running bool) error
	ResetToFactory(ctx context.Context) error
}

// Provisioning exposes the network mode and the setup-form submission.
type Provisioning interface {
	Mode() netmode.Mode
	Serving() bool
	ShouldRedirect(host string) bool
	Address() net.IP
	Provision(ctx context.Context, ssid, password string) error
}

// EventLog exposes the device event history with filtering.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.DeviceEvent, error)
}

// Scheduler runs the periodic schedule evaluation.
// Stop via context cancellation.
type Scheduler interface {
	Run(ctx context.Context, tick time.Duration)
}

// Restarter re-enters the boot sequence. Restart returns immediately; the
// restart happens once the caller's request has completed.
type Restarter interface {
	Restart(reason string)
}

// Service aggregates all sub-services.
type Service struct {
	Control
	Provisioning
	EventLog
	Scheduler
}

// NewService wires the device aggregate and the mode controller into the
// services the handlers use.
func NewService(device *Device, modes *netmode.Controller, events repository.EventRepo, restart Restarter) *Service {
	return &Service{
		Control:      device,
		Provisioning: NewProvisioningService(modes, device, restart),
		EventLog:     NewEventLogService(events),
		Scheduler:    device,
	}
}
