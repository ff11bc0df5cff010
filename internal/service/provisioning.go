package service

import (
	"context"

	"schedule_controller/internal/models"
	"schedule_controller/internal/netmode"
)

// ProvisioningService handles the setup portal: mode queries for the
// router and the credential form submission.
type ProvisioningService struct {
	*netmode.Controller
	device  *Device
	restart Restarter
}

func NewProvisioningService(modes *netmode.Controller, device *Device, restart Restarter) *ProvisioningService {
	return &ProvisioningService{Controller: modes, device: device, restart: restart}
}

// Provision saves the credentials and schedules a restart into the join path.
func (s *ProvisioningService) Provision(ctx context.Context, ssid, password string) error {
	creds := models.Credentials{SSID: ssid, Password: password}
	if err := s.device.SetCredentials(ctx, creds); err != nil {
		return err
	}
	s.restart.Restart("provisioned")
	return nil
}
