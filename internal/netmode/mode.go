// Package netmode selects between hosting a local setup network and joining
// the provisioned one, and owns the captive-portal decisions of setup mode.
package netmode

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"
	"time"

	"schedule_controller/internal/logger"
	"schedule_controller/internal/models"
)

// Mode of the network state machine.
type Mode int

const (
	Unprovisioned Mode = iota
	Connecting
	Provisioned
	// Fallback serves like Unprovisioned but is only reached after a failed join.
	Fallback
)

func (m Mode) String() string {
	switch m {
	case Unprovisioned:
		return "unprovisioned"
	case Connecting:
		return "connecting"
	case Provisioned:
		return "provisioned"
	case Fallback:
		return "fallback"
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// Radio is the wireless capability set the controller drives.
type Radio interface {
	// StartAccessPoint hosts a local network and returns the device address on it.
	StartAccessPoint(ctx context.Context, ssid, password string) (net.IP, error)
	// Join starts associating with an infrastructure network.
	Join(ctx context.Context, ssid, password string) error
	// Connected reports whether the last Join has completed.
	Connected() bool
	// LocalIP is the address on the joined network.
	LocalIP() net.IP
}

// Redirector answers every name lookup with the device address.
type Redirector interface {
	Start(ctx context.Context, ip net.IP) error
}

// TimeSyncer performs the first network time sync after joining.
type TimeSyncer interface {
	Sync(ctx context.Context) error
}

// Config of the setup network and the join retry budget.
type Config struct {
	APSSID       string
	APPassword   string
	JoinAttempts int
	JoinDelay    time.Duration
}

// Transition is reported to the observer on every mode change.
type Transition struct {
	From, To Mode
}

// Controller is the ModeController.
type Controller struct {
	cfg   Config
	radio Radio
	dns   Redirector
	clock TimeSyncer
	log   *logger.Logger

	// sleep waits between join polls; replaced in tests.
	sleep    func(time.Duration)
	observer func(Transition)

	mu   sync.RWMutex
	mode Mode
	ip   net.IP
}

func NewController(cfg Config, radio Radio, dns Redirector, clock TimeSyncer, log *logger.Logger) *Controller {
	return &Controller{
		cfg:   cfg,
		radio: radio,
		dns:   dns,
		clock: clock,
		log:   log,
		sleep: time.Sleep,
		mode:  Unprovisioned,
	}
}

// OnTransition registers fn to be called after every mode change.
func (c *Controller) OnTransition(fn func(Transition)) {
	c.observer = fn
}

// Boot runs the transition table from the loaded credentials. loadErr is
// the result of the persistent load; any error there means unprovisioned.
// The join loop runs to success or exhaustion and cannot be interrupted.
func (c *Controller) Boot(ctx context.Context, creds models.Credentials, loadErr error) Mode {
	if loadErr != nil || creds.Empty() {
		c.serveSetup(ctx, Unprovisioned)
		return c.Mode()
	}

	c.setMode(Connecting, nil)
	if c.join(ctx, creds) {
		c.setMode(Provisioned, c.radio.LocalIP())
		if err := c.clock.Sync(ctx); err != nil {
			c.log.Warnw("initial_time_sync_failed", "err", err)
		}
		return c.Mode()
	}

	c.log.Warnw("join_failed_fallback", "ssid", creds.SSID, "attempts", c.cfg.JoinAttempts)
	c.serveSetup(ctx, Fallback)
	return c.Mode()
}

func (c *Controller) join(ctx context.Context, creds models.Credentials) bool {
	c.log.Infow("joining_network", "ssid", creds.SSID)
	if err := c.radio.Join(ctx, creds.SSID, creds.Password); err != nil {
		c.log.Warnw("join_start_failed", "err", err)
		return false
	}
	for attempt := 0; attempt < c.cfg.JoinAttempts; attempt++ {
		if c.radio.Connected() {
			return true
		}
		c.sleep(c.cfg.JoinDelay)
	}
	return c.radio.Connected()
}

// serveSetup brings up the local network and the catch-all DNS responder.
func (c *Controller) serveSetup(ctx context.Context, mode Mode) {
	ip, err := c.radio.StartAccessPoint(ctx, c.cfg.APSSID, c.cfg.APPassword)
	if err != nil {
		c.log.Errorw("access_point_failed", "err", err)
	} else if err := c.dns.Start(ctx, ip); err != nil {
		c.log.Errorw("captive_dns_failed", "err", err)
	}
	c.setMode(mode, ip)
	c.log.Infow("captive_portal_active", "ssid", c.cfg.APSSID, "ip", ip)
}

func (c *Controller) setMode(m Mode, ip net.IP) {
	c.mu.Lock()
	from := c.mode
	c.mode = m
	c.ip = ip
	c.mu.Unlock()

	c.log.Infow("mode_transition", "from", from, "to", m, "ip", ip)
	if c.observer != nil && from != m {
		c.observer(Transition{From: from, To: m})
	}
}

// Mode returns the current mode.
func (c *Controller) Mode() Mode {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.mode
}

// Address is the device address in the current mode, nil if none.
func (c *Controller) Address() net.IP {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ip
}

// Serving reports whether the setup portal is up (Unprovisioned or Fallback).
func (c *Controller) Serving() bool {
	m := c.Mode()
	return m == Unprovisioned || m == Fallback
}

// ScheduleActive reports whether schedule evaluation and time sync should run.
func (c *Controller) ScheduleActive() bool {
	return c.Mode() == Provisioned
}

// ShouldRedirect reports whether an HTTP request for host must be answered
// with a redirect to the setup page. Only applies while serving setup.
func (c *Controller) ShouldRedirect(host string) bool {
	if !c.Serving() {
		return false
	}
	ip := c.Address()
	if ip == nil {
		return false
	}
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return !strings.EqualFold(host, ip.String())
}
