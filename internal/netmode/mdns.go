package netmode

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"

	"schedule_controller/internal/logger"

	"github.com/hashicorp/mdns"
)

const (
	mdnsService = "_http._tcp"
	mdnsDomain  = "local."
)

type mdnsServer interface {
	Shutdown() error
}

// Advertiser announces the control page as <name>.local with an http/tcp
// service record. It is only started once the device has joined a network.
type Advertiser struct {
	name string
	port int
	log  *logger.Logger

	// listen starts the responder for zone.
	listen func(zone mdns.Zone) (mdnsServer, error)

	mu     sync.Mutex
	server mdnsServer
}

// NewAdvertiser returns an advertiser for name (without ".local"). An empty
// name disables advertising.
func NewAdvertiser(name string, port int, log *logger.Logger) *Advertiser {
	a := &Advertiser{name: name, port: port, log: log}
	a.listen = func(zone mdns.Zone) (mdnsServer, error) {
		return mdns.NewServer(&mdns.Config{Zone: zone})
	}
	return a
}

// ParsePort extracts the numeric port from a listen address such as
// "8080", ":8080" or "0.0.0.0:80".
func ParsePort(addr string) (int, error) {
	if _, p, err := net.SplitHostPort(addr); err == nil {
		addr = p
	}
	port, err := strconv.Atoi(addr)
	if err != nil || port <= 0 || port > 65535 {
		return 0, fmt.Errorf("invalid port %q", addr)
	}
	return port, nil
}

func (a *Advertiser) zone(ip net.IP) (*mdns.MDNSService, error) {
	return mdns.NewMDNSService(a.name, mdnsService, mdnsDomain, a.name+"."+mdnsDomain, a.port, []net.IP{ip}, []string{"path=/"})
}

// Start registers ip under the configured name and withdraws it when ctx is
// done.
func (a *Advertiser) Start(ctx context.Context, ip net.IP) error {
	if a.name == "" {
		return nil
	}
	if ip == nil {
		return errors.New("mdns: no address to advertise")
	}
	zone, err := a.zone(ip)
	if err != nil {
		return fmt.Errorf("mdns zone: %w", err)
	}
	srv, err := a.listen(zone)
	if err != nil {
		return fmt.Errorf("mdns listen: %w", err)
	}

	a.mu.Lock()
	a.server = srv
	a.mu.Unlock()
	a.log.Infow("mdns_started", "host", a.name+".local", "ip", ip, "port", a.port)

	go func() {
		<-ctx.Done()
		a.stop()
	}()
	return nil
}

func (a *Advertiser) stop() {
	a.mu.Lock()
	srv := a.server
	a.server = nil
	a.mu.Unlock()
	if srv == nil {
		return
	}
	if err := srv.Shutdown(); err != nil {
		a.log.Warnw("mdns_shutdown_failed", "err", err)
	}
}

// Hostname is "<name>.local" while advertising, "" otherwise.
func (a *Advertiser) Hostname() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.server == nil {
		return ""
	}
	return a.name + ".local"
}
