package netmode

import (
	"context"
	"fmt"
	"net"

	"schedule_controller/internal/logger"
)

// HostRadio runs the device on a host whose networking is managed by the OS.
// The OS (wpa_supplicant, hostapd or similar) associates with the network and
// hosts the access point at apIP; HostRadio never sees the SSID it joined.
// Joining counts as done once the watched interface has a routable IPv4
// address. With iface empty every interface is watched, so a host with a
// wired link always reads as joined and never reaches Fallback.
type HostRadio struct {
	apIP  net.IP
	iface string
	log   *logger.Logger
	addrs func() ([]net.Addr, error)
	ssid  string
}

// NewHostRadio watches iface (for example "wlan0"), or all interfaces when
// iface is empty.
func NewHostRadio(apIP net.IP, iface string, log *logger.Logger) *HostRadio {
	r := &HostRadio{apIP: apIP, iface: iface, log: log, addrs: net.InterfaceAddrs}
	if iface != "" {
		r.addrs = func() ([]net.Addr, error) { return interfaceAddrs(iface) }
	}
	return r
}

func interfaceAddrs(name string) ([]net.Addr, error) {
	ifi, err := net.InterfaceByName(name)
	if err != nil {
		return nil, fmt.Errorf("interface %s: %w", name, err)
	}
	return ifi.Addrs()
}

func (r *HostRadio) StartAccessPoint(ctx context.Context, ssid, password string) (net.IP, error) {
	if r.apIP.To4() == nil {
		return nil, fmt.Errorf("access point address %v is not IPv4", r.apIP)
	}
	r.log.Infow("access_point_started", "ssid", ssid, "ip", r.apIP)
	return r.apIP, nil
}

// Join only records ssid for logging; association is left to the OS.
func (r *HostRadio) Join(ctx context.Context, ssid, password string) error {
	r.ssid = ssid
	r.log.Infow("waiting_for_link", "ssid", ssid, "iface", r.iface)
	return nil
}

func (r *HostRadio) Connected() bool {
	return r.LocalIP() != nil
}

// LocalIP returns the first non-loopback IPv4 address, nil if none.
func (r *HostRadio) LocalIP() net.IP {
	addrs, err := r.addrs()
	if err != nil {
		r.log.Debugw("interface_addrs_failed", "err", err)
		return nil
	}
	for _, a := range addrs {
		ipn, ok := a.(*net.IPNet)
		if !ok || ipn.IP.IsLoopback() || ipn.IP.IsLinkLocalUnicast() {
			continue
		}
		if ip4 := ipn.IP.To4(); ip4 != nil {
			return ip4
		}
	}
	return nil
}
