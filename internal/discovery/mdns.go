// Package discovery advertises the monitor's status page over mDNS.
package discovery

import (
	"fmt"
	"net"
	"strconv"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type browsers look for.
	ServiceType = "_http._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultPort is used when the listen address carries no port.
	DefaultPort = 80
)

// Advertiser owns a running mDNS registration.
type Advertiser struct {
	server *zeroconf.Server
	log    *zap.Logger
}

// TXT builds the TXT records published alongside the service.
func TXT(profile string) []string {
	return []string{"profile=" + profile, "path=/"}
}

// PortFromAddr extracts the port of a listen address such as ":80" or
// "0.0.0.0:8080".
func PortFromAddr(addr string) (int, error) {
	_, p, err := net.SplitHostPort(addr)
	if err != nil {
		return 0, fmt.Errorf("parse listen address %q: %w", addr, err)
	}
	if p == "" {
		return DefaultPort, nil
	}
	port, err := strconv.Atoi(p)
	if err != nil || port < 0 || port > 65535 {
		return 0, fmt.Errorf("parse listen address %q: bad port", addr)
	}
	if port == 0 {
		return DefaultPort, nil
	}
	return port, nil
}

// Advertise registers instance as an HTTP service on port on all interfaces.
func Advertise(instance string, port int, profile string, log *zap.Logger) (*Advertiser, error) {
	server, err := zeroconf.Register(instance, ServiceType, ServiceDomain, port, TXT(profile), nil)
	if err != nil {
		return nil, fmt.Errorf("mdns register: %w", err)
	}
	log.Info("mdns advertising",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", port))
	return &Advertiser{server: server, log: log}, nil
}

// Shutdown withdraws the registration. Safe on a nil Advertiser.
func (a *Advertiser) Shutdown() {
	if a == nil || a.server == nil {
		return
	}
	a.server.Shutdown()
	a.log.Info("mdns stopped")
}
