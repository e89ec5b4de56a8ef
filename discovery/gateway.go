package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Kind distinguishes how a discovered gateway is attached.
type Kind string

const (
	// KindSerial is a local USB serial adapter.
	KindSerial Kind = "serial"

	// KindNetwork is a TCP bridge found over mDNS.
	KindNetwork Kind = "network"
)

// Gateway represents a discovered NMEA 2000 gateway.
type Gateway struct {
	// Kind says whether the gateway is a serial device or a network
	// bridge; it decides which of the fields below are meaningful.
	Kind Kind

	// Name is the mDNS instance name for network gateways, or the
	// device node basename for serial ones (e.g. "ttyUSB0").
	Name string

	// Device is the serial device path (e.g. "/dev/ttyUSB0").
	// Empty for network gateways.
	Device string

	// Host and Port locate a network bridge. Empty/zero for serial
	// gateways.
	Host string
	Port int

	// Metadata contains additional mDNS TXT record data.
	Metadata map[string]string

	// DiscoveredAt is when the gateway was discovered.
	DiscoveredAt time.Time
}

// String returns a human-readable description of the gateway.
func (g *Gateway) String() string {
	switch g.Kind {
	case KindSerial:
		return fmt.Sprintf("Serial gateway %s (%s)", g.Name, g.Device)
	case KindNetwork:
		return fmt.Sprintf("Network gateway %s at %s", g.Name, g.Addr())
	default:
		return fmt.Sprintf("Gateway %s", g.Name)
	}
}

// Addr returns the host:port dial target for network gateways, or the
// device path for serial ones.
func (g *Gateway) Addr() string {
	if g.Kind == KindSerial {
		return g.Device
	}
	return net.JoinHostPort(g.Host, strconv.Itoa(g.Port))
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (g *Gateway) GetMetadata(key string) string {
	if g.Metadata == nil {
		return ""
	}
	return g.Metadata[key]
}
