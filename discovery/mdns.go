package discovery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/grandcat/zeroconf"
)

const (
	// ServiceType is the mDNS service type NMEA 2000 bridges advertise.
	ServiceType = "_nmea-2000._tcp"

	// ServiceDomain is the mDNS domain (typically "local.")
	ServiceDomain = "local."

	// DefaultScanTimeout is the default timeout for gateway discovery
	DefaultScanTimeout = 10 * time.Second

	// DefaultPort is the raw-stream port bridges listen on when their
	// advertisement does not carry one.
	DefaultPort = 60001
)

// Scanner handles mDNS gateway discovery
type Scanner struct {
	// Timeout is the maximum time to wait for gateway discovery
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all NMEA 2000 bridges on the local network.
// Returns the gateways seen before the timeout, or an error.
func (s *Scanner) Scan() ([]*Gateway, error) {
	return s.ScanWithContext(context.Background())
}

// ScanWithContext discovers gateways with a custom context
func (s *Scanner) ScanWithContext(ctx context.Context) ([]*Gateway, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	gateways := make([]*Gateway, 0)
	done := make(chan struct{})

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Collect entries in a goroutine
	go func() {
		defer close(done)
		for entry := range entries {
			gateway := s.parseServiceEntry(entry)
			if gateway != nil {
				gateways = append(gateways, gateway)
			}
		}
	}()

	// Start browsing for bridge services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for the browse to finish and the collector to drain
	<-ctx.Done()
	<-done

	return gateways, nil
}

// WaitForGateway waits for a specific gateway by instance name.
// Returns the gateway or an error if not found within the timeout.
func (s *Scanner) WaitForGateway(name string) (*Gateway, error) {
	return s.WaitForGatewayWithContext(context.Background(), name)
}

// WaitForGatewayWithContext waits for a specific gateway with a custom context
func (s *Scanner) WaitForGatewayWithContext(ctx context.Context, name string) (*Gateway, error) {
	// Create a context with timeout
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	// Channel to receive service entries
	entries := make(chan *zeroconf.ServiceEntry)
	gatewayChan := make(chan *Gateway, 1)

	// Start the resolver
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	// Browse for services in a goroutine
	go func() {
		for entry := range entries {
			gateway := s.parseServiceEntry(entry)
			if gateway != nil && gateway.Name == name {
				gatewayChan <- gateway
				cancel() // Found the gateway, cancel context
				return
			}
		}
	}()

	// Start browsing for bridge services
	err = resolver.Browse(ctx, ServiceType, ServiceDomain, entries)
	if err != nil {
		return nil, fmt.Errorf("failed to browse for mDNS services: %w", err)
	}

	// Wait for gateway or timeout
	select {
	case gateway := <-gatewayChan:
		return gateway, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("gateway %q not found within timeout", name)
	}
}

// parseServiceEntry converts a zeroconf service entry to a Gateway.
// Returns nil for entries with no usable address.
func (s *Scanner) parseServiceEntry(entry *zeroconf.ServiceEntry) *Gateway {
	if entry.Instance == "" {
		return nil
	}

	// Get IP address (prefer IPv4)
	var host string
	for _, addr := range entry.AddrIPv4 {
		host = addr.String()
		break
	}

	// Fallback to IPv6 if no IPv4
	if host == "" && len(entry.AddrIPv6) > 0 {
		host = entry.AddrIPv6[0].String()
	}

	if host == "" {
		return nil
	}

	// Get port (default when not specified)
	port := entry.Port
	if port == 0 {
		port = DefaultPort
	}

	// Parse TXT records into metadata
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		// TXT records are in "key=value" format
		parts := strings.SplitN(txt, "=", 2)
		if len(parts) == 2 {
			metadata[parts[0]] = parts[1]
		} else {
			// Key without value
			metadata[parts[0]] = ""
		}
	}

	return &Gateway{
		Kind:         KindNetwork,
		Name:         entry.Instance,
		Host:         host,
		Port:         port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}

// ScanNetwork is a convenience function to scan for gateways with a custom timeout
func ScanNetwork(timeout time.Duration) ([]*Gateway, error) {
	scanner := NewScanner()
	scanner.Timeout = timeout
	return scanner.Scan()
}

// QuickScan performs a fast scan with a 3-second timeout
func QuickScan() ([]*Gateway, error) {
	scanner := NewScanner()
	scanner.Timeout = 3 * time.Second
	return scanner.Scan()
}

// FindGateway searches for a specific gateway by instance name with default timeout
func FindGateway(name string) (*Gateway, error) {
	scanner := NewScanner()
	return scanner.WaitForGateway(name)
}
