package discovery

import (
	"net"
	"testing"
	"time"

	"github.com/grandcat/zeroconf"
)

func TestScanner_parseServiceEntry(t *testing.T) {
	scanner := NewScanner()

	tests := []struct {
		name     string
		entry    *zeroconf.ServiceEntry
		wantNil  bool
		wantName string
		wantHost string
		wantPort int
	}{
		{
			name: "bridge with IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "NGT-1 Bridge"},
				Port:          60001,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
				Text:          []string{"model=W2K-1", "fw=2.600"},
			},
			wantNil:  false,
			wantName: "NGT-1 Bridge",
			wantHost: "192.168.4.16",
			wantPort: 60001,
		},
		{
			name: "bridge with custom port",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "helm"},
				Port:          2000,
				AddrIPv4:      []net.IP{net.ParseIP("10.0.0.5")},
			},
			wantNil:  false,
			wantName: "helm",
			wantHost: "10.0.0.5",
			wantPort: 2000,
		},
		{
			name: "no port advertised falls back to the raw-stream default",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "mast"},
				Port:          0,
				AddrIPv4:      []net.IP{net.ParseIP("172.16.0.1")},
			},
			wantNil:  false,
			wantName: "mast",
			wantHost: "172.16.0.1",
			wantPort: DefaultPort,
		},
		{
			name: "empty instance name",
			entry: &zeroconf.ServiceEntry{
				Port:     60001,
				AddrIPv4: []net.IP{net.ParseIP("192.168.1.1")},
			},
			wantNil: true,
		},
		{
			name: "no address",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "ghost"},
				Port:          60001,
				AddrIPv4:      []net.IP{},
				AddrIPv6:      []net.IP{},
			},
			wantNil: true,
		},
		{
			name: "IPv6 only bridge",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "v6only"},
				Port:          60001,
				AddrIPv6:      []net.IP{net.ParseIP("fe80::1")},
			},
			wantNil:  false,
			wantName: "v6only",
			wantHost: "fe80::1",
			wantPort: 60001,
		},
		{
			name: "both families prefers IPv4",
			entry: &zeroconf.ServiceEntry{
				ServiceRecord: zeroconf.ServiceRecord{Instance: "dual"},
				Port:          60001,
				AddrIPv4:      []net.IP{net.ParseIP("192.168.1.50")},
				AddrIPv6:      []net.IP{net.ParseIP("fe80::2")},
			},
			wantNil:  false,
			wantName: "dual",
			wantHost: "192.168.1.50",
			wantPort: 60001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gateway := scanner.parseServiceEntry(tt.entry)

			if tt.wantNil {
				if gateway != nil {
					t.Errorf("parseServiceEntry() = %v, want nil", gateway)
				}
				return
			}

			if gateway == nil {
				t.Fatal("parseServiceEntry() = nil, want non-nil gateway")
			}

			if gateway.Kind != KindNetwork {
				t.Errorf("gateway.Kind = %v, want KindNetwork", gateway.Kind)
			}

			if gateway.Name != tt.wantName {
				t.Errorf("gateway.Name = %v, want %v", gateway.Name, tt.wantName)
			}

			if gateway.Host != tt.wantHost {
				t.Errorf("gateway.Host = %v, want %v", gateway.Host, tt.wantHost)
			}

			if gateway.Port != tt.wantPort {
				t.Errorf("gateway.Port = %v, want %v", gateway.Port, tt.wantPort)
			}

			// Check that DiscoveredAt is recent (within last second)
			if time.Since(gateway.DiscoveredAt) > time.Second {
				t.Errorf("gateway.DiscoveredAt is not recent: %v", gateway.DiscoveredAt)
			}
		})
	}
}

func TestScanner_parseServiceEntry_Metadata(t *testing.T) {
	scanner := NewScanner()

	entry := &zeroconf.ServiceEntry{
		ServiceRecord: zeroconf.ServiceRecord{Instance: "NGT-1 Bridge"},
		Port:          60001,
		AddrIPv4:      []net.IP{net.ParseIP("192.168.4.16")},
		Text:          []string{"model=W2K-1", "fw=2.600", "flag", "proto=raw"},
	}

	gateway := scanner.parseServiceEntry(entry)
	if gateway == nil {
		t.Fatal("parseServiceEntry() = nil, want gateway")
	}

	// Check metadata parsing
	expectedMetadata := map[string]string{
		"model": "W2K-1",
		"fw":    "2.600",
		"flag":  "", // Key without value
		"proto": "raw",
	}

	if len(gateway.Metadata) != len(expectedMetadata) {
		t.Errorf("gateway.Metadata has %d entries, want %d", len(gateway.Metadata), len(expectedMetadata))
	}

	for key, expectedValue := range expectedMetadata {
		if actualValue, ok := gateway.Metadata[key]; !ok {
			t.Errorf("gateway.Metadata missing key %q", key)
		} else if actualValue != expectedValue {
			t.Errorf("gateway.Metadata[%q] = %q, want %q", key, actualValue, expectedValue)
		}
	}

	if got := gateway.GetMetadata("model"); got != "W2K-1" {
		t.Errorf("GetMetadata(model) = %q, want W2K-1", got)
	}
	if got := gateway.GetMetadata("missing"); got != "" {
		t.Errorf("GetMetadata(missing) = %q, want empty", got)
	}
}

func TestNewScanner(t *testing.T) {
	scanner := NewScanner()

	if scanner == nil {
		t.Fatal("NewScanner() = nil, want scanner")
	}

	if scanner.Timeout != DefaultScanTimeout {
		t.Errorf("scanner.Timeout = %v, want %v", scanner.Timeout, DefaultScanTimeout)
	}
}

// Note: Integration tests with live mDNS discovery require network access
// and are run manually with:
// go test -tags=integration ./discovery/
