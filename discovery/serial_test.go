package discovery

import (
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
}

func TestScanPatterns(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ttyUSB0"))
	touch(t, filepath.Join(dir, "ttyUSB1"))
	touch(t, filepath.Join(dir, "ttyACM0"))
	touch(t, filepath.Join(dir, "sda1"))

	patterns := []string{
		filepath.Join(dir, "ttyUSB*"),
		filepath.Join(dir, "ttyACM*"),
	}
	found := scanPatterns(patterns)

	if len(found) != 3 {
		t.Fatalf("scanPatterns() found %d gateways, want 3", len(found))
	}

	// Sorted by device path.
	wantNames := []string{"ttyACM0", "ttyUSB0", "ttyUSB1"}
	for i, gw := range found {
		if gw.Kind != KindSerial {
			t.Errorf("gateway %d Kind = %v, want KindSerial", i, gw.Kind)
		}
		if gw.Name != wantNames[i] {
			t.Errorf("gateway %d Name = %q, want %q", i, gw.Name, wantNames[i])
		}
		if gw.Device != filepath.Join(dir, wantNames[i]) {
			t.Errorf("gateway %d Device = %q", i, gw.Device)
		}
		if gw.DiscoveredAt.IsZero() {
			t.Errorf("gateway %d has no discovery time", i)
		}
	}
}

func TestScanPatternsDeduplicates(t *testing.T) {
	dir := t.TempDir()
	touch(t, filepath.Join(dir, "ttyUSB0"))

	// Overlapping patterns report each node once.
	patterns := []string{
		filepath.Join(dir, "ttyUSB*"),
		filepath.Join(dir, "tty*"),
	}
	if found := scanPatterns(patterns); len(found) != 1 {
		t.Errorf("scanPatterns() found %d gateways, want 1", len(found))
	}
}

func TestScanPatternsEmpty(t *testing.T) {
	if found := scanPatterns(nil); len(found) != 0 {
		t.Errorf("scanPatterns(nil) found %d gateways, want 0", len(found))
	}
	if found := scanPatterns([]string{filepath.Join(t.TempDir(), "nothing*")}); len(found) != 0 {
		t.Errorf("scanPatterns() on empty dir found %d gateways, want 0", len(found))
	}
}

func TestGatewayAddr(t *testing.T) {
	serial := &Gateway{Kind: KindSerial, Name: "ttyUSB0", Device: "/dev/ttyUSB0"}
	if got := serial.Addr(); got != "/dev/ttyUSB0" {
		t.Errorf("serial Addr() = %q", got)
	}

	bridge := &Gateway{Kind: KindNetwork, Name: "helm", Host: "192.168.4.16", Port: 60001}
	if got := bridge.Addr(); got != "192.168.4.16:60001" {
		t.Errorf("network Addr() = %q", got)
	}

	v6 := &Gateway{Kind: KindNetwork, Name: "v6", Host: "fe80::1", Port: 2000}
	if got := v6.Addr(); got != "[fe80::1]:2000" {
		t.Errorf("IPv6 Addr() = %q", got)
	}
}
