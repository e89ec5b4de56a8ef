package discovery

import (
	"path/filepath"
	"runtime"
	"sort"
	"time"
)

// serialGlobs returns the device node patterns USB serial adapters
// appear under on this OS.
func serialGlobs() []string {
	switch runtime.GOOS {
	case "linux":
		return []string{"/dev/ttyUSB*", "/dev/ttyACM*"}
	case "darwin":
		return []string{"/dev/cu.usbserial*", "/dev/cu.usbmodem*", "/dev/cu.SLAB_USBtoUART*"}
	case "freebsd", "openbsd", "netbsd":
		return []string{"/dev/cuaU*", "/dev/ttyU*"}
	default:
		// Windows COM ports are not globbable device nodes.
		return nil
	}
}

// ScanSerial enumerates candidate serial gateways on this host, sorted
// by device path. Platforms without globbable device nodes yield an
// empty list.
func ScanSerial() []*Gateway {
	return scanPatterns(serialGlobs())
}

func scanPatterns(patterns []string) []*Gateway {
	var found []*Gateway
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			// Only malformed patterns error; ours are fixed.
			continue
		}
		for _, path := range matches {
			if seen[path] {
				continue
			}
			seen[path] = true
			found = append(found, &Gateway{
				Kind:         KindSerial,
				Name:         filepath.Base(path),
				Device:       path,
				DiscoveredAt: time.Now(),
			})
		}
	}
	sort.Slice(found, func(i, j int) bool { return found[i].Device < found[j].Device })
	return found
}
