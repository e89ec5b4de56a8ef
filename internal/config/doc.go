// Package config provides user configuration management for the n2klink project.
//
// This package manages a YAML-based configuration file that stores saved gateway
// connection profiles (serial device, TCP bridge or WebSocket endpoints) and
// application preferences. The configuration follows OS-specific conventions for
// storage location.
//
// # Configuration File Location
//
// The configuration file is stored in platform-appropriate locations:
//   - Linux: $XDG_CONFIG_HOME/n2klink/config.yaml or $HOME/.config/n2klink/config.yaml
//   - macOS: $HOME/.config/n2klink/config.yaml
//   - Windows: %LOCALAPPDATA%\n2klink\config.yaml
//
// # File Format
//
// A registry with one serial and one network profile looks like:
//
//	version: 1
//	gateways:
//	  usb:
//	    transport: serial
//	    device: /dev/ttyUSB0
//	    baud: 115200
//	  helm:
//	    transport: tcp
//	    addr: 192.168.4.16:60001
//	preferences:
//	  auto_discover: true
//	  discover_timeout: 10
//	  default_profile: usb
//
// # Usage Example
//
//	// Load the global registry
//	registry, err := config.LoadRegistry()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	// Add or update a gateway profile
//	registry.SetProfile("helm", &config.Profile{
//	    Transport: config.TransportTCP,
//	    Addr:      "192.168.4.16:60001",
//	    Notes:     "W2K-1 behind the chart table",
//	})
//
//	// Save changes atomically
//	if err := registry.Save(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread Safety
//
// The global registry uses sync.Once for safe initialization across goroutines.
// File operations are protected by a mutex to ensure atomic writes.
package config
