package config

import (
	"fmt"
	"sort"
	"time"
)

// Transport identifiers accepted in a gateway profile.
const (
	TransportSerial = "serial"
	TransportTCP    = "tcp"
	TransportWS     = "ws"
)

// Registry represents the entire user configuration file.
// This stores saved gateway profiles and application preferences.
type Registry struct {
	Version     int                 `yaml:"version"`
	Gateways    map[string]*Profile `yaml:"gateways,omitempty"` // Keyed by profile name
	Preferences *Preferences        `yaml:"preferences,omitempty"`
}

// Profile represents a saved connection profile for a single gateway.
// This is keyed by a user-chosen profile name in the Registry.
type Profile struct {
	Transport string    `yaml:"transport"`           // "serial", "tcp" or "ws"
	Device    string    `yaml:"device,omitempty"`    // Serial device path (serial only)
	Baud      int       `yaml:"baud,omitempty"`      // Serial baud rate, 0 = driver default
	Addr      string    `yaml:"addr,omitempty"`      // host:port for tcp, URL for ws
	Notes     string    `yaml:"notes,omitempty"`     // Free-form user notes
	AddedAt   time.Time `yaml:"added_at,omitempty"`  // When the profile was created
	LastSeen  time.Time `yaml:"last_seen,omitempty"` // Last successful connection time
}

// Preferences represents application-wide user preferences.
type Preferences struct {
	AutoDiscover    bool   `yaml:"auto_discover"`             // Enable automatic mDNS discovery on startup
	DiscoverTimeout int    `yaml:"discover_timeout"`          // mDNS discovery timeout in seconds
	DefaultProfile  string `yaml:"default_profile,omitempty"` // Profile used when none is named
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version:  1,
		Gateways: make(map[string]*Profile),
		Preferences: &Preferences{
			AutoDiscover:    true,
			DiscoverTimeout: 10,
		},
	}
}

// Validate checks that the profile names a reachable target for its transport.
func (p *Profile) Validate() error {
	switch p.Transport {
	case TransportSerial:
		if p.Device == "" {
			return fmt.Errorf("serial profile requires a device path")
		}
	case TransportTCP, TransportWS:
		if p.Addr == "" {
			return fmt.Errorf("%s profile requires an address", p.Transport)
		}
	default:
		return fmt.Errorf("unknown transport %q (expected serial, tcp or ws)", p.Transport)
	}
	return nil
}

// Target returns the connection target of the profile, whichever field holds it.
func (p *Profile) Target() string {
	if p.Transport == TransportSerial {
		return p.Device
	}
	return p.Addr
}

// GetProfile retrieves a gateway profile by name.
// Returns nil if the profile doesn't exist in the registry.
func (r *Registry) GetProfile(name string) *Profile {
	return r.Gateways[name]
}

// SetProfile adds or replaces a gateway profile.
// Stamps AddedAt on first insertion and preserves it on replacement.
func (r *Registry) SetProfile(name string, profile *Profile) {
	if r.Gateways == nil {
		r.Gateways = make(map[string]*Profile)
	}

	if existing, exists := r.Gateways[name]; exists && profile.AddedAt.IsZero() {
		profile.AddedAt = existing.AddedAt
	}
	if profile.AddedAt.IsZero() {
		profile.AddedAt = time.Now()
	}
	r.Gateways[name] = profile
}

// RemoveProfile deletes a gateway profile by name.
// Returns true if the profile existed.
func (r *Registry) RemoveProfile(name string) bool {
	if _, exists := r.Gateways[name]; !exists {
		return false
	}
	delete(r.Gateways, name)
	if r.Preferences != nil && r.Preferences.DefaultProfile == name {
		r.Preferences.DefaultProfile = ""
	}
	return true
}

// ProfileNames returns all profile names in sorted order.
func (r *Registry) ProfileNames() []string {
	names := make([]string, 0, len(r.Gateways))
	for name := range r.Gateways {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UpdateProfileLastSeen records a successful connection for a profile.
// Returns false if the profile doesn't exist.
func (r *Registry) UpdateProfileLastSeen(name string) bool {
	profile, exists := r.Gateways[name]
	if !exists {
		return false
	}
	profile.LastSeen = time.Now()
	return true
}

// DefaultProfileName resolves the profile to use when the caller named none.
// Returns the configured default, or the sole profile if exactly one exists.
func (r *Registry) DefaultProfileName() string {
	if r.Preferences != nil && r.Preferences.DefaultProfile != "" {
		return r.Preferences.DefaultProfile
	}
	if len(r.Gateways) == 1 {
		for name := range r.Gateways {
			return name
		}
	}
	return ""
}
