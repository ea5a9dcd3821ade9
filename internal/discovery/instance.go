package discovery

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Instance is a monitor session advertising a mirror on the local network
type Instance struct {
	// Name is the mDNS instance name (usually the host running the monitor)
	Name string

	// Hostname is the mDNS hostname (e.g., "bench-pc.local.")
	Hostname string

	// IP is the address to connect to, IPv4 preferred
	IP string

	// Port is the mirror's TCP port
	Port int

	// Metadata contains the TXT record data: "path", "serial", "chip"
	Metadata map[string]string

	// DiscoveredAt is when the instance was discovered
	DiscoveredAt time.Time
}

// String returns a human-readable description of the instance
func (i *Instance) String() string {
	desc := i.Name
	if serial := i.GetMetadata("serial"); serial != "" {
		desc += " " + serial
		if chip := i.GetMetadata("chip"); chip != "" {
			desc += " (" + chip + ")"
		}
	}
	return fmt.Sprintf("%s at %s", desc, i.URL())
}

// URL returns the WebSocket URL for the instance's mirror
func (i *Instance) URL() string {
	path := i.GetMetadata("path")
	if path == "" {
		path = "/ws"
	}
	return fmt.Sprintf("ws://%s%s", net.JoinHostPort(i.IP, strconv.Itoa(i.Port)), path)
}

// GetMetadata retrieves a metadata value by key, or returns empty string if not found
func (i *Instance) GetMetadata(key string) string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata[key]
}
