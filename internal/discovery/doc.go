// Package discovery finds espmonitor mirrors on the local network over mDNS.
//
// A monitor started with --mirror-mdns registers itself as
// "_espmonitor._tcp" with TXT records describing the session:
//
//	path=/ws
//	serial=/dev/ttyUSB0
//	chip=esp32
//
// Scanner browses for those registrations and returns them as Instances,
// whose URL can be handed to mirror.Watch.
//
// # Network Requirements
//
// - Requires multicast support on the network interface
// - Both machines must be on the same local network segment
// - Firewall must allow mDNS (UDP port 5353)
package discovery
