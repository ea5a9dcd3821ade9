// Package mirror shares a monitor session with other machines.
//
// A Server accepts WebSocket viewers on Path and relays every device line
// as a text message. With Advertise set it also registers itself over mDNS
// as ServiceType so viewers on the bench network can find it (see the
// discovery package). Watch is the matching client used by
// "espmonitor watch".
//
// Mirroring is read-only: viewers cannot reset the chip or send input.
package mirror
