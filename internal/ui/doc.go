// Package ui renders the monitor's own output with Lipgloss: the startup
// banner, warnings, and result boxes for the one-shot subcommands.
//
// Everything here returns strings. The banner is written through the
// session console, which translates newlines for raw mode; result boxes go
// straight to stdout because those commands never enter raw mode.
//
// When stdout is not a terminal Lipgloss drops colors, so rendered text is
// plain and safe to pipe.
package ui
