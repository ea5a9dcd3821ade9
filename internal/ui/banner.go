package ui

import (
	"fmt"
	"strings"
)

// KeyBinding describes one interactive command.
type KeyBinding struct {
	Keys   string // e.g., "CTRL+R"
	Action string // e.g., "Reset chip"
}

// DefaultBindings are the commands the monitor understands.
var DefaultBindings = []KeyBinding{
	{Keys: "CTRL+R", Action: "Reset chip"},
	{Keys: "CTRL+C", Action: "Exit"},
}

// Banner is printed when a session starts: the version, the key bindings and
// a list of startup notices.
type Banner struct {
	Version  string
	Bindings []KeyBinding
	Notices  []string
}

// NewBanner creates a banner with the default key bindings
func NewBanner(version string) *Banner {
	return &Banner{
		Version:  version,
		Bindings: DefaultBindings,
	}
}

// AddNotice appends a line printed after the command list
func (b *Banner) AddNotice(notice string) *Banner {
	b.Notices = append(b.Notices, notice)
	return b
}

// Render returns the styled banner. Lines are separated by "\n"; callers
// writing to a raw terminal must translate them.
func (b *Banner) Render() string {
	var lines []string

	lines = append(lines, TitleStyle.Render("ESPMonitor "+b.Version), "")

	if len(b.Bindings) > 0 {
		lines = append(lines, SectionStyle.Render("Commands:"))
		for _, kb := range b.Bindings {
			lines = append(lines, KeyStyle.Render(kb.Keys)+ActionStyle.Render(kb.Action))
		}
		lines = append(lines, "")
	}

	lines = append(lines, b.Notices...)

	return strings.Join(lines, "\n") + "\n"
}

// String implements fmt.Stringer
func (b *Banner) String() string {
	return b.Render()
}

// OpeningNotice announces the serial port being opened
func OpeningNotice(device string, speed int) string {
	return NoticeStyle.Render(fmt.Sprintf("Opening %s with speed %d", device, speed))
}

// FlashImageNotice announces the image used for symbolication, or warns
// that it is missing.
func FlashImageNotice(path string, exists bool) string {
	if exists {
		return NoticeStyle.Render(fmt.Sprintf("Using %s as flash image", path))
	}
	return Warning(fmt.Sprintf("Flash image %s does not exist (you may need to build it)", path))
}

// Warning renders a one-line warning
func Warning(msg string) string {
	return WarningStyle.Render("WARNING: " + msg)
}
