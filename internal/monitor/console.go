package monitor

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// LineTap receives a copy of every device line printed to the console.
type LineTap interface {
	Publish(line string)
}

// Console writes to a terminal that may be in raw mode, so every line ends
// in CRLF. Device lines are also forwarded to the registered taps. Safe for
// concurrent use by the read loop and the key listener.
type Console struct {
	mu   sync.Mutex
	w    io.Writer
	taps []LineTap
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer, taps ...LineTap) *Console {
	return &Console{w: w, taps: taps}
}

// AddTap registers another consumer of device lines.
func (c *Console) AddTap(tap LineTap) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.taps = append(c.taps, tap)
}

// Line prints one device line and publishes it to the taps.
func (c *Console) Line(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := io.WriteString(c.w, line+"\r\n"); err != nil {
		return fmt.Errorf("failed to write console output: %w", err)
	}

	published := strings.TrimRight(line, "\r")
	for _, tap := range c.taps {
		tap.Publish(published)
	}
	return nil
}

// Printf prints monitor status text (banner, reset notices). Newlines are
// converted to CRLF; taps don't see it.
func (c *Console) Printf(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	text = strings.ReplaceAll(strings.ReplaceAll(text, "\r\n", "\n"), "\n", "\r\n")

	c.mu.Lock()
	defer c.mu.Unlock()
	_, err := io.WriteString(c.w, text)
	return err
}
