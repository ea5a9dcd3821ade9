package serial

import (
	"errors"
	"fmt"
	"os"
	"syscall"
	"time"

	bugst "go.bug.st/serial"
)

// DefaultReadTimeout bounds each Read so the device lock is released regularly.
const DefaultReadTimeout = 200 * time.Millisecond

// Config holds configuration parameters for opening a serial port.
type Config struct {
	Device      string
	BaudRate    int
	ReadTimeout time.Duration
}

// Port is an open serial connection with the control lines needed to reset
// an ESP chip. It is not safe for concurrent use; callers serialize access.
type Port struct {
	port   bugst.Port
	device string
}

// OpenError reports a failure to open or configure the device.
type OpenError struct {
	// Device is the path that failed to open
	Device string
	// Underlying error
	Err error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("failed to open %s: %v", e.Device, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// Open opens the serial port in 8N1 mode at the configured baud rate.
func Open(cfg Config) (*Port, error) {
	mode := &bugst.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   bugst.NoParity,
		StopBits: bugst.OneStopBit,
	}

	p, err := bugst.Open(cfg.Device, mode)
	if err != nil {
		return nil, &OpenError{Device: cfg.Device, Err: err}
	}

	timeout := cfg.ReadTimeout
	if timeout <= 0 {
		timeout = DefaultReadTimeout
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, &OpenError{Device: cfg.Device, Err: fmt.Errorf("set read timeout: %w", err)}
	}

	return &Port{port: p, device: cfg.Device}, nil
}

// Device returns the path the port was opened from.
func (p *Port) Device() string {
	return p.device
}

// Read reads whatever bytes are available, waiting at most the read timeout.
// A timeout returns 0, nil.
func (p *Port) Read(buf []byte) (int, error) {
	return p.port.Read(buf)
}

// SetDTR sets the Data Terminal Ready line.
func (p *Port) SetDTR(on bool) error {
	return p.port.SetDTR(on)
}

// SetRTS sets the Request To Send line.
func (p *Port) SetRTS(on bool) error {
	return p.port.SetRTS(on)
}

// Close releases the device.
func (p *Port) Close() error {
	return p.port.Close()
}

// IsTimeout reports whether err is a normal polling outcome (timeout or
// would-block) rather than a transport failure.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, os.ErrDeadlineExceeded) ||
		errors.Is(err, syscall.EAGAIN) ||
		errors.Is(err, syscall.EWOULDBLOCK) ||
		errors.Is(err, syscall.EINTR) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}

// ListPorts returns the serial ports present on this host.
func ListPorts() ([]string, error) {
	ports, err := bugst.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate serial ports: %w", err)
	}
	return ports, nil
}
