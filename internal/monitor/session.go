package monitor

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/espmonitor/internal/logging"
	"github.com/muurk/espmonitor/internal/serial"
)

const (
	// IdleSleep is the pause after a read that produced nothing.
	IdleSleep = 25 * time.Millisecond

	readBufferSize = 1024
)

// Device is the part of a serial port the session drives.
type Device interface {
	Read(buf []byte) (int, error)
	SetDTR(on bool) error
	SetRTS(on bool) error
}

// Session owns a device and serializes every access to it. The read loop
// holds the lock only for the duration of a single read, so a reset from
// the key listener waits for at most one read timeout.
type Session struct {
	mu  sync.Mutex
	dev Device

	asm       *Assembler
	console   *Console
	logger    *zap.Logger
	idleSleep time.Duration
	now       func() time.Time
}

// NewSession creates a Session for dev. Lines completed by asm are printed
// on console.
func NewSession(dev Device, asm *Assembler, console *Console, logger *zap.Logger) *Session {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Session{
		dev:       dev,
		asm:       asm,
		console:   console,
		logger:    logger,
		idleSleep: IdleSleep,
		now:       time.Now,
	}
}

// Console returns the console the session prints to.
func (s *Session) Console() *Console {
	return s.console
}

// ReadLoop reads from the device until ctx is cancelled or the transport
// fails. Timeouts and empty reads are idle cycles, not errors.
func (s *Session) ReadLoop(ctx context.Context) error {
	buf := make([]byte, readBufferSize)

	for {
		if ctx.Err() != nil {
			return nil
		}

		n, err := s.read(buf)
		if n > 0 {
			logging.LogRawBytes(s.logger, "serial rx", buf[:n])
			for _, line := range s.asm.Feed(ctx, buf[:n]) {
				if werr := s.console.Line(line); werr != nil {
					return werr
				}
			}
		}
		if err != nil && !serial.IsTimeout(err) {
			s.logger.Error("serial read failed", zap.Error(err))
			return &ReadError{Err: err}
		}
		if n > 0 {
			continue
		}

		if line, ok := s.asm.CheckTimeout(ctx, s.now()); ok {
			s.logger.Debug("flushing unfinished line", zap.Int("length", len(line)))
			if werr := s.console.Line(line); werr != nil {
				return werr
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.idleSleep):
		}
	}
}

func (s *Session) read(buf []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dev.Read(buf)
}

// Reset pulses the control lines to reboot the chip: DTR low, then RTS high
// and low again. The sequence and its notice run under the device lock, so
// neither interleaves with a read and output read after the reset follows
// the notice.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.pulseReset(); err != nil {
		s.logger.Error("reset failed", zap.Error(err))
		_ = s.console.Printf("Resetting device... failed\n")
		return err
	}

	s.logger.Debug("device reset")
	return s.console.Printf("Resetting device... done\n")
}

// pulseReset expects s.mu to be held.
func (s *Session) pulseReset() error {
	if err := s.dev.SetDTR(false); err != nil {
		return err
	}
	if err := s.dev.SetRTS(true); err != nil {
		return err
	}
	return s.dev.SetRTS(false)
}
