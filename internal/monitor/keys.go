package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/espmonitor/internal/terminal"
)

// KeyPollInterval bounds how long the listener waits for a key before it
// checks for cancellation again.
const KeyPollInterval = 250 * time.Millisecond

// KeySource delivers single key presses.
type KeySource interface {
	ReadKey(timeout time.Duration) (key byte, ok bool, err error)
}

// Resetter reboots the attached chip.
type Resetter interface {
	Reset() error
}

// KeyListener maps key presses to session commands: CTRL+R resets the
// chip, CTRL+C ends the session. Everything else is ignored.
type KeyListener struct {
	keys   KeySource
	target Resetter
	logger *zap.Logger
	poll   time.Duration
}

// NewKeyListener creates a KeyListener reading from keys.
func NewKeyListener(keys KeySource, target Resetter, logger *zap.Logger) *KeyListener {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KeyListener{
		keys:   keys,
		target: target,
		logger: logger,
		poll:   KeyPollInterval,
	}
}

// Run polls for keys until ctx is cancelled. It returns ErrQuit on CTRL+C
// and a KeyListenerError if input or a reset fails.
func (k *KeyListener) Run(ctx context.Context) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		key, ok, err := k.keys.ReadKey(k.poll)
		if err != nil {
			return &KeyListenerError{Op: "read", Err: err}
		}
		if !ok {
			continue
		}

		switch key {
		case terminal.KeyCtrlR:
			k.logger.Debug("reset requested")
			if err := k.target.Reset(); err != nil {
				return &KeyListenerError{Op: "reset", Err: err}
			}
		case terminal.KeyCtrlC:
			k.logger.Debug("quit requested")
			return ErrQuit
		}
	}
}
