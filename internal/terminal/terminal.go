package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

// Control-key codes as delivered by a terminal in raw mode.
const (
	KeyCtrlC byte = 0x03
	KeyCtrlR byte = 0x12
)

// ErrNotTerminal is returned when raw mode is requested on a non-terminal.
var ErrNotTerminal = errors.New("not a terminal")

// Terminal holds a terminal in raw mode and restores it exactly once.
// It also turns the blocking input stream into timeout-bounded key polls.
type Terminal struct {
	in    *os.File
	fd    int
	state *term.State

	restoreOnce sync.Once
	restoreErr  error

	startOnce sync.Once
	events    chan inputEvent
	pending   []byte
}

type inputEvent struct {
	data []byte
	err  error
}

// IsTerminal reports whether f is connected to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// EnableRaw puts the terminal behind in into raw mode. Callers must defer
// Restore; it is safe to call from several exit paths.
func EnableRaw(in *os.File) (*Terminal, error) {
	fd := int(in.Fd())
	if !term.IsTerminal(fd) {
		return nil, fmt.Errorf("%s: %w", in.Name(), ErrNotTerminal)
	}

	state, err := term.MakeRaw(fd)
	if err != nil {
		return nil, fmt.Errorf("failed to enable raw mode: %w", err)
	}

	return &Terminal{
		in:     in,
		fd:     fd,
		state:  state,
		events: make(chan inputEvent, 16),
	}, nil
}

// Restore returns the terminal to the mode it had before EnableRaw. Only the
// first call has an effect; later calls return the first result.
func (t *Terminal) Restore() error {
	t.restoreOnce.Do(func() {
		t.restoreErr = term.Restore(t.fd, t.state)
	})
	return t.restoreErr
}

// ReadKey waits up to timeout for the next input byte. ok is false when the
// timeout expired with no input.
func (t *Terminal) ReadKey(timeout time.Duration) (key byte, ok bool, err error) {
	t.startOnce.Do(func() { go t.readInput() })

	if len(t.pending) > 0 {
		key, t.pending = t.pending[0], t.pending[1:]
		return key, true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case ev := <-t.events:
		if ev.err != nil {
			return 0, false, ev.err
		}
		key, t.pending = ev.data[0], ev.data[1:]
		return key, true, nil
	case <-timer.C:
		return 0, false, nil
	}
}

// readInput runs for the life of the process; a blocked terminal read can't
// be interrupted portably.
func (t *Terminal) readInput() {
	buf := make([]byte, 64)
	for {
		n, err := t.in.Read(buf)
		if n > 0 {
			data := make([]byte, n)
			copy(data, buf[:n])
			t.events <- inputEvent{data: data}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				err = fmt.Errorf("terminal input closed: %w", err)
			}
			t.events <- inputEvent{err: err}
			return
		}
	}
}
