package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/muurk/espmonitor/internal/terminal"
)

func runWithTimeout(t *testing.T, s *Session, opts RunOptions) error {
	t.Helper()
	done := make(chan error, 1)
	go func() { done <- Run(context.Background(), s, opts) }()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("Run() did not return")
		return nil
	}
}

func TestRunQuit(t *testing.T) {
	dev := &fakeDevice{steps: []readStep{{data: "booting\n"}}}
	out := &syncBuffer{}
	s := newTestSession(dev, out)

	keys := newFakeKeys()
	waitingKeys := &delayedKeys{inner: keys, ready: func() bool { return out.String() != "" }}
	keys.events = []keyEvent{{key: terminal.KeyCtrlR}, {key: terminal.KeyCtrlC}}

	err := runWithTimeout(t, s, RunOptions{Keys: waitingKeys})
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("Run() error = %v, want ErrQuit", err)
	}
	if code := ExitCode(err); code != ExitOK {
		t.Errorf("ExitCode() = %d, want %d", code, ExitOK)
	}
	if want := "booting\r\nResetting device... done\r\n"; out.String() != want {
		t.Errorf("console = %q, want %q", out.String(), want)
	}
	if dev.overlap.Load() {
		t.Error("device accesses overlapped")
	}
}

func TestRunSignal(t *testing.T) {
	s := newTestSession(&fakeDevice{}, &syncBuffer{})

	sigs := make(chan os.Signal, 1)
	sigs <- syscall.SIGTERM

	err := runWithTimeout(t, s, RunOptions{Keys: newFakeKeys(), Signals: sigs})
	var sigErr *SignalError
	if !errors.As(err, &sigErr) {
		t.Fatalf("Run() error = %v, want *SignalError", err)
	}
	if sigErr.Signal != syscall.SIGTERM {
		t.Errorf("Signal = %v, want SIGTERM", sigErr.Signal)
	}
	if code := ExitCode(err); code != ExitSignal {
		t.Errorf("ExitCode() = %d, want %d", code, ExitSignal)
	}
}

func TestRunReadFailure(t *testing.T) {
	dev := &fakeDevice{final: errors.New("device unplugged")}
	s := newTestSession(dev, &syncBuffer{})

	err := runWithTimeout(t, s, RunOptions{Keys: newFakeKeys()})
	var readErr *ReadError
	if !errors.As(err, &readErr) {
		t.Fatalf("Run() error = %v, want *ReadError", err)
	}
	if code := ExitCode(err); code != ExitError {
		t.Errorf("ExitCode() = %d, want %d", code, ExitError)
	}
}

func TestRunKeyListenerFailure(t *testing.T) {
	s := newTestSession(&fakeDevice{}, &syncBuffer{})

	keys := newFakeKeys(keyEvent{err: errors.New("terminal hung up")})
	err := runWithTimeout(t, s, RunOptions{Keys: keys})

	var klErr *KeyListenerError
	if !errors.As(err, &klErr) {
		t.Fatalf("Run() error = %v, want *KeyListenerError", err)
	}
	if code := ExitCode(err); code != ExitError {
		t.Errorf("ExitCode() = %d, want %d", code, ExitError)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitOK},
		{"quit", ErrQuit, ExitOK},
		{"wrapped quit", fmt.Errorf("session: %w", ErrQuit), ExitOK},
		{"signal", &SignalError{Signal: os.Interrupt}, ExitSignal},
		{"key listener", &KeyListenerError{Op: "read", Err: errors.New("x")}, ExitError},
		{"read", &ReadError{Err: errors.New("x")}, ExitError},
		{"other", errors.New("boom"), ExitError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Errorf("ExitCode(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// delayedKeys reports no key until ready returns true
type delayedKeys struct {
	inner KeySource
	ready func() bool
}

func (d *delayedKeys) ReadKey(timeout time.Duration) (byte, bool, error) {
	if !d.ready() {
		time.Sleep(time.Millisecond)
		return 0, false, nil
	}
	return d.inner.ReadKey(timeout)
}

type panickingKeys struct{}

func (panickingKeys) ReadKey(time.Duration) (byte, bool, error) {
	panic("terminal driver bug")
}

func TestRunRecoversPanic(t *testing.T) {
	s := newTestSession(&fakeDevice{}, &syncBuffer{})

	err := runWithTimeout(t, s, RunOptions{Keys: panickingKeys{}})
	if err == nil || !strings.Contains(err.Error(), "key listener panicked") {
		t.Fatalf("Run() error = %v, want recovered panic", err)
	}
	if code := ExitCode(err); code != ExitError {
		t.Errorf("ExitCode() = %d, want %d", code, ExitError)
	}
}

// slowSymbols takes two seconds per address unless ctx ends first
type slowSymbols struct {
	started atomic.Bool
}

func (s *slowSymbols) Symbolicate(ctx context.Context, line string) string {
	s.started.Store(true)
	for n := strings.Count(line, "0x4"); n > 0; n-- {
		select {
		case <-ctx.Done():
			return line
		case <-time.After(2 * time.Second):
		}
	}
	return line
}

func TestRunQuitDuringSymbolication(t *testing.T) {
	dev := &fakeDevice{steps: []readStep{
		{data: "Backtrace:0x400d2a1c:0x3ffb5f80 0x40089f4e:0x3ffb5fa0 0x400d7e21:0x3ffb5fc0 0x4008a1b2:0x3ffb5fe0\n"},
	}}
	symbols := &slowSymbols{}
	s := NewSession(dev, NewAssembler(symbols), NewConsole(&syncBuffer{}), zap.NewNop())
	s.idleSleep = time.Millisecond

	keys := &delayedKeys{
		inner: newFakeKeys(keyEvent{key: terminal.KeyCtrlC}),
		ready: symbols.started.Load,
	}

	start := time.Now()
	err := runWithTimeout(t, s, RunOptions{Keys: keys})
	if !errors.Is(err, ErrQuit) {
		t.Fatalf("Run() error = %v, want ErrQuit", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Run() returned after %v, want quit to interrupt symbolication", elapsed)
	}
}
