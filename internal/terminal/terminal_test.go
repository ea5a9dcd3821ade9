//go:build linux || darwin || freebsd

package terminal

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"
)

func openPTY(t *testing.T) (master, slave *os.File) {
	t.Helper()
	master, slave, err := pty.Open()
	if err != nil {
		t.Skipf("pty not available: %v", err)
	}
	t.Cleanup(func() { master.Close(); slave.Close() })
	return master, slave
}

func TestEnableRawAndRestore(t *testing.T) {
	_, slave := openPTY(t)

	before, err := term.GetState(int(slave.Fd()))
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}

	tty, err := EnableRaw(slave)
	if err != nil {
		t.Fatalf("EnableRaw() error = %v", err)
	}

	if err := tty.Restore(); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	// Second restore is a no-op
	if err := tty.Restore(); err != nil {
		t.Fatalf("second Restore() error = %v", err)
	}

	after, err := term.GetState(int(slave.Fd()))
	if err != nil {
		t.Fatalf("GetState() error = %v", err)
	}
	if *before != *after {
		t.Error("terminal state differs after Restore()")
	}
}

func TestEnableRawRejectsNonTerminal(t *testing.T) {
	f, err := os.Create(filepath.Join(t.TempDir(), "plain"))
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("IsTerminal(regular file) = true")
	}
	if _, err := EnableRaw(f); !errors.Is(err, ErrNotTerminal) {
		t.Errorf("EnableRaw() error = %v, want ErrNotTerminal", err)
	}
}

func TestReadKey(t *testing.T) {
	master, slave := openPTY(t)

	tty, err := EnableRaw(slave)
	if err != nil {
		t.Fatalf("EnableRaw() error = %v", err)
	}
	defer tty.Restore()

	// Nothing typed yet
	if _, ok, err := tty.ReadKey(20 * time.Millisecond); ok || err != nil {
		t.Fatalf("ReadKey() on idle terminal = ok %v err %v, want timeout", ok, err)
	}

	// In raw mode control keys arrive as plain bytes
	if _, err := master.Write([]byte{KeyCtrlR, 'x', KeyCtrlC}); err != nil {
		t.Fatal(err)
	}

	want := []byte{KeyCtrlR, 'x', KeyCtrlC}
	for i, w := range want {
		key, ok, err := tty.ReadKey(time.Second)
		if err != nil || !ok {
			t.Fatalf("ReadKey() #%d = ok %v err %v", i, ok, err)
		}
		if key != w {
			t.Errorf("ReadKey() #%d = %#x, want %#x", i, key, w)
		}
	}
}
