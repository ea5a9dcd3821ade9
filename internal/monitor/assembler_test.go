package monitor

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"
)

// fakeClock drives Assembler.now
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestAssembler(symbols Symbolicator) (*Assembler, *fakeClock) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	a := NewAssembler(symbols)
	a.now = clock.now
	return a, clock
}

// upperSymbols marks lines so tests can see they went through symbolication
type upperSymbols struct{}

func (upperSymbols) Symbolicate(_ context.Context, line string) string { return "<" + line + ">" }

func feedAll(a *Assembler, chunks ...string) []string {
	var lines []string
	for _, c := range chunks {
		lines = append(lines, a.Feed(context.Background(), []byte(c))...)
	}
	return lines
}

func TestAssemblerFeed(t *testing.T) {
	tests := []struct {
		name        string
		chunks      []string
		wantLines   []string
		wantPending string
	}{
		{"single line", []string{"hello\n"}, []string{"hello"}, ""},
		{"two lines one chunk", []string{"a\nb\n"}, []string{"a", "b"}, ""},
		{"fragment kept", []string{"AB"}, nil, "AB"},
		{"fragment completed", []string{"AB", "CD\n"}, []string{"ABCD"}, ""},
		{"fragment extended", []string{"AB", "CD", "EF"}, nil, "ABCDEF"},
		{"line then fragment", []string{"one\ntw"}, []string{"one"}, "tw"},
		{"empty lines dropped", []string{"a\n\n\nb\n"}, []string{"a", "b"}, ""},
		{"lone newline", []string{"\n"}, nil, ""},
		{"empty chunk", []string{""}, nil, ""},
		{"crlf kept", []string{"boot\r\n"}, []string{"boot\r"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, _ := newTestAssembler(nil)
			got := feedAll(a, tt.chunks...)
			if !reflect.DeepEqual(got, tt.wantLines) {
				t.Errorf("Feed() lines = %q, want %q", got, tt.wantLines)
			}
			if p := a.Pending(); p != tt.wantPending {
				t.Errorf("Pending() = %q, want %q", p, tt.wantPending)
			}
		})
	}
}

func TestAssemblerChunkingInvariance(t *testing.T) {
	input := "rst:0x1 (POWERON_RESET)\nboot: ESP-IDF\n\nGuru Meditation Error: Core  0 panic'ed\ncafé ✓\ntrailing"

	whole, _ := newTestAssembler(nil)
	wantLines := whole.Feed(context.Background(), []byte(input))
	wantPending := whole.Pending()

	// Every possible two-way split
	for i := 0; i <= len(input); i++ {
		a, _ := newTestAssembler(nil)
		got := feedAll(a, input[:i], input[i:])
		if !reflect.DeepEqual(got, wantLines) {
			t.Fatalf("split at %d: lines = %q, want %q", i, got, wantLines)
		}
		if a.Pending() != wantPending {
			t.Fatalf("split at %d: Pending() = %q, want %q", i, a.Pending(), wantPending)
		}
	}

	// One byte at a time
	a, _ := newTestAssembler(nil)
	var got []string
	for i := 0; i < len(input); i++ {
		got = append(got, a.Feed(context.Background(), []byte{input[i]})...)
	}
	if !reflect.DeepEqual(got, wantLines) {
		t.Errorf("byte-wise lines = %q, want %q", got, wantLines)
	}
	if a.Pending() != wantPending {
		t.Errorf("byte-wise Pending() = %q, want %q", a.Pending(), wantPending)
	}
}

func TestAssemblerInvalidUTF8(t *testing.T) {
	a, _ := newTestAssembler(nil)
	got := a.Feed(context.Background(), []byte{'o', 'k', 0xff, 0xfe, '\n'})
	want := []string{"ok�"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Feed() = %q, want %q", got, want)
	}
}

func TestAssemblerTimeout(t *testing.T) {
	a, clock := newTestAssembler(nil)

	if lines := a.Feed(context.Background(), []byte("AB")); len(lines) != 0 {
		t.Fatalf("Feed() = %q, want no lines", lines)
	}

	clock.advance(UnfinishedLineTimeout)
	if line, ok := a.CheckTimeout(context.Background(), clock.now()); ok {
		t.Fatalf("CheckTimeout() at exactly the timeout = %q, want nothing", line)
	}

	clock.advance(time.Millisecond)
	line, ok := a.CheckTimeout(context.Background(), clock.now())
	if !ok || line != "AB" {
		t.Fatalf("CheckTimeout() = %q, %v, want \"AB\", true", line, ok)
	}
	if a.Pending() != "" {
		t.Errorf("Pending() after flush = %q, want empty", a.Pending())
	}

	// Flushed exactly once
	clock.advance(time.Hour)
	if line, ok := a.CheckTimeout(context.Background(), clock.now()); ok {
		t.Errorf("second CheckTimeout() = %q, want nothing", line)
	}
}

func TestAssemblerTimeoutMeasuredFromLastExtension(t *testing.T) {
	a, clock := newTestAssembler(nil)

	a.Feed(context.Background(), []byte("AB"))
	clock.advance(4 * time.Second)
	a.Feed(context.Background(), []byte("CD"))
	clock.advance(4 * time.Second)

	if line, ok := a.CheckTimeout(context.Background(), clock.now()); ok {
		t.Fatalf("CheckTimeout() = %q, want nothing (fragment extended 4s ago)", line)
	}

	clock.advance(2 * time.Second)
	if line, ok := a.CheckTimeout(context.Background(), clock.now()); !ok || line != "ABCD" {
		t.Errorf("CheckTimeout() = %q, %v, want \"ABCD\", true", line, ok)
	}
}

func TestAssemblerNewlineAfterTimeoutStartsFresh(t *testing.T) {
	a, clock := newTestAssembler(nil)

	a.Feed(context.Background(), []byte("AB"))
	clock.advance(UnfinishedLineTimeout + time.Second)
	a.CheckTimeout(context.Background(), clock.now())

	got := a.Feed(context.Background(), []byte("CD\n"))
	if want := []string{"CD"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Feed() = %q, want %q", got, want)
	}
}

func TestAssemblerSymbolicates(t *testing.T) {
	a, clock := newTestAssembler(upperSymbols{})

	got := a.Feed(context.Background(), []byte("one\ntwo"))
	if want := []string{"<one>"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Feed() = %q, want %q", got, want)
	}
	if a.Pending() != "two" {
		t.Errorf("Pending() = %q, pending text must not be symbolicated", a.Pending())
	}

	clock.advance(UnfinishedLineTimeout + time.Second)
	if line, _ := a.CheckTimeout(context.Background(), clock.now()); line != "<two>" {
		t.Errorf("CheckTimeout() = %q, want \"<two>\"", line)
	}
}

func TestAssemblerLongLine(t *testing.T) {
	a, _ := newTestAssembler(nil)
	long := strings.Repeat("x", 10*readBufferSize)

	for i := 0; i < len(long); i += readBufferSize {
		if lines := a.Feed(context.Background(), []byte(long[i : i+readBufferSize])); len(lines) != 0 {
			t.Fatalf("Feed() returned %d lines before newline", len(lines))
		}
	}
	got := a.Feed(context.Background(), []byte("\n"))
	if len(got) != 1 || got[0] != long {
		t.Errorf("Feed() did not return the full line (got %d lines)", len(got))
	}
}
