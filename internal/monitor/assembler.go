package monitor

import (
	"bytes"
	"context"
	"strings"
	"time"
	"unicode/utf8"
)

// UnfinishedLineTimeout is how long a partial line may sit in the buffer
// before it is printed without its newline.
const UnfinishedLineTimeout = 5 * time.Second

// Symbolicator annotates a completed line before it is printed. It must
// give up and return the rest of the line verbatim once ctx is done.
type Symbolicator interface {
	Symbolicate(ctx context.Context, line string) string
}

// Assembler turns arbitrarily fragmented serial chunks into lines. It keeps
// at most one unterminated fragment between calls. Bytes are buffered raw and
// decoded per line, so a multi-byte character split across two reads comes
// out intact. Not safe for concurrent use; the read loop is its only caller.
type Assembler struct {
	symbols Symbolicator
	timeout time.Duration
	now     func() time.Time

	pending   []byte
	pendingAt time.Time
}

// NewAssembler creates an Assembler that passes completed lines through
// symbols (which may be nil).
func NewAssembler(symbols Symbolicator) *Assembler {
	return &Assembler{
		symbols: symbols,
		timeout: UnfinishedLineTimeout,
		now:     time.Now,
	}
}

// Pending returns the buffered unterminated fragment.
func (a *Assembler) Pending() string {
	return decode(a.pending)
}

// Feed consumes one chunk and returns the lines it completed, in order.
// Empty lines are dropped. ctx bounds symbolication of the completed lines.
func (a *Assembler) Feed(ctx context.Context, chunk []byte) []string {
	if len(chunk) == 0 {
		return nil
	}

	var lines []string
	for {
		i := bytes.IndexByte(chunk, '\n')
		if i < 0 {
			break
		}
		a.pending = append(a.pending, chunk[:i]...)
		if len(a.pending) > 0 {
			lines = append(lines, a.process(ctx, a.pending))
		}
		a.pending = a.pending[:0]
		chunk = chunk[i+1:]
	}

	if len(chunk) > 0 {
		a.pending = append(a.pending, chunk...)
		a.pendingAt = a.now()
	}
	return lines
}

// CheckTimeout flushes the pending fragment if it hasn't been extended for
// longer than the unfinished-line timeout.
func (a *Assembler) CheckTimeout(ctx context.Context, now time.Time) (string, bool) {
	if len(a.pending) == 0 || now.Sub(a.pendingAt) <= a.timeout {
		return "", false
	}
	line := a.process(ctx, a.pending)
	a.pending = a.pending[:0]
	return line, true
}

func (a *Assembler) process(ctx context.Context, raw []byte) string {
	line := decode(raw)
	if a.symbols == nil {
		return line
	}
	return a.symbols.Symbolicate(ctx, line)
}

// decode converts raw bytes to text, replacing invalid UTF-8 rather than failing.
func decode(raw []byte) string {
	if utf8.Valid(raw) {
		return string(raw)
	}
	return strings.ToValidUTF8(string(raw), string(utf8.RuneError))
}
