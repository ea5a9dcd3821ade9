package capture

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"
)

// CompressedExt selects zstd compression for a capture file.
const CompressedExt = ".zst"

// Writer records device lines to a file. It implements monitor.LineTap.
// Every line reaches the file as it is published, so the capture can be
// followed live and survives the process being killed. Write errors are
// logged once and then the capture stops; they never interrupt the session.
type Writer struct {
	mu     sync.Mutex
	file   *os.File
	buf    *bufio.Writer
	zw     *zstd.Encoder
	path   string
	logger *zap.Logger
	err    error
	lines  int
}

// Create opens path for writing, truncating it. Paths ending in ".zst" are
// zstd-compressed.
func Create(path string, logger *zap.Logger) (*Writer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create capture file: %w", err)
	}

	w := &Writer{file: f, path: path, logger: logger}

	var out io.Writer = f
	if IsCompressed(path) {
		zw, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
		}
		w.zw = zw
		out = zw
	}
	w.buf = bufio.NewWriter(out)

	logger.Info("Capturing session", zap.String("path", path), zap.Bool("compressed", w.zw != nil))
	return w, nil
}

// IsCompressed reports whether path names a zstd capture.
func IsCompressed(path string) bool {
	return strings.HasSuffix(path, CompressedExt)
}

// Publish appends one line and flushes it to the file.
func (w *Writer) Publish(line string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.err != nil || w.buf == nil {
		return
	}
	if _, err := w.buf.WriteString(line + "\n"); err != nil {
		w.fail(err)
		return
	}
	w.lines++
	_ = w.flushLocked()
}

func (w *Writer) flushLocked() error {
	if w.err != nil || w.buf == nil {
		return w.err
	}
	if err := w.buf.Flush(); err != nil {
		w.fail(err)
		return err
	}
	if w.zw != nil {
		if err := w.zw.Flush(); err != nil {
			w.fail(err)
			return err
		}
	}
	return nil
}

// Close flushes and closes the file. Safe to call more than once.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.buf == nil {
		return w.err
	}
	err := w.flushLocked()
	if w.zw != nil {
		if cerr := w.zw.Close(); err == nil {
			err = cerr
		}
	}
	if cerr := w.file.Close(); err == nil {
		err = cerr
	}
	w.buf = nil
	return err
}

// Lines returns the number of lines written.
func (w *Writer) Lines() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lines
}

func (w *Writer) fail(err error) {
	w.err = err
	w.logger.Error("Capture write failed, capture stopped",
		zap.String("path", w.path),
		zap.Error(err),
	)
}

// Open returns a reader over a capture file, decompressing ".zst" files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open capture file: %w", err)
	}
	if !IsCompressed(path) {
		return f, nil
	}

	zr, err := zstd.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}
	return &zstdReadCloser{Decoder: zr, file: f}, nil
}

type zstdReadCloser struct {
	*zstd.Decoder
	file *os.File
}

func (r *zstdReadCloser) Close() error {
	r.Decoder.Close()
	return r.file.Close()
}
