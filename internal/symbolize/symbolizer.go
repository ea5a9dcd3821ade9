package symbolize

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto/v2"
	"go.uber.org/zap"

	"github.com/muurk/espmonitor/internal/logging"
)

// addressPattern matches 32-bit addresses in the Xtensa instruction space
// (IRAM/flash), which is where every ESP32/ESP8266 code address lives.
var addressPattern = regexp.MustCompile(`0x4[0-9a-f]{7}`)

// Match is one address token found in a line.
type Match struct {
	Token string
	Start int
	End   int
}

// FindAddresses returns every address token in line, left to right.
func FindAddresses(line string) []Match {
	idx := addressPattern.FindAllStringIndex(line, -1)
	if idx == nil {
		return nil
	}
	matches := make([]Match, 0, len(idx))
	for _, loc := range idx {
		matches = append(matches, Match{Token: line[loc[0]:loc[1]], Start: loc[0], End: loc[1]})
	}
	return matches
}

// Symbolizer annotates address tokens with function/file/line information.
// A Symbolizer with no binary (or a nil *Symbolizer) returns lines unchanged.
type Symbolizer struct {
	binary   string
	resolver Resolver
	cache    *ristretto.Cache[string, Location]
	logger   *zap.Logger

	mu         sync.Mutex
	binModTime time.Time
}

// New creates a Symbolizer that runs <toolPrefix>addr2line against binary.
// An empty binary disables symbolication.
func New(binary, toolPrefix string, logger *zap.Logger) (*Symbolizer, error) {
	return NewWithResolver(binary, NewAddr2Line(toolPrefix, binary), logger)
}

// NewWithResolver creates a Symbolizer backed by an arbitrary Resolver.
func NewWithResolver(binary string, resolver Resolver, logger *zap.Logger) (*Symbolizer, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Symbolizer{
		binary:   binary,
		resolver: resolver,
		logger:   logger,
	}
	if binary == "" {
		return s, nil
	}

	cache, err := ristretto.NewCache(&ristretto.Config[string, Location]{
		NumCounters:        1 << 14,
		MaxCost:            1 << 12, // entries, each costs 1
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create symbol cache: %w", err)
	}
	s.cache = cache
	return s, nil
}

// Enabled reports whether lines will be annotated.
func (s *Symbolizer) Enabled() bool {
	return s != nil && s.binary != ""
}

// Symbolicate returns line with every resolvable address token replaced by
// "TOKEN [function:file:line]". Tokens that fail to resolve are kept verbatim,
// as is every token left once ctx is done.
func (s *Symbolizer) Symbolicate(ctx context.Context, line string) string {
	if !s.Enabled() {
		return line
	}

	matches := FindAddresses(line)
	if len(matches) == 0 {
		return line
	}
	s.invalidateIfRebuilt()

	var b strings.Builder
	b.Grow(len(line) + len(matches)*32)
	last := 0
	for _, m := range matches {
		if ctx.Err() != nil {
			break
		}
		b.WriteString(line[last:m.End])
		if loc, ok := s.lookup(ctx, m.Token); ok {
			b.WriteString(" [")
			b.WriteString(loc.String())
			b.WriteString("]")
		}
		last = m.End
	}
	b.WriteString(line[last:])
	return b.String()
}

func (s *Symbolizer) lookup(ctx context.Context, address string) (Location, bool) {
	if loc, ok := s.cache.Get(address); ok {
		return loc, true
	}

	loc, err := s.resolver.Resolve(ctx, address)
	logging.LogResolution(s.logger, address, loc.String(), err)
	if err != nil {
		return Location{}, false
	}
	s.cache.Set(address, loc, 1)
	return loc, true
}

// invalidateIfRebuilt drops cached locations once the binary on disk changes.
func (s *Symbolizer) invalidateIfRebuilt() {
	info, err := os.Stat(s.binary)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if mod := info.ModTime(); !mod.Equal(s.binModTime) {
		if !s.binModTime.IsZero() {
			s.logger.Info("flash image changed, clearing symbol cache", zap.String("binary", s.binary))
		}
		s.cache.Clear()
		s.binModTime = mod
	}
}

// Close releases the symbol cache.
func (s *Symbolizer) Close() {
	if s != nil && s.cache != nil {
		s.cache.Close()
	}
}
