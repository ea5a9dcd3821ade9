package discovery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grandcat/zeroconf"

	"github.com/muurk/espmonitor/internal/mirror"
)

const (
	// DefaultScanTimeout is the default timeout for mirror discovery
	DefaultScanTimeout = 5 * time.Second
)

// Scanner handles mDNS mirror discovery
type Scanner struct {
	// Timeout is the maximum time to wait for responses
	Timeout time.Duration
}

// NewScanner creates a new mDNS scanner with default settings
func NewScanner() *Scanner {
	return &Scanner{
		Timeout: DefaultScanTimeout,
	}
}

// Scan discovers all mirrors on the local network until the timeout or ctx
// expires.
func (s *Scanner) Scan(ctx context.Context) ([]*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	var (
		mu        sync.Mutex
		instances []*Instance
		seen      = make(map[string]bool)
	)

	err := s.browse(ctx, func(inst *Instance) bool {
		mu.Lock()
		defer mu.Unlock()
		if !seen[inst.Name] {
			seen[inst.Name] = true
			instances = append(instances, inst)
		}
		return true
	})
	if err != nil {
		return nil, err
	}

	<-ctx.Done()

	mu.Lock()
	defer mu.Unlock()
	return instances, nil
}

// Find waits for the mirror with the given instance name.
func (s *Scanner) Find(ctx context.Context, name string) (*Instance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	found := make(chan *Instance, 1)
	err := s.browse(ctx, func(inst *Instance) bool {
		if inst.Name != name {
			return true
		}
		select {
		case found <- inst:
		default:
		}
		return false
	})
	if err != nil {
		return nil, err
	}

	select {
	case inst := <-found:
		return inst, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("mirror %q not found within %v", name, s.Timeout)
	}
}

// browse calls visit for every parsed entry until visit returns false or
// ctx is done.
func (s *Scanner) browse(ctx context.Context, visit func(*Instance) bool) error {
	resolver, err := zeroconf.NewResolver(nil)
	if err != nil {
		return fmt.Errorf("failed to create mDNS resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)
	go func() {
		done := false
		// Keep draining after visit is done so the resolver never blocks
		for entry := range entries {
			if done {
				continue
			}
			if inst := parseServiceEntry(entry); inst != nil {
				done = !visit(inst)
			}
		}
	}()

	if err := resolver.Browse(ctx, mirror.ServiceType, mirror.ServiceDomain, entries); err != nil {
		return fmt.Errorf("failed to browse for mDNS services: %w", err)
	}
	return nil
}

// parseServiceEntry converts a zeroconf service entry to an Instance.
// Returns nil if the entry has no usable address or port.
func parseServiceEntry(entry *zeroconf.ServiceEntry) *Instance {
	if entry == nil || entry.Instance == "" || entry.Port == 0 {
		return nil
	}

	// Get IP address (prefer IPv4)
	var ip string
	if len(entry.AddrIPv4) > 0 {
		ip = entry.AddrIPv4[0].String()
	} else if len(entry.AddrIPv6) > 0 {
		ip = entry.AddrIPv6[0].String()
	}
	if ip == "" {
		return nil
	}

	// TXT records are in "key=value" format
	metadata := make(map[string]string)
	for _, txt := range entry.Text {
		key, value, _ := strings.Cut(txt, "=")
		metadata[key] = value
	}

	return &Instance{
		Name:         entry.Instance,
		Hostname:     entry.HostName,
		IP:           ip,
		Port:         entry.Port,
		Metadata:     metadata,
		DiscoveredAt: time.Now(),
	}
}
