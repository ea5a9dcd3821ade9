package mirror

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/grandcat/zeroconf"
	"go.uber.org/zap"
)

const (
	// ServiceType is the mDNS service type mirrors advertise
	ServiceType = "_espmonitor._tcp"

	// ServiceDomain is the mDNS domain
	ServiceDomain = "local."

	// Path is where viewers connect
	Path = "/ws"
)

// Config holds the mirror server configuration
type Config struct {
	// Addr is the listen address, e.g. ":8765" or "127.0.0.1:0"
	Addr string
	// Advertise registers the mirror over mDNS
	Advertise bool
	// Instance is the mDNS instance name (defaults to the hostname)
	Instance string
	// Text is extra TXT record data ("key=value")
	Text []string
}

// Server serves a Hub over HTTP and optionally advertises it.
type Server struct {
	hub      *Hub
	http     *http.Server
	listener net.Listener
	mdns     *zeroconf.Server
	logger   *zap.Logger
	done     chan struct{}
}

// Start listens on cfg.Addr and serves viewers in the background.
func Start(cfg Config, logger *zap.Logger) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	listener, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("failed to listen on %s: %w", cfg.Addr, err)
	}

	hub := NewHub(logger)
	mux := http.NewServeMux()
	mux.Handle(Path, hub)

	s := &Server{
		hub:      hub,
		listener: listener,
		logger:   logger,
		done:     make(chan struct{}),
		http: &http.Server{
			Handler:           mux,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}

	go func() {
		defer close(s.done)
		if err := s.http.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Mirror server stopped", zap.Error(err))
		}
	}()

	logger.Info("Mirror listening", zap.String("addr", listener.Addr().String()))

	if cfg.Advertise {
		if err := s.advertise(cfg); err != nil {
			_ = s.Shutdown(context.Background())
			return nil, err
		}
	}

	return s, nil
}

func (s *Server) advertise(cfg Config) error {
	instance := cfg.Instance
	if instance == "" {
		host, err := os.Hostname()
		if err != nil {
			host = "espmonitor"
		}
		instance = host
	}

	text := append([]string{"path=" + Path}, cfg.Text...)
	mdns, err := zeroconf.Register(instance, ServiceType, ServiceDomain, s.Port(), text, nil)
	if err != nil {
		return fmt.Errorf("failed to advertise mirror over mDNS: %w", err)
	}
	s.mdns = mdns

	s.logger.Info("Mirror advertised",
		zap.String("instance", instance),
		zap.String("service", ServiceType),
		zap.Int("port", s.Port()),
	)
	return nil
}

// Hub returns the hub lines should be published to.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Port returns the TCP port the server is listening on.
func (s *Server) Port() int {
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// URL returns the WebSocket URL for this server.
func (s *Server) URL() string {
	return fmt.Sprintf("ws://%s%s", s.listener.Addr().String(), Path)
}

// Shutdown stops advertising, disconnects viewers and closes the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.mdns != nil {
		s.mdns.Shutdown()
	}

	// Hijacked connections are not tracked by http.Server
	s.hub.Close()

	err := s.http.Shutdown(ctx)
	<-s.done
	return err
}
