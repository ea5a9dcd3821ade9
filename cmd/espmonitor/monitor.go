package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muurk/espmonitor/internal/capture"
	"github.com/muurk/espmonitor/internal/config"
	"github.com/muurk/espmonitor/internal/logging"
	"github.com/muurk/espmonitor/internal/mirror"
	"github.com/muurk/espmonitor/internal/monitor"
	"github.com/muurk/espmonitor/internal/serial"
	"github.com/muurk/espmonitor/internal/symbolize"
	"github.com/muurk/espmonitor/internal/terminal"
	"github.com/muurk/espmonitor/internal/ui"
	"github.com/muurk/espmonitor/internal/version"
)

// Listen address used when --mirror-mdns is given without --mirror
const defaultMirrorAddr = ":0"

// Monitor flags
var (
	configPath  string
	chip        string
	framework   string
	target      string
	speed       int
	bin         string
	reset       bool
	noReset     bool
	logLevel    string
	logFile     string
	capturePath string
	mirrorAddr  string
	mirrorMDNS  bool
)

func init() {
	// Toolchain flags are shared with check and replay
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Configuration file (default: espmonitor config path)")
	rootCmd.PersistentFlags().StringVar(&chip, "chip", "", "Which ESP chip to target (esp32, esp8266)")
	rootCmd.PersistentFlags().StringVar(&framework, "framework", "", "Framework the firmware uses (baremetal, esp-idf)")
	rootCmd.PersistentFlags().StringVar(&target, "target", "", "Target triple, sets chip and framework (e.g. xtensa-esp32-espidf)")
	rootCmd.PersistentFlags().StringVar(&bin, "bin", "", "Path to the executable flashed on the device")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); silent if unset")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Write logs to this file instead of stderr")

	rootCmd.Flags().IntVar(&speed, "speed", 0, fmt.Sprintf("Baud rate of serial device (default: %d)", config.DefaultBaudRate))
	rootCmd.Flags().BoolVar(&reset, "reset", false, "Reset the chip on start (default)")
	rootCmd.Flags().BoolVar(&noReset, "no-reset", false, "Do not reset the chip on start")
	rootCmd.Flags().StringVar(&capturePath, "capture", "", "Record emitted lines to a file (zstd-compressed if it ends in .zst)")
	rootCmd.Flags().StringVar(&mirrorAddr, "mirror", "", "Serve emitted lines to WebSocket viewers on this address (e.g. :8765)")
	rootCmd.Flags().BoolVar(&mirrorMDNS, "mirror-mdns", false, "Advertise the mirror over mDNS so 'espmonitor watch' can find it")
}

// commonFlags collects the flags shared by every command that needs the
// toolchain configuration.
func commonFlags(serialDevice string) config.Flags {
	return config.Flags{
		Serial:    serialDevice,
		Chip:      chip,
		Framework: framework,
		Target:    target,
		Bin:       bin,
		LogLevel:  logLevel,
		LogFile:   logFile,
	}
}

// resetFlag returns nil unless --reset or --no-reset was given. --reset wins
// when both are.
func resetFlag(cmd *cobra.Command) *bool {
	flags := cmd.Flags()
	switch {
	case flags.Changed("reset") && reset:
		v := true
		return &v
	case flags.Changed("no-reset") && noReset:
		v := false
		return &v
	default:
		return nil
	}
}

func loadRegistry() (*config.Registry, error) {
	path := configPath
	if path == "" {
		var err error
		if path, err = config.GetConfigPath(); err != nil {
			return nil, err
		}
	}
	return config.LoadRegistry(path)
}

func initLogging(cfg *config.SessionConfig) error {
	if err := logging.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	return nil
}

func runMonitor(cmd *cobra.Command, args []string) error {
	// Suppress usage on execution errors (we're past argument parsing)
	cmd.SilenceUsage = true

	reg, err := loadRegistry()
	if err != nil {
		return err
	}

	flags := commonFlags(args[0])
	flags.Speed = speed
	flags.Reset = resetFlag(cmd)
	flags.CapturePath = capturePath
	flags.MirrorAddr = mirrorAddr
	flags.MirrorMDNS = mirrorMDNS

	cfg, err := config.Build(flags, reg)
	if err != nil {
		return err
	}

	if err := initLogging(cfg); err != nil {
		return err
	}
	defer logging.Sync()

	log := logging.Named("espmonitor")
	log.Info("Starting session",
		zap.String("serial", cfg.Serial),
		zap.Int("speed", cfg.BaudRate),
		zap.String("chip", string(cfg.Chip)),
		zap.String("framework", string(cfg.Framework)),
		zap.String("bin", cfg.Bin),
	)

	console := monitor.NewConsole(os.Stdout)
	banner := ui.NewBanner(version.Version).
		AddNotice(ui.OpeningNotice(cfg.Serial, cfg.BaudRate))
	if err := console.Printf("%s", banner.Render()); err != nil {
		return err
	}

	port, err := serial.Open(serial.Config{
		Device:   cfg.Serial,
		BaudRate: cfg.BaudRate,
	})
	if err != nil {
		return err
	}
	defer port.Close()
	log.Debug("Serial port open", zap.String("device", port.Device()))

	var symbols monitor.Symbolicator
	if cfg.Bin != "" {
		_, statErr := os.Stat(cfg.Bin)
		_ = console.Printf("%s\n", ui.FlashImageNotice(cfg.Bin, statErr == nil))

		sym, err := symbolize.New(cfg.Bin, cfg.ToolPrefix(), logging.Named("symbolize"))
		if err != nil {
			return err
		}
		defer sym.Close()
		symbols = sym
	}

	if cfg.CapturePath != "" {
		w, err := capture.Create(cfg.CapturePath, logging.Named("capture"))
		if err != nil {
			return err
		}
		defer func() {
			if err := w.Close(); err != nil {
				log.Warn("Failed to close capture", zap.Error(err))
			}
			log.Info("Capture closed", zap.String("path", cfg.CapturePath), zap.Int("lines", w.Lines()))
		}()
		console.AddTap(w)
		_ = console.Printf("%s\n", ui.NoticeStyle.Render("Capturing to "+cfg.CapturePath))
	}

	if cfg.MirrorAddr != "" || cfg.MirrorMDNS {
		srv, err := startMirror(cfg)
		if err != nil {
			return err
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(ctx)
		}()
		console.AddTap(srv.Hub())
		_ = console.Printf("%s\n", ui.NoticeStyle.Render("Mirroring on "+srv.URL()))
	}

	var keys monitor.KeySource
	if terminal.IsTerminal(os.Stdin) {
		tty, err := terminal.EnableRaw(os.Stdin)
		if err != nil {
			return err
		}
		defer tty.Restore()
		keys = tty
	} else {
		_ = console.Printf("%s\n", ui.Warning("stdin is not a terminal, CTRL+R and CTRL+C are unavailable"))
		log.Warn("stdin is not a terminal, key listener disabled")
	}

	session := monitor.NewSession(port, monitor.NewAssembler(symbols), console, logging.Named("session"))

	if cfg.Reset {
		if err := session.Reset(); err != nil {
			return fmt.Errorf("failed to reset device: %w", err)
		}
	}

	sigs, stop := monitor.NotifySignals()
	defer stop()

	return monitor.Run(cmd.Context(), session, monitor.RunOptions{
		Keys:    keys,
		Signals: sigs,
		Logger:  log,
	})
}

func startMirror(cfg *config.SessionConfig) (*mirror.Server, error) {
	addr := cfg.MirrorAddr
	if addr == "" {
		addr = defaultMirrorAddr
	}
	return mirror.Start(mirror.Config{
		Addr:      addr,
		Advertise: cfg.MirrorMDNS,
		Text: []string{
			"serial=" + cfg.Serial,
			"chip=" + string(cfg.Chip),
		},
	}, logging.Named("mirror"))
}
