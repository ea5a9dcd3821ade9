package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/muurk/espmonitor/internal/capture"
	"github.com/muurk/espmonitor/internal/config"
	"github.com/muurk/espmonitor/internal/discovery"
	"github.com/muurk/espmonitor/internal/logging"
	"github.com/muurk/espmonitor/internal/mirror"
	"github.com/muurk/espmonitor/internal/serial"
	"github.com/muurk/espmonitor/internal/symbolize"
	"github.com/muurk/espmonitor/internal/ui"
	"github.com/muurk/espmonitor/internal/version"
)

// Subcommand flags
var (
	checkSerial  string
	scanTimeout  time.Duration
	replaySerial string
)

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(mirrorsCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(replayCmd)

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	checkCmd.Flags().StringVar(&checkSerial, "serial", "", "Use the configuration profile of this serial device")
	replayCmd.Flags().StringVar(&replaySerial, "serial", "", "Use the configuration profile of this serial device")
	mirrorsCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to listen for mirrors")
	watchCmd.Flags().DurationVar(&scanTimeout, "timeout", discovery.DefaultScanTimeout, "How long to look for a mirror given by name")
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("espmonitor %s\n", version.Full())
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ports, err := serial.ListPorts()
		if err != nil {
			return err
		}
		if len(ports) == 0 {
			fmt.Println("No serial ports found")
			return nil
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return nil
	},
}

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Verify the toolchain and flash image used for symbolication",
	Long: `Check that the chip's addr2line is installed and that the flash image exists.

The chip and image come from --chip/--target/--bin and the configuration
file, exactly as they would for a monitor session.`,
	Example: `  espmonitor check --target xtensa-esp32-espidf --bin target/xtensa-esp32-espidf/debug/app
  espmonitor check --serial /dev/ttyUSB0`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := toolchainConfig(checkSerial)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
	defer cancel()

	checks := []symbolize.PrerequisiteCheck{symbolize.CheckTool(ctx, cfg.ToolPrefix())}
	if cfg.Bin != "" {
		checks = append(checks, symbolize.CheckBinary(cfg.Bin))
	}

	report := fmt.Sprintf("Chip: %s  Target: %s\n\n%s", cfg.Chip, cfg.Chip.Target(cfg.Framework), symbolize.FormatReport(checks))
	if cfg.Bin == "" {
		report += "\nNo flash image configured; pass --bin to enable symbolication.\n"
	}

	for _, c := range checks {
		if !c.Available {
			fmt.Println(ui.RenderWarning("Symbolication unavailable", report))
			return fmt.Errorf("%s: %w", c.Name, errReported)
		}
	}
	fmt.Println(ui.RenderSuccess("Symbolication ready", report))
	return nil
}

// toolchainConfig resolves chip, framework and binary for commands that
// don't open a port.
func toolchainConfig(serialDevice string) (*config.SessionConfig, error) {
	reg, err := loadRegistry()
	if err != nil {
		return nil, err
	}
	cfg, err := config.BuildToolchain(commonFlags(serialDevice), reg)
	if err != nil {
		return nil, err
	}
	if err := initLogging(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
	Long: `The configuration file stores defaults and per-device profiles:

  version: 1
  defaults:
    chip: esp32
  devices:
    /dev/ttyUSB0:
      target: xtensa-esp32-espidf
      bin: /home/me/project/target/xtensa-esp32-espidf/debug/app
      speed: 921600

Command-line flags override the device profile, which overrides the defaults.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a configuration file with defaults",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		if err := config.CreateDefaultConfig(path); err != nil {
			return err
		}
		fmt.Printf("Created %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolveConfigPath()
		if err != nil {
			return err
		}
		fmt.Println(path)
		return nil
	},
}

func resolveConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return config.GetConfigPath()
}

var mirrorsCmd = &cobra.Command{
	Use:   "mirrors",
	Short: "Find monitor sessions shared on the local network",
	Long: `Browse mDNS for sessions started with --mirror-mdns and list them.

Connect to one with 'espmonitor watch NAME'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		scanner := discovery.NewScanner()
		scanner.Timeout = scanTimeout

		fmt.Printf("Looking for mirrors (%v)...\n", scanTimeout)
		instances, err := scanner.Scan(cmd.Context())
		if err != nil {
			return err
		}
		if len(instances) == 0 {
			fmt.Println("No mirrors found")
			return nil
		}
		for _, inst := range instances {
			fmt.Println(inst)
		}
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch MIRROR",
	Short: "Follow a shared monitor session",
	Long: `Print the lines of a session shared with --mirror.

MIRROR is either an address (host:port or a ws:// URL) or an mDNS instance
name as listed by 'espmonitor mirrors'. Watching is read-only.`,
	Example: `  espmonitor watch 192.168.1.20:8765
  espmonitor watch bench-pc`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		url := args[0]
		if !strings.Contains(url, ":") {
			scanner := discovery.NewScanner()
			scanner.Timeout = scanTimeout
			inst, err := scanner.Find(ctx, url)
			if err != nil {
				return err
			}
			url = inst.URL()
		}

		fmt.Fprintf(os.Stderr, "Watching %s\n", mirror.NormalizeURL(url))
		return mirror.Watch(ctx, url, func(line string) error {
			_, err := fmt.Println(line)
			return err
		})
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay FILE",
	Short: "Symbolicate a recorded session",
	Long: `Read a capture written with --capture and print it with code addresses
annotated, using --bin and the chip's addr2line.

Use this for captures recorded without --bin. Lines that were already
annotated get annotated again.`,
	Example: `  espmonitor replay --bin target/xtensa-esp32-none-elf/debug/app crash.log.zst`,
	Args:    cobra.ExactArgs(1),
	RunE:    runReplay,
}

func runReplay(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	cfg, err := toolchainConfig(replaySerial)
	if err != nil {
		return err
	}
	if cfg.Bin == "" {
		return &config.ConfigError{Field: "bin", Err: config.ErrMissingValue}
	}

	sym, err := symbolize.New(cfg.Bin, cfg.ToolPrefix(), logging.Named("symbolize"))
	if err != nil {
		return err
	}
	defer sym.Close()

	r, err := capture.Open(args[0])
	if err != nil {
		return err
	}
	defer r.Close()

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if _, err := fmt.Fprintln(out, sym.Symbolicate(cmd.Context(), scanner.Text())); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read capture: %w", err)
	}
	return nil
}
