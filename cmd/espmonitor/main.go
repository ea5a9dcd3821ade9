// Espmonitor is a serial monitor for ESP32 and ESP8266 boards.
//
// It prints everything the chip writes on its UART, annotates code addresses
// in panic dumps and backtraces with function, file and line (using the
// chip toolchain's addr2line against the flashed ELF), and resets the chip on
// request by pulsing DTR/RTS.
//
// While monitoring:
//
//   - CTRL+R resets the chip
//   - CTRL+C exits
//
// Usage:
//
//	espmonitor [flags] SERIAL_DEVICE
//
// See 'espmonitor --help' for available options.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/muurk/espmonitor/internal/config"
	"github.com/muurk/espmonitor/internal/monitor"
	"github.com/muurk/espmonitor/internal/serial"
	"github.com/muurk/espmonitor/internal/ui"
	"github.com/muurk/espmonitor/internal/version"
)

// errReported marks failures a command has already shown to the user
var errReported = errors.New("already reported")

func main() {
	err := rootCmd.Execute()
	code := monitor.ExitCode(err)
	if code != monitor.ExitOK {
		reportError(err)
	}
	os.Exit(code)
}

var rootCmd = &cobra.Command{
	Use:   "espmonitor [flags] SERIAL_DEVICE",
	Short: "Serial monitor for ESP32 and ESP8266 boards",
	Long: `Monitor the serial output of an ESP32 or ESP8266 board.

Code addresses in the output (panic registers, backtraces) are annotated with
function, file and line when --bin points at the ELF file flashed on the chip.
This needs the chip's addr2line from the Xtensa toolchain on PATH; run
'espmonitor check' to verify.

While monitoring:
  CTRL+R    Reset chip
  CTRL+C    Exit

Defaults for every flag can be stored per device in the configuration file
(see 'espmonitor config path').`,
	Version: version.Version,
	Args:    cobra.ExactArgs(1),
	Example: `  # Monitor an ESP32 at the default 115200 baud
  espmonitor /dev/ttyUSB0

  # Symbolicate backtraces from an ESP-IDF build
  espmonitor --target xtensa-esp32-espidf --bin target/xtensa-esp32-espidf/debug/app /dev/ttyUSB0

  # ESP8266 at 74880 baud without resetting on start
  espmonitor --chip esp8266 --speed 74880 --no-reset /dev/ttyUSB0

  # Record the session and share it with the bench network
  espmonitor --capture session.log.zst --mirror :8765 --mirror-mdns /dev/ttyUSB0`,
	RunE:          runMonitor,
	SilenceErrors: true,
}

func init() {
	// Disable automatic completion command generation
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.SetVersionTemplate("espmonitor {{.Version}}\n")
}

// reportError prints a failure box for err unless the command already did.
func reportError(err error) {
	if err == nil || errors.Is(err, errReported) {
		return
	}

	var sigErr *monitor.SignalError
	if errors.As(err, &sigErr) {
		fmt.Fprintf(os.Stderr, "\n%v\n", err)
		return
	}

	fmt.Fprintln(os.Stderr, ui.RenderFailure(errorTitle(err), err, troubleshootingFor(err)))
}

func errorTitle(err error) string {
	var (
		openErr *serial.OpenError
		cfgErr  *config.ConfigError
		readErr *monitor.ReadError
		keyErr  *monitor.KeyListenerError
	)
	switch {
	case errors.As(err, &openErr):
		return "Cannot open serial port"
	case errors.As(err, &cfgErr):
		return "Invalid configuration"
	case errors.As(err, &readErr):
		return "Serial connection lost"
	case errors.As(err, &keyErr):
		return "Terminal input failed"
	default:
		return "espmonitor failed"
	}
}

func troubleshootingFor(err error) []string {
	var (
		openErr *serial.OpenError
		cfgErr  *config.ConfigError
		readErr *monitor.ReadError
	)
	switch {
	case errors.As(err, &openErr):
		return []string{
			"Check the board is plugged in: espmonitor ports",
			"Close other programs using the port (flashers, other monitors)",
			"On Linux, add your user to the dialout (or uucp) group",
		}
	case errors.As(err, &cfgErr):
		return []string{
			"Valid chips: esp32, esp8266 (esp32s2 via --target)",
			"Valid frameworks: baremetal, esp-idf",
			"Check the configuration file: espmonitor config path",
		}
	case errors.As(err, &readErr):
		return []string{
			"The board may have been unplugged or re-enumerated",
		}
	default:
		return nil
	}
}
