// Package config turns command-line flags and the optional YAML
// configuration file into the immutable SessionConfig consumed by the
// monitor.
//
// # Configuration File Location
//
//   - Linux: $XDG_CONFIG_HOME/espmonitor/config.yaml or $HOME/.config/espmonitor/config.yaml
//   - macOS: $HOME/.config/espmonitor/config.yaml
//   - Windows: %LOCALAPPDATA%\espmonitor\config.yaml
//
// # File Format
//
//	version: 1
//	defaults:
//	  chip: esp32
//	  speed: 115200
//	devices:
//	  /dev/ttyUSB0:
//	    target: xtensa-esp32-espidf
//	    bin: target/xtensa-esp32-espidf/debug/firmware
//
// # Precedence
//
// Flags override the device entry, which overrides defaults, which override
// the built-in values (esp32, baremetal, 115200 baud, reset on start).
// A target triple in any layer sets both chip and framework for that layer.
//
// All parse failures are reported as *ConfigError before the serial port is
// touched.
package config
