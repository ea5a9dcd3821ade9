package config

import (
	"fmt"
	"strings"
)

// DefaultBaudRate is used when neither flags nor the config file set a speed.
const DefaultBaudRate = 115200

// Chip identifies the ESP chip family on the other end of the serial port.
type Chip string

const (
	ChipESP32   Chip = "esp32"
	ChipESP32S2 Chip = "esp32s2"
	ChipESP8266 Chip = "esp8266"
)

// ParseChip parses a --chip value. ESP32-S2 is only selectable through a
// target triple.
func ParseChip(value string) (Chip, error) {
	switch value {
	case "esp32":
		return ChipESP32, nil
	case "esp8266":
		return ChipESP8266, nil
	default:
		return "", &ConfigError{Field: "chip", Value: value, Err: ErrInvalidValue}
	}
}

// ChipFromTarget derives the chip from a target triple such as
// "xtensa-esp32-none-elf".
func ChipFromTarget(target string) (Chip, error) {
	switch {
	case strings.Contains(target, "-esp32-"):
		return ChipESP32, nil
	case strings.Contains(target, "-esp32s2-"):
		return ChipESP32S2, nil
	case strings.Contains(target, "-esp8266-"):
		return ChipESP8266, nil
	default:
		return "", &ConfigError{Field: "target", Value: target, Err: fmt.Errorf("can't figure out chip from target")}
	}
}

// ToolPrefix returns the binutils prefix of the chip's cross toolchain.
func (c Chip) ToolPrefix() string {
	switch c {
	case ChipESP32S2:
		return "xtensa-esp32s2-elf-"
	case ChipESP8266:
		return "xtensa-esp8266-elf-"
	default:
		return "xtensa-esp32-elf-"
	}
}

// Target returns the target triple for this chip and framework.
func (c Chip) Target(fw Framework) string {
	target := "xtensa-" + string(c) + "-"
	if fw == FrameworkEspIdf {
		return target + "espidf"
	}
	return target + "none-elf"
}

// Framework identifies the software stack running on the chip.
type Framework string

const (
	FrameworkBaremetal Framework = "baremetal"
	FrameworkEspIdf    Framework = "esp-idf"
)

// ParseFramework parses a --framework value.
func ParseFramework(value string) (Framework, error) {
	switch value {
	case "baremetal":
		return FrameworkBaremetal, nil
	case "esp-idf", "espidf":
		return FrameworkEspIdf, nil
	default:
		return "", &ConfigError{Field: "framework", Value: value, Err: ErrInvalidValue}
	}
}

// FrameworkFromTarget derives the framework from a target triple.
func FrameworkFromTarget(target string) (Framework, error) {
	switch {
	case strings.HasSuffix(target, "-espidf"):
		return FrameworkEspIdf, nil
	case strings.HasSuffix(target, "-none-elf"):
		return FrameworkBaremetal, nil
	default:
		return "", &ConfigError{Field: "target", Value: target, Err: fmt.Errorf("can't figure out framework from target")}
	}
}

// SessionConfig is everything a monitor session needs. It is built once by
// the CLI layer and not modified afterwards.
type SessionConfig struct {
	Serial    string
	Chip      Chip
	Framework Framework
	BaudRate  int
	Bin       string // empty disables symbolication
	Reset     bool

	LogLevel    string
	LogFile     string
	CapturePath string
	MirrorAddr  string
	MirrorMDNS  bool
}

// ToolPrefix is the addr2line prefix for the configured chip.
func (c *SessionConfig) ToolPrefix() string {
	return c.Chip.ToolPrefix()
}

// Validate reports the first invalid field.
func (c *SessionConfig) Validate() error {
	if c.Serial == "" {
		return &ConfigError{Field: "serial", Err: ErrMissingValue}
	}
	return c.validateToolchain()
}

func (c *SessionConfig) validateToolchain() error {
	if c.BaudRate <= 0 {
		return &ConfigError{Field: "speed", Value: fmt.Sprint(c.BaudRate), Err: ErrInvalidValue}
	}
	switch c.Chip {
	case ChipESP32, ChipESP32S2, ChipESP8266:
	default:
		return &ConfigError{Field: "chip", Value: string(c.Chip), Err: ErrInvalidValue}
	}
	switch c.Framework {
	case FrameworkBaremetal, FrameworkEspIdf:
	default:
		return &ConfigError{Field: "framework", Value: string(c.Framework), Err: ErrInvalidValue}
	}
	return nil
}
