package config

import (
	"errors"
	"testing"
)

func TestParseChip(t *testing.T) {
	tests := []struct {
		input   string
		want    Chip
		wantErr bool
	}{
		{"esp32", ChipESP32, false},
		{"esp8266", ChipESP8266, false},
		{"esp32s2", "", true},
		{"ESP32", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseChip(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseChip(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseChip(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseFramework(t *testing.T) {
	tests := []struct {
		input   string
		want    Framework
		wantErr bool
	}{
		{"baremetal", FrameworkBaremetal, false},
		{"esp-idf", FrameworkEspIdf, false},
		{"espidf", FrameworkEspIdf, false},
		{"arduino", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFramework(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFramework(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFramework(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestTargets(t *testing.T) {
	tests := []struct {
		target    string
		chip      Chip
		framework Framework
	}{
		{"xtensa-esp32-none-elf", ChipESP32, FrameworkBaremetal},
		{"xtensa-esp32-espidf", ChipESP32, FrameworkEspIdf},
		{"xtensa-esp32s2-none-elf", ChipESP32S2, FrameworkBaremetal},
		{"xtensa-esp8266-none-elf", ChipESP8266, FrameworkBaremetal},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			chip, err := ChipFromTarget(tt.target)
			if err != nil {
				t.Fatalf("ChipFromTarget() error = %v", err)
			}
			fw, err := FrameworkFromTarget(tt.target)
			if err != nil {
				t.Fatalf("FrameworkFromTarget() error = %v", err)
			}
			if chip != tt.chip || fw != tt.framework {
				t.Errorf("got (%v, %v), want (%v, %v)", chip, fw, tt.chip, tt.framework)
			}
			if got := chip.Target(fw); got != tt.target {
				t.Errorf("Target() = %q, want %q", got, tt.target)
			}
		})
	}

	if _, err := ChipFromTarget("riscv32imc-unknown-none-elf"); err == nil {
		t.Error("ChipFromTarget() expected error for non-xtensa target")
	}
	if _, err := FrameworkFromTarget("xtensa-esp32-linux"); err == nil {
		t.Error("FrameworkFromTarget() expected error for unknown suffix")
	}
}

func TestToolPrefix(t *testing.T) {
	tests := map[Chip]string{
		ChipESP32:   "xtensa-esp32-elf-",
		ChipESP32S2: "xtensa-esp32s2-elf-",
		ChipESP8266: "xtensa-esp8266-elf-",
	}
	for chip, want := range tests {
		if got := chip.ToolPrefix(); got != want {
			t.Errorf("%v.ToolPrefix() = %q, want %q", chip, got, want)
		}
	}
}

func TestBuildDefaults(t *testing.T) {
	cfg, err := Build(Flags{Serial: "/dev/ttyUSB0"}, nil)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}

	if cfg.Chip != ChipESP32 {
		t.Errorf("Chip = %v, want esp32", cfg.Chip)
	}
	if cfg.Framework != FrameworkBaremetal {
		t.Errorf("Framework = %v, want baremetal", cfg.Framework)
	}
	if cfg.BaudRate != DefaultBaudRate {
		t.Errorf("BaudRate = %d, want %d", cfg.BaudRate, DefaultBaudRate)
	}
	if !cfg.Reset {
		t.Error("Reset should default to true")
	}
	if cfg.Bin != "" {
		t.Errorf("Bin = %q, want empty", cfg.Bin)
	}
	if cfg.ToolPrefix() != "xtensa-esp32-elf-" {
		t.Errorf("ToolPrefix() = %q", cfg.ToolPrefix())
	}
}

func TestBuildPrecedence(t *testing.T) {
	noReset := false
	reg := NewRegistry()
	reg.Defaults = &Profile{Chip: "esp8266", Speed: 74880, LogLevel: "warn"}
	reg.Devices["/dev/ttyUSB0"] = &Profile{Target: "xtensa-esp32-espidf", Bin: "app.elf", Reset: &noReset}

	t.Run("device entry over defaults", func(t *testing.T) {
		cfg, err := Build(Flags{Serial: "/dev/ttyUSB0"}, reg)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if cfg.Chip != ChipESP32 || cfg.Framework != FrameworkEspIdf {
			t.Errorf("got (%v, %v), want (esp32, esp-idf)", cfg.Chip, cfg.Framework)
		}
		if cfg.BaudRate != 74880 {
			t.Errorf("BaudRate = %d, want 74880 from defaults", cfg.BaudRate)
		}
		if cfg.Bin != "app.elf" || cfg.Reset {
			t.Errorf("Bin = %q Reset = %v", cfg.Bin, cfg.Reset)
		}
		if cfg.LogLevel != "warn" {
			t.Errorf("LogLevel = %q, want warn", cfg.LogLevel)
		}
	})

	t.Run("flags over device entry", func(t *testing.T) {
		reset := true
		cfg, err := Build(Flags{Serial: "/dev/ttyUSB0", Chip: "esp8266", Framework: "baremetal", Speed: 921600, Reset: &reset}, reg)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if cfg.Chip != ChipESP8266 || cfg.Framework != FrameworkBaremetal {
			t.Errorf("got (%v, %v), want (esp8266, baremetal)", cfg.Chip, cfg.Framework)
		}
		if cfg.BaudRate != 921600 || !cfg.Reset {
			t.Errorf("BaudRate = %d Reset = %v", cfg.BaudRate, cfg.Reset)
		}
	})

	t.Run("other device only sees defaults", func(t *testing.T) {
		cfg, err := Build(Flags{Serial: "/dev/ttyACM0"}, reg)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}
		if cfg.Chip != ChipESP8266 || cfg.Bin != "" || !cfg.Reset {
			t.Errorf("unexpected config %+v", cfg)
		}
	})
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		field string
	}{
		{"missing serial", Flags{}, "serial"},
		{"bad chip", Flags{Serial: "/dev/x", Chip: "stm32"}, "chip"},
		{"bad framework", Flags{Serial: "/dev/x", Framework: "zephyr"}, "framework"},
		{"bad target", Flags{Serial: "/dev/x", Target: "thumbv7em-none-eabi"}, "target"},
		{"negative speed", Flags{Serial: "/dev/x", Speed: -9600}, "speed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.flags, nil)
			var cfgErr *ConfigError
			if !errors.As(err, &cfgErr) {
				t.Fatalf("Build() error = %v, want *ConfigError", err)
			}
			if cfgErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", cfgErr.Field, tt.field)
			}
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	_, err := ParseChip("stm32")
	if err == nil {
		t.Fatal("expected error")
	}
	if got, want := err.Error(), "'stm32' is not a valid chip: invalid value"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(err, ErrInvalidValue) {
		t.Error("error should wrap ErrInvalidValue")
	}
}

func TestBuildToolchain(t *testing.T) {
	reg := NewRegistry()
	reg.Devices["/dev/ttyUSB1"] = &Profile{Target: "xtensa-esp32s2-none-elf", Bin: "fw.elf"}

	cfg, err := BuildToolchain(Flags{}, reg)
	if err != nil {
		t.Fatalf("BuildToolchain() without serial error = %v", err)
	}
	if cfg.Chip != ChipESP32 || cfg.Bin != "" {
		t.Errorf("BuildToolchain() = chip %v bin %q, want built-in defaults", cfg.Chip, cfg.Bin)
	}

	cfg, err = BuildToolchain(Flags{Serial: "/dev/ttyUSB1"}, reg)
	if err != nil {
		t.Fatalf("BuildToolchain() error = %v", err)
	}
	if cfg.Chip != ChipESP32S2 || cfg.Bin != "fw.elf" {
		t.Errorf("BuildToolchain() = chip %v bin %q, want device profile", cfg.Chip, cfg.Bin)
	}

	if _, err := BuildToolchain(Flags{Chip: "stm32"}, nil); err == nil {
		t.Error("BuildToolchain() with bad chip error = nil, want error")
	}
}
