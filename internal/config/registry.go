package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "espmonitor"
	configFile = "config.yaml"
)

// Mutex for thread-safe file operations
var fileMutex sync.Mutex

// Registry represents the entire user configuration file: defaults for every
// session plus per-serial-device overrides.
type Registry struct {
	Version  int                 `yaml:"version"`
	Defaults *Profile            `yaml:"defaults,omitempty"`
	Devices  map[string]*Profile `yaml:"devices,omitempty"` // Keyed by serial device path
}

// Profile holds session settings. Empty fields inherit from the layer below.
type Profile struct {
	Chip      string `yaml:"chip,omitempty"`
	Framework string `yaml:"framework,omitempty"`
	Target    string `yaml:"target,omitempty"` // e.g. xtensa-esp32-espidf; wins over chip/framework
	Speed     int    `yaml:"speed,omitempty"`
	Bin       string `yaml:"bin,omitempty"`
	Reset     *bool  `yaml:"reset,omitempty"`
	LogLevel  string `yaml:"log_level,omitempty"`
}

// NewRegistry creates a new Registry with default values.
func NewRegistry() *Registry {
	return &Registry{
		Version: 1,
		Devices: make(map[string]*Profile),
	}
}

// Profile returns the device entry for a serial path, or nil.
func (r *Registry) Profile(serial string) *Profile {
	if r == nil || r.Devices == nil {
		return nil
	}
	return r.Devices[serial]
}

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/espmonitor or $HOME/.config/espmonitor
//   - macOS: $HOME/.config/espmonitor (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\espmonitor
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		xdgConfigHome := os.Getenv("XDG_CONFIG_HOME")
		if xdgConfigHome != "" {
			baseDir = filepath.Join(xdgConfigHome, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the full path to the configuration file.
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// LoadRegistry loads the configuration registry from path.
// If the file doesn't exist, returns a new default registry.
func LoadRegistry(path string) (*Registry, error) {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewRegistry(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var registry Registry
	if err := yaml.Unmarshal(data, &registry); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if registry.Version != 1 {
		return nil, fmt.Errorf("unsupported config version: %d (expected 1)", registry.Version)
	}

	if registry.Devices == nil {
		registry.Devices = make(map[string]*Profile)
	}

	return &registry, nil
}

// Save saves the registry to path.
// Performs an atomic write to prevent corruption on crash.
func (r *Registry) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte(`# ESPMonitor Configuration File
# Command-line flags override device entries, which override defaults.
#
# Location: ` + path + `

`)
	data = append(header, data...)

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}

	return nil
}

// CreateDefaultConfig writes a starter configuration file with an example
// device entry. It refuses to overwrite an existing file.
func CreateDefaultConfig(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists: %s", path)
	}

	reset := true
	registry := NewRegistry()
	registry.Defaults = &Profile{
		Chip:      string(ChipESP32),
		Framework: string(FrameworkBaremetal),
		Speed:     DefaultBaudRate,
		Reset:     &reset,
	}
	registry.Devices["/dev/ttyUSB0"] = &Profile{
		Target: "xtensa-esp32-espidf",
		Bin:    "target/xtensa-esp32-espidf/debug/firmware",
	}

	return registry.Save(path)
}
