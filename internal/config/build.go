package config

// Flags carries values given on the command line. Zero values mean "not
// given" and fall through to the config file.
type Flags struct {
	Serial    string
	Chip      string
	Framework string
	Target    string
	Speed     int
	Bin       string
	Reset     *bool

	LogLevel    string
	LogFile     string
	CapturePath string
	MirrorAddr  string
	MirrorMDNS  bool
}

// Build merges built-in defaults, the registry defaults, the registry entry
// for the serial device and finally the flags into a validated
// SessionConfig. reg may be nil.
func Build(flags Flags, reg *Registry) (*SessionConfig, error) {
	cfg, err := merge(flags, reg)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// BuildToolchain is Build for commands that never open a port: the serial
// device is optional and only selects a device profile.
func BuildToolchain(flags Flags, reg *Registry) (*SessionConfig, error) {
	cfg, err := merge(flags, reg)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateToolchain(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func merge(flags Flags, reg *Registry) (*SessionConfig, error) {
	cfg := &SessionConfig{
		Serial:      flags.Serial,
		Chip:        ChipESP32,
		Framework:   FrameworkBaremetal,
		BaudRate:    DefaultBaudRate,
		Reset:       true,
		LogFile:     flags.LogFile,
		CapturePath: flags.CapturePath,
		MirrorAddr:  flags.MirrorAddr,
		MirrorMDNS:  flags.MirrorMDNS,
	}

	layers := []*Profile{}
	if reg != nil {
		layers = append(layers, reg.Defaults, reg.Profile(flags.Serial))
	}
	layers = append(layers, &Profile{
		Chip:      flags.Chip,
		Framework: flags.Framework,
		Target:    flags.Target,
		Speed:     flags.Speed,
		Bin:       flags.Bin,
		Reset:     flags.Reset,
		LogLevel:  flags.LogLevel,
	})

	for _, p := range layers {
		if err := cfg.apply(p); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

func (c *SessionConfig) apply(p *Profile) error {
	if p == nil {
		return nil
	}

	if p.Target != "" {
		chip, err := ChipFromTarget(p.Target)
		if err != nil {
			return err
		}
		fw, err := FrameworkFromTarget(p.Target)
		if err != nil {
			return err
		}
		c.Chip, c.Framework = chip, fw
	} else {
		if p.Chip != "" {
			chip, err := ParseChip(p.Chip)
			if err != nil {
				return err
			}
			c.Chip = chip
		}
		if p.Framework != "" {
			fw, err := ParseFramework(p.Framework)
			if err != nil {
				return err
			}
			c.Framework = fw
		}
	}

	if p.Speed != 0 {
		c.BaudRate = p.Speed
	}
	if p.Bin != "" {
		c.Bin = p.Bin
	}
	if p.Reset != nil {
		c.Reset = *p.Reset
	}
	if p.LogLevel != "" {
		c.LogLevel = p.LogLevel
	}
	return nil
}
