package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Chip8Config is the command line configuration.
type Chip8Config struct {
	ROM        string
	Mode       Chip8Mode
	IPS        int
	Scale      int
	Foreground uint32
	Background uint32
	Video      int
	Mute       bool
	Disasm     bool
	Monitor    bool
	Debug      bool
}

func DefaultChip8Config() Chip8Config {
	return Chip8Config{
		Mode:       MODE_LEGACY_SHIFT,
		IPS:        DEFAULT_IPS,
		Scale:      DEFAULT_SCALE,
		Foreground: 0xFFFFFF,
		Background: 0x000000,
		Video:      VIDEO_BACKEND_EBITEN,
	}
}

func (c Chip8Config) Validate() error {
	var errs []error
	if c.ROM == "" {
		errs = append(errs, errors.New("no ROM file given"))
	}
	if c.IPS < MIN_IPS || c.IPS > MAX_IPS {
		errs = append(errs, fmt.Errorf("ips %d outside %d..%d", c.IPS, MIN_IPS, MAX_IPS))
	}
	if c.Scale < 1 || c.Scale > MAX_SCALE {
		errs = append(errs, fmt.Errorf("scale %d outside 1..%d", c.Scale, MAX_SCALE))
	}
	if c.Foreground > 0xFFFFFF || c.Background > 0xFFFFFF {
		errs = append(errs, errors.New("colours must be 24-bit RGB"))
	}
	if c.Monitor && c.Video == VIDEO_BACKEND_TERMINAL {
		errs = append(errs, errors.New("-monitor and -video term both need stdin"))
	}
	return errors.Join(errs...)
}

// DisplayConfig derives the video configuration.
func (c Chip8Config) DisplayConfig() DisplayConfig {
	cfg := DefaultDisplayConfig()
	cfg.Scale = c.Scale
	cfg.Foreground = c.Foreground
	cfg.Background = c.Background
	return cfg
}

// parseColourFlag accepts 0xRRGGBB, #RRGGBB, $RRGGBB or bare RRGGBB.
func parseColourFlag(value string) (uint32, error) {
	s := strings.TrimSpace(value)
	switch {
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s = s[2:]
	case strings.HasPrefix(s, "#"), strings.HasPrefix(s, "$"):
		s = s[1:]
	}
	parsed, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid colour %q", value)
	}
	if parsed > 0xFFFFFF {
		return 0, fmt.Errorf("colour out of range: 0x%X", parsed)
	}
	return uint32(parsed), nil
}
