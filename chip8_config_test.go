package main

import (
	"flag"
	"strings"
	"testing"
)

func TestParseColourFlag(t *testing.T) {
	tests := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"0xFF8000", 0xFF8000, true},
		{"#00ff00", 0x00FF00, true},
		{"$123456", 0x123456, true},
		{"abcdef", 0xABCDEF, true},
		{"0x1000000", 0, false},
		{"green", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, err := parseColourFlag(tt.in)
		if (err == nil) != tt.ok {
			t.Fatalf("parseColourFlag(%q) error = %v", tt.in, err)
		}
		if tt.ok && got != tt.want {
			t.Fatalf("parseColourFlag(%q) = %06X, want %06X", tt.in, got, tt.want)
		}
	}
}

func TestChip8Config_Validate(t *testing.T) {
	cfg := DefaultChip8Config()
	cfg.ROM = "pong.ch8"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config rejected: %v", err)
	}

	bad := cfg
	bad.ROM = ""
	bad.IPS = 1
	bad.Scale = 0
	err := bad.Validate()
	if err == nil {
		t.Fatal("invalid config accepted")
	}
	for _, want := range []string{"no ROM", "ips 1", "scale 0"} {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q does not mention %q", err, want)
		}
	}

	bad = cfg
	bad.Monitor = true
	bad.Video = VIDEO_BACKEND_TERMINAL
	if bad.Validate() == nil {
		t.Fatal("monitor with terminal video accepted")
	}
}

func TestParseFlags(t *testing.T) {
	cfg, opts, err := parseFlags([]string{"-mode", "amiga", "-ips", "1000", "-video", "none", "-fg", "#00FF00", "-mute", "game.ch8"})
	if err != nil {
		t.Fatalf("parseFlags: %v", err)
	}
	if cfg.Mode != MODE_MODERN_SHIFT || cfg.IPS != 1000 || cfg.Video != VIDEO_BACKEND_NONE {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.Foreground != 0x00FF00 || cfg.Background != 0 || !cfg.Mute {
		t.Fatalf("unexpected colours or mute %+v", cfg)
	}
	if cfg.ROM != "game.ch8" || opts.features || opts.version {
		t.Fatalf("unexpected ROM/options %q %+v", cfg.ROM, opts)
	}

	if _, _, err := parseFlags([]string{"-mode", "schip", "x.ch8"}); err == nil {
		t.Fatal("unknown mode accepted")
	}
	if _, _, err := parseFlags([]string{"-video", "vga", "x.ch8"}); err == nil {
		t.Fatal("unknown video backend accepted")
	}
	if _, opts, err := parseFlags([]string{"-features"}); err != nil || !opts.features {
		t.Fatalf("-features: %+v, %v", opts, err)
	}
	if _, _, err := parseFlags([]string{"-nosuchflag"}); err == nil || err == flag.ErrHelp {
		t.Fatalf("unknown flag: %v", err)
	}
}
