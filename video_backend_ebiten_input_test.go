//go:build !headless

package main

import (
	"errors"
	"io/fs"
	"testing"
	"testing/fstest"

	"github.com/hajimehoshi/ebiten/v2"
)

// TestScanKeyMask verifies the 4x4 host block lands on the VIP key order.
func TestScanKeyMask(t *testing.T) {
	held := map[ebiten.Key]bool{ebiten.KeyX: true, ebiten.Key1: true, ebiten.KeyV: true}
	mask := scanKeyMask(func(k ebiten.Key) bool { return held[k] })
	want := uint32(1<<0x0 | 1<<0x1 | 1<<0xF)
	if mask != want {
		t.Fatalf("mask = %04X, want %04X", mask, want)
	}
	if scanKeyMask(func(ebiten.Key) bool { return false }) != 0 {
		t.Fatal("idle keyboard produced a mask")
	}
}

func TestParseKeyTaps(t *testing.T) {
	got := parseKeyTaps("1a F\n-9z")
	want := []int{0x1, 0xA, 0xF, 0x9}
	if len(got) != len(want) {
		t.Fatalf("taps = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("taps = %v, want %v", got, want)
		}
	}
}

// TestPasteTapTiming verifies each pasted key is held, then released,
// before the next one starts.
func TestPasteTapTiming(t *testing.T) {
	eo := &EbitenOutput{taps: []int{0x3, 0xC}}

	var masks []uint32
	for i := 0; i < 4*PASTE_HOLD_FRAMES+2; i++ {
		masks = append(masks, eo.nextTap())
	}
	for i := 0; i < PASTE_HOLD_FRAMES; i++ {
		if masks[i] != 1<<0x3 {
			t.Fatalf("frame %d: mask %04X, want key 3", i, masks[i])
		}
	}
	for i := PASTE_HOLD_FRAMES; i <= 2*PASTE_HOLD_FRAMES; i++ {
		if masks[i] != 0 {
			t.Fatalf("frame %d: mask %04X during release", i, masks[i])
		}
	}
	if masks[2*PASTE_HOLD_FRAMES+1] != 1<<0xC {
		t.Fatalf("second key mask %04X", masks[2*PASTE_HOLD_FRAMES+1])
	}
	if masks[len(masks)-1] != 0 || len(eo.taps) != 0 {
		t.Fatalf("queue not drained: %v", eo.taps)
	}
}

func TestFirstDroppedROM(t *testing.T) {
	files := fstest.MapFS{
		"games":    &fstest.MapFile{Mode: fs.ModeDir | 0o755},
		"pong.ch8": &fstest.MapFile{Data: []byte{0x00, 0xE0}},
	}
	rom, name, err := firstDroppedROM(files)
	if err != nil {
		t.Fatalf("firstDroppedROM: %v", err)
	}
	if name != "pong.ch8" || len(rom) != 2 {
		t.Fatalf("got %q (%d bytes)", name, len(rom))
	}

	big := fstest.MapFS{"big.ch8": &fstest.MapFile{Data: make([]byte, CHIP8_MAX_ROM_SIZE+1)}}
	if _, _, err := firstDroppedROM(big); !errors.Is(err, ErrRomTooLarge) {
		t.Fatalf("oversized drop: err = %v", err)
	}

	rom, _, err = firstDroppedROM(fstest.MapFS{})
	if rom != nil || err != nil {
		t.Fatalf("empty drop: %v, %v", rom, err)
	}
}

func TestStatusTokens(t *testing.T) {
	vm, host := statusTokens(runtimeStatusSnapshot{})
	if vm[0].name != "RUN" || vm[0].enabled {
		t.Fatalf("idle RUN token = %+v", vm[0])
	}
	if host[0].name != "0 IPS" {
		t.Fatalf("idle IPS token = %+v", host[0])
	}

	cpu := NewCPUChip8(MODE_MODERN_SHIFT)
	if err := cpu.Load([]byte{0x12, 0x00}); err != nil {
		t.Fatalf("Load: %v", err)
	}
	runner := NewChip8Runner(cpu, 600)
	vm, host = statusTokens(runtimeStatusSnapshot{runner: runner, cpu: cpu, romName: "loop.ch8"})
	if !vm[0].enabled {
		t.Fatal("RUN not lit for a running VM")
	}
	if vm[6].enabled || !vm[8].enabled {
		t.Fatal("mode tokens do not show the AMIGA quirk")
	}
	if last := host[len(host)-1]; last.name != "loop.ch8" {
		t.Fatalf("ROM token = %+v", last)
	}
}
