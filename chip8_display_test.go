package main

import (
	"errors"
	"strings"
	"testing"
)

// TestChip8Stack_Bounds verifies push and pop fault instead of running off the slots.
func TestChip8Stack_Bounds(t *testing.T) {
	var s Chip8Stack
	if _, err := s.Pop(); !errors.Is(err, ErrStackUnderflow) {
		t.Fatalf("pop on empty stack: got %v, want ErrStackUnderflow", err)
	}
	for i := 0; i < CHIP8_STACK_DEPTH; i++ {
		if err := s.Push(uint16(0x200 + i*2)); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := s.Push(0xABC); !errors.Is(err, ErrStackOverflow) {
		t.Fatalf("push on full stack: got %v, want ErrStackOverflow", err)
	}
	if s.Depth() != CHIP8_STACK_DEPTH {
		t.Fatalf("depth after overflow = %d, want %d", s.Depth(), CHIP8_STACK_DEPTH)
	}
	top, err := s.Pop()
	if err != nil || top != uint16(0x200+(CHIP8_STACK_DEPTH-1)*2) {
		t.Fatalf("pop = %03X, %v", top, err)
	}
	s.Reset()
	if s.Depth() != 0 {
		t.Fatalf("depth after reset = %d", s.Depth())
	}
}

// TestChip8Display_SpriteRows verifies bit order and row placement.
func TestChip8Display_SpriteRows(t *testing.T) {
	var d Chip8Display
	if d.DrawSprite(2, 3, []byte{0x81, 0x42}) {
		t.Fatal("collision on empty display")
	}
	want := map[[2]int]bool{{2, 3}: true, {9, 3}: true, {3, 4}: true, {8, 4}: true}
	for y := 0; y < DISPLAY_HEIGHT; y++ {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			if d.Pixel(x, y) != want[[2]int{x, y}] {
				t.Fatalf("pixel (%d,%d) = %v", x, y, d.Pixel(x, y))
			}
		}
	}
	if !d.DrawPending() {
		t.Fatal("draw did not raise the pending flag")
	}
	d.ClearDrawPending()
	if d.DrawPending() {
		t.Fatal("pending flag survived ClearDrawPending")
	}
}

// TestChip8Display_CollisionLatches verifies one overlapping bit is enough.
func TestChip8Display_CollisionLatches(t *testing.T) {
	var d Chip8Display
	d.DrawSprite(0, 0, []byte{0x80})
	if !d.DrawSprite(0, 0, []byte{0xC0, 0xFF}) {
		t.Fatal("expected collision")
	}
	if d.Pixel(0, 0) || !d.Pixel(1, 0) {
		t.Fatal("XOR result wrong on first row")
	}
}

// TestChip8Display_AnchorWraps verifies only the anchor wraps.
func TestChip8Display_AnchorWraps(t *testing.T) {
	var d Chip8Display
	d.DrawSprite(64+63, 32+31, []byte{0xFF, 0xFF})
	if !d.Pixel(63, 31) {
		t.Fatal("anchor did not wrap to (63,31)")
	}
	count := 0
	for _, on := range d.Cells {
		if on {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("%d pixels lit, want 1 (everything else clipped)", count)
	}
}

func TestChip8Display_PixelOutOfRange(t *testing.T) {
	var d Chip8Display
	d.Cells[0] = true
	if d.Pixel(-1, 0) || d.Pixel(64, 0) || d.Pixel(0, 32) {
		t.Fatal("out of range pixel reported lit")
	}
}

func TestDisplayToText(t *testing.T) {
	var cells [DISPLAY_CELLS]bool
	cells[0] = true
	cells[DISPLAY_WIDTH+1] = true
	lines := strings.Split(strings.TrimSuffix(displayToText(&cells), "\n"), "\n")
	if len(lines) != DISPLAY_HEIGHT {
		t.Fatalf("got %d lines", len(lines))
	}
	if !strings.HasPrefix(lines[0], "#.") || !strings.HasPrefix(lines[1], ".#") {
		t.Fatalf("unexpected art: %q / %q", lines[0][:4], lines[1][:4])
	}
	if len(lines[0]) != DISPLAY_WIDTH {
		t.Fatalf("line width %d", len(lines[0]))
	}
}

func TestDisplayToRGBA(t *testing.T) {
	var cells [DISPLAY_CELLS]bool
	cells[1] = true
	buf := displayToRGBA(&cells, 0x112233, 0x445566, nil)
	if len(buf) != DISPLAY_CELLS*4 {
		t.Fatalf("buffer length %d", len(buf))
	}
	if buf[0] != 0x44 || buf[1] != 0x55 || buf[2] != 0x66 || buf[3] != 0xFF {
		t.Fatalf("background pixel = % X", buf[0:4])
	}
	if buf[4] != 0x11 || buf[5] != 0x22 || buf[6] != 0x33 || buf[7] != 0xFF {
		t.Fatalf("foreground pixel = % X", buf[4:8])
	}
	if frameToText(buf, 0x445566) != displayToText(&cells) {
		t.Fatal("frameToText does not invert displayToRGBA")
	}
}

// TestChip8Keypad verifies state, lowest-key lookup and the mask.
func TestChip8Keypad(t *testing.T) {
	var k Chip8Keypad
	if _, ok := k.FirstDown(); ok {
		t.Fatal("empty keypad reports a key")
	}
	k.Set(0xB, true)
	k.Set(0x4, true)
	k.Set(99, true)
	k.Set(-1, true)
	if key, ok := k.FirstDown(); !ok || key != 0x4 {
		t.Fatalf("FirstDown = %X, %v", key, ok)
	}
	if k.Mask() != 1<<0xB|1<<0x4 {
		t.Fatalf("mask = %04X", k.Mask())
	}
	if k.IsDown(99) {
		t.Fatal("out of range key reported down")
	}
	k.ReleaseAll()
	if k.Mask() != 0 {
		t.Fatalf("mask after release = %04X", k.Mask())
	}
}

func TestChip8Error_Format(t *testing.T) {
	err := &Chip8Error{Operation: "step", Details: "opcode 00EE at 200", Err: ErrStackUnderflow}
	if got := err.Error(); got != "chip8 step failed: opcode 00EE at 200: stack underflow" {
		t.Fatalf("Error() = %q", got)
	}
	if (&Chip8Error{Operation: "load", Details: "x"}).Error() != "chip8 load failed: x" {
		t.Fatal("format without cause")
	}
}

func TestParseChip8Mode(t *testing.T) {
	for _, name := range []string{"legacy", "cosmac", "vip"} {
		if m, ok := ParseChip8Mode(name); !ok || m != MODE_LEGACY_SHIFT {
			t.Fatalf("%s -> %v, %v", name, m, ok)
		}
	}
	for _, name := range []string{"modern", "amiga"} {
		if m, ok := ParseChip8Mode(name); !ok || m != MODE_MODERN_SHIFT {
			t.Fatalf("%s -> %v, %v", name, m, ok)
		}
	}
	if _, ok := ParseChip8Mode("schip"); ok {
		t.Fatal("unknown mode accepted")
	}
}
