package main

import "time"

// Memory layout
const (
	CHIP8_MEMORY_SIZE  = 4096
	CHIP8_FONT_START   = 0x000
	CHIP8_PROG_START   = 0x200
	CHIP8_MAX_ROM_SIZE = CHIP8_MEMORY_SIZE - CHIP8_PROG_START
	CHIP8_ADDR_MASK    = 0x0FFF
)

// Register file and call stack
const (
	CHIP8_NUM_REGS    = 16
	CHIP8_FLAG_REG    = 0xF
	CHIP8_STACK_DEPTH = 48
	CHIP8_OPCODE_SIZE = 2
)

// Display geometry
const (
	DISPLAY_WIDTH  = 64
	DISPLAY_HEIGHT = 32
	DISPLAY_CELLS  = DISPLAY_WIDTH * DISPLAY_HEIGHT
	SPRITE_WIDTH   = 8
)

// Font table
const (
	FONT_GLYPHS      = 16
	FONT_GLYPH_BYTES = 5
)

const NUM_KEYS = 16

// Timing
const (
	TIMER_HZ      = 60
	FRAME_PERIOD  = time.Second / TIMER_HZ
	DEFAULT_IPS   = 700
	MIN_IPS       = TIMER_HZ
	MAX_IPS       = 1_000_000
	DEFAULT_SCALE = 10
	MAX_SCALE     = 40
)

var chip8Font = [FONT_GLYPHS * FONT_GLYPH_BYTES]byte{
	0xF0, 0x90, 0x90, 0x90, 0xF0, // 0
	0x20, 0x60, 0x20, 0x20, 0x70, // 1
	0xF0, 0x10, 0xF0, 0x80, 0xF0, // 2
	0xF0, 0x10, 0xF0, 0x10, 0xF0, // 3
	0x90, 0x90, 0xF0, 0x10, 0x10, // 4
	0xF0, 0x80, 0xF0, 0x10, 0xF0, // 5
	0xF0, 0x80, 0xF0, 0x90, 0xF0, // 6
	0xF0, 0x10, 0x20, 0x40, 0x40, // 7
	0xF0, 0x90, 0xF0, 0x90, 0xF0, // 8
	0xF0, 0x90, 0xF0, 0x10, 0xF0, // 9
	0xF0, 0x90, 0xF0, 0x90, 0x90, // A
	0xE0, 0x90, 0xE0, 0x90, 0xE0, // B
	0xF0, 0x80, 0x80, 0x80, 0xF0, // C
	0xE0, 0x90, 0x90, 0x90, 0xE0, // D
	0xF0, 0x80, 0xF0, 0x80, 0xF0, // E
	0xF0, 0x80, 0xF0, 0x80, 0x80, // F
}

// Chip8Mode selects the operand semantics of the shift, jump-with-offset,
// index-add and store/load opcode families.
type Chip8Mode int

const (
	MODE_LEGACY_SHIFT Chip8Mode = iota // COSMAC VIP
	MODE_MODERN_SHIFT                  // Amiga CHIP-8
)

func (m Chip8Mode) String() string {
	switch m {
	case MODE_LEGACY_SHIFT:
		return "legacy"
	case MODE_MODERN_SHIFT:
		return "modern"
	}
	return "unknown"
}

// ParseChip8Mode accepts the mode names and their historical aliases.
func ParseChip8Mode(s string) (Chip8Mode, bool) {
	switch s {
	case "legacy", "cosmac", "vip":
		return MODE_LEGACY_SHIFT, true
	case "modern", "amiga":
		return MODE_MODERN_SHIFT, true
	}
	return MODE_LEGACY_SHIFT, false
}

// Chip8State is the VM lifecycle state.
type Chip8State int32

const (
	STATE_UNINITIALIZED Chip8State = iota
	STATE_RUNNING
	STATE_PAUSED
	STATE_HALTED
)

func (s Chip8State) String() string {
	switch s {
	case STATE_UNINITIALIZED:
		return "UNINIT"
	case STATE_RUNNING:
		return "RUN"
	case STATE_PAUSED:
		return "PAUSE"
	case STATE_HALTED:
		return "HALT"
	}
	return "?"
}
