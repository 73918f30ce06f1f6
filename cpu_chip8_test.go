package main

import (
	"bytes"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/retroenv/retrogolib/assert"
)

// romOf encodes opcodes big-endian.
func romOf(ops ...uint16) []byte {
	rom := make([]byte, 0, len(ops)*2)
	for _, op := range ops {
		rom = append(rom, byte(op>>8), byte(op))
	}
	return rom
}

func newTestVM(t *testing.T, mode Chip8Mode, ops ...uint16) *CPUChip8 {
	t.Helper()
	vm := NewCPUChip8(mode, WithRandSource(rand.NewPCG(1, 2)))
	assert.NoError(t, vm.Load(romOf(ops...)))
	return vm
}

func stepN(t *testing.T, vm *CPUChip8, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		assert.NoError(t, vm.Step())
	}
}

func TestChip8Load_PlacesROMAtProgramStart(t *testing.T) {
	for _, mode := range []Chip8Mode{MODE_LEGACY_SHIFT, MODE_MODERN_SHIFT} {
		rom := make([]byte, CHIP8_MAX_ROM_SIZE)
		for i := range rom {
			rom[i] = byte(i * 7)
		}
		vm := NewCPUChip8(mode)
		assert.NoError(t, vm.Load(rom))
		for k, b := range rom {
			if vm.Memory[CHIP8_PROG_START+k] != b {
				t.Fatalf("mode %s: Memory[0x%03X] = %02X, want %02X", mode, CHIP8_PROG_START+k, vm.Memory[CHIP8_PROG_START+k], b)
			}
		}
		assert.Equal(t, uint16(CHIP8_PROG_START), vm.PC)
		assert.Equal(t, STATE_RUNNING, vm.State())
		assert.Equal(t, CHIP8_MAX_ROM_SIZE, vm.RomSize())
	}
}

func TestChip8Load_FontAtZero(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT)
	assert.True(t, bytes.Equal(chip8Font[:], vm.Memory[:len(chip8Font)]))
}

func TestChip8Load_RejectsOversizedROM(t *testing.T) {
	vm := NewCPUChip8(MODE_LEGACY_SHIFT)
	err := vm.Load(make([]byte, CHIP8_MAX_ROM_SIZE+1))
	assert.Error(t, err)
	assert.True(t, errors.Is(err, ErrRomTooLarge))

	var cerr *Chip8Error
	assert.True(t, errors.As(err, &cerr))
	assert.Equal(t, "load", cerr.Operation)

	assert.Equal(t, STATE_UNINITIALIZED, vm.State())
	assert.False(t, vm.Loaded())
	assert.Equal(t, byte(0), vm.Memory[CHIP8_PROG_START])
}

func TestChip8Load_OversizedROMLeavesPreviousProgram(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6042)
	big := bytes.Repeat([]byte{0xAA}, CHIP8_MAX_ROM_SIZE+1)
	assert.Error(t, vm.Load(big))
	assert.Equal(t, byte(0x60), vm.Memory[CHIP8_PROG_START])
	assert.Equal(t, byte(0x42), vm.Memory[CHIP8_PROG_START+1])
	assert.Equal(t, 2, vm.RomSize())
}

func TestChip8LoadFrom_ReaderErrorIsUnreadable(t *testing.T) {
	vm := NewCPUChip8(MODE_LEGACY_SHIFT)
	err := vm.LoadFrom(iotest.ErrReader(errors.New("disk on fire")))
	assert.True(t, errors.Is(err, ErrRomUnreadable))
	assert.Equal(t, STATE_UNINITIALIZED, vm.State())
}

func TestChip8LoadFrom_OversizedStream(t *testing.T) {
	vm := NewCPUChip8(MODE_LEGACY_SHIFT)
	err := vm.LoadFrom(bytes.NewReader(make([]byte, CHIP8_MAX_ROM_SIZE+100)))
	assert.True(t, errors.Is(err, ErrRomTooLarge))
}

func TestChip8LoadProgram_MissingFile(t *testing.T) {
	vm := NewCPUChip8(MODE_LEGACY_SHIFT)
	err := vm.LoadProgram(t.TempDir() + "/missing.ch8")
	assert.True(t, errors.Is(err, ErrRomUnreadable))
}

func TestChip8Load_EmptyROMRuns(t *testing.T) {
	vm := NewCPUChip8(MODE_LEGACY_SHIFT)
	assert.NoError(t, vm.Load(nil))
	assert.Equal(t, STATE_RUNNING, vm.State())
}

func TestChip8_ClearScreen(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x00E0, 0x00E0)
	vm.Display.Cells[5] = true
	vm.Display.Cells[DISPLAY_CELLS-1] = true

	assert.NoError(t, vm.Step())
	assert.Equal(t, [DISPLAY_CELLS]bool{}, vm.ReadDisplay())
	assert.True(t, vm.DrawPending())

	vm.ClearDrawPending()
	assert.NoError(t, vm.Step())
	assert.Equal(t, [DISPLAY_CELLS]bool{}, vm.ReadDisplay())
	assert.True(t, vm.DrawPending())
}

func TestChip8_AddWithCarry(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6005, 0x6103, 0x8014)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(8), vm.V[0])
	assert.Equal(t, uint8(0), vm.V[0xF])

	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0x600A, 0x61FF, 0x8014)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(9), vm.V[0])
	assert.Equal(t, uint8(1), vm.V[0xF])
}

func TestChip8_SkipIfEqualImmediate(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6005, 0x3005)
	stepN(t, vm, 2)
	assert.Equal(t, uint16(CHIP8_PROG_START+2+4), vm.PC)

	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0x6005, 0x3006)
	stepN(t, vm, 2)
	assert.Equal(t, uint16(CHIP8_PROG_START+2+2), vm.PC)
}

func TestChip8_SkipFamilies(t *testing.T) {
	tests := []struct {
		name string
		ops  []uint16
		skip bool
	}{
		{"4XNN differs", []uint16{0x6005, 0x4006}, true},
		{"4XNN equal", []uint16{0x6005, 0x4005}, false},
		{"5XY0 equal", []uint16{0x6007, 0x6107, 0x5010}, true},
		{"5XY0 differs", []uint16{0x6007, 0x6108, 0x5010}, false},
		{"9XY0 differs", []uint16{0x6007, 0x6108, 0x9010}, true},
		{"9XY0 equal", []uint16{0x6007, 0x6107, 0x9010}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, MODE_LEGACY_SHIFT, tt.ops...)
			stepN(t, vm, len(tt.ops))
			want := uint16(CHIP8_PROG_START + 2*len(tt.ops))
			if tt.skip {
				want += 2
			}
			assert.Equal(t, want, vm.PC)
		})
	}
}

func TestChip8_DrawSpriteXORAndCollision(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xA300, 0x6000, 0x6100, 0xD011, 0xD011)
	vm.Memory[0x300] = 0xFF

	stepN(t, vm, 4)
	for x := 0; x < 8; x++ {
		assert.True(t, vm.Display.Cells[x])
	}
	assert.False(t, vm.Display.Cells[8])
	assert.Equal(t, uint8(0), vm.V[0xF])

	assert.NoError(t, vm.Step())
	for x := 0; x < 8; x++ {
		assert.False(t, vm.Display.Cells[x])
	}
	assert.Equal(t, uint8(1), vm.V[0xF])
}

func TestChip8_DrawWrapsAnchorAndClipsEdges(t *testing.T) {
	// V0 = 70 (anchor x = 6), V1 = 31 (last row), two rows tall.
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xA300, 0x6046, 0x611F, 0xD012)
	vm.Memory[0x300] = 0xFF
	vm.Memory[0x301] = 0xFF
	stepN(t, vm, 4)

	for x := 6; x < 14; x++ {
		assert.True(t, vm.Display.Pixel(x, 31))
	}
	// Second row would be y = 32: clipped, not wrapped to row 0.
	for x := 0; x < DISPLAY_WIDTH; x++ {
		assert.False(t, vm.Display.Pixel(x, 0))
	}

	// Right edge: anchor x = 60 draws only 4 columns.
	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0xA300, 0x603C, 0x6100, 0xD011)
	vm.Memory[0x300] = 0xFF
	stepN(t, vm, 4)
	for x := 60; x < 64; x++ {
		assert.True(t, vm.Display.Pixel(x, 0))
	}
	for x := 0; x < 4; x++ {
		assert.False(t, vm.Display.Pixel(x, 0))
	}
}

func TestChip8_DrawIntoVF(t *testing.T) {
	// VF used as a coordinate: the flag overwrites it after drawing.
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xA300, 0x6F05, 0xDFF1)
	vm.Memory[0x300] = 0x80
	stepN(t, vm, 3)
	assert.True(t, vm.Display.Pixel(5, 5))
	assert.Equal(t, uint8(0), vm.V[0xF])
}

func TestChip8_ShiftQuirk(t *testing.T) {
	// Legacy: VX = VY >> 1, VX's prior value is ignored.
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6000, 0x6106, 0x8016)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(3), vm.V[0])
	assert.Equal(t, uint8(0), vm.V[0xF])

	// Modern: VX >>= 1, VY ignored.
	vm = newTestVM(t, MODE_MODERN_SHIFT, 0x6006, 0x61FF, 0x8016)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(3), vm.V[0])
	assert.Equal(t, uint8(0), vm.V[0xF])

	// Same registers, different modes, different results.
	legacy := newTestVM(t, MODE_LEGACY_SHIFT, 0x6006, 0x6105, 0x8016)
	modern := newTestVM(t, MODE_MODERN_SHIFT, 0x6006, 0x6105, 0x8016)
	stepN(t, legacy, 3)
	stepN(t, modern, 3)
	assert.Equal(t, uint8(2), legacy.V[0])
	assert.Equal(t, uint8(1), legacy.V[0xF])
	assert.Equal(t, uint8(3), modern.V[0])
	assert.Equal(t, uint8(0), modern.V[0xF])
}

func TestChip8_ShiftLeft(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6001, 0x6181, 0x801E)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(0x02), vm.V[0])
	assert.Equal(t, uint8(1), vm.V[0xF])

	vm = newTestVM(t, MODE_MODERN_SHIFT, 0x6041, 0x61FF, 0x801E)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(0x82), vm.V[0])
	assert.Equal(t, uint8(0), vm.V[0xF])
}

func TestChip8_ALUFamily(t *testing.T) {
	tests := []struct {
		name    string
		op      uint16
		vx, vy  byte
		wantVX  byte
		wantVF  byte
		checkVF bool
	}{
		{"8XY0 load", 0x8010, 1, 0x5A, 0x5A, 0, false},
		{"8XY1 or", 0x8011, 0xF0, 0x0F, 0xFF, 0, false},
		{"8XY2 and", 0x8012, 0xF3, 0x3F, 0x33, 0, false},
		{"8XY3 xor", 0x8013, 0xFF, 0x0F, 0xF0, 0, false},
		{"8XY5 no borrow", 0x8015, 10, 3, 7, 1, true},
		{"8XY5 equal", 0x8015, 3, 3, 0, 1, true},
		{"8XY5 borrow", 0x8015, 3, 10, 249, 0, true},
		{"8XY7 no borrow", 0x8017, 3, 10, 7, 1, true},
		{"8XY7 borrow", 0x8017, 10, 3, 249, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := newTestVM(t, MODE_LEGACY_SHIFT, tt.op)
			vm.V[0] = tt.vx
			vm.V[1] = tt.vy
			vm.V[0xF] = 0xAA
			stepN(t, vm, 1)
			assert.Equal(t, tt.wantVX, vm.V[0])
			if tt.checkVF {
				assert.Equal(t, tt.wantVF, vm.V[0xF])
			} else {
				assert.Equal(t, uint8(0xAA), vm.V[0xF])
			}
		})
	}
}

func TestChip8_FlagWrittenLastWhenXIsF(t *testing.T) {
	// 8FY4 with overflow: VF ends as the carry, not the sum.
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6FFF, 0x6102, 0x8F14)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(1), vm.V[0xF])

	// 8FY5 without borrow: VF = 1.
	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0x6F05, 0x6102, 0x8F15)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(1), vm.V[0xF])
}

func TestChip8_AddImmediateWrapsWithoutFlag(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x60FF, 0x7002)
	vm.V[0xF] = 0x33
	stepN(t, vm, 2)
	assert.Equal(t, uint8(1), vm.V[0])
	assert.Equal(t, uint8(0x33), vm.V[0xF])
}

func TestChip8_JumpCallReturn(t *testing.T) {
	// 200: CALL 206; 202: JP 202; 204: -; 206: LD V0,7; 208: RET
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x2206, 0x1202, 0x0000, 0x6007, 0x00EE)
	stepN(t, vm, 1)
	assert.Equal(t, uint16(0x206), vm.PC)
	assert.Equal(t, 1, vm.Stack.Depth())
	stepN(t, vm, 2)
	assert.Equal(t, uint16(0x202), vm.PC)
	assert.Equal(t, 0, vm.Stack.Depth())
	assert.Equal(t, uint8(7), vm.V[0])
	stepN(t, vm, 1)
	assert.Equal(t, uint16(0x202), vm.PC)
}

func TestChip8_StackOverflowHalts(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x2200) // calls itself forever
	for i := 0; i < CHIP8_STACK_DEPTH; i++ {
		assert.NoError(t, vm.Step())
	}
	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackOverflow))
	assert.Equal(t, STATE_HALTED, vm.State())
	assert.Equal(t, CHIP8_STACK_DEPTH, vm.Stack.Depth())

	// Halted VM ignores further steps.
	assert.NoError(t, vm.Step())
}

func TestChip8_StackUnderflowHalts(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x00EE)
	err := vm.Step()
	assert.True(t, errors.Is(err, ErrStackUnderflow))
	assert.True(t, strings.Contains(err.Error(), "00EE"))
	assert.Equal(t, STATE_HALTED, vm.State())
}

func TestChip8_UnknownOpcodeIsNoOp(t *testing.T) {
	for _, op := range []uint16{0x0123, 0x5121, 0x8018, 0x9011, 0xE0FF, 0xF0FF} {
		vm := newTestVM(t, MODE_LEGACY_SHIFT, op)
		regs, index, mem := vm.V, vm.I, vm.Memory
		assert.NoError(t, vm.Step())
		assert.Equal(t, uint16(CHIP8_PROG_START+2), vm.PC)
		assert.Equal(t, regs, vm.V)
		assert.Equal(t, index, vm.I)
		assert.True(t, mem == vm.Memory)
	}
}

func TestChip8_JumpWithOffset(t *testing.T) {
	// Legacy: PC = NNN + V0.
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6004, 0x6310, 0xB300)
	stepN(t, vm, 3)
	assert.Equal(t, uint16(0x304), vm.PC)

	// Modern: PC = NNN + VX, X being the high nibble of NNN.
	vm = newTestVM(t, MODE_MODERN_SHIFT, 0x6004, 0x6310, 0xB300)
	stepN(t, vm, 3)
	assert.Equal(t, uint16(0x310), vm.PC)
}

func TestChip8_AddToIndex(t *testing.T) {
	// Legacy never touches VF.
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xAFFF, 0x6002, 0x6F55, 0xF01E)
	stepN(t, vm, 4)
	assert.Equal(t, uint16(0x1001), vm.I)
	assert.Equal(t, uint8(0x55), vm.V[0xF])

	// Modern flags overflow past 12 bits.
	vm = newTestVM(t, MODE_MODERN_SHIFT, 0xAFFF, 0x6002, 0xF01E)
	stepN(t, vm, 3)
	assert.Equal(t, uint16(0x1001), vm.I)
	assert.Equal(t, uint8(1), vm.V[0xF])

	vm = newTestVM(t, MODE_MODERN_SHIFT, 0xA100, 0x6002, 0x6F09, 0xF01E)
	stepN(t, vm, 4)
	assert.Equal(t, uint16(0x102), vm.I)
	assert.Equal(t, uint8(0), vm.V[0xF])

	// I already far past 12 bits; the 16-bit carry must not hide the flag.
	vm = newTestVM(t, MODE_MODERN_SHIFT, 0x6020, 0xF01E)
	vm.I = 0xFFF0
	stepN(t, vm, 2)
	assert.Equal(t, uint16(0x0010), vm.I)
	assert.Equal(t, uint8(1), vm.V[0xF])

	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0x6020, 0x6F07, 0xF01E)
	vm.I = 0xFFF0
	stepN(t, vm, 3)
	assert.Equal(t, uint16(0x0010), vm.I)
	assert.Equal(t, uint8(7), vm.V[0xF])
}

func TestChip8_IndexIsNotMaskedButMemoryIs(t *testing.T) {
	// I = 0x1001 after FX1E; FX33 writes at 0x001..0x003.
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xAFFF, 0x6002, 0xF01E, 0x60FE, 0xF033)
	stepN(t, vm, 5)
	assert.Equal(t, uint16(0x1001), vm.I)
	assert.Equal(t, uint8(2), vm.Memory[0x001])
	assert.Equal(t, uint8(5), vm.Memory[0x002])
	assert.Equal(t, uint8(4), vm.Memory[0x003])
}

func TestChip8_BCD(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xA300, 0x6089, 0xF033)
	stepN(t, vm, 3)
	assert.Equal(t, uint8(1), vm.Memory[0x300])
	assert.Equal(t, uint8(3), vm.Memory[0x301])
	assert.Equal(t, uint8(7), vm.Memory[0x302])
	assert.Equal(t, uint16(0x300), vm.I)
}

func TestChip8_StoreLoadIndexQuirk(t *testing.T) {
	ops := []uint16{0xA300, 0x6011, 0x6122, 0x6233, 0xF255}

	legacy := newTestVM(t, MODE_LEGACY_SHIFT, ops...)
	stepN(t, legacy, len(ops))
	assert.True(t, bytes.Equal([]byte{0x11, 0x22, 0x33}, legacy.Memory[0x300:0x303]))
	assert.Equal(t, uint8(0), legacy.Memory[0x303])
	assert.Equal(t, uint16(0x303), legacy.I)

	modern := newTestVM(t, MODE_MODERN_SHIFT, ops...)
	stepN(t, modern, len(ops))
	assert.True(t, bytes.Equal([]byte{0x11, 0x22, 0x33}, modern.Memory[0x300:0x303]))
	assert.Equal(t, uint16(0x300), modern.I)

	load := newTestVM(t, MODE_LEGACY_SHIFT, 0xA300, 0xF165)
	load.Memory[0x300] = 0xAB
	load.Memory[0x301] = 0xCD
	load.Memory[0x302] = 0xEF
	stepN(t, load, 2)
	assert.Equal(t, uint8(0xAB), load.V[0])
	assert.Equal(t, uint8(0xCD), load.V[1])
	assert.Equal(t, uint8(0), load.V[2])
	assert.Equal(t, uint16(0x302), load.I)

	load = newTestVM(t, MODE_MODERN_SHIFT, 0xA300, 0xF165)
	load.Memory[0x300] = 0xAB
	stepN(t, load, 2)
	assert.Equal(t, uint8(0xAB), load.V[0])
	assert.Equal(t, uint16(0x300), load.I)
}

func TestChip8_FontGlyphAddress(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x600A, 0xF029)
	stepN(t, vm, 2)
	assert.Equal(t, uint16(50), vm.I)
	assert.Equal(t, uint8(0xF0), vm.Memory[vm.I])
}

func TestChip8_RandomMasked(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xC00F, 0xC100)
	stepN(t, vm, 2)
	assert.Equal(t, uint8(0), vm.V[0]&0xF0)
	assert.Equal(t, uint8(0), vm.V[1])

	a := newTestVM(t, MODE_LEGACY_SHIFT, 0xC0FF)
	b := newTestVM(t, MODE_LEGACY_SHIFT, 0xC0FF)
	stepN(t, a, 1)
	stepN(t, b, 1)
	assert.Equal(t, a.V[0], b.V[0])
}

func TestChip8_KeySkips(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x6005, 0xE09E)
	vm.SetKey(5, true)
	stepN(t, vm, 2)
	assert.Equal(t, uint16(0x206), vm.PC)

	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0x6005, 0xE0A1)
	vm.SetKey(5, true)
	stepN(t, vm, 2)
	assert.Equal(t, uint16(0x204), vm.PC)

	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0x6005, 0xE0A1)
	stepN(t, vm, 2)
	assert.Equal(t, uint16(0x206), vm.PC)
}

func TestChip8_WaitForKey(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xF30A, 0x6001)
	for i := 0; i < 5; i++ {
		assert.NoError(t, vm.Step())
		assert.Equal(t, uint16(CHIP8_PROG_START), vm.PC)
	}

	vm.SetKey(0xC, true)
	vm.SetKey(0x9, true)
	assert.NoError(t, vm.Step())
	assert.Equal(t, uint8(0x9), vm.V[3])
	assert.Equal(t, uint16(CHIP8_PROG_START+2), vm.PC)
}

func TestChip8_Timers(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x603C, 0xF015, 0xF018)
	stepN(t, vm, 3)
	assert.True(t, vm.SoundActive())

	for i := 0; i < 60; i++ {
		vm.TickTimers()
	}
	assert.Equal(t, uint8(0), vm.DelayTimer)
	assert.Equal(t, uint8(0), vm.SoundTimer)
	assert.False(t, vm.SoundActive())

	vm.TickTimers()
	assert.Equal(t, uint8(0), vm.DelayTimer)

	vm = newTestVM(t, MODE_LEGACY_SHIFT, 0x6007, 0xF015, 0xF107)
	stepN(t, vm, 2)
	vm.TickTimers()
	vm.TickTimers()
	stepN(t, vm, 1)
	assert.Equal(t, uint8(5), vm.V[1])
}

func TestChip8_ResetRestoresLoadedState(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0xA300, 0x6042, 0xF055, 0x2208, 0x1208)
	stepN(t, vm, 4)
	vm.SetKey(3, true)
	vm.DelayTimer = 9
	vm.Display.Cells[100] = true
	assert.Equal(t, uint8(0x42), vm.Memory[0x300])

	assert.True(t, vm.Pause())
	vm.Reset()

	assert.Equal(t, STATE_RUNNING, vm.State())
	assert.Equal(t, uint16(CHIP8_PROG_START), vm.PC)
	assert.Equal(t, uint16(0), vm.I)
	assert.Equal(t, [CHIP8_NUM_REGS]byte{}, vm.V)
	assert.Equal(t, 0, vm.Stack.Depth())
	assert.Equal(t, uint8(0), vm.DelayTimer)
	assert.False(t, vm.Keypad.IsDown(3))
	assert.Equal(t, [DISPLAY_CELLS]bool{}, vm.ReadDisplay())
	assert.Equal(t, uint8(0), vm.Memory[0x300])
	assert.Equal(t, uint8(0xA3), vm.Memory[CHIP8_PROG_START])
	assert.Equal(t, uint64(0), vm.Cycles())
}

func TestChip8_ResetUnloadedStaysUninitialized(t *testing.T) {
	vm := NewCPUChip8(MODE_LEGACY_SHIFT)
	vm.Reset()
	assert.Equal(t, STATE_UNINITIALIZED, vm.State())
	assert.NoError(t, vm.Step())
	assert.Equal(t, uint16(CHIP8_PROG_START), vm.PC)
}

func TestChip8_Lifecycle(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x1200)
	assert.True(t, vm.Pause())
	assert.False(t, vm.Pause())
	assert.Equal(t, STATE_PAUSED, vm.State())

	pc := vm.PC
	vm.PC = 0x300
	assert.NoError(t, vm.Step())
	assert.Equal(t, uint16(0x300), vm.PC)
	vm.PC = pc

	assert.True(t, vm.Resume())
	assert.False(t, vm.Resume())
	stepN(t, vm, 1)
	assert.Equal(t, uint64(1), vm.Cycles())

	vm.Halt()
	assert.Equal(t, STATE_HALTED, vm.State())
	assert.False(t, vm.Resume())
	assert.NoError(t, vm.Step())
	assert.Equal(t, uint64(1), vm.Cycles())
}

func TestChip8_FetchWrapsAtTopOfMemory(t *testing.T) {
	vm := newTestVM(t, MODE_LEGACY_SHIFT, 0x1FFF)
	stepN(t, vm, 1)
	assert.Equal(t, uint16(0xFFF), vm.PC)
	vm.Memory[0xFFF] = 0x60
	vm.Memory[0x000] = 0x99
	assert.NoError(t, vm.StepOne())
	assert.Equal(t, uint8(0x99), vm.V[0])
}

func TestChip8_TraceWritesDisassembly(t *testing.T) {
	var buf bytes.Buffer
	vm := NewCPUChip8(MODE_LEGACY_SHIFT, WithTrace(&buf))
	assert.NoError(t, vm.Load(romOf(0x6A12, 0x00E0)))
	stepN(t, vm, 2)
	assert.Equal(t, "200  6A12  LD   VA, #12\n202  00E0  CLS\n", buf.String())
}

func TestChip8_SharedKeypad(t *testing.T) {
	pad := &Chip8Keypad{}
	vm := NewCPUChip8(MODE_LEGACY_SHIFT, WithKeypad(pad))
	pad.Set(7, true)
	assert.True(t, vm.Keypad.IsDown(7))
}
