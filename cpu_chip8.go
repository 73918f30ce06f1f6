// cpu_chip8.go - CHIP-8 virtual machine core

/*
 ██▓ ███▄    █ ▄▄▄█████▓ █    ██  ██▓▄▄▄█████▓ ██▓ ▒█████   ███▄    █    ▓█████  ███▄    █   ▄████  ██▓ ███▄    █ ▓█████
▓██▒ ██ ▀█   █ ▓  ██▒ ▓▒ ██  ▓██▒▓██▒▓  ██▒ ▓▒▓██▒▒██▒  ██▒ ██ ▀█   █    ▓█   ▀  ██ ▀█   █  ██▒ ▀█▒▓██▒ ██ ▀█   █ ▓█   ▀
▒██▒▓██  ▀█ ██▒▒ ▓██░ ▒░▓██  ▒██░▒██▒▒ ▓██░ ▒░▒██▒▒██░  ██▒▓██  ▀█ ██▒   ▒███   ▓██  ▀█ ██▒▒██░▄▄▄░▒██▒▓██  ▀█ ██▒▒███
░██░▓██▒  ▐▌██▒░ ▓██▓ ░ ▓▓█  ░██░░██░░ ▓██▓ ░ ░██░▒██   ██░▓██▒  ▐▌██▒   ▒▓█  ▄ ▓██▒  ▐▌██▒░▓█  ██▓░██░▓██▒  ▐▌██▒▒▓█  ▄
░██░▒██░   ▓██░  ▒██▒ ░ ▒▒█████▓ ░██░  ▒██▒ ░ ░██░░ ████▓▒░▒██░   ▓██░   ░▒████▒▒██░   ▓██░░▒▓███▀▒░██░▒██░   ▓██░░▒████▒
░▓  ░ ▒░   ▒ ▒   ▒ ░░   ░▒▓▒ ▒ ▒ ░▓    ▒ ░░   ░▓  ░ ▒░▒░▒░ ░ ▒░   ▒ ▒    ░░ ▒░ ░░ ▒░   ▒ ▒  ░▒   ▒ ░▓  ░ ▒░   ▒ ▒ ░░ ▒░ ░
 ▒ ░░ ░░   ░ ▒░    ░    ░░▒░ ░ ░  ▒ ░    ░     ▒ ░  ░ ▒ ▒░ ░ ░░   ░ ▒░    ░ ░  ░░ ░░   ░ ▒░  ░   ░  ▒ ░░ ░░   ░ ▒░ ░ ░  ░
 ▒ ░   ░   ░ ░   ░       ░░░ ░ ░  ▒ ░  ░       ▒ ░░ ░ ░ ▒     ░   ░ ░       ░      ░   ░ ░ ░ ░   ░  ▒ ░   ░   ░ ░    ░
 ░           ░             ░      ░            ░      ░ ░           ░       ░  ░         ░       ░  ░           ░    ░  ░

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/IntuitionChip8
License: GPLv3 or later
*/

package main

import (
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"sync/atomic"
)

// CPUChip8 is the CHIP-8 virtual machine: memory, register file, call
// stack, framebuffer, timers and a reference to the shared keypad.
//
// Only one goroutine may call Step/TickTimers/Reset at a time. The keypad
// and the lifecycle state are the only fields touched from other
// goroutines.
type CPUChip8 struct {
	Memory [CHIP8_MEMORY_SIZE]byte
	V      [CHIP8_NUM_REGS]byte
	I      uint16
	PC     uint16

	Stack   Chip8Stack
	Display Chip8Display
	Keypad  *Chip8Keypad

	DelayTimer byte
	SoundTimer byte

	Mode Chip8Mode

	state  atomic.Int32
	cycles atomic.Uint64

	image   [CHIP8_MEMORY_SIZE]byte // memory as it stood right after Load
	romSize int
	loaded  bool

	randByte func() byte
	trace    io.Writer
}

// Chip8Option configures a VM at construction time.
type Chip8Option func(*CPUChip8)

// WithKeypad shares a keypad owned by the input side.
func WithKeypad(k *Chip8Keypad) Chip8Option {
	return func(c *CPUChip8) {
		if k != nil {
			c.Keypad = k
		}
	}
}

// WithRandSource makes CXNN deterministic.
func WithRandSource(src rand.Source) Chip8Option {
	return func(c *CPUChip8) {
		r := rand.New(src)
		c.randByte = func() byte { return byte(r.Uint32()) }
	}
}

// WithTrace writes one disassembled line per executed instruction.
func WithTrace(w io.Writer) Chip8Option {
	return func(c *CPUChip8) {
		c.trace = w
	}
}

func NewCPUChip8(mode Chip8Mode, opts ...Chip8Option) *CPUChip8 {
	c := &CPUChip8{
		Mode:     mode,
		Keypad:   &Chip8Keypad{},
		randByte: func() byte { return byte(rand.Uint32()) },
	}
	for _, opt := range opts {
		opt(c)
	}
	copy(c.image[CHIP8_FONT_START:], chip8Font[:])
	c.Memory = c.image
	c.PC = CHIP8_PROG_START
	return c
}

// Load validates and installs a ROM at 0x200, then resets the machine
// into the running state. On error nothing is modified.
func (c *CPUChip8) Load(rom []byte) error {
	if len(rom) > CHIP8_MAX_ROM_SIZE {
		return &Chip8Error{
			Operation: "load",
			Details:   fmt.Sprintf("%d bytes exceeds the %d byte program area", len(rom), CHIP8_MAX_ROM_SIZE),
			Err:       ErrRomTooLarge,
		}
	}

	var img [CHIP8_MEMORY_SIZE]byte
	copy(img[CHIP8_FONT_START:], chip8Font[:])
	copy(img[CHIP8_PROG_START:], rom)
	c.image = img
	c.romSize = len(rom)
	c.loaded = true

	c.Reset()
	return nil
}

// LoadFrom reads a whole ROM from r. At most one byte past the program
// area is consumed so oversized streams are still rejected as too large.
func (c *CPUChip8) LoadFrom(r io.Reader) error {
	rom, err := io.ReadAll(io.LimitReader(r, CHIP8_MAX_ROM_SIZE+1))
	if err != nil {
		return &Chip8Error{Operation: "load", Details: err.Error(), Err: ErrRomUnreadable}
	}
	return c.Load(rom)
}

func (c *CPUChip8) LoadProgram(filename string) error {
	f, err := os.Open(filename)
	if err != nil {
		return &Chip8Error{Operation: "load", Details: err.Error(), Err: ErrRomUnreadable}
	}
	defer f.Close()
	return c.LoadFrom(f)
}

// Reset restores the just-loaded machine without touching the ROM source.
// An unloaded VM stays uninitialized.
func (c *CPUChip8) Reset() {
	c.Memory = c.image
	c.V = [CHIP8_NUM_REGS]byte{}
	c.I = 0
	c.PC = CHIP8_PROG_START
	c.Stack.Reset()
	c.Display.Clear()
	c.DelayTimer = 0
	c.SoundTimer = 0
	c.Keypad.ReleaseAll()
	c.cycles.Store(0)

	if c.loaded {
		c.state.Store(int32(STATE_RUNNING))
	}
}

// Loaded reports whether a ROM image is resident.
func (c *CPUChip8) Loaded() bool {
	return c.loaded
}

func (c *CPUChip8) RomSize() int {
	return c.romSize
}

// Step executes one instruction if the VM is running. A stack fault halts
// the VM and is returned wrapped in a *Chip8Error.
func (c *CPUChip8) Step() error {
	if c.State() != STATE_RUNNING {
		return nil
	}
	return c.StepOne()
}

// StepOne executes one instruction regardless of the lifecycle state.
// The monitor uses it to single-step a frozen machine.
func (c *CPUChip8) StepOne() error {
	pc := c.PC
	op := c.fetch()
	if c.trace != nil {
		fmt.Fprintf(c.trace, "%03X  %04X  %s\n", pc&CHIP8_ADDR_MASK, op, disassembleChip8Opcode(op, c.Mode))
	}
	c.PC += CHIP8_OPCODE_SIZE

	if err := c.execute(op); err != nil {
		c.state.Store(int32(STATE_HALTED))
		return &Chip8Error{
			Operation: "step",
			Details:   fmt.Sprintf("opcode %04X at %03X", op, pc),
			Err:       err,
		}
	}
	c.cycles.Add(1)
	return nil
}

func (c *CPUChip8) fetch() uint16 {
	hi := c.Memory[c.PC&CHIP8_ADDR_MASK]
	lo := c.Memory[(c.PC+1)&CHIP8_ADDR_MASK]
	return uint16(hi)<<8 | uint16(lo)
}

// TickTimers is the 60Hz timer decrement.
func (c *CPUChip8) TickTimers() {
	if c.DelayTimer > 0 {
		c.DelayTimer--
	}
	if c.SoundTimer > 0 {
		c.SoundTimer--
	}
}

func (c *CPUChip8) SoundActive() bool {
	return c.SoundTimer > 0
}

func (c *CPUChip8) SetKey(index int, down bool) {
	c.Keypad.Set(index, down)
}

// ReadDisplay returns a copy of the framebuffer.
func (c *CPUChip8) ReadDisplay() [DISPLAY_CELLS]bool {
	return c.Display.Cells
}

func (c *CPUChip8) DrawPending() bool {
	return c.Display.DrawPending()
}

func (c *CPUChip8) ClearDrawPending() {
	c.Display.ClearDrawPending()
}

func (c *CPUChip8) Cycles() uint64 {
	return c.cycles.Load()
}

func (c *CPUChip8) State() Chip8State {
	return Chip8State(c.state.Load())
}

func (c *CPUChip8) IsRunning() bool {
	return c.State() == STATE_RUNNING
}

func (c *CPUChip8) Pause() bool {
	return c.state.CompareAndSwap(int32(STATE_RUNNING), int32(STATE_PAUSED))
}

func (c *CPUChip8) Resume() bool {
	return c.state.CompareAndSwap(int32(STATE_PAUSED), int32(STATE_RUNNING))
}

// Halt is honoured at the next step boundary.
func (c *CPUChip8) Halt() {
	c.state.Store(int32(STATE_HALTED))
}

func (c *CPUChip8) readMem(addr uint16) byte {
	return c.Memory[addr&CHIP8_ADDR_MASK]
}

func (c *CPUChip8) writeMem(addr uint16, value byte) {
	c.Memory[addr&CHIP8_ADDR_MASK] = value
}
