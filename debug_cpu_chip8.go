// debug_cpu_chip8.go - CHIP-8 debug adapter for the Machine Monitor

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
	"sort"
	"strings"
	"sync"
)

type DebugChip8 struct {
	runner *Chip8Runner
	cpu    *CPUChip8

	bpMu        sync.RWMutex
	breakpoints map[uint64]bool
	bpChan      chan<- BreakpointEvent
	cpuID       int

	lastErr error
}

// NewDebugChip8 attaches to runner. The runner must not be executing yet.
func NewDebugChip8(runner *Chip8Runner) *DebugChip8 {
	d := &DebugChip8{
		runner:      runner,
		cpu:         runner.CPU(),
		breakpoints: make(map[uint64]bool),
	}
	runner.SetBreakCheck(d.trap)
	return d
}

func (d *DebugChip8) CPUName() string   { return "CHIP-8" }
func (d *DebugChip8) AddressWidth() int { return 12 }

func (d *DebugChip8) GetRegisters() []RegisterInfo {
	regs := make([]RegisterInfo, 0, CHIP8_NUM_REGS+5)
	for i, v := range d.cpu.V {
		regs = append(regs, RegisterInfo{Name: fmt.Sprintf("V%X", i), BitWidth: 8, Value: uint64(v), Group: "general"})
	}
	regs = append(regs,
		RegisterInfo{Name: "I", BitWidth: 16, Value: uint64(d.cpu.I), Group: "index"},
		RegisterInfo{Name: "PC", BitWidth: 16, Value: uint64(d.cpu.PC), Group: "index"},
		RegisterInfo{Name: "SP", BitWidth: 8, Value: uint64(d.cpu.Stack.Depth()), Group: "stack"},
		RegisterInfo{Name: "DT", BitWidth: 8, Value: uint64(d.cpu.DelayTimer), Group: "timer"},
		RegisterInfo{Name: "ST", BitWidth: 8, Value: uint64(d.cpu.SoundTimer), Group: "timer"},
	)
	return regs
}

// vIndex maps "V0".."VF" to a register index.
func vIndex(name string) (int, bool) {
	if len(name) != 2 || name[0] != 'V' {
		return 0, false
	}
	c := name[1]
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0'), true
	case c >= 'A' && c <= 'F':
		return int(c-'A') + 10, true
	}
	return 0, false
}

func (d *DebugChip8) GetRegister(name string) (uint64, bool) {
	upper := strings.ToUpper(name)
	if i, ok := vIndex(upper); ok {
		return uint64(d.cpu.V[i]), true
	}
	switch upper {
	case "I":
		return uint64(d.cpu.I), true
	case "PC":
		return uint64(d.cpu.PC), true
	case "SP":
		return uint64(d.cpu.Stack.Depth()), true
	case "DT":
		return uint64(d.cpu.DelayTimer), true
	case "ST":
		return uint64(d.cpu.SoundTimer), true
	}
	return 0, false
}

// SetRegister writes a register. SP is read-only; the stack is changed
// only by CALL and RET.
func (d *DebugChip8) SetRegister(name string, value uint64) bool {
	upper := strings.ToUpper(name)
	if i, ok := vIndex(upper); ok {
		d.cpu.V[i] = byte(value)
		return true
	}
	switch upper {
	case "I":
		d.cpu.I = uint16(value)
	case "PC":
		d.cpu.PC = uint16(value)
	case "DT":
		d.cpu.DelayTimer = byte(value)
	case "ST":
		d.cpu.SoundTimer = byte(value)
	default:
		return false
	}
	return true
}

func (d *DebugChip8) GetPC() uint64     { return uint64(d.cpu.PC) }
func (d *DebugChip8) SetPC(addr uint64) { d.cpu.PC = uint16(addr) }

func (d *DebugChip8) IsRunning() bool {
	return d.runner.IsExecuting() && d.cpu.IsRunning()
}

// Freeze stops the scheduler goroutine. VM state is left as is.
func (d *DebugChip8) Freeze() {
	d.runner.Stop()
}

// Resume restarts the scheduler. When parked on a breakpoint the
// instruction under it is executed first so the trap does not refire.
func (d *DebugChip8) Resume() {
	if d.cpu.State() == STATE_HALTED {
		return
	}
	if d.HasBreakpoint(uint64(d.cpu.PC)) {
		d.Step()
	}
	d.cpu.Resume()
	d.runner.StartExecution()
}

// trap runs on the scheduler goroutine before each instruction.
func (d *DebugChip8) trap(pc uint16) bool {
	d.bpMu.RLock()
	hit := d.breakpoints[uint64(pc)]
	ch := d.bpChan
	d.bpMu.RUnlock()
	if !hit {
		return false
	}
	if ch != nil {
		select {
		case ch <- BreakpointEvent{CPUID: d.cpuID, Address: uint64(pc)}:
		default:
		}
	}
	return true
}

// Step executes a single instruction on a frozen machine. A stack fault
// halts the VM; it is kept for LastError and 0 is returned.
func (d *DebugChip8) Step() int {
	if d.cpu.State() == STATE_HALTED {
		return 0
	}
	if err := d.cpu.StepOne(); err != nil {
		d.lastErr = err
		return 0
	}
	return 1
}

func (d *DebugChip8) LastError() error {
	return d.lastErr
}

func (d *DebugChip8) Disassemble(addr uint64, count int) []DisassembledLine {
	pc := uint64(d.cpu.PC & CHIP8_ADDR_MASK)
	lines := disassembleChip8(d.ReadMemory, addr, count, d.cpu.Mode)
	for i := range lines {
		if lines[i].Address == pc {
			lines[i].IsPC = true
		}
	}
	return lines
}

func (d *DebugChip8) SetBreakpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.breakpoints[addr&CHIP8_ADDR_MASK] = true
	return true
}

func (d *DebugChip8) ClearBreakpoint(addr uint64) bool {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	addr &= CHIP8_ADDR_MASK
	if !d.breakpoints[addr] {
		return false
	}
	delete(d.breakpoints, addr)
	return true
}

func (d *DebugChip8) ClearAllBreakpoints() {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.breakpoints = make(map[uint64]bool)
}

func (d *DebugChip8) ListBreakpoints() []uint64 {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	result := make([]uint64, 0, len(d.breakpoints))
	for addr := range d.breakpoints {
		result = append(result, addr)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

func (d *DebugChip8) HasBreakpoint(addr uint64) bool {
	d.bpMu.RLock()
	defer d.bpMu.RUnlock()
	return d.breakpoints[addr&CHIP8_ADDR_MASK]
}

// ReadMemory wraps around the 4K address space.
func (d *DebugChip8) ReadMemory(addr uint64, size int) []byte {
	result := make([]byte, size)
	for i := range result {
		result[i] = d.cpu.Memory[(addr+uint64(i))&CHIP8_ADDR_MASK]
	}
	return result
}

func (d *DebugChip8) WriteMemory(addr uint64, data []byte) {
	for i, b := range data {
		d.cpu.Memory[(addr+uint64(i))&CHIP8_ADDR_MASK] = b
	}
}

func (d *DebugChip8) SetBreakpointChannel(ch chan<- BreakpointEvent, cpuID int) {
	d.bpMu.Lock()
	defer d.bpMu.Unlock()
	d.bpChan = ch
	d.cpuID = cpuID
}

// Reset restores the loaded ROM. Only valid while frozen.
func (d *DebugChip8) Reset() {
	d.lastErr = nil
	d.runner.hardReset()
}

// Quit halts the VM and stops the scheduler.
func (d *DebugChip8) Quit() {
	d.cpu.Halt()
	d.runner.Stop()
}
