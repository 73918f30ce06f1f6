// debug_monitor.go - Machine Monitor core (freeze/resume, line I/O)

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
	"bufio"
	"fmt"
	"io"
	"sync"
)

// MonitorState represents whether the monitor is active.
type MonitorState int

const (
	MonitorInactive MonitorState = iota
	MonitorActive
)

const monitorHistoryMax = 100

// ANSI colours for monitor output. Plain text when colour is off.
const (
	colorWhite = "\x1b[37m"
	colorRed   = "\x1b[31m"
	colorGreen = "\x1b[32m"
	colorCyan  = "\x1b[36m"
	colorDim   = "\x1b[90m"
	colorReset = "\x1b[0m"
)

// machineController is implemented by debug adapters that can reset or
// power off the machine they are attached to.
type machineController interface {
	Reset()
	Quit()
}

// MachineMonitor is a line-oriented debugger attached to one CPU. While
// the monitor is active the CPU is frozen; "g" lets it run again and any
// following input line freezes it.
type MachineMonitor struct {
	mu    sync.Mutex
	state MonitorState

	cpu   DebuggableCPU
	out   io.Writer
	color bool

	breakpointChan chan BreakpointEvent
	listenerDone   chan struct{} // closed when the listener goroutine returns

	history  []string
	prevRegs map[string]uint64 // for change highlighting
	quit     bool
}

// NewMachineMonitor creates a monitor that writes to out.
func NewMachineMonitor(cpu DebuggableCPU, out io.Writer, color bool) *MachineMonitor {
	m := &MachineMonitor{
		state:          MonitorInactive,
		cpu:            cpu,
		out:            out,
		color:          color,
		breakpointChan: make(chan BreakpointEvent, 1),
		prevRegs:       make(map[string]uint64),
	}
	cpu.SetBreakpointChannel(m.breakpointChan, 0)
	return m
}

func (m *MachineMonitor) IsActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state == MonitorActive
}

// Activate freezes the CPU and shows where it stopped.
func (m *MachineMonitor) Activate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activateLocked()
}

func (m *MachineMonitor) activateLocked() {
	if m.state == MonitorActive {
		return
	}
	m.cpu.Freeze()
	m.state = MonitorActive
	m.appendOutput(fmt.Sprintf("%s monitor - frozen at $%03X", m.cpu.CPUName(), m.cpu.GetPC()), colorCyan)
	m.showDisassembly(m.cpu.GetPC(), 1)
	m.saveCurrentRegs()
}

// Deactivate resumes the CPU.
func (m *MachineMonitor) Deactivate() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deactivateLocked()
}

func (m *MachineMonitor) deactivateLocked() {
	if m.state != MonitorActive {
		return
	}
	m.state = MonitorInactive
	m.cpu.Resume()
}

// Run reads commands from in until EOF, "x" or "q". It reports whether
// the user asked to quit the emulator.
func (m *MachineMonitor) Run(in io.Reader) bool {
	stop := m.StartBreakpointListener()
	defer stop()
	m.Activate()

	scanner := bufio.NewScanner(in)
	for {
		m.prompt()
		if !scanner.Scan() {
			break
		}
		m.mu.Lock()
		if m.state != MonitorActive {
			m.activateLocked()
		}
		exit := m.ExecuteCommand(scanner.Text())
		quit := m.quit
		m.mu.Unlock()
		if exit {
			return quit
		}
	}
	return false
}

func (m *MachineMonitor) prompt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == MonitorActive {
		fmt.Fprint(m.out, "> ")
	}
}

// appendOutput writes one line.
func (m *MachineMonitor) appendOutput(text string, color string) {
	if m.color {
		fmt.Fprintf(m.out, "%s%s%s\n", color, text, colorReset)
		return
	}
	fmt.Fprintln(m.out, text)
}

// saveCurrentRegs snapshots the registers for change detection.
func (m *MachineMonitor) saveCurrentRegs() {
	m.prevRegs = make(map[string]uint64)
	for _, r := range m.cpu.GetRegisters() {
		m.prevRegs[r.Name] = r.Value
	}
}

// StartBreakpointListener runs a background goroutine that watches for
// breakpoint events and re-activates the monitor. The returned stop
// function ends the goroutine and waits for it.
func (m *MachineMonitor) StartBreakpointListener() (stop func()) {
	quit := make(chan struct{})
	done := make(chan struct{})
	m.mu.Lock()
	m.listenerDone = done
	m.mu.Unlock()

	go func() {
		defer close(done)
		for {
			select {
			case <-quit:
				return
			case ev := <-m.breakpointChan:
				m.handleBreakpointHit(ev)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			close(quit)
			<-done
		})
	}
}

func (m *MachineMonitor) handleBreakpointHit(ev BreakpointEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == MonitorActive {
		m.appendOutput(fmt.Sprintf("Breakpoint hit at $%03X", ev.Address), colorRed)
		return
	}
	m.appendOutput("", colorWhite)
	m.appendOutput(fmt.Sprintf("Breakpoint hit at $%03X", ev.Address), colorRed)
	m.activateLocked()
	fmt.Fprint(m.out, "> ")
}
