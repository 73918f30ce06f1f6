// debug_commands.go - Command parser and handlers for Machine Monitor

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
	"strconv"
	"strings"
)

// MonitorCommand is a parsed command with name and arguments.
type MonitorCommand struct {
	Name string
	Args []string
}

// ParseCommand splits a raw input line into a command name and arguments.
func ParseCommand(input string) MonitorCommand {
	input = strings.TrimSpace(input)
	if input == "" {
		return MonitorCommand{}
	}
	parts := strings.Fields(input)
	return MonitorCommand{
		Name: strings.ToLower(parts[0]),
		Args: parts[1:],
	}
}

// ParseAddress parses a monitor address in various formats:
// $hex, 0xhex, bare hex, #decimal
func ParseAddress(s string) (uint64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}

	if strings.HasPrefix(s, "#") {
		v, err := strconv.ParseUint(s[1:], 10, 64)
		return v, err == nil
	}
	if strings.HasPrefix(s, "$") {
		v, err := strconv.ParseUint(s[1:], 16, 64)
		return v, err == nil
	}
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		v, err := strconv.ParseUint(s[2:], 16, 64)
		return v, err == nil
	}

	v, err := strconv.ParseUint(s, 16, 64)
	return v, err == nil
}

// EvalAddress accepts a register name (PC, I) or a numeric address.
func EvalAddress(expr string, cpu DebuggableCPU) (uint64, bool) {
	if v, ok := cpu.GetRegister(expr); ok {
		return v, true
	}
	return ParseAddress(expr)
}

// ExecuteCommand runs one command line. It returns true when the monitor
// should exit.
func (m *MachineMonitor) ExecuteCommand(input string) bool {
	cmd := ParseCommand(input)
	if cmd.Name == "" {
		return false
	}

	// !n re-runs history entry n.
	if strings.HasPrefix(cmd.Name, "!") {
		n, err := strconv.Atoi(cmd.Name[1:])
		if err != nil || n < 1 || n > len(m.history) {
			m.appendOutput(fmt.Sprintf("No history entry %s", cmd.Name[1:]), colorRed)
			return false
		}
		input = m.history[n-1]
		m.appendOutput(input, colorDim)
		cmd = ParseCommand(input)
	}

	if len(m.history) == 0 || m.history[len(m.history)-1] != input {
		m.history = append(m.history, input)
		if len(m.history) > monitorHistoryMax {
			m.history = m.history[len(m.history)-monitorHistoryMax:]
		}
	}

	switch cmd.Name {
	case "r":
		return m.cmdRegisters(cmd)
	case "d":
		return m.cmdDisassemble(cmd)
	case "m":
		return m.cmdMemoryDump(cmd)
	case "s":
		return m.cmdStep(cmd)
	case "g":
		return m.cmdGo(cmd)
	case "x":
		return m.cmdExit(cmd)
	case "q":
		return m.cmdQuit(cmd)
	case "b":
		return m.cmdBreakpointSet(cmd)
	case "bc":
		return m.cmdBreakpointClear(cmd)
	case "bl":
		return m.cmdBreakpointList(cmd)
	case "f":
		return m.cmdFill(cmd)
	case "h":
		return m.cmdHunt(cmd)
	case "w":
		return m.cmdWrite(cmd)
	case "reset":
		return m.cmdReset(cmd)
	case "hist":
		return m.cmdHistory(cmd)
	case "?", "help":
		return m.cmdHelp(cmd)
	default:
		m.appendOutput(fmt.Sprintf("Unknown command: %s", cmd.Name), colorRed)
		return false
	}
}

func (m *MachineMonitor) cmdRegisters(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 2 {
		name := cmd.Args[0]
		val, ok := ParseAddress(cmd.Args[1])
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid value: %s", cmd.Args[1]), colorRed)
			return false
		}
		if m.cpu.SetRegister(name, val) {
			m.appendOutput(fmt.Sprintf("%s = $%X", strings.ToUpper(name), val), colorGreen)
		} else {
			m.appendOutput(fmt.Sprintf("Unknown register: %s", name), colorRed)
		}
		return false
	}

	m.showRegisters()
	return false
}

// showRegisters prints V0-VF four to a line, then the special registers.
func (m *MachineMonitor) showRegisters() {
	var line strings.Builder
	n := 0
	flush := func() {
		if line.Len() > 0 {
			m.appendOutput(strings.TrimRight(line.String(), " "), colorWhite)
			line.Reset()
		}
		n = 0
	}
	group := ""
	for _, r := range m.cpu.GetRegisters() {
		if r.Group != group && r.Group == "index" {
			flush()
		}
		group = r.Group
		mark := " "
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			mark = "*"
		}
		if r.BitWidth <= 8 {
			fmt.Fprintf(&line, "%-2s=$%02X%s  ", r.Name, r.Value, mark)
		} else {
			fmt.Fprintf(&line, "%-2s=$%04X%s  ", r.Name, r.Value, mark)
		}
		n++
		if group == "general" && n == 4 {
			flush()
		}
	}
	flush()
}

func (m *MachineMonitor) cmdDisassemble(cmd MonitorCommand) bool {
	addr := m.cpu.GetPC()
	count := 16

	if len(cmd.Args) >= 1 {
		v, ok := EvalAddress(cmd.Args[0], m.cpu)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
			return false
		}
		addr = v
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			count = int(v)
		}
	}

	m.showDisassembly(addr, count)
	return false
}

func (m *MachineMonitor) showDisassembly(addr uint64, count int) {
	for _, line := range m.cpu.Disassemble(addr, count) {
		prefix := "  "
		color := colorWhite
		if line.IsPC {
			prefix = "> "
			color = colorGreen
		}
		suffix := ""
		if m.cpu.HasBreakpoint(line.Address) {
			suffix = "  [BP]"
			color = colorRed
		}
		m.appendOutput(fmt.Sprintf("%s$%03X: %-6s %s%s", prefix, line.Address, line.HexBytes, line.Mnemonic, suffix), color)
	}
}

func (m *MachineMonitor) cmdMemoryDump(cmd MonitorCommand) bool {
	addr, _ := m.cpu.GetRegister("I")
	lines := 8

	if len(cmd.Args) >= 1 {
		v, ok := EvalAddress(cmd.Args[0], m.cpu)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
			return false
		}
		addr = v
	}
	if len(cmd.Args) >= 2 {
		if v, ok := ParseAddress(cmd.Args[1]); ok {
			lines = int(v)
		}
	}

	for i := 0; i < lines; i++ {
		addr &= CHIP8_ADDR_MASK
		data := m.cpu.ReadMemory(addr, 16)

		hexParts := make([]string, 0, 16)
		ascii := make([]byte, 0, 16)
		for _, b := range data {
			hexParts = append(hexParts, fmt.Sprintf("%02X", b))
			if b >= 0x20 && b < 0x7F {
				ascii = append(ascii, b)
			} else {
				ascii = append(ascii, '.')
			}
		}

		hexStr := strings.Join(hexParts[:8], " ") + "  " + strings.Join(hexParts[8:], " ")
		m.appendOutput(fmt.Sprintf("$%03X: %s  %s", addr, hexStr, string(ascii)), colorWhite)
		addr += 16
	}
	return false
}

func (m *MachineMonitor) cmdStep(cmd MonitorCommand) bool {
	count := 1
	if len(cmd.Args) >= 1 {
		if v, ok := ParseAddress(cmd.Args[0]); ok && v > 0 {
			count = int(v)
		}
	}

	executed := 0
	for i := 0; i < count; i++ {
		if m.cpu.Step() == 0 {
			break
		}
		executed++
	}

	m.appendOutput(fmt.Sprintf("Step: %d instruction(s)", executed), colorCyan)
	if executed < count {
		if d, ok := m.cpu.(interface{ LastError() error }); ok && d.LastError() != nil {
			m.appendOutput(fmt.Sprintf("Halted: %v", d.LastError()), colorRed)
		} else {
			m.appendOutput("Halted", colorRed)
		}
	}

	for _, r := range m.cpu.GetRegisters() {
		if prev, ok := m.prevRegs[r.Name]; ok && prev != r.Value {
			m.appendOutput(fmt.Sprintf("  %s: $%X -> $%X", r.Name, prev, r.Value), colorGreen)
		}
	}
	m.saveCurrentRegs()

	m.showDisassembly(m.cpu.GetPC(), 1)
	return false
}

// cmdGo resumes execution, optionally from a new PC. The monitor keeps
// reading input; the next line freezes the machine again.
func (m *MachineMonitor) cmdGo(cmd MonitorCommand) bool {
	if len(cmd.Args) >= 1 {
		v, ok := EvalAddress(cmd.Args[0], m.cpu)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
			return false
		}
		m.cpu.SetPC(v)
	}
	m.appendOutput("Running. Press Enter to break.", colorDim)
	m.deactivateLocked()
	return false
}

func (m *MachineMonitor) cmdExit(_ MonitorCommand) bool {
	m.deactivateLocked()
	return true
}

func (m *MachineMonitor) cmdQuit(_ MonitorCommand) bool {
	if c, ok := m.cpu.(machineController); ok {
		c.Quit()
	}
	m.quit = true
	return true
}

func (m *MachineMonitor) cmdReset(_ MonitorCommand) bool {
	c, ok := m.cpu.(machineController)
	if !ok {
		m.appendOutput("Reset not supported", colorRed)
		return false
	}
	c.Reset()
	m.saveCurrentRegs()
	m.appendOutput("Machine reset", colorCyan)
	m.showDisassembly(m.cpu.GetPC(), 1)
	return false
}

func (m *MachineMonitor) cmdBreakpointSet(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: b <addr>", colorRed)
		return false
	}

	addr, ok := EvalAddress(cmd.Args[0], m.cpu)
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}
	m.cpu.SetBreakpoint(addr)
	m.appendOutput(fmt.Sprintf("Breakpoint set at $%03X", addr&CHIP8_ADDR_MASK), colorCyan)
	return false
}

func (m *MachineMonitor) cmdBreakpointClear(cmd MonitorCommand) bool {
	if len(cmd.Args) < 1 {
		m.appendOutput("Usage: bc <addr> | bc *", colorRed)
		return false
	}

	if cmd.Args[0] == "*" {
		m.cpu.ClearAllBreakpoints()
		m.appendOutput("All breakpoints cleared", colorCyan)
		return false
	}

	addr, ok := ParseAddress(cmd.Args[0])
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}
	if m.cpu.ClearBreakpoint(addr) {
		m.appendOutput(fmt.Sprintf("Breakpoint cleared at $%03X", addr&CHIP8_ADDR_MASK), colorCyan)
	} else {
		m.appendOutput(fmt.Sprintf("No breakpoint at $%03X", addr&CHIP8_ADDR_MASK), colorRed)
	}
	return false
}

func (m *MachineMonitor) cmdBreakpointList(_ MonitorCommand) bool {
	bps := m.cpu.ListBreakpoints()
	if len(bps) == 0 {
		m.appendOutput("No breakpoints", colorDim)
		return false
	}
	for _, addr := range bps {
		m.appendOutput(fmt.Sprintf("$%03X", addr), colorCyan)
	}
	return false
}

func (m *MachineMonitor) cmdFill(cmd MonitorCommand) bool {
	if len(cmd.Args) < 3 {
		m.appendOutput("Usage: f <start> <end> <byte>", colorRed)
		return false
	}

	start, ok1 := ParseAddress(cmd.Args[0])
	end, ok2 := ParseAddress(cmd.Args[1])
	val, ok3 := ParseAddress(cmd.Args[2])
	if !ok1 || !ok2 || !ok3 || end < start {
		m.appendOutput("Invalid argument", colorRed)
		return false
	}
	if end-start >= CHIP8_MEMORY_SIZE {
		end = start + CHIP8_MEMORY_SIZE - 1
	}

	data := make([]byte, end-start+1)
	for i := range data {
		data[i] = byte(val)
	}
	m.cpu.WriteMemory(start, data)
	m.appendOutput(fmt.Sprintf("Filled $%03X-$%03X with $%02X", start, end, byte(val)), colorCyan)
	return false
}

func (m *MachineMonitor) cmdHunt(cmd MonitorCommand) bool {
	if len(cmd.Args) < 3 {
		m.appendOutput("Usage: h <start> <end> <bytes..>", colorRed)
		return false
	}

	start, ok1 := ParseAddress(cmd.Args[0])
	end, ok2 := ParseAddress(cmd.Args[1])
	if !ok1 || !ok2 {
		m.appendOutput("Invalid argument", colorRed)
		return false
	}

	var pattern []byte
	for _, arg := range cmd.Args[2:] {
		v, ok := ParseAddress(arg)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid byte: %s", arg), colorRed)
			return false
		}
		pattern = append(pattern, byte(v))
	}

	found := 0
	for addr := start; addr+uint64(len(pattern)) <= end+1; addr++ {
		data := m.cpu.ReadMemory(addr, len(pattern))
		match := true
		for i := range pattern {
			if data[i] != pattern[i] {
				match = false
				break
			}
		}
		if match {
			m.appendOutput(fmt.Sprintf("Found at $%03X", addr), colorCyan)
			found++
			if found >= 256 {
				m.appendOutput("... (truncated)", colorDim)
				break
			}
		}
	}
	if found == 0 {
		m.appendOutput("Not found", colorDim)
	}
	return false
}

func (m *MachineMonitor) cmdWrite(cmd MonitorCommand) bool {
	if len(cmd.Args) < 2 {
		m.appendOutput("Usage: w <addr> <bytes..>", colorRed)
		return false
	}

	addr, ok := ParseAddress(cmd.Args[0])
	if !ok {
		m.appendOutput(fmt.Sprintf("Invalid address: %s", cmd.Args[0]), colorRed)
		return false
	}

	var data []byte
	for _, arg := range cmd.Args[1:] {
		v, ok := ParseAddress(arg)
		if !ok {
			m.appendOutput(fmt.Sprintf("Invalid byte: %s", arg), colorRed)
			return false
		}
		data = append(data, byte(v))
	}

	m.cpu.WriteMemory(addr, data)
	m.appendOutput(fmt.Sprintf("Wrote %d byte(s) at $%03X", len(data), addr&CHIP8_ADDR_MASK), colorCyan)
	return false
}

func (m *MachineMonitor) cmdHistory(_ MonitorCommand) bool {
	for i, line := range m.history {
		m.appendOutput(fmt.Sprintf("%3d  %s", i+1, line), colorWhite)
	}
	return false
}

func (m *MachineMonitor) cmdHelp(_ MonitorCommand) bool {
	helpLines := []string{
		"Machine Monitor Commands:",
		"  r                  Show registers",
		"  r <name> <value>   Set register (V0-VF, I, PC, DT, ST)",
		"  d [addr] [count]   Disassemble",
		"  m [addr] [lines]   Memory dump (hex+ASCII), default at I",
		"  s [count]          Single-step",
		"  g [addr]           Go/continue, Enter breaks back in",
		"  x                  Exit monitor, leave machine running",
		"  q                  Quit emulator",
		"  b <addr>           Set breakpoint",
		"  bc <addr|*>        Clear breakpoint(s)",
		"  bl                 List breakpoints",
		"  f <start> <end> <byte>     Fill memory",
		"  w <addr> <bytes..>         Write bytes",
		"  h <start> <end> <bytes..>  Hunt/search",
		"  reset              Reset machine to the loaded ROM",
		"  hist               List command history",
		"  !<n>               Repeat history entry n",
		"",
		"Addresses: $hex, 0xhex, bare hex, #decimal, PC, I",
	}
	for _, line := range helpLines {
		m.appendOutput(line, colorCyan)
	}
	return false
}
