// chip8asm.go - CHIP-8 assembler

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
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

const (
	PROG_START   = 0x200
	MEMORY_SIZE  = 0x1000
	MAX_ROM_SIZE = MEMORY_SIZE - PROG_START
)

// mnemonics maps upper-case instruction names to the retrogolib
// instruction set. SYS is not part of it and is handled by name.
var mnemonics = func() map[string]*chip8.Instruction {
	m := make(map[string]*chip8.Instruction)
	for _, entries := range chip8.Opcodes {
		for _, entry := range entries {
			if entry.Instruction != nil {
				m[strings.ToUpper(entry.Instruction.Name)] = entry.Instruction
			}
		}
	}
	return m
}()

// sourceLine is one statement after the first pass.
type sourceLine struct {
	num   int
	text  string
	op    string
	args  []string
	addr  uint16
	code  []byte
	equ   bool
	label string
}

// Assembler is a two-pass CHIP-8 assembler using the common CHIP-8
// mnemonics (CLS, LD VX, #NN, DRW VX, VY, N ...). Numbers are decimal,
// or hex with a #, $ or 0x prefix, or binary with %.
type Assembler struct {
	labels  map[string]uint16
	equates map[string]int
	lines   []sourceLine
	pc      int
}

func NewAssembler() *Assembler {
	return &Assembler{
		labels:  make(map[string]uint16),
		equates: make(map[string]int),
		pc:      PROG_START,
	}
}

// Assemble translates src into a ROM image that loads at 0x200.
func (a *Assembler) Assemble(src string) ([]byte, error) {
	if err := a.firstPass(src); err != nil {
		return nil, err
	}

	var image [MEMORY_SIZE]byte
	end := PROG_START
	var errs []error
	for i := range a.lines {
		l := &a.lines[i]
		code, err := a.emit(l)
		if err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", l.num, err))
			continue
		}
		l.code = code
		copy(image[l.addr:], code)
		if top := int(l.addr) + len(code); top > end {
			end = top
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return append([]byte(nil), image[PROG_START:end]...), nil
}

// firstPass splits the source into statements, assigns addresses and
// collects labels and equates.
func (a *Assembler) firstPass(src string) error {
	var errs []error
	for n, raw := range strings.Split(src, "\n") {
		l, ok, err := parseLine(n+1, raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if !ok {
			continue
		}
		if err := a.place(&l); err != nil {
			errs = append(errs, fmt.Errorf("line %d: %w", l.num, err))
			continue
		}
		a.lines = append(a.lines, l)
	}
	return errors.Join(errs...)
}

func parseLine(num int, raw string) (sourceLine, bool, error) {
	text := strings.TrimSpace(stripComment(raw))
	l := sourceLine{num: num, text: strings.TrimSpace(raw)}
	if text == "" {
		return l, false, nil
	}

	fields := strings.Fields(text)
	if strings.HasSuffix(fields[0], ":") {
		l.label = strings.TrimSuffix(fields[0], ":")
		text = strings.TrimSpace(text[len(fields[0]):])
	} else if len(fields) >= 3 && (strings.EqualFold(fields[1], "EQU") || fields[1] == "=") {
		l.label = fields[0]
		l.equ = true
		l.op = "EQU"
		rest := strings.TrimSpace(text[len(fields[0]):])
		l.args = splitArgs(strings.TrimSpace(rest[len(fields[1]):]))
		return l, true, nil
	}
	if l.label != "" && !validSymbol(l.label) {
		return l, false, fmt.Errorf("line %d: invalid label %q", num, l.label)
	}
	if text == "" {
		return l, true, nil
	}

	op := strings.Fields(text)[0]
	l.op = strings.ToUpper(strings.TrimPrefix(op, "."))
	l.args = splitArgs(strings.TrimSpace(text[len(op):]))
	return l, true, nil
}

// stripComment drops everything after a ; that is not inside a string.
func stripComment(s string) string {
	quoted := false
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ';':
			if !quoted {
				return s[:i]
			}
		}
	}
	return s
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	var args []string
	quoted := false
	start := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			quoted = !quoted
		case ',':
			if !quoted {
				args = append(args, strings.TrimSpace(s[start:i]))
				start = i + 1
			}
		}
	}
	return append(args, strings.TrimSpace(s[start:]))
}

func validSymbol(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || r == '.':
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	_, isReg := register(s)
	return !isReg
}

// place records the line's address and advances the location counter.
func (a *Assembler) place(l *sourceLine) error {
	if l.equ {
		if !validSymbol(l.label) {
			return fmt.Errorf("invalid equate name %q", l.label)
		}
		if len(l.args) != 1 {
			return fmt.Errorf("EQU takes one value")
		}
		v, err := a.eval(l.args[0])
		if err != nil {
			return err
		}
		if _, dup := a.equates[l.label]; dup {
			return fmt.Errorf("duplicate equate %s", l.label)
		}
		a.equates[l.label] = v
		return nil
	}

	if l.op == "ORG" {
		if len(l.args) != 1 {
			return fmt.Errorf("ORG takes one address")
		}
		v, err := a.eval(l.args[0])
		if err != nil {
			return err
		}
		if v < a.pc {
			return fmt.Errorf("ORG $%03X is behind $%03X", v, a.pc)
		}
		if v > MEMORY_SIZE {
			return fmt.Errorf("ORG $%X is outside memory", v)
		}
		a.pc = v
	}

	if l.label != "" {
		if _, dup := a.labels[l.label]; dup {
			return fmt.Errorf("duplicate label %s", l.label)
		}
		a.labels[l.label] = uint16(a.pc)
	}
	l.addr = uint16(a.pc)

	size, err := sizeOf(l)
	if err != nil {
		return err
	}
	a.pc += size
	if a.pc > MEMORY_SIZE {
		return fmt.Errorf("program runs past $FFF")
	}
	return nil
}

func sizeOf(l *sourceLine) (int, error) {
	switch l.op {
	case "", "ORG":
		return 0, nil
	case "DB":
		n := 0
		for _, arg := range l.args {
			if s, ok := stringLiteral(arg); ok {
				n += len(s)
			} else {
				n++
			}
		}
		return n, nil
	case "DW":
		return 2 * len(l.args), nil
	}
	return 2, nil
}

func stringLiteral(arg string) (string, bool) {
	if len(arg) >= 2 && arg[0] == '"' && arg[len(arg)-1] == '"' {
		return arg[1 : len(arg)-1], true
	}
	return "", false
}

func (a *Assembler) emit(l *sourceLine) ([]byte, error) {
	switch l.op {
	case "", "ORG", "EQU":
		return nil, nil
	case "DB":
		var out []byte
		for _, arg := range l.args {
			if s, ok := stringLiteral(arg); ok {
				out = append(out, s...)
				continue
			}
			v, err := a.value(arg, 0xFF)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(v))
		}
		return out, nil
	case "DW":
		var out []byte
		for _, arg := range l.args {
			v, err := a.value(arg, 0xFFFF)
			if err != nil {
				return nil, err
			}
			out = append(out, byte(v>>8), byte(v))
		}
		return out, nil
	}
	op, err := a.encode(l.op, l.args)
	if err != nil {
		return nil, err
	}
	return []byte{byte(op >> 8), byte(op)}, nil
}

// register parses V0..VF.
func register(s string) (uint16, bool) {
	if len(s) != 2 || (s[0] != 'V' && s[0] != 'v') {
		return 0, false
	}
	v, err := strconv.ParseUint(s[1:], 16, 8)
	return uint16(v), err == nil
}

func (a *Assembler) encode(op string, args []string) (uint16, error) {
	want := func(n ...int) error {
		for _, c := range n {
			if len(args) == c {
				return nil
			}
		}
		return fmt.Errorf("%s: wrong number of operands", op)
	}
	reg := func(i int) (uint16, error) {
		r, ok := register(args[i])
		if !ok {
			return 0, fmt.Errorf("%s: expected register, got %q", op, args[i])
		}
		return r, nil
	}
	xy := func(base uint16) (uint16, error) {
		if err := want(2); err != nil {
			return 0, err
		}
		x, err := reg(0)
		if err != nil {
			return 0, err
		}
		y, err := reg(1)
		if err != nil {
			return 0, err
		}
		return base | x<<8 | y<<4, nil
	}
	xOnly := func(base uint16) (uint16, error) {
		if err := want(1); err != nil {
			return 0, err
		}
		x, err := reg(0)
		return base | x<<8, err
	}
	xOnlyAt := func(base uint16, i int) (uint16, error) {
		x, err := reg(i)
		return base | x<<8, err
	}

	if op == "SYS" {
		if err := want(1); err != nil {
			return 0, err
		}
		nnn, err := a.value(args[0], 0xFFF)
		return uint16(nnn), err
	}
	ins, ok := mnemonics[op]
	if !ok {
		return 0, fmt.Errorf("unknown instruction %s", op)
	}

	switch ins {
	case chip8.Cls:
		return 0x00E0, want(0)
	case chip8.Ret:
		return 0x00EE, want(0)
	case chip8.Call:
		if err := want(1); err != nil {
			return 0, err
		}
		nnn, err := a.value(args[0], 0xFFF)
		return 0x2000 | uint16(nnn), err
	case chip8.Jp:
		if err := want(1, 2); err != nil {
			return 0, err
		}
		if len(args) == 2 {
			if r, ok := register(args[0]); !ok || r != 0 {
				return 0, fmt.Errorf("JP: indexed jump must use V0")
			}
			nnn, err := a.value(args[1], 0xFFF)
			return 0xB000 | uint16(nnn), err
		}
		nnn, err := a.value(args[0], 0xFFF)
		return 0x1000 | uint16(nnn), err
	case chip8.Se, chip8.Sne:
		if err := want(2); err != nil {
			return 0, err
		}
		x, err := reg(0)
		if err != nil {
			return 0, err
		}
		if y, ok := register(args[1]); ok {
			if ins == chip8.Se {
				return 0x5000 | x<<8 | y<<4, nil
			}
			return 0x9000 | x<<8 | y<<4, nil
		}
		nn, err := a.value(args[1], 0xFF)
		if ins == chip8.Se {
			return 0x3000 | x<<8 | uint16(nn), err
		}
		return 0x4000 | x<<8 | uint16(nn), err
	case chip8.Ld:
		if err := want(2); err != nil {
			return 0, err
		}
		switch strings.ToUpper(args[0]) {
		case "I":
			nnn, err := a.value(args[1], 0xFFF)
			return 0xA000 | uint16(nnn), err
		case "DT":
			return xOnlyAt(0xF015, 1)
		case "ST":
			return xOnlyAt(0xF018, 1)
		case "F":
			return xOnlyAt(0xF029, 1)
		case "B":
			return xOnlyAt(0xF033, 1)
		case "[I]":
			return xOnlyAt(0xF055, 1)
		}
		x, err := reg(0)
		if err != nil {
			return 0, err
		}
		switch strings.ToUpper(args[1]) {
		case "DT":
			return 0xF007 | x<<8, nil
		case "K":
			return 0xF00A | x<<8, nil
		case "[I]":
			return 0xF065 | x<<8, nil
		}
		if y, ok := register(args[1]); ok {
			return 0x8000 | x<<8 | y<<4, nil
		}
		nn, err := a.value(args[1], 0xFF)
		return 0x6000 | x<<8 | uint16(nn), err
	case chip8.Add:
		if err := want(2); err != nil {
			return 0, err
		}
		if strings.EqualFold(args[0], "I") {
			return xOnlyAt(0xF01E, 1)
		}
		x, err := reg(0)
		if err != nil {
			return 0, err
		}
		if y, ok := register(args[1]); ok {
			return 0x8004 | x<<8 | y<<4, nil
		}
		nn, err := a.value(args[1], 0xFF)
		return 0x7000 | x<<8 | uint16(nn), err
	case chip8.Or:
		return xy(0x8001)
	case chip8.And:
		return xy(0x8002)
	case chip8.Xor:
		return xy(0x8003)
	case chip8.Sub:
		return xy(0x8005)
	case chip8.Subn:
		return xy(0x8007)
	case chip8.Shr, chip8.Shl:
		base := uint16(0x8006)
		if ins == chip8.Shl {
			base = 0x800E
		}
		if len(args) == 1 {
			// SHR VX is SHR VX, VX
			code, err := xOnly(base)
			return code | (code>>8&0xF)<<4, err
		}
		return xy(base)
	case chip8.Rnd:
		if err := want(2); err != nil {
			return 0, err
		}
		x, err := reg(0)
		if err != nil {
			return 0, err
		}
		nn, err := a.value(args[1], 0xFF)
		return 0xC000 | x<<8 | uint16(nn), err
	case chip8.Drw:
		if err := want(3); err != nil {
			return 0, err
		}
		x, err := reg(0)
		if err != nil {
			return 0, err
		}
		y, err := reg(1)
		if err != nil {
			return 0, err
		}
		n, err := a.value(args[2], 0xF)
		return 0xD000 | x<<8 | y<<4 | uint16(n), err
	case chip8.Skp:
		return xOnly(0xE09E)
	case chip8.Sknp:
		return xOnly(0xE0A1)
	}
	return 0, fmt.Errorf("unknown instruction %s", op)
}

// value evaluates expr and checks it fits in 0..limit.
func (a *Assembler) value(expr string, limit int) (int, error) {
	v, err := a.eval(expr)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > limit {
		return 0, fmt.Errorf("value %s ($%X) out of range 0..$%X", expr, v, limit)
	}
	return v, nil
}

// eval sums the +/- separated terms of expr. During the first pass only
// symbols defined so far resolve.
func (a *Assembler) eval(expr string) (int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return 0, fmt.Errorf("missing operand")
	}
	total := 0
	sign := 1
	start := 0
	for i := 0; i <= len(expr); i++ {
		if i < len(expr) && (expr[i] != '+' && expr[i] != '-' || i == start) {
			continue
		}
		v, err := a.term(strings.TrimSpace(expr[start:i]))
		if err != nil {
			return 0, err
		}
		total += sign * v
		if i < len(expr) {
			sign = 1
			if expr[i] == '-' {
				sign = -1
			}
		}
		start = i + 1
	}
	return total, nil
}

func (a *Assembler) term(t string) (int, error) {
	if t == "" {
		return 0, fmt.Errorf("missing operand")
	}
	if n, ok := parseNumber(t); ok {
		return n, nil
	}
	if v, ok := a.equates[t]; ok {
		return v, nil
	}
	if v, ok := a.labels[t]; ok {
		return int(v), nil
	}
	return 0, fmt.Errorf("undefined symbol %s", t)
}

func parseNumber(s string) (int, bool) {
	base := 10
	switch {
	case strings.HasPrefix(s, "#"), strings.HasPrefix(s, "$"):
		s, base = s[1:], 16
	case strings.HasPrefix(s, "0x"), strings.HasPrefix(s, "0X"):
		s, base = s[2:], 16
	case strings.HasPrefix(s, "%"):
		s, base = s[1:], 2
	}
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, base, 32)
	if err != nil {
		return 0, false
	}
	return int(v), true
}

// WriteListing prints address, emitted bytes and source for each line of
// the last successful Assemble.
func (a *Assembler) WriteListing(w io.Writer) error {
	for _, l := range a.lines {
		hex := make([]string, 0, len(l.code))
		for _, b := range l.code {
			hex = append(hex, fmt.Sprintf("%02X", b))
		}
		bytesCol := strings.Join(hex, " ")
		if len(bytesCol) > 11 {
			bytesCol = bytesCol[:8] + "..."
		}
		if _, err := fmt.Fprintf(w, "%03X  %-11s  %s\n", l.addr, bytesCol, l.text); err != nil {
			return err
		}
	}
	return nil
}

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	outFile := fs.String("o", "", "output ROM (default: input with .ch8)")
	listing := fs.Bool("l", false, "print a listing to stdout")
	fs.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: chip8asm [-o out.ch8] [-l] <input.asm>")
		fs.PrintDefaults()
	}
	if err := fs.Parse(os.Args[1:]); err != nil || fs.NArg() != 1 {
		if err == nil {
			fs.Usage()
		}
		os.Exit(1)
	}
	input := fs.Arg(0)

	code, err := os.ReadFile(input)
	if err != nil {
		fmt.Printf("Error reading input file: %v\n", err)
		os.Exit(1)
	}

	asm := NewAssembler()
	binary, err := asm.Assemble(string(code))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s:\n%v\n", input, err)
		os.Exit(1)
	}
	if len(binary) > MAX_ROM_SIZE {
		fmt.Fprintf(os.Stderr, "%s: program is %d bytes, limit is %d\n", input, len(binary), MAX_ROM_SIZE)
		os.Exit(1)
	}

	out := *outFile
	if out == "" {
		out = strings.TrimSuffix(input, ".asm") + ".ch8"
	}
	if err := os.WriteFile(out, binary, 0644); err != nil {
		fmt.Printf("Error writing output file: %v\n", err)
		os.Exit(1)
	}
	if *listing {
		_ = asm.WriteListing(os.Stdout)
	}

	fmt.Printf("Successfully assembled to %s (%d bytes)\n", out, len(binary))
}
