package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/retroenv/retrogolib/arch/cpu/chip8"
)

// lookupChip8Opcode finds the instruction a word decodes to in the
// retrogolib opcode table. ok is false for words outside the set.
func lookupChip8Opcode(op uint16) (*chip8.Instruction, bool) {
	for _, entry := range chip8.Opcodes[int(op>>12)] {
		if entry.Info.Mask&op == entry.Info.Value && entry.Instruction != nil {
			return entry.Instruction, true
		}
	}
	return nil, false
}

// disassembleChip8Opcode renders one instruction in the usual CHIP-8
// reference mnemonics. Words that do not decode come back as DW. BNNN
// names the register the given mode actually jumps through.
func disassembleChip8Opcode(op uint16, mode Chip8Mode) string {
	ins, ok := lookupChip8Opcode(op)
	if !ok {
		if op>>12 == 0 {
			return fmt.Sprintf("SYS  #%03X", op&0xFFF)
		}
		return fmt.Sprintf("DW   #%04X", op)
	}
	name := strings.ToUpper(ins.Name)
	args := chip8Operands(op, mode)
	if args == "" {
		return name
	}
	return fmt.Sprintf("%-4s %s", name, args)
}

// chip8Operands formats the operand field of a decoded word.
func chip8Operands(op uint16, mode Chip8Mode) string {
	x := (op >> 8) & 0xF
	y := (op >> 4) & 0xF
	n := op & 0xF
	nn := op & 0xFF
	nnn := op & 0xFFF

	switch op >> 12 {
	case 0x0:
		if op == 0x00E0 || op == 0x00EE {
			return ""
		}
		return fmt.Sprintf("#%03X", nnn)
	case 0x1, 0x2:
		return fmt.Sprintf("#%03X", nnn)
	case 0x3, 0x4, 0x6, 0x7, 0xC:
		return fmt.Sprintf("V%X, #%02X", x, nn)
	case 0x5, 0x8, 0x9:
		return fmt.Sprintf("V%X, V%X", x, y)
	case 0xA:
		return fmt.Sprintf("I, #%03X", nnn)
	case 0xB:
		if mode == MODE_MODERN_SHIFT {
			return fmt.Sprintf("V%X, #%03X", x, nnn)
		}
		return fmt.Sprintf("V0, #%03X", nnn)
	case 0xD:
		return fmt.Sprintf("V%X, V%X, %d", x, y, n)
	case 0xE:
		return fmt.Sprintf("V%X", x)
	case 0xF:
		switch nn {
		case 0x07:
			return fmt.Sprintf("V%X, DT", x)
		case 0x0A:
			return fmt.Sprintf("V%X, K", x)
		case 0x15:
			return fmt.Sprintf("DT, V%X", x)
		case 0x18:
			return fmt.Sprintf("ST, V%X", x)
		case 0x1E:
			return fmt.Sprintf("I, V%X", x)
		case 0x29:
			return fmt.Sprintf("F, V%X", x)
		case 0x33:
			return fmt.Sprintf("B, V%X", x)
		case 0x55:
			return fmt.Sprintf("[I], V%X", x)
		case 0x65:
			return fmt.Sprintf("V%X, [I]", x)
		}
	}
	return ""
}

// disassembleChip8 decodes count instructions starting at addr. Every
// instruction is two bytes; the address wraps inside the 4K space.
func disassembleChip8(readMem func(addr uint64, size int) []byte, addr uint64, count int, mode Chip8Mode) []DisassembledLine {
	lines := make([]DisassembledLine, 0, count)
	for i := 0; i < count; i++ {
		addr &= CHIP8_ADDR_MASK
		data := readMem(addr, CHIP8_OPCODE_SIZE)
		if len(data) < CHIP8_OPCODE_SIZE {
			break
		}
		op := uint16(data[0])<<8 | uint16(data[1])
		lines = append(lines, DisassembledLine{
			Address:  addr,
			HexBytes: fmt.Sprintf("%02X %02X", data[0], data[1]),
			Mnemonic: disassembleChip8Opcode(op, mode),
			Size:     CHIP8_OPCODE_SIZE,
		})
		addr += CHIP8_OPCODE_SIZE
	}
	return lines
}

// writeROMDisassembly lists a ROM as it would sit in memory from 0x200.
// A trailing odd byte is shown as DB.
func writeROMDisassembly(w io.Writer, rom []byte, mode Chip8Mode) error {
	for off := 0; off+1 < len(rom); off += CHIP8_OPCODE_SIZE {
		op := uint16(rom[off])<<8 | uint16(rom[off+1])
		if _, err := fmt.Fprintf(w, "%03X  %02X %02X  %s\n", CHIP8_PROG_START+off, rom[off], rom[off+1], disassembleChip8Opcode(op, mode)); err != nil {
			return err
		}
	}
	if len(rom)%2 == 1 {
		last := len(rom) - 1
		if _, err := fmt.Fprintf(w, "%03X  %02X     DB   #%02X\n", CHIP8_PROG_START+last, rom[last], rom[last]); err != nil {
			return err
		}
	}
	return nil
}
