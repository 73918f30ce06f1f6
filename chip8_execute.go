// chip8_execute.go - CHIP-8 instruction decoder and executor

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

// execute runs one decoded instruction. PC already points past it.
// Unassigned encodings fall through as no-ops.
func (c *CPUChip8) execute(op uint16) error {
	x := (op >> 8) & 0xF
	y := (op >> 4) & 0xF
	n := op & 0xF
	nn := byte(op)
	nnn := op & 0x0FFF

	switch op & 0xF000 {
	case 0x0000:
		switch op {
		case 0x00E0:
			c.Display.Clear()
		case 0x00EE:
			addr, err := c.Stack.Pop()
			if err != nil {
				return err
			}
			c.PC = addr
		}

	case 0x1000:
		c.PC = nnn

	case 0x2000:
		if err := c.Stack.Push(c.PC); err != nil {
			return err
		}
		c.PC = nnn

	case 0x3000:
		if c.V[x] == nn {
			c.skip()
		}

	case 0x4000:
		if c.V[x] != nn {
			c.skip()
		}

	case 0x5000:
		if n == 0 && c.V[x] == c.V[y] {
			c.skip()
		}

	case 0x6000:
		c.V[x] = nn

	case 0x7000:
		c.V[x] += nn

	case 0x8000:
		c.executeALU(x, y, n)

	case 0x9000:
		if n == 0 && c.V[x] != c.V[y] {
			c.skip()
		}

	case 0xA000:
		c.I = nnn

	case 0xB000:
		if c.Mode == MODE_MODERN_SHIFT {
			c.PC = nnn + uint16(c.V[x])
		} else {
			c.PC = nnn + uint16(c.V[0])
		}

	case 0xC000:
		c.V[x] = c.randByte() & nn

	case 0xD000:
		var rows [15]byte
		for i := uint16(0); i < n; i++ {
			rows[i] = c.readMem(c.I + i)
		}
		vx, vy := c.V[x], c.V[y]
		c.V[CHIP8_FLAG_REG] = 0
		if c.Display.DrawSprite(vx, vy, rows[:n]) {
			c.V[CHIP8_FLAG_REG] = 1
		}

	case 0xE000:
		down := c.Keypad.IsDown(int(c.V[x] & 0xF))
		switch nn {
		case 0x9E:
			if down {
				c.skip()
			}
		case 0xA1:
			if !down {
				c.skip()
			}
		}

	case 0xF000:
		c.executeMisc(x, nn)
	}
	return nil
}

func (c *CPUChip8) skip() {
	c.PC += CHIP8_OPCODE_SIZE
}

// executeALU handles the 8XYN register-register family. VF is always
// written after the result so that the flag survives when X is F.
func (c *CPUChip8) executeALU(x, y, n uint16) {
	switch n {
	case 0x0:
		c.V[x] = c.V[y]
	case 0x1:
		c.V[x] |= c.V[y]
	case 0x2:
		c.V[x] &= c.V[y]
	case 0x3:
		c.V[x] ^= c.V[y]
	case 0x4:
		sum := uint16(c.V[x]) + uint16(c.V[y])
		c.V[x] = byte(sum)
		c.V[CHIP8_FLAG_REG] = boolToByte(sum > 0xFF)
	case 0x5:
		noBorrow := c.V[x] >= c.V[y]
		c.V[x] -= c.V[y]
		c.V[CHIP8_FLAG_REG] = boolToByte(noBorrow)
	case 0x6:
		src := c.shiftSource(x, y)
		c.V[x] = src >> 1
		c.V[CHIP8_FLAG_REG] = src & 0x1
	case 0x7:
		noBorrow := c.V[y] >= c.V[x]
		c.V[x] = c.V[y] - c.V[x]
		c.V[CHIP8_FLAG_REG] = boolToByte(noBorrow)
	case 0xE:
		src := c.shiftSource(x, y)
		c.V[x] = src << 1
		c.V[CHIP8_FLAG_REG] = src >> 7
	}
}

// shiftSource is VY on the COSMAC VIP and VX on the Amiga interpreter.
func (c *CPUChip8) shiftSource(x, y uint16) byte {
	if c.Mode == MODE_MODERN_SHIFT {
		return c.V[x]
	}
	return c.V[y]
}

func (c *CPUChip8) executeMisc(x uint16, nn byte) {
	switch nn {
	case 0x07:
		c.V[x] = c.DelayTimer

	case 0x0A:
		if key, ok := c.Keypad.FirstDown(); ok {
			c.V[x] = key
		} else {
			c.PC -= CHIP8_OPCODE_SIZE
		}

	case 0x15:
		c.DelayTimer = c.V[x]

	case 0x18:
		c.SoundTimer = c.V[x]

	case 0x1E:
		// The flag sees the full sum even when I itself carries past 16 bits.
		sum := uint32(c.I) + uint32(c.V[x])
		c.I = uint16(sum)
		if c.Mode == MODE_MODERN_SHIFT {
			c.V[CHIP8_FLAG_REG] = boolToByte(sum > CHIP8_ADDR_MASK)
		}

	case 0x29:
		c.I = CHIP8_FONT_START + uint16(c.V[x])*FONT_GLYPH_BYTES

	case 0x33:
		v := c.V[x]
		c.writeMem(c.I, v/100)
		c.writeMem(c.I+1, (v/10)%10)
		c.writeMem(c.I+2, v%10)

	case 0x55:
		for i := uint16(0); i <= x; i++ {
			c.writeMem(c.I+i, c.V[i])
		}
		if c.Mode == MODE_LEGACY_SHIFT {
			c.I += x + 1
		}

	case 0x65:
		for i := uint16(0); i <= x; i++ {
			c.V[i] = c.readMem(c.I + i)
		}
		if c.Mode == MODE_LEGACY_SHIFT {
			c.I += x + 1
		}
	}
}

func boolToByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
