package main

import "strings"

// Chip8Display is the 64x32 monochrome framebuffer, row-major.
type Chip8Display struct {
	Cells       [DISPLAY_CELLS]bool
	drawPending bool
}

func (d *Chip8Display) Clear() {
	d.Cells = [DISPLAY_CELLS]bool{}
	d.drawPending = true
}

// DrawSprite XORs rows into the framebuffer with the top-left corner at
// (x mod 64, y mod 32). Pixels past the right or bottom edge are clipped.
// Returns true if any set pixel was turned off.
func (d *Chip8Display) DrawSprite(x, y byte, rows []byte) bool {
	ox := int(x) % DISPLAY_WIDTH
	oy := int(y) % DISPLAY_HEIGHT
	collision := false

	for row, bits := range rows {
		py := oy + row
		if py >= DISPLAY_HEIGHT {
			break
		}
		for col := 0; col < SPRITE_WIDTH; col++ {
			px := ox + col
			if px >= DISPLAY_WIDTH {
				break
			}
			if bits&(0x80>>col) == 0 {
				continue
			}
			idx := py*DISPLAY_WIDTH + px
			if d.Cells[idx] {
				collision = true
			}
			d.Cells[idx] = !d.Cells[idx]
		}
	}
	d.drawPending = true
	return collision
}

func (d *Chip8Display) Pixel(x, y int) bool {
	if x < 0 || y < 0 || x >= DISPLAY_WIDTH || y >= DISPLAY_HEIGHT {
		return false
	}
	return d.Cells[y*DISPLAY_WIDTH+x]
}

// DrawPending reports whether the framebuffer changed since the renderer
// last cleared the flag.
func (d *Chip8Display) DrawPending() bool {
	return d.drawPending
}

func (d *Chip8Display) ClearDrawPending() {
	d.drawPending = false
}

// displayToText renders a framebuffer as lines of '#' and '.'.
func displayToText(cells *[DISPLAY_CELLS]bool) string {
	var sb strings.Builder
	sb.Grow((DISPLAY_WIDTH + 1) * DISPLAY_HEIGHT)
	for y := 0; y < DISPLAY_HEIGHT; y++ {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			if cells[y*DISPLAY_WIDTH+x] {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}

// displayToRGBA expands a framebuffer into RGBA pixels at 1:1 scale.
// Colours are 0xRRGGBB.
func displayToRGBA(cells *[DISPLAY_CELLS]bool, fg, bg uint32, dst []byte) []byte {
	if len(dst) < DISPLAY_CELLS*4 {
		dst = make([]byte, DISPLAY_CELLS*4)
	}
	for i, on := range cells {
		c := bg
		if on {
			c = fg
		}
		dst[i*4] = byte(c >> 16)
		dst[i*4+1] = byte(c >> 8)
		dst[i*4+2] = byte(c)
		dst[i*4+3] = 0xFF
	}
	return dst
}
