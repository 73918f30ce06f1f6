package main

import "sync/atomic"

// Chip8Keypad holds the sixteen key-down flags. Written by the input
// goroutine, read by the interpreter.
type Chip8Keypad struct {
	keys [NUM_KEYS]atomic.Bool
}

func (k *Chip8Keypad) Set(index int, down bool) {
	if index < 0 || index >= NUM_KEYS {
		return
	}
	k.keys[index].Store(down)
}

func (k *Chip8Keypad) IsDown(index int) bool {
	if index < 0 || index >= NUM_KEYS {
		return false
	}
	return k.keys[index].Load()
}

// FirstDown returns the lowest-indexed key currently held.
func (k *Chip8Keypad) FirstDown() (byte, bool) {
	for i := range k.keys {
		if k.keys[i].Load() {
			return byte(i), true
		}
	}
	return 0, false
}

func (k *Chip8Keypad) ReleaseAll() {
	for i := range k.keys {
		k.keys[i].Store(false)
	}
}

// Mask returns the key state as a bitmask, bit n set when key n is down.
func (k *Chip8Keypad) Mask() uint16 {
	var m uint16
	for i := range k.keys {
		if k.keys[i].Load() {
			m |= 1 << i
		}
	}
	return m
}
