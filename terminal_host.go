package main

import (
	"sync"

	"golang.org/x/term"
)

// Terminals deliver key presses but never releases, so each press holds
// its CHIP-8 key down for a few frames.
const TERMINAL_KEY_LATCH_FRAMES = 6

// qwertyKeyLayout maps CHIP-8 key n to the host key at index n. The 4x4
// block 1234/QWER/ASDF/ZXCV mirrors the COSMAC VIP hex keypad.
const qwertyKeyLayout = "x123qweasdzc4rfv"

// TerminalHost reads raw stdin and acts as the keypad InputSource.
type TerminalHost struct {
	mu      sync.Mutex
	latch   [NUM_KEYS]int
	pending []HostEvent

	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func NewTerminalHost() *TerminalHost {
	return &TerminalHost{
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// chip8KeyForByte translates a typed character into a CHIP-8 key index.
func chip8KeyForByte(b byte) (int, bool) {
	if b >= 'A' && b <= 'Z' {
		b += 'a' - 'A'
	}
	for i := 0; i < len(qwertyKeyLayout); i++ {
		if qwertyKeyLayout[i] == b {
			return i, true
		}
	}
	return 0, false
}

// routeInput handles one read from stdin. A lone ESC quits; an escape
// sequence (arrow keys and friends) is swallowed whole.
func (h *TerminalHost) routeInput(data []byte) {
	if len(data) > 1 && data[0] == 0x1B {
		return
	}
	for _, b := range data {
		h.routeHostKey(b)
	}
}

func (h *TerminalHost) routeHostKey(b byte) {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch b {
	case 0x1B, 0x03: // Esc, Ctrl-C
		h.pending = append(h.pending, HostEvent{Type: EventQuit})
		return
	case 0x12: // Ctrl-R
		h.pending = append(h.pending, HostEvent{Type: EventReset})
		return
	case 'p', 'P':
		h.pending = append(h.pending, HostEvent{Type: EventPause})
		return
	}
	if key, ok := chip8KeyForByte(b); ok {
		h.latch[key] = TERMINAL_KEY_LATCH_FRAMES
	}
}

// Poll ages the key latches into the keypad and hands back at most one
// queued host event.
func (h *TerminalHost) Poll(keypad *Chip8Keypad) HostEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i := range h.latch {
		if h.latch[i] > 0 {
			keypad.Set(i, true)
			h.latch[i]--
		} else {
			keypad.Set(i, false)
		}
	}
	if len(h.pending) == 0 {
		return HostEvent{}
	}
	ev := h.pending[0]
	h.pending = h.pending[1:]
	return ev
}
