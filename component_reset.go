package main

// componentResetter is implemented by host collaborators that hold state
// of their own (latched keys, beeper phase, cached frames).
type componentResetter interface {
	Reset()
}

// hardReset restores the VM to its just-loaded state and returns every
// attached collaborator to cold state. Runs on the scheduler goroutine.
func (r *Chip8Runner) hardReset() {
	r.cpu.Reset()
	r.silence()
	for _, c := range []any{r.renderer, r.audio, r.input} {
		if rs, ok := c.(componentResetter); ok {
			rs.Reset()
		}
	}
}

// TerminalHost.Reset drops latched keys. Preserves the raw-mode terminal.
func (h *TerminalHost) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i := range h.latch {
		h.latch[i] = 0
	}
	h.pending = h.pending[:0]
}

// TerminalVideoOutput.Reset forces the next frame to repaint the whole
// screen.
func (t *TerminalVideoOutput) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primed = false
}
