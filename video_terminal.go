// video_terminal.go - ANSI half-block terminal video backend

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
	"bytes"
	"fmt"
	"io"
	"os"
	"sync"

	"golang.org/x/term"
)

const (
	TERM_MIN_COLS = DISPLAY_WIDTH
	TERM_MIN_ROWS = DISPLAY_HEIGHT / 2
)

// TerminalVideoOutput draws the framebuffer with half-block characters,
// two CHIP-8 rows per text line.
type TerminalVideoOutput struct {
	mu         sync.Mutex
	out        io.Writer
	fd         int
	config     DisplayConfig
	started    bool
	primed     bool
	frameCount uint64
	line       bytes.Buffer
}

func NewTerminalVideoOutput() *TerminalVideoOutput {
	return &TerminalVideoOutput{
		out:    os.Stdout,
		fd:     int(os.Stdout.Fd()),
		config: DefaultDisplayConfig(),
	}
}

func (t *TerminalVideoOutput) Start() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.started {
		return nil
	}
	if term.IsTerminal(t.fd) {
		cols, rows, err := term.GetSize(t.fd)
		if err != nil {
			return &VideoError{Operation: "start", Details: "query terminal size", Err: err}
		}
		if cols < TERM_MIN_COLS || rows < TERM_MIN_ROWS {
			return &VideoError{
				Operation: "start",
				Details:   fmt.Sprintf("terminal is %dx%d, need at least %dx%d", cols, rows, TERM_MIN_COLS, TERM_MIN_ROWS),
			}
		}
	}
	fmt.Fprint(t.out, "\x1b[?25l\x1b[2J")
	t.started = true
	t.primed = false
	return nil
}

func (t *TerminalVideoOutput) Stop() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.started {
		return nil
	}
	fmt.Fprintf(t.out, "\x1b[%d;1H\x1b[?25h\r\n", TERM_MIN_ROWS+1)
	t.started = false
	return nil
}

func (t *TerminalVideoOutput) Close() error {
	return t.Stop()
}

func (t *TerminalVideoOutput) IsStarted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.started
}

func (t *TerminalVideoOutput) SetDisplayConfig(config DisplayConfig) error {
	t.mu.Lock()
	t.config = config
	t.mu.Unlock()
	return nil
}

func (t *TerminalVideoOutput) GetDisplayConfig() DisplayConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.config
}

// UpdateFrame repaints from the top-left corner. Lines end in CRLF so the
// output stays aligned while stdin is in raw mode.
func (t *TerminalVideoOutput) UpdateFrame(buffer []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	bg := t.config.Background
	t.line.Reset()
	if !t.primed {
		t.line.WriteString("\x1b[2J")
		t.primed = true
	}
	t.line.WriteString("\x1b[H")
	for y := 0; y < DISPLAY_HEIGHT; y += 2 {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			top := pixelLit(buffer, y*DISPLAY_WIDTH+x, bg)
			bottom := pixelLit(buffer, (y+1)*DISPLAY_WIDTH+x, bg)
			t.line.WriteString(halfBlock(top, bottom))
		}
		t.line.WriteString("\r\n")
	}
	if _, err := t.out.Write(t.line.Bytes()); err != nil {
		return &VideoError{Operation: "update", Details: "write frame", Err: err}
	}
	t.frameCount++
	return nil
}

func halfBlock(top, bottom bool) string {
	switch {
	case top && bottom:
		return "█"
	case top:
		return "▀"
	case bottom:
		return "▄"
	}
	return " "
}

func (t *TerminalVideoOutput) GetFrameCount() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.frameCount
}

func (t *TerminalVideoOutput) GetRefreshRate() int {
	return TIMER_HZ
}
