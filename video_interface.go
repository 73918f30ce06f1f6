package main

import (
	"fmt"
	"strings"
	"time"
)

// VideoError provides detailed error context for video operations
type VideoError struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Underlying error if any
}

func (e *VideoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("video %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("video %s failed: %s", e.Operation, e.Details)
}

func (e *VideoError) Unwrap() error {
	return e.Err
}

// FrameSnapshot encapsulates the data needed to represent a complete frame
type FrameSnapshot struct {
	Buffer    []byte // RGBA pixels
	Width     int
	Height    int
	Timestamp time.Time
}

// Text renders the snapshot as half-block art with bg as the unlit colour.
func (s FrameSnapshot) Text(bg uint32) string {
	return frameToText(s.Buffer, bg)
}

// DisplayConfig contains hardware-independent configuration
type DisplayConfig struct {
	Width       int
	Height      int
	Scale       int    // Integer scaling factor for output
	RefreshRate int    // Target refresh rate in Hz
	Foreground  uint32 // 0xRRGGBB of a lit pixel
	Background  uint32 // 0xRRGGBB of a dark pixel
	Fullscreen  bool
}

func DefaultDisplayConfig() DisplayConfig {
	return DisplayConfig{
		Width:       DISPLAY_WIDTH,
		Height:      DISPLAY_HEIGHT,
		Scale:       DEFAULT_SCALE,
		RefreshRate: TIMER_HZ,
		Foreground:  0xFFFFFF,
		Background:  0x000000,
	}
}

// VideoOutput defines the minimal interface that backends must implement
type VideoOutput interface {
	// Lifecycle management
	Start() error
	Stop() error
	Close() error
	IsStarted() bool

	SetDisplayConfig(config DisplayConfig) error
	GetDisplayConfig() DisplayConfig
	UpdateFrame(buffer []byte) error // Takes raw RGBA pixels only

	GetFrameCount() uint64
	GetRefreshRate() int
}

// Predefined video backend types
const (
	VIDEO_BACKEND_EBITEN   = iota // Pure Go Ebiten backend
	VIDEO_BACKEND_SDL             // SDL2 backend using cgo
	VIDEO_BACKEND_TERMINAL        // ANSI half-block characters on stdout
	VIDEO_BACKEND_NONE            // Frames are counted and discarded
)

// ParseVideoBackend maps a -video flag value to a backend type.
func ParseVideoBackend(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "ebiten", "":
		return VIDEO_BACKEND_EBITEN, true
	case "sdl", "sdl2":
		return VIDEO_BACKEND_SDL, true
	case "term", "terminal", "tty":
		return VIDEO_BACKEND_TERMINAL, true
	case "none", "headless":
		return VIDEO_BACKEND_NONE, true
	}
	return 0, false
}

func videoBackendName(backend int) string {
	switch backend {
	case VIDEO_BACKEND_EBITEN:
		return "ebiten"
	case VIDEO_BACKEND_SDL:
		return "sdl"
	case VIDEO_BACKEND_TERMINAL:
		return "term"
	case VIDEO_BACKEND_NONE:
		return "none"
	}
	return "unknown"
}

// NewVideoOutput creates a new video output instance using the specified backend
func NewVideoOutput(backend int) (VideoOutput, error) {
	switch backend {
	case VIDEO_BACKEND_EBITEN:
		return NewEbitenOutput()
	case VIDEO_BACKEND_SDL:
		return NewSDLOutput()
	case VIDEO_BACKEND_TERMINAL:
		return NewTerminalVideoOutput(), nil
	case VIDEO_BACKEND_NONE:
		return NewHeadlessVideoOutput(), nil
	}
	return nil, &VideoError{
		Operation: "backend creation",
		Details:   fmt.Sprintf("unknown backend type: %d", backend),
	}
}

// ClampScale keeps a window scale factor inside 1..MAX_SCALE.
func ClampScale(scale int) int {
	if scale < 1 {
		return 1
	}
	if scale > MAX_SCALE {
		return MAX_SCALE
	}
	return scale
}

// DisplayPresenter adapts a VideoOutput to the scheduler's Renderer by
// expanding the boolean framebuffer into RGBA pixels.
type DisplayPresenter struct {
	out VideoOutput
	fg  uint32
	bg  uint32
	buf []byte
}

func NewDisplayPresenter(out VideoOutput) *DisplayPresenter {
	cfg := out.GetDisplayConfig()
	return &DisplayPresenter{
		out: out,
		fg:  cfg.Foreground,
		bg:  cfg.Background,
		buf: make([]byte, DISPLAY_CELLS*4),
	}
}

func (p *DisplayPresenter) Render(display *[DISPLAY_CELLS]bool) error {
	p.buf = displayToRGBA(display, p.fg, p.bg, p.buf)
	return p.out.UpdateFrame(p.buf)
}

// Reset paints a blank frame.
func (p *DisplayPresenter) Reset() {
	var blank [DISPLAY_CELLS]bool
	_ = p.Render(&blank)
}

// pixelLit reports whether the RGBA pixel at i differs from the background.
func pixelLit(buf []byte, i int, bg uint32) bool {
	o := i * 4
	if o+2 >= len(buf) {
		return false
	}
	return buf[o] != byte(bg>>16) || buf[o+1] != byte(bg>>8) || buf[o+2] != byte(bg)
}

// frameToText recovers the '#'/'.' art of an RGBA frame.
func frameToText(buf []byte, bg uint32) string {
	var cells [DISPLAY_CELLS]bool
	for i := range cells {
		cells[i] = pixelLit(buf, i, bg)
	}
	return displayToText(&cells)
}
