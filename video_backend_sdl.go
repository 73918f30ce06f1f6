//go:build sdl && !headless

// video_backend_sdl.go - SDL2 video backend

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
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	compiledFeatures = append(compiledFeatures, "video:sdl")
}

var sdlKeyLayout = [NUM_KEYS]sdl.Keycode{
	sdl.K_x, sdl.K_1, sdl.K_2, sdl.K_3,
	sdl.K_q, sdl.K_w, sdl.K_e, sdl.K_a,
	sdl.K_s, sdl.K_d, sdl.K_z, sdl.K_c,
	sdl.K_4, sdl.K_r, sdl.K_f, sdl.K_v,
}

// SDLOutput owns an SDL window on a dedicated, locked OS thread. All SDL
// calls happen on that thread; the scheduler only swaps frame buffers and
// reads the key mask.
type SDLOutput struct {
	config DisplayConfig

	mu          sync.Mutex
	frameBuffer []byte
	dirty       bool

	keyMask    atomic.Uint32
	events     chan HostEvent
	frameCount atomic.Uint64
	running    atomic.Bool
	stopCh     chan struct{}
	done       chan struct{}
}

func NewSDLOutput() (VideoOutput, error) {
	return &SDLOutput{
		config:      DefaultDisplayConfig(),
		frameBuffer: make([]byte, DISPLAY_CELLS*4),
		events:      make(chan HostEvent, 8),
	}, nil
}

func (s *SDLOutput) Start() error {
	if s.running.Load() {
		return nil
	}
	s.stopCh = make(chan struct{})
	s.done = make(chan struct{})
	ready := make(chan error, 1)
	go s.loop(ready)
	if err := <-ready; err != nil {
		return err
	}
	s.running.Store(true)
	return nil
}

func (s *SDLOutput) loop(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()
	defer close(s.done)

	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		ready <- &VideoError{Operation: "init", Details: "SDL_Init", Err: err}
		return
	}
	defer sdl.Quit()

	scale := int32(ClampScale(s.config.Scale))
	w, h := int32(DISPLAY_WIDTH), int32(DISPLAY_HEIGHT)
	window, err := sdl.CreateWindow("Intuition Chip8", sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED, w*scale, h*scale, sdl.WINDOW_SHOWN)
	if err != nil {
		ready <- &VideoError{Operation: "init", Details: "create window", Err: err}
		return
	}
	defer window.Destroy()

	renderer, err := sdl.CreateRenderer(window, -1, sdl.RENDERER_ACCELERATED)
	if err != nil {
		ready <- &VideoError{Operation: "init", Details: "create renderer", Err: err}
		return
	}
	defer renderer.Destroy()

	texture, err := renderer.CreateTexture(sdl.PIXELFORMAT_ARGB8888,
		sdl.TEXTUREACCESS_STREAMING, w, h)
	if err != nil {
		ready <- &VideoError{Operation: "init", Details: "create texture", Err: err}
		return
	}
	defer texture.Destroy()
	ready <- nil

	ticker := time.NewTicker(FRAME_PERIOD)
	defer ticker.Stop()
	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
		}
		if !s.pumpEvents() {
			return
		}
		if err := s.present(renderer, texture, scale); err != nil {
			fmt.Printf("SDL error: %v\n", err)
			return
		}
	}
}

// pumpEvents drains the SDL queue into the key mask and host events.
// Returns false once the window was closed or Esc pressed.
func (s *SDLOutput) pumpEvents() bool {
	mask := s.keyMask.Load()
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch t := event.(type) {
		case *sdl.QuitEvent:
			s.postEvent(HostEvent{Type: EventQuit})
			return false
		case *sdl.KeyboardEvent:
			down := t.Type == sdl.KEYDOWN
			if down && t.Repeat == 0 {
				switch t.Keysym.Sym {
				case sdl.K_ESCAPE:
					s.postEvent(HostEvent{Type: EventQuit})
					return false
				case sdl.K_p:
					s.postEvent(HostEvent{Type: EventPause})
				case sdl.K_F10:
					s.postEvent(HostEvent{Type: EventReset})
				}
			}
			for i, key := range sdlKeyLayout {
				if t.Keysym.Sym != key {
					continue
				}
				if down {
					mask |= 1 << i
				} else {
					mask &^= 1 << i
				}
			}
		}
	}
	s.keyMask.Store(mask)
	return true
}

func (s *SDLOutput) present(renderer *sdl.Renderer, texture *sdl.Texture, scale int32) error {
	s.mu.Lock()
	if !s.dirty {
		s.mu.Unlock()
		return nil
	}
	pixels, pitch, err := texture.Lock(nil)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	// RGBA in, ARGB8888 (BGRA in memory on little endian) out.
	for y := 0; y < DISPLAY_HEIGHT; y++ {
		for x := 0; x < DISPLAY_WIDTH; x++ {
			src := (y*DISPLAY_WIDTH + x) * 4
			dst := y*pitch + x*4
			pixels[dst] = s.frameBuffer[src+2]
			pixels[dst+1] = s.frameBuffer[src+1]
			pixels[dst+2] = s.frameBuffer[src]
			pixels[dst+3] = 0xFF
		}
	}
	s.dirty = false
	s.mu.Unlock()
	texture.Unlock()

	if err := renderer.Clear(); err != nil {
		return err
	}
	if err := renderer.Copy(texture,
		&sdl.Rect{X: 0, Y: 0, W: DISPLAY_WIDTH, H: DISPLAY_HEIGHT},
		&sdl.Rect{X: 0, Y: 0, W: DISPLAY_WIDTH * scale, H: DISPLAY_HEIGHT * scale}); err != nil {
		return err
	}
	renderer.Present()
	s.frameCount.Add(1)
	return nil
}

func (s *SDLOutput) postEvent(ev HostEvent) {
	select {
	case s.events <- ev:
	default:
	}
}

func (s *SDLOutput) Poll(keypad *Chip8Keypad) HostEvent {
	mask := s.keyMask.Load()
	for i := 0; i < NUM_KEYS; i++ {
		keypad.Set(i, mask&(1<<i) != 0)
	}
	select {
	case ev := <-s.events:
		return ev
	default:
		return HostEvent{}
	}
}

// Done is closed when the SDL thread exits.
func (s *SDLOutput) Done() <-chan struct{} {
	return s.done
}

func (s *SDLOutput) Stop() error {
	if !s.running.CompareAndSwap(true, false) {
		return nil
	}
	close(s.stopCh)
	<-s.done
	return nil
}

func (s *SDLOutput) Close() error {
	return s.Stop()
}

func (s *SDLOutput) IsStarted() bool {
	return s.running.Load()
}

func (s *SDLOutput) SetDisplayConfig(config DisplayConfig) error {
	if s.running.Load() {
		return &VideoError{Operation: "configure", Details: "SDL window already open"}
	}
	s.config = config
	return nil
}

func (s *SDLOutput) GetDisplayConfig() DisplayConfig {
	return s.config
}

func (s *SDLOutput) UpdateFrame(buffer []byte) error {
	s.mu.Lock()
	copy(s.frameBuffer, buffer)
	s.dirty = true
	s.mu.Unlock()
	return nil
}

func (s *SDLOutput) GetFrameCount() uint64 {
	return s.frameCount.Load()
}

func (s *SDLOutput) GetRefreshRate() int {
	return TIMER_HZ
}
