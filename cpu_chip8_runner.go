// cpu_chip8_runner.go - CHIP-8 frame scheduler

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
	"context"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

// Renderer presents the framebuffer. Called only when the draw flag was
// raised during the frame.
type Renderer interface {
	Render(display *[DISPLAY_CELLS]bool) error
}

// AudioSink receives the beeper gate, true while the sound timer runs.
type AudioSink interface {
	SetTone(on bool)
}

// InputSource writes key state into the keypad and reports host events
// such as quit or pause. Polled once per frame.
type InputSource interface {
	Poll(keypad *Chip8Keypad) HostEvent
}

// Chip8Runner is the frame scheduler: IPS/60 steps, one timer tick, then
// audio, render and input, paced to 60Hz.
type Chip8Runner struct {
	cpu      *CPUChip8
	renderer Renderer
	audio    AudioSink
	input    InputSource

	ips       int
	frameTime time.Duration
	toneOn    bool

	// breakCheck is consulted before every step. Set only while stopped.
	breakCheck func(pc uint16) bool

	requests chan HostEvent

	frames      atomic.Uint64
	measuredIPS atomic.Int64
	lastErr     atomic.Pointer[error]

	execMu     sync.Mutex
	execDone   chan struct{}
	execCancel context.CancelFunc
	execActive bool
}

func NewChip8Runner(cpu *CPUChip8, ips int) *Chip8Runner {
	if ips < MIN_IPS {
		ips = MIN_IPS
	}
	return &Chip8Runner{
		cpu:       cpu,
		ips:       ips,
		frameTime: FRAME_PERIOD,
		requests:  make(chan HostEvent, 8),
	}
}

func (r *Chip8Runner) SetRenderer(rd Renderer) {
	r.renderer = rd
}

func (r *Chip8Runner) SetAudioSink(a AudioSink) {
	r.audio = a
}

func (r *Chip8Runner) SetInputSource(in InputSource) {
	r.input = in
}

// SetBreakCheck installs a hook that pauses the VM before the instruction
// at pc executes when it returns true.
func (r *Chip8Runner) SetBreakCheck(fn func(pc uint16) bool) {
	r.breakCheck = fn
}

func (r *Chip8Runner) CPU() *CPUChip8 {
	return r.cpu
}

func (r *Chip8Runner) IPS() int {
	return r.ips
}

// StepsPerFrame is the instruction budget of one 1/60s frame.
func (r *Chip8Runner) StepsPerFrame() int {
	return max(1, r.ips/TIMER_HZ)
}

func (r *Chip8Runner) Frames() uint64 {
	return r.frames.Load()
}

func (r *Chip8Runner) MeasuredIPS() int64 {
	return r.measuredIPS.Load()
}

// PostEvent queues a host event for the scheduler goroutine. Events are
// dropped when the queue is full.
func (r *Chip8Runner) PostEvent(ev HostEvent) bool {
	select {
	case r.requests <- ev:
		return true
	default:
		return false
	}
}

// RunFrame executes one frame. It returns the stack fault that halted the
// VM, if any.
func (r *Chip8Runner) RunFrame() error {
	r.drainRequests()

	cpu := r.cpu
	steps := r.StepsPerFrame()
	for i := 0; i < steps; i++ {
		if cpu.State() != STATE_RUNNING {
			break
		}
		if r.breakCheck != nil && r.breakCheck(cpu.PC) {
			cpu.Pause()
			break
		}
		if err := cpu.Step(); err != nil {
			r.silence()
			return err
		}
	}
	if cpu.State() == STATE_RUNNING {
		cpu.TickTimers()
	}

	r.updateTone(cpu.State() == STATE_RUNNING && cpu.SoundActive())

	if cpu.DrawPending() && r.renderer != nil {
		display := cpu.ReadDisplay()
		if err := r.renderer.Render(&display); err != nil {
			fmt.Fprintf(os.Stderr, "chip8_runner: render failed: %v\n", err)
		}
		cpu.ClearDrawPending()
	}

	if r.input != nil {
		r.handleEvent(r.input.Poll(cpu.Keypad))
	}

	r.frames.Add(1)
	return nil
}

func (r *Chip8Runner) drainRequests() {
	for {
		select {
		case ev := <-r.requests:
			r.handleEvent(ev)
		default:
			return
		}
	}
}

func (r *Chip8Runner) handleEvent(ev HostEvent) {
	cpu := r.cpu
	switch ev.Type {
	case EventQuit:
		cpu.Halt()
	case EventReset:
		r.hardReset()
	case EventPause:
		if !cpu.Pause() {
			cpu.Resume()
		}
	case EventResume:
		cpu.Resume()
	case EventLoadProgram:
		rom, ok := ev.Data.([]byte)
		if !ok {
			return
		}
		if err := cpu.Load(rom); err != nil {
			fmt.Printf("Error loading program: %v\n", err)
			return
		}
		r.hardReset()
		fmt.Printf("Loaded %d byte program\n", len(rom))
	}
}

func (r *Chip8Runner) updateTone(on bool) {
	if on == r.toneOn {
		return
	}
	r.toneOn = on
	if r.audio != nil {
		r.audio.SetTone(on)
	}
}

func (r *Chip8Runner) silence() {
	r.updateTone(false)
}

// Run drives frames until the VM halts, ctx is cancelled or Stop is
// called. Work for a frame is followed by a sleep for the remainder of
// the frame budget.
func (r *Chip8Runner) Run(ctx context.Context) error {
	defer r.silence()

	var (
		windowStart  = time.Now()
		windowCycles = r.cpu.Cycles()
	)
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		start := time.Now()
		if err := r.RunFrame(); err != nil {
			r.lastErr.Store(&err)
			return err
		}
		if r.cpu.State() == STATE_HALTED {
			return nil
		}

		if since := time.Since(windowStart); since >= time.Second {
			cycles := r.cpu.Cycles()
			if cycles >= windowCycles {
				r.measuredIPS.Store(int64(float64(cycles-windowCycles) / since.Seconds()))
			}
			windowStart = time.Now()
			windowCycles = cycles
		}

		remaining := r.frameTime - time.Since(start)
		if remaining <= 0 {
			continue
		}
		timer.Reset(remaining)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// StartExecution runs the scheduler on its own goroutine.
func (r *Chip8Runner) StartExecution() {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	if r.execActive {
		return
	}
	r.execActive = true
	ctx, cancel := context.WithCancel(context.Background())
	r.execCancel = cancel
	r.execDone = make(chan struct{})
	go func() {
		defer func() {
			r.execMu.Lock()
			r.execActive = false
			close(r.execDone)
			r.execMu.Unlock()
		}()
		if err := r.Run(ctx); err != nil && err != context.Canceled {
			fmt.Printf("CHIP-8 halted: %v\n", err)
		}
	}()
}

// Stop cancels the scheduler goroutine and waits for it to exit. The VM
// keeps its lifecycle state.
func (r *Chip8Runner) Stop() {
	r.execMu.Lock()
	if !r.execActive {
		r.execMu.Unlock()
		return
	}
	r.execCancel()
	done := r.execDone
	r.execMu.Unlock()
	<-done
}

func (r *Chip8Runner) IsExecuting() bool {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	return r.execActive
}

// Done is closed when the scheduler goroutine exits. Nil if it was never
// started.
func (r *Chip8Runner) Done() <-chan struct{} {
	r.execMu.Lock()
	defer r.execMu.Unlock()
	return r.execDone
}

// Err returns the fault that stopped the last Run, if any.
func (r *Chip8Runner) Err() error {
	if p := r.lastErr.Load(); p != nil {
		return *p
	}
	return nil
}
