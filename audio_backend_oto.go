//go:build !headless

// audio_backend_oto.go - OTO v3 beeper output

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
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

func init() {
	compiledFeatures = append(compiledFeatures, "audio:oto")
}

// OtoBeeper plays a square wave while the sound timer is running.
type OtoBeeper struct {
	ctx       *oto.Context
	player    *oto.Player
	gate      atomic.Bool // Atomic for lock-free Read()
	osc       squareOsc
	sampleBuf []float32 // Pre-allocated sample buffer
	started   bool
	mutex     sync.Mutex // Only for setup/control operations
}

func NewOtoBeeper(sampleRate int) (*OtoBeeper, error) {
	op := &oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 1,
		Format:       oto.FormatFloat32LE,
		BufferSize:   BEEP_BUFFER,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, err
	}
	<-ready

	b := &OtoBeeper{
		ctx:       ctx,
		osc:       newSquareOsc(sampleRate, BEEP_FREQUENCY, BEEP_AMPLITUDE),
		sampleBuf: make([]float32, 1024),
	}
	b.player = ctx.NewPlayer(b)
	return b, nil
}

// Read fills p with float32 samples. Silence when the gate is closed.
func (b *OtoBeeper) Read(p []byte) (n int, err error) {
	numSamples := len(p) / 4
	if numSamples == 0 {
		return len(p), nil
	}
	if len(b.sampleBuf) < numSamples {
		b.sampleBuf = make([]float32, numSamples)
	}
	samples := b.sampleBuf[:numSamples]
	b.osc.fill(samples, b.gate.Load())

	copy(p, unsafe.Slice((*byte)(unsafe.Pointer(&samples[0])), numSamples*4))
	return len(p), nil
}

func (b *OtoBeeper) SetTone(on bool) {
	b.gate.Store(on)
}

func (b *OtoBeeper) Start() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if !b.started && b.player != nil {
		b.player.Play()
		b.started = true
	}
}

func (b *OtoBeeper) Stop() {
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.started && b.player != nil {
		b.player.Pause()
		b.started = false
	}
}

func (b *OtoBeeper) Close() {
	b.Stop()
	b.mutex.Lock()
	defer b.mutex.Unlock()

	if b.player != nil {
		b.player.Close()
		b.player = nil
	}
}

func (b *OtoBeeper) IsStarted() bool {
	b.mutex.Lock()
	defer b.mutex.Unlock()
	return b.started
}

// Reset closes the gate. Preserves the oto context and player.
func (b *OtoBeeper) Reset() {
	b.gate.Store(false)
}
