//go:build headless

package main

import "sync/atomic"

func init() {
	compiledFeatures = append(compiledFeatures, "audio:headless")
}

type OtoBeeper struct {
	started bool
	gate    atomic.Bool
}

func NewOtoBeeper(sampleRate int) (*OtoBeeper, error) {
	return &OtoBeeper{}, nil
}

func (b *OtoBeeper) Read(p []byte) (n int, err error) {
	clear(p)
	return len(p), nil
}

func (b *OtoBeeper) SetTone(on bool) {
	b.gate.Store(on)
}

func (b *OtoBeeper) Start() {
	b.started = true
}

func (b *OtoBeeper) Stop() {
	b.started = false
}

func (b *OtoBeeper) Close() {
	b.started = false
}

func (b *OtoBeeper) IsStarted() bool {
	return b.started
}

func (b *OtoBeeper) Reset() {
	b.gate.Store(false)
}
