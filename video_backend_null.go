package main

import (
	"sync"
	"sync/atomic"
)

// HeadlessVideoOutput counts frames and keeps the most recent one. Used
// for -video none, for headless builds and by tests.
type HeadlessVideoOutput struct {
	started     bool
	config      DisplayConfig
	frameCount  uint64
	refreshRate int

	mu        sync.Mutex
	lastFrame []byte
}

func NewHeadlessVideoOutput() *HeadlessVideoOutput {
	return &HeadlessVideoOutput{
		config:      DefaultDisplayConfig(),
		refreshRate: TIMER_HZ,
	}
}

func (h *HeadlessVideoOutput) Start() error {
	h.started = true
	return nil
}

func (h *HeadlessVideoOutput) Stop() error {
	h.started = false
	return nil
}

func (h *HeadlessVideoOutput) Close() error {
	h.started = false
	return nil
}

func (h *HeadlessVideoOutput) IsStarted() bool {
	return h.started
}

func (h *HeadlessVideoOutput) SetDisplayConfig(config DisplayConfig) error {
	h.config = config
	return nil
}

func (h *HeadlessVideoOutput) GetDisplayConfig() DisplayConfig {
	return h.config
}

func (h *HeadlessVideoOutput) UpdateFrame(buffer []byte) error {
	h.mu.Lock()
	h.lastFrame = append(h.lastFrame[:0], buffer...)
	h.mu.Unlock()
	atomic.AddUint64(&h.frameCount, 1)
	return nil
}

// LastFrame returns a copy of the most recent RGBA frame.
func (h *HeadlessVideoOutput) LastFrame() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]byte(nil), h.lastFrame...)
}

func (h *HeadlessVideoOutput) GetFrameCount() uint64 {
	return atomic.LoadUint64(&h.frameCount)
}

func (h *HeadlessVideoOutput) GetRefreshRate() int {
	if h.refreshRate == 0 {
		return TIMER_HZ
	}
	return h.refreshRate
}
