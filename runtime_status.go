package main

import "sync"

type runtimeStatusSnapshot struct {
	runner *Chip8Runner
	cpu    *CPUChip8

	videoBackend string
	audioBackend string
	romName      string
}

type runtimeStatusStore struct {
	mu sync.RWMutex
	runtimeStatusSnapshot
}

func (s *runtimeStatusStore) setRunner(runner *Chip8Runner) {
	s.mu.Lock()
	s.runner = runner
	if runner != nil {
		s.cpu = runner.CPU()
	} else {
		s.cpu = nil
	}
	s.mu.Unlock()
}

func (s *runtimeStatusStore) setBackends(video, audio string) {
	s.mu.Lock()
	s.videoBackend = video
	s.audioBackend = audio
	s.mu.Unlock()
}

func (s *runtimeStatusStore) setROM(name string) {
	s.mu.Lock()
	s.romName = name
	s.mu.Unlock()
}

func (s *runtimeStatusStore) snapshot() runtimeStatusSnapshot {
	s.mu.RLock()
	snap := s.runtimeStatusSnapshot
	s.mu.RUnlock()
	return snap
}

var runtimeStatus = &runtimeStatusStore{}
