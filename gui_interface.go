package main

import (
	"fmt"
	"os"
)

type HostEventType int

const (
	EventNone HostEventType = iota
	EventQuit
	EventReset
	EventPause
	EventResume
	EventLoadProgram
)

func (t HostEventType) String() string {
	switch t {
	case EventNone:
		return "none"
	case EventQuit:
		return "quit"
	case EventReset:
		return "reset"
	case EventPause:
		return "pause"
	case EventResume:
		return "resume"
	case EventLoadProgram:
		return "load"
	}
	return fmt.Sprintf("event(%d)", int(t))
}

type HostEvent struct {
	Type HostEventType
	Data any
}

// EmulatorActions is the set of operations a front end can trigger. Every
// action is queued to the scheduler goroutine, which owns the VM.
type EmulatorActions struct {
	runner *Chip8Runner
}

func NewEmulatorActions(runner *Chip8Runner) *EmulatorActions {
	return &EmulatorActions{runner: runner}
}

func (a *EmulatorActions) LoadProgram(filename string) error {
	rom, err := os.ReadFile(filename)
	if err != nil {
		return &Chip8Error{Operation: "load", Details: err.Error(), Err: ErrRomUnreadable}
	}
	if len(rom) > CHIP8_MAX_ROM_SIZE {
		return &Chip8Error{
			Operation: "load",
			Details:   fmt.Sprintf("%s is %d bytes", filename, len(rom)),
			Err:       ErrRomTooLarge,
		}
	}
	if !a.runner.PostEvent(HostEvent{Type: EventLoadProgram, Data: rom}) {
		return fmt.Errorf("failed to load program: event queue full")
	}
	return nil
}

func (a *EmulatorActions) Reset() {
	a.runner.PostEvent(HostEvent{Type: EventReset})
}

func (a *EmulatorActions) TogglePause() {
	a.runner.PostEvent(HostEvent{Type: EventPause})
}

func (a *EmulatorActions) Resume() {
	a.runner.PostEvent(HostEvent{Type: EventResume})
}

func (a *EmulatorActions) Quit() {
	a.runner.PostEvent(HostEvent{Type: EventQuit})
}

func (a *EmulatorActions) About() string {
	return `Intuition Chip8
(c) 2024 - 2026 Zayn Otley

https://github.com/intuitionamiga/IntuitionChip8

A CHIP-8 virtual machine with COSMAC VIP and Amiga compatibility modes.`
}
