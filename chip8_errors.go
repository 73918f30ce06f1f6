package main

import (
	"errors"
	"fmt"
)

var (
	ErrRomTooLarge    = errors.New("rom too large")
	ErrRomUnreadable  = errors.New("rom unreadable")
	ErrStackOverflow  = errors.New("stack overflow")
	ErrStackUnderflow = errors.New("stack underflow")
)

// Chip8Error provides detailed error context for VM operations
type Chip8Error struct {
	Operation string // What operation was being attempted
	Details   string // Additional error context
	Err       error  // Sentinel or underlying error
}

func (e *Chip8Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("chip8 %s failed: %s: %v", e.Operation, e.Details, e.Err)
	}
	return fmt.Sprintf("chip8 %s failed: %s", e.Operation, e.Details)
}

func (e *Chip8Error) Unwrap() error {
	return e.Err
}
