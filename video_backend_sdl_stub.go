//go:build !sdl || headless

package main

func NewSDLOutput() (VideoOutput, error) {
	return nil, &VideoError{
		Operation: "backend creation",
		Details:   "SDL backend not compiled in (build with -tags sdl)",
	}
}
