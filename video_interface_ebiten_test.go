//go:build !headless

package main

import "testing"

func TestEbitenOutput_IsInputSource(t *testing.T) {
	eo := &EbitenOutput{}
	if _, ok := any(eo).(InputSource); !ok {
		t.Fatal("expected EbitenOutput to implement InputSource")
	}
	if _, ok := any(eo).(componentResetter); !ok {
		t.Fatal("expected EbitenOutput to implement componentResetter")
	}
}

func TestEbitenOutput_SnapshotFeedsClipboardText(t *testing.T) {
	var cells [DISPLAY_CELLS]bool
	cells[0] = true
	cells[DISPLAY_CELLS-1] = true
	const fg, bg = 0xFFFFFF, 0x000000
	eo := &EbitenOutput{
		width:       DISPLAY_WIDTH,
		height:      DISPLAY_HEIGHT,
		bg:          bg,
		frameBuffer: displayToRGBA(&cells, fg, bg, nil),
	}

	snap, err := eo.GetSnapshot()
	if err != nil {
		t.Fatalf("GetSnapshot: %v", err)
	}
	if snap.Width != DISPLAY_WIDTH || snap.Height != DISPLAY_HEIGHT {
		t.Fatalf("snapshot is %dx%d", snap.Width, snap.Height)
	}
	want := displayToText(&cells)

	// Later frames must not leak into a taken snapshot.
	for i := range eo.frameBuffer {
		eo.frameBuffer[i] = 0xFF
	}
	if got := snap.Text(bg); got != want {
		t.Fatalf("snapshot text changed after frame update:\n%s", got)
	}
}
