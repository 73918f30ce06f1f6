package main

import "time"

const (
	BEEP_SAMPLE_RATE = 44100
	BEEP_FREQUENCY   = 440
	BEEP_AMPLITUDE   = 0.25
	BEEP_BUFFER      = 50 * time.Millisecond
)

// squareOsc is a phase-accumulating square wave. The phase keeps running
// while gated off so that re-opening the gate does not click.
type squareOsc struct {
	phase     float64
	step      float64
	amplitude float32
}

func newSquareOsc(sampleRate, freq int, amplitude float32) squareOsc {
	return squareOsc{
		step:      float64(freq) / float64(sampleRate),
		amplitude: amplitude,
	}
}

func (o *squareOsc) fill(dst []float32, gate bool) {
	for i := range dst {
		var s float32
		if gate {
			if o.phase < 0.5 {
				s = o.amplitude
			} else {
				s = -o.amplitude
			}
		}
		dst[i] = s
		o.phase += o.step
		if o.phase >= 1 {
			o.phase -= 1
		}
	}
}
