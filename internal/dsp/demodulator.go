package dsp

import (
	"math"
	"math/cmplx"
)

// QuadratureDetector implements a polar discriminator for FM demodulation.
// Its output is the instantaneous frequency in Hz.
type QuadratureDetector struct {
	gain   float64
	prev   complex64
	primed bool
}

// NewQuadratureDetector creates a detector for a stream sampled at sampleRate Hz.
func NewQuadratureDetector(sampleRate float64) (*QuadratureDetector, error) {
	if !(sampleRate > 0) {
		return nil, ErrInvalidSampleRate
	}
	return &QuadratureDetector{gain: sampleRate / (2 * math.Pi)}, nil
}

// Process demodulates a block of complex IQ samples. The very first sample of
// the stream has no predecessor and produces no output; every later sample,
// including the first one of each following block, produces exactly one.
func (d *QuadratureDetector) Process(samples []complex64) []float32 {
	if len(samples) == 0 {
		return nil
	}
	prev := d.prev
	if !d.primed {
		prev = samples[0]
		samples = samples[1:]
		d.primed = true
	}

	output := make([]float32, len(samples))
	for i, current := range samples {
		// Multiply the current sample by the conjugate of the previous one.
		// The angle of the resulting complex number is the phase difference.
		p := complex128(current) * cmplx.Conj(complex128(prev))
		output[i] = float32(cmplx.Phase(p) * d.gain)
		prev = current
	}

	// Save the last sample of the current block for the next call.
	d.prev = prev
	return output
}

// Reset forgets the carried sample.
func (d *QuadratureDetector) Reset() {
	d.prev = 0
	d.primed = false
}
