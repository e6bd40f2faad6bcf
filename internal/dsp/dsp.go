package dsp

import "math"

// DesignFIRLowPass creates a low-pass FIR filter using the windowed-sinc method.
// cutoff is relative to the sample rate (0.5 is Nyquist).
func DesignFIRLowPass(numTaps int, cutoff float64) []float64 {
	if numTaps <= 1 {
		return []float64{1}
	}
	taps := make([]float64, numTaps)
	M := float64(numTaps - 1)
	// The cutoff frequency must be normalized to the Nyquist frequency (0.5 * sample_rate)
	fc := cutoff * 2
	for n := 0; n < numTaps; n++ {
		x := float64(n) - M/2
		if x == 0 {
			taps[n] = fc
		} else {
			taps[n] = fc * math.Sin(math.Pi*fc*x) / (math.Pi * fc * x)
		}
		// Apply Hamming window
		taps[n] *= 0.54 - 0.46*math.Cos(2*math.Pi*float64(n)/M)
	}
	// Normalize
	sum := 0.0
	for _, t := range taps {
		sum += t
	}
	for i := range taps {
		taps[i] /= sum
	}
	return taps
}

// FMModulator turns a frequency signal (Hz) into a unit-amplitude IQ stream.
// It is the inverse of QuadratureDetector and is mostly useful for building
// test signals.
type FMModulator struct {
	sampleRate float64
	center     float64
	phase      float64 // turns
}

// NewFMModulator creates a modulator with the carrier at center Hz.
func NewFMModulator(sampleRate, center float64) (*FMModulator, error) {
	if !(sampleRate > 0) {
		return nil, ErrInvalidSampleRate
	}
	return &FMModulator{sampleRate: sampleRate, center: center}, nil
}

// Process modulates one block of frequency samples.
func (m *FMModulator) Process(freq []float32) []complex64 {
	output := make([]complex64, len(freq))
	for i, f := range freq {
		_, m.phase = math.Modf(m.phase + (float64(f)+m.center)/m.sampleRate)
		sin, cos := math.Sincos(2 * math.Pi * m.phase)
		output[i] = complex(float32(cos), float32(sin))
	}
	return output
}
