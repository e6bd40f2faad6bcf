package dsp

import "math"

// FrequencyShifter mixes a complex stream with a unit phasor of fixed frequency.
type FrequencyShifter struct {
	freq  float64 // turns per sample
	phase float64 // turns, in [0, 1)
}

// NewFrequencyShifter creates a shifter that moves the spectrum up by
// normalizedFreq (cycles per sample, 0.5 is Nyquist). Use a negative value to
// move a station at +f down to zero.
func NewFrequencyShifter(normalizedFreq float64) *FrequencyShifter {
	_, frac := math.Modf(normalizedFreq)
	return &FrequencyShifter{freq: frac}
}

// Phase returns the accumulated mixer phase in turns.
func (s *FrequencyShifter) Phase() float64 {
	return s.phase
}

// Reset puts the mixer phase back to zero.
func (s *FrequencyShifter) Reset() {
	s.phase = 0
}

// Process shifts one block. The phase advances once per sample and carries over
// to the next call.
func (s *FrequencyShifter) Process(block []complex64) []complex64 {
	if len(block) == 0 {
		return nil
	}
	output := make([]complex64, len(block))
	for i, x := range block {
		sin, cos := math.Sincos(2 * math.Pi * s.phase)
		output[i] = x * complex(float32(cos), float32(sin))
		s.phase = wrapTurns(s.phase + s.freq)
	}
	return output
}

// wrapTurns maps p into [0, 1).
func wrapTurns(p float64) float64 {
	p -= math.Floor(p)
	if p >= 1 {
		p = 0
	}
	return p
}
