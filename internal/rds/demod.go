package rds

import (
	"math"

	"go-fm-rds/internal/dsp"
)

const (
	// SubcarrierFreq is the RDS subcarrier in Hz, three times the stereo pilot.
	SubcarrierFreq = 57000.0
	// BitRate is the RDS bit rate in bit/s.
	BitRate = 1187.5
)

// LanczosWindow returns the sinc window of length n.
func LanczosWindow(n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		if 2*i == n+1 {
			w[i] = 1
			continue
		}
		t := 2*float64(i)/float64(n+1) - 1
		w[i] = math.Sin(math.Pi*t) / (math.Pi * t)
	}
	return w
}

// MatchedFilter returns the n tap RDS pulse filter for the given sample rate.
//
// The shape is a root-raised-cosine with hard cutoff at twice the bit rate,
//
//	h(t) = cos(pi*t) / (1 - 4*t^2),  t in units of 1/(4*bitrate)
//
// tapered by a Lanczos window and scaled by its energy, so that the peak
// filter output equals the input amplitude.
func MatchedFilter(sampleRate float64, n int) []float64 {
	w := make([]float64, n)
	for i := range w {
		t := (float64(i) - 0.5*float64(n-1)) * 4 * BitRate / sampleRate
		if math.Abs(math.Abs(t)-0.5) < 1e-4 {
			// lim t->0.5 of cos(pi*t)/(1-4t^2) is pi/4
			w[i] = 0.25*math.Pi - 0.25*math.Pi*(math.Abs(t)-0.5)
		} else {
			w[i] = math.Cos(math.Pi*t) / (1 - 4*t*t)
		}
	}

	var energy float64
	for i, l := range LanczosWindow(n) {
		w[i] *= l
		energy += w[i] * w[i]
	}
	for i := range w {
		w[i] /= energy
	}
	return w
}

// DefaultWindowLen returns the matched filter length used when none is
// configured: one and a half bit periods.
func DefaultWindowLen(sampleRate float64) int {
	return int(1.5 * sampleRate / BitRate)
}

// Demodulator recovers the RDS bit stream from the FM baseband signal.
//
// The 57 kHz subcarrier is mixed down to zero, and every bit period three
// matched filter correlations are taken: a1 at the sampling position, a2 half a
// bit later and a3 a quarter bit later. Biphase coding puts a1 and a2 in
// antiphase; the sign of a1 against the previous symbol gives the
// differentially decoded bit, and a3 says whether we sample early or late.
type Demodulator struct {
	mixer    *dsp.FrequencyShifter
	window   []float64
	bitSteps int

	buf    []complex64
	pos    int
	prevA1 complex128
}

// NewDemodulator creates a demodulator for baseband sampled at sampleRate Hz.
// A windowLen of zero selects DefaultWindowLen.
func NewDemodulator(sampleRate float64, windowLen int) (*Demodulator, error) {
	if !(sampleRate > 0) {
		return nil, ErrInvalidSampleRate
	}
	if sampleRate <= 2*SubcarrierFreq {
		return nil, ErrSampleRateTooLow
	}
	if windowLen == 0 {
		windowLen = DefaultWindowLen(sampleRate)
	}
	if windowLen < 2 {
		return nil, ErrWindowTooShort
	}
	return &Demodulator{
		mixer:    dsp.NewFrequencyShifter(-SubcarrierFreq / sampleRate),
		window:   MatchedFilter(sampleRate, windowLen),
		bitSteps: int(math.Round(sampleRate / BitRate)),
	}, nil
}

// BitSteps returns the nominal number of samples per bit.
func (d *Demodulator) BitSteps() int {
	return d.bitSteps
}

// WindowLen returns the matched filter length.
func (d *Demodulator) WindowLen() int {
	return len(d.window)
}

// Process consumes one block of baseband samples and returns the bits that
// could be decided, together with the squared carrier level of each bit.
// Samples not yet needed are kept for the next call.
func (d *Demodulator) Process(baseband []float32) ([]byte, []float64) {
	if len(baseband) == 0 {
		return nil, nil
	}
	in := make([]complex64, len(baseband))
	for i, x := range baseband {
		in[i] = complex(x, 0)
	}

	// Merge with remaining data from the previous block.
	d.buf = append(d.buf[:0], d.buf[d.pos:]...)
	d.buf = append(d.buf, d.mixer.Process(in)...)
	d.pos = 0

	steps := d.bitSteps
	wlen := len(d.window)
	var bits []byte
	var levels []float64

	for d.pos+steps+wlen < len(d.buf) {
		a1 := d.correlate(d.pos)
		a2 := d.correlate(d.pos + steps/2)
		a3 := d.correlate(d.pos + steps/4)

		// Opposite phase to the previous symbol is a 1 bit.
		sym := dot(a1, d.prevA1)
		d.prevA1 = a1
		if sym < 0 {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}

		a1a2 := dot(a1, a2)
		a1a3 := dot(a1, a3)
		levels = append(levels, -a1a2)
		d.pos += nextStep(steps, a1a2, a1a3)
	}
	return bits, levels
}

// nextStep decides how far to move the sampling position.
func nextStep(steps int, a1a2, a1a3 float64) int {
	switch {
	case a1a2 >= 0:
		// Both impulses in phase; we are badly misaligned.
		return 5 * steps / 8
	case a1a3 > -0.02*a1a2:
		// Middle phasor follows the first impulse: sampling too early.
		return 102 * steps / 100
	case a1a3 > -0.01*a1a2:
		return 101 * steps / 100
	case a1a3 < 0.02*a1a2:
		// Middle phasor opposes the first impulse: sampling too late.
		return 98 * steps / 100
	case a1a3 < 0.01*a1a2:
		return 99 * steps / 100
	}
	return steps
}

func (d *Demodulator) correlate(at int) complex128 {
	var re, im float64
	for i, w := range d.window {
		s := d.buf[at+i]
		re += float64(real(s)) * w
		im += float64(imag(s)) * w
	}
	return complex(re, im)
}

func dot(a, b complex128) float64 {
	return real(a)*real(b) + imag(a)*imag(b)
}
