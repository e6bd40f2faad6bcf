package dsp

import "math"

// PLLOutput holds the per-sample traces of one PLL.Process call.
type PLLOutput struct {
	Reference  []float64 // cos(phase), the locked in-phase tone
	Doubled    []float64 // sin(2*phase), the locked tone at twice the frequency
	PhaseError []float64
	Frequency  []float64 // radians per sample
}

// PLL is a second-order digital phase-locked loop that tracks a pilot tone.
//
// The input is multiplied by the local sine and cosine, both products pass a
// two-pole low-pass, and their ratio estimates the phase error. A one-zero loop
// filter turns the error into a frequency correction. The frequency is clamped
// to the design band so the loop stays stable when there is nothing to lock to.
type PLL struct {
	minFreq, maxFreq float64
	freq             float64
	phase            float64

	// phase detector filter: y = b0*x - a1*y1 - a2*y2
	phasorB0, phasorA1, phasorA2 float64
	phasorI1, phasorI2           float64
	phasorQ1, phasorQ2           float64

	// loop filter: y = b0*x + b1*x1
	loopB0, loopB1 float64
	loopX1         float64

	minSignal float64
	level     float64
	lockDelay int
	lockCount int
}

// NewPLL creates a loop centered on centerFreq with a capture range of
// +/- bandwidth. Both are relative to the sample rate.
func NewPLL(centerFreq, bandwidth float64) (*PLL, error) {
	if !(bandwidth > 0) || !(centerFreq > bandwidth) || centerFreq+bandwidth >= 0.5 {
		return nil, ErrInvalidBandwidth
	}
	w := bandwidth * 2 * math.Pi
	p1 := math.Exp(-1.146 * w)
	p2 := math.Exp(-5.331 * w)
	a1 := -(p1 + p2)
	a2 := p1 * p2
	lz := math.Exp(-0.1153 * w)

	return &PLL{
		minFreq:   (centerFreq - bandwidth) * 2 * math.Pi,
		maxFreq:   (centerFreq + bandwidth) * 2 * math.Pi,
		freq:      centerFreq * 2 * math.Pi,
		phasorB0:  1 + a1 + a2,
		phasorA1:  a1,
		phasorA2:  a2,
		loopB0:    0.62 * w,
		loopB1:    -0.62 * w * lz,
		lockDelay: int(15.0 / bandwidth),
	}, nil
}

// SetMinSignal sets the in-phase level the pilot must exceed for the loop to
// count as locked. The level is in input units.
func (p *PLL) SetMinSignal(level float64) {
	p.minSignal = level
}

// Process runs the loop over one block of real samples.
func (p *PLL) Process(input []float32) PLLOutput {
	n := len(input)
	out := PLLOutput{
		Reference:  make([]float64, n),
		Doubled:    make([]float64, n),
		PhaseError: make([]float64, n),
		Frequency:  make([]float64, n),
	}
	if n == 0 {
		return out
	}

	level := math.Inf(1)
	for i, x := range input {
		psin, pcos := math.Sincos(p.phase)
		out.Reference[i] = pcos
		out.Doubled[i] = 2 * psin * pcos
		out.Frequency[i] = p.freq

		pi := p.phasorB0*pcos*float64(x) - p.phasorA1*p.phasorI1 - p.phasorA2*p.phasorI2
		pq := p.phasorB0*psin*float64(x) - p.phasorA1*p.phasorQ1 - p.phasorA2*p.phasorQ2
		p.phasorI2, p.phasorI1 = p.phasorI1, pi
		p.phasorQ2, p.phasorQ1 = p.phasorQ1, pq

		var perr float64
		switch {
		case pi > math.Abs(pq):
			perr = pq / pi
		case pq > 0:
			perr = 1
		default:
			perr = -1
		}
		out.PhaseError[i] = perr
		level = math.Min(level, pi)

		dfreq := p.loopB0*perr + p.loopB1*p.loopX1
		p.loopX1 = perr

		p.freq = math.Max(p.minFreq, math.Min(p.maxFreq, p.freq-dfreq))
		p.phase += p.freq
		if p.phase > 2*math.Pi {
			p.phase -= 2 * math.Pi
		}
		if p.phase < -2*math.Pi {
			p.phase += 2 * math.Pi
		}
	}

	p.level = level
	if 2*level > p.minSignal {
		if p.lockCount < p.lockDelay {
			p.lockCount += n
		}
	} else {
		p.lockCount = 0
	}
	return out
}

// Frequency returns the current frequency estimate in radians per sample.
func (p *PLL) Frequency() float64 {
	return p.freq
}

// FrequencyHz converts the current estimate to Hz.
func (p *PLL) FrequencyHz(sampleRate float64) float64 {
	return p.freq * sampleRate / (2 * math.Pi)
}

// Phase returns the current local phase in radians.
func (p *PLL) Phase() float64 {
	return p.phase
}

// Level returns the smallest filtered in-phase value seen in the last block.
func (p *PLL) Level() float64 {
	return p.level
}

// Locked reports whether the pilot level has stayed above the minimum for the
// lock delay.
func (p *PLL) Locked() bool {
	return p.lockCount >= p.lockDelay
}
