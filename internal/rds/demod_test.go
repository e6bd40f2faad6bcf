package rds

import (
	"errors"
	"math"
	"math/rand/v2"
	"reflect"
	"testing"
)

func TestNewDemodulator_Validation(t *testing.T) {
	tests := []struct {
		name       string
		sampleRate float64
		windowLen  int
		want       error
	}{
		{"zero rate", 0, 0, ErrInvalidSampleRate},
		{"NaN rate", math.NaN(), 0, ErrInvalidSampleRate},
		{"below subcarrier Nyquist", 96_000, 0, ErrSampleRateTooLow},
		{"one tap window", 250_000, 1, ErrWindowTooShort},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewDemodulator(tt.sampleRate, tt.windowLen); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}

	d, err := NewDemodulator(250_000, 0)
	if err != nil {
		t.Fatal(err)
	}
	if d.BitSteps() != 211 {
		t.Errorf("Expected 211 samples per bit, got %d", d.BitSteps())
	}
	if d.WindowLen() != DefaultWindowLen(250_000) {
		t.Errorf("Expected default window, got %d", d.WindowLen())
	}
}

func TestMatchedFilter_Shape(t *testing.T) {
	w := MatchedFilter(250_000, DefaultWindowLen(250_000))

	var peak float64
	peakAt := 0
	for i, x := range w {
		if x > peak {
			peak, peakAt = x, i
		}
		if math.IsNaN(x) || math.IsInf(x, 0) {
			t.Fatalf("Tap %d is not finite", i)
		}
	}
	if mid := len(w) / 2; peakAt < mid-1 || peakAt > mid+1 {
		t.Errorf("Expected the peak near tap %d, got %d", mid, peakAt)
	}
	for i := range w {
		j := len(w) - 1 - i
		if !almostEqual(w[i], w[j], 0.05*peak) {
			t.Fatalf("Filter not symmetric at %d: %g vs %g", i, w[i], w[j])
		}
	}
}

func TestMatchedFilter_CorrelatesToAmplitude(t *testing.T) {
	w := MatchedFilter(250_000, DefaultWindowLen(250_000))
	// A pulse of the unscaled shape and amplitude 3.
	scale := 3 / sumSquares(w)
	var acc float64
	for _, x := range w {
		acc += scale * x * x
	}
	if !almostEqual(acc, 3, 1e-9) {
		t.Errorf("Expected a self correlation of 3, got %g", acc)
	}
}

func sumSquares(w []float64) float64 {
	var s float64
	for _, x := range w {
		s += x * x
	}
	return s
}

func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) <= tolerance
}

// stationSignal renders three rounds of the "RADIO 1 " name groups with a
// pilot and a loud 1 kHz tone on top, the way they appear after FM detection.
func stationSignal(sampleRate float64) ([]byte, []float32) {
	return skewedStationSignal(sampleRate, 1, 0)
}

// skewedStationSignal is stationSignal with the transmitter clock running at
// skew times the receiver's and Gaussian noise of the given deviation added.
func skewedStationSignal(sampleRate, skew, noise float64) ([]byte, []float32) {
	var bits []byte
	for range 3 {
		bits = append(bits, concat(stationBits()...)...)
	}
	sig := Modulate(bits, sampleRate*skew, 2000, 1000)
	rng := rand.New(rand.NewPCG(1, 2))
	for i := range sig {
		t := float64(i) / sampleRate
		sig[i] += float32(6750*math.Cos(2*math.Pi*19000*t) + 20000*math.Sin(2*math.Pi*1000*t))
		if noise > 0 {
			sig[i] += float32(noise * rng.NormFloat64())
		}
	}
	return bits, sig
}

func demodulate(d *Demodulator, sig []float32, chunk int) ([]byte, []float64) {
	var bits []byte
	var levels []float64
	for start := 0; start < len(sig); start += chunk {
		end := min(start+chunk, len(sig))
		b, l := d.Process(sig[start:end])
		bits = append(bits, b...)
		levels = append(levels, l...)
	}
	return bits, levels
}

func TestDemodulator_BlockSizeIndependent(t *testing.T) {
	_, sig := stationSignal(250_000)

	whole, _ := NewDemodulator(250_000, 0)
	want, wantLevels := whole.Process(sig)

	for _, chunk := range []int{4096, 1000, 333} {
		d, _ := NewDemodulator(250_000, 0)
		got, levels := demodulate(d, sig, chunk)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("Chunk %d: bit stream differs from whole-signal run", chunk)
		}
		if len(levels) != len(wantLevels) {
			t.Errorf("Chunk %d: expected %d levels, got %d", chunk, len(wantLevels), len(levels))
		}
	}
}

func TestDemodulator_EmptyBlock(t *testing.T) {
	d, _ := NewDemodulator(250_000, 0)
	bits, levels := d.Process(nil)
	if bits != nil || levels != nil {
		t.Error("Expected no output for an empty block")
	}
}

func TestDemodulator_DecodesStation(t *testing.T) {
	for _, tc := range []struct {
		sampleRate float64
		chunk      int
	}{
		{250_000, 4096},
		{228_000, 1000},
		{300_000, 333},
	} {
		_, sig := stationSignal(tc.sampleRate)
		d, err := NewDemodulator(tc.sampleRate, 0)
		if err != nil {
			t.Fatal(err)
		}
		bits, levels := demodulate(d, sig, tc.chunk)
		if len(bits) != len(levels) {
			t.Fatalf("Expected one level per bit, got %d and %d", len(levels), len(bits))
		}

		dec := NewDecoder()
		dec.Push(bits)
		ngroup, _, _ := dec.Stats()
		if ngroup < 10 {
			t.Errorf("%.0f Hz: expected at least 10 of 12 groups, got %d", tc.sampleRate, ngroup)
		}
		data := dec.Data()
		if got := data.ServiceName(); got != "RADIO 1" {
			t.Errorf("%.0f Hz: expected RADIO 1, got %q", tc.sampleRate, got)
		}
		if data.PI != testPI || data.PTY != 5 {
			t.Errorf("%.0f Hz: expected PI %04X PTY 5, got %04X PTY %d", tc.sampleRate, testPI, data.PI, data.PTY)
		}
	}
}

func TestNextStep(t *testing.T) {
	tests := []struct {
		name       string
		a1a2, a1a3 float64
		want       int
	}{
		{"in phase", 0.5, 0, 131},
		{"far too early", -1, 0.05, 215},
		{"too early", -1, 0.015, 213},
		{"centered", -1, 0, 211},
		{"too late", -1, -0.015, 208},
		{"far too late", -1, -0.05, 206},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := nextStep(211, tt.a1a2, tt.a1a3); got != tt.want {
				t.Errorf("nextStep(211, %g, %g) = %d, want %d", tt.a1a2, tt.a1a3, got, tt.want)
			}
		})
	}
}

func TestDemodulator_TracksClockSkew(t *testing.T) {
	for _, skew := range []float64{0.999, 1.001} {
		_, sig := skewedStationSignal(250_000, skew, 800)
		d, _ := NewDemodulator(250_000, 0)
		bits, _ := demodulate(d, sig, 4096)

		dec := NewDecoder()
		dec.Push(bits)
		if ngroup, _, _ := dec.Stats(); ngroup < 10 {
			t.Errorf("Skew %g: expected at least 10 of 12 groups, got %d", skew, ngroup)
		}
		if got := dec.Data().ServiceName(); got != "RADIO 1" {
			t.Errorf("Skew %g: expected RADIO 1, got %q", skew, got)
		}
	}
}
