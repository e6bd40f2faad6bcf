package rds

import "math"

// Modulate renders bits as an RDS subcarrier signal sampled at sampleRate.
//
// Bits are differentially encoded and sent as biphase symbols: each bit is a
// pulse pair of opposite sign half a bit period apart, shaped like the matched
// filter and mixed onto the 57 kHz carrier. lead samples of silence precede
// the first bit. The output has peak pulse amplitude of roughly amplitude.
func Modulate(bits []byte, sampleRate, amplitude float64, lead int) []float32 {
	period := sampleRate / BitRate
	pulse := MatchedFilter(sampleRate, DefaultWindowLen(sampleRate))
	var peak float64
	for _, p := range pulse {
		peak = math.Max(peak, math.Abs(p))
	}

	n := lead + int(float64(len(bits))*period) + 2*len(pulse)
	x := make([]float64, n)
	level := 1.0
	for k, bit := range bits {
		if bit != 0 {
			level = -level
		}
		t0 := float64(lead) + float64(k)*period
		for _, imp := range [2]struct {
			offset float64
			sign   float64
		}{{0, level}, {period / 2, -level}} {
			start := int(math.Round(t0 + imp.offset))
			for j, p := range pulse {
				x[start+j] += imp.sign * p / peak
			}
		}
	}

	out := make([]float32, n)
	for i := range out {
		out[i] = float32(amplitude * x[i] * math.Cos(2*math.Pi*SubcarrierFreq*float64(i)/sampleRate))
	}
	return out
}
