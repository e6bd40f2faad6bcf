package pipeline

import (
	"math"
	"testing"

	"go-fm-rds/internal/config"
)

func tone(n int, rate, freq, deviation float64) []float32 {
	out := make([]float32, n)
	for i := range out {
		out[i] = float32(deviation * math.Sin(2*math.Pi*freq*float64(i)/rate))
	}
	return out
}

func TestAudio_Tone(t *testing.T) {
	cfg := config.New()
	a, err := NewAudio(cfg)
	if err != nil {
		t.Fatal(err)
	}
	in := tone(250_000, float64(cfg.IntermediateRate), 1000, 20_000)

	var pcm []int16
	for start := 0; start < len(in); start += 4096 {
		pcm = append(pcm, a.Process(in[start:min(start+4096, len(in))])...)
	}
	if len(pcm) != 50_000 {
		t.Fatalf("Expected 1 s at 50 kHz, got %d samples", len(pcm))
	}

	var peak int16
	for _, s := range pcm[10_000:] {
		peak = max(peak, s)
	}
	// 20 kHz of 75 kHz full scale, less the de-emphasis at 1 kHz.
	if peak < 7500 || peak > 9000 {
		t.Errorf("Expected a peak around 8300, got %d", peak)
	}
	if a.Clipped() != 0 {
		t.Errorf("Expected no clipping, got %d", a.Clipped())
	}
}

func TestAudio_Clipping(t *testing.T) {
	a, err := NewAudio(config.New())
	if err != nil {
		t.Fatal(err)
	}
	in := make([]float32, 10_000)
	for i := range in {
		in[i] = 200_000
	}
	pcm := a.Process(in)
	if pcm[len(pcm)-1] != math.MaxInt16 {
		t.Errorf("Expected full scale, got %d", pcm[len(pcm)-1])
	}
	if a.Clipped() == 0 {
		t.Error("Expected clipped samples to be counted")
	}
}
