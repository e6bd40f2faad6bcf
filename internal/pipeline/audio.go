package pipeline

import (
	"math"

	"go-fm-rds/internal/config"
	"go-fm-rds/internal/dsp"
)

// fullScaleDeviation maps to full scale PCM.
const fullScaleDeviation = 75_000.0

// Audio turns the detector output into mono PCM for listening: low-pass,
// resample to the output rate and de-emphasis.
type Audio struct {
	filter  *dsp.FIRFilter
	deemph  *dsp.Deemphasis
	ratio   float64
	gain    float64
	clipped int64
}

// NewAudio creates the audio path for cfg.
func NewAudio(cfg *config.Config) (*Audio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	taps := dsp.DesignFIRLowPass(cfg.FilterTaps, cfg.AudioFilterCutoff/float64(cfg.IntermediateRate))
	filter, err := dsp.NewFIRFilter(taps)
	if err != nil {
		return nil, err
	}
	return &Audio{
		filter: filter,
		deemph: dsp.NewDeemphasis(cfg.OutputSampleRate, cfg.DeemphTau),
		ratio:  float64(cfg.OutputSampleRate) / float64(cfg.IntermediateRate),
		gain:   32767 / fullScaleDeviation,
	}, nil
}

// Process converts one block of frequency samples (Hz) to 16 bit PCM.
func (a *Audio) Process(freq []float32) []int16 {
	resampled := a.filter.Process(freq, a.ratio)
	pcm := make([]int16, len(resampled))
	for i, x := range a.deemph.Process(resampled) {
		v := math.Round(float64(x) * a.gain)
		// Handle clipping
		if v > math.MaxInt16 {
			a.clipped++
			v = math.MaxInt16
		} else if v < math.MinInt16 {
			a.clipped++
			v = math.MinInt16
		}
		pcm[i] = int16(v)
	}
	return pcm
}

// Clipped returns the number of samples clipped so far.
func (a *Audio) Clipped() int64 {
	return a.clipped
}
