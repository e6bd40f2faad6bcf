package config

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every error returned from Validate.
var ErrInvalid = errors.New("invalid configuration")

// Config holds all the configuration parameters for the application.
type Config struct {
	IQSampleRate     int     // input rate in Hz
	IntermediateRate int     // rate after channel filtering, feeds the detector
	TuneOffset       float64 // Hz; the station sits this far from the IQ center
	SampleBlockSize  int
	FilterTaps       int
	RingBufferSize   int
	ChannelCutoff    float64 // Hz

	PilotFreq      float64 // Hz
	PilotBandwidth float64 // Hz
	PilotMinLevel  float64 // Hz of deviation

	RDSWindowLen int // matched filter length in samples, 0 derives it from the bit rate
	MaxResync    int // consecutive resync retries before reporting lost sync, 0 is unbounded

	OutputSampleRate  int
	AudioFilterCutoff float64 // Hz
	DeemphTau         float64
}

// New returns a new Config with default values.
func New() *Config {
	return &Config{
		IQSampleRate:      1_000_000,
		IntermediateRate:  250_000,
		TuneOffset:        0,
		SampleBlockSize:   16384,
		FilterTaps:        31,
		RingBufferSize:    2 * 1_000_000, // 2s of IQ
		ChannelCutoff:     100_000,
		PilotFreq:         19_000,
		PilotBandwidth:    30,
		PilotMinLevel:     100,
		RDSWindowLen:      0,
		MaxResync:         0,
		OutputSampleRate:  50_000,
		AudioFilterCutoff: 15_000,
		DeemphTau:         50e-6, // 50us for Europe
	}
}

// Downsample returns the integer decimation from the IQ rate to the intermediate rate.
func (c *Config) Downsample() int {
	return c.IQSampleRate / c.IntermediateRate
}

// Validate rejects configurations that would make the pipeline produce garbage.
func (c *Config) Validate() error {
	switch {
	case c.IQSampleRate <= 0:
		return fmt.Errorf("%w: IQ sample rate %d", ErrInvalid, c.IQSampleRate)
	case c.IntermediateRate <= 0 || c.IntermediateRate > c.IQSampleRate:
		return fmt.Errorf("%w: intermediate rate %d", ErrInvalid, c.IntermediateRate)
	case c.IQSampleRate%c.IntermediateRate != 0:
		return fmt.Errorf("%w: intermediate rate %d does not divide %d", ErrInvalid, c.IntermediateRate, c.IQSampleRate)
	case c.SampleBlockSize < 1:
		return fmt.Errorf("%w: block size %d", ErrInvalid, c.SampleBlockSize)
	case c.FilterTaps < 1:
		return fmt.Errorf("%w: filter taps %d", ErrInvalid, c.FilterTaps)
	case c.RingBufferSize <= c.SampleBlockSize:
		return fmt.Errorf("%w: ring buffer %d cannot hold a block", ErrInvalid, c.RingBufferSize)
	case c.ChannelCutoff <= 0 || 2*c.ChannelCutoff > float64(c.IQSampleRate):
		return fmt.Errorf("%w: channel cutoff %.0f Hz", ErrInvalid, c.ChannelCutoff)
	case c.PilotFreq <= 0 || c.PilotBandwidth <= 0:
		return fmt.Errorf("%w: pilot %.0f Hz +/- %.0f Hz", ErrInvalid, c.PilotFreq, c.PilotBandwidth)
	case 2*(c.PilotFreq+c.PilotBandwidth) >= float64(c.IntermediateRate):
		return fmt.Errorf("%w: pilot above Nyquist of %d Hz", ErrInvalid, c.IntermediateRate)
	case c.RDSWindowLen < 0 || c.RDSWindowLen == 1:
		return fmt.Errorf("%w: RDS window length %d", ErrInvalid, c.RDSWindowLen)
	case c.MaxResync < 0:
		return fmt.Errorf("%w: resync cap %d", ErrInvalid, c.MaxResync)
	case c.OutputSampleRate <= 0 || c.OutputSampleRate > c.IntermediateRate:
		return fmt.Errorf("%w: output rate %d", ErrInvalid, c.OutputSampleRate)
	case c.DeemphTau < 0:
		return fmt.Errorf("%w: de-emphasis %g", ErrInvalid, c.DeemphTau)
	}
	return nil
}
