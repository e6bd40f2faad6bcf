// Package pipeline chains the DSP stages from IQ samples to decoded RDS data.
package pipeline

import (
	"context"
	"fmt"
	"math"

	"go-fm-rds/internal/config"
	"go-fm-rds/internal/dsp"
	"go-fm-rds/internal/rds"
	"go-fm-rds/internal/ringbuffer"
)

// Output is the result of processing one IQ block.
type Output struct {
	// Frequency is the detector output at the intermediate rate, in Hz.
	Frequency []float32
	Pilot     dsp.PLLOutput
	Locked    bool

	// PilotHz and PilotLevel are the PLL estimates after this block.
	PilotHz    float64
	PilotLevel float64

	Bits    []byte
	Reports []rds.Report
}

// Station demodulates one FM broadcast and decodes its RDS data.
type Station struct {
	cfg *config.Config

	shifter  *dsp.FrequencyShifter
	channel  *dsp.ComplexFIRFilter
	detector *dsp.QuadratureDetector
	pilot    *dsp.PLL
	demod    *rds.Demodulator
	decoder  *rds.Decoder
}

// New builds a station pipeline from cfg. The configuration is validated
// first; no block is processed with invalid settings.
func New(cfg *config.Config) (*Station, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	iqRate := float64(cfg.IQSampleRate)
	ifRate := float64(cfg.IntermediateRate)

	channel, err := dsp.NewComplexFIRFilter(dsp.DesignFIRLowPass(cfg.FilterTaps, cfg.ChannelCutoff/iqRate))
	if err != nil {
		return nil, fmt.Errorf("channel filter: %w", err)
	}
	detector, err := dsp.NewQuadratureDetector(ifRate)
	if err != nil {
		return nil, fmt.Errorf("detector: %w", err)
	}
	pilot, err := dsp.NewPLL(cfg.PilotFreq/ifRate, cfg.PilotBandwidth/ifRate)
	if err != nil {
		return nil, fmt.Errorf("pilot PLL: %w", err)
	}
	pilot.SetMinSignal(cfg.PilotMinLevel)
	demod, err := rds.NewDemodulator(ifRate, cfg.RDSWindowLen)
	if err != nil {
		return nil, fmt.Errorf("RDS demodulator: %w", err)
	}

	return &Station{
		cfg:      cfg,
		shifter:  dsp.NewFrequencyShifter(-cfg.TuneOffset / iqRate),
		channel:  channel,
		detector: detector,
		pilot:    pilot,
		demod:    demod,
		decoder:  rds.NewDecoder(rds.WithMaxResync(cfg.MaxResync)),
	}, nil
}

// Process runs one block of IQ samples through every stage.
func (s *Station) Process(block []complex64) Output {
	if s.cfg.TuneOffset != 0 {
		block = s.shifter.Process(block)
	}
	baseband := s.channel.Decimate(block, s.cfg.Downsample())
	freq := s.detector.Process(baseband)

	out := Output{Frequency: freq}
	out.Pilot = s.pilot.Process(freq)
	out.Locked = s.pilot.Locked()
	out.PilotHz = s.PilotFrequency()
	out.PilotLevel = s.PilotLevel()
	out.Bits, _ = s.demod.Process(freq)
	out.Reports = s.decoder.Push(out.Bits)
	return out
}

// Data returns the current station record.
func (s *Station) Data() rds.Data {
	return s.decoder.Data()
}

// Stats returns the RDS group and error counters.
func (s *Station) Stats() (ngroup, errsoft, errhard int) {
	return s.decoder.Stats()
}

// PilotFrequency returns the pilot PLL estimate in Hz.
func (s *Station) PilotFrequency() float64 {
	return s.pilot.FrequencyHz(float64(s.cfg.IntermediateRate))
}

// PilotLevel returns the pilot level of the last block in Hz of deviation.
func (s *Station) PilotLevel() float64 {
	return 2 * math.Max(s.pilot.Level(), 0)
}

// Run reads blocks of cfg.SampleBlockSize samples from rb until it is closed
// and sends one Output per block. out is closed when Run returns. Cancelling
// ctx closes rb.
func (s *Station) Run(ctx context.Context, rb *ringbuffer.RingBuffer[complex64], out chan<- Output) error {
	defer close(out)
	stop := context.AfterFunc(ctx, rb.Close)
	defer stop()

	for {
		block := rb.Read(s.cfg.SampleBlockSize)
		// If Read returns nil, the buffer is closed and empty.
		if block == nil {
			return ctx.Err()
		}
		select {
		case out <- s.Process(block):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
