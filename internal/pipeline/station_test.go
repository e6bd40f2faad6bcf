package pipeline

import (
	"context"
	"errors"
	"math"
	"reflect"
	"testing"

	"go-fm-rds/internal/config"
	"go-fm-rds/internal/iqsource"
	"go-fm-rds/internal/ringbuffer"
)

var testStation = iqsource.Station{PI: 0x5432, PTY: 5, Name: "RADIO 1", Text: "HELLO"}

func testConfig() *config.Config {
	cfg := config.New()
	cfg.TuneOffset = 150_000
	return cfg
}

func synthetic(t *testing.T, cfg *config.Config, rounds int) *iqsource.Synthetic {
	t.Helper()
	st := testStation
	st.Round = rounds
	src, err := iqsource.NewSynthetic(st, float64(cfg.IQSampleRate), cfg.TuneOffset, cfg.SampleBlockSize)
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.IntermediateRate = 300_000
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Expected ErrInvalid, got %v", err)
	}
	if _, err := NewAudio(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("Expected ErrInvalid from the audio path, got %v", err)
	}
}

func TestStation_DecodesSyntheticBroadcast(t *testing.T) {
	cfg := testConfig()
	station, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	src := synthetic(t, cfg, 3)

	var last Output
	var reports int
	for {
		block, err := src.ReadBlock()
		if err != nil {
			break
		}
		last = station.Process(block)
		reports += len(last.Reports)
	}

	ngroup, _, errhard := station.Stats()
	if ngroup < 15 {
		t.Errorf("Expected at least 15 of 18 groups, got %d", ngroup)
	}
	if reports != ngroup+errhard {
		t.Errorf("Expected one report per window, got %d for %d groups and %d retries", reports, ngroup, errhard)
	}

	data := station.Data()
	if got := data.ServiceName(); got != "RADIO 1" {
		t.Errorf("Expected service name RADIO 1, got %q", got)
	}
	if got := data.Radiotext(); got != "HELLO" {
		t.Errorf("Expected radiotext HELLO, got %q", got)
	}
	if data.PI != 0x5432 || data.PTY != 5 || !data.TP || !data.TA || !data.MS {
		t.Errorf("Unexpected basic fields: %+v", data)
	}
	if data.DI&1 == 0 {
		t.Error("Expected the stereo flag")
	}
	if !data.HasAF || len(data.AF) != 0 {
		t.Errorf("Expected an empty AF list, got %v", data.AF)
	}

	if !last.Locked {
		t.Error("Expected the pilot PLL locked by the end of the broadcast")
	}
	if f := station.PilotFrequency(); math.Abs(f-19000) > 5 {
		t.Errorf("Expected the pilot at 19 kHz, got %.2f Hz", f)
	}
	if lvl := station.PilotLevel(); lvl < 0.8*iqsource.PilotDeviation || lvl > 1.2*iqsource.PilotDeviation {
		t.Errorf("Expected a pilot level near %d Hz, got %.0f", iqsource.PilotDeviation, lvl)
	}
}

func TestStation_BlockSizeIndependent(t *testing.T) {
	run := func(blockSize int) ([]float32, []byte) {
		cfg := testConfig()
		cfg.SampleBlockSize = blockSize
		station, err := New(cfg)
		if err != nil {
			t.Fatal(err)
		}
		src := synthetic(t, cfg, 1)
		var freq []float32
		var bits []byte
		for {
			block, err := src.ReadBlock()
			if err != nil {
				return freq, bits
			}
			out := station.Process(block)
			freq = append(freq, out.Frequency...)
			bits = append(bits, out.Bits...)
		}
	}

	wantFreq, wantBits := run(16384)
	for _, size := range []int{5000, 777} {
		freq, bits := run(size)
		if !reflect.DeepEqual(freq, wantFreq) {
			t.Errorf("Block size %d: frequency stream differs", size)
		}
		if !reflect.DeepEqual(bits, wantBits) {
			t.Errorf("Block size %d: bit stream differs", size)
		}
	}
}

func TestRun_FeedThroughRingBuffer(t *testing.T) {
	cfg := testConfig()
	cfg.RingBufferSize = 4 * cfg.SampleBlockSize
	station, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	src := synthetic(t, cfg, 1)
	total := src.Len()

	rb := ringbuffer.New[complex64](cfg.RingBufferSize)
	out := make(chan Output)
	ctx := context.Background()

	feedErr := make(chan error, 1)
	go func() { feedErr <- Feed(ctx, src, rb) }()
	runErr := make(chan error, 1)
	go func() { runErr <- station.Run(ctx, rb, out) }()

	var samples int
	for o := range out {
		samples += len(o.Frequency)
	}
	if err := <-feedErr; err != nil {
		t.Errorf("Feed failed: %v", err)
	}
	if err := <-runErr; err != nil {
		t.Errorf("Run failed: %v", err)
	}
	if want := (total+3)/4 - 1; samples != want {
		t.Errorf("Expected %d detector samples, got %d", want, samples)
	}
	if got := station.Data().ServiceName(); got != "RADIO 1" {
		t.Errorf("Expected RADIO 1, got %q", got)
	}
}

func TestRun_Cancel(t *testing.T) {
	cfg := testConfig()
	station, err := New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	src := synthetic(t, cfg, 3)
	rb := ringbuffer.New[complex64](cfg.RingBufferSize)
	out := make(chan Output)
	ctx, cancel := context.WithCancel(context.Background())

	feedErr := make(chan error, 1)
	go func() { feedErr <- Feed(ctx, src, rb) }()
	runErr := make(chan error, 1)
	go func() { runErr <- station.Run(ctx, rb, out) }()

	<-out
	cancel()
	for range out {
	}
	if err := <-runErr; !errors.Is(err, context.Canceled) {
		t.Errorf("Expected Run to report cancellation, got %v", err)
	}
	if err := <-feedErr; err != nil && !errors.Is(err, context.Canceled) {
		t.Errorf("Unexpected Feed error: %v", err)
	}
}
