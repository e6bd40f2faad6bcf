package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"go-fm-rds/internal/config"
	"go-fm-rds/internal/iqsource"
	"go-fm-rds/internal/pipeline"
	"go-fm-rds/internal/ringbuffer"
)

// rootCmd demodulates one station and prints what its RDS data says.
var rootCmd = &cobra.Command{
	Use:   "go-fm-rds [file]",
	Short: "decode RDS from FM IQ recordings",
	Long: `Demodulate an FM broadcast from complex baseband samples and decode
its RDS data: station name, program type, radiotext, clock time and
alternate frequencies.

Samples are read from a WAV file, raw u8 (rtl_sdr) or s16le IQ, standard
input ("-") or a built-in test transmitter (--synthetic).`,
	Args:         cobra.MaximumNArgs(1),
	SilenceUsage: true,
	RunE:         run,
}

var errNoInput = errors.New("no input file, use - for standard input or --synthetic")

func init() {
	addFlags(rootCmd.Flags())
}

func addFlags(flags *pflag.FlagSet) {
	cfg := config.New()
	flags.String("format", "auto", "Sample format [auto|wav|u8|s16le]")
	flags.Int("rate", cfg.IQSampleRate, "IQ sample rate in Hz")
	flags.Int("if-rate", cfg.IntermediateRate, "Rate after channel filtering in Hz, must divide --rate")
	flags.Float64("offset", cfg.TuneOffset, "Station frequency relative to the IQ center in Hz")
	flags.Int("block", cfg.SampleBlockSize, "Samples per processing block")
	flags.Int("taps", cfg.FilterTaps, "Channel and audio filter length")
	flags.Int("rds-window", cfg.RDSWindowLen, "RDS matched filter length, 0 derives it from the rate")
	flags.Int("max-resync", cfg.MaxResync, "Report lost sync after this many failed group windows, 0 never does")
	flags.Float64("deemph", cfg.DeemphTau*1e6, "De-emphasis time constant in microseconds (50 Europe, 75 US)")
	flags.Bool("rbds", false, "Use North American program type names and call signs")
	flags.Bool("audio", false, "Play the demodulated mono audio")
	flags.Bool("tui", false, "Full screen station display")
	flags.Bool("synthetic", false, "Decode a built-in test transmission instead of a file")
	flags.String("name", "GO FM", "Station name of the test transmission")
	flags.String("text", "Hello from the synthetic transmitter", "Radiotext of the test transmission")
}

// loadConfig applies the command line to the defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()
	flags := cmd.Flags()

	var err error
	get := func(name string, dst *int) {
		if err == nil {
			*dst, err = flags.GetInt(name)
		}
	}
	get("rate", &cfg.IQSampleRate)
	get("if-rate", &cfg.IntermediateRate)
	get("block", &cfg.SampleBlockSize)
	get("taps", &cfg.FilterTaps)
	get("rds-window", &cfg.RDSWindowLen)
	get("max-resync", &cfg.MaxResync)
	if err != nil {
		return nil, err
	}
	if cfg.TuneOffset, err = flags.GetFloat64("offset"); err != nil {
		return nil, err
	}
	deemph, err := flags.GetFloat64("deemph")
	if err != nil {
		return nil, err
	}
	cfg.DeemphTau = deemph * 1e-6

	if cfg.RingBufferSize <= cfg.SampleBlockSize {
		cfg.RingBufferSize = 4 * cfg.SampleBlockSize
	}
	return cfg, cfg.Validate()
}

// openSource picks the sample source from the arguments.
func openSource(cmd *cobra.Command, args []string, cfg *config.Config) (iqsource.Source, func(), error) {
	flags := cmd.Flags()
	if synthetic, _ := flags.GetBool("synthetic"); synthetic {
		name, _ := flags.GetString("name")
		text, _ := flags.GetString("text")
		st := iqsource.Station{PI: 0xC0DE, PTY: 10, Name: name, Text: text, Round: 4}
		src, err := iqsource.NewSynthetic(st, float64(cfg.IQSampleRate), cfg.TuneOffset, cfg.SampleBlockSize)
		return src, func() {}, err
	}
	if len(args) == 0 {
		return nil, nil, errNoInput
	}

	formatName, _ := flags.GetString("format")
	format, err := iqsource.ParseFormat(formatName)
	if err != nil {
		return nil, nil, err
	}
	if args[0] == "-" {
		if format == iqsource.FormatAuto || format == iqsource.FormatWAV {
			format = iqsource.FormatS16LE
		}
		src, err := iqsource.NewRaw(os.Stdin, format, cfg.SampleBlockSize)
		return src, func() {}, err
	}

	log.Printf("[INFO] Opening %s", args[0])
	file, err := os.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	src, err := iqsource.Open(file, format, cfg.SampleBlockSize)
	if err != nil {
		file.Close()
		return nil, nil, err
	}
	if w, ok := src.(*iqsource.WAV); ok && w.SampleRate() != cfg.IQSampleRate {
		log.Printf("[INFO] WAV header says %d Hz, decoding at %d Hz", w.SampleRate(), cfg.IQSampleRate)
	}
	return src, func() { file.Close() }, nil
}

func run(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	src, closeSource, err := openSource(cmd, args, cfg)
	if err != nil {
		return err
	}
	defer closeSource()

	station, err := pipeline.New(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()

	flags := cmd.Flags()
	rbds, _ := flags.GetBool("rbds")
	var sinks []sink

	if enabled, _ := flags.GetBool("audio"); enabled {
		a, err := newAudioSink(cfg)
		if err != nil {
			return err
		}
		defer a.Close()
		sinks = append(sinks, a)
	}
	if enabled, _ := flags.GetBool("tui"); enabled {
		t, err := newScreenSink(rbds, cancel)
		if err != nil {
			return err
		}
		defer t.Close()
		sinks = append(sinks, t)
	} else {
		sinks = append(sinks, newLogSink(cfg, rbds))
	}

	rb := ringbuffer.New[complex64](cfg.RingBufferSize)
	outputs := make(chan pipeline.Output, 4)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return pipeline.Feed(ctx, src, rb)
	})
	g.Go(func() error {
		return station.Run(ctx, rb, outputs)
	})
	g.Go(func() error {
		for out := range outputs {
			for _, s := range sinks {
				if err := s.Write(out); err != nil {
					return err
				}
			}
		}
		return nil
	})

	err = g.Wait()
	for _, s := range sinks {
		if f, ok := s.(interface{ Flush() }); ok {
			f.Flush()
		}
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// sink receives every pipeline output in order.
type sink interface {
	Write(pipeline.Output) error
}
