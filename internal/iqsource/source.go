// Package iqsource reads complex baseband samples from files, pipes and a
// built-in signal generator.
package iqsource

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-audio/wav"
)

var (
	// ErrUnknownFormat is returned by ParseFormat for unsupported names.
	ErrUnknownFormat = errors.New("iqsource: unknown sample format")
	// ErrUnsupportedWAV is returned for WAV files that do not hold 8 or 16 bit IQ pairs.
	ErrUnsupportedWAV = errors.New("iqsource: unsupported WAV layout")
	// ErrInvalidBlockSize is returned for block sizes below one sample.
	ErrInvalidBlockSize = errors.New("iqsource: block size must be positive")
)

// Source delivers IQ samples in blocks. ReadBlock returns io.EOF once the
// stream is exhausted; the last block before that may be short.
type Source interface {
	ReadBlock() ([]complex64, error)
}

// Format is the sample layout of an IQ stream.
type Format int

const (
	FormatAuto  Format = iota // WAV if the header says so, raw s16le otherwise
	FormatU8                  // interleaved unsigned 8 bit, as written by rtl_sdr
	FormatS16LE               // interleaved signed 16 bit little endian
	FormatWAV                 // 2 channel WAV, 8 or 16 bit
)

// ParseFormat maps a command line name to a Format.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(name) {
	case "", "auto":
		return FormatAuto, nil
	case "u8", "rtl":
		return FormatU8, nil
	case "s16", "s16le":
		return FormatS16LE, nil
	case "wav":
		return FormatWAV, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

func (f Format) String() string {
	switch f {
	case FormatU8:
		return "u8"
	case FormatS16LE:
		return "s16le"
	case FormatWAV:
		return "wav"
	}
	return "auto"
}

// Open returns a Source for r in the given format. FormatAuto checks for a WAV
// header and falls back to raw 16 bit samples.
func Open(r io.ReadSeeker, format Format, blockSize int) (Source, error) {
	if format == FormatAuto {
		format = FormatS16LE
		if wav.NewDecoder(r).IsValidFile() {
			format = FormatWAV
		}
		if _, err := r.Seek(0, io.SeekStart); err != nil {
			return nil, fmt.Errorf("iqsource: rewind: %w", err)
		}
	}
	if format == FormatWAV {
		return NewWAV(r, blockSize)
	}
	return NewRaw(r, format, blockSize)
}
