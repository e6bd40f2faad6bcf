package iqsource

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WAV reads IQ pairs stored as the left and right channel of a WAV file, the
// format SDR# and friends record baseband in.
type WAV struct {
	decoder *wav.Decoder
	buf     *audio.IntBuffer
	scale   float32
	bias    float32
	done    bool
}

// NewWAV parses the header of r and positions the reader at the sample data.
func NewWAV(r io.ReadSeeker, blockSize int) (*WAV, error) {
	if blockSize < 1 {
		return nil, ErrInvalidBlockSize
	}
	decoder := wav.NewDecoder(r)
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: not a WAV file", ErrUnsupportedWAV)
	}
	// Move to start of PCM/IQ data
	if err := decoder.FwdToPCM(); err != nil {
		return nil, fmt.Errorf("iqsource: seek to PCM data: %w", err)
	}
	if decoder.NumChans != 2 {
		return nil, fmt.Errorf("%w: %d channels", ErrUnsupportedWAV, decoder.NumChans)
	}

	s := &WAV{decoder: decoder}
	switch decoder.BitDepth {
	case 8:
		// 8 bit WAV samples are unsigned.
		s.scale, s.bias = 127.5, 127.5
	case 16:
		s.scale = 32768
	default:
		return nil, fmt.Errorf("%w: %d bit samples", ErrUnsupportedWAV, decoder.BitDepth)
	}
	s.buf = &audio.IntBuffer{
		Format: decoder.Format(),
		Data:   make([]int, blockSize*2), // 2 = I+Q
	}
	return s, nil
}

// SampleRate returns the rate from the WAV header.
func (s *WAV) SampleRate() int {
	return int(s.decoder.SampleRate)
}

// ReadBlock reads the next block of samples.
func (s *WAV) ReadBlock() ([]complex64, error) {
	if s.done {
		return nil, io.EOF
	}
	n, err := s.decoder.PCMBuffer(s.buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, err
	}
	if n < len(s.buf.Data) {
		s.done = true
	}
	if n < 2 {
		return nil, io.EOF
	}

	block := make([]complex64, n/2)
	for i := range block {
		iVal := (float32(s.buf.Data[2*i]) - s.bias) / s.scale
		qVal := (float32(s.buf.Data[2*i+1]) - s.bias) / s.scale
		block[i] = complex(iVal, qVal)
	}
	return block, nil
}
