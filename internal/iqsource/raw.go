package iqsource

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
)

// Raw reads headerless interleaved I/Q samples.
type Raw struct {
	r         *bufio.Reader
	format    Format
	blockSize int
	buf       []byte
	done      bool
}

// NewRaw creates a raw reader. format must be FormatU8 or FormatS16LE.
func NewRaw(r io.Reader, format Format, blockSize int) (*Raw, error) {
	if blockSize < 1 {
		return nil, ErrInvalidBlockSize
	}
	width := 0
	switch format {
	case FormatU8:
		width = 2
	case FormatS16LE:
		width = 4
	default:
		return nil, fmt.Errorf("%w: %v is not a raw format", ErrUnknownFormat, format)
	}
	return &Raw{
		r:         bufio.NewReaderSize(r, 1<<16),
		format:    format,
		blockSize: blockSize,
		buf:       make([]byte, blockSize*width),
	}, nil
}

// ReadBlock reads the next block of samples. A trailing partial sample is
// dropped.
func (s *Raw) ReadBlock() ([]complex64, error) {
	if s.done {
		return nil, io.EOF
	}
	n, err := io.ReadFull(s.r, s.buf)
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		s.done = true
	} else if err != nil {
		return nil, err
	}

	var block []complex64
	switch s.format {
	case FormatU8:
		block = make([]complex64, n/2)
		for i := range block {
			block[i] = complex(u8(s.buf[2*i]), u8(s.buf[2*i+1]))
		}
	case FormatS16LE:
		block = make([]complex64, n/4)
		for i := range block {
			iVal := int16(binary.LittleEndian.Uint16(s.buf[4*i:]))
			qVal := int16(binary.LittleEndian.Uint16(s.buf[4*i+2:]))
			block[i] = complex(float32(iVal)/32768.0, float32(qVal)/32768.0)
		}
	}
	if len(block) == 0 {
		return nil, io.EOF
	}
	return block, nil
}

func u8(b byte) float32 {
	return (float32(b) - 127.5) / 127.5
}
