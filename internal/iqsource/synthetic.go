package iqsource

import (
	"fmt"
	"io"
	"math"

	"go-fm-rds/internal/dsp"
	"go-fm-rds/internal/rds"
)

// Station describes the broadcast the Synthetic source transmits.
type Station struct {
	PI    uint16
	PTY   uint8
	Name  string // up to 8 characters
	Text  string // radiotext, up to 64 characters, optional
	Round int    // times the group sequence is sent
}

// Groups returns the group sequence for one round: four 0A groups carrying
// the service name, then the 2A radiotext groups.
func (st Station) Groups() [][4]uint16 {
	name := fmt.Sprintf("%-8.8s", st.Name)
	b := 0x0400 | uint16(st.PTY&0x1F)<<5 // TP

	var groups [][4]uint16
	for seg := range 4 {
		// TA, music; DI bit 0 (stereo) goes out with segment 0
		bb := b | 0x0010 | 0x0008 | uint16(seg)
		if seg == 0 {
			bb |= 0x0004
		}
		groups = append(groups, [4]uint16{st.PI, bb, 0xE0CD, pair(name[2*seg:])})
	}

	if st.Text != "" {
		text := st.Text
		if len(text) > 64 {
			text = text[:64]
		}
		if len(text) < 64 {
			text += "\r"
		}
		for seg := 0; 4*seg < len(text); seg++ {
			chunk := fmt.Sprintf("%-4s", text[4*seg:min(4*seg+4, len(text))])
			bb := 2<<12 | b | uint16(seg)
			groups = append(groups, [4]uint16{st.PI, bb, pair(chunk), pair(chunk[2:])})
		}
	}
	return groups
}

func pair(s string) uint16 {
	return uint16(s[0])<<8 | uint16(s[1])
}

// Deviations of the multiplex components in Hz.
const (
	PilotDeviation = 6750
	RDSDeviation   = 2000
	ToneDeviation  = 20000
	ToneFreq       = 1000
)

// Synthetic is an FM transmitter in a box: a 1 kHz tone, the 19 kHz pilot and
// an RDS subcarrier, frequency modulated onto a carrier at Offset from the IQ
// center.
type Synthetic struct {
	iq        []complex64
	pos       int
	blockSize int
}

// NewSynthetic renders the whole transmission up front.
func NewSynthetic(st Station, sampleRate, offset float64, blockSize int) (*Synthetic, error) {
	if blockSize < 1 {
		return nil, ErrInvalidBlockSize
	}
	fm, err := dsp.NewFMModulator(sampleRate, offset)
	if err != nil {
		return nil, err
	}

	var bits []byte
	for range max(st.Round, 1) {
		for _, g := range st.Groups() {
			bits = append(bits, rds.EncodeGroup(g[0], g[1], g[2], g[3])...)
		}
	}
	mpx := rds.Modulate(bits, sampleRate, RDSDeviation, 1000)
	for i := range mpx {
		t := float64(i) / sampleRate
		mpx[i] += float32(PilotDeviation*math.Cos(2*math.Pi*19000*t) + ToneDeviation*math.Sin(2*math.Pi*ToneFreq*t))
	}

	return &Synthetic{iq: fm.Process(mpx), blockSize: blockSize}, nil
}

// Len returns the total number of samples.
func (s *Synthetic) Len() int {
	return len(s.iq)
}

// ReadBlock returns the next block of samples.
func (s *Synthetic) ReadBlock() ([]complex64, error) {
	if s.pos >= len(s.iq) {
		return nil, io.EOF
	}
	end := min(s.pos+s.blockSize, len(s.iq))
	block := append([]complex64(nil), s.iq[s.pos:end]...)
	s.pos = end
	return block, nil
}
