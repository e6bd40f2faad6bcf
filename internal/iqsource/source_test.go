package iqsource

import (
	"bytes"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"go-fm-rds/internal/dsp"
)

func readAll(t *testing.T, src Source) []complex64 {
	t.Helper()
	var out []complex64
	for {
		block, err := src.ReadBlock()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("ReadBlock failed: %v", err)
		}
		out = append(out, block...)
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{"": FormatAuto, "u8": FormatU8, "RTL": FormatU8, "s16le": FormatS16LE, "wav": FormatWAV}
	for name, want := range tests {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v; want %v", name, got, err, want)
		}
	}
	if _, err := ParseFormat("f32"); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

func TestRaw_U8(t *testing.T) {
	data := []byte{0, 255, 128, 127, 255, 0, 7}
	src, err := NewRaw(bytes.NewReader(data), FormatU8, 2)
	if err != nil {
		t.Fatal(err)
	}
	got := readAll(t, src)
	want := []complex64{complex(-1, 1), complex(0.5/127.5, -0.5/127.5), complex(1, -1)}
	if len(got) != len(want) {
		t.Fatalf("Expected %d samples (trailing byte dropped), got %d", len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(real(got[i]-want[i]))) > 1e-6 || math.Abs(float64(imag(got[i]-want[i]))) > 1e-6 {
			t.Errorf("Sample %d: expected %v, got %v", i, want[i], got[i])
		}
	}
}

func TestRaw_S16LE(t *testing.T) {
	data := []byte{0x00, 0x40, 0x00, 0xC0, 0xFF, 0x7F, 0x00, 0x80}
	src, err := NewRaw(bytes.NewReader(data), FormatS16LE, 16)
	if err != nil {
		t.Fatal(err)
	}
	block, err := src.ReadBlock()
	if err != nil {
		t.Fatal(err)
	}
	want := []complex64{complex(0.5, -0.5), complex(32767.0/32768, -1)}
	if len(block) != 2 || block[0] != want[0] || block[1] != want[1] {
		t.Errorf("Expected %v, got %v", want, block)
	}
	if _, err := src.ReadBlock(); !errors.Is(err, io.EOF) {
		t.Errorf("Expected io.EOF after the short block, got %v", err)
	}
}

func TestRaw_RejectsBadArguments(t *testing.T) {
	if _, err := NewRaw(bytes.NewReader(nil), FormatU8, 0); !errors.Is(err, ErrInvalidBlockSize) {
		t.Errorf("Expected ErrInvalidBlockSize, got %v", err)
	}
	if _, err := NewRaw(bytes.NewReader(nil), FormatWAV, 8); !errors.Is(err, ErrUnknownFormat) {
		t.Errorf("Expected ErrUnknownFormat, got %v", err)
	}
}

// writeWAV records n IQ pairs ramping through the 16 bit range.
func writeWAV(t *testing.T, n int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "iq.wav")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	enc := wav.NewEncoder(f, 250_000, 16, 2, 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: 2, SampleRate: 250_000},
		Data:           make([]int, 2*n),
		SourceBitDepth: 16,
	}
	for i := 0; i < n; i++ {
		buf.Data[2*i] = i * 64
		buf.Data[2*i+1] = -i * 64
	}
	if err := enc.Write(buf); err != nil {
		t.Fatal(err)
	}
	if err := enc.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestWAV_ReadsIQPairs(t *testing.T) {
	path := writeWAV(t, 500)
	for _, format := range []Format{FormatWAV, FormatAuto} {
		f, err := os.Open(path)
		if err != nil {
			t.Fatal(err)
		}
		src, err := Open(f, format, 128)
		if err != nil {
			t.Fatalf("%v: %v", format, err)
		}
		if w, ok := src.(*WAV); !ok || w.SampleRate() != 250_000 {
			t.Fatalf("%v: expected a 250 kHz WAV source, got %T", format, src)
		}
		got := readAll(t, src)
		f.Close()

		if len(got) != 500 {
			t.Fatalf("%v: expected 500 samples, got %d", format, len(got))
		}
		for _, i := range []int{0, 1, 255, 499} {
			want := complex(float32(i*64)/32768, float32(-i*64)/32768)
			if got[i] != want {
				t.Errorf("%v: sample %d expected %v, got %v", format, i, want, got[i])
			}
		}
	}
}

func TestOpen_AutoFallsBackToRaw(t *testing.T) {
	data := []byte{0x00, 0x40, 0x00, 0xC0}
	src, err := Open(bytes.NewReader(data), FormatAuto, 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := src.(*Raw); !ok {
		t.Fatalf("Expected a raw source, got %T", src)
	}
	if got := readAll(t, src); len(got) != 1 || got[0] != complex(0.5, -0.5) {
		t.Errorf("Expected one sample read from the start, got %v", got)
	}
}

func TestStation_Groups(t *testing.T) {
	st := Station{PI: 0x5432, PTY: 5, Name: "RADIO 1", Text: "HELLO"}
	groups := st.Groups()
	if len(groups) != 6 {
		t.Fatalf("Expected 4 name and 2 text groups, got %d", len(groups))
	}
	var name []byte
	for seg, g := range groups[:4] {
		if g[0] != 0x5432 || g[1]>>12 != 0 || int(g[1]&3) != seg || (g[1]>>5)&0x1F != 5 {
			t.Errorf("Segment %d: unexpected block B %04X", seg, g[1])
		}
		name = append(name, byte(g[3]>>8), byte(g[3]))
	}
	if string(name) != "RADIO 1 " {
		t.Errorf("Expected padded name, got %q", name)
	}
	if g := groups[5]; g[1]>>12 != 2 || g[2] != 'O'<<8|'\r' {
		t.Errorf("Expected text terminated by CR, got %04X %04X", g[1], g[2])
	}
}

func TestSynthetic_Blocks(t *testing.T) {
	st := Station{PI: 0x5432, Name: "TEST"}
	src, err := NewSynthetic(st, 250_000, 50_000, 1000)
	if err != nil {
		t.Fatal(err)
	}
	got := readAll(t, src)
	if len(got) != src.Len() {
		t.Fatalf("Expected %d samples, got %d", src.Len(), len(got))
	}
	if want := 4 * 104 * 250_000 * 2 / 2375; src.Len() < want {
		t.Errorf("Expected at least %d samples, got %d", want, src.Len())
	}

	// Unit amplitude, centered at the offset.
	det, _ := dsp.NewQuadratureDetector(250_000)
	freq := det.Process(got)
	var mean float64
	for _, f := range freq {
		mean += float64(f)
	}
	mean /= float64(len(freq))
	if math.Abs(mean-50_000) > 100 {
		t.Errorf("Expected the carrier at 50 kHz, got %.1f Hz", mean)
	}
	for i, s := range got[:100] {
		if m := math.Hypot(float64(real(s)), float64(imag(s))); math.Abs(m-1) > 1e-5 {
			t.Fatalf("Sample %d has magnitude %g", i, m)
		}
	}

	if _, err := NewSynthetic(st, 0, 0, 1000); !errors.Is(err, dsp.ErrInvalidSampleRate) {
		t.Errorf("Expected ErrInvalidSampleRate, got %v", err)
	}
}
