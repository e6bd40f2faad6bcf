package rds

import (
	"fmt"
	"strings"
	"time"
)

// AFMode selects how alternate frequency codes 1..204 are read.
type AFMode int

const (
	AFModeVHF  AFMode = iota // 87.6 - 107.9 MHz in 100 kHz steps
	AFModeLFMF               // LF/MF in 9 kHz steps, announced by code 250
)

// AFState is the alternate frequency list builder: AFIdle or AFCollecting.
// A nil AFState, as in a zero Data, is idle; Data.AFBuilder never returns nil.
type AFState interface {
	afState()
}

// AFIdle means no list is being collected.
type AFIdle struct{}

// AFCollecting holds a list that has been announced but is not complete yet.
type AFCollecting struct {
	Expected  int
	Mode      AFMode
	Collected []float64
}

func (AFIdle) afState()       {}
func (AFCollecting) afState() {}

const (
	afFirstLength = 224
	afLastLength  = 249
	afLFMF        = 250
	afFirstFreq   = 1
	afLastFreq    = 204
)

// stepAF feeds one AF code into the builder. When the code completes a list,
// the list is returned with published set.
func stepAF(s AFState, code uint8) (next AFState, list []float64, published bool) {
	c, collecting := s.(AFCollecting)
	if collecting && len(c.Collected) >= c.Expected {
		collecting = false
	}

	switch {
	case code >= afFirstLength && code <= afLastLength:
		n := int(code) - afFirstLength
		if n == 0 {
			return AFIdle{}, []float64{}, true
		}
		return AFCollecting{Expected: n, Collected: make([]float64, 0, n)}, nil, false

	case code == afLFMF && collecting:
		c.Mode = AFModeLFMF
		return c, nil, false

	case code >= afFirstFreq && code <= afLastFreq && collecting:
		if f := afFrequency(code, c.Mode); f > 0 {
			c.Collected = append(c.Collected, f)
		}
		c.Mode = AFModeVHF
		if len(c.Collected) == c.Expected {
			return AFIdle{}, c.Collected, true
		}
		return c, nil, false
	}
	return s, nil, false
}

// afFrequency converts an AF code to Hz, or returns 0 for codes that have no
// frequency in the given mode.
func afFrequency(code uint8, mode AFMode) float64 {
	if mode == AFModeVHF {
		return 87.5e6 + float64(code)*0.1e6
	}
	switch {
	case code <= 15:
		return 153e3 + float64(code-1)*9e3
	case code <= 135:
		return 531e3 + float64(code-16)*9e3
	}
	return 0
}

// ProgramItem is the scheduled start of the current program item.
type ProgramItem struct {
	Day, Hour, Minute int
}

// ClockTime is the time broadcast in group 4A.
type ClockTime struct {
	MJD          int // modified Julian day
	Hour, Minute int // UTC
	Offset       int // local offset in half hours
}

var mjdEpoch = time.Date(1858, time.November, 17, 0, 0, 0, 0, time.UTC)

// Time returns the clock time in the station's local zone.
func (c ClockTime) Time() time.Time {
	t := mjdEpoch.AddDate(0, 0, c.MJD).Add(time.Duration(c.Hour)*time.Hour + time.Duration(c.Minute)*time.Minute)
	return t.In(time.FixedZone("", c.Offset*30*60))
}

// Data is the station record built up from decoded groups.
// The zero value is an empty record.
type Data struct {
	PI    uint16
	HasPI bool
	PTY   uint8
	TP    bool

	// Group 0
	TA, MS  bool
	HasTA   bool
	DI      uint8 // stereo, artificial head, compressed, dynamic PTY
	DISeen  uint8 // which DI bits have been received
	PS      [8]byte
	HasPS   bool
	AF      []float64 // Hz
	HasAF   bool
	AFState AFState

	// Group 1
	PIN    ProgramItem
	HasPIN bool

	// Group 2
	RT     [64]byte
	RTFlag uint8
	HasRT  bool

	// Group 4A
	Clock    ClockTime
	HasClock bool

	// Group 10A
	PTYN     [8]byte
	PTYNFlag uint8
	HasPTYN  bool
}

// Apply updates the record with one decoded group.
func (r *Data) Apply(g Group) {
	a, b, c, d := g.A(), g.B(), g.C(), g.D()
	versionB := g.VersionB()

	// PI, TP and PTY are present in all groups.
	r.PI = a
	r.HasPI = true
	r.TP = b&0x0400 != 0
	r.PTY = uint8(b>>5) & 0x1f

	switch g.Type() {
	case 0:
		r.applyBasic(b, d)
		if !versionB {
			r.applyAF(c)
		}
	case 1:
		r.PIN = ProgramItem{Day: int(d >> 11), Hour: int(d>>6) & 0x1f, Minute: int(d) & 0x3f}
		r.HasPIN = true
	case 2:
		r.applyRadiotext(b, c, d, versionB)
	case 4:
		if !versionB {
			r.applyClock(b, c, d)
		}
	case 10:
		if !versionB {
			r.applyPTYN(b, c, d)
		}
	}
}

func (r *Data) applyBasic(b, d uint16) {
	r.TA = b&0x10 != 0
	r.MS = b&0x08 != 0
	r.HasTA = true

	seg := b & 3
	r.DI &^= 1 << seg
	r.DI |= uint8(b>>2&1) << seg
	r.DISeen |= 1 << seg

	r.PS[2*seg] = byte(d >> 8)
	r.PS[2*seg+1] = byte(d)
	r.HasPS = true
}

func (r *Data) applyAF(c uint16) {
	if r.AFState == nil {
		r.AFState = AFIdle{}
	}
	for _, code := range [2]uint8{uint8(c >> 8), uint8(c)} {
		next, list, published := stepAF(r.AFState, code)
		r.AFState = next
		if published {
			r.AF = list
			r.HasAF = true
		}
	}
}

func (r *Data) applyRadiotext(b, c, d uint16, versionB bool) {
	flag := uint8(b>>4) & 1
	if !r.HasRT || flag != r.RTFlag {
		r.RT = [64]byte{}
	}
	r.RTFlag = flag
	r.HasRT = true

	seg := b & 0xf
	if versionB {
		r.RT[2*seg] = byte(d >> 8)
		r.RT[2*seg+1] = byte(d)
		return
	}
	r.RT[4*seg] = byte(c >> 8)
	r.RT[4*seg+1] = byte(c)
	r.RT[4*seg+2] = byte(d >> 8)
	r.RT[4*seg+3] = byte(d)
}

func (r *Data) applyClock(b, c, d uint16) {
	offset := int(d & 0x1f)
	if d&0x20 != 0 {
		offset = -offset
	}
	r.Clock = ClockTime{
		MJD:    int(b&3)<<15 | int(c>>1),
		Hour:   int(c&1)<<4 | int(d>>12),
		Minute: int(d>>6) & 0x3f,
		Offset: offset,
	}
	r.HasClock = true
}

func (r *Data) applyPTYN(b, c, d uint16) {
	flag := uint8(b>>4) & 1
	if !r.HasPTYN || flag != r.PTYNFlag {
		r.PTYN = [8]byte{}
	}
	r.PTYNFlag = flag
	r.HasPTYN = true

	seg := b & 1
	r.PTYN[4*seg] = byte(c >> 8)
	r.PTYN[4*seg+1] = byte(c)
	r.PTYN[4*seg+2] = byte(d >> 8)
	r.PTYN[4*seg+3] = byte(d)
}

// AFBuilder returns the state of the alternate frequency list builder.
func (r Data) AFBuilder() AFState {
	if r.AFState == nil {
		return AFIdle{}
	}
	return r.AFState
}

// ServiceName returns the program service name without padding.
func (r Data) ServiceName() string {
	return trimText(r.PS[:])
}

// Radiotext returns the radiotext up to the first carriage return.
func (r Data) Radiotext() string {
	return trimText(r.RT[:])
}

// PTYName returns the program type name sent in group 10A.
func (r Data) PTYName() string {
	return trimText(r.PTYN[:])
}

func trimText(b []byte) string {
	if i := strings.IndexByte(string(b), '\r'); i >= 0 {
		b = b[:i]
	}
	return strings.TrimRight(string(b), "\x00 ")
}

func (r Data) String() string {
	return r.Summary(false)
}

// Summary formats the record over several lines. With rbds set, program
// types use the North American names and the call sign is shown.
func (r Data) Summary(rbds bool) string {
	if !r.HasPI {
		return "RDS <none>"
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "RDS PI=%04X TP=%d", r.PI, b2i(r.TP))
	if r.HasTA {
		fmt.Fprintf(&sb, " TA=%d MS=%d", b2i(r.TA), b2i(r.MS))
	}
	fmt.Fprintf(&sb, " PTY=%-2d (%s)", r.PTY, PTYName(r.PTY, rbds))
	if cs := CallSign(r.PI); cs != "" && rbds {
		fmt.Fprintf(&sb, " CALL=%s", cs)
	}
	if r.HasPTYN {
		fmt.Fprintf(&sb, " PTYN=%q", r.PTYName())
	}

	if r.HasPS {
		fmt.Fprintf(&sb, "\n    DI=%-2d %-36s SERV=%q", r.DI, r.decoderInfo(), r.ServiceName())
	}
	if r.HasClock {
		fmt.Fprintf(&sb, "\n    TIME=%s", r.Clock.Time().UTC().Format("2006-01-02 15:04 UTC"))
	}
	if r.HasPIN {
		fmt.Fprintf(&sb, "\n    PIN=d%02d %02d:%02d", r.PIN.Day, r.PIN.Hour, r.PIN.Minute)
	}
	if r.HasAF {
		sb.WriteString("\n    AF=")
		for _, f := range r.AF {
			if f > 1e6 {
				fmt.Fprintf(&sb, "%.1fMHz ", f*1e-6)
			} else {
				fmt.Fprintf(&sb, "%.0fkHz ", f*1e-3)
			}
		}
	}
	if r.HasRT {
		fmt.Fprintf(&sb, "\n    RT=%q", r.Radiotext())
	}
	return sb.String()
}

func (r Data) decoderInfo() string {
	parts := []string{"mono"}
	if r.DI&1 != 0 {
		parts[0] = "stereo"
	}
	if r.DI&2 != 0 {
		parts = append(parts, "artificial")
	}
	if r.DI&4 != 0 {
		parts = append(parts, "compressed")
	}
	if r.DI&8 != 0 {
		parts = append(parts, "dynpty")
	}
	return "(" + strings.Join(parts, ",") + ")"
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}
