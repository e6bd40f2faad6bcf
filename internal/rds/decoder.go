package rds

// Report is emitted for every group window the decoder tries.
type Report struct {
	// Data is a snapshot of the station record after this window.
	Data Data
	// Group is the decoded group; only meaningful when OK is set.
	Group Group
	OK    bool

	NGroup  int // groups decoded so far
	ErrSoft int // single bit corrections so far
	ErrHard int // resync retries so far

	// SyncLost is set when the resync cap was hit on this window.
	SyncLost bool
}

// DecoderOption configures a Decoder.
type DecoderOption func(*Decoder)

// WithMaxResync caps the number of consecutive one bit resync retries. When
// the cap is hit the decoder reports lost sync, abandons any half collected
// alternate frequency list and starts counting again. It keeps sliding one bit
// at a time, so it still locks on as soon as the signal returns. Zero means no
// cap.
func WithMaxResync(n int) DecoderOption {
	return func(d *Decoder) {
		if n > 0 {
			d.maxResync = n
		}
	}
}

// Decoder assembles groups from an RDS bit stream of unknown alignment and
// keeps the station record up to date.
type Decoder struct {
	data Data
	bits []byte

	ngroup, errsoft, errhard int
	retries                  int
	maxResync                int
}

// NewDecoder creates a decoder with an empty station record.
func NewDecoder(opts ...DecoderOption) *Decoder {
	d := &Decoder{}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Data returns a copy of the current station record.
func (d *Decoder) Data() Data {
	return d.data
}

// Stats returns the group and error counters.
func (d *Decoder) Stats() (ngroup, errsoft, errhard int) {
	return d.ngroup, d.errsoft, d.errhard
}

// Reset starts over with an empty record, as after tuning to another station.
func (d *Decoder) Reset() {
	d.data = Data{}
	d.bits = d.bits[:0]
	d.ngroup, d.errsoft, d.errhard, d.retries = 0, 0, 0, 0
}

// Push appends bits to the stream and decodes as many group windows as the
// buffered bits allow. Bits left over are kept for the next call.
func (d *Decoder) Push(bits []byte) []Report {
	d.bits = append(d.bits, bits...)

	var reports []Report
	p := 0
	for p+groupBits <= len(d.bits) {
		g, ok := DecodeGroup(d.bits[p : p+groupBits])
		if !ok {
			// Lost frame alignment; slide by one bit and try again.
			d.errhard++
			d.retries++
			p++
			r := Report{}
			if d.maxResync > 0 && d.retries >= d.maxResync {
				d.data.AFState = AFIdle{}
				d.retries = 0
				r.SyncLost = true
			}
			reports = append(reports, d.report(r))
			continue
		}

		d.retries = 0
		d.ngroup++
		d.errsoft += g.Corrections()
		d.data.Apply(g)
		p += groupBits
		reports = append(reports, d.report(Report{Group: g, OK: true}))
	}

	d.bits = append(d.bits[:0], d.bits[p:]...)
	return reports
}

func (d *Decoder) report(r Report) Report {
	r.Data = d.data
	r.NGroup = d.ngroup
	r.ErrSoft = d.errsoft
	r.ErrHard = d.errhard
	return r
}
