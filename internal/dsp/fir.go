package dsp

// FIRFilter implements a stateful, block-based Finite Impulse Response filter.
type FIRFilter struct {
	taps  []float64
	state []float32
	// Resampled outputs produced and input samples consumed so far. Read
	// positions are derived from these counts, not accumulated.
	emitted  int64
	consumed int64
}

// NewFIRFilter creates a new FIR filter with the given taps.
func NewFIRFilter(taps []float64) (*FIRFilter, error) {
	if len(taps) == 0 {
		return nil, ErrEmptyTaps
	}
	t := make([]float64, len(taps))
	copy(t, taps)
	return &FIRFilter{taps: t}, nil
}

// Tail returns a copy of the retained history.
func (f *FIRFilter) Tail() []float32 {
	return append([]float32(nil), f.state...)
}

// Filter returns the causal convolution of input with the taps, one output per
// input sample. History from earlier blocks is used for the first outputs, so
// filtering a stream in pieces gives the same result as filtering it whole.
func (f *FIRFilter) Filter(input []float32) []float32 {
	if len(input) == 0 {
		return nil
	}
	h := len(f.state)
	buffer := make([]float32, h+len(input))
	copy(buffer, f.state)
	copy(buffer[h:], input)

	output := make([]float32, len(input))
	for i := range output {
		n := h + i
		var acc float32
		for j, tap := range f.taps {
			if n-j < 0 {
				break
			}
			acc += buffer[n-j] * float32(tap)
		}
		output[i] = acc
	}

	// Keep at most (filter_length - 1) of the most recent samples.
	keep := len(f.taps) - 1
	if keep > len(buffer) {
		keep = len(buffer)
	}
	f.state = append(f.state[:0:0], buffer[len(buffer)-keep:]...)
	return output
}

// Process filters a block of input samples and resamples the result by ratio
// (output rate / input rate). Output k reads the filtered stream at k/ratio,
// so the output does not depend on block boundaries.
func (f *FIRFilter) Process(input []float32, ratio float64) []float32 {
	filtered := f.Filter(input)
	if len(filtered) == 0 || ratio <= 0 {
		return nil
	}
	invRatio := 1.0 / ratio

	output := make([]float32, 0, int(float64(len(filtered))*ratio)+1)
	for {
		pos := float64(f.emitted)*invRatio - float64(f.consumed)
		if pos >= float64(len(filtered)) {
			break
		}
		output = append(output, filtered[int(pos)])
		f.emitted++
	}
	f.consumed += int64(len(filtered))
	return output
}

// ComplexFIRFilter runs the same real taps over the I and Q parts of a complex
// stream.
type ComplexFIRFilter struct {
	i, q  *FIRFilter
	phase int // index of the next kept sample in the next block
}

// NewComplexFIRFilter creates a complex filter with the given real taps.
func NewComplexFIRFilter(taps []float64) (*ComplexFIRFilter, error) {
	fi, err := NewFIRFilter(taps)
	if err != nil {
		return nil, err
	}
	fq, _ := NewFIRFilter(taps)
	return &ComplexFIRFilter{i: fi, q: fq}, nil
}

// Filter returns the causal convolution of block with the taps.
func (f *ComplexFIRFilter) Filter(block []complex64) []complex64 {
	if len(block) == 0 {
		return nil
	}
	I := make([]float32, len(block))
	Q := make([]float32, len(block))
	for k, s := range block {
		I[k] = real(s)
		Q[k] = imag(s)
	}
	I = f.i.Filter(I)
	Q = f.q.Filter(Q)

	output := make([]complex64, len(block))
	for k := range output {
		output[k] = complex(I[k], Q[k])
	}
	return output
}

// Decimate filters block and keeps every factor-th sample. The decimation
// phase is carried across blocks.
func (f *ComplexFIRFilter) Decimate(block []complex64, factor int) []complex64 {
	filtered := f.Filter(block)
	if factor <= 1 {
		return filtered
	}
	output := make([]complex64, 0, len(filtered)/factor+1)
	k := f.phase
	for ; k < len(filtered); k += factor {
		output = append(output, filtered[k])
	}
	f.phase = k - len(filtered)
	return output
}
