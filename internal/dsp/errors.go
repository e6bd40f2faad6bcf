package dsp

import "errors"

var (
	// ErrEmptyTaps is returned when a filter is built without coefficients.
	ErrEmptyTaps = errors.New("dsp: filter has no taps")
	// ErrInvalidSampleRate is returned for zero or negative sample rates.
	ErrInvalidSampleRate = errors.New("dsp: sample rate must be positive")
	// ErrInvalidBandwidth is returned for PLL bandwidths that are not positive.
	ErrInvalidBandwidth = errors.New("dsp: bandwidth must be positive")
)
