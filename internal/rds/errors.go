package rds

import "errors"

var (
	// ErrInvalidSampleRate is returned for zero or negative sample rates.
	ErrInvalidSampleRate = errors.New("rds: sample rate must be positive")
	// ErrSampleRateTooLow is returned when the 57 kHz subcarrier is above Nyquist.
	ErrSampleRateTooLow = errors.New("rds: sample rate too low for the 57 kHz subcarrier")
	// ErrWindowTooShort is returned for matched filters shorter than two samples.
	ErrWindowTooShort = errors.New("rds: matched filter window too short")
)
