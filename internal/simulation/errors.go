package simulation

import "errors"

// Resampler errors
var (
	// ErrInsufficientData is returned when a nonzero number of draws is
	// requested from an empty cohort.
	ErrInsufficientData = errors.New("insufficient data: cohort is empty")

	// ErrInvalidRequest is returned when request parameters are out of range.
	ErrInvalidRequest = errors.New("invalid simulation request")
)
