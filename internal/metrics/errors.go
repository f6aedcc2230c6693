package metrics

import "errors"

var (
	// ErrDegenerateInput is returned when a series has too few samples or non-finite values.
	ErrDegenerateInput = errors.New("degenerate input")
	// ErrInvalidAlpha is returned when the tail probability is outside (0, 1).
	ErrInvalidAlpha = errors.New("alpha must be in (0, 1)")
)
