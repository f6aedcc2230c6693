package storage

import "errors"

// Store errors, shared by every backend.
var (
	// ErrNotFound is returned when a requested run, trial set or loan does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when a run_id is already stored. Runs and
	// their trials are written once and never overwritten.
	ErrDuplicateKey = errors.New("duplicate key: run_id already stored")

	// ErrInvalidInput is returned when a record fails validation before it is written.
	ErrInvalidInput = errors.New("invalid input")
)
