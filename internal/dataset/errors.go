package dataset

import "errors"

// Dataset errors
var (
	// ErrDataLoad is returned when a loan table is missing, unreadable,
	// malformed, or lacks a required column.
	ErrDataLoad = errors.New("data load error")

	// ErrDataIntegrity is returned when a loaded row cannot be assigned to a cohort,
	// e.g. an undefined default flag or a non-positive origination balance.
	ErrDataIntegrity = errors.New("data integrity error")
)
