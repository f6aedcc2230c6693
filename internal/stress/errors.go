package stress

import "errors"

var (
	// ErrNoScenarios is returned when a request names no scenario.
	ErrNoScenarios = errors.New("no scenarios requested")
	// ErrInvalidReturnType is returned for an unknown return series selector.
	ErrInvalidReturnType = errors.New("invalid return type")
	// ErrDuplicateScenario is returned when a scenario name appears twice in one request.
	ErrDuplicateScenario = errors.New("duplicate scenario")
)
