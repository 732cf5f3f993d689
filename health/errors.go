package health

import "errors"

var (
	// ErrCheckTimeout is recorded when a check outlives the aggregator
	// deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned for an unregistered check name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
