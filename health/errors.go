package health

import "errors"

var (
	// ErrCheckFailed is attached to results of checks that found a fault
	// without an underlying error.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is attached to results of checks that overran their
	// time bound.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned by Aggregator.Check for unknown names.
	ErrCheckerNotFound = errors.New("health: checker not found")

	// ErrDuplicateChecker is returned when a name is registered twice.
	ErrDuplicateChecker = errors.New("health: checker already registered")
)
