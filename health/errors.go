package health

import "errors"

var (
	// ErrCheckFailed indicates a health check found the component broken.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout indicates a health check ran out of time.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound indicates no checker is registered under the name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
