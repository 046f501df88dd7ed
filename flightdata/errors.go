package flightdata

import "errors"

// Sentinel errors for client construction and input validation.
var (
	// ErrNoCache is returned when a Config carries no cache.
	ErrNoCache = errors.New("flightdata: cache is required")

	// ErrNoSource is returned when a Config carries no provider source.
	ErrNoSource = errors.New("flightdata: source is required")

	// ErrInvalidCode is returned when an airport, carrier, or aircraft
	// code fails validation before any key is built.
	ErrInvalidCode = errors.New("flightdata: invalid code")
)
