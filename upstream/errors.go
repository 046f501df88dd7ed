package upstream

import "errors"

// Sentinel errors describing provider failures. Fetch implementations
// translate provider-specific responses (HTTP status codes, API error
// payloads) onto these so the rest of the module can match with errors.Is.
var (
	// ErrRateLimited is returned when the provider throttles the caller,
	// and by the local rate limiter when a fetch would exceed the quota.
	ErrRateLimited = errors.New("upstream: rate limited")

	// ErrNotFound is returned when the requested resource does not exist
	// upstream (unknown airport, airline, or aircraft code).
	ErrNotFound = errors.New("upstream: resource not found")

	// ErrUnauthorized is returned when the provider rejects the
	// configured credentials.
	ErrUnauthorized = errors.New("upstream: unauthorized")

	// ErrMalformedDateRange is returned when the provider rejects the
	// requested date or date range.
	ErrMalformedDateRange = errors.New("upstream: malformed date range")

	// ErrUnavailable is returned when the provider is reachable but
	// failing (5xx responses, connection resets, truncated replies).
	ErrUnavailable = errors.New("upstream: provider unavailable")

	// ErrTimeout is returned when a fetch attempt exceeds its deadline.
	ErrTimeout = errors.New("upstream: fetch timed out")

	// ErrBreakerOpen is returned when the breaker refuses a fetch
	// because the provider is considered down.
	ErrBreakerOpen = errors.New("upstream: breaker open")

	// ErrGateFull is returned when too many fetches are already in
	// flight.
	ErrGateFull = errors.New("upstream: fetch gate at capacity")
)

// Retryable reports whether a fetch failure is transient and worth another
// attempt. Rate limiting, provider outages, and timeouts qualify. Missing
// resources, rejected credentials, and malformed requests never resolve on
// their own. Breaker and gate refusals are local backpressure and are not
// retried either.
func Retryable(err error) bool {
	return errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrUnavailable) ||
		errors.Is(err, ErrTimeout)
}
