// Package upstream hardens calls to external flight-data providers.
//
// The cache absorbs most traffic, but every miss still crosses the network
// to a provider with quotas, outages, and slow days. This package wraps
// those fetches with the usual protection patterns and classifies provider
// failures so callers can tell transient trouble from permanent rejection.
//
// # Patterns
//
//   - Retry: re-attempts transient failures with configurable backoff
//     (exponential, linear, constant). Permanent failures such as a
//     missing resource or rejected credentials are never retried.
//
//   - Timeout: bounds each fetch attempt so a stalled provider cannot
//     hold a dashboard request hostage.
//
//   - Breaker: stops hammering a provider that is already down. Only
//     transient failures trip it; a burst of not-found lookups does not.
//
//   - RateLimiter: token bucket for provider quotas, so the cache's own
//     refill traffic stays inside the contract.
//
//   - Gate: caps in-flight fetches against providers with connection
//     limits.
//
// # Usage
//
// Each pattern runs standalone, or a Stack composes them in a fixed
// order (rate limiter outermost, timeout innermost):
//
//	stack := upstream.NewStack(
//	    upstream.WithRetry(upstream.NewRetry(upstream.RetryConfig{MaxAttempts: 4})),
//	    upstream.WithBreaker(upstream.NewBreaker(upstream.BreakerConfig{})),
//	    upstream.WithTimeout(5*time.Second),
//	)
//
//	fetch := stack.Wrap(func(ctx context.Context) ([]byte, error) {
//	    return provider.Schedules(ctx, "LIS", "2025-12-31")
//	})
//
// # Error taxonomy
//
// Provider failures map onto the sentinels in errors.go. Retryable
// reports whether a failure is worth another attempt; the retry and
// breaker defaults are built on it.
package upstream
