package upstream

import (
	"context"
	"time"
)

// Stack composes the protection patterns around a fetch.
type Stack struct {
	breaker *Breaker
	retry   *Retry
	limiter *RateLimiter
	gate    *Gate
	timeout *Timeout
}

// StackOption configures a Stack.
type StackOption func(*Stack)

// NewStack creates a stack from the given options. An empty stack passes
// fetches straight through.
func NewStack(opts ...StackOption) *Stack {
	s := &Stack{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithBreaker adds a breaker to the stack.
func WithBreaker(b *Breaker) StackOption {
	return func(s *Stack) {
		s.breaker = b
	}
}

// WithRetry adds retry logic to the stack.
func WithRetry(r *Retry) StackOption {
	return func(s *Stack) {
		s.retry = r
	}
}

// WithRateLimiter adds quota enforcement to the stack.
func WithRateLimiter(rl *RateLimiter) StackOption {
	return func(s *Stack) {
		s.limiter = rl
	}
}

// WithGate adds an in-flight cap to the stack.
func WithGate(g *Gate) StackOption {
	return func(s *Stack) {
		s.gate = g
	}
}

// WithTimeout adds a per-attempt deadline to the stack.
func WithTimeout(timeout time.Duration) StackOption {
	return func(s *Stack) {
		s.timeout = NewTimeout(TimeoutConfig{Timeout: timeout})
	}
}

// Wrap returns the fetch wrapped in every configured pattern.
//
// The layers apply in a fixed order:
//  1. Rate limiter (outermost): refused fetches never consume a slot.
//  2. Gate: caps in-flight fetches.
//  3. Breaker: a down provider short-circuits before any retrying.
//  4. Retry: re-attempts transient failures.
//  5. Timeout (innermost): each attempt gets its own deadline.
func (s *Stack) Wrap(fetch FetchFunc) FetchFunc {
	wrapped := fetch

	if s.timeout != nil {
		inner := wrapped
		wrapped = func(ctx context.Context) ([]byte, error) {
			return s.timeout.Do(ctx, inner)
		}
	}

	if s.retry != nil {
		inner := wrapped
		wrapped = func(ctx context.Context) ([]byte, error) {
			return s.retry.Do(ctx, inner)
		}
	}

	if s.breaker != nil {
		inner := wrapped
		wrapped = func(ctx context.Context) ([]byte, error) {
			return s.breaker.Do(ctx, inner)
		}
	}

	if s.gate != nil {
		inner := wrapped
		wrapped = func(ctx context.Context) ([]byte, error) {
			return s.gate.Do(ctx, inner)
		}
	}

	if s.limiter != nil {
		inner := wrapped
		wrapped = func(ctx context.Context) ([]byte, error) {
			return s.limiter.Do(ctx, inner)
		}
	}

	return wrapped
}

// Do runs a single fetch through the stack.
func (s *Stack) Do(ctx context.Context, fetch FetchFunc) ([]byte, error) {
	return s.Wrap(fetch)(ctx)
}
