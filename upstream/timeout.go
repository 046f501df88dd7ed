package upstream

import (
	"context"
	"time"
)

// TimeoutConfig configures the per-attempt fetch deadline.
type TimeoutConfig struct {
	// Timeout is the maximum duration for one fetch attempt.
	// Default: 10s
	Timeout time.Duration
}

// Timeout bounds individual fetch attempts.
type Timeout struct {
	config TimeoutConfig
}

// NewTimeout creates a timeout wrapper with defaults applied.
func NewTimeout(config TimeoutConfig) *Timeout {
	if config.Timeout <= 0 {
		config.Timeout = 10 * time.Second
	}

	return &Timeout{config: config}
}

type fetchResult struct {
	payload []byte
	err     error
}

// Do runs the fetch under the configured deadline. A blown deadline
// returns ErrTimeout; cancellation of the parent context is passed
// through unchanged.
func (t *Timeout) Do(ctx context.Context, fetch FetchFunc) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, t.config.Timeout)
	defer cancel()

	done := make(chan fetchResult, 1)

	go func() {
		payload, err := fetch(ctx)
		done <- fetchResult{payload: payload, err: err}
	}()

	select {
	case res := <-done:
		return res.payload, res.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return nil, ErrTimeout
		}
		return nil, ctx.Err()
	}
}

// Config returns the timeout configuration with defaults applied.
func (t *Timeout) Config() TimeoutConfig {
	return t.config
}
