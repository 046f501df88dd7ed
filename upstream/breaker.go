package upstream

import (
	"context"
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	// StateClosed means fetches flow to the provider normally.
	StateClosed State = iota
	// StateOpen means fetches are refused without touching the provider.
	StateOpen
	// StateHalfOpen means a limited number of probe fetches test whether
	// the provider recovered.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// BreakerConfig configures the provider breaker.
type BreakerConfig struct {
	// MaxFailures is the number of consecutive failures before the
	// breaker opens.
	// Default: 5
	MaxFailures int

	// ResetTimeout is how long an open breaker waits before probing.
	// Default: 30s
	ResetTimeout time.Duration

	// HalfOpenMaxProbes is the number of fetches allowed through while
	// half-open.
	// Default: 1
	HalfOpenMaxProbes int

	// OnStateChange is called when the breaker changes state.
	OnStateChange func(from, to State)

	// IsFailure decides whether an error counts against the provider.
	// Default: Retryable, so a burst of not-found lookups or a bad
	// credential cannot open the breaker.
	IsFailure func(err error) bool
}

// Breaker stops fetch traffic to a provider that keeps failing.
type Breaker struct {
	config BreakerConfig

	mu          sync.Mutex
	state       State
	failures    int
	successes   int
	lastFailure time.Time
	probes      int
}

// NewBreaker creates a breaker with defaults applied.
func NewBreaker(config BreakerConfig) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = 5
	}
	if config.ResetTimeout <= 0 {
		config.ResetTimeout = 30 * time.Second
	}
	if config.HalfOpenMaxProbes <= 0 {
		config.HalfOpenMaxProbes = 1
	}
	if config.IsFailure == nil {
		config.IsFailure = Retryable
	}

	return &Breaker{
		config: config,
		state:  StateClosed,
	}
}

// Do runs the fetch through the breaker. An open breaker returns
// ErrBreakerOpen without calling the fetch.
func (b *Breaker) Do(ctx context.Context, fetch FetchFunc) ([]byte, error) {
	if err := b.beforeFetch(); err != nil {
		return nil, err
	}

	payload, err := fetch(ctx)
	b.afterFetch(err)
	return payload, err
}

// State returns the current breaker state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentStateLocked()
}

// Reset closes the breaker and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()

	oldState := b.state
	b.state = StateClosed
	b.failures = 0
	b.successes = 0
	b.probes = 0

	if oldState != StateClosed && b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, StateClosed)
	}
}

func (b *Breaker) beforeFetch() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.currentStateLocked() {
	case StateOpen:
		return ErrBreakerOpen
	case StateHalfOpen:
		if b.probes >= b.config.HalfOpenMaxProbes {
			return ErrBreakerOpen
		}
		b.probes++
	}

	return nil
}

func (b *Breaker) afterFetch(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	isFailure := err != nil && b.config.IsFailure(err)
	oldState := b.state

	switch b.state {
	case StateClosed:
		if isFailure {
			b.failures++
			b.lastFailure = time.Now()
			if b.failures >= b.config.MaxFailures {
				b.setStateLocked(StateOpen)
			}
		} else {
			b.failures = 0
		}

	case StateHalfOpen:
		if isFailure {
			// Probe failed, back to open with a fresh reset window.
			b.lastFailure = time.Now()
			b.setStateLocked(StateOpen)
		} else {
			b.successes++
			b.setStateLocked(StateClosed)
			b.failures = 0
			b.successes = 0
		}
	}

	if oldState != b.state && b.config.OnStateChange != nil {
		b.config.OnStateChange(oldState, b.state)
	}
}

func (b *Breaker) currentStateLocked() State {
	if b.state == StateOpen && time.Since(b.lastFailure) >= b.config.ResetTimeout {
		b.state = StateHalfOpen
		b.probes = 0
		if b.config.OnStateChange != nil {
			b.config.OnStateChange(StateOpen, StateHalfOpen)
		}
	}
	return b.state
}

func (b *Breaker) setStateLocked(state State) {
	b.state = state
	if state == StateHalfOpen {
		b.probes = 0
	}
}

// Metrics returns current breaker counters.
func (b *Breaker) Metrics() BreakerMetrics {
	b.mu.Lock()
	defer b.mu.Unlock()

	return BreakerMetrics{
		State:       b.currentStateLocked(),
		Failures:    b.failures,
		Successes:   b.successes,
		LastFailure: b.lastFailure,
	}
}

// BreakerMetrics contains breaker statistics.
type BreakerMetrics struct {
	State       State
	Failures    int
	Successes   int
	LastFailure time.Time
}
