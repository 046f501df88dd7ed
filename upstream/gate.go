package upstream

import (
	"context"
	"sync"
	"time"
)

// GateConfig configures the in-flight fetch cap.
type GateConfig struct {
	// MaxInFlight is the maximum number of concurrent fetches.
	// Default: 10
	MaxInFlight int

	// MaxWait is the maximum time to wait for a slot.
	// Default: 0 (no waiting, refuse immediately)
	MaxWait time.Duration
}

// Gate caps concurrent fetches against providers with connection limits.
type Gate struct {
	config GateConfig
	sem    chan struct{}

	mu       sync.Mutex
	inFlight int
	peak     int
	refused  int64
}

// NewGate creates a gate with defaults applied.
func NewGate(config GateConfig) *Gate {
	if config.MaxInFlight <= 0 {
		config.MaxInFlight = 10
	}

	return &Gate{
		config: config,
		sem:    make(chan struct{}, config.MaxInFlight),
	}
}

// Enter claims a fetch slot. It returns ErrGateFull when no slot frees up
// within MaxWait.
func (g *Gate) Enter(ctx context.Context) error {
	select {
	case g.sem <- struct{}{}:
		g.claimed()
		return nil
	default:
	}

	if g.config.MaxWait <= 0 {
		g.refuse()
		return ErrGateFull
	}

	timer := time.NewTimer(g.config.MaxWait)
	defer timer.Stop()

	select {
	case g.sem <- struct{}{}:
		g.claimed()
		return nil
	case <-timer.C:
		g.refuse()
		return ErrGateFull
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Leave returns a fetch slot.
func (g *Gate) Leave() {
	select {
	case <-g.sem:
		g.mu.Lock()
		g.inFlight--
		g.mu.Unlock()
	default:
		// Leave without a matching Enter.
	}
}

// Do runs the fetch inside a slot.
func (g *Gate) Do(ctx context.Context, fetch FetchFunc) ([]byte, error) {
	if err := g.Enter(ctx); err != nil {
		return nil, err
	}
	defer g.Leave()

	return fetch(ctx)
}

func (g *Gate) claimed() {
	g.mu.Lock()
	g.inFlight++
	if g.inFlight > g.peak {
		g.peak = g.inFlight
	}
	g.mu.Unlock()
}

func (g *Gate) refuse() {
	g.mu.Lock()
	g.refused++
	g.mu.Unlock()
}

// Metrics returns current gate counters.
func (g *Gate) Metrics() GateMetrics {
	g.mu.Lock()
	defer g.mu.Unlock()

	return GateMetrics{
		InFlight:    g.inFlight,
		Peak:        g.peak,
		Free:        g.config.MaxInFlight - g.inFlight,
		MaxInFlight: g.config.MaxInFlight,
		Refused:     g.refused,
	}
}

// GateMetrics contains gate statistics.
type GateMetrics struct {
	InFlight    int
	Peak        int
	Free        int
	MaxInFlight int
	Refused     int64
}
