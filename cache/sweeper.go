package cache

import (
	"context"
	"sync"
	"time"

	"github.com/sourcegraph/conc"
)

// SweeperConfig configures periodic sweeping.
type SweeperConfig struct {
	// Interval between sweep passes.
	// Default: ServerSweepInterval. Mirrored tiers typically run
	// ClientSweepInterval.
	Interval time.Duration
}

// Sweeper drives periodic Sweep passes over one tier. It does nothing
// until Start is called, and the owning composer decides its lifetime;
// the cache itself never spawns background work.
type Sweeper struct {
	cache    *Cache
	interval time.Duration

	mu   sync.Mutex
	stop chan struct{}
	wg   *conc.WaitGroup
}

// NewSweeper creates a sweeper for c. The sweeper is idle until Start.
func NewSweeper(c *Cache, cfg SweeperConfig) *Sweeper {
	interval := cfg.Interval
	if interval <= 0 {
		interval = ServerSweepInterval
	}
	return &Sweeper{
		cache:    c,
		interval: interval,
	}
}

// Start launches the sweep loop. Passes run every interval until Stop is
// called or ctx is canceled. Calling Start on a running sweeper is a
// no-op.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}

	stop := make(chan struct{})
	s.stop = stop
	s.wg = conc.NewWaitGroup()
	s.wg.Go(func() {
		s.run(ctx, stop)
	})
}

func (s *Sweeper) run(ctx context.Context, stop chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cache.Sweep(ctx)
		case <-stop:
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop halts the sweep loop and waits for an in-flight pass to finish.
// Calling Stop on an idle sweeper is a no-op.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if s.stop == nil {
		s.mu.Unlock()
		return
	}
	close(s.stop)
	s.stop = nil
	wg := s.wg
	s.wg = nil
	s.mu.Unlock()

	wg.Wait()
}
