package health

import (
	"context"
	"fmt"
	"sync"

	"github.com/queuecast/paxcache/cache"
)

// Tier is the slice of the cache surface the checker reads.
type Tier interface {
	Stats() cache.Stats
}

// CacheCheckerConfig configures the tier checker.
type CacheCheckerConfig struct {
	// PersistFailureThreshold is how many durable writes may fail
	// between two checks before the tier reports degraded.
	// Default: 1
	PersistFailureThreshold int64
}

// CacheChecker reports on one cache tier from its own counters. A tier
// keeps serving from memory while its mirror fails, so those failures
// surface here as degraded rather than unhealthy: requests still work,
// but a restart would lose everything the mirror missed.
type CacheChecker struct {
	name   string
	tier   Tier
	config CacheCheckerConfig

	mu                  sync.Mutex
	lastPersistFailures int64
}

// NewCacheChecker creates a checker reading the named tier's counters.
func NewCacheChecker(name string, tier Tier, config ...CacheCheckerConfig) *CacheChecker {
	cfg := CacheCheckerConfig{
		PersistFailureThreshold: 1,
	}
	if len(config) > 0 {
		cfg = config[0]
		if cfg.PersistFailureThreshold <= 0 {
			cfg.PersistFailureThreshold = 1
		}
	}

	return &CacheChecker{name: name, tier: tier, config: cfg}
}

// Name identifies the checker.
func (c *CacheChecker) Name() string {
	return c.name
}

// Check snapshots the tier counters and compares persist failures
// against the previous check. Only new failures count, so a mirror that
// failed last week and recovered does not stay degraded forever.
func (c *CacheChecker) Check(ctx context.Context) Result {
	select {
	case <-ctx.Done():
		return Unhealthy("context cancelled", ctx.Err())
	default:
	}

	stats := c.tier.Stats()

	c.mu.Lock()
	delta := stats.PersistFailures - c.lastPersistFailures
	c.lastPersistFailures = stats.PersistFailures
	c.mu.Unlock()

	details := map[string]any{
		"entries":          stats.Entries,
		"bytes":            stats.Bytes,
		"hits":             stats.Hits,
		"misses":           stats.Misses,
		"sets":             stats.Sets,
		"evictions":        stats.Evictions,
		"persist_failures": stats.PersistFailures,
	}

	if delta >= c.config.PersistFailureThreshold {
		return Degraded(
			fmt.Sprintf("%d mirror writes failed since last check", delta),
		).WithDetails(details)
	}

	return Healthy(stats.String()).WithDetails(details)
}
