package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/queuecast/paxcache/observe"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrInvalidKey       = errors.New("cache: key is invalid")
	ErrKeyTooLong       = errors.New("cache: key exceeds max length")
	ErrInvalidNamespace = errors.New("cache: namespace is invalid")
	ErrNoDefaultTTL     = errors.New("cache: policy default TTL must be positive")
	ErrCorruptEntry     = errors.New("cache: entry data is corrupt")
)

// Config configures one cache tier.
type Config struct {
	// Namespace scopes every key the tier owns. Required; must not
	// contain ':' so namespace boundaries stay unambiguous on shared
	// substrates.
	Namespace string

	// Policy supplies default and maximum entry lifetimes.
	// Default: ServerPolicy().
	Policy Policy

	// Storage, when non-nil, mirrors entries onto a durable substrate.
	// The tier is rebuilt from it at construction and keeps it in step
	// on every store and removal. The caller retains ownership and
	// closes it after the tier is done.
	Storage Storage

	// Now supplies the clock for expiry decisions. Default: time.Now.
	Now func() time.Time

	// Logger receives cache events. Default: discard.
	Logger observe.Logger

	// Metrics receives counters and timings. Default: discard.
	Metrics observe.Metrics
}

// Cache is one tier of the response cache: a transient in-memory store,
// optionally mirrored onto a durable substrate that survives restarts.
// Entries are opaque payload bytes held until their expiry passes.
//
// Contract:
// - Concurrency: safe for concurrent use; per-key operations are atomic,
//   cross-key consistency is not promised.
// - Context: persistent substrate calls honor cancellation/deadlines.
// - Errors: Get never errors; it returns (nil, false) on miss. Durable
//   write failures never surface through Set.
// - Ownership: payload slices are shared with the store; callers must not
//   modify them.
type Cache struct {
	namespace string
	policy    Policy
	mem       *memStore
	mirror    *mirror
	now       func() time.Time
	logger    observe.Logger
	metrics   observe.Metrics
	meta      observe.CacheMeta
	stats     counters
}

// New builds a tier from cfg. When cfg.Storage is set, the substrate is
// purged of expired entries and every live one is loaded back into
// memory before New returns, so a restarted process resumes where it
// left off.
func New(ctx context.Context, cfg Config) (*Cache, error) {
	if err := validateNamespace(cfg.Namespace); err != nil {
		return nil, err
	}

	policy := cfg.Policy
	if policy == (Policy{}) {
		policy = ServerPolicy()
	}
	if err := policy.Validate(); err != nil {
		return nil, err
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	metrics := cfg.Metrics
	if metrics == nil {
		metrics = observe.NopMetrics()
	}

	meta := observe.CacheMeta{
		Namespace: cfg.Namespace,
		Mirrored:  cfg.Storage != nil,
	}

	c := &Cache{
		namespace: cfg.Namespace,
		policy:    policy,
		mem:       newMemStore(),
		now:       now,
		logger:    logger.WithCache(meta),
		metrics:   metrics,
		meta:      meta,
	}

	if cfg.Storage != nil {
		c.mirror = &mirror{
			storage: cfg.Storage,
			now:     now,
			logger:  c.logger,
			metrics: metrics,
			meta:    meta,
			stats:   &c.stats,
		}
		loaded, err := c.mirror.reload(ctx, c.mem)
		if err != nil {
			return nil, fmt.Errorf("cache: reload %q: %w", cfg.Namespace, err)
		}
		c.logger.Info(ctx, "cache rebuilt from substrate", observe.Field{Key: "entries", Value: loaded})
	}

	return c, nil
}

// Key renders the canonical cache key for an operation under this tier's
// namespace. Equal parameter sets always produce equal keys.
func (c *Cache) Key(prefix string, params Params) string {
	return BuildKey(c.namespace, prefix, params)
}

// Namespace returns the key namespace the tier owns.
func (c *Cache) Namespace() string {
	return c.namespace
}

// Get returns the live payload for key. Expired entries are removed from
// both layers on the way out and reported as a miss. On a transient miss
// a mirrored tier consults the substrate and promotes what it finds.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	now := c.now()
	e, ok, evicted := c.mem.get(key, now)
	if evicted {
		c.stats.evictions.Add(1)
		c.metrics.RecordEviction(ctx, c.meta, observe.EvictExpired, 1)
		if c.mirror != nil {
			c.mirror.remove(ctx, key)
		}
	}
	if ok {
		c.stats.hits.Add(1)
		c.metrics.RecordLookup(ctx, c.meta, true)
		return e.Payload, true
	}

	if c.mirror != nil && !evicted {
		if pe, found := c.mirror.read(ctx, key); found {
			c.mem.set(key, pe)
			c.stats.hits.Add(1)
			c.metrics.RecordLookup(ctx, c.meta, true)
			return pe.Payload, true
		}
	}

	c.stats.misses.Add(1)
	c.metrics.RecordLookup(ctx, c.meta, false)
	return nil, false
}

// Set stores payload under key. A non-positive ttl resolves to the policy
// default; the policy maximum clamps the rest. An existing entry is
// replaced whole. Durable mirroring is best-effort and never fails the
// call.
func (c *Cache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if err := ValidateKey(key); err != nil {
		return err
	}

	e := NewEntry(payload, c.now(), c.policy.EffectiveTTL(ttl))
	c.mem.set(key, e)
	c.stats.sets.Add(1)
	c.metrics.RecordStore(ctx, c.meta, len(payload))

	if c.mirror != nil {
		c.mirror.write(ctx, key, e)
	}
	return nil
}

// Has reports whether a live entry exists for key. It never mutates
// either layer.
func (c *Cache) Has(ctx context.Context, key string) bool {
	if _, ok := c.mem.peek(key, c.now()); ok {
		return true
	}
	if c.mirror != nil {
		return c.mirror.peek(ctx, key)
	}
	return false
}

// Delete removes key from both layers. Idempotent - no error on miss.
func (c *Cache) Delete(ctx context.Context, key string) error {
	c.mem.delete(key)
	if c.mirror != nil {
		if err := c.mirror.storage.Remove(ctx, key); err != nil {
			return fmt.Errorf("cache: delete %q: %w", key, err)
		}
	}
	return nil
}

// ClearPrefix removes every entry of one operation class from both
// layers and returns how many distinct entries went away. Other prefixes
// and other namespaces on a shared substrate are untouched.
func (c *Cache) ClearPrefix(ctx context.Context, prefix string) (int, error) {
	p := keyPrefix(c.namespace, prefix)
	cleared := make(map[string]struct{})
	for _, key := range c.mem.deletePrefix(p) {
		cleared[key] = struct{}{}
	}
	var clearErr error
	if c.mirror != nil {
		persisted, err := c.mirror.removeAll(ctx, p)
		for _, key := range persisted {
			cleared[key] = struct{}{}
		}
		if err != nil {
			clearErr = fmt.Errorf("cache: clear prefix %q: %w", prefix, err)
		}
	}
	c.logger.Debug(ctx, "prefix cleared",
		observe.Field{Key: "prefix", Value: prefix},
		observe.Field{Key: "entries", Value: len(cleared)},
	)
	return len(cleared), clearErr
}

// Clear removes every entry the namespace owns from both layers. On a
// shared substrate, other namespaces' entries stay put.
func (c *Cache) Clear(ctx context.Context) error {
	p := namespacePrefix(c.namespace)
	c.mem.deletePrefix(p)
	if c.mirror != nil {
		if _, err := c.mirror.removeAll(ctx, p); err != nil {
			return fmt.Errorf("cache: clear %q: %w", c.namespace, err)
		}
	}
	c.logger.Debug(ctx, "namespace cleared")
	return nil
}

// Sweep removes every expired entry from both layers and returns how
// many distinct entries went away. Entries still live at sweep time are
// never touched, including ones stored while the sweep runs.
func (c *Cache) Sweep(ctx context.Context) int {
	start := time.Now()

	removedMem := c.mem.sweep(c.now())
	removed := len(removedMem)

	if c.mirror != nil {
		seen := make(map[string]struct{}, len(removedMem))
		for _, key := range removedMem {
			seen[key] = struct{}{}
		}
		for _, key := range c.mirror.sweep(ctx) {
			if _, dup := seen[key]; !dup {
				removed++
			}
		}
	}

	c.stats.evictions.Add(int64(removed))
	c.metrics.RecordSweep(ctx, c.meta, removed, time.Since(start))
	if removed > 0 {
		c.logger.Debug(ctx, "sweep removed expired entries", observe.Field{Key: "entries", Value: removed})
	}
	return removed
}

// Stats returns a point-in-time snapshot of the tier's activity.
func (c *Cache) Stats() Stats {
	return c.stats.snapshot(c.mem.len(), c.mem.size())
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}

// validateNamespace checks that a namespace can scope keys unambiguously.
func validateNamespace(namespace string) error {
	if namespace == "" || strings.TrimSpace(namespace) == "" {
		return ErrInvalidNamespace
	}
	if strings.ContainsAny(namespace, ":\n\r") {
		return ErrInvalidNamespace
	}
	return nil
}
