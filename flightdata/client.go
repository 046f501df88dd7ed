package flightdata

import (
	"context"

	"github.com/queuecast/paxcache/cache"
	"github.com/queuecast/paxcache/observe"
	"github.com/queuecast/paxcache/upstream"
)

// Operation describes one provider lookup: which resource family it
// belongs to, how long its payload lives, and the parameters that
// identify it. The cache key is built from Prefix and Params.
type Operation struct {
	// Prefix names the resource family, e.g. "schedule".
	Prefix string

	// Class selects the standard lifetime for the payload.
	Class cache.Class

	// Params identify the exact resource within the family.
	Params cache.Params
}

// Source resolves one operation against the external flight-data
// provider and returns the raw payload bytes.
//
// Contract:
// - Concurrency: must be safe for concurrent use.
// - Context: must honor cancellation/deadlines.
// - Errors: should map provider failures onto the upstream sentinels.
type Source func(ctx context.Context, op Operation) ([]byte, error)

// Config assembles a Client.
type Config struct {
	// Cache answers lookups before any provider call. Required.
	Cache *cache.Cache

	// Source resolves cache misses against the provider. Required.
	Source Source

	// Stack wraps every provider call with resilience patterns.
	// Optional; nil calls the provider directly.
	Stack *upstream.Stack

	// Observer records spans, fetch durations, and logs around misses.
	// Optional; nil disables fetch telemetry.
	Observer observe.Observer

	// Coalesce collapses concurrent misses for one key into a single
	// provider call. Default: false, concurrent misses each fetch.
	Coalesce bool
}

// Validate checks that the configuration can serve lookups.
func (c Config) Validate() error {
	if c.Cache == nil {
		return ErrNoCache
	}
	if c.Source == nil {
		return ErrNoSource
	}
	return nil
}

// Client runs the dashboard's flight-data lookups through the cache.
type Client struct {
	cache   *cache.Cache
	fetcher *cache.Fetcher
	source  Source
	stack   *upstream.Stack
	mw      *observe.Middleware
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cache:  cfg.Cache,
		source: cfg.Source,
		stack:  cfg.Stack,
	}

	var opts []cache.FetcherOption
	if cfg.Coalesce {
		opts = append(opts, cache.WithCoalescing())
	}
	c.fetcher = cache.NewFetcher(cfg.Cache, opts...)

	if cfg.Observer != nil {
		mw, err := observe.MiddlewareFromObserver(cfg.Observer)
		if err != nil {
			return nil, err
		}
		c.mw = mw
	}

	return c, nil
}

// fetch resolves op through the cache, wrapping the provider call in the
// configured stack and telemetry. Telemetry sits outermost so one span
// covers the whole miss, retries included.
func (c *Client) fetch(ctx context.Context, op Operation) ([]byte, error) {
	key := c.cache.Key(op.Prefix, op.Params)

	var fn func(ctx context.Context) ([]byte, error)
	fn = func(ctx context.Context) ([]byte, error) {
		return c.source(ctx, op)
	}

	if c.stack != nil {
		fn = c.stack.Wrap(fn)
	}
	if c.mw != nil {
		fn = c.mw.Wrap(observe.FetchMeta{
			Namespace: c.cache.Namespace(),
			Prefix:    op.Prefix,
			Key:       key,
		}, fn)
	}

	return c.fetcher.Fetch(ctx, key, op.Class.TTL(), cache.Source(fn))
}

// Stats reports the underlying cache counters.
func (c *Client) Stats() cache.Stats {
	return c.cache.Stats()
}
