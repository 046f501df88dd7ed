package cache

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"
)

// Source fetches one upstream response on a cache miss.
type Source func(ctx context.Context) ([]byte, error)

// Fetcher runs the read-through path: answer from the cache when a live
// entry exists, otherwise call upstream once and store the result.
// Upstream failures propagate to the caller and are never cached, so the
// next lookup retries.
//
// By default concurrent misses for the same key each call upstream; the
// brief duplication is accepted over cross-request coordination. Opt in
// to WithCoalescing where an upstream call is expensive enough to share.
type Fetcher struct {
	cache    *Cache
	coalesce bool
	group    singleflight.Group
}

// FetcherOption adjusts a Fetcher.
type FetcherOption func(*Fetcher)

// WithCoalescing collapses concurrent misses for one key into a single
// upstream call whose result every waiter shares.
func WithCoalescing() FetcherOption {
	return func(f *Fetcher) {
		f.coalesce = true
	}
}

// NewFetcher creates a Fetcher over c.
func NewFetcher(c *Cache, opts ...FetcherOption) *Fetcher {
	f := &Fetcher{cache: c}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the payload for key, from cache on a hit or from src on a
// miss. A hit never invokes src. The ttl passes through Set, so zero
// resolves to the tier's policy default.
func (f *Fetcher) Fetch(ctx context.Context, key string, ttl time.Duration, src Source) ([]byte, error) {
	if payload, ok := f.cache.Get(ctx, key); ok {
		return payload, nil
	}

	if !f.coalesce {
		return f.fill(ctx, key, ttl, src)
	}

	v, err, _ := f.group.Do(key, func() (any, error) {
		// A flight that lost the race to a just-finished one finds the
		// entry already stored; serve it instead of going upstream.
		if payload, ok := f.cache.Get(ctx, key); ok {
			return payload, nil
		}
		return f.fill(ctx, key, ttl, src)
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// fill calls upstream and stores the result. Errors are not cached.
func (f *Fetcher) fill(ctx context.Context, key string, ttl time.Duration, src Source) ([]byte, error) {
	payload, err := src(ctx)
	if err != nil {
		return payload, err
	}
	_ = f.cache.Set(ctx, key, payload, ttl)
	return payload, nil
}
