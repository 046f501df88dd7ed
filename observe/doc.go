// Package observe provides observability primitives for the response cache.
//
// It is a pure instrumentation library: no caching, no transport, no I/O
// beyond exporter setup. Consumers wire the observer into the cache tiers
// and wrap upstream fetches with Middleware.
package observe
