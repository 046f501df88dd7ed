// Package cache provides a two-tier TTL response cache for upstream API
// payloads.
//
// It provides deterministic key construction from request parameters, an
// in-memory store with optional durable mirroring that survives restarts,
// lazy and periodic expiry, and a read-through Fetcher that shields
// upstream calls.
package cache
