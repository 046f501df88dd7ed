package cache

import (
	"context"
	"time"

	"github.com/queuecast/paxcache/observe"
)

// mirror keeps a durable copy of a tier's entries on a Storage substrate
// so they survive process restarts. All mirror writes are best-effort: a
// failed durable write leaves the in-memory entry serving and is reported
// through logs and counters, never to the caller.
type mirror struct {
	storage Storage
	now     func() time.Time
	logger  observe.Logger
	metrics observe.Metrics
	meta    observe.CacheMeta
	stats   *counters
}

// write persists an encoded entry. On failure it sweeps expired entries
// out of the substrate to free space and retries once. The in-memory copy
// is already in place when this runs, so the worst outcome is a
// memory-only entry.
func (m *mirror) write(ctx context.Context, key string, e Entry) {
	data, err := EncodeEntry(e)
	if err != nil {
		// Entries are always encodable; this guards substrate callers
		// against a future envelope change.
		m.logger.Error(ctx, "entry encode failed", observe.Field{Key: "key", Value: key}, observe.Field{Key: "error", Value: err.Error()})
		return
	}

	if err := m.storage.Write(ctx, key, data); err != nil {
		m.stats.persistFailures.Add(1)
		m.metrics.RecordPersistFailure(ctx, m.meta)
		m.logger.Warn(ctx, "persist failed, sweeping substrate and retrying",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)

		if removed := m.sweep(ctx); len(removed) > 0 {
			m.stats.evictions.Add(int64(len(removed)))
			m.metrics.RecordEviction(ctx, m.meta, observe.EvictSwept, len(removed))
		}

		if err := m.storage.Write(ctx, key, data); err != nil {
			m.logger.Error(ctx, "persist retry failed, entry is memory-only",
				observe.Field{Key: "key", Value: key},
				observe.Field{Key: "error", Value: err.Error()},
			)
			return
		}
		m.logger.Info(ctx, "persist retry succeeded", observe.Field{Key: "key", Value: key})
	}
}

// read returns the live persistent entry for key, if any. Expired and
// corrupt entries are removed on discovery and reported as absent.
func (m *mirror) read(ctx context.Context, key string) (Entry, bool) {
	data, found, err := m.storage.Read(ctx, key)
	if err != nil {
		m.logger.Warn(ctx, "persistent read failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return Entry{}, false
	}
	if !found {
		return Entry{}, false
	}

	e, err := DecodeEntry(data)
	if err != nil {
		m.remove(ctx, key)
		m.stats.evictions.Add(1)
		m.metrics.RecordEviction(ctx, m.meta, observe.EvictCorrupt, 1)
		m.logger.Warn(ctx, "corrupt persistent entry removed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
		return Entry{}, false
	}

	if !e.Valid(m.now()) {
		m.remove(ctx, key)
		m.stats.evictions.Add(1)
		m.metrics.RecordEviction(ctx, m.meta, observe.EvictExpired, 1)
		return Entry{}, false
	}

	return e, true
}

// peek reports whether a live persistent entry exists for key without
// mutating the substrate.
func (m *mirror) peek(ctx context.Context, key string) bool {
	data, found, err := m.storage.Read(ctx, key)
	if err != nil || !found {
		return false
	}
	e, err := DecodeEntry(data)
	if err != nil {
		return false
	}
	return e.Valid(m.now())
}

// remove deletes key from the substrate, logging failures.
func (m *mirror) remove(ctx context.Context, key string) {
	if err := m.storage.Remove(ctx, key); err != nil {
		m.logger.Warn(ctx, "persistent remove failed",
			observe.Field{Key: "key", Value: key},
			observe.Field{Key: "error", Value: err.Error()},
		)
	}
}

// removeAll deletes every substrate key beginning with prefix and returns
// the removed keys. The first removal error is returned after the
// remaining keys have been attempted.
func (m *mirror) removeAll(ctx context.Context, prefix string) ([]string, error) {
	keys, err := m.storage.Keys(ctx, prefix)
	if err != nil {
		return nil, err
	}

	var (
		removed  []string
		firstErr error
	)
	for _, key := range keys {
		if err := m.storage.Remove(ctx, key); err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, key)
	}
	return removed, firstErr
}

// sweep removes every expired or unreadable entry the namespace owns from
// the substrate and returns their keys.
func (m *mirror) sweep(ctx context.Context) []string {
	keys, err := m.storage.Keys(ctx, namespacePrefix(m.meta.Namespace))
	if err != nil {
		m.logger.Warn(ctx, "persistent sweep listing failed", observe.Field{Key: "error", Value: err.Error()})
		return nil
	}

	now := m.now()
	var removed []string
	for _, key := range keys {
		data, found, err := m.storage.Read(ctx, key)
		if err != nil || !found {
			continue
		}
		e, err := DecodeEntry(data)
		if err == nil && e.Valid(now) {
			continue
		}
		m.remove(ctx, key)
		removed = append(removed, key)
	}
	return removed
}

// reload replays the substrate into the transient store. Expired and
// corrupt entries found along the way are purged, so a freshly built tier
// starts from a swept substrate. Returns the number of entries loaded.
func (m *mirror) reload(ctx context.Context, mem *memStore) (int, error) {
	keys, err := m.storage.Keys(ctx, namespacePrefix(m.meta.Namespace))
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, key := range keys {
		e, ok := m.read(ctx, key)
		if !ok {
			continue
		}
		mem.set(key, e)
		loaded++
	}
	return loaded, nil
}
