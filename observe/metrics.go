package observe

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// EvictionReason labels why the cache removed an entry on its own.
type EvictionReason string

const (
	// EvictExpired marks lazy removal of an expired entry during a lookup.
	EvictExpired EvictionReason = "expired"
	// EvictSwept marks removal by a sweep pass.
	EvictSwept EvictionReason = "swept"
	// EvictCorrupt marks removal of an unreadable persistent entry.
	EvictCorrupt EvictionReason = "corrupt"
)

// Metrics records cache tier activity.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: must honor cancellation/deadlines and return quickly.
// - Errors: implementations must not panic.
type Metrics interface {
	// RecordLookup records one lookup and whether it hit.
	RecordLookup(ctx context.Context, meta CacheMeta, hit bool)

	// RecordStore records one store of size bytes.
	RecordStore(ctx context.Context, meta CacheMeta, bytes int)

	// RecordEviction records count entries removed for the given reason.
	RecordEviction(ctx context.Context, meta CacheMeta, reason EvictionReason, count int)

	// RecordPersistFailure records a durable write that failed.
	RecordPersistFailure(ctx context.Context, meta CacheMeta)

	// RecordSweep records one sweep pass, tallying its removals under
	// EvictSwept. Callers do not report swept entries through
	// RecordEviction as well.
	RecordSweep(ctx context.Context, meta CacheMeta, removed int, duration time.Duration)

	// RecordFetch records an upstream fetch with duration and error status.
	RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error)
}

// metricsImpl is the concrete implementation of Metrics.
type metricsImpl struct {
	meter           metric.Meter
	lookups         metric.Int64Counter
	stores          metric.Int64Counter
	storedBytes     metric.Int64Counter
	evictions       metric.Int64Counter
	persistFailures metric.Int64Counter
	sweepHist       metric.Float64Histogram
	fetchTotal      metric.Int64Counter
	fetchErrors     metric.Int64Counter
	fetchHist       metric.Float64Histogram
}

// NewMetrics creates a Metrics instance with the given meter.
func NewMetrics(meter metric.Meter) (Metrics, error) {
	lookups, err := meter.Int64Counter(
		"cache.lookups",
		metric.WithDescription("Total number of cache lookups"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return nil, err
	}

	stores, err := meter.Int64Counter(
		"cache.stores",
		metric.WithDescription("Total number of cache stores"),
		metric.WithUnit("{store}"),
	)
	if err != nil {
		return nil, err
	}

	storedBytes, err := meter.Int64Counter(
		"cache.stored_bytes",
		metric.WithDescription("Total payload bytes written to the cache"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, err
	}

	evictions, err := meter.Int64Counter(
		"cache.evictions",
		metric.WithDescription("Total number of entries the cache removed on its own"),
		metric.WithUnit("{entry}"),
	)
	if err != nil {
		return nil, err
	}

	persistFailures, err := meter.Int64Counter(
		"cache.persist_failures",
		metric.WithDescription("Total number of failed durable writes"),
		metric.WithUnit("{failure}"),
	)
	if err != nil {
		return nil, err
	}

	sweepHist, err := meter.Float64Histogram(
		"cache.sweep.duration_ms",
		metric.WithDescription("Sweep pass duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	fetchTotal, err := meter.Int64Counter(
		"cache.fetch.total",
		metric.WithDescription("Total number of upstream fetches"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		return nil, err
	}

	fetchErrors, err := meter.Int64Counter(
		"cache.fetch.errors",
		metric.WithDescription("Total number of failed upstream fetches"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return nil, err
	}

	fetchHist, err := meter.Float64Histogram(
		"cache.fetch.duration_ms",
		metric.WithDescription("Upstream fetch duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &metricsImpl{
		meter:           meter,
		lookups:         lookups,
		stores:          stores,
		storedBytes:     storedBytes,
		evictions:       evictions,
		persistFailures: persistFailures,
		sweepHist:       sweepHist,
		fetchTotal:      fetchTotal,
		fetchErrors:     fetchErrors,
		fetchHist:       fetchHist,
	}, nil
}

func cacheAttrs(meta CacheMeta) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("cache.namespace", meta.Namespace),
		attribute.Bool("cache.mirrored", meta.Mirrored),
	}
}

// RecordLookup records one lookup and whether it hit.
func (m *metricsImpl) RecordLookup(ctx context.Context, meta CacheMeta, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	attrs := append(cacheAttrs(meta), attribute.String("cache.result", result))
	m.lookups.Add(ctx, 1, metric.WithAttributes(attrs...))
}

// RecordStore records one store of size bytes.
func (m *metricsImpl) RecordStore(ctx context.Context, meta CacheMeta, bytes int) {
	opt := metric.WithAttributes(cacheAttrs(meta)...)
	m.stores.Add(ctx, 1, opt)
	m.storedBytes.Add(ctx, int64(bytes), opt)
}

// RecordEviction records count entries removed for the given reason.
func (m *metricsImpl) RecordEviction(ctx context.Context, meta CacheMeta, reason EvictionReason, count int) {
	if count <= 0 {
		return
	}
	attrs := append(cacheAttrs(meta), attribute.String("cache.eviction_reason", string(reason)))
	m.evictions.Add(ctx, int64(count), metric.WithAttributes(attrs...))
}

// RecordPersistFailure records a durable write that failed.
func (m *metricsImpl) RecordPersistFailure(ctx context.Context, meta CacheMeta) {
	m.persistFailures.Add(ctx, 1, metric.WithAttributes(cacheAttrs(meta)...))
}

// RecordSweep records one sweep pass.
func (m *metricsImpl) RecordSweep(ctx context.Context, meta CacheMeta, removed int, duration time.Duration) {
	m.sweepHist.Record(ctx, float64(duration.Milliseconds()), metric.WithAttributes(cacheAttrs(meta)...))
	m.RecordEviction(ctx, meta, EvictSwept, removed)
}

// RecordFetch records an upstream fetch with duration and error status.
func (m *metricsImpl) RecordFetch(ctx context.Context, meta FetchMeta, duration time.Duration, err error) {
	attrs := []attribute.KeyValue{
		attribute.String("cache.namespace", meta.Namespace),
		attribute.String("cache.prefix", meta.Prefix),
	}
	opt := metric.WithAttributes(attrs...)

	m.fetchTotal.Add(ctx, 1, opt)
	if err != nil {
		m.fetchErrors.Add(ctx, 1, opt)
	}
	m.fetchHist.Record(ctx, float64(duration.Milliseconds()), opt)
}

// noopMetrics is a metrics implementation that does nothing.
type noopMetrics struct{}

func (m *noopMetrics) RecordLookup(ctx context.Context, meta CacheMeta, hit bool)             {}
func (m *noopMetrics) RecordStore(ctx context.Context, meta CacheMeta, bytes int)             {}
func (m *noopMetrics) RecordEviction(ctx context.Context, meta CacheMeta, r EvictionReason, n int) {
}
func (m *noopMetrics) RecordPersistFailure(ctx context.Context, meta CacheMeta) {}
func (m *noopMetrics) RecordSweep(ctx context.Context, meta CacheMeta, removed int, d time.Duration) {
}
func (m *noopMetrics) RecordFetch(ctx context.Context, meta FetchMeta, d time.Duration, err error) {
}

// NopMetrics returns a Metrics that discards everything. It is the default
// wherever a Metrics is optional.
func NopMetrics() Metrics {
	return &noopMetrics{}
}
