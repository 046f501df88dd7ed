package observe

import (
	"context"
	"time"
)

// FetchFunc is the signature for upstream fetch functions.
// This is the standard function signature that Middleware wraps.
type FetchFunc func(ctx context.Context) ([]byte, error)

// Middleware wraps upstream fetches with observability (tracing, metrics, logging).
//
// Contract:
//   - Concurrency: Wrap() returns a thread-safe FetchFunc.
//   - Context: Propagates context through tracing spans.
//   - Errors: Errors from wrapped function are recorded and propagated unchanged.
//   - Ownership: Payload bytes are passed through without modification.
type Middleware struct {
	tracer  Tracer
	metrics Metrics
	logger  Logger
}

// NewMiddleware creates a new Middleware with the given observability components.
func NewMiddleware(tracer Tracer, metrics Metrics, logger Logger) *Middleware {
	return &Middleware{
		tracer:  tracer,
		metrics: metrics,
		logger:  logger,
	}
}

// Wrap wraps a FetchFunc with tracing, metrics, and logging for the fetch
// described by meta.
func (m *Middleware) Wrap(meta FetchMeta, fn FetchFunc) FetchFunc {
	return func(ctx context.Context) ([]byte, error) {
		// Start span
		ctx, span := m.tracer.StartSpan(ctx, meta)

		// Record start time
		start := time.Now()

		// Execute the fetch
		payload, err := fn(ctx)

		// Calculate duration
		duration := time.Since(start)

		// End span (records error status if err != nil)
		m.tracer.EndSpan(span, err)

		// Record metrics
		m.metrics.RecordFetch(ctx, meta, duration, err)

		// Log the fetch
		fields := []Field{
			{Key: "cache.prefix", Value: meta.Prefix},
			{Key: "duration_ms", Value: float64(duration.Milliseconds())},
		}

		if err != nil {
			fields = append(fields, Field{Key: "error", Value: err.Error()})
			m.logger.Error(ctx, "upstream fetch failed", fields...)
		} else {
			fields = append(fields, Field{Key: "bytes", Value: len(payload)})
			m.logger.Debug(ctx, "upstream fetch completed", fields...)
		}

		return payload, err
	}
}

// MiddlewareFromObserver creates a Middleware from an Observer.
// This is a convenience function for common use cases.
func MiddlewareFromObserver(obs Observer) (*Middleware, error) {
	if obs == nil {
		return nil, ErrNilObserver
	}

	tracer := newTracer(obs.Tracer())

	metrics, err := NewMetrics(obs.Meter())
	if err != nil {
		return nil, err
	}

	return NewMiddleware(tracer, metrics, obs.Logger()), nil
}
