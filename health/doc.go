// Package health reports on the cache tiers, their substrates, and the
// process around them.
//
// A Checker is any component that can report its health as one of three
// states: healthy, degraded, or unhealthy. The package ships three:
//
//   - CacheChecker reads a tier's counters and reports degraded when
//     durable mirror writes are failing. The tier keeps serving from
//     memory, so this is trouble worth a page only before a restart.
//
//   - StorageChecker proves a substrate can still complete a
//     write/read/remove round trip, using probe keys under the reserved
//     "health" namespace.
//
//   - MemoryChecker watches the process heap, which is where every
//     cached entry lives.
//
// An Aggregator runs the registered checkers, in parallel by default,
// and folds their results into one status where any unhealthy check
// wins over degraded and degraded over healthy.
//
//	agg := health.NewAggregator()
//	agg.Register("client", health.NewCacheChecker("client", tier))
//	agg.Register("mirror", health.NewStorageChecker("mirror", substrate))
//
//	results := agg.CheckAll(ctx)
//	overall := agg.OverallStatus(results)
//
// RegisterHandlers mounts the usual probe endpoints on a mux: /healthz
// liveness, /readyz readiness, /health detailed JSON, /health/{check}
// for one component.
package health
