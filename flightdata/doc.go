// Package flightdata exposes the typed flight-data lookups the crowd
// dashboard is built on.
//
// Each operation (departure schedules, airline and aircraft reference
// data, carrier logos, historical passenger loads) knows its cache key
// shape and its payload class, and resolves through the same path:
// answer from the cache when a live entry exists, otherwise call the
// injected provider Source once and store the reply under the class's
// standard lifetime.
//
// The provider itself stays outside this module. A Source receives the
// operation descriptor and returns opaque payload bytes; deployments
// bind it to their flight-data API client. An optional upstream.Stack
// hardens every provider call and an optional observe.Observer records
// spans, fetch durations, and structured logs around misses.
//
//	client, err := flightdata.New(flightdata.Config{
//	    Cache:  tierCache,
//	    Source: provider,
//	    Stack:  upstream.NewStack(upstream.WithTimeout(5 * time.Second)),
//	})
//	if err != nil {
//	    return err
//	}
//	payload, err := client.Schedules(ctx, "LIS", "2025-12-31")
package flightdata
