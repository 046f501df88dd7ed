package health

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/queuecast/paxcache/cache"
)

// ProbeNamespace scopes round-trip probe keys. It is reserved: cache
// tiers must not be configured with it, so probes never collide with
// real entries and a namespace-scoped clear never removes a live probe.
const ProbeNamespace = "health"

// StorageChecker proves a substrate can still complete a full round
// trip: write a probe entry, read it back, remove it. A mirror whose
// disk filled up or whose database went away fails here before the
// cache tier itself notices anything beyond persist-failure counts.
type StorageChecker struct {
	name      string
	substrate cache.Storage
}

// NewStorageChecker creates a checker probing the substrate.
func NewStorageChecker(name string, substrate cache.Storage) *StorageChecker {
	return &StorageChecker{name: name, substrate: substrate}
}

// Name identifies the checker.
func (s *StorageChecker) Name() string {
	return s.name
}

// Check performs the write/read/remove round trip. Each probe uses a
// fresh nonce key, so concurrent probes against a shared substrate do
// not trample each other.
func (s *StorageChecker) Check(ctx context.Context) Result {
	key := fmt.Sprintf("%s:probe:nonce=%d", ProbeNamespace, rand.Uint64())
	payload := []byte(time.Now().UTC().Format(time.RFC3339Nano))

	start := time.Now()

	if err := s.substrate.Write(ctx, key, payload); err != nil {
		return Unhealthy("probe write failed", err)
	}

	data, found, err := s.substrate.Read(ctx, key)
	if err != nil {
		return Unhealthy("probe read failed", err)
	}
	if !found {
		return Unhealthy("probe entry missing after write", ErrCheckFailed)
	}
	if !bytes.Equal(data, payload) {
		return Unhealthy("probe entry corrupt", ErrCheckFailed)
	}

	if err := s.substrate.Remove(ctx, key); err != nil {
		return Degraded(fmt.Sprintf("probe cleanup failed: %v", err))
	}

	elapsed := time.Since(start)
	return Healthy("round trip ok").WithDetails(map[string]any{
		"round_trip_ms": float64(elapsed.Microseconds()) / 1000,
	})
}
