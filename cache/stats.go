package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/dustin/go-humanize"
)

// Stats is a point-in-time snapshot of one tier's activity. It is
// diagnostic output only; no behavior may depend on it.
type Stats struct {
	// Entries is the number of entries currently held in memory,
	// including expired ones not yet swept.
	Entries int

	// Bytes is the payload size currently held in memory.
	Bytes int64

	// Hits counts lookups answered from the tier.
	Hits int64

	// Misses counts lookups that found nothing live.
	Misses int64

	// Sets counts stores, including overwrites.
	Sets int64

	// Evictions counts removals by the tier itself: lazy expiry on read,
	// sweep removals, and corrupt persistent entries dropped on discovery.
	Evictions int64

	// PersistFailures counts stores whose durable write failed. The
	// entries remain served from memory only.
	PersistFailures int64
}

// String renders the snapshot on one line for logs and dashboards.
func (s Stats) String() string {
	return fmt.Sprintf("entries=%d size=%s hits=%s misses=%s sets=%s evictions=%s persist_failures=%s",
		s.Entries,
		humanize.IBytes(uint64(max(s.Bytes, 0))),
		humanize.Comma(s.Hits),
		humanize.Comma(s.Misses),
		humanize.Comma(s.Sets),
		humanize.Comma(s.Evictions),
		humanize.Comma(s.PersistFailures),
	)
}

// counters accumulates tier activity. All fields are updated atomically;
// Stats() snapshots them without stopping writers.
type counters struct {
	hits            atomic.Int64
	misses          atomic.Int64
	sets            atomic.Int64
	evictions       atomic.Int64
	persistFailures atomic.Int64
}

func (c *counters) snapshot(entries int, bytes int64) Stats {
	return Stats{
		Entries:         entries,
		Bytes:           bytes,
		Hits:            c.hits.Load(),
		Misses:          c.misses.Load(),
		Sets:            c.sets.Load(),
		Evictions:       c.evictions.Load(),
		PersistFailures: c.persistFailures.Load(),
	}
}
