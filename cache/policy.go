package cache

import "time"

// Standard lifetimes for the two tiers.
const (
	// ServerDefaultTTL is the default entry lifetime for the in-process tier.
	ServerDefaultTTL = 24 * time.Hour
	// ClientDefaultTTL is the default entry lifetime for the mirrored tier.
	ClientDefaultTTL = 30 * time.Minute

	// ServerSweepInterval is the default sweep period for the in-process tier.
	ServerSweepInterval = 1 * time.Hour
	// ClientSweepInterval is the default sweep period for the mirrored tier.
	ClientSweepInterval = 10 * time.Minute
)

// Policy configures entry lifetimes.
type Policy struct {
	// DefaultTTL is the lifetime applied when a caller stores without one.
	// Must be positive; entries are never stored without an expiry.
	DefaultTTL time.Duration

	// MaxTTL is the maximum allowed lifetime. Longer requests are clamped.
	// If zero, no maximum is enforced.
	MaxTTL time.Duration
}

// ServerPolicy returns the lifetime policy for the in-process tier.
// DefaultTTL: 24 hours, no maximum.
func ServerPolicy() Policy {
	return Policy{DefaultTTL: ServerDefaultTTL}
}

// ClientPolicy returns the lifetime policy for the mirrored tier.
// DefaultTTL: 30 minutes, no maximum.
func ClientPolicy() Policy {
	return Policy{DefaultTTL: ClientDefaultTTL}
}

// Validate checks that the policy can produce an expiry for every store.
func (p Policy) Validate() error {
	if p.DefaultTTL <= 0 {
		return ErrNoDefaultTTL
	}
	return nil
}

// EffectiveTTL returns the lifetime to use, applying the default and clamping.
func (p Policy) EffectiveTTL(requested time.Duration) time.Duration {
	ttl := requested
	if ttl <= 0 {
		ttl = p.DefaultTTL
	}
	if p.MaxTTL > 0 && ttl > p.MaxTTL {
		ttl = p.MaxTTL
	}
	return ttl
}

// Class labels a payload family with its standard lifetime.
type Class string

const (
	// ClassOperational covers live data such as departure schedules.
	ClassOperational Class = "operational"
	// ClassReference covers slow-moving metadata such as airline and
	// aircraft descriptions or carrier logos.
	ClassReference Class = "reference"
	// ClassHistorical covers closed-period aggregates such as past
	// passenger-load figures.
	ClassHistorical Class = "historical"
)

// TTL returns the standard lifetime for the class.
// Operational: 30 minutes. Reference: 7 days. Historical: 30 days.
// Unknown classes return zero, which resolves to the policy default at
// store time.
func (c Class) TTL() time.Duration {
	switch c {
	case ClassOperational:
		return 30 * time.Minute
	case ClassReference:
		return 7 * 24 * time.Hour
	case ClassHistorical:
		return 30 * 24 * time.Hour
	default:
		return 0
	}
}
