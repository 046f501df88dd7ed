package cache

import "context"

// Storage is a durable key-value substrate backing a mirrored tier.
// Implementations live in the storage package; the cache stores encoded
// entry envelopes and never interprets substrate bytes itself.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines where the substrate blocks.
// - Errors: Read returns (nil, false, nil) on absence; errors are substrate failures only.
// - Ownership: returned byte slices belong to the caller.
type Storage interface {
	// Read returns the stored bytes for key, or found=false when absent.
	Read(ctx context.Context, key string) (data []byte, found bool, err error)

	// Write stores data under key, replacing any previous value.
	Write(ctx context.Context, key string, data []byte) error

	// Remove deletes key. Idempotent - absence is not an error.
	Remove(ctx context.Context, key string) error

	// Keys lists every stored key beginning with prefix.
	Keys(ctx context.Context, prefix string) ([]string, error)

	// Close releases substrate resources. The owner of the substrate
	// calls it once, after the caches sharing it are done.
	Close() error
}
