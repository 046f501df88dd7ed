package upstream

import "context"

// FetchFunc is one call to an external provider: it returns the raw
// response payload or an error, ideally one of the sentinels in this
// package. The cache layer treats the payload as opaque bytes.
type FetchFunc func(ctx context.Context) ([]byte, error)
