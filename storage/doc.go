// Package storage provides durable substrates for mirrored cache tiers.
//
// Each substrate implements cache.Storage over a different medium: Memory
// for tests and throwaway setups, FS for a local directory, LibSQL for an
// embedded or remote libsql database, and S3 for an object store shared
// across hosts. Substrates store opaque encoded entries under full cache
// keys and never interpret either; expiry and corruption handling live in
// the cache package.
package storage
