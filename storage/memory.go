package storage

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/queuecast/paxcache/cache"
)

// Memory is an in-process substrate. It gives a mirrored tier the full
// write-through code path without touching disk, which makes it the
// substrate of choice for tests and throwaway environments. Entries do
// not survive a restart.
type Memory struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemory creates an empty in-process substrate.
func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// Read returns the stored bytes for key.
func (m *Memory) Read(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.data[key]
	if !ok {
		return nil, false, nil
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, true, nil
}

// Write stores data under key, replacing any previous value.
func (m *Memory) Write(_ context.Context, key string, data []byte) error {
	stored := make([]byte, len(data))
	copy(stored, data)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = stored
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (m *Memory) Remove(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// Keys returns every stored key beginning with prefix, sorted.
func (m *Memory) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases nothing; a Memory substrate holds no external resources.
func (m *Memory) Close() error { return nil }

// Len returns the number of stored entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.data)
}

var _ cache.Storage = (*Memory)(nil)
