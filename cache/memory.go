package cache

import (
	"sync"
	"time"

	radix "github.com/armon/go-radix"
)

// memStore is the transient half of a tier: a radix tree of live entries
// guarded by a read-write mutex. The radix layout makes the prefix
// operations (namespace clears, class invalidation) walks over exactly the
// affected subtree.
type memStore struct {
	mu    sync.RWMutex
	tree  *radix.Tree
	bytes int64
}

func newMemStore() *memStore {
	return &memStore{tree: radix.New()}
}

// get returns the live entry for key. Expired entries are deleted on the
// way out; evicted reports whether that happened so the caller can account
// for it and mirror the removal.
func (s *memStore) get(key string, now time.Time) (e Entry, ok bool, evicted bool) {
	s.mu.RLock()
	v, found := s.tree.Get(key)
	s.mu.RUnlock()

	if !found {
		return Entry{}, false, false
	}

	entry := v.(Entry)
	if entry.Valid(now) {
		return entry, true, false
	}

	// Expired - delete lazily. Re-check under the write lock: a store
	// racing this read may have replaced the entry with a live one,
	// which must survive.
	s.mu.Lock()
	defer s.mu.Unlock()
	v, found = s.tree.Get(key)
	if !found {
		return Entry{}, false, false
	}
	if cur := v.(Entry); !cur.Valid(now) {
		s.tree.Delete(key)
		s.bytes -= int64(len(cur.Payload))
		return Entry{}, false, true
	}
	return Entry{}, false, false
}

// peek reports the live entry for key without mutating the store.
func (s *memStore) peek(key string, now time.Time) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, found := s.tree.Get(key)
	if !found {
		return Entry{}, false
	}
	entry := v.(Entry)
	if !entry.Valid(now) {
		return Entry{}, false
	}
	return entry, true
}

// set stores the entry, replacing any previous one under the key.
func (s *memStore) set(key string, e Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, replaced := s.tree.Insert(key, e); replaced {
		s.bytes -= int64(len(old.(Entry).Payload))
	}
	s.bytes += int64(len(e.Payload))
}

// delete removes key. Returns whether an entry was present.
func (s *memStore) delete(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, found := s.tree.Delete(key)
	if found {
		s.bytes -= int64(len(old.(Entry).Payload))
	}
	return found
}

// deletePrefix removes every entry whose key begins with prefix and
// returns the removed keys.
func (s *memStore) deletePrefix(prefix string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	var (
		removed []string
		freed   int64
	)
	s.tree.WalkPrefix(prefix, func(key string, v interface{}) bool {
		removed = append(removed, key)
		freed += int64(len(v.(Entry).Payload))
		return false
	})
	s.tree.DeletePrefix(prefix)
	s.bytes -= freed
	return removed
}

// sweep removes every expired entry at now and returns their keys.
// Entries that are live at now are never touched, including ones written
// while a sweep pass is underway.
func (s *memStore) sweep(now time.Time) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expired []string
	s.tree.Walk(func(key string, v interface{}) bool {
		if !v.(Entry).Valid(now) {
			expired = append(expired, key)
		}
		return false
	})
	for _, key := range expired {
		if old, found := s.tree.Delete(key); found {
			s.bytes -= int64(len(old.(Entry).Payload))
		}
	}
	return expired
}

// len returns the number of stored entries, live or not yet swept.
func (s *memStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tree.Len()
}

// size returns the payload bytes currently held.
func (s *memStore) size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bytes
}
