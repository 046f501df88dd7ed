package cache

import (
	"testing"
	"time"
)

func TestMemStore_ByteAccounting(t *testing.T) {
	s := newMemStore()
	now := time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)

	s.set("pax:a:", NewEntry(make([]byte, 100), now, time.Hour))
	if s.size() != 100 {
		t.Errorf("size = %d after set, want 100", s.size())
	}

	// Overwrite replaces the old payload's bytes, not adds to them.
	s.set("pax:a:", NewEntry(make([]byte, 40), now, time.Hour))
	if s.size() != 40 {
		t.Errorf("size = %d after overwrite, want 40", s.size())
	}

	s.set("pax:b:", NewEntry(make([]byte, 60), now, time.Hour))
	if s.size() != 100 {
		t.Errorf("size = %d after second set, want 100", s.size())
	}
	if s.len() != 2 {
		t.Errorf("len = %d, want 2", s.len())
	}

	if !s.delete("pax:a:") {
		t.Error("delete reported absent for present key")
	}
	if s.size() != 60 {
		t.Errorf("size = %d after delete, want 60", s.size())
	}

	if s.delete("pax:a:") {
		t.Error("delete reported present for absent key")
	}
}

func TestMemStore_GetEvictsExpired(t *testing.T) {
	s := newMemStore()
	now := time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)

	s.set("pax:a:", NewEntry([]byte("x"), now, time.Minute))

	_, ok, evicted := s.get("pax:a:", now)
	if !ok || evicted {
		t.Errorf("get live = (%v, %v), want (true, false)", ok, evicted)
	}

	later := now.Add(2 * time.Minute)
	_, ok, evicted = s.get("pax:a:", later)
	if ok || !evicted {
		t.Errorf("get expired = (%v, %v), want (false, true)", ok, evicted)
	}
	if s.len() != 0 {
		t.Errorf("len = %d after lazy eviction, want 0", s.len())
	}
	if s.size() != 0 {
		t.Errorf("size = %d after lazy eviction, want 0", s.size())
	}

	// A second get finds nothing and reports no eviction.
	_, ok, evicted = s.get("pax:a:", later)
	if ok || evicted {
		t.Errorf("get absent = (%v, %v), want (false, false)", ok, evicted)
	}
}

func TestMemStore_PeekLeavesExpiredInPlace(t *testing.T) {
	s := newMemStore()
	now := time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)

	s.set("pax:a:", NewEntry([]byte("x"), now, time.Minute))

	if _, ok := s.peek("pax:a:", now.Add(2*time.Minute)); ok {
		t.Error("peek reported expired entry live")
	}
	if s.len() != 1 {
		t.Errorf("len = %d after peek, want 1", s.len())
	}
}

func TestMemStore_DeletePrefix(t *testing.T) {
	s := newMemStore()
	now := time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)

	s.set("pax:schedule:a", NewEntry(make([]byte, 10), now, time.Hour))
	s.set("pax:schedule:b", NewEntry(make([]byte, 10), now, time.Hour))
	s.set("pax:airline:a", NewEntry(make([]byte, 10), now, time.Hour))
	s.set("ops:schedule:a", NewEntry(make([]byte, 10), now, time.Hour))

	removed := s.deletePrefix("pax:schedule:")
	if len(removed) != 2 {
		t.Fatalf("deletePrefix removed %d keys, want 2", len(removed))
	}
	for _, key := range removed {
		if key != "pax:schedule:a" && key != "pax:schedule:b" {
			t.Errorf("deletePrefix removed unexpected key %q", key)
		}
	}
	if s.len() != 2 {
		t.Errorf("len = %d, want 2", s.len())
	}
	if s.size() != 20 {
		t.Errorf("size = %d, want 20", s.size())
	}
}

func TestMemStore_SweepRemovesOnlyExpired(t *testing.T) {
	s := newMemStore()
	now := time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)

	s.set("pax:a:", NewEntry(make([]byte, 10), now, time.Minute))
	s.set("pax:b:", NewEntry(make([]byte, 10), now, time.Hour))
	s.set("pax:c:", NewEntry(make([]byte, 10), now, time.Minute))

	expired := s.sweep(now.Add(2 * time.Minute))
	if len(expired) != 2 {
		t.Fatalf("sweep removed %d keys, want 2", len(expired))
	}
	if s.len() != 1 {
		t.Errorf("len = %d after sweep, want 1", s.len())
	}
	if s.size() != 10 {
		t.Errorf("size = %d after sweep, want 10", s.size())
	}
	if _, ok := s.peek("pax:b:", now.Add(2*time.Minute)); !ok {
		t.Error("sweep removed the live entry")
	}
}
