package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock for expiry tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 12, 31, 8, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, cfg Config) *Cache {
	t.Helper()
	c, err := New(context.Background(), cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestCache_GetSetDelete(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	key := c.Key("schedule", Params{"airport": "LIS"})

	// Get on missing key.
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss for missing key")
	}

	// Set and get.
	if err := c.Set(ctx, key, []byte("payload"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit after Set")
	}
	if string(got) != "payload" {
		t.Errorf("Get = %q, want %q", got, "payload")
	}

	// Delete and verify gone.
	if err := c.Delete(ctx, key); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss after Delete")
	}
}

func TestCache_Expiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestCache(t, Config{Namespace: "pax", Now: clock.Now})

	key := c.Key("schedule", Params{"airport": "LIS", "date": "2025-12-31"})
	if err := c.Set(ctx, key, []byte("flights"), 30*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// One millisecond before expiry the entry is still served.
	clock.Advance(30*time.Minute - time.Millisecond)
	if _, ok := c.Get(ctx, key); !ok {
		t.Error("expected hit 1ms before expiry")
	}

	// Two milliseconds later the window has closed.
	clock.Advance(2 * time.Millisecond)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss 1ms after expiry")
	}

	// The expired entry was removed, not just hidden.
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("Entries = %d after expired Get, want 0", n)
	}
}

func TestCache_ExpiryBoundaryIsExclusive(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestCache(t, Config{Namespace: "pax", Now: clock.Now})

	key := c.Key("airline", Params{"code": "TP"})
	if err := c.Set(ctx, key, []byte("TAP Air Portugal"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	// At exactly expiresAt the entry is no longer valid.
	clock.Advance(time.Hour)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss at exact expiry instant")
	}
}

func TestCache_DefaultTTLApplied(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		ttl  time.Duration
	}{
		{"zero ttl", 0},
		{"negative ttl", -time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := newFakeClock()
			c := newTestCache(t, Config{
				Namespace: "pax",
				Policy:    Policy{DefaultTTL: time.Hour},
				Now:       clock.Now,
			})

			key := c.Key("schedule", Params{"airport": "LIS"})
			if err := c.Set(ctx, key, []byte("x"), tt.ttl); err != nil {
				t.Fatalf("Set: %v", err)
			}

			// Just under the default the entry survives.
			clock.Advance(59 * time.Minute)
			if _, ok := c.Get(ctx, key); !ok {
				t.Error("expected hit inside default TTL window")
			}

			// Past the default it is gone.
			clock.Advance(2 * time.Minute)
			if _, ok := c.Get(ctx, key); ok {
				t.Error("expected miss past default TTL")
			}
		})
	}
}

func TestCache_TTLClampedToMax(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestCache(t, Config{
		Namespace: "pax",
		Policy:    Policy{DefaultTTL: time.Hour, MaxTTL: 2 * time.Hour},
		Now:       clock.Now,
	})

	key := c.Key("history", Params{"airport": "LIS", "month": "2025-11"})
	if err := c.Set(ctx, key, []byte("loads"), 24*time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clock.Advance(2*time.Hour + time.Second)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss past MaxTTL despite longer requested TTL")
	}
}

func TestCache_SetOverwriteRefreshesExpiry(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestCache(t, Config{Namespace: "pax", Now: clock.Now})

	key := c.Key("schedule", Params{"airport": "OPO"})
	if err := c.Set(ctx, key, []byte("v1"), 10*time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clock.Advance(8 * time.Minute)
	if err := c.Set(ctx, key, []byte("v2"), 10*time.Minute); err != nil {
		t.Fatalf("Set overwrite: %v", err)
	}

	// 11 minutes after the first write, but only 3 after the second.
	clock.Advance(3 * time.Minute)
	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit, overwrite should have refreshed expiry")
	}
	if string(got) != "v2" {
		t.Errorf("Get = %q, want %q", got, "v2")
	}

	if n := c.Stats().Entries; n != 1 {
		t.Errorf("Entries = %d after overwrite, want 1", n)
	}
}

func TestCache_HasDoesNotMutate(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestCache(t, Config{Namespace: "pax", Now: clock.Now})

	key := c.Key("aircraft", Params{"code": "A21N"})
	if err := c.Set(ctx, key, []byte("Airbus A321neo"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if !c.Has(ctx, key) {
		t.Error("Has = false for live entry")
	}

	clock.Advance(2 * time.Minute)
	if c.Has(ctx, key) {
		t.Error("Has = true for expired entry")
	}

	// Has must not delete; the expired entry is still resident until a
	// Get or Sweep touches it.
	if n := c.Stats().Entries; n != 1 {
		t.Errorf("Entries = %d after Has on expired entry, want 1", n)
	}

	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss for expired entry")
	}
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("Entries = %d after Get on expired entry, want 0", n)
	}
}

func TestCache_NilPayload(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	key := c.Key("logo", Params{"code": "TP"})
	if err := c.Set(ctx, key, nil, time.Minute); err != nil {
		t.Fatalf("Set nil payload: %v", err)
	}

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit for nil payload")
	}
	if len(got) != 0 {
		t.Errorf("Get = %v, want empty payload", got)
	}
}

func TestCache_LargePayload(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	large := make([]byte, 1<<20)
	for i := range large {
		large[i] = byte(i % 251)
	}

	key := c.Key("logo", Params{"code": "LH"})
	if err := c.Set(ctx, key, large, time.Minute); err != nil {
		t.Fatalf("Set 1MB payload: %v", err)
	}

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("expected hit for large payload")
	}
	if len(got) != len(large) {
		t.Errorf("payload length = %d, want %d", len(got), len(large))
	}
	if got[1<<19] != large[1<<19] {
		t.Error("payload corrupted")
	}

	if c.Stats().Bytes < int64(len(large)) {
		t.Errorf("Bytes = %d, want at least %d", c.Stats().Bytes, len(large))
	}
}

func TestCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	const goroutines = 10
	const operations = 100

	var wg sync.WaitGroup
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			for j := 0; j < operations; j++ {
				key := c.Key("schedule", Params{
					"worker": fmt.Sprintf("%d", id),
					"op":     fmt.Sprintf("%d", j),
				})
				if err := c.Set(ctx, key, []byte("value"), time.Minute); err != nil {
					t.Errorf("Set: %v", err)
					return
				}
				if _, ok := c.Get(ctx, key); !ok {
					t.Errorf("expected hit for %s", key)
					return
				}
				if j%10 == 0 {
					if err := c.Delete(ctx, key); err != nil {
						t.Errorf("Delete: %v", err)
						return
					}
				}
			}
		}(i)
	}
	wg.Wait()
}

func TestCache_ContextCancellation(t *testing.T) {
	c := newTestCache(t, Config{Namespace: "pax"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Memory-only operation still works with a cancelled context; the
	// context matters only when a storage substrate is attached.
	key := c.Key("schedule", Params{"airport": "LIS"})
	if err := c.Set(ctx, key, []byte("x"), time.Minute); err != nil {
		t.Fatalf("Set with cancelled context: %v", err)
	}
	if _, ok := c.Get(ctx, key); !ok {
		t.Error("expected hit with cancelled context")
	}
}

func TestCache_ClearPrefix(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	for _, airport := range []string{"LIS", "OPO", "FAO"} {
		key := c.Key("schedule", Params{"airport": airport})
		if err := c.Set(ctx, key, []byte(airport), time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}
	airlineKey := c.Key("airline", Params{"code": "TP"})
	if err := c.Set(ctx, airlineKey, []byte("TAP"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	removed, err := c.ClearPrefix(ctx, "schedule")
	if err != nil {
		t.Fatalf("ClearPrefix: %v", err)
	}
	if removed != 3 {
		t.Errorf("ClearPrefix removed %d, want 3", removed)
	}

	if _, ok := c.Get(ctx, c.Key("schedule", Params{"airport": "LIS"})); ok {
		t.Error("schedule entry survived ClearPrefix")
	}
	if _, ok := c.Get(ctx, airlineKey); !ok {
		t.Error("airline entry removed by schedule ClearPrefix")
	}
}

func TestCache_ClearPrefix_NoMatches(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	removed, err := c.ClearPrefix(ctx, "nothing")
	if err != nil {
		t.Fatalf("ClearPrefix: %v", err)
	}
	if removed != 0 {
		t.Errorf("ClearPrefix removed %d, want 0", removed)
	}
}

func TestCache_Clear(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	for i := 0; i < 5; i++ {
		key := c.Key("schedule", Params{"n": fmt.Sprintf("%d", i)})
		if err := c.Set(ctx, key, []byte("x"), time.Minute); err != nil {
			t.Fatalf("Set: %v", err)
		}
	}

	if err := c.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n := c.Stats().Entries; n != 0 {
		t.Errorf("Entries = %d after Clear, want 0", n)
	}
	if b := c.Stats().Bytes; b != 0 {
		t.Errorf("Bytes = %d after Clear, want 0", b)
	}
}

func TestCache_Stats(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestCache(t, Config{Namespace: "pax", Now: clock.Now})

	k1 := c.Key("schedule", Params{"airport": "LIS"})
	k2 := c.Key("schedule", Params{"airport": "OPO"})

	if err := c.Set(ctx, k1, []byte("one"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := c.Set(ctx, k2, []byte("two"), time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}

	c.Get(ctx, k1)                                        // hit
	c.Get(ctx, c.Key("schedule", Params{"airport": "X"})) // miss

	clock.Advance(2 * time.Minute)
	c.Get(ctx, k1) // miss, evicts expired entry
	c.Get(ctx, k2) // miss, evicts expired entry

	s := c.Stats()
	if s.Sets != 2 {
		t.Errorf("Sets = %d, want 2", s.Sets)
	}
	if s.Hits != 1 {
		t.Errorf("Hits = %d, want 1", s.Hits)
	}
	if s.Misses != 3 {
		t.Errorf("Misses = %d, want 3", s.Misses)
	}
	if s.Evictions != 2 {
		t.Errorf("Evictions = %d, want 2", s.Evictions)
	}
	if s.PersistFailures != 0 {
		t.Errorf("PersistFailures = %d, want 0", s.PersistFailures)
	}
	if s.Entries != 0 {
		t.Errorf("Entries = %d, want 0", s.Entries)
	}
}

func TestNew_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr error
	}{
		{
			name:    "empty namespace",
			cfg:     Config{},
			wantErr: ErrInvalidNamespace,
		},
		{
			name:    "whitespace namespace",
			cfg:     Config{Namespace: "   "},
			wantErr: ErrInvalidNamespace,
		},
		{
			name:    "namespace with separator",
			cfg:     Config{Namespace: "pax:prod"},
			wantErr: ErrInvalidNamespace,
		},
		{
			name:    "namespace with newline",
			cfg:     Config{Namespace: "pax\nprod"},
			wantErr: ErrInvalidNamespace,
		},
		{
			name:    "policy without default TTL",
			cfg:     Config{Namespace: "pax", Policy: Policy{MaxTTL: time.Hour}},
			wantErr: ErrNoDefaultTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(ctx, tt.cfg)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("New error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestNew_DefaultsToServerPolicy(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := newTestCache(t, Config{Namespace: "pax", Now: clock.Now})

	key := c.Key("schedule", Params{"airport": "LIS"})
	if err := c.Set(ctx, key, []byte("x"), 0); err != nil {
		t.Fatalf("Set: %v", err)
	}

	clock.Advance(23 * time.Hour)
	if _, ok := c.Get(ctx, key); !ok {
		t.Error("expected hit inside server default TTL")
	}

	clock.Advance(2 * time.Hour)
	if _, ok := c.Get(ctx, key); ok {
		t.Error("expected miss past server default TTL")
	}
}

func TestValidateKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr error
	}{
		{
			name:    "valid key",
			key:     "pax:schedule:airport=LIS",
			wantErr: nil,
		},
		{
			name:    "empty key",
			key:     "",
			wantErr: ErrInvalidKey,
		},
		{
			name:    "whitespace only",
			key:     "   ",
			wantErr: ErrInvalidKey,
		},
		{
			name:    "key with newline",
			key:     "pax:sched\nule",
			wantErr: ErrInvalidKey,
		},
		{
			name:    "key at max length",
			key:     strings.Repeat("k", MaxKeyLength),
			wantErr: nil,
		},
		{
			name:    "key too long",
			key:     strings.Repeat("k", MaxKeyLength+1),
			wantErr: ErrKeyTooLong,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateKey(%q) = %v, want %v", tt.key, err, tt.wantErr)
			}
		})
	}
}

func TestCache_SetRejectsInvalidKey(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(t, Config{Namespace: "pax"})

	if err := c.Set(ctx, "", []byte("x"), time.Minute); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set with empty key = %v, want %v", err, ErrInvalidKey)
	}

	long := strings.Repeat("k", MaxKeyLength+1)
	if err := c.Set(ctx, long, []byte("x"), time.Minute); !errors.Is(err, ErrKeyTooLong) {
		t.Errorf("Set with oversized key = %v, want %v", err, ErrKeyTooLong)
	}
}

func TestSentinelErrors(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{ErrInvalidKey, "cache: key is invalid"},
		{ErrKeyTooLong, "cache: key exceeds max length"},
		{ErrInvalidNamespace, "cache: namespace is invalid"},
		{ErrNoDefaultTTL, "cache: policy default TTL must be positive"},
		{ErrCorruptEntry, "cache: entry data is corrupt"},
	}

	for _, tt := range tests {
		if tt.err.Error() != tt.want {
			t.Errorf("error message = %q, want %q", tt.err.Error(), tt.want)
		}
	}
}
