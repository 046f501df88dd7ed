package cache

import (
	"encoding/json"
	"fmt"
	"time"
)

// Entry is one cached response with its lifetime bounds.
// Entries are immutable once stored; an update replaces the whole entry.
type Entry struct {
	// Payload is the opaque response body. The cache never inspects it.
	Payload []byte

	// CreatedAt is the store time.
	CreatedAt time.Time

	// ExpiresAt is CreatedAt plus the effective TTL.
	ExpiresAt time.Time
}

// NewEntry builds an entry expiring ttl after now.
func NewEntry(payload []byte, now time.Time, ttl time.Duration) Entry {
	return Entry{
		Payload:   payload,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
}

// Valid reports whether the entry is still live at now.
// The lifetime window is half-open: an entry created at t with TTL d is
// valid for now < t+d and expired from t+d onward.
func (e Entry) Valid(now time.Time) bool {
	return now.Before(e.ExpiresAt)
}

// entryEnvelope is the persisted form of an Entry.
type entryEnvelope struct {
	Payload   []byte    `json:"payload"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// EncodeEntry serializes an entry for a durable substrate.
func EncodeEntry(e Entry) ([]byte, error) {
	data, err := json.Marshal(entryEnvelope{
		Payload:   e.Payload,
		CreatedAt: e.CreatedAt,
		ExpiresAt: e.ExpiresAt,
	})
	if err != nil {
		return nil, fmt.Errorf("cache: encode entry: %w", err)
	}
	return data, nil
}

// DecodeEntry deserializes an entry read back from a durable substrate.
// Unparseable or incomplete data returns ErrCorruptEntry; callers treat
// that as a miss and remove the stored bytes.
func DecodeEntry(data []byte) (Entry, error) {
	var env entryEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Entry{}, fmt.Errorf("%w: %v", ErrCorruptEntry, err)
	}
	if env.ExpiresAt.IsZero() {
		return Entry{}, fmt.Errorf("%w: missing expiry", ErrCorruptEntry)
	}
	return Entry{
		Payload:   env.Payload,
		CreatedAt: env.CreatedAt,
		ExpiresAt: env.ExpiresAt,
	}, nil
}
