package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/queuecast/paxcache/cache"
)

// entryExt marks files owned by the substrate. Anything else in the
// directory is left alone.
const entryExt = ".entry"

// FS stores each entry as one file in a flat directory. Cache keys are
// base64-encoded into filenames, so any key round-trips regardless of the
// characters it contains. Writes go through a temp file and rename, so a
// crash mid-write never leaves a half-written entry behind.
type FS struct {
	dir string
}

// OpenFS creates the directory if needed and returns a substrate over it.
func OpenFS(dir string) (*FS, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create directory %q: %w", dir, err)
	}
	return &FS{dir: dir}, nil
}

// Read returns the stored bytes for key.
func (f *FS) Read(_ context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return data, true, nil
}

// Write stores data under key, replacing any previous value atomically.
func (f *FS) Write(_ context.Context, key string, data []byte) error {
	path := f.path(key)
	tmp := fmt.Sprintf("%s.tmp.%d", path, time.Now().UnixNano())
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (f *FS) Remove(_ context.Context, key string) error {
	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key beginning with prefix, sorted. Files the
// substrate does not own are skipped.
func (f *FS) Keys(_ context.Context, prefix string) ([]string, error) {
	names, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", f.dir, err)
	}

	var keys []string
	for _, entry := range names {
		if entry.IsDir() {
			continue
		}
		key, ok := decodeName(entry.Name())
		if !ok {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys, nil
}

// Close releases nothing; the substrate holds no open handles between calls.
func (f *FS) Close() error { return nil }

// Dir returns the directory the substrate stores entries in.
func (f *FS) Dir() string { return f.dir }

func (f *FS) path(key string) string {
	return filepath.Join(f.dir, encodeName(key))
}

// encodeName maps a cache key to a filename-safe form.
func encodeName(key string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(key)) + entryExt
}

// decodeName recovers the cache key from a filename. Returns false for
// files that are not encoded entries, including leftover temp files.
func decodeName(name string) (string, bool) {
	if !strings.HasSuffix(name, entryExt) {
		return "", false
	}
	raw, err := base64.RawURLEncoding.DecodeString(strings.TrimSuffix(name, entryExt))
	if err != nil {
		return "", false
	}
	return string(raw), true
}

var _ cache.Storage = (*FS)(nil)
