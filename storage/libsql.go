package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/tursodatabase/go-libsql"

	"github.com/queuecast/paxcache/cache"
)

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS cache_entries (
	key        TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`

// LibSQLConfig configures a libsql substrate.
type LibSQLConfig struct {
	// URL is the database location: file:path for an embedded database or
	// a libsql:// URL for a remote one.
	URL string

	// AuthToken authenticates against a remote database.
	// Default: none. Ignored for file: URLs.
	AuthToken string
}

// LibSQL stores entries in a cache_entries table of a libsql database.
// An embedded file database gives a single host a durable mirror; a remote
// database shares one mirror across hosts.
type LibSQL struct {
	db *sql.DB
}

// OpenLibSQL connects to the database, applies file-mode pragmas, and
// creates the entries table if it does not exist.
func OpenLibSQL(ctx context.Context, cfg LibSQLConfig) (*LibSQL, error) {
	if cfg.URL == "" {
		return nil, ErrNoDatabaseURL
	}

	dbURL := cfg.URL
	if cfg.AuthToken != "" && !strings.HasPrefix(dbURL, "file:") {
		u, err := url.Parse(dbURL)
		if err != nil {
			return nil, fmt.Errorf("storage: parse database url: %w", err)
		}
		q := u.Query()
		q.Set("authToken", cfg.AuthToken)
		u.RawQuery = q.Encode()
		dbURL = u.String()
	}

	db, err := sql.Open("libsql", dbURL)
	if err != nil {
		return nil, fmt.Errorf("storage: open database: %w", err)
	}

	if strings.HasPrefix(cfg.URL, "file:") {
		for _, pragma := range []string{
			"PRAGMA journal_mode = WAL",
			"PRAGMA synchronous = NORMAL",
		} {
			if _, err := db.ExecContext(ctx, pragma); err != nil {
				db.Close()
				return nil, fmt.Errorf("storage: apply %q: %w", pragma, err)
			}
		}
	}

	if _, err := db.ExecContext(ctx, createEntriesTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: create entries table: %w", err)
	}

	return &LibSQL{db: db}, nil
}

// NewLibSQL wraps an existing connection. The caller keeps ownership of
// schema setup; OpenLibSQL is the usual entry point.
func NewLibSQL(db *sql.DB) *LibSQL {
	return &LibSQL{db: db}
}

// Read returns the stored bytes for key.
func (l *LibSQL) Read(ctx context.Context, key string) ([]byte, bool, error) {
	var data []byte
	err := l.db.QueryRowContext(ctx, "SELECT data FROM cache_entries WHERE key = ?", key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("storage: read %q: %w", key, err)
	}
	return data, true, nil
}

// Write stores data under key, replacing any previous value.
func (l *LibSQL) Write(ctx context.Context, key string, data []byte) error {
	_, err := l.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO cache_entries (key, data, updated_at) VALUES (?, ?, ?)",
		key, data, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("storage: write %q: %w", key, err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is not an error.
func (l *LibSQL) Remove(ctx context.Context, key string) error {
	if _, err := l.db.ExecContext(ctx, "DELETE FROM cache_entries WHERE key = ?", key); err != nil {
		return fmt.Errorf("storage: remove %q: %w", key, err)
	}
	return nil
}

// Keys returns every stored key beginning with prefix, sorted.
func (l *LibSQL) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT key FROM cache_entries WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: list %q: %w", prefix, err)
	}
	return keys, nil
}

// Close closes the underlying connection pool.
func (l *LibSQL) Close() error {
	return l.db.Close()
}

// escapeLike makes prefix safe for a LIKE pattern, so keys containing the
// LIKE wildcards match literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

var _ cache.Storage = (*LibSQL)(nil)
