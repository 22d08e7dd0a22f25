// Package library persists the media library: a keyed store mapping a string
// key to a serialized list of image references (data URIs). The contract is
// last-write-wins with no migration or versioning; corrupt or missing data
// reads as an empty list, never as an error.
package library

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS library (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// Store is a SQLite-backed keyed store with a small in-memory read cache.
type Store struct {
	db    *sql.DB
	cache *gocache.Cache
}

// Open opens (or creates) the library database at path.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("library: path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("library: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("library: init schema: %w", err)
	}
	return &Store{
		db:    db,
		cache: gocache.New(5*time.Minute, 10*time.Minute),
	}, nil
}

// Get returns the reference list stored under key. A missing key or an
// undecodable row yields an empty list.
func (s *Store) Get(ctx context.Context, key string) []string {
	if cached, ok := s.cache.Get(key); ok {
		return append([]string(nil), cached.([]string)...)
	}

	var raw string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM library WHERE key = ?`, key).Scan(&raw)
	if err != nil {
		return nil
	}
	var refs []string
	if err := json.Unmarshal([]byte(raw), &refs); err != nil {
		return nil
	}
	s.cache.Set(key, refs, gocache.DefaultExpiration)
	return append([]string(nil), refs...)
}

// Put replaces the reference list stored under key.
func (s *Store) Put(ctx context.Context, key string, refs []string) error {
	if refs == nil {
		refs = []string{}
	}
	raw, err := json.Marshal(refs)
	if err != nil {
		return fmt.Errorf("library: marshal refs: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
INSERT INTO library (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
`, key, string(raw), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("library: write key %q: %w", key, err)
	}
	s.cache.Set(key, append([]string(nil), refs...), gocache.DefaultExpiration)
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
