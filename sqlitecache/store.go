// Package sqlitecache provides a small SQLite-backed response cache keyed by
// collection name and canonical query. It is consulted by item list queries
// so that repeated identical searches against a slow instance are served
// locally.
package sqlitecache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/asaidimu/go-directus/core/query"
)

const schema = `
CREATE TABLE IF NOT EXISTS response_cache (
	key        TEXT PRIMARY KEY,
	payload    BLOB NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_response_cache_created ON response_cache (created_at);
`

// Store is a TTL-bounded response cache backed by a SQLite database. A zero
// TTL means entries never expire.
type Store struct {
	db     *sql.DB
	ttl    time.Duration
	logger *zap.Logger
}

// NewStore opens (or creates) the cache database at path. Use ":memory:" for
// an ephemeral cache.
func NewStore(path string, ttl time.Duration, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlitecache: open database: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlitecache: create schema: %w", err)
	}
	return &Store{db: db, ttl: ttl, logger: logger}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// CacheKey derives a stable key from a collection name and a canonical
// query. The query's map form is serialized with encoding/json, which orders
// map keys, so equivalent queries produce identical keys.
func CacheKey(collection string, q query.Query) (string, error) {
	raw, err := json.Marshal(q.ToMap())
	if err != nil {
		return "", fmt.Errorf("sqlitecache: encode query: %w", err)
	}
	sum := sha256.Sum256(raw)
	return collection + ":" + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached payload for key, reporting whether a live entry was
// found. Expired entries are removed on access.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	var createdAt int64
	row := s.db.QueryRowContext(ctx,
		`SELECT payload, created_at FROM response_cache WHERE key = ?`, key)
	if err := row.Scan(&payload, &createdAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("sqlitecache: read entry: %w", err)
	}
	if s.ttl > 0 && time.Since(time.Unix(createdAt, 0)) > s.ttl {
		if _, err := s.db.ExecContext(ctx,
			`DELETE FROM response_cache WHERE key = ?`, key); err != nil {
			s.logger.Warn("failed to evict expired entry", zap.Error(err))
		}
		return nil, false, nil
	}
	return payload, true, nil
}

// Put stores a payload under key, replacing any previous entry.
func (s *Store) Put(ctx context.Context, key string, payload []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO response_cache (key, payload, created_at) VALUES (?, ?, ?)`,
		key, payload, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("sqlitecache: write entry: %w", err)
	}
	return nil
}

// Purge removes every cached entry.
func (s *Store) Purge(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM response_cache`); err != nil {
		return fmt.Errorf("sqlitecache: purge: %w", err)
	}
	return nil
}
