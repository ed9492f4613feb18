// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cache implements the persistent scrape cache: a SQLite store
// keyed by a hash of (source, normalized query). Cache I/O failures
// degrade to miss behavior and never block the pipeline.
package cache

import (
	"crypto/sha256"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/profile-engine/pkg/types"
)

const dbFile = "scrape-cache.db"

// Store is the scrape cache. A nil *Store is valid and behaves as an
// always-miss cache, so callers never need to branch on cache presence.
type Store struct {
	mu           sync.Mutex
	db           *sql.DB
	ttl          time.Duration
	forceRefresh bool
	log          *slog.Logger

	// now is a test hook for TTL expiry.
	now func() time.Time
}

// Open creates or opens the cache database under cfg.Dir.
func Open(cfg types.CacheConfig, log *slog.Logger) (*Store, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	dbPath := filepath.Join(cfg.Dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	schema := `CREATE TABLE IF NOT EXISTS entries (
		key TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		query TEXT NOT NULL,
		payload BLOB NOT NULL,
		expires_at TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	if log == nil {
		log = slog.Default()
	}

	return &Store{
		db:           db,
		ttl:          ttl,
		forceRefresh: cfg.ForceRefresh,
		log:          log,
		now:          time.Now,
	}, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	return s.db.Close()
}

// Key returns the deterministic cache key for (source, query). Query
// parameters are normalized by trimming and lowercasing before hashing.
func Key(source types.Source, query string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(query), " "))
	h := sha256.Sum256([]byte(string(source) + "\x00" + norm))
	return fmt.Sprintf("%x", h[:8])
}

// Get returns the cached payload for (source, query), or ok=false on a
// miss. Expired entries and I/O errors are misses; force-refresh mode
// makes every read a miss while writes continue.
func (s *Store) Get(source types.Source, query string) ([]byte, bool) {
	if s == nil || s.forceRefresh {
		return nil, false
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	var expiresAt string
	err := s.db.QueryRow(
		`SELECT payload, expires_at FROM entries WHERE key = ?`, Key(source, query),
	).Scan(&payload, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false
	}
	if err != nil {
		s.log.Warn("cache read degraded to miss", "source", source, "err", &types.CacheIOError{Op: "get", Err: err})
		return nil, false
	}

	exp, err := time.Parse(time.RFC3339Nano, expiresAt)
	if err != nil || !s.now().Before(exp) {
		return nil, false
	}
	return payload, true
}

// Put stores a payload for (source, query). A ttl of zero uses the store
// default. Write failures are logged and swallowed: the pipeline never
// blocks on the cache.
func (s *Store) Put(source types.Source, query string, payload []byte, ttl time.Duration) {
	if s == nil {
		return
	}
	if ttl <= 0 {
		ttl = s.ttl
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO entries (key, source, query, payload, expires_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET
			payload=excluded.payload, expires_at=excluded.expires_at`,
		Key(source, query), string(source), query, payload,
		s.now().Add(ttl).UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		s.log.Warn("cache write failed", "source", source, "err", &types.CacheIOError{Op: "put", Err: err})
	}
}

// Invalidate removes the entry for (source, query), if present.
func (s *Store) Invalidate(source types.Source, query string) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec(`DELETE FROM entries WHERE key = ?`, Key(source, query)); err != nil {
		s.log.Warn("cache invalidate failed", "source", source, "err", &types.CacheIOError{Op: "invalidate", Err: err})
	}
}
