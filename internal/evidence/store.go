// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package evidence persists the run's evidence items: every admitted
// record, enriched with extracted full text where a download succeeded.
// Evidence ids are stable across runs, so citations embedded in a report
// stay resolvable after a re-run.
package evidence

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/profile-engine/internal/identity"
	"github.com/pdiddy/profile-engine/pkg/types"
)

const dbFile = "evidence.db"

// Store manages the evidence SQLite database for one person.
type Store struct {
	db *sql.DB
	mu sync.Mutex
}

// ID derives the stable evidence identifier: the first 12 hex characters
// of SHA-256 over source, folded title, and year. Same record, same id,
// every run.
func ID(source types.Source, title string, year int) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s\x00%s\x00%d", source, identity.Fold(title), year)
	return fmt.Sprintf("%x", h.Sum(nil))[:12]
}

// Open opens or creates the evidence database under dir, creating the
// schema if needed.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &types.CacheIOError{Op: "creating evidence directory", Err: err}
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, &types.CacheIOError{Op: "opening evidence database", Err: err}
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, &types.CacheIOError{Op: "creating evidence schema", Err: err}
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS evidence (
			rowid INTEGER PRIMARY KEY AUTOINCREMENT,
			evidence_id TEXT NOT NULL UNIQUE,
			source TEXT NOT NULL,
			kind TEXT NOT NULL,
			title TEXT NOT NULL,
			authors TEXT,
			year INTEGER,
			venue TEXT,
			candidate_id TEXT,
			document TEXT NOT NULL,
			text TEXT,
			local_path TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_evidence_candidate ON evidence(candidate_id)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}

	// FTS5 virtual table with triggers for sync.
	var ftsExists int
	if err := s.db.QueryRow(
		`SELECT count(*) FROM sqlite_master WHERE type='table' AND name='evidence_fts'`,
	).Scan(&ftsExists); err != nil {
		return fmt.Errorf("checking FTS table: %w", err)
	}

	if ftsExists == 0 {
		ftsStatements := []string{
			`CREATE VIRTUAL TABLE evidence_fts USING fts5(title, text, content=evidence, content_rowid=rowid)`,
			`CREATE TRIGGER evidence_ai AFTER INSERT ON evidence BEGIN
				INSERT INTO evidence_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
			END`,
			`CREATE TRIGGER evidence_ad AFTER DELETE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
			END`,
			`CREATE TRIGGER evidence_au AFTER UPDATE ON evidence BEGIN
				INSERT INTO evidence_fts(evidence_fts, rowid, title, text) VALUES('delete', old.rowid, old.title, old.text);
				INSERT INTO evidence_fts(rowid, title, text) VALUES (new.rowid, new.title, new.text);
			END`,
		}
		for _, stmt := range ftsStatements {
			if _, err := s.db.Exec(stmt); err != nil {
				return fmt.Errorf("creating FTS infrastructure: %w", err)
			}
		}
	}

	return nil
}

// Put upserts an evidence item. The store is append-or-update only:
// nothing ever deletes evidence during a run, so citation ids embedded in
// accepted sections cannot dangle.
func (s *Store) Put(ctx context.Context, item types.EvidenceItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	authorsJSON, _ := json.Marshal(item.Authors)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO evidence (evidence_id, source, kind, title, authors, year, venue, candidate_id, document, text, local_path)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(evidence_id) DO UPDATE SET
			source=excluded.source, kind=excluded.kind, title=excluded.title,
			authors=excluded.authors, year=excluded.year, venue=excluded.venue,
			candidate_id=excluded.candidate_id, document=excluded.document,
			text=excluded.text, local_path=excluded.local_path`,
		item.EvidenceID, string(item.Source), string(item.Kind), item.Title,
		string(authorsJSON), item.Year, item.Venue, item.CandidateID,
		string(item.Document), item.Text, item.LocalPath,
	)
	if err != nil {
		return &types.CacheIOError{Op: fmt.Sprintf("upserting evidence %s", item.EvidenceID), Err: err}
	}
	return nil
}

// PutAll upserts a batch of items in one transaction.
func (s *Store) PutAll(ctx context.Context, items []types.EvidenceItem) error {
	for _, item := range items {
		if err := s.Put(ctx, item); err != nil {
			return err
		}
	}
	return nil
}

// Get loads one item by evidence id. The second return is false when the
// id is unknown.
func (s *Store) Get(ctx context.Context, evidenceID string) (types.EvidenceItem, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT evidence_id, source, kind, title, authors, year, venue, candidate_id, document, text, local_path
		 FROM evidence WHERE evidence_id = ?`, evidenceID)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return types.EvidenceItem{}, false, nil
	}
	if err != nil {
		return types.EvidenceItem{}, false, &types.CacheIOError{Op: "reading evidence", Err: err}
	}
	return item, true, nil
}

// Exists reports whether an evidence id is present.
func (s *Store) Exists(ctx context.Context, evidenceID string) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM evidence WHERE evidence_id = ?`, evidenceID).Scan(&n)
	if err != nil {
		return false, &types.CacheIOError{Op: "checking evidence", Err: err}
	}
	return n > 0, nil
}

// All returns every item, ordered by kind (full text first) then title.
func (s *Store) All(ctx context.Context) ([]types.EvidenceItem, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT evidence_id, source, kind, title, authors, year, venue, candidate_id, document, text, local_path
		 FROM evidence
		 ORDER BY CASE document
			WHEN 'full_text' THEN 0
			WHEN 'abstract_only' THEN 1
			ELSE 2 END, title`)
	if err != nil {
		return nil, &types.CacheIOError{Op: "listing evidence", Err: err}
	}
	defer rows.Close()

	var items []types.EvidenceItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, &types.CacheIOError{Op: "scanning evidence", Err: err}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// Search runs an FTS5 match over titles and full text, best first.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]types.EvidenceItem, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT e.evidence_id, e.source, e.kind, e.title, e.authors, e.year, e.venue, e.candidate_id, e.document, e.text, e.local_path
		 FROM evidence_fts f
		 JOIN evidence e ON e.rowid = f.rowid
		 WHERE evidence_fts MATCH ?
		 ORDER BY rank LIMIT ?`, query, limit)
	if err != nil {
		return nil, &types.CacheIOError{Op: "searching evidence", Err: err}
	}
	defer rows.Close()

	var items []types.EvidenceItem
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, &types.CacheIOError{Op: "scanning evidence", Err: err}
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

// WriteItems prints one line per item plus a count, for the evidence CLI
// listing and search output.
func WriteItems(w io.Writer, items []types.EvidenceItem) {
	for _, it := range items {
		fmt.Fprintf(w, "%s  %-13s %s", it.EvidenceID, it.Document, it.Title)
		if it.Year > 0 {
			fmt.Fprintf(w, " (%d)", it.Year)
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%d evidence items\n", len(items))
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (types.EvidenceItem, error) {
	var item types.EvidenceItem
	var source, kind, document, authorsJSON string
	err := row.Scan(&item.EvidenceID, &source, &kind, &item.Title, &authorsJSON,
		&item.Year, &item.Venue, &item.CandidateID, &document, &item.Text, &item.LocalPath)
	if err != nil {
		return item, err
	}
	item.Source = types.Source(source)
	item.Kind = types.RecordKind(kind)
	item.Document = types.DocumentKind(document)
	if authorsJSON != "" {
		json.Unmarshal([]byte(authorsJSON), &item.Authors)
	}
	return item, nil
}
