// Package store persists trained document vectors in SQLite, keyed by tag.
// The store is the read side of the system: it is populated once by a bulk
// export after training completes and then serves concurrent lookups and
// full scans for similarity search.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/liliang-cn/parvec/internal/encoding"

	_ "modernc.org/sqlite" // SQLite driver
)

// Record is one persisted vector entry: the document tag, its trained vector,
// and the document metadata needed to present search results.
type Record struct {
	Tag      string
	Vector   []float32
	SourceID string
	Title    string
}

// Store is a SQLite-backed vector store.
type Store struct {
	db     *sql.DB
	path   string
	mu     sync.RWMutex
	closed bool
}

// New creates a store handle for the given database path. Call Init before
// any other operation.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, wrapError("init", fmt.Errorf("database path cannot be empty"))
	}
	return &Store{path: path}, nil
}

// Init opens the database connection and creates the vectors table.
func (s *Store) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return wrapError("init", ErrStoreClosed)
	}

	// _journal_mode=WAL: Better concurrency
	// _busy_timeout=5000: Wait up to 5s for lock instead of failing immediately
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000", s.path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return wrapError("init", fmt.Errorf("failed to open database: %w", err))
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(2 * time.Hour)

	s.db = db

	createTableSQL := `
	CREATE TABLE IF NOT EXISTS vectors (
		tag TEXT PRIMARY KEY,
		vector BLOB NOT NULL,
		source_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_vectors_source_id ON vectors(source_id);
	`

	if _, err := s.db.ExecContext(ctx, createTableSQL); err != nil {
		return wrapError("init", fmt.Errorf("failed to create tables: %w", err))
	}

	return nil
}

// Put inserts or replaces a single vector record.
func (s *Store) Put(ctx context.Context, rec Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return wrapError("put", ErrStoreClosed)
	}
	if rec.Tag == "" {
		return wrapError("put", ErrEmptyTag)
	}
	if err := encoding.ValidateVector(rec.Vector); err != nil {
		return wrapError("put", err)
	}

	vectorBytes, err := encoding.EncodeVector(rec.Vector)
	if err != nil {
		return wrapError("put", err)
	}

	query := `
	INSERT OR REPLACE INTO vectors (tag, vector, source_id, title, created_at)
	VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`
	if _, err := s.db.ExecContext(ctx, query, rec.Tag, vectorBytes, rec.SourceID, rec.Title); err != nil {
		return wrapError("put", fmt.Errorf("failed to insert record: %w", err))
	}

	return nil
}

// PutBatch inserts or replaces multiple records in a single transaction. This
// is the one-shot publish phase after training: either every vector becomes
// visible or none does.
func (s *Store) PutBatch(ctx context.Context, recs []Record) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return wrapError("put_batch", ErrStoreClosed)
	}
	if len(recs) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wrapError("put_batch", fmt.Errorf("failed to begin transaction: %w", err))
	}
	defer func() {
		_ = tx.Rollback()
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO vectors (tag, vector, source_id, title, created_at)
		VALUES (?, ?, ?, ?, CURRENT_TIMESTAMP)
	`)
	if err != nil {
		return wrapError("put_batch", fmt.Errorf("failed to prepare statement: %w", err))
	}
	defer func() {
		_ = stmt.Close()
	}()

	for i, rec := range recs {
		if rec.Tag == "" {
			return wrapError("put_batch", fmt.Errorf("record %d: %w", i, ErrEmptyTag))
		}
		if err := encoding.ValidateVector(rec.Vector); err != nil {
			return wrapError("put_batch", fmt.Errorf("record %d: %w", i, err))
		}

		vectorBytes, err := encoding.EncodeVector(rec.Vector)
		if err != nil {
			return wrapError("put_batch", fmt.Errorf("record %d: %w", i, err))
		}

		if _, err := stmt.ExecContext(ctx, rec.Tag, vectorBytes, rec.SourceID, rec.Title); err != nil {
			return wrapError("put_batch", fmt.Errorf("failed to insert record %d: %w", i, err))
		}
	}

	if err := tx.Commit(); err != nil {
		return wrapError("put_batch", fmt.Errorf("failed to commit transaction: %w", err))
	}

	return nil
}

// Get returns the record stored for a tag.
func (s *Store) Get(ctx context.Context, tag string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return Record{}, wrapError("get", ErrStoreClosed)
	}

	query := "SELECT tag, vector, source_id, title FROM vectors WHERE tag = ?"
	row := s.db.QueryRowContext(ctx, query, tag)

	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, wrapError("get", ErrNotFound)
	}
	if err != nil {
		return Record{}, wrapError("get", err)
	}

	return rec, nil
}

// All returns every stored record. Ordering is stable for the lifetime of one
// load but otherwise unspecified; callers needing an order must sort.
func (s *Store) All(ctx context.Context) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, wrapError("all", ErrStoreClosed)
	}

	rows, err := s.db.QueryContext(ctx, "SELECT tag, vector, source_id, title FROM vectors")
	if err != nil {
		return nil, wrapError("all", fmt.Errorf("failed to query records: %w", err))
	}
	defer func() {
		_ = rows.Close()
	}()

	var recs []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, wrapError("all", err)
		}
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapError("all", fmt.Errorf("error iterating rows: %w", err))
	}

	return recs, nil
}

// Count returns the number of stored records.
func (s *Store) Count(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, wrapError("count", ErrStoreClosed)
	}

	var count int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vectors").Scan(&count); err != nil {
		return 0, wrapError("count", fmt.Errorf("failed to count records: %w", err))
	}

	return count, nil
}

// Delete removes the record for a tag.
func (s *Store) Delete(ctx context.Context, tag string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return wrapError("delete", ErrStoreClosed)
	}
	if tag == "" {
		return wrapError("delete", ErrEmptyTag)
	}

	result, err := s.db.ExecContext(ctx, "DELETE FROM vectors WHERE tag = ?", tag)
	if err != nil {
		return wrapError("delete", fmt.Errorf("failed to delete record: %w", err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return wrapError("delete", fmt.Errorf("failed to get rows affected: %w", err))
	}
	if affected == 0 {
		return wrapError("delete", ErrNotFound)
	}

	return nil
}

// Close closes the store and releases resources.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanRecord scans one row into a Record, decoding the vector blob.
func scanRecord(sc scanner) (Record, error) {
	var rec Record
	var vectorBytes []byte

	if err := sc.Scan(&rec.Tag, &vectorBytes, &rec.SourceID, &rec.Title); err != nil {
		return Record{}, err
	}

	vec, err := encoding.DecodeVector(vectorBytes)
	if err != nil {
		return Record{}, fmt.Errorf("failed to decode vector for %q: %w", rec.Tag, err)
	}
	rec.Vector = vec

	return rec, nil
}
