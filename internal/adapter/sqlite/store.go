// Package sqlite persists the in-memory store to a single SQLite table.
// The whole state is written as JSON payloads, one row per table, after
// every committed change.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"github.com/heartmarshall/storybible-backend/internal/adapter/memory"
	"github.com/heartmarshall/storybible-backend/internal/domain"
)

const auditBucket = "audit_entries"

// Store is a memory.Store whose state survives restarts.
type Store struct {
	*memory.Store
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// Open opens (or creates) the database at path, loads the saved state into a
// fresh memory store and starts snapshotting on every change.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		path = "storybible.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS state (
		bucket TEXT PRIMARY KEY,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create state table: %w", err)
	}

	s := &Store{Store: memory.New(), db: db, path: path}
	if err := s.load(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	s.OnChange(s.persist)
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	rows, err := s.db.QueryContext(ctx, `SELECT bucket, payload FROM state`)
	if err != nil {
		return fmt.Errorf("select state: %w", err)
	}
	defer func() { _ = rows.Close() }()

	snap := memory.Snapshot{Tables: make(map[string][]memory.Record)}
	loaded := false
	for rows.Next() {
		var (
			bucket  string
			payload []byte
		)
		if err := rows.Scan(&bucket, &payload); err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		loaded = true

		if bucket == auditBucket {
			if err := json.Unmarshal(payload, &snap.Audit); err != nil {
				return fmt.Errorf("decode %s: %w", bucket, err)
			}
			continue
		}
		var records []memory.Record
		if err := json.Unmarshal(payload, &records); err != nil {
			return fmt.Errorf("decode %s: %w", bucket, err)
		}
		snap.Tables[bucket] = records
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate state: %w", err)
	}
	if loaded {
		s.Import(snap)
	}
	return nil
}

func (s *Store) persist(ctx context.Context) (retErr error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.Export()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if retErr != nil {
			_ = tx.Rollback()
		}
	}()

	upsert := func(bucket string, v any) error {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", bucket, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO state(bucket,payload) VALUES(?,?) ON CONFLICT(bucket) DO UPDATE SET payload=excluded.payload`,
			bucket, data); err != nil {
			return fmt.Errorf("upsert %s: %w", bucket, err)
		}
		return nil
	}

	for _, bucket := range buckets(snap) {
		if err := upsert(bucket, snap.Tables[bucket]); err != nil {
			return err
		}
	}
	audit := snap.Audit
	if audit == nil {
		audit = []domain.AuditEntry{}
	}
	if err := upsert(auditBucket, audit); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// buckets lists every table name of snap plus the fixed tables, sorted.
func buckets(snap memory.Snapshot) []string {
	seen := map[string]bool{
		memory.TableSeries:  true,
		memory.TableScripts: true,
		memory.TableScenes:  true,
	}
	for _, name := range domain.CollectionNames() {
		seen[name] = true
	}
	for name := range snap.Tables {
		seen[name] = true
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database path.
func (s *Store) Path() string { return s.path }
