// Package memory provides an in-memory implementation of every repository,
// used by tests, the seeder and the sqlite snapshot driver.
//
// Documents are held as JSON bodies so that callers never share memory with
// the store. Transactions are serialized and roll back to a captured state on
// error or panic.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// Table names of the non-document entities.
const (
	TableSeries  = "series"
	TableScripts = "scripts"
	TableScenes  = "scenes"
)

// Record is one stored row. Body is the JSON encoding of the entity; it is
// never mutated in place, which lets transactions capture state cheaply.
type Record struct {
	ID         string          `json:"id"`
	SeriesID   string          `json:"seriesId"`
	ParentID   string          `json:"parentId,omitempty"`
	Revision   int64           `json:"revision"`
	SortKey    string          `json:"sortKey"`
	SearchText string          `json:"searchText,omitempty"`
	Body       json.RawMessage `json:"body"`
	CreatedAt  time.Time       `json:"createdAt"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}

// Snapshot is a point-in-time copy of the whole store.
type Snapshot struct {
	Tables map[string][]Record `json:"tables"`
	Audit  []domain.AuditEntry `json:"audit"`
}

type state struct {
	tables map[string]map[string]Record
	audit  []domain.AuditEntry
}

// Store holds every table in memory.
type Store struct {
	mu    sync.RWMutex
	txMu  sync.Mutex
	st    state
	seq   int64
	now   func() time.Time
	hookM sync.Mutex
	hook  func(ctx context.Context) error
}

// New returns an empty store.
func New() *Store {
	return &Store{
		st:  state{tables: make(map[string]map[string]Record)},
		now: func() time.Time { return time.Now().UTC() },
	}
}

// OnChange registers fn to run after every committed change: after each
// write outside a transaction, or once when a transaction with writes commits.
// An error from fn is returned to the writer; the in-memory state is kept.
func (s *Store) OnChange(fn func(ctx context.Context) error) {
	s.hookM.Lock()
	s.hook = fn
	s.hookM.Unlock()
}

type txKey struct{}

type txState struct {
	store *Store
	dirty bool
}

func (s *Store) txFrom(ctx context.Context) *txState {
	if tx, ok := ctx.Value(txKey{}).(*txState); ok && tx.store == s {
		return tx
	}
	return nil
}

// RunInTx runs fn with all writes serialized against other transactions.
// Every write made by fn is undone when fn fails or panics, and when the
// change hook rejects the commit. A nested RunInTx joins the outer transaction.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.txFrom(ctx) != nil {
		return fn(ctx)
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	saved := s.capture()
	tx := &txState{store: s}

	defer func() {
		if r := recover(); r != nil {
			s.restore(saved)
			panic(r)
		}
	}()

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		s.restore(saved)
		return err
	}
	if !tx.dirty {
		return nil
	}
	if err := s.notify(ctx); err != nil {
		s.restore(saved)
		return err
	}
	return nil
}

// write applies fn under the data lock. Outside a transaction it also
// serializes against transactions and fires the change hook; a failing hook
// undoes the write.
func (s *Store) write(ctx context.Context, fn func(st *state) error) error {
	tx := s.txFrom(ctx)
	if tx != nil {
		s.mu.Lock()
		err := fn(&s.st)
		s.mu.Unlock()
		if err == nil {
			tx.dirty = true
		}
		return err
	}

	s.txMu.Lock()
	defer s.txMu.Unlock()

	var saved *state
	if s.hooked() {
		st := s.capture()
		saved = &st
	}

	s.mu.Lock()
	err := fn(&s.st)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	if err := s.notify(ctx); err != nil {
		if saved != nil {
			s.restore(*saved)
		}
		return err
	}
	return nil
}

func (s *Store) hooked() bool {
	s.hookM.Lock()
	defer s.hookM.Unlock()
	return s.hook != nil
}

func (s *Store) read(fn func(st *state)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(&s.st)
}

func (s *Store) notify(ctx context.Context) error {
	s.hookM.Lock()
	hook := s.hook
	s.hookM.Unlock()
	if hook == nil {
		return nil
	}
	if err := hook(ctx); err != nil {
		return fmt.Errorf("memory store change hook: %w", err)
	}
	return nil
}

// capture copies the table maps; records are values with immutable bodies.
func (s *Store) capture() state {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := state{
		tables: make(map[string]map[string]Record, len(s.st.tables)),
		audit:  s.st.audit[:len(s.st.audit):len(s.st.audit)],
	}
	for name, rows := range s.st.tables {
		cp := make(map[string]Record, len(rows))
		for id, r := range rows {
			cp[id] = r
		}
		out.tables[name] = cp
	}
	return out
}

func (s *Store) restore(saved state) {
	s.mu.Lock()
	s.st = saved
	s.mu.Unlock()
}

// Export returns a snapshot of every table, rows ordered by id, and the audit
// trail in insertion order.
func (s *Store) Export() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Tables: make(map[string][]Record, len(s.st.tables)),
		Audit:  append([]domain.AuditEntry{}, s.st.audit...),
	}
	for name, rows := range s.st.tables {
		list := make([]Record, 0, len(rows))
		for _, r := range rows {
			list = append(list, r)
		}
		sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
		snap.Tables[name] = list
	}
	return snap
}

// Import replaces the whole store with snap. The audit insertion sequence is
// rebuilt from the order of snap.Audit. The change hook does not fire.
func (s *Store) Import(snap Snapshot) {
	st := state{tables: make(map[string]map[string]Record, len(snap.Tables))}
	for name, list := range snap.Tables {
		rows := make(map[string]Record, len(list))
		for _, r := range list {
			rows[r.ID] = r
		}
		st.tables[name] = rows
	}

	var seq int64
	st.audit = make([]domain.AuditEntry, len(snap.Audit))
	for i, e := range snap.Audit {
		seq++
		e.Seq = seq
		st.audit[i] = e
	}

	s.mu.Lock()
	s.st = st
	s.seq = seq
	s.mu.Unlock()
}

func (st *state) table(name string) map[string]Record {
	t, ok := st.tables[name]
	if !ok {
		t = make(map[string]Record)
		st.tables[name] = t
	}
	return t
}

// rows returns the records of table in seriesID accepted by keep, in
// (SortKey, CreatedAt, ID) order.
func (st *state) rows(name, seriesID string, keep func(Record) bool) []Record {
	var out []Record
	for _, r := range st.tables[name] {
		if r.SeriesID != seriesID {
			continue
		}
		if keep != nil && !keep(r) {
			continue
		}
		out = append(out, r)
	}
	sortRecords(out)
	return out
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		a, b := rs[i], rs[j]
		if a.SortKey != b.SortKey {
			return a.SortKey < b.SortKey
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}

// window applies limit and offset to rs.
func window(rs []Record, limit, offset int) []Record {
	if offset >= len(rs) {
		return nil
	}
	end := min(offset+limit, len(rs))
	return rs[offset:end]
}
