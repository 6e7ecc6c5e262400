package memory

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// AuditRepo is the append-only audit trail. It has no update or delete path.
type AuditRepo struct {
	s *Store
}

// Audit returns the audit repository of the store.
func (s *Store) Audit() *AuditRepo { return &AuditRepo{s: s} }

// Append stores e, assigning its id, timestamp and insertion sequence.
func (r *AuditRepo) Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.s.now()
	}
	e.Before = cloneRaw(e.Before)
	e.After = cloneRaw(e.After)

	err := r.s.write(ctx, func(st *state) error {
		r.s.seq++
		e.Seq = r.s.seq
		st.audit = append(st.audit, e)
		return nil
	})
	return e, err
}

// List returns one page of the entries matching f, newest first. Entries
// sharing a timestamp are ordered by insertion sequence, newest first.
func (r *AuditRepo) List(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditEntry, int, error) {
	var matched []domain.AuditEntry
	r.s.read(func(st *state) {
		for _, e := range st.audit {
			if e.SeriesID != f.SeriesID {
				continue
			}
			if f.EntityType != "" && e.EntityType != f.EntityType {
				continue
			}
			if f.EntityID != "" && e.EntityID != f.EntityID {
				continue
			}
			matched = append(matched, e)
		}
	})

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.Seq > b.Seq
	})

	total := len(matched)
	if offset >= total {
		return []domain.AuditEntry{}, total, nil
	}
	end := min(offset+limit, total)
	items := make([]domain.AuditEntry, end-offset)
	for i, e := range matched[offset:end] {
		e.Before = cloneRaw(e.Before)
		e.After = cloneRaw(e.After)
		items[i] = e
	}
	return items, total, nil
}

func cloneRaw(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte{}, b...)
}
