package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// Collection is the in-memory store of one document kind.
type Collection[T domain.Entity] struct {
	s    *Store
	kind domain.Kind[T]
}

// NewCollection binds kind to the store's table kind.Collection.
func NewCollection[T domain.Entity](s *Store, kind domain.Kind[T]) *Collection[T] {
	return &Collection[T]{s: s, kind: kind}
}

func (c *Collection[T]) encode(v T) (Record, error) {
	m := v.EntityMeta()
	body, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("%s marshal: %w", c.kind.Type, err)
	}
	return Record{
		ID:         m.ID,
		SeriesID:   m.SeriesID,
		Revision:   m.Revision,
		SortKey:    c.kind.SortKey(v),
		SearchText: c.kind.SearchText(v),
		Body:       body,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}, nil
}

// decode unmarshals the body; the record fields are authoritative for Meta.
func (c *Collection[T]) decode(r Record) (T, error) {
	v := c.kind.New()
	if err := json.Unmarshal(r.Body, v); err != nil {
		var zero T
		return zero, fmt.Errorf("%s %s unmarshal: %w", c.kind.Type, r.ID, err)
	}
	*v.EntityMeta() = domain.Meta{
		ID:        r.ID,
		SeriesID:  r.SeriesID,
		Revision:  r.Revision,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	return v, nil
}

func (c *Collection[T]) decodeAll(rs []Record) ([]T, error) {
	out := make([]T, 0, len(rs))
	for _, r := range rs {
		v, err := c.decode(r)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// Insert assigns id (when empty), timestamps and revision 1 to v and stores it.
func (c *Collection[T]) Insert(ctx context.Context, v T) (T, error) {
	m := v.EntityMeta()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := c.s.now()
	m.Revision = 1
	m.CreatedAt, m.UpdatedAt = now, now

	rec, err := c.encode(v)
	if err != nil {
		return v, err
	}

	err = c.s.write(ctx, func(st *state) error {
		t := st.table(c.kind.Collection)
		if _, dup := t[rec.ID]; dup {
			return fmt.Errorf("%s %s: %w", c.kind.Type, rec.ID, domain.ErrAlreadyExists)
		}
		t[rec.ID] = rec
		return nil
	})
	return v, err
}

// Get returns the document with id in seriesID, or domain.ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, seriesID, id string) (T, error) {
	var (
		rec Record
		ok  bool
	)
	c.s.read(func(st *state) {
		rec, ok = st.tables[c.kind.Collection][id]
	})
	if !ok || rec.SeriesID != seriesID {
		var zero T
		return zero, domain.NotFoundError(c.kind.Type.String(), id)
	}
	return c.decode(rec)
}

// Update stores v if its Revision still matches the stored one, then bumps
// Revision and UpdatedAt. A stale revision yields domain.ErrConflict.
func (c *Collection[T]) Update(ctx context.Context, v T) (T, error) {
	m := v.EntityMeta()
	prevRevision, prevUpdated := m.Revision, m.UpdatedAt
	m.Revision++
	m.UpdatedAt = c.s.now()

	rec, err := c.encode(v)
	if err == nil {
		err = c.s.write(ctx, func(st *state) error {
			t := st.table(c.kind.Collection)
			cur, ok := t[m.ID]
			if !ok || cur.SeriesID != m.SeriesID {
				return domain.NotFoundError(c.kind.Type.String(), m.ID)
			}
			if cur.Revision != prevRevision {
				return fmt.Errorf("%s %s revision %d: %w", c.kind.Type, m.ID, prevRevision, domain.ErrConflict)
			}
			rec.CreatedAt = cur.CreatedAt
			t[m.ID] = rec
			return nil
		})
	}
	if err != nil {
		m.Revision, m.UpdatedAt = prevRevision, prevUpdated
		return v, err
	}
	return v, nil
}

// Delete removes the document, or returns domain.ErrNotFound.
func (c *Collection[T]) Delete(ctx context.Context, seriesID, id string) error {
	return c.s.write(ctx, func(st *state) error {
		t := st.tables[c.kind.Collection]
		cur, ok := t[id]
		if !ok || cur.SeriesID != seriesID {
			return domain.NotFoundError(c.kind.Type.String(), id)
		}
		delete(t, id)
		return nil
	})
}

// List returns one page of the series' documents in sort order plus the total count.
func (c *Collection[T]) List(ctx context.Context, seriesID string, limit, offset int) ([]T, int, error) {
	var rs []Record
	c.s.read(func(st *state) {
		rs = st.rows(c.kind.Collection, seriesID, nil)
	})
	items, err := c.decodeAll(window(rs, limit, offset))
	if err != nil {
		return nil, 0, err
	}
	return items, len(rs), nil
}

// All returns every document of the series in sort order.
func (c *Collection[T]) All(ctx context.Context, seriesID string) ([]T, error) {
	var rs []Record
	c.s.read(func(st *state) {
		rs = st.rows(c.kind.Collection, seriesID, nil)
	})
	return c.decodeAll(rs)
}

// Search returns the series' documents whose search text contains the
// normalized query, in sort order. An empty query returns everything.
func (c *Collection[T]) Search(ctx context.Context, seriesID, query string) ([]T, error) {
	var rs []Record
	c.s.read(func(st *state) {
		rs = st.rows(c.kind.Collection, seriesID, func(r Record) bool {
			return domain.MatchesQuery(r.SearchText, query)
		})
	})
	return c.decodeAll(rs)
}

// Existing reports which of ids are documents of the series.
func (c *Collection[T]) Existing(ctx context.Context, seriesID string, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	c.s.read(func(st *state) {
		t := st.tables[c.kind.Collection]
		for _, id := range ids {
			if r, ok := t[id]; ok && r.SeriesID == seriesID {
				found[id] = true
			}
		}
	})
	return found, nil
}
