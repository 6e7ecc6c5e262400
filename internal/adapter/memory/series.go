package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// SeriesRepo stores series. A series is its own SeriesID.
type SeriesRepo struct {
	s *Store
}

// Series returns the series repository of the store.
func (s *Store) Series() *SeriesRepo { return &SeriesRepo{s: s} }

func seriesRecord(v *domain.Series) (Record, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("series marshal: %w", err)
	}
	return Record{
		ID:        v.ID,
		SeriesID:  v.ID,
		SortKey:   strings.ToLower(v.Title),
		Body:      body,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}, nil
}

func decodeSeries(r Record) (*domain.Series, error) {
	var v domain.Series
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("series %s unmarshal: %w", r.ID, err)
	}
	return &v, nil
}

// Create inserts v, assigning its id (when empty) and timestamps.
func (r *SeriesRepo) Create(ctx context.Context, v *domain.Series) (*domain.Series, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := r.s.now()
	v.CreatedAt, v.UpdatedAt, v.LastEditedAt = now, now, now

	rec, err := seriesRecord(v)
	if err != nil {
		return nil, err
	}
	err = r.s.write(ctx, func(st *state) error {
		t := st.table(TableSeries)
		if _, dup := t[v.ID]; dup {
			return fmt.Errorf("series %s: %w", v.ID, domain.ErrAlreadyExists)
		}
		t[v.ID] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

func (r *SeriesRepo) get(id string) (Record, bool) {
	var (
		rec Record
		ok  bool
	)
	r.s.read(func(st *state) {
		rec, ok = st.tables[TableSeries][id]
	})
	return rec, ok
}

// GetByID returns the series, or domain.ErrNotFound.
func (r *SeriesRepo) GetByID(ctx context.Context, id string) (*domain.Series, error) {
	rec, ok := r.get(id)
	if !ok {
		return nil, domain.NotFoundError("series", id)
	}
	return decodeSeries(rec)
}

// Exists reports whether a series with id exists.
func (r *SeriesRepo) Exists(ctx context.Context, id string) (bool, error) {
	_, ok := r.get(id)
	return ok, nil
}

// Update writes v and bumps UpdatedAt and LastEditedAt.
func (r *SeriesRepo) Update(ctx context.Context, v *domain.Series) (*domain.Series, error) {
	now := r.s.now()
	next := *v
	next.UpdatedAt, next.LastEditedAt = now, now

	err := r.s.write(ctx, func(st *state) error {
		t := st.table(TableSeries)
		cur, ok := t[v.ID]
		if !ok {
			return domain.NotFoundError("series", v.ID)
		}
		next.CreatedAt = cur.CreatedAt
		rec, err := seriesRecord(&next)
		if err != nil {
			return err
		}
		t[v.ID] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	*v = next
	return v, nil
}

// Touch sets LastEditedAt without changing anything else.
func (r *SeriesRepo) Touch(ctx context.Context, id string, at time.Time) error {
	return r.s.write(ctx, func(st *state) error {
		t := st.table(TableSeries)
		cur, ok := t[id]
		if !ok {
			return domain.NotFoundError("series", id)
		}
		v, err := decodeSeries(cur)
		if err != nil {
			return err
		}
		v.LastEditedAt = at
		rec, err := seriesRecord(v)
		if err != nil {
			return err
		}
		t[id] = rec
		return nil
	})
}

// Delete removes the series only; documents of the series are left in place.
func (r *SeriesRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, func(st *state) error {
		t := st.tables[TableSeries]
		if _, ok := t[id]; !ok {
			return domain.NotFoundError("series", id)
		}
		delete(t, id)
		return nil
	})
}

// List returns series ordered by title, then creation time.
func (r *SeriesRepo) List(ctx context.Context, limit, offset int) ([]domain.Series, int, error) {
	var rs []Record
	r.s.read(func(st *state) {
		for _, rec := range st.tables[TableSeries] {
			rs = append(rs, rec)
		}
	})
	sortRecords(rs)

	page := window(rs, limit, offset)
	items := make([]domain.Series, 0, len(page))
	for _, rec := range page {
		v, err := decodeSeries(rec)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *v)
	}
	return items, len(rs), nil
}
