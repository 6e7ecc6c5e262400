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

// ScriptRepo stores scripts together with their scene counters.
type ScriptRepo struct {
	s *Store
}

// Scripts returns the script repository of the store.
func (s *Store) Scripts() *ScriptRepo { return &ScriptRepo{s: s} }

func scriptRecord(v *domain.Script) (Record, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("script marshal: %w", err)
	}
	return Record{
		ID:        v.ID,
		SeriesID:  v.SeriesID,
		Revision:  v.Revision,
		SortKey:   strings.ToLower(v.Title),
		Body:      body,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}, nil
}

func decodeScript(r Record) (*domain.Script, error) {
	var v domain.Script
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("script %s unmarshal: %w", r.ID, err)
	}
	v.Revision = r.Revision
	if v.Authors == nil {
		v.Authors = []string{}
	}
	return &v, nil
}

// modify decodes the script under the write lock, applies fn and stores the result.
func (r *ScriptRepo) modify(ctx context.Context, seriesID, id string, fn func(v *domain.Script) error) (*domain.Script, error) {
	var out *domain.Script
	err := r.s.write(ctx, func(st *state) error {
		t := st.table(TableScripts)
		cur, ok := t[id]
		if !ok || cur.SeriesID != seriesID {
			return domain.NotFoundError("script", id)
		}
		v, err := decodeScript(cur)
		if err != nil {
			return err
		}
		if err := fn(v); err != nil {
			return err
		}
		rec, err := scriptRecord(v)
		if err != nil {
			return err
		}
		t[id] = rec
		out = v
		return nil
	})
	return out, err
}

// Create inserts v with revision 1, content version 1 and an empty scene counter.
func (r *ScriptRepo) Create(ctx context.Context, v *domain.Script) (*domain.Script, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := r.s.now()
	v.Revision = 1
	v.ContentVersion = 1
	v.SceneCounter = 0
	v.CreatedAt, v.UpdatedAt, v.LastEditedAt = now, now, now
	if v.Authors == nil {
		v.Authors = []string{}
	}

	rec, err := scriptRecord(v)
	if err != nil {
		return nil, err
	}
	err = r.s.write(ctx, func(st *state) error {
		t := st.table(TableScripts)
		if _, dup := t[v.ID]; dup {
			return fmt.Errorf("script %s: %w", v.ID, domain.ErrAlreadyExists)
		}
		t[v.ID] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetByID returns the script of the series, or domain.ErrNotFound.
func (r *ScriptRepo) GetByID(ctx context.Context, seriesID, id string) (*domain.Script, error) {
	var (
		rec Record
		ok  bool
	)
	r.s.read(func(st *state) {
		rec, ok = st.tables[TableScripts][id]
	})
	if !ok || rec.SeriesID != seriesID {
		return nil, domain.NotFoundError("script", id)
	}
	return decodeScript(rec)
}

// Update writes title, authors, content and content version if the revision
// still matches. The scene counter is never written here.
func (r *ScriptRepo) Update(ctx context.Context, v *domain.Script) (*domain.Script, error) {
	now := r.s.now()
	stored, err := r.modify(ctx, v.SeriesID, v.ID, func(cur *domain.Script) error {
		if cur.Revision != v.Revision {
			return fmt.Errorf("script %s revision %d: %w", v.ID, v.Revision, domain.ErrConflict)
		}
		cur.Revision++
		cur.Title = v.Title
		cur.Authors = append([]string{}, v.Authors...)
		cur.Content = v.Content
		cur.ContentVersion = v.ContentVersion
		cur.LastEditedAt, cur.UpdatedAt = now, now
		return nil
	})
	if err != nil {
		return nil, err
	}
	v.Revision = stored.Revision
	v.SceneCounter = stored.SceneCounter
	v.LastEditedAt, v.UpdatedAt = now, now
	return v, nil
}

// NextSceneNumber increments and returns the script's scene counter.
// Numbers handed out are never reused, even when the scene is later deleted.
func (r *ScriptRepo) NextSceneNumber(ctx context.Context, seriesID, id string) (int, error) {
	v, err := r.modify(ctx, seriesID, id, func(cur *domain.Script) error {
		cur.SceneCounter++
		return nil
	})
	if err != nil {
		return 0, err
	}
	return v.SceneCounter, nil
}

// Touch sets LastEditedAt without changing the revision.
func (r *ScriptRepo) Touch(ctx context.Context, seriesID, id string, at time.Time) error {
	_, err := r.modify(ctx, seriesID, id, func(cur *domain.Script) error {
		cur.LastEditedAt = at
		return nil
	})
	return err
}

// Delete removes the script; its scenes are left in place.
func (r *ScriptRepo) Delete(ctx context.Context, seriesID, id string) error {
	return r.s.write(ctx, func(st *state) error {
		t := st.tables[TableScripts]
		cur, ok := t[id]
		if !ok || cur.SeriesID != seriesID {
			return domain.NotFoundError("script", id)
		}
		delete(t, id)
		return nil
	})
}

// ListSummaries returns one page of script summaries ordered by title.
func (r *ScriptRepo) ListSummaries(ctx context.Context, seriesID string, limit, offset int) ([]domain.ScriptSummary, int, error) {
	var rs []Record
	r.s.read(func(st *state) {
		rs = st.rows(TableScripts, seriesID, nil)
	})
	items, err := summaries(window(rs, limit, offset))
	if err != nil {
		return nil, 0, err
	}
	return items, len(rs), nil
}

// AllSummaries returns every script summary of the series ordered by title.
func (r *ScriptRepo) AllSummaries(ctx context.Context, seriesID string) ([]domain.ScriptSummary, error) {
	var rs []Record
	r.s.read(func(st *state) {
		rs = st.rows(TableScripts, seriesID, nil)
	})
	return summaries(rs)
}

func summaries(rs []Record) ([]domain.ScriptSummary, error) {
	out := make([]domain.ScriptSummary, 0, len(rs))
	for _, rec := range rs {
		v, err := decodeScript(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, v.Summary())
	}
	return out, nil
}
