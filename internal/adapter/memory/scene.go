package memory

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// SceneRepo stores scenes. ParentID holds the script id.
type SceneRepo struct {
	s *Store
}

// Scenes returns the scene repository of the store.
func (s *Store) Scenes() *SceneRepo { return &SceneRepo{s: s} }

func sceneRecord(v *domain.Scene) (Record, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return Record{}, fmt.Errorf("scene marshal: %w", err)
	}
	return Record{
		ID:        v.ID,
		SeriesID:  v.SeriesID,
		ParentID:  v.ScriptID,
		Revision:  v.Revision,
		SortKey:   fmt.Sprintf("%020d", v.SceneNumber),
		Body:      body,
		CreatedAt: v.CreatedAt,
		UpdatedAt: v.UpdatedAt,
	}, nil
}

func decodeScene(r Record) (*domain.Scene, error) {
	var v domain.Scene
	if err := json.Unmarshal(r.Body, &v); err != nil {
		return nil, fmt.Errorf("scene %s unmarshal: %w", r.ID, err)
	}
	v.Revision = r.Revision
	if v.Beats == nil {
		v.Beats = []domain.Beat{}
	}
	if v.CharacterIDs == nil {
		v.CharacterIDs = []string{}
	}
	if v.PropIDs == nil {
		v.PropIDs = []string{}
	}
	return &v, nil
}

// Create inserts v. SceneNumber must already be allocated from the script.
func (r *SceneRepo) Create(ctx context.Context, v *domain.Scene) (*domain.Scene, error) {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	now := r.s.now()
	v.Revision = 1
	v.CreatedAt, v.UpdatedAt = now, now

	rec, err := sceneRecord(v)
	if err != nil {
		return nil, err
	}
	err = r.s.write(ctx, func(st *state) error {
		t := st.table(TableScenes)
		if _, dup := t[v.ID]; dup {
			return fmt.Errorf("scene %s: %w", v.ID, domain.ErrAlreadyExists)
		}
		for _, other := range t {
			if other.ParentID == v.ScriptID && other.SortKey == rec.SortKey {
				return fmt.Errorf("scene number %d of script %s: %w", v.SceneNumber, v.ScriptID, domain.ErrAlreadyExists)
			}
		}
		t[v.ID] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// GetByID returns the scene of the series, or domain.ErrNotFound.
func (r *SceneRepo) GetByID(ctx context.Context, seriesID, id string) (*domain.Scene, error) {
	var (
		rec Record
		ok  bool
	)
	r.s.read(func(st *state) {
		rec, ok = st.tables[TableScenes][id]
	})
	if !ok || rec.SeriesID != seriesID {
		return nil, domain.NotFoundError("scene", id)
	}
	return decodeScene(rec)
}

// Update writes the editable fields if the revision still matches.
// ScriptID and SceneNumber are immutable.
func (r *SceneRepo) Update(ctx context.Context, v *domain.Scene) (*domain.Scene, error) {
	now := r.s.now()
	err := r.s.write(ctx, func(st *state) error {
		t := st.table(TableScenes)
		cur, ok := t[v.ID]
		if !ok || cur.SeriesID != v.SeriesID {
			return domain.NotFoundError("scene", v.ID)
		}
		if cur.Revision != v.Revision {
			return fmt.Errorf("scene %s revision %d: %w", v.ID, v.Revision, domain.ErrConflict)
		}
		stored, err := decodeScene(cur)
		if err != nil {
			return err
		}
		next := *v
		next.ScriptID = stored.ScriptID
		next.SceneNumber = stored.SceneNumber
		next.CreatedAt = stored.CreatedAt
		next.Revision = v.Revision + 1
		next.UpdatedAt = now
		rec, err := sceneRecord(&next)
		if err != nil {
			return err
		}
		t[v.ID] = rec
		*v = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Delete removes the scene. Its number stays consumed by the script counter.
func (r *SceneRepo) Delete(ctx context.Context, seriesID, id string) error {
	return r.s.write(ctx, func(st *state) error {
		t := st.tables[TableScenes]
		cur, ok := t[id]
		if !ok || cur.SeriesID != seriesID {
			return domain.NotFoundError("scene", id)
		}
		delete(t, id)
		return nil
	})
}

// ListByScript returns one page of the script's scenes ordered by scene number.
func (r *SceneRepo) ListByScript(ctx context.Context, seriesID, scriptID string, limit, offset int) ([]domain.Scene, int, error) {
	var rs []Record
	r.s.read(func(st *state) {
		rs = st.rows(TableScenes, seriesID, func(rec Record) bool { return rec.ParentID == scriptID })
	})

	page := window(rs, limit, offset)
	items := make([]domain.Scene, 0, len(page))
	for _, rec := range page {
		v, err := decodeScene(rec)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *v)
	}
	return items, len(rs), nil
}
