package screenplay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// CreateScene appends a scene to the script. Its number is the next value of
// the script's scene counter; numbers of deleted scenes are never reused.
func (s *Service) CreateScene(ctx context.Context, seriesID string, in domain.Scene) (*domain.Scene, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	in.Meta = domain.Meta{SeriesID: seriesID}
	in.SceneNumber = 0
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if _, err := s.scripts.GetByID(ctx, seriesID, in.ScriptID); err != nil {
		return nil, fmt.Errorf("get script: %w", err)
	}
	if err := s.checkRefs(ctx, seriesID, &in); err != nil {
		return nil, err
	}

	var created *domain.Scene
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		n, err := s.scripts.NextSceneNumber(txCtx, seriesID, in.ScriptID)
		if err != nil {
			return fmt.Errorf("next scene number: %w", err)
		}
		in.SceneNumber = n
		created, err = s.scenes.Create(txCtx, &in)
		if err != nil {
			return fmt.Errorf("insert scene: %w", err)
		}
		return s.record(txCtx, domain.EntityTypeScene, created.Meta, domain.AuditActionCreate, nil, created)
	})
	if err != nil {
		return nil, fmt.Errorf("create scene: %w", err)
	}
	s.touch(ctx, seriesID, created.ScriptID)

	s.log.InfoContext(ctx, "scene created",
		slog.String("series_id", seriesID),
		slog.String("script_id", created.ScriptID),
		slog.Int("scene_number", created.SceneNumber),
	)
	return created, nil
}

func (s *Service) GetScene(ctx context.Context, seriesID, id string) (*domain.Scene, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	v, err := s.scenes.GetByID(ctx, seriesID, id)
	if err != nil {
		return nil, fmt.Errorf("get scene: %w", err)
	}
	return v, nil
}

// UpdateScene applies the fields present in patch. The script and the scene
// number of a scene never change.
func (s *Service) UpdateScene(ctx context.Context, seriesID, id string, patch domain.ScenePatch) (*domain.Scene, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return nil, err
	}

	var updated *domain.Scene
	err := s.retry(ctx, id, func() error {
		cur, err := s.scenes.GetByID(ctx, seriesID, id)
		if err != nil {
			return fmt.Errorf("get scene: %w", err)
		}
		before := *cur
		if err := patch.ApplyTo(cur); err != nil {
			return err
		}
		if err := s.checkRefs(ctx, seriesID, cur); err != nil {
			return err
		}
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			updated, err = s.scenes.Update(txCtx, cur)
			if err != nil {
				return err
			}
			return s.record(txCtx, domain.EntityTypeScene, updated.Meta, domain.AuditActionUpdate, &before, updated)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update scene: %w", err)
	}
	s.touch(ctx, seriesID, updated.ScriptID)

	s.log.InfoContext(ctx, "scene updated",
		slog.String("series_id", seriesID),
		slog.String("scene_id", id),
	)
	return updated, nil
}

func (s *Service) DeleteScene(ctx context.Context, seriesID, id string) (bool, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return false, err
	}
	cur, err := s.scenes.GetByID(ctx, seriesID, id)
	if err != nil {
		return false, fmt.Errorf("get scene: %w", err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.scenes.Delete(txCtx, seriesID, id); err != nil {
			return err
		}
		return s.record(txCtx, domain.EntityTypeScene, cur.Meta, domain.AuditActionDelete, cur, nil)
	})
	if err != nil {
		return false, fmt.Errorf("delete scene: %w", err)
	}
	s.touch(ctx, seriesID, cur.ScriptID)

	s.log.InfoContext(ctx, "scene deleted",
		slog.String("series_id", seriesID),
		slog.String("scene_id", id),
	)
	return true, nil
}

// ListScenesByScript returns the script's scenes ordered by scene number.
func (s *Service) ListScenesByScript(ctx context.Context, seriesID, scriptID string, limit, offset int) (domain.Page[domain.Scene], error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return domain.Page[domain.Scene]{}, err
	}
	if _, err := s.scripts.GetByID(ctx, seriesID, scriptID); err != nil {
		return domain.Page[domain.Scene]{}, fmt.Errorf("get script: %w", err)
	}

	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.scenes.ListByScript(ctx, seriesID, scriptID, limit, offset)
	if err != nil {
		return domain.Page[domain.Scene]{}, fmt.Errorf("list scenes: %w", err)
	}
	if items == nil {
		items = []domain.Scene{}
	}
	return domain.Page[domain.Scene]{Items: items, Total: total}, nil
}

// checkRefs fails with domain.ErrNotFound for the first character, prop or
// location id that is not a document of the series.
func (s *Service) checkRefs(ctx context.Context, seriesID string, sc *domain.Scene) error {
	if err := requireAll(ctx, s.refs.Characters, seriesID, "character", sc.CharacterIDs); err != nil {
		return err
	}
	if err := requireAll(ctx, s.refs.Props, seriesID, "prop", sc.PropIDs); err != nil {
		return err
	}
	if sc.LocationID != nil {
		return requireAll(ctx, s.refs.Locations, seriesID, "location", []string{*sc.LocationID})
	}
	return nil
}

func requireAll(ctx context.Context, c existenceChecker, seriesID, entity string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	found, err := c.Existing(ctx, seriesID, ids)
	if err != nil {
		return fmt.Errorf("check %s references: %w", entity, err)
	}
	for _, id := range ids {
		if !found[id] {
			return domain.NotFoundError(entity, id)
		}
	}
	return nil
}
