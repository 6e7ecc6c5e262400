package screenplay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// CreateScript stores a new script of the series with content version 1.
func (s *Service) CreateScript(ctx context.Context, seriesID string, in domain.Script) (*domain.Script, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	in.Meta = domain.Meta{SeriesID: seriesID}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Script
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.scripts.Create(txCtx, &in)
		if err != nil {
			return fmt.Errorf("insert script: %w", err)
		}
		return s.record(txCtx, domain.EntityTypeScript, created.Meta, domain.AuditActionCreate, nil, created)
	})
	if err != nil {
		return nil, fmt.Errorf("create script: %w", err)
	}
	s.touch(ctx, seriesID, "")

	s.log.InfoContext(ctx, "script created",
		slog.String("series_id", seriesID),
		slog.String("script_id", created.ID),
	)
	return created, nil
}

func (s *Service) GetScript(ctx context.Context, seriesID, id string) (*domain.Script, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return nil, err
	}
	v, err := s.scripts.GetByID(ctx, seriesID, id)
	if err != nil {
		return nil, fmt.Errorf("get script: %w", err)
	}
	return v, nil
}

// UpdateScript applies the fields present in patch. A changed content bumps
// the content version.
func (s *Service) UpdateScript(ctx context.Context, seriesID, id string, patch domain.ScriptPatch) (*domain.Script, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return nil, err
	}

	var updated *domain.Script
	err := s.retry(ctx, id, func() error {
		cur, err := s.scripts.GetByID(ctx, seriesID, id)
		if err != nil {
			return fmt.Errorf("get script: %w", err)
		}
		before := *cur
		if err := patch.ApplyTo(cur); err != nil {
			return err
		}
		return s.tx.RunInTx(ctx, func(txCtx context.Context) error {
			updated, err = s.scripts.Update(txCtx, cur)
			if err != nil {
				return err
			}
			return s.record(txCtx, domain.EntityTypeScript, updated.Meta, domain.AuditActionUpdate, &before, updated)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("update script: %w", err)
	}
	s.touch(ctx, seriesID, "")

	s.log.InfoContext(ctx, "script updated",
		slog.String("series_id", seriesID),
		slog.String("script_id", id),
		slog.Int("content_version", updated.ContentVersion),
	)
	return updated, nil
}

// DeleteScript removes the script. Its scenes and references to it are left in place.
func (s *Service) DeleteScript(ctx context.Context, seriesID, id string) (bool, error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return false, err
	}
	cur, err := s.scripts.GetByID(ctx, seriesID, id)
	if err != nil {
		return false, fmt.Errorf("get script: %w", err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.scripts.Delete(txCtx, seriesID, id); err != nil {
			return err
		}
		return s.record(txCtx, domain.EntityTypeScript, cur.Meta, domain.AuditActionDelete, cur, nil)
	})
	if err != nil {
		return false, fmt.Errorf("delete script: %w", err)
	}
	s.touch(ctx, seriesID, "")

	s.log.InfoContext(ctx, "script deleted",
		slog.String("series_id", seriesID),
		slog.String("script_id", id),
	)
	return true, nil
}

// ListScripts returns script summaries ordered by title.
func (s *Service) ListScripts(ctx context.Context, seriesID string, limit, offset int) (domain.Page[domain.ScriptSummary], error) {
	if err := s.ensureSeries(ctx, seriesID); err != nil {
		return domain.Page[domain.ScriptSummary]{}, err
	}
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.scripts.ListSummaries(ctx, seriesID, limit, offset)
	if err != nil {
		return domain.Page[domain.ScriptSummary]{}, fmt.Errorf("list scripts: %w", err)
	}
	if items == nil {
		items = []domain.ScriptSummary{}
	}
	return domain.Page[domain.ScriptSummary]{Items: items, Total: total}, nil
}
