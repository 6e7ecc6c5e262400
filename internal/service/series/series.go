package series

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/domain"
	"github.com/heartmarshall/storybible-backend/pkg/ctxutil"
)

// Create stores a new series. Title is required.
func (s *Service) Create(ctx context.Context, in domain.Series) (*domain.Series, error) {
	in.ID = ""
	if err := in.Validate(); err != nil {
		return nil, err
	}

	var created *domain.Series
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.series.Create(txCtx, &in)
		if err != nil {
			return fmt.Errorf("insert series: %w", err)
		}
		return s.record(txCtx, created.ID, domain.AuditActionCreate, nil, created)
	})
	if err != nil {
		return nil, fmt.Errorf("create series: %w", err)
	}

	s.log.InfoContext(ctx, "series created",
		slog.String("series_id", created.ID),
		slog.String("title", created.Title),
	)
	return created, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Series, error) {
	v, err := s.series.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	return v, nil
}

// Update applies the fields present in patch.
func (s *Service) Update(ctx context.Context, id string, patch domain.SeriesPatch) (*domain.Series, error) {
	cur, err := s.series.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get series: %w", err)
	}
	before := *cur
	if err := patch.ApplyTo(cur); err != nil {
		return nil, err
	}

	var updated *domain.Series
	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		updated, err = s.series.Update(txCtx, cur)
		if err != nil {
			return err
		}
		return s.record(txCtx, id, domain.AuditActionUpdate, &before, updated)
	})
	if err != nil {
		return nil, fmt.Errorf("update series: %w", err)
	}

	s.log.InfoContext(ctx, "series updated", slog.String("series_id", id))
	return updated, nil
}

// Delete removes the series. Documents of the series are not removed.
func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	cur, err := s.series.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get series: %w", err)
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.series.Delete(txCtx, id); err != nil {
			return err
		}
		return s.record(txCtx, id, domain.AuditActionDelete, cur, nil)
	})
	if err != nil {
		return false, fmt.Errorf("delete series: %w", err)
	}

	s.log.InfoContext(ctx, "series deleted", slog.String("series_id", id))
	return true, nil
}

// List returns series ordered by title.
func (s *Service) List(ctx context.Context, limit, offset int) (domain.Page[domain.Series], error) {
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := s.series.List(ctx, limit, offset)
	if err != nil {
		return domain.Page[domain.Series]{}, fmt.Errorf("list series: %w", err)
	}
	if items == nil {
		items = []domain.Series{}
	}
	return domain.Page[domain.Series]{Items: items, Total: total}, nil
}

func (s *Service) record(ctx context.Context, id string, action domain.AuditAction, before, after any) error {
	entry, err := domain.NewAuditEntry(id, domain.EntityTypeSeries, id, action, ctxutil.ActorIDFromCtx(ctx), before, after)
	if err != nil {
		return err
	}
	if _, err := s.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}
