// Package audit serves read-only pages of the audit trail.
package audit

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type seriesChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type auditRepo interface {
	List(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditEntry, int, error)
}

// Reader pages audit entries newest first. It never writes.
type Reader struct {
	series seriesChecker
	audit  auditRepo
	log    *slog.Logger
}

func NewReader(log *slog.Logger, series seriesChecker, audit auditRepo) *Reader {
	return &Reader{
		series: series,
		audit:  audit,
		log:    log.With("service", "audit"),
	}
}

// ByEntity returns the entries of one entity of the series.
func (r *Reader) ByEntity(ctx context.Context, seriesID string, entityType domain.EntityType, entityID string, offset, limit int) (domain.Page[domain.AuditEntry], error) {
	if !entityType.IsValid() {
		return domain.Page[domain.AuditEntry]{}, domain.NewValidationError("entityType", "unknown entity type")
	}
	return r.list(ctx, domain.AuditFilter{SeriesID: seriesID, EntityType: entityType, EntityID: entityID}, offset, limit)
}

// BySeries returns every entry of the series.
func (r *Reader) BySeries(ctx context.Context, seriesID string, offset, limit int) (domain.Page[domain.AuditEntry], error) {
	return r.list(ctx, domain.AuditFilter{SeriesID: seriesID}, offset, limit)
}

func (r *Reader) list(ctx context.Context, f domain.AuditFilter, offset, limit int) (domain.Page[domain.AuditEntry], error) {
	ok, err := r.series.Exists(ctx, f.SeriesID)
	if err != nil {
		return domain.Page[domain.AuditEntry]{}, fmt.Errorf("check series: %w", err)
	}
	if !ok {
		return domain.Page[domain.AuditEntry]{}, domain.NotFoundError("series", f.SeriesID)
	}

	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := r.audit.List(ctx, f, limit, offset)
	if err != nil {
		return domain.Page[domain.AuditEntry]{}, fmt.Errorf("list audit: %w", err)
	}
	if items == nil {
		items = []domain.AuditEntry{}
	}
	return domain.Page[domain.AuditEntry]{Items: items, Total: total}, nil
}
