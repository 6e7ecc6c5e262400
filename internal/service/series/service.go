// Package series manages the root documents every other document belongs to.
package series

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type seriesRepo interface {
	Create(ctx context.Context, s *domain.Series) (*domain.Series, error)
	GetByID(ctx context.Context, id string) (*domain.Series, error)
	Update(ctx context.Context, s *domain.Series) (*domain.Series, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, limit, offset int) ([]domain.Series, int, error)
}

type auditLog interface {
	Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service provides series management operations.
type Service struct {
	series seriesRepo
	audit  auditLog
	tx     txManager
	log    *slog.Logger
}

// NewService creates a new Series service.
func NewService(log *slog.Logger, series seriesRepo, audit auditLog, tx txManager) *Service {
	return &Service{
		series: series,
		audit:  audit,
		tx:     tx,
		log:    log.With("service", "series"),
	}
}
