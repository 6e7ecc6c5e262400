// Package knowledge implements the knowledge-base CRUD layer shared by every
// series-scoped document kind, and the Character editor for the records
// embedded in a character.
package knowledge

import (
	"context"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type collection[T domain.Entity] interface {
	Insert(ctx context.Context, v T) (T, error)
	Get(ctx context.Context, seriesID, id string) (T, error)
	Update(ctx context.Context, v T) (T, error)
	Delete(ctx context.Context, seriesID, id string) error
	List(ctx context.Context, seriesID string, limit, offset int) ([]T, int, error)
	Existing(ctx context.Context, seriesID string, ids []string) (map[string]bool, error)
}

type seriesChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type auditLog interface {
	Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error)
}

type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// DefaultMaxRetries bounds read-modify-write attempts when MaxRetries is not set.
const DefaultMaxRetries = 3

// Deps are the collaborators shared by every CRUD instance of one store.
type Deps struct {
	Log        *slog.Logger
	Series     seriesChecker
	Audit      auditLog
	Tx         txManager
	MaxRetries int
}

func (d Deps) retries() int {
	if d.MaxRetries <= 0 {
		return DefaultMaxRetries
	}
	return d.MaxRetries
}

// ensureSeries fails with domain.ErrNotFound when the series does not exist.
func ensureSeries(ctx context.Context, series seriesChecker, seriesID string) error {
	ok, err := series.Exists(ctx, seriesID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundError("series", seriesID)
	}
	return nil
}
