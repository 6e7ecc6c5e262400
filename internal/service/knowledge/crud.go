package knowledge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/heartmarshall/storybible-backend/internal/domain"
	"github.com/heartmarshall/storybible-backend/pkg/ctxutil"
)

// CRUD serves create/read/update/delete/list for one document kind.
type CRUD[T domain.Entity, P domain.Patch[T]] struct {
	kind       domain.Kind[T]
	store      collection[T]
	series     seriesChecker
	audit      auditLog
	tx         txManager
	log        *slog.Logger
	maxRetries int
	check      func(ctx context.Context, v T) error
}

// Option configures a CRUD instance.
type Option[T domain.Entity] func(*options[T])

type options[T domain.Entity] struct {
	check func(ctx context.Context, v T) error
}

// WithReferenceCheck runs fn on every created or updated document after
// validation and before the write.
func WithReferenceCheck[T domain.Entity](fn func(ctx context.Context, v T) error) Option[T] {
	return func(o *options[T]) { o.check = fn }
}

// NewCRUD builds the CRUD surface of kind over store.
func NewCRUD[T domain.Entity, P domain.Patch[T]](kind domain.Kind[T], store collection[T], deps Deps, opts ...Option[T]) *CRUD[T, P] {
	var o options[T]
	for _, opt := range opts {
		opt(&o)
	}
	return &CRUD[T, P]{
		kind:       kind,
		store:      store,
		series:     deps.Series,
		audit:      deps.Audit,
		tx:         deps.Tx,
		log:        deps.Log.With("service", kind.Type.String()),
		maxRetries: deps.retries(),
		check:      o.check,
	}
}

// Kind returns the descriptor the instance was built from.
func (c *CRUD[T, P]) Kind() domain.Kind[T] { return c.kind }

// Create stores v under seriesID. Any id, revision or timestamps on v are replaced.
func (c *CRUD[T, P]) Create(ctx context.Context, seriesID string, v T) (T, error) {
	var zero T
	if err := ensureSeries(ctx, c.series, seriesID); err != nil {
		return zero, err
	}

	m := v.EntityMeta()
	*m = domain.Meta{SeriesID: seriesID}
	if err := c.prepare(ctx, v); err != nil {
		return zero, err
	}

	var created T
	err := c.tx.RunInTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = c.store.Insert(txCtx, v)
		if err != nil {
			return fmt.Errorf("insert %s: %w", c.kind.Type, err)
		}
		return c.record(txCtx, created.EntityMeta(), domain.AuditActionCreate, nil, created)
	})
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", c.kind.Type, err)
	}

	c.log.InfoContext(ctx, c.kind.Type.String()+" created",
		slog.String("series_id", seriesID),
		slog.String("id", created.EntityMeta().ID),
	)
	return created, nil
}

// Get returns the document, or domain.ErrNotFound when it is absent or
// belongs to another series.
func (c *CRUD[T, P]) Get(ctx context.Context, id, seriesID string) (T, error) {
	var zero T
	if err := ensureSeries(ctx, c.series, seriesID); err != nil {
		return zero, err
	}
	v, err := c.store.Get(ctx, seriesID, id)
	if err != nil {
		return zero, fmt.Errorf("get %s: %w", c.kind.Type, err)
	}
	return v, nil
}

// List returns one page of the series' documents in the kind's sort order.
func (c *CRUD[T, P]) List(ctx context.Context, seriesID string, limit, offset int) (domain.Page[T], error) {
	if err := ensureSeries(ctx, c.series, seriesID); err != nil {
		return domain.Page[T]{}, err
	}
	limit, offset = domain.NormalizePage(limit, offset)
	items, total, err := c.store.List(ctx, seriesID, limit, offset)
	if err != nil {
		return domain.Page[T]{}, fmt.Errorf("list %s: %w", c.kind.Type, err)
	}
	if items == nil {
		items = []T{}
	}
	return domain.Page[T]{Items: items, Total: total}, nil
}

// Update applies the fields present in patch.
func (c *CRUD[T, P]) Update(ctx context.Context, id, seriesID string, patch P) (T, error) {
	var zero T
	if err := ensureSeries(ctx, c.series, seriesID); err != nil {
		return zero, err
	}
	updated, err := c.mutate(ctx, seriesID, id, func(v T) (bool, error) {
		return true, patch.ApplyTo(v)
	})
	if err != nil {
		return zero, err
	}
	c.log.InfoContext(ctx, c.kind.Type.String()+" updated",
		slog.String("series_id", seriesID),
		slog.String("id", id),
	)
	return updated, nil
}

// Remove deletes the document. References to it from other documents are left as they are.
func (c *CRUD[T, P]) Remove(ctx context.Context, id, seriesID string) (bool, error) {
	if err := ensureSeries(ctx, c.series, seriesID); err != nil {
		return false, err
	}
	cur, err := c.store.Get(ctx, seriesID, id)
	if err != nil {
		return false, fmt.Errorf("get %s: %w", c.kind.Type, err)
	}

	err = c.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := c.store.Delete(txCtx, seriesID, id); err != nil {
			return err
		}
		return c.record(txCtx, cur.EntityMeta(), domain.AuditActionDelete, cur, nil)
	})
	if err != nil {
		return false, fmt.Errorf("delete %s: %w", c.kind.Type, err)
	}

	c.log.InfoContext(ctx, c.kind.Type.String()+" deleted",
		slog.String("series_id", seriesID),
		slog.String("id", id),
	)
	return true, nil
}

// Modify runs fn against the current document and stores the result with the
// same revision check, retry and audit as Update. When fn reports no change
// nothing is written.
func (c *CRUD[T, P]) Modify(ctx context.Context, seriesID, id string, fn func(v T) (bool, error)) (T, error) {
	var zero T
	if err := ensureSeries(ctx, c.series, seriesID); err != nil {
		return zero, err
	}
	return c.mutate(ctx, seriesID, id, fn)
}

// mutate loads the document, lets fn change it and stores it with a revision
// check. A concurrent write restarts the cycle up to maxRetries times. When fn
// reports no change the current document is returned without a write.
func (c *CRUD[T, P]) mutate(ctx context.Context, seriesID, id string, fn func(v T) (bool, error)) (T, error) {
	var zero T
	for attempt := 1; ; attempt++ {
		cur, err := c.store.Get(ctx, seriesID, id)
		if err != nil {
			return zero, fmt.Errorf("get %s: %w", c.kind.Type, err)
		}
		before, err := json.Marshal(cur)
		if err != nil {
			return zero, fmt.Errorf("snapshot %s: %w", c.kind.Type, err)
		}

		changed, err := fn(cur)
		if err != nil {
			return zero, err
		}
		if !changed {
			return cur, nil
		}
		if err := c.prepare(ctx, cur); err != nil {
			return zero, err
		}

		var updated T
		err = c.tx.RunInTx(ctx, func(txCtx context.Context) error {
			var err error
			updated, err = c.store.Update(txCtx, cur)
			if err != nil {
				return err
			}
			return c.record(txCtx, updated.EntityMeta(), domain.AuditActionUpdate, json.RawMessage(before), updated)
		})
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, domain.ErrConflict) || attempt >= c.maxRetries {
			return zero, fmt.Errorf("update %s: %w", c.kind.Type, err)
		}
		c.log.DebugContext(ctx, "revision conflict, retrying",
			slog.String("id", id),
			slog.Int("attempt", attempt),
		)
	}
}

func (c *CRUD[T, P]) prepare(ctx context.Context, v T) error {
	if c.kind.Normalize != nil {
		c.kind.Normalize(v)
	}
	if err := c.kind.Validate(v); err != nil {
		return err
	}
	if c.check != nil {
		return c.check(ctx, v)
	}
	return nil
}

func (c *CRUD[T, P]) record(ctx context.Context, m *domain.Meta, action domain.AuditAction, before, after any) error {
	entry, err := domain.NewAuditEntry(m.SeriesID, c.kind.Type, m.ID, action, ctxutil.ActorIDFromCtx(ctx), before, after)
	if err != nil {
		return err
	}
	if _, err := c.audit.Append(ctx, entry); err != nil {
		return fmt.Errorf("audit: %w", err)
	}
	return nil
}
