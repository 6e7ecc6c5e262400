// Package document stores knowledge-base documents as JSONB rows, one table per kind.
// The document body is opaque to SQL; ordering and search run on the derived
// sort_key and search_text columns.
package document

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/storybible-backend/internal/adapter/postgres"
	"github.com/heartmarshall/storybible-backend/internal/domain"
)

var selectColumns = []string{"id", "series_id", "revision", "doc", "created_at", "updated_at"}

// sort_key is compared bytewise so that ordering matches the in-memory store.
var orderBy = []string{`sort_key COLLATE "C"`, "created_at", "id"}

type row struct {
	ID        string    `db:"id"`
	SeriesID  string    `db:"series_id"`
	Revision  int64     `db:"revision"`
	Doc       []byte    `db:"doc"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// Collection is the PostgreSQL store of one document kind.
type Collection[T domain.Entity] struct {
	db   postgres.Querier
	kind domain.Kind[T]
	now  func() time.Time
}

// New creates a collection for kind backed by db.
func New[T domain.Entity](db postgres.Querier, kind domain.Kind[T]) *Collection[T] {
	return &Collection[T]{
		db:   db,
		kind: kind,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// Insert assigns id (when empty), timestamps and revision 1 to v and stores it.
func (c *Collection[T]) Insert(ctx context.Context, v T) (T, error) {
	m := v.EntityMeta()
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	now := c.now()
	m.Revision = 1
	m.CreatedAt = now
	m.UpdatedAt = now

	doc, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("%s marshal: %w", c.kind.Type, err)
	}

	query, args, err := postgres.Builder().
		Insert(c.kind.Collection).
		Columns("id", "series_id", "revision", "sort_key", "search_text", "doc", "created_at", "updated_at").
		Values(m.ID, m.SeriesID, m.Revision, c.kind.SortKey(v), c.kind.SearchText(v), doc, m.CreatedAt, m.UpdatedAt).
		ToSql()
	if err != nil {
		return v, fmt.Errorf("%s build insert: %w", c.kind.Type, err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, c.db).Exec(ctx, query, args...); err != nil {
		return v, postgres.MapError(err, c.kind.Type.String(), m.ID)
	}
	return v, nil
}

// Get returns the document with id in seriesID, or domain.ErrNotFound.
func (c *Collection[T]) Get(ctx context.Context, seriesID, id string) (T, error) {
	var zero T

	query, args, err := c.selectBuilder(seriesID).Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return zero, fmt.Errorf("%s build select: %w", c.kind.Type, err)
	}

	var r row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, c.db), &r, query, args...); err != nil {
		return zero, postgres.MapError(err, c.kind.Type.String(), id)
	}
	return c.decode(r)
}

// Update stores v if its Revision still matches the stored one, then bumps
// Revision and UpdatedAt. A stale revision yields domain.ErrConflict.
func (c *Collection[T]) Update(ctx context.Context, v T) (T, error) {
	m := v.EntityMeta()
	prevRevision, prevUpdated := m.Revision, m.UpdatedAt
	m.Revision++
	m.UpdatedAt = c.now()

	restore := func() {
		m.Revision, m.UpdatedAt = prevRevision, prevUpdated
	}

	doc, err := json.Marshal(v)
	if err != nil {
		restore()
		return v, fmt.Errorf("%s marshal: %w", c.kind.Type, err)
	}

	query, args, err := postgres.Builder().
		Update(c.kind.Collection).
		Set("revision", m.Revision).
		Set("sort_key", c.kind.SortKey(v)).
		Set("search_text", c.kind.SearchText(v)).
		Set("doc", doc).
		Set("updated_at", m.UpdatedAt).
		Where(sq.Eq{"id": m.ID, "series_id": m.SeriesID, "revision": prevRevision}).
		ToSql()
	if err != nil {
		restore()
		return v, fmt.Errorf("%s build update: %w", c.kind.Type, err)
	}

	q := postgres.QuerierFromCtx(ctx, c.db)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		restore()
		return v, postgres.MapError(err, c.kind.Type.String(), m.ID)
	}
	if tag.RowsAffected() == 0 {
		restore()
		exists, err := c.exists(ctx, m.SeriesID, m.ID)
		if err != nil {
			return v, err
		}
		if exists {
			return v, fmt.Errorf("%s %s revision %d: %w", c.kind.Type, m.ID, prevRevision, domain.ErrConflict)
		}
		return v, domain.NotFoundError(c.kind.Type.String(), m.ID)
	}
	return v, nil
}

// Delete removes the document, or returns domain.ErrNotFound.
func (c *Collection[T]) Delete(ctx context.Context, seriesID, id string) error {
	query, args, err := postgres.Builder().
		Delete(c.kind.Collection).
		Where(sq.Eq{"id": id, "series_id": seriesID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%s build delete: %w", c.kind.Type, err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, c.db).Exec(ctx, query, args...)
	if err != nil {
		return postgres.MapError(err, c.kind.Type.String(), id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError(c.kind.Type.String(), id)
	}
	return nil
}

// List returns one page of the series' documents in sort order plus the total count.
func (c *Collection[T]) List(ctx context.Context, seriesID string, limit, offset int) ([]T, int, error) {
	countQuery, countArgs, err := postgres.Builder().
		Select("count(*)").
		From(c.kind.Collection).
		Where(sq.Eq{"series_id": seriesID}).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("%s build count: %w", c.kind.Type, err)
	}

	var total int
	if err := postgres.QuerierFromCtx(ctx, c.db).QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s count: %w", c.kind.Type, err)
	}

	items, err := c.selectMany(ctx, c.selectBuilder(seriesID).
		OrderBy(orderBy...).
		Limit(uint64(limit)).
		Offset(uint64(offset)))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// All returns every document of the series in sort order.
func (c *Collection[T]) All(ctx context.Context, seriesID string) ([]T, error) {
	return c.selectMany(ctx, c.selectBuilder(seriesID).OrderBy(orderBy...))
}

// Search returns the series' documents whose search text contains the
// normalized query, in sort order. An empty query returns everything.
func (c *Collection[T]) Search(ctx context.Context, seriesID, query string) ([]T, error) {
	b := c.selectBuilder(seriesID)
	if q := domain.NormalizeText(query); q != "" {
		b = b.Where(sq.Like{"search_text": postgres.ContainsPattern(q)})
	}
	return c.selectMany(ctx, b.OrderBy(orderBy...))
}

// Existing reports which of ids are documents of the series.
func (c *Collection[T]) Existing(ctx context.Context, seriesID string, ids []string) (map[string]bool, error) {
	found := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return found, nil
	}

	query, args, err := postgres.Builder().
		Select("id").
		From(c.kind.Collection).
		Where(sq.Eq{"series_id": seriesID, "id": ids}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s build existing: %w", c.kind.Type, err)
	}

	var present []string
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, c.db), &present, query, args...); err != nil {
		return nil, fmt.Errorf("%s existing: %w", c.kind.Type, err)
	}
	for _, id := range present {
		found[id] = true
	}
	return found, nil
}

func (c *Collection[T]) exists(ctx context.Context, seriesID, id string) (bool, error) {
	query, args, err := postgres.Builder().
		Select("1").
		Prefix("SELECT EXISTS (").
		From(c.kind.Collection).
		Where(sq.Eq{"id": id, "series_id": seriesID}).
		Suffix(")").
		ToSql()
	if err != nil {
		return false, fmt.Errorf("%s build exists: %w", c.kind.Type, err)
	}

	var exists bool
	if err := postgres.QuerierFromCtx(ctx, c.db).QueryRow(ctx, query, args...).Scan(&exists); err != nil {
		return false, postgres.MapError(err, c.kind.Type.String(), id)
	}
	return exists, nil
}

func (c *Collection[T]) selectBuilder(seriesID string) sq.SelectBuilder {
	return postgres.Builder().
		Select(selectColumns...).
		From(c.kind.Collection).
		Where(sq.Eq{"series_id": seriesID})
}

func (c *Collection[T]) selectMany(ctx context.Context, b sq.SelectBuilder) ([]T, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%s build select: %w", c.kind.Type, err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, c.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s select: %w", c.kind.Type, err)
	}

	items := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := c.decode(r)
		if err != nil {
			return nil, err
		}
		items = append(items, v)
	}
	return items, nil
}

// decode unmarshals the document body; the row columns are authoritative for Meta.
func (c *Collection[T]) decode(r row) (T, error) {
	v := c.kind.New()
	if err := json.Unmarshal(r.Doc, v); err != nil {
		var zero T
		return zero, fmt.Errorf("%s %s unmarshal: %w", c.kind.Type, r.ID, err)
	}
	*v.EntityMeta() = domain.Meta{
		ID:        r.ID,
		SeriesID:  r.SeriesID,
		Revision:  r.Revision,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	return v, nil
}
