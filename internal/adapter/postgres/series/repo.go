// Package series implements the Series repository using PostgreSQL.
package series

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"

	"github.com/heartmarshall/storybible-backend/internal/adapter/postgres"
	"github.com/heartmarshall/storybible-backend/internal/domain"
)

const table = "series"

var columns = []string{"id", "title", "genre", "logline", "cover_url", "last_edited_at", "created_at", "updated_at"}

type row struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Genre        *string   `db:"genre"`
	Logline      *string   `db:"logline"`
	CoverURL     *string   `db:"cover_url"`
	LastEditedAt time.Time `db:"last_edited_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r row) toDomain() *domain.Series {
	return &domain.Series{
		ID:           r.ID,
		Title:        r.Title,
		Genre:        r.Genre,
		Logline:      r.Logline,
		CoverURL:     r.CoverURL,
		LastEditedAt: r.LastEditedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Repo provides series persistence backed by PostgreSQL.
type Repo struct {
	db  postgres.Querier
	now func() time.Time
}

// New creates a new series repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

// Create inserts s, assigning its id (when empty) and timestamps.
func (r *Repo) Create(ctx context.Context, s *domain.Series) (*domain.Series, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := r.now()
	s.CreatedAt, s.UpdatedAt, s.LastEditedAt = now, now, now

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(s.ID, s.Title, s.Genre, s.Logline, s.CoverURL, s.LastEditedAt, s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("series build insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return nil, postgres.MapError(err, "series", s.ID)
	}
	return s, nil
}

// GetByID returns the series, or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, id string) (*domain.Series, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("series build select: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "series", id)
	}
	return out.toDomain(), nil
}

// Exists reports whether a series with id exists.
func (r *Repo) Exists(ctx context.Context, id string) (bool, error) {
	var exists bool
	err := postgres.QuerierFromCtx(ctx, r.db).
		QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM series WHERE id = $1)`, id).
		Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, "series", id)
	}
	return exists, nil
}

// Update writes the editable fields of s and bumps UpdatedAt and LastEditedAt.
func (r *Repo) Update(ctx context.Context, s *domain.Series) (*domain.Series, error) {
	now := r.now()

	query, args, err := postgres.Builder().
		Update(table).
		Set("title", s.Title).
		Set("genre", s.Genre).
		Set("logline", s.Logline).
		Set("cover_url", s.CoverURL).
		Set("last_edited_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": s.ID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("series build update: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "series", s.ID)
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.NotFoundError("series", s.ID)
	}
	s.UpdatedAt, s.LastEditedAt = now, now
	return s, nil
}

// Touch sets last_edited_at without changing anything else.
func (r *Repo) Touch(ctx context.Context, id string, at time.Time) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.db).
		Exec(ctx, `UPDATE series SET last_edited_at = $2 WHERE id = $1`, id, at)
	if err != nil {
		return postgres.MapError(err, "series", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("series", id)
	}
	return nil
}

// Delete removes the series row only; documents of the series are left in place.
func (r *Repo) Delete(ctx context.Context, id string) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, `DELETE FROM series WHERE id = $1`, id)
	if err != nil {
		return postgres.MapError(err, "series", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("series", id)
	}
	return nil
}

// List returns series ordered by title, then creation time.
func (r *Repo) List(ctx context.Context, limit, offset int) ([]domain.Series, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var total int
	if err := q.QueryRow(ctx, `SELECT count(*) FROM series`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count series: %w", err)
	}

	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		OrderBy(`lower(title) COLLATE "C"`, "created_at", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("series build list: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list series: %w", err)
	}

	items := make([]domain.Series, len(rows))
	for i, rw := range rows {
		items[i] = *rw.toDomain()
	}
	return items, total, nil
}
