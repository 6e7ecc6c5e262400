// Package script implements the Script repository using PostgreSQL.
// Scene numbers are allocated from the scripts.scene_seq counter.
package script

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

const table = "scripts"

var (
	columns = []string{
		"id", "series_id", "revision", "title", "authors", "content",
		"content_version", "scene_seq", "last_edited_at", "created_at", "updated_at",
	}
	summaryColumns = []string{"id", "series_id", "title", "authors", "last_edited_at", "created_at", "updated_at"}
	orderBy        = []string{`lower(title) COLLATE "C"`, "created_at", "id"}
)

type row struct {
	ID             string    `db:"id"`
	SeriesID       string    `db:"series_id"`
	Revision       int64     `db:"revision"`
	Title          string    `db:"title"`
	Authors        []string  `db:"authors"`
	Content        string    `db:"content"`
	ContentVersion int       `db:"content_version"`
	SceneSeq       int       `db:"scene_seq"`
	LastEditedAt   time.Time `db:"last_edited_at"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

func (r row) toDomain() *domain.Script {
	return &domain.Script{
		Meta: domain.Meta{
			ID:        r.ID,
			SeriesID:  r.SeriesID,
			Revision:  r.Revision,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		Title:          r.Title,
		Authors:        nonNil(r.Authors),
		Content:        r.Content,
		ContentVersion: r.ContentVersion,
		SceneCounter:   r.SceneSeq,
		LastEditedAt:   r.LastEditedAt,
	}
}

type summaryRow struct {
	ID           string    `db:"id"`
	SeriesID     string    `db:"series_id"`
	Title        string    `db:"title"`
	Authors      []string  `db:"authors"`
	LastEditedAt time.Time `db:"last_edited_at"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r summaryRow) toDomain() domain.ScriptSummary {
	return domain.ScriptSummary{
		ID:           r.ID,
		SeriesID:     r.SeriesID,
		Title:        r.Title,
		Authors:      nonNil(r.Authors),
		LastEditedAt: r.LastEditedAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

// Repo provides script persistence backed by PostgreSQL.
type Repo struct {
	db  postgres.Querier
	now func() time.Time
}

// New creates a new script repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

// Create inserts s with revision 1, content version 1 and an empty scene counter.
func (r *Repo) Create(ctx context.Context, s *domain.Script) (*domain.Script, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := r.now()
	s.Revision = 1
	s.ContentVersion = 1
	s.SceneCounter = 0
	s.CreatedAt, s.UpdatedAt, s.LastEditedAt = now, now, now

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(s.ID, s.SeriesID, s.Revision, s.Title, nonNil(s.Authors), s.Content,
			s.ContentVersion, s.SceneCounter, s.LastEditedAt, s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("script build insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return nil, postgres.MapError(err, "script", s.ID)
	}
	return s, nil
}

// GetByID returns the script of the series, or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, seriesID, id string) (*domain.Script, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id, "series_id": seriesID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("script build select: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "script", id)
	}
	return out.toDomain(), nil
}

// Update writes title, authors, content and content version if the revision
// still matches. The scene counter is never written here.
func (r *Repo) Update(ctx context.Context, s *domain.Script) (*domain.Script, error) {
	now := r.now()

	query, args, err := postgres.Builder().
		Update(table).
		Set("revision", s.Revision+1).
		Set("title", s.Title).
		Set("authors", nonNil(s.Authors)).
		Set("content", s.Content).
		Set("content_version", s.ContentVersion).
		Set("last_edited_at", now).
		Set("updated_at", now).
		Where(sq.Eq{"id": s.ID, "series_id": s.SeriesID, "revision": s.Revision}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("script build update: %w", err)
	}

	q := postgres.QuerierFromCtx(ctx, r.db)
	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "script", s.ID)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, s.SeriesID, s.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("script %s revision %d: %w", s.ID, s.Revision, domain.ErrConflict)
	}

	s.Revision++
	s.UpdatedAt, s.LastEditedAt = now, now
	return s, nil
}

// NextSceneNumber atomically increments and returns the script's scene counter.
// Numbers handed out are never reused, even when the scene is later deleted.
func (r *Repo) NextSceneNumber(ctx context.Context, seriesID, id string) (int, error) {
	var n int
	err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx,
		`UPDATE scripts SET scene_seq = scene_seq + 1 WHERE id = $1 AND series_id = $2 RETURNING scene_seq`,
		id, seriesID,
	).Scan(&n)
	if err != nil {
		return 0, postgres.MapError(err, "script", id)
	}
	return n, nil
}

// Touch sets last_edited_at without changing the revision.
func (r *Repo) Touch(ctx context.Context, seriesID, id string, at time.Time) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx,
		`UPDATE scripts SET last_edited_at = $3 WHERE id = $1 AND series_id = $2`, id, seriesID, at)
	if err != nil {
		return postgres.MapError(err, "script", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("script", id)
	}
	return nil
}

// Delete removes the script; its scenes are left in place.
func (r *Repo) Delete(ctx context.Context, seriesID, id string) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx,
		`DELETE FROM scripts WHERE id = $1 AND series_id = $2`, id, seriesID)
	if err != nil {
		return postgres.MapError(err, "script", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("script", id)
	}
	return nil
}

// ListSummaries returns one page of script summaries ordered by title.
func (r *Repo) ListSummaries(ctx context.Context, seriesID string, limit, offset int) ([]domain.ScriptSummary, int, error) {
	var total int
	err := postgres.QuerierFromCtx(ctx, r.db).
		QueryRow(ctx, `SELECT count(*) FROM scripts WHERE series_id = $1`, seriesID).
		Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count scripts: %w", err)
	}

	items, err := r.selectSummaries(ctx, r.summaryBuilder(seriesID).Limit(uint64(limit)).Offset(uint64(offset)))
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AllSummaries returns every script summary of the series ordered by title.
func (r *Repo) AllSummaries(ctx context.Context, seriesID string) ([]domain.ScriptSummary, error) {
	return r.selectSummaries(ctx, r.summaryBuilder(seriesID))
}

func (r *Repo) summaryBuilder(seriesID string) sq.SelectBuilder {
	return postgres.Builder().
		Select(summaryColumns...).
		From(table).
		Where(sq.Eq{"series_id": seriesID}).
		OrderBy(orderBy...)
}

func (r *Repo) selectSummaries(ctx context.Context, b sq.SelectBuilder) ([]domain.ScriptSummary, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("script build list: %w", err)
	}

	var rows []summaryRow
	if err := pgxscan.Select(ctx, postgres.QuerierFromCtx(ctx, r.db), &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list scripts: %w", err)
	}

	items := make([]domain.ScriptSummary, len(rows))
	for i, rw := range rows {
		items[i] = rw.toDomain()
	}
	return items, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
