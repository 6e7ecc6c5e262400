// Package scene implements the Scene repository using PostgreSQL.
package scene

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

const table = "scenes"

var columns = []string{
	"id", "series_id", "script_id", "revision", "scene_number", "heading",
	"beats", "character_ids", "prop_ids", "location_id", "created_at", "updated_at",
}

type row struct {
	ID           string    `db:"id"`
	SeriesID     string    `db:"series_id"`
	ScriptID     string    `db:"script_id"`
	Revision     int64     `db:"revision"`
	SceneNumber  int       `db:"scene_number"`
	Heading      string    `db:"heading"`
	Beats        []byte    `db:"beats"`
	CharacterIDs []string  `db:"character_ids"`
	PropIDs      []string  `db:"prop_ids"`
	LocationID   *string   `db:"location_id"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r row) toDomain() (*domain.Scene, error) {
	beats := []domain.Beat{}
	if len(r.Beats) > 0 {
		if err := json.Unmarshal(r.Beats, &beats); err != nil {
			return nil, fmt.Errorf("scene %s unmarshal beats: %w", r.ID, err)
		}
	}
	if beats == nil {
		beats = []domain.Beat{}
	}
	s := &domain.Scene{
		Meta: domain.Meta{
			ID:        r.ID,
			SeriesID:  r.SeriesID,
			Revision:  r.Revision,
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		ScriptID:     r.ScriptID,
		SceneNumber:  r.SceneNumber,
		Heading:      r.Heading,
		Beats:        beats,
		CharacterIDs: nonNil(r.CharacterIDs),
		PropIDs:      nonNil(r.PropIDs),
		LocationID:   r.LocationID,
	}
	return s, nil
}

// Repo provides scene persistence backed by PostgreSQL.
type Repo struct {
	db  postgres.Querier
	now func() time.Time
}

// New creates a new scene repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

// Create inserts s. SceneNumber must already be allocated from the script.
func (r *Repo) Create(ctx context.Context, s *domain.Scene) (*domain.Scene, error) {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	now := r.now()
	s.Revision = 1
	s.CreatedAt, s.UpdatedAt = now, now

	beats, err := marshalBeats(s.Beats)
	if err != nil {
		return nil, fmt.Errorf("scene marshal beats: %w", err)
	}

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns...).
		Values(s.ID, s.SeriesID, s.ScriptID, s.Revision, s.SceneNumber, s.Heading,
			beats, nonNil(s.CharacterIDs), nonNil(s.PropIDs), s.LocationID, s.CreatedAt, s.UpdatedAt).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("scene build insert: %w", err)
	}

	if _, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...); err != nil {
		return nil, postgres.MapError(err, "scene", s.ID)
	}
	return s, nil
}

// GetByID returns the scene of the series, or domain.ErrNotFound.
func (r *Repo) GetByID(ctx context.Context, seriesID, id string) (*domain.Scene, error) {
	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"id": id, "series_id": seriesID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("scene build select: %w", err)
	}

	var out row
	if err := pgxscan.Get(ctx, postgres.QuerierFromCtx(ctx, r.db), &out, query, args...); err != nil {
		return nil, postgres.MapError(err, "scene", id)
	}
	return out.toDomain()
}

// Update writes the editable fields if the revision still matches.
// ScriptID and SceneNumber are immutable.
func (r *Repo) Update(ctx context.Context, s *domain.Scene) (*domain.Scene, error) {
	now := r.now()

	beats, err := marshalBeats(s.Beats)
	if err != nil {
		return nil, fmt.Errorf("scene marshal beats: %w", err)
	}

	query, args, err := postgres.Builder().
		Update(table).
		Set("revision", s.Revision+1).
		Set("heading", s.Heading).
		Set("beats", beats).
		Set("character_ids", nonNil(s.CharacterIDs)).
		Set("prop_ids", nonNil(s.PropIDs)).
		Set("location_id", s.LocationID).
		Set("updated_at", now).
		Where(sq.Eq{"id": s.ID, "series_id": s.SeriesID, "revision": s.Revision}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("scene build update: %w", err)
	}

	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx, query, args...)
	if err != nil {
		return nil, postgres.MapError(err, "scene", s.ID)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, s.SeriesID, s.ID); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("scene %s revision %d: %w", s.ID, s.Revision, domain.ErrConflict)
	}

	s.Revision++
	s.UpdatedAt = now
	return s, nil
}

// Delete removes the scene. Its number stays consumed by the script counter.
func (r *Repo) Delete(ctx context.Context, seriesID, id string) error {
	tag, err := postgres.QuerierFromCtx(ctx, r.db).Exec(ctx,
		`DELETE FROM scenes WHERE id = $1 AND series_id = $2`, id, seriesID)
	if err != nil {
		return postgres.MapError(err, "scene", id)
	}
	if tag.RowsAffected() == 0 {
		return domain.NotFoundError("scene", id)
	}
	return nil
}

// ListByScript returns one page of the script's scenes ordered by scene number.
func (r *Repo) ListByScript(ctx context.Context, seriesID, scriptID string, limit, offset int) ([]domain.Scene, int, error) {
	q := postgres.QuerierFromCtx(ctx, r.db)

	var total int
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM scenes WHERE series_id = $1 AND script_id = $2`, seriesID, scriptID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count scenes: %w", err)
	}

	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(sq.Eq{"series_id": seriesID, "script_id": scriptID}).
		OrderBy("scene_number").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("scene build list: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list scenes: %w", err)
	}

	items := make([]domain.Scene, 0, len(rows))
	for _, rw := range rows {
		s, err := rw.toDomain()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *s)
	}
	return items, total, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func marshalBeats(b []domain.Beat) ([]byte, error) {
	if b == nil {
		b = []domain.Beat{}
	}
	return json.Marshal(b)
}
