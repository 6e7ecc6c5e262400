// Package audit implements the audit trail repository using PostgreSQL.
// Entries are append-only: the repository has no update or delete path.
package audit

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

const table = "audit_entries"

var columns = []string{"seq", "id", "series_id", "entity_type", "entity_id", "action", "actor_id", "ts", "before", "after"}

type row struct {
	Seq        int64     `db:"seq"`
	ID         string    `db:"id"`
	SeriesID   string    `db:"series_id"`
	EntityType string    `db:"entity_type"`
	EntityID   string    `db:"entity_id"`
	Action     string    `db:"action"`
	ActorID    string    `db:"actor_id"`
	Timestamp  time.Time `db:"ts"`
	Before     []byte    `db:"before"`
	After      []byte    `db:"after"`
}

func (r row) toDomain() domain.AuditEntry {
	return domain.AuditEntry{
		ID:         r.ID,
		SeriesID:   r.SeriesID,
		EntityType: domain.EntityType(r.EntityType),
		EntityID:   r.EntityID,
		Action:     domain.AuditAction(r.Action),
		ActorID:    r.ActorID,
		Timestamp:  r.Timestamp,
		Before:     raw(r.Before),
		After:      raw(r.After),
		Seq:        r.Seq,
	}
}

// Repo provides audit trail persistence backed by PostgreSQL.
type Repo struct {
	db  postgres.Querier
	now func() time.Time
}

// New creates a new audit repository.
func New(db postgres.Querier) *Repo {
	return &Repo{db: db, now: func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }}
}

// Append stores e, assigning its id and timestamp when empty.
// The database assigns the insertion sequence.
func (r *Repo) Append(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = r.now()
	}

	query, args, err := postgres.Builder().
		Insert(table).
		Columns(columns[1:]...).
		Values(e.ID, e.SeriesID, string(e.EntityType), e.EntityID, string(e.Action), e.ActorID,
			e.Timestamp, jsonArg(e.Before), jsonArg(e.After)).
		Suffix("RETURNING seq").
		ToSql()
	if err != nil {
		return e, fmt.Errorf("audit build insert: %w", err)
	}

	if err := postgres.QuerierFromCtx(ctx, r.db).QueryRow(ctx, query, args...).Scan(&e.Seq); err != nil {
		return e, postgres.MapError(err, "audit_entry", e.ID)
	}
	return e, nil
}

// List returns one page of the entries matching f, newest first. Entries
// sharing a timestamp are ordered by insertion sequence, newest first.
func (r *Repo) List(ctx context.Context, f domain.AuditFilter, limit, offset int) ([]domain.AuditEntry, int, error) {
	where := sq.Eq{"series_id": f.SeriesID}
	if f.EntityType != "" {
		where["entity_type"] = string(f.EntityType)
	}
	if f.EntityID != "" {
		where["entity_id"] = f.EntityID
	}

	q := postgres.QuerierFromCtx(ctx, r.db)

	countQuery, countArgs, err := postgres.Builder().Select("count(*)").From(table).Where(where).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("audit build count: %w", err)
	}
	var total int
	if err := q.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit entries: %w", err)
	}

	query, args, err := postgres.Builder().
		Select(columns...).
		From(table).
		Where(where).
		OrderBy("ts DESC", "seq DESC").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("audit build list: %w", err)
	}

	var rows []row
	if err := pgxscan.Select(ctx, q, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list audit entries: %w", err)
	}

	items := make([]domain.AuditEntry, len(rows))
	for i, rw := range rows {
		items[i] = rw.toDomain()
	}
	return items, total, nil
}

func jsonArg(m json.RawMessage) any {
	if len(m) == 0 {
		return nil
	}
	return []byte(m)
}

func raw(b []byte) json.RawMessage {
	if len(b) == 0 {
		return nil
	}
	return json.RawMessage(b)
}
