package document

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v2"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Collection[*domain.Character]) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("pgxmock.NewPool: %v", err)
	}
	t.Cleanup(mock.Close)
	return mock, New(mock, domain.CharacterKind)
}

func expectationsMet(t *testing.T, mock pgxmock.PgxPoolIface) {
	t.Helper()
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unfulfilled expectations: %v", err)
	}
}

func anyArgs(n int) []any {
	args := make([]any, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}

func TestCollection_Insert(t *testing.T) {
	t.Parallel()
	mock, coll := newMock(t)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO characters (id,series_id,revision,sort_key,search_text,doc,created_at,updated_at)")).
		WithArgs(anyArgs(8)...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	c := &domain.Character{Meta: domain.Meta{SeriesID: "s1"}, Name: "Anna"}
	got, err := coll.Insert(context.Background(), c)
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if got.ID == "" {
		t.Error("Insert did not assign an id")
	}
	if got.Revision != 1 {
		t.Errorf("Revision = %d, want 1", got.Revision)
	}
	if got.CreatedAt.IsZero() || !got.CreatedAt.Equal(got.UpdatedAt) {
		t.Errorf("timestamps = %v / %v", got.CreatedAt, got.UpdatedAt)
	}
	expectationsMet(t, mock)
}

func TestCollection_Get(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()

	tests := []struct {
		name    string
		setup   func(mock pgxmock.PgxPoolIface)
		wantErr error
		check   func(t *testing.T, c *domain.Character)
	}{
		{
			name: "found",
			setup: func(mock pgxmock.PgxPoolIface) {
				rows := pgxmock.NewRows(selectColumns).
					AddRow("c1", "s1", int64(3), []byte(`{"id":"stale","name":"Anna","traits":["brave"]}`), now, now)
				mock.ExpectQuery(`SELECT id, series_id, revision, doc, created_at, updated_at FROM characters WHERE`).
					WithArgs("s1", "c1").
					WillReturnRows(rows)
			},
			check: func(t *testing.T, c *domain.Character) {
				if c.ID != "c1" || c.SeriesID != "s1" || c.Revision != 3 {
					t.Errorf("meta = %+v, want columns to win over the document body", c.Meta)
				}
				if c.Name != "Anna" || len(c.Traits) != 1 {
					t.Errorf("document = %+v", c)
				}
			},
		},
		{
			name: "not found",
			setup: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT`).
					WithArgs("s1", "c1").
					WillReturnError(pgx.ErrNoRows)
			},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock, coll := newMock(t)
			tt.setup(mock)

			got, err := coll.Get(context.Background(), "s1", "c1")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Get err = %v, want %v", err, tt.wantErr)
				}
			} else {
				if err != nil {
					t.Fatalf("Get: %v", err)
				}
				tt.check(t, got)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestCollection_Update_StaleRevision(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		exists  bool
		wantErr error
	}{
		{"concurrent writer", true, domain.ErrConflict},
		{"deleted meanwhile", false, domain.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mock, coll := newMock(t)

			mock.ExpectExec(`UPDATE characters SET revision = \$1`).
				WithArgs(anyArgs(8)...).
				WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS ( SELECT 1 FROM characters")).
				WithArgs("c1", "s1").
				WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(tt.exists))

			c := &domain.Character{Meta: domain.Meta{ID: "c1", SeriesID: "s1", Revision: 4}, Name: "Anna"}
			_, err := coll.Update(context.Background(), c)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Update err = %v, want %v", err, tt.wantErr)
			}
			if c.Revision != 4 {
				t.Errorf("Revision = %d, want it restored to 4", c.Revision)
			}
			expectationsMet(t, mock)
		})
	}
}

func TestCollection_Update_BumpsRevision(t *testing.T) {
	t.Parallel()
	mock, coll := newMock(t)

	mock.ExpectExec(`UPDATE characters SET`).
		WithArgs(anyArgs(8)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	c := &domain.Character{Meta: domain.Meta{ID: "c1", SeriesID: "s1", Revision: 4}, Name: "Anna"}
	got, err := coll.Update(context.Background(), c)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Revision != 5 {
		t.Errorf("Revision = %d, want 5", got.Revision)
	}
	expectationsMet(t, mock)
}

func TestCollection_Delete_Missing(t *testing.T) {
	t.Parallel()
	mock, coll := newMock(t)

	mock.ExpectExec(`DELETE FROM characters WHERE`).
		WithArgs("c1", "s1").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))

	if err := coll.Delete(context.Background(), "s1", "c1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
	expectationsMet(t, mock)
}

func TestCollection_List(t *testing.T) {
	t.Parallel()
	mock, coll := newMock(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT count(*) FROM characters WHERE series_id = $1")).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(regexp.QuoteMeta(`ORDER BY sort_key COLLATE "C", created_at, id LIMIT 2 OFFSET 1`)).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows(selectColumns).
			AddRow("c2", "s1", int64(1), []byte(`{"name":"Bo"}`), now, now).
			AddRow("c3", "s1", int64(1), []byte(`{"name":"Cy"}`), now, now))

	items, total, err := coll.List(context.Background(), "s1", 2, 1)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(items) != 2 || items[0].ID != "c2" || items[1].Name != "Cy" {
		t.Errorf("items = %+v", items)
	}
	expectationsMet(t, mock)
}

func TestCollection_Search_EscapesPattern(t *testing.T) {
	t.Parallel()
	mock, coll := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("search_text LIKE $2")).
		WithArgs("s1", `%100\%\_\_%`).
		WillReturnRows(pgxmock.NewRows(selectColumns))

	items, err := coll.Search(context.Background(), "s1", "  100%__ ")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("items = %v, want none", items)
	}
	expectationsMet(t, mock)
}

func TestCollection_Search_EmptyQueryHasNoFilter(t *testing.T) {
	t.Parallel()
	mock, coll := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM characters WHERE series_id = $1 ORDER BY`)).
		WithArgs("s1").
		WillReturnRows(pgxmock.NewRows(selectColumns))

	if _, err := coll.Search(context.Background(), "s1", ""); err != nil {
		t.Fatalf("Search: %v", err)
	}
	expectationsMet(t, mock)
}

func TestCollection_Existing(t *testing.T) {
	t.Parallel()
	mock, coll := newMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id FROM characters WHERE id IN ($1,$2) AND series_id = $3")).
		WithArgs("a", "b", "s1").
		WillReturnRows(pgxmock.NewRows([]string{"id"}).AddRow("a"))

	found, err := coll.Existing(context.Background(), "s1", []string{"a", "b"})
	if err != nil {
		t.Fatalf("Existing: %v", err)
	}
	if !found["a"] || found["b"] {
		t.Errorf("found = %v", found)
	}
	expectationsMet(t, mock)
}
