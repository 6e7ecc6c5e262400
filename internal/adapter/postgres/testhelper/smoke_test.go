package testhelper

import (
	"context"
	"testing"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

func TestSetupTestDB_Smoke(t *testing.T) {
	pool := SetupTestDB(t)

	s := SeedSeries(t, pool)

	var title string
	err := pool.QueryRow(context.Background(), `SELECT title FROM series WHERE id = $1`, s.ID).Scan(&title)
	if err != nil {
		t.Fatalf("expected series in DB, got error: %v", err)
	}
	if title != s.Title {
		t.Fatalf("expected title %q, got %q", s.Title, title)
	}

	for _, table := range domain.CollectionNames() {
		var n int
		if err := pool.QueryRow(context.Background(), `SELECT count(*) FROM `+table).Scan(&n); err != nil {
			t.Errorf("table %s missing: %v", table, err)
		}
	}
}
