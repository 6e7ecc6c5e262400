package testhelper

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/heartmarshall/storybible-backend/internal/adapter/postgres/script"
	"github.com/heartmarshall/storybible-backend/internal/adapter/postgres/series"
	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedSeries creates a series with a unique title.
func SeedSeries(t *testing.T, pool *pgxpool.Pool) *domain.Series {
	t.Helper()

	s, err := series.New(pool).Create(context.Background(), &domain.Series{
		Title: "Series " + uniqueSuffix(),
	})
	if err != nil {
		t.Fatalf("testhelper: SeedSeries: %v", err)
	}
	return s
}

// SeedScript creates a script with a unique title under seriesID.
func SeedScript(t *testing.T, pool *pgxpool.Pool, seriesID string) *domain.Script {
	t.Helper()

	s, err := script.New(pool).Create(context.Background(), &domain.Script{
		Meta:    domain.Meta{SeriesID: seriesID},
		Title:   "Episode " + uniqueSuffix(),
		Authors: []string{"writer"},
		Content: "FADE IN:",
	})
	if err != nil {
		t.Fatalf("testhelper: SeedScript: %v", err)
	}
	return s
}
