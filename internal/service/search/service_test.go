package search

//go:generate moq -out deps_mock_test.go -pkg search . seriesChecker searcher

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartmarshall/storybible-backend/internal/adapter/memory"
	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type fixture struct {
	store    *memory.Store
	seriesID string
	svc      *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	s, err := store.Series().Create(ctx, &domain.Series{Title: "Harbor"})
	require.NoError(t, err)

	desc := "Runs the harbor diner"
	body := "Storm season starts at the harbor"
	order := 2
	chars := memory.NewCollection(store, domain.CharacterKind)
	locs := memory.NewCollection(store, domain.LocationKind)
	props := memory.NewCollection(store, domain.PropKind)
	timeline := memory.NewCollection(store, domain.TimelineKind)
	wild := memory.NewCollection(store, domain.WildCardKind)

	mustInsert(t, chars, &domain.Character{Meta: domain.Meta{SeriesID: s.ID}, Name: "Mara", Description: &desc})
	mustInsert(t, chars, &domain.Character{Meta: domain.Meta{SeriesID: s.ID}, Name: "Ada"})
	mustInsert(t, locs, &domain.Location{Meta: domain.Meta{SeriesID: s.ID}, Name: "Harbor Diner"})
	mustInsert(t, locs, &domain.Location{Meta: domain.Meta{SeriesID: s.ID}, Name: "Lighthouse", Tags: []string{"harbor"}})
	mustInsert(t, props, &domain.Prop{Meta: domain.Meta{SeriesID: s.ID}, Name: "Harbor map"})
	mustInsert(t, timeline, &domain.TimelineEntry{Meta: domain.Meta{SeriesID: s.ID}, Label: "Ferry sinks", Order: &order})
	mustInsert(t, wild, &domain.WildCard{Meta: domain.Meta{SeriesID: s.ID}, Title: "Weather", Body: &body})

	return &fixture{
		store:    store,
		seriesID: s.ID,
		svc:      NewService(slog.Default(), store.Series(), chars, locs, props, timeline, wild),
	}
}

func mustInsert[T domain.Entity](t *testing.T, c *memory.Collection[T], v T) {
	t.Helper()
	_, err := c.Insert(context.Background(), v)
	require.NoError(t, err)
}

func titles(items []domain.SearchResult) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = string(it.Type) + ":" + it.Title
	}
	return out
}

func TestSearch_MergesAcrossTypes(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	page, err := f.svc.Search(context.Background(), f.seriesID, "HARBOR", 20, 0)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"character:Mara",
		"location:Harbor Diner",
		"location:Lighthouse",
		"prop:Harbor map",
		"wildcard:Weather",
	}, titles(page.Items))
	assert.Equal(t, 5, page.Total)
	assert.NotNil(t, page.Items[0].Character)
	assert.NotNil(t, page.Items[4].WildCard)
}

func TestSearch_EmptyQueryMatchesAll(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	page, err := f.svc.Search(context.Background(), f.seriesID, "", 3, 0)
	require.NoError(t, err)
	assert.Equal(t, 7, page.Total)
	assert.Equal(t, []string{"character:Ada", "character:Mara", "location:Harbor Diner"}, titles(page.Items))
}

func TestSearch_PaginationIsStable(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	const l = 3
	first, err := f.svc.Search(ctx, f.seriesID, "", l, 0)
	require.NoError(t, err)
	second, err := f.svc.Search(ctx, f.seriesID, "", l, l)
	require.NoError(t, err)
	both, err := f.svc.Search(ctx, f.seriesID, "", 2*l, 0)
	require.NoError(t, err)

	assert.Equal(t, titles(both.Items), append(titles(first.Items), titles(second.Items)...))
	assert.Equal(t, both.Total, first.Total)
	assert.Equal(t, both.Total, second.Total)
}

func TestSearch_PastTheEnd(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	page, err := f.svc.Search(context.Background(), f.seriesID, "harbor", 10, 50)
	require.NoError(t, err)
	assert.Equal(t, 5, page.Total)
	assert.NotNil(t, page.Items)
	assert.Empty(t, page.Items)
}

func TestSearch_SeriesNotFound(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.Search(context.Background(), "missing", "x", 10, 0)
	assert.Equal(t, domain.CodeNotFound, domain.CodeOf(err))
}

func TestSearch_FailureAbortsWholeSearch(t *testing.T) {
	t.Parallel()

	boom := errors.New("index offline")
	ok := func(ctx context.Context, seriesID, query string) ([]*domain.Character, error) {
		return []*domain.Character{{Meta: domain.Meta{ID: "c1"}, Name: "A"}}, nil
	}
	none := func() *searcherMock[*domain.Location] {
		return &searcherMock[*domain.Location]{
			SearchFunc: func(ctx context.Context, seriesID, query string) ([]*domain.Location, error) { return nil, nil },
		}
	}
	svc := NewService(slog.Default(),
		&seriesCheckerMock{ExistsFunc: func(ctx context.Context, id string) (bool, error) { return true, nil }},
		&searcherMock[*domain.Character]{SearchFunc: ok},
		none(),
		&searcherMock[*domain.Prop]{SearchFunc: func(ctx context.Context, seriesID, query string) ([]*domain.Prop, error) { return nil, nil }},
		&searcherMock[*domain.TimelineEntry]{SearchFunc: func(ctx context.Context, seriesID, query string) ([]*domain.TimelineEntry, error) {
			return nil, boom
		}},
		&searcherMock[*domain.WildCard]{SearchFunc: func(ctx context.Context, seriesID, query string) ([]*domain.WildCard, error) { return nil, nil }},
	)

	page, err := svc.Search(context.Background(), "s1", "a", 10, 0)
	require.ErrorIs(t, err, boom)
	assert.Nil(t, page.Items)
}
