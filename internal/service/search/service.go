// Package search runs one text query across the knowledge-base collections
// of a series and pages over the merged result.
package search

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type seriesChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type searcher[T any] interface {
	Search(ctx context.Context, seriesID, query string) ([]T, error)
}

type Service struct {
	series     seriesChecker
	characters searcher[*domain.Character]
	locations  searcher[*domain.Location]
	props      searcher[*domain.Prop]
	timeline   searcher[*domain.TimelineEntry]
	wildcards  searcher[*domain.WildCard]
	log        *slog.Logger
}

func NewService(
	log *slog.Logger,
	series seriesChecker,
	characters searcher[*domain.Character],
	locations searcher[*domain.Location],
	props searcher[*domain.Prop],
	timeline searcher[*domain.TimelineEntry],
	wildcards searcher[*domain.WildCard],
) *Service {
	return &Service{
		series:     series,
		characters: characters,
		locations:  locations,
		props:      props,
		timeline:   timeline,
		wildcards:  wildcards,
		log:        log.With("service", "search"),
	}
}

// Search matches query case-insensitively against names, labels, titles and
// descriptions. An empty query matches everything. Results are merged in a
// fixed type order (character, location, prop, timeline, wildcard), each type
// in its list order, and the page is cut from the merged list.
func (s *Service) Search(ctx context.Context, seriesID, query string, limit, offset int) (domain.Page[domain.SearchResult], error) {
	limit, offset = domain.NormalizePage(limit, offset)

	ok, err := s.series.Exists(ctx, seriesID)
	if err != nil {
		return domain.Page[domain.SearchResult]{}, fmt.Errorf("check series: %w", err)
	}
	if !ok {
		return domain.Page[domain.SearchResult]{}, domain.NotFoundError("series", seriesID)
	}

	var buckets [5][]domain.SearchResult
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		found, err := s.characters.Search(gctx, seriesID, query)
		buckets[0] = collect(found, func(c *domain.Character) domain.SearchResult {
			return domain.SearchResult{Type: domain.SearchResultCharacter, ID: c.ID, Title: c.Name, Character: c}
		})
		return wrap("characters", err)
	})
	g.Go(func() error {
		found, err := s.locations.Search(gctx, seriesID, query)
		buckets[1] = collect(found, func(l *domain.Location) domain.SearchResult {
			return domain.SearchResult{Type: domain.SearchResultLocation, ID: l.ID, Title: l.Name, Location: l}
		})
		return wrap("locations", err)
	})
	g.Go(func() error {
		found, err := s.props.Search(gctx, seriesID, query)
		buckets[2] = collect(found, func(p *domain.Prop) domain.SearchResult {
			return domain.SearchResult{Type: domain.SearchResultProp, ID: p.ID, Title: p.Name, Prop: p}
		})
		return wrap("props", err)
	})
	g.Go(func() error {
		found, err := s.timeline.Search(gctx, seriesID, query)
		buckets[3] = collect(found, func(e *domain.TimelineEntry) domain.SearchResult {
			return domain.SearchResult{Type: domain.SearchResultTimeline, ID: e.ID, Title: e.Label, Timeline: e}
		})
		return wrap("timeline", err)
	})
	g.Go(func() error {
		found, err := s.wildcards.Search(gctx, seriesID, query)
		buckets[4] = collect(found, func(w *domain.WildCard) domain.SearchResult {
			return domain.SearchResult{Type: domain.SearchResultWildCard, ID: w.ID, Title: w.Title, WildCard: w}
		})
		return wrap("wildcards", err)
	})

	if err := g.Wait(); err != nil {
		return domain.Page[domain.SearchResult]{}, err
	}

	var merged []domain.SearchResult
	for _, b := range buckets {
		merged = append(merged, b...)
	}

	s.log.DebugContext(ctx, "knowledge base searched",
		slog.String("series_id", seriesID),
		slog.Int("matches", len(merged)),
	)
	return domain.Paginate(merged, limit, offset), nil
}

func collect[T any](items []T, fn func(T) domain.SearchResult) []domain.SearchResult {
	out := make([]domain.SearchResult, len(items))
	for i, v := range items {
		out[i] = fn(v)
	}
	return out
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("search %s: %w", what, err)
	}
	return nil
}
