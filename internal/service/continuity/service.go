// Package continuity rebuilds the continuity graph of a series from the
// documents it stores. Nothing is cached: every call reads the current state.
package continuity

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

type lister[T any] interface {
	All(ctx context.Context, seriesID string) ([]T, error)
}

type scriptLister interface {
	AllSummaries(ctx context.Context, seriesID string) ([]domain.ScriptSummary, error)
}

// Builder assembles graphs.
type Builder struct {
	series     seriesChecker
	characters lister[*domain.Character]
	locations  lister[*domain.Location]
	props      lister[*domain.Prop]
	scripts    scriptLister
	timeline   lister[*domain.TimelineEntry]
	log        *slog.Logger
}

func NewBuilder(
	log *slog.Logger,
	series seriesChecker,
	characters lister[*domain.Character],
	locations lister[*domain.Location],
	props lister[*domain.Prop],
	scripts scriptLister,
	timeline lister[*domain.TimelineEntry],
) *Builder {
	return &Builder{
		series:     series,
		characters: characters,
		locations:  locations,
		props:      props,
		scripts:    scripts,
		timeline:   timeline,
		log:        log.With("service", "continuity"),
	}
}

type snapshot struct {
	characters []*domain.Character
	locations  []*domain.Location
	props      []*domain.Prop
	scripts    []domain.ScriptSummary
	timeline   []*domain.TimelineEntry
}

// Build returns the graph of seriesID. Any failed read fails the whole call.
func (b *Builder) Build(ctx context.Context, seriesID string) (domain.Graph, error) {
	ok, err := b.series.Exists(ctx, seriesID)
	if err != nil {
		return domain.Graph{}, fmt.Errorf("check series: %w", err)
	}
	if !ok {
		return domain.Graph{}, domain.NotFoundError("series", seriesID)
	}

	snap, err := b.fetch(ctx, seriesID)
	if err != nil {
		return domain.Graph{}, err
	}

	g := domain.Graph{Nodes: nodes(snap), Edges: edges(snap)}
	b.log.DebugContext(ctx, "continuity graph built",
		slog.String("series_id", seriesID),
		slog.Int("nodes", len(g.Nodes)),
		slog.Int("edges", len(g.Edges)),
	)
	return g, nil
}

func (b *Builder) fetch(ctx context.Context, seriesID string) (snapshot, error) {
	var snap snapshot
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		snap.characters, err = b.characters.All(gctx, seriesID)
		return wrap("characters", err)
	})
	g.Go(func() error {
		var err error
		snap.locations, err = b.locations.All(gctx, seriesID)
		return wrap("locations", err)
	})
	g.Go(func() error {
		var err error
		snap.props, err = b.props.All(gctx, seriesID)
		return wrap("props", err)
	})
	g.Go(func() error {
		var err error
		snap.scripts, err = b.scripts.AllSummaries(gctx, seriesID)
		return wrap("scripts", err)
	})
	g.Go(func() error {
		var err error
		snap.timeline, err = b.timeline.All(gctx, seriesID)
		return wrap("timeline", err)
	})

	if err := g.Wait(); err != nil {
		return snapshot{}, err
	}
	return snap, nil
}

func wrap(what string, err error) error {
	if err != nil {
		return fmt.Errorf("fetch %s: %w", what, err)
	}
	return nil
}

func nodes(s snapshot) []domain.GraphNode {
	out := make([]domain.GraphNode, 0,
		len(s.characters)+len(s.locations)+len(s.props)+len(s.scripts)+len(s.timeline))
	for _, c := range s.characters {
		out = append(out, domain.GraphNode{Kind: domain.NodeKindCharacter, ID: c.ID, Character: c})
	}
	for _, l := range s.locations {
		out = append(out, domain.GraphNode{Kind: domain.NodeKindLocation, ID: l.ID, Location: l})
	}
	for _, p := range s.props {
		out = append(out, domain.GraphNode{Kind: domain.NodeKindProp, ID: p.ID, Prop: p})
	}
	for i := range s.scripts {
		sc := s.scripts[i]
		out = append(out, domain.GraphNode{Kind: domain.NodeKindScript, ID: sc.ID, Script: &sc})
	}
	for _, e := range s.timeline {
		out = append(out, domain.GraphNode{Kind: domain.NodeKindTimeline, ID: e.ID, Timeline: e})
	}
	return out
}

// edges derives relationship, appearance, location-of and prop-in-scene
// edges. Duplicates are kept.
func edges(s snapshot) []domain.GraphEdge {
	out := []domain.GraphEdge{}
	for _, c := range s.characters {
		for _, r := range c.Relationships {
			meta := map[string]string{"type": r.Type}
			if r.Note != nil {
				meta["note"] = *r.Note
			}
			out = append(out, domain.GraphEdge{Type: domain.EdgeTypeRelationship, From: c.ID, To: r.TargetID, Metadata: meta})
		}
		for _, a := range c.Appearances {
			meta := map[string]string{"sceneRef": a.SceneRef}
			if a.LocationID != nil {
				meta["locationId"] = *a.LocationID
			}
			out = append(out, domain.GraphEdge{Type: domain.EdgeTypeAppearance, From: c.ID, To: a.ScriptID, Metadata: meta})
			if a.LocationID != nil {
				out = append(out, domain.GraphEdge{
					Type:     domain.EdgeTypeLocationOf,
					From:     *a.LocationID,
					To:       a.ScriptID,
					Metadata: map[string]string{"sceneRef": a.SceneRef},
				})
			}
		}
	}
	for _, p := range s.props {
		for _, as := range p.Associations {
			if as.ScriptID == nil {
				continue
			}
			meta := map[string]string{}
			if as.Note != nil {
				meta["note"] = *as.Note
			}
			out = append(out, domain.GraphEdge{Type: domain.EdgeTypePropInScene, From: p.ID, To: *as.ScriptID, Metadata: meta})
		}
	}
	return out
}
