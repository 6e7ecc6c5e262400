package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

// SeedDemo writes a small series through the services: two characters with a
// relationship, a location with a prop, one script with a scene and a timeline
// entry. Every write goes through validation and the audit trail.
func SeedDemo(ctx context.Context, svc *Services, title string) (*domain.Series, error) {
	if strings.TrimSpace(title) == "" {
		title = "Harbor Lights"
	}
	series, err := svc.Series.Create(ctx, domain.Series{Title: title, Genre: ptr("drama")})
	if err != nil {
		return nil, fmt.Errorf("seed series: %w", err)
	}
	sid := series.ID

	script, err := svc.Screenplay.CreateScript(ctx, sid, domain.Script{
		Title:   "Pilot",
		Authors: []string{"A. Writer"},
		Content: "EXT. HARBOR - NIGHT",
	})
	if err != nil {
		return nil, fmt.Errorf("seed script: %w", err)
	}

	mara, err := svc.Characters.Create(ctx, sid, &domain.Character{Name: "Mara", Traits: []string{"stubborn"}})
	if err != nil {
		return nil, fmt.Errorf("seed character: %w", err)
	}
	jonah, err := svc.Characters.Create(ctx, sid, &domain.Character{Name: "Jonah"})
	if err != nil {
		return nil, fmt.Errorf("seed character: %w", err)
	}

	harbor, err := svc.Locations.Create(ctx, sid, &domain.Location{Name: "Harbor", Tags: []string{"exterior"}})
	if err != nil {
		return nil, fmt.Errorf("seed location: %w", err)
	}
	lantern, err := svc.Props.Create(ctx, sid, &domain.Prop{
		Name: "Storm lantern",
		Associations: []domain.PropAssociation{
			{CharacterID: &mara.ID, LocationID: &harbor.ID, ScriptID: &script.ID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("seed prop: %w", err)
	}

	scene, err := svc.Screenplay.CreateScene(ctx, sid, domain.Scene{
		ScriptID:     script.ID,
		Heading:      "EXT. HARBOR - NIGHT",
		Beats:        []domain.Beat{{Order: 1, Description: "Mara lights the lantern."}},
		CharacterIDs: []string{mara.ID, jonah.ID},
		PropIDs:      []string{lantern.ID},
		LocationID:   &harbor.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("seed scene: %w", err)
	}

	if _, err := svc.Editor.AddRelationship(ctx, sid, mara.ID, domain.Relationship{TargetID: jonah.ID, Type: "sibling"}); err != nil {
		return nil, fmt.Errorf("seed relationship: %w", err)
	}
	for _, id := range []string{mara.ID, jonah.ID} {
		if _, err := svc.Editor.AddAppearance(ctx, sid, id, domain.Appearance{
			ScriptID:   script.ID,
			SceneRef:   fmt.Sprintf("%d", scene.SceneNumber),
			LocationID: &harbor.ID,
		}); err != nil {
			return nil, fmt.Errorf("seed appearance: %w", err)
		}
	}

	order := 1
	if _, err := svc.Timeline.Create(ctx, sid, &domain.TimelineEntry{
		Label: "The storm",
		Order: &order,
		Links: []domain.TimelineLink{{EntityType: domain.EntityTypeCharacter, EntityID: mara.ID}},
	}); err != nil {
		return nil, fmt.Errorf("seed timeline: %w", err)
	}
	if _, err := svc.WildCards.Create(ctx, sid, &domain.WildCard{Title: "Harbor legend", Tag: ptr("lore")}); err != nil {
		return nil, fmt.Errorf("seed wildcard: %w", err)
	}

	return svc.Series.Get(ctx, sid)
}

func ptr[T any](v T) *T { return &v }
