package knowledge

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/heartmarshall/storybible-backend/internal/domain"
)

type scriptLookup interface {
	GetByID(ctx context.Context, seriesID, id string) (*domain.Script, error)
}

type existenceChecker interface {
	Existing(ctx context.Context, seriesID string, ids []string) (map[string]bool, error)
}

// CharacterEditor mutates the relationships, appearances and variations
// embedded in a character. Every operation returns the whole character.
// Removing or updating a key that is not present is a no-op: nothing is
// written and no audit entry is appended.
type CharacterEditor struct {
	chars     *CRUD[*domain.Character, domain.CharacterPatch]
	scripts   scriptLookup
	locations existenceChecker
	log       *slog.Logger
}

func NewCharacterEditor(
	log *slog.Logger,
	chars *CRUD[*domain.Character, domain.CharacterPatch],
	scripts scriptLookup,
	locations existenceChecker,
) *CharacterEditor {
	return &CharacterEditor{
		chars:     chars,
		scripts:   scripts,
		locations: locations,
		log:       log.With("service", "character_editor"),
	}
}

// AddRelationship stores r, replacing any relationship to the same target.
func (e *CharacterEditor) AddRelationship(ctx context.Context, seriesID, characterID string, r domain.Relationship) (*domain.Character, error) {
	r.TargetID = strings.TrimSpace(r.TargetID)
	r.Type = strings.TrimSpace(r.Type)
	if err := ensureSeries(ctx, e.chars.series, seriesID); err != nil {
		return nil, err
	}
	if err := domain.ValidateRelationship(characterID, r); err != nil {
		return nil, err
	}
	if err := e.requireCharacter(ctx, seriesID, r.TargetID); err != nil {
		return nil, err
	}

	c, err := e.chars.mutate(ctx, seriesID, characterID, func(c *domain.Character) (bool, error) {
		c.UpsertRelationship(r)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	e.log.InfoContext(ctx, "relationship added",
		slog.String("character_id", characterID),
		slog.String("target_id", r.TargetID),
	)
	return c, nil
}

func (e *CharacterEditor) RemoveRelationship(ctx context.Context, seriesID, characterID, targetID string) (*domain.Character, error) {
	targetID = strings.TrimSpace(targetID)
	if err := ensureSeries(ctx, e.chars.series, seriesID); err != nil {
		return nil, err
	}
	return e.chars.mutate(ctx, seriesID, characterID, func(c *domain.Character) (bool, error) {
		return c.RemoveRelationship(targetID), nil
	})
}

// AddAppearance stores a, replacing any appearance with the same (ScriptID, SceneRef).
// The script and the optional location must belong to the series.
func (e *CharacterEditor) AddAppearance(ctx context.Context, seriesID, characterID string, a domain.Appearance) (*domain.Character, error) {
	a.ScriptID = strings.TrimSpace(a.ScriptID)
	a.SceneRef = strings.TrimSpace(a.SceneRef)
	if err := ensureSeries(ctx, e.chars.series, seriesID); err != nil {
		return nil, err
	}
	if err := domain.ValidateAppearance(a); err != nil {
		return nil, err
	}
	if err := e.requireScript(ctx, seriesID, a.ScriptID); err != nil {
		return nil, err
	}
	if a.LocationID != nil {
		found, err := e.locations.Existing(ctx, seriesID, []string{*a.LocationID})
		if err != nil {
			return nil, fmt.Errorf("check location: %w", err)
		}
		if !found[*a.LocationID] {
			return nil, domain.NotFoundError("location", *a.LocationID)
		}
	}

	c, err := e.chars.mutate(ctx, seriesID, characterID, func(c *domain.Character) (bool, error) {
		c.UpsertAppearance(a)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	e.log.InfoContext(ctx, "appearance added",
		slog.String("character_id", characterID),
		slog.String("script_id", a.ScriptID),
		slog.String("scene_ref", a.SceneRef),
	)
	return c, nil
}

func (e *CharacterEditor) RemoveAppearance(ctx context.Context, seriesID, characterID, scriptID, sceneRef string) (*domain.Character, error) {
	if err := ensureSeries(ctx, e.chars.series, seriesID); err != nil {
		return nil, err
	}
	key := domain.AppearanceKey{ScriptID: strings.TrimSpace(scriptID), SceneRef: strings.TrimSpace(sceneRef)}
	return e.chars.mutate(ctx, seriesID, characterID, func(c *domain.Character) (bool, error) {
		return c.RemoveAppearance(key), nil
	})
}

// AddVariation stores v, replacing any variation with the same (ScriptID, Label).
func (e *CharacterEditor) AddVariation(ctx context.Context, seriesID, characterID string, v domain.Variation) (*domain.Character, error) {
	v.ScriptID = strings.TrimSpace(v.ScriptID)
	v.Label = strings.TrimSpace(v.Label)
	if err := ensureSeries(ctx, e.chars.series, seriesID); err != nil {
		return nil, err
	}
	if err := domain.ValidateVariation(v); err != nil {
		return nil, err
	}
	if err := e.requireScript(ctx, seriesID, v.ScriptID); err != nil {
		return nil, err
	}

	c, err := e.chars.mutate(ctx, seriesID, characterID, func(c *domain.Character) (bool, error) {
		c.UpsertVariation(v)
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	e.log.InfoContext(ctx, "variation added",
		slog.String("character_id", characterID),
		slog.String("script_id", v.ScriptID),
		slog.String("label", v.Label),
	)
	return c, nil
}

// UpdateVariation patches the label and notes of the variation keyed by
// (scriptID, label). The script of a variation never changes.
func (e *CharacterEditor) UpdateVariation(ctx context.Context, seriesID, characterID, scriptID, label string, p domain.VariationPatch) (*domain.Character, error) {
	if err := ensureSeries(ctx, e.chars.series, seriesID); err != nil {
		return nil, err
	}
	key := domain.VariationKey{ScriptID: strings.TrimSpace(scriptID), Label: strings.TrimSpace(label)}
	return e.chars.mutate(ctx, seriesID, characterID, func(c *domain.Character) (bool, error) {
		return c.PatchVariation(key, p)
	})
}

func (e *CharacterEditor) RemoveVariation(ctx context.Context, seriesID, characterID, scriptID, label string) (*domain.Character, error) {
	if err := ensureSeries(ctx, e.chars.series, seriesID); err != nil {
		return nil, err
	}
	key := domain.VariationKey{ScriptID: strings.TrimSpace(scriptID), Label: strings.TrimSpace(label)}
	return e.chars.mutate(ctx, seriesID, characterID, func(c *domain.Character) (bool, error) {
		return c.RemoveVariation(key), nil
	})
}

func (e *CharacterEditor) requireCharacter(ctx context.Context, seriesID, id string) error {
	found, err := e.chars.store.Existing(ctx, seriesID, []string{id})
	if err != nil {
		return fmt.Errorf("check character: %w", err)
	}
	if !found[id] {
		return domain.NotFoundError("character", id)
	}
	return nil
}

func (e *CharacterEditor) requireScript(ctx context.Context, seriesID, id string) error {
	if _, err := e.scripts.GetByID(ctx, seriesID, id); err != nil {
		return fmt.Errorf("check script: %w", err)
	}
	return nil
}
