package domain

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Kind descriptors for every generic knowledge-base collection.
var (
	CharacterKind = Kind[*Character]{
		Type:       EntityTypeCharacter,
		Collection: "characters",
		New:        func() *Character { return &Character{} },
		SortKey:    func(c *Character) string { return NormalizeText(c.Name) },
		SearchText: func(c *Character) string {
			return SearchText(c.Name, deref(c.Description), strings.Join(c.Traits, "\n"))
		},
		Normalize: normalizeCharacter,
		Validate:  validateCharacter,
	}

	LocationKind = Kind[*Location]{
		Type:       EntityTypeLocation,
		Collection: "locations",
		New:        func() *Location { return &Location{} },
		SortKey:    func(l *Location) string { return NormalizeText(l.Name) },
		SearchText: func(l *Location) string {
			return SearchText(l.Name, deref(l.Description), strings.Join(l.Tags, "\n"))
		},
		Normalize: func(l *Location) {
			l.Name = trimmed(l.Name)
			l.Tags = emptyIfNil(l.Tags)
			l.Appearances = emptyIfNil(l.Appearances)
			l.Images = emptyIfNil(l.Images)
			l.AssociatedCharacterIDs = emptyIfNil(l.AssociatedCharacterIDs)
			l.PropIDs = emptyIfNil(l.PropIDs)
		},
		Validate: func(l *Location) error { return requireName("name", l.Name) },
	}

	PropKind = Kind[*Prop]{
		Type:       EntityTypeProp,
		Collection: "props",
		New:        func() *Prop { return &Prop{} },
		SortKey:    func(p *Prop) string { return NormalizeText(p.Name) },
		SearchText: func(p *Prop) string { return SearchText(p.Name, deref(p.Description)) },
		Normalize: func(p *Prop) {
			p.Name = trimmed(p.Name)
			p.Associations = emptyIfNil(p.Associations)
		},
		Validate: func(p *Prop) error { return requireName("name", p.Name) },
	}

	TimelineKind = Kind[*TimelineEntry]{
		Type:       EntityTypeTimeline,
		Collection: "timeline_entries",
		New:        func() *TimelineEntry { return &TimelineEntry{} },
		SortKey:    timelineSortKey,
		SearchText: func(e *TimelineEntry) string { return SearchText(e.Label, deref(e.Description)) },
		Normalize: func(e *TimelineEntry) {
			e.Label = trimmed(e.Label)
			e.Links = emptyIfNil(e.Links)
		},
		Validate: func(e *TimelineEntry) error { return requireName("label", e.Label) },
	}

	WildCardKind = Kind[*WildCard]{
		Type:       EntityTypeWildCard,
		Collection: "wildcards",
		New:        func() *WildCard { return &WildCard{} },
		SortKey:    func(w *WildCard) string { return NormalizeText(w.Title) },
		SearchText: func(w *WildCard) string { return SearchText(w.Title, deref(w.Body)) },
		Normalize:  func(w *WildCard) { w.Title = trimmed(w.Title) },
		Validate:   func(w *WildCard) error { return requireName("title", w.Title) },
	}

	ThemeKind = Kind[*Theme]{
		Type:       EntityTypeTheme,
		Collection: "themes",
		New:        func() *Theme { return &Theme{} },
		SortKey:    func(t *Theme) string { return NormalizeText(t.Name) },
		SearchText: func(t *Theme) string { return SearchText(t.Name, deref(t.Description)) },
		Normalize: func(t *Theme) {
			t.Name = trimmed(t.Name)
			t.RelatedCharacters = emptyIfNil(t.RelatedCharacters)
			t.Evolution = emptyIfNil(t.Evolution)
			t.Appearances = emptyIfNil(t.Appearances)
		},
		Validate: func(t *Theme) error { return requireName("name", t.Name) },
	}

	StoryArcKind = Kind[*StoryArc]{
		Type:       EntityTypeStoryArc,
		Collection: "story_arcs",
		New:        func() *StoryArc { return &StoryArc{} },
		SortKey:    func(a *StoryArc) string { return NormalizeText(a.Name) },
		SearchText: func(a *StoryArc) string { return SearchText(a.Name, deref(a.Description)) },
		Normalize:  normalizeStoryArc,
		Validate:   validateStoryArc,
	}

	CanvasNodeKind = Kind[*CanvasNode]{
		Type:       EntityTypeCanvasNode,
		Collection: "canvas_nodes",
		New:        func() *CanvasNode { return &CanvasNode{} },
		SortKey:    func(*CanvasNode) string { return "" },
		SearchText: func(n *CanvasNode) string { return SearchText(n.Content) },
		Validate:   validateCanvasNode,
	}

	CanvasEdgeKind = Kind[*CanvasEdge]{
		Type:       EntityTypeCanvasEdge,
		Collection: "canvas_edges",
		New:        func() *CanvasEdge { return &CanvasEdge{} },
		SortKey:    func(*CanvasEdge) string { return "" },
		SearchText: func(e *CanvasEdge) string { return SearchText(deref(e.Label)) },
		Normalize: func(e *CanvasEdge) {
			e.SourceID = trimmed(e.SourceID)
			e.TargetID = trimmed(e.TargetID)
		},
		Validate: validateCanvasEdge,
	}
)

// CollectionNames lists the tables/buckets of all generic collections.
func CollectionNames() []string {
	return []string{
		CharacterKind.Collection, LocationKind.Collection, PropKind.Collection,
		TimelineKind.Collection, WildCardKind.Collection, ThemeKind.Collection,
		StoryArcKind.Collection, CanvasNodeKind.Collection, CanvasEdgeKind.Collection,
	}
}

func requireName(field, v string) error {
	if trimmed(v) == "" {
		return NewValidationError(field, "required")
	}
	return nil
}

func normalizeCharacter(c *Character) {
	c.Name = trimmed(c.Name)
	c.Traits = emptyIfNil(c.Traits)
	c.Relationships = dedupeBy(emptyIfNil(c.Relationships), relationshipTarget)
	c.Appearances = dedupeBy(emptyIfNil(c.Appearances), appearanceKey)
	c.Variations = dedupeBy(emptyIfNil(c.Variations), variationKey)
}

func validateCharacter(c *Character) error {
	var errs []FieldError
	if c.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	for i, r := range c.Relationships {
		if err := ValidateRelationship(c.ID, r); err != nil {
			errs = append(errs, prefixed(fmt.Sprintf("relationships[%d]", i), err)...)
		}
	}
	for i, a := range c.Appearances {
		if err := ValidateAppearance(a); err != nil {
			errs = append(errs, prefixed(fmt.Sprintf("appearances[%d]", i), err)...)
		}
	}
	for i, v := range c.Variations {
		if err := ValidateVariation(v); err != nil {
			errs = append(errs, prefixed(fmt.Sprintf("variations[%d]", i), err)...)
		}
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

// ValidateRelationship checks the required fields of r. ownerID may be empty
// for a character that is not stored yet.
func ValidateRelationship(ownerID string, r Relationship) error {
	var errs []FieldError
	if trimmed(r.TargetID) == "" {
		errs = append(errs, FieldError{Field: "targetId", Message: "required"})
	} else if ownerID != "" && r.TargetID == ownerID {
		errs = append(errs, FieldError{Field: "targetId", Message: "must not reference the character itself"})
	}
	if trimmed(r.Type) == "" {
		errs = append(errs, FieldError{Field: "type", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

func ValidateAppearance(a Appearance) error {
	var errs []FieldError
	if trimmed(a.ScriptID) == "" {
		errs = append(errs, FieldError{Field: "scriptId", Message: "required"})
	}
	if trimmed(a.SceneRef) == "" {
		errs = append(errs, FieldError{Field: "sceneRef", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

func ValidateVariation(v Variation) error {
	var errs []FieldError
	if trimmed(v.ScriptID) == "" {
		errs = append(errs, FieldError{Field: "scriptId", Message: "required"})
	}
	if trimmed(v.Label) == "" {
		errs = append(errs, FieldError{Field: "label", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

func prefixed(prefix string, err error) []FieldError {
	ve, ok := err.(*ValidationError)
	if !ok {
		return []FieldError{{Field: prefix, Message: err.Error()}}
	}
	out := make([]FieldError, len(ve.Errors))
	for i, fe := range ve.Errors {
		out[i] = FieldError{Field: prefix + "." + fe.Field, Message: fe.Message}
	}
	return out
}

// timelineSortKey orders entries with an Order first (ascending, negative
// values included), then unordered entries, each group by label.
func timelineSortKey(e *TimelineEntry) string {
	label := NormalizeText(e.Label)
	if e.Order == nil {
		return "1|" + label
	}
	biased := uint64(int64(*e.Order)) ^ (1 << 63)
	return fmt.Sprintf("0|%020d|%s", biased, label)
}

func normalizeStoryArc(a *StoryArc) {
	a.Name = trimmed(a.Name)
	if a.Status == "" {
		a.Status = ArcStatusPlanned
	}
	a.KeyBeats = emptyIfNil(a.KeyBeats)
	for i := range a.KeyBeats {
		if a.KeyBeats[i].ID == "" {
			a.KeyBeats[i].ID = uuid.New().String()
		}
	}
	a.Characters = emptyIfNil(a.Characters)
	a.ThemeIDs = emptyIfNil(a.ThemeIDs)
}

func validateStoryArc(a *StoryArc) error {
	var errs []FieldError
	if a.Name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "required"})
	}
	if !a.Status.IsValid() {
		errs = append(errs, FieldError{Field: "status", Message: "must be planned, in_progress, completed or abandoned"})
	}
	seen := make(map[string]bool, len(a.KeyBeats))
	for i, b := range a.KeyBeats {
		if seen[b.ID] {
			errs = append(errs, FieldError{Field: fmt.Sprintf("keyBeats[%d].id", i), Message: "duplicate"})
		}
		seen[b.ID] = true
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

func validateCanvasNode(n *CanvasNode) error {
	var errs []FieldError
	if n.Width < 0 {
		errs = append(errs, FieldError{Field: "width", Message: "must not be negative"})
	}
	if n.Height < 0 {
		errs = append(errs, FieldError{Field: "height", Message: "must not be negative"})
	}
	if n.EntityType != nil && !n.EntityType.IsValid() {
		errs = append(errs, FieldError{Field: "entityType", Message: "unknown entity type"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

func validateCanvasEdge(e *CanvasEdge) error {
	var errs []FieldError
	if e.SourceID == "" {
		errs = append(errs, FieldError{Field: "sourceId", Message: "required"})
	}
	if e.TargetID == "" {
		errs = append(errs, FieldError{Field: "targetId", Message: "required"})
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}
