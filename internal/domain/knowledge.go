package domain

// Relationship links a character to another character of the same series.
// Unique by TargetID within one character.
type Relationship struct {
	TargetID string  `json:"targetId"`
	Type     string  `json:"type"`
	Note     *string `json:"note,omitempty"`
}

// Variation is a per-script version of a character (costume, age, alias).
// Unique by (ScriptID, Label).
type Variation struct {
	ScriptID string  `json:"scriptId"`
	Label    string  `json:"label"`
	Notes    *string `json:"notes,omitempty"`
}

// VariationKey is the composite key of a Variation.
type VariationKey struct {
	ScriptID string
	Label    string
}

func (v Variation) Key() VariationKey { return VariationKey{ScriptID: v.ScriptID, Label: v.Label} }

// VariationPatch updates the label and notes of a variation. ScriptID is fixed.
type VariationPatch struct {
	Label Optional[string] `json:"label,omitzero"`
	Notes Optional[string] `json:"notes,omitzero"`
}

// Appearance places a character in a scene of a script. Unique by (ScriptID, SceneRef).
type Appearance struct {
	ScriptID   string  `json:"scriptId"`
	SceneRef   string  `json:"sceneRef"`
	LocationID *string `json:"locationId,omitempty"`
	Notes      *string `json:"notes,omitempty"`
}

// AppearanceKey is the composite key of an Appearance.
type AppearanceKey struct {
	ScriptID string
	SceneRef string
}

func (a Appearance) Key() AppearanceKey {
	return AppearanceKey{ScriptID: a.ScriptID, SceneRef: a.SceneRef}
}

// Character is a person of the story with embedded relationships, variations and appearances.
type Character struct {
	Meta
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	Traits        []string       `json:"traits"`
	Relationships []Relationship `json:"relationships"`
	Variations    []Variation    `json:"variations"`
	Appearances   []Appearance   `json:"appearances"`
}

// CharacterPatch updates the scalar fields of a character. Embedded records
// change through the character editor only.
type CharacterPatch struct {
	Name        Optional[string]   `json:"name,omitzero"`
	Description Optional[string]   `json:"description,omitzero"`
	Traits      Optional[[]string] `json:"traits,omitzero"`
}

func (p CharacterPatch) ApplyTo(c *Character) error {
	if fe := requiredString("name", p.Name, &c.Name); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Description.ApplyToPtr(&c.Description)
	p.Traits.ApplyTo(&c.Traits)
	return nil
}

func relationshipTarget(r Relationship) string { return r.TargetID }
func appearanceKey(a Appearance) AppearanceKey { return a.Key() }
func variationKey(v Variation) VariationKey    { return v.Key() }

// UpsertRelationship replaces by TargetID or appends.
func (c *Character) UpsertRelationship(r Relationship) {
	c.Relationships = UpsertBy(c.Relationships, r, relationshipTarget)
}

// RemoveRelationship reports whether a relationship with targetID existed.
func (c *Character) RemoveRelationship(targetID string) bool {
	var removed bool
	c.Relationships, removed = RemoveBy(c.Relationships, targetID, relationshipTarget)
	return removed
}

// UpsertAppearance replaces by (ScriptID, SceneRef) or appends.
func (c *Character) UpsertAppearance(a Appearance) {
	c.Appearances = UpsertBy(c.Appearances, a, appearanceKey)
}

func (c *Character) RemoveAppearance(k AppearanceKey) bool {
	var removed bool
	c.Appearances, removed = RemoveBy(c.Appearances, k, appearanceKey)
	return removed
}

// UpsertVariation replaces by (ScriptID, Label) or appends.
func (c *Character) UpsertVariation(v Variation) {
	c.Variations = UpsertBy(c.Variations, v, variationKey)
}

func (c *Character) RemoveVariation(k VariationKey) bool {
	var removed bool
	c.Variations, removed = RemoveBy(c.Variations, k, variationKey)
	return removed
}

// PatchVariation applies p to the variation keyed by k. It reports false when
// no such variation exists. When the new label collides with another variation
// of the same script the two collapse into the patched record.
func (c *Character) PatchVariation(k VariationKey, p VariationPatch) (bool, error) {
	i := IndexBy(c.Variations, k, variationKey)
	if i < 0 {
		return false, nil
	}
	v := c.Variations[i]
	if fe := requiredString("label", p.Label, &v.Label); fe != nil {
		return false, NewValidationErrors([]FieldError{*fe})
	}
	p.Notes.ApplyToPtr(&v.Notes)

	rest := make([]Variation, 0, len(c.Variations))
	for j, other := range c.Variations {
		if j == i {
			rest = append(rest, v)
			continue
		}
		if other.Key() == v.Key() {
			continue
		}
		rest = append(rest, other)
	}
	c.Variations = rest
	return true, nil
}

// LocationAppearance places a location in a scene of a script.
type LocationAppearance struct {
	ScriptID string  `json:"scriptId"`
	SceneRef string  `json:"sceneRef"`
	Notes    *string `json:"notes,omitempty"`
}

// Location is a place of the story. Images holds blob keys.
type Location struct {
	Meta
	Name                   string               `json:"name"`
	Description            *string              `json:"description,omitempty"`
	Tags                   []string             `json:"tags"`
	Appearances            []LocationAppearance `json:"appearances"`
	Images                 []string             `json:"images"`
	AssociatedCharacterIDs []string             `json:"associatedCharacterIds"`
	PropIDs                []string             `json:"propIds"`
}

// LocationPatch updates a location. Images change through the asset service.
type LocationPatch struct {
	Name                   Optional[string]               `json:"name,omitzero"`
	Description            Optional[string]               `json:"description,omitzero"`
	Tags                   Optional[[]string]             `json:"tags,omitzero"`
	Appearances            Optional[[]LocationAppearance] `json:"appearances,omitzero"`
	AssociatedCharacterIDs Optional[[]string]             `json:"associatedCharacterIds,omitzero"`
	PropIDs                Optional[[]string]             `json:"propIds,omitzero"`
}

func (p LocationPatch) ApplyTo(l *Location) error {
	if fe := requiredString("name", p.Name, &l.Name); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Description.ApplyToPtr(&l.Description)
	p.Tags.ApplyTo(&l.Tags)
	p.Appearances.ApplyTo(&l.Appearances)
	p.AssociatedCharacterIDs.ApplyTo(&l.AssociatedCharacterIDs)
	p.PropIDs.ApplyTo(&l.PropIDs)
	return nil
}

// PropAssociation ties a prop to a character, a location and/or a script.
type PropAssociation struct {
	CharacterID *string `json:"characterId,omitempty"`
	LocationID  *string `json:"locationId,omitempty"`
	ScriptID    *string `json:"scriptId,omitempty"`
	Note        *string `json:"note,omitempty"`
}

// Prop is an object of the story.
type Prop struct {
	Meta
	Name         string            `json:"name"`
	Description  *string           `json:"description,omitempty"`
	Associations []PropAssociation `json:"associations"`
}

type PropPatch struct {
	Name         Optional[string]            `json:"name,omitzero"`
	Description  Optional[string]            `json:"description,omitzero"`
	Associations Optional[[]PropAssociation] `json:"associations,omitzero"`
}

func (p PropPatch) ApplyTo(pr *Prop) error {
	if fe := requiredString("name", p.Name, &pr.Name); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Description.ApplyToPtr(&pr.Description)
	p.Associations.ApplyTo(&pr.Associations)
	return nil
}

// TimelineLink references another document by a loose (type, id) pair. Never checked.
type TimelineLink struct {
	EntityType EntityType `json:"entityType"`
	EntityID   string     `json:"entityId"`
}

// TimelineEntry is a point on the story's timeline. Timestamp is in-story time.
type TimelineEntry struct {
	Meta
	Label       string         `json:"label"`
	Description *string        `json:"description,omitempty"`
	Order       *int           `json:"order,omitempty"`
	Timestamp   *string        `json:"timestamp,omitempty"`
	Links       []TimelineLink `json:"links"`
}

type TimelineEntryPatch struct {
	Label       Optional[string]         `json:"label,omitzero"`
	Description Optional[string]         `json:"description,omitzero"`
	Order       Optional[int]            `json:"order,omitzero"`
	Timestamp   Optional[string]         `json:"timestamp,omitzero"`
	Links       Optional[[]TimelineLink] `json:"links,omitzero"`
}

func (p TimelineEntryPatch) ApplyTo(e *TimelineEntry) error {
	if fe := requiredString("label", p.Label, &e.Label); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Description.ApplyToPtr(&e.Description)
	p.Order.ApplyToPtr(&e.Order)
	p.Timestamp.ApplyToPtr(&e.Timestamp)
	p.Links.ApplyTo(&e.Links)
	return nil
}

// WildCard is a free-form note.
type WildCard struct {
	Meta
	Title string  `json:"title"`
	Body  *string `json:"body,omitempty"`
	Tag   *string `json:"tag,omitempty"`
}

type WildCardPatch struct {
	Title Optional[string] `json:"title,omitzero"`
	Body  Optional[string] `json:"body,omitzero"`
	Tag   Optional[string] `json:"tag,omitzero"`
}

func (p WildCardPatch) ApplyTo(w *WildCard) error {
	if fe := requiredString("title", p.Title, &w.Title); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Body.ApplyToPtr(&w.Body)
	p.Tag.ApplyToPtr(&w.Tag)
	return nil
}
