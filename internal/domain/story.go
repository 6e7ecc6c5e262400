package domain

// ThemeCharacter explains how a character carries a theme.
type ThemeCharacter struct {
	CharacterID string `json:"characterId"`
	Connection  string `json:"connection"`
}

// ThemeEvolution records how a theme develops in one script.
type ThemeEvolution struct {
	ScriptID string `json:"scriptId"`
	Notes    string `json:"notes"`
}

// ThemeAppearance points at a scene where the theme surfaces.
type ThemeAppearance struct {
	SceneID string  `json:"sceneId"`
	Quote   *string `json:"quote,omitempty"`
	Notes   *string `json:"notes,omitempty"`
}

type Theme struct {
	Meta
	Name              string            `json:"name"`
	Description       *string           `json:"description,omitempty"`
	RelatedCharacters []ThemeCharacter  `json:"relatedCharacters"`
	Evolution         []ThemeEvolution  `json:"evolution"`
	Appearances       []ThemeAppearance `json:"appearances"`
}

type ThemePatch struct {
	Name              Optional[string]            `json:"name,omitzero"`
	Description       Optional[string]            `json:"description,omitzero"`
	RelatedCharacters Optional[[]ThemeCharacter]  `json:"relatedCharacters,omitzero"`
	Evolution         Optional[[]ThemeEvolution]  `json:"evolution,omitzero"`
	Appearances       Optional[[]ThemeAppearance] `json:"appearances,omitzero"`
}

func (p ThemePatch) ApplyTo(t *Theme) error {
	if fe := requiredString("name", p.Name, &t.Name); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Description.ApplyToPtr(&t.Description)
	p.RelatedCharacters.ApplyTo(&t.RelatedCharacters)
	p.Evolution.ApplyTo(&t.Evolution)
	p.Appearances.ApplyTo(&t.Appearances)
	return nil
}

// KeyBeat is an ordered milestone of a story arc. ID is assigned when empty.
type KeyBeat struct {
	ID          string `json:"id"`
	Order       int    `json:"order"`
	Description string `json:"description"`
}

// ArcCharacter names a character's role in an arc.
type ArcCharacter struct {
	CharacterID string `json:"characterId"`
	Role        string `json:"role"`
}

type StoryArc struct {
	Meta
	Name        string         `json:"name"`
	Description *string        `json:"description,omitempty"`
	Status      ArcStatus      `json:"status"`
	KeyBeats    []KeyBeat      `json:"keyBeats"`
	Characters  []ArcCharacter `json:"characters"`
	ThemeIDs    []string       `json:"themeIds"`
}

type StoryArcPatch struct {
	Name        Optional[string]         `json:"name,omitzero"`
	Description Optional[string]         `json:"description,omitzero"`
	Status      Optional[ArcStatus]      `json:"status,omitzero"`
	KeyBeats    Optional[[]KeyBeat]      `json:"keyBeats,omitzero"`
	Characters  Optional[[]ArcCharacter] `json:"characters,omitzero"`
	ThemeIDs    Optional[[]string]       `json:"themeIds,omitzero"`
}

func (p StoryArcPatch) ApplyTo(a *StoryArc) error {
	if fe := requiredString("name", p.Name, &a.Name); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	if p.Status.IsNull() {
		return NewValidationError("status", "required")
	}
	p.Description.ApplyToPtr(&a.Description)
	p.Status.ApplyTo(&a.Status)
	p.KeyBeats.ApplyTo(&a.KeyBeats)
	p.Characters.ApplyTo(&a.Characters)
	p.ThemeIDs.ApplyTo(&a.ThemeIDs)
	return nil
}

// CanvasNode is a box on the visual board, optionally pinned to a document.
type CanvasNode struct {
	Meta
	X          float64     `json:"x"`
	Y          float64     `json:"y"`
	Width      float64     `json:"width"`
	Height     float64     `json:"height"`
	Content    string      `json:"content"`
	Color      *string     `json:"color,omitempty"`
	EntityType *EntityType `json:"entityType,omitempty"`
	EntityID   *string     `json:"entityId,omitempty"`
}

type CanvasNodePatch struct {
	X          Optional[float64]    `json:"x,omitzero"`
	Y          Optional[float64]    `json:"y,omitzero"`
	Width      Optional[float64]    `json:"width,omitzero"`
	Height     Optional[float64]    `json:"height,omitzero"`
	Content    Optional[string]     `json:"content,omitzero"`
	Color      Optional[string]     `json:"color,omitzero"`
	EntityType Optional[EntityType] `json:"entityType,omitzero"`
	EntityID   Optional[string]     `json:"entityId,omitzero"`
}

func (p CanvasNodePatch) ApplyTo(n *CanvasNode) error {
	p.X.ApplyTo(&n.X)
	p.Y.ApplyTo(&n.Y)
	p.Width.ApplyTo(&n.Width)
	p.Height.ApplyTo(&n.Height)
	p.Content.ApplyTo(&n.Content)
	p.Color.ApplyToPtr(&n.Color)
	p.EntityType.ApplyToPtr(&n.EntityType)
	p.EntityID.ApplyToPtr(&n.EntityID)
	return nil
}

// CanvasEdge connects two canvas nodes of the same series.
type CanvasEdge struct {
	Meta
	SourceID string  `json:"sourceId"`
	TargetID string  `json:"targetId"`
	Label    *string `json:"label,omitempty"`
}

// CanvasEdgePatch updates the label only; endpoints are fixed at creation.
type CanvasEdgePatch struct {
	Label Optional[string] `json:"label,omitzero"`
}

func (p CanvasEdgePatch) ApplyTo(e *CanvasEdge) error {
	p.Label.ApplyToPtr(&e.Label)
	return nil
}
