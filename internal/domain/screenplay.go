package domain

import (
	"strconv"
	"time"
)

// Series is the root of isolation: every other document belongs to exactly one series.
type Series struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Genre        *string   `json:"genre,omitempty"`
	Logline      *string   `json:"logline,omitempty"`
	CoverURL     *string   `json:"coverUrl,omitempty"`
	LastEditedAt time.Time `json:"lastEditedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// SeriesPatch is a partial update of a Series.
type SeriesPatch struct {
	Title    Optional[string] `json:"title,omitzero"`
	Genre    Optional[string] `json:"genre,omitzero"`
	Logline  Optional[string] `json:"logline,omitzero"`
	CoverURL Optional[string] `json:"coverUrl,omitzero"`
}

func (p SeriesPatch) ApplyTo(s *Series) error {
	if fe := requiredString("title", p.Title, &s.Title); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Genre.ApplyToPtr(&s.Genre)
	p.Logline.ApplyToPtr(&s.Logline)
	p.CoverURL.ApplyToPtr(&s.CoverURL)
	return nil
}

// Validate checks the fields required to create a series.
func (s *Series) Validate() error {
	s.Title = trimmed(s.Title)
	if s.Title == "" {
		return NewValidationError("title", "required")
	}
	return nil
}

// Script is one screenplay of a series. Content is opaque text.
type Script struct {
	Meta
	Title          string    `json:"title"`
	Authors        []string  `json:"authors"`
	Content        string    `json:"content"`
	ContentVersion int       `json:"contentVersion"`
	SceneCounter   int       `json:"sceneCounter"`
	LastEditedAt   time.Time `json:"lastEditedAt"`
}

// ScriptSummary is a Script without its body, counters and content version.
type ScriptSummary struct {
	ID           string    `json:"id"`
	SeriesID     string    `json:"seriesId"`
	Title        string    `json:"title"`
	Authors      []string  `json:"authors"`
	LastEditedAt time.Time `json:"lastEditedAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Summary strips the script body.
func (s *Script) Summary() ScriptSummary {
	return ScriptSummary{
		ID:           s.ID,
		SeriesID:     s.SeriesID,
		Title:        s.Title,
		Authors:      append([]string{}, s.Authors...),
		LastEditedAt: s.LastEditedAt,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (s *Script) Validate() error {
	s.Title = trimmed(s.Title)
	if s.Authors == nil {
		s.Authors = []string{}
	}
	if s.Title == "" {
		return NewValidationError("title", "required")
	}
	return nil
}

// ScriptPatch is a partial update of a Script. A content change bumps ContentVersion.
type ScriptPatch struct {
	Title   Optional[string]   `json:"title,omitzero"`
	Authors Optional[[]string] `json:"authors,omitzero"`
	Content Optional[string]   `json:"content,omitzero"`
}

func (p ScriptPatch) ApplyTo(s *Script) error {
	if fe := requiredString("title", p.Title, &s.Title); fe != nil {
		return NewValidationErrors([]FieldError{*fe})
	}
	p.Authors.ApplyTo(&s.Authors)
	if s.Authors == nil {
		s.Authors = []string{}
	}
	if p.Content.IsSet() {
		next := p.Content.Value()
		if next != s.Content {
			s.Content = next
			s.ContentVersion++
		}
	}
	return nil
}

// Beat is one ordered story beat inside a scene.
type Beat struct {
	Order       int    `json:"order"`
	Description string `json:"description"`
}

// Scene belongs to a script; SceneNumber is assigned from Script.SceneCounter.
type Scene struct {
	Meta
	ScriptID     string   `json:"scriptId"`
	SceneNumber  int      `json:"sceneNumber"`
	Heading      string   `json:"heading"`
	Beats        []Beat   `json:"beats"`
	CharacterIDs []string `json:"characterIds"`
	PropIDs      []string `json:"propIds"`
	LocationID   *string  `json:"locationId,omitempty"`
}

func (s *Scene) Validate() error {
	s.Heading = trimmed(s.Heading)
	s.fillSlices()
	var errs []FieldError
	if trimmed(s.ScriptID) == "" {
		errs = append(errs, FieldError{Field: "scriptId", Message: "required"})
	}
	for i, b := range s.Beats {
		if trimmed(b.Description) == "" {
			errs = append(errs, FieldError{Field: beatField(i), Message: "description required"})
		}
	}
	if len(errs) > 0 {
		return NewValidationErrors(errs)
	}
	return nil
}

func (s *Scene) fillSlices() {
	if s.Beats == nil {
		s.Beats = []Beat{}
	}
	if s.CharacterIDs == nil {
		s.CharacterIDs = []string{}
	}
	if s.PropIDs == nil {
		s.PropIDs = []string{}
	}
}

// ScenePatch is a partial update of a Scene. ScriptID and SceneNumber are fixed.
type ScenePatch struct {
	Heading      Optional[string]   `json:"heading,omitzero"`
	Beats        Optional[[]Beat]   `json:"beats,omitzero"`
	CharacterIDs Optional[[]string] `json:"characterIds,omitzero"`
	PropIDs      Optional[[]string] `json:"propIds,omitzero"`
	LocationID   Optional[string]   `json:"locationId,omitzero"`
}

func (p ScenePatch) ApplyTo(s *Scene) error {
	p.Heading.ApplyTo(&s.Heading)
	p.Beats.ApplyTo(&s.Beats)
	p.CharacterIDs.ApplyTo(&s.CharacterIDs)
	p.PropIDs.ApplyTo(&s.PropIDs)
	p.LocationID.ApplyToPtr(&s.LocationID)
	return s.Validate()
}

func beatField(i int) string {
	return "beats[" + strconv.Itoa(i) + "]"
}
