package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestOptional_UnmarshalJSON(t *testing.T) {
	t.Parallel()

	var p CharacterPatch
	if err := json.Unmarshal([]byte(`{"description": null, "traits": []}`), &p); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if p.Name.IsSet() {
		t.Error("name should be absent")
	}
	if !p.Description.IsNull() {
		t.Error("description should be null")
	}
	if !p.Traits.IsSet() || p.Traits.IsNull() {
		t.Fatal("traits should be set")
	}
	if got := p.Traits.Value(); got == nil || len(got) != 0 {
		t.Errorf("traits = %#v, want empty slice", got)
	}
}

func TestOptional_MarshalRoundTrip(t *testing.T) {
	t.Parallel()

	in := CharacterPatch{Description: Null[string](), Traits: Set([]string{"calm"})}
	b, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if got, want := string(b), `{"description":null,"traits":["calm"]}`; got != want {
		t.Errorf("json = %s, want %s", got, want)
	}

	var out CharacterPatch
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Name.IsSet() {
		t.Error("absent name came back present")
	}
	if !out.Description.IsNull() {
		t.Error("cleared description lost")
	}
	if v := out.Traits.Value(); len(v) != 1 || v[0] != "calm" {
		t.Errorf("traits = %v", v)
	}
}

func TestCharacterPatch_PartialUpdate(t *testing.T) {
	t.Parallel()

	desc := "sailor"
	c := &Character{Name: "Anna", Description: &desc, Traits: []string{"brave"}}

	if err := (CharacterPatch{Traits: Set([]string{})}).ApplyTo(c); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Name != "Anna" || c.Description == nil || *c.Description != "sailor" {
		t.Errorf("absent fields changed: %+v", c)
	}
	if len(c.Traits) != 0 {
		t.Errorf("traits = %v, want empty", c.Traits)
	}

	if err := (CharacterPatch{Description: Null[string]()}).ApplyTo(c); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Description != nil {
		t.Errorf("description = %v, want nil", *c.Description)
	}

	if err := (CharacterPatch{Description: Set("")}).ApplyTo(c); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if c.Description == nil || *c.Description != "" {
		t.Error("explicit empty string should overwrite")
	}
}

func TestCharacterPatch_RequiredName(t *testing.T) {
	t.Parallel()

	c := &Character{Name: "Anna"}
	for _, p := range []CharacterPatch{{Name: Null[string]()}, {Name: Set("  ")}} {
		err := p.ApplyTo(c)
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ApplyTo err = %v, want ErrValidation", err)
		}
	}
	if c.Name != "Anna" {
		t.Errorf("name = %q, want unchanged", c.Name)
	}
}

func TestScriptPatch_ContentVersion(t *testing.T) {
	t.Parallel()

	s := &Script{Title: "Pilot", Content: "INT. MILL", ContentVersion: 1}

	_ = ScriptPatch{Content: Set("INT. MILL")}.ApplyTo(s)
	if s.ContentVersion != 1 {
		t.Errorf("unchanged content bumped version to %d", s.ContentVersion)
	}
	_ = ScriptPatch{Content: Set("EXT. HARBOR")}.ApplyTo(s)
	if s.ContentVersion != 2 {
		t.Errorf("ContentVersion = %d, want 2", s.ContentVersion)
	}
}
