package domain

import "testing"

func TestEntityType_IsValid(t *testing.T) {
	t.Parallel()

	valid := []EntityType{
		EntityTypeSeries, EntityTypeScript, EntityTypeScene, EntityTypeCharacter,
		EntityTypeLocation, EntityTypeProp, EntityTypeTimeline, EntityTypeWildCard,
		EntityTypeTheme, EntityTypeStoryArc, EntityTypeCanvasNode, EntityTypeCanvasEdge,
	}
	for _, e := range valid {
		if !e.IsValid() {
			t.Errorf("EntityType(%q).IsValid() = false, want true", e)
		}
	}
	if EntityType("BOGUS").IsValid() {
		t.Error("EntityType(BOGUS).IsValid() = true, want false")
	}
}

func TestAuditAction_IsValid(t *testing.T) {
	t.Parallel()

	valid := []AuditAction{AuditActionCreate, AuditActionUpdate, AuditActionDelete}
	for _, a := range valid {
		if !a.IsValid() {
			t.Errorf("AuditAction(%q).IsValid() = false, want true", a)
		}
	}
	if AuditAction("NOPE").IsValid() {
		t.Error("AuditAction(NOPE).IsValid() = true, want false")
	}
	if got := AuditActionCreate.String(); got != "CREATE" {
		t.Errorf("got %q, want CREATE", got)
	}
}

func TestArcStatus_IsValid(t *testing.T) {
	t.Parallel()

	for _, s := range []ArcStatus{ArcStatusPlanned, ArcStatusInProgress, ArcStatusCompleted, ArcStatusAbandoned} {
		if !s.IsValid() {
			t.Errorf("ArcStatus(%q).IsValid() = false, want true", s)
		}
	}
	if ArcStatus("paused").IsValid() {
		t.Error("ArcStatus(paused).IsValid() = true, want false")
	}
}
