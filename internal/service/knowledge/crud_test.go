package knowledge

//go:generate moq -out deps_mock_test.go -pkg knowledge . seriesChecker auditLog txManager
//go:generate moq -out collection_mock_test.go -pkg knowledge . collection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"

	"github.com/heartmarshall/storybible-backend/internal/domain"
	"github.com/heartmarshall/storybible-backend/pkg/ctxutil"
)

func defaultTxMock() *txManagerMock {
	return &txManagerMock{
		RunInTxFunc: func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		},
	}
}

func defaultAuditMock() *auditLogMock {
	return &auditLogMock{
		AppendFunc: func(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
			e.ID = "audit-1"
			return e, nil
		},
	}
}

func seriesExists(ok bool) *seriesCheckerMock {
	return &seriesCheckerMock{
		ExistsFunc: func(ctx context.Context, id string) (bool, error) { return ok, nil },
	}
}

func newCharacterCRUD(
	store *collectionMock[*domain.Character],
	series *seriesCheckerMock,
	audit *auditLogMock,
	maxRetries int,
) *CRUD[*domain.Character, domain.CharacterPatch] {
	return NewCRUD[*domain.Character, domain.CharacterPatch](domain.CharacterKind, store, Deps{
		Log:        slog.Default(),
		Series:     series,
		Audit:      audit,
		Tx:         defaultTxMock(),
		MaxRetries: maxRetries,
	})
}

// storedCharacter returns a Get func that hands out a fresh copy on every call.
func storedCharacter(revision int64) func(ctx context.Context, seriesID, id string) (*domain.Character, error) {
	return func(ctx context.Context, seriesID, id string) (*domain.Character, error) {
		return &domain.Character{
			Meta:          domain.Meta{ID: id, SeriesID: seriesID, Revision: revision},
			Name:          "Ada",
			Traits:        []string{"brave"},
			Relationships: []domain.Relationship{},
			Variations:    []domain.Variation{},
			Appearances:   []domain.Appearance{},
		}, nil
	}
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestCreate_SeriesNotFound(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{}
	audit := defaultAuditMock()
	svc := newCharacterCRUD(store, seriesExists(false), audit, 0)

	_, err := svc.Create(context.Background(), "missing", &domain.Character{Name: "Ada"})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.InsertCalls()) != 0 {
		t.Fatalf("expected no insert, got %d", len(store.InsertCalls()))
	}
	if len(audit.AppendCalls()) != 0 {
		t.Fatalf("expected no audit, got %d", len(audit.AppendCalls()))
	}
}

func TestCreate_SeriesCheckError(t *testing.T) {
	t.Parallel()

	boom := errors.New("db down")
	series := &seriesCheckerMock{
		ExistsFunc: func(ctx context.Context, id string) (bool, error) { return false, boom },
	}
	svc := newCharacterCRUD(&collectionMock[*domain.Character]{}, series, defaultAuditMock(), 0)

	_, err := svc.Create(context.Background(), "s1", &domain.Character{Name: "Ada"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

func TestCreate_NameRequired(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{}
	svc := newCharacterCRUD(store, seriesExists(true), defaultAuditMock(), 0)

	_, err := svc.Create(context.Background(), "s1", &domain.Character{Name: "   "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if domain.CodeOf(err) != domain.CodeBadRequest {
		t.Fatalf("expected BAD_REQUEST, got %s", domain.CodeOf(err))
	}
	if len(store.InsertCalls()) != 0 {
		t.Fatal("insert must not be called on invalid input")
	}
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		InsertFunc: func(ctx context.Context, v *domain.Character) (*domain.Character, error) {
			v.ID = "c1"
			v.Revision = 1
			return v, nil
		},
	}
	audit := defaultAuditMock()
	svc := newCharacterCRUD(store, seriesExists(true), audit, 0)

	ctx := ctxutil.WithActorID(context.Background(), "writer-7")
	in := &domain.Character{
		Meta: domain.Meta{ID: "client-chosen", SeriesID: "other", Revision: 9},
		Name: "  Ada  ",
	}
	got, err := svc.Create(ctx, "s1", in)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != "c1" || got.SeriesID != "s1" {
		t.Fatalf("unexpected identity: id=%q series=%q", got.ID, got.SeriesID)
	}
	if got.Name != "Ada" {
		t.Fatalf("expected trimmed name, got %q", got.Name)
	}
	if got.Traits == nil || got.Relationships == nil {
		t.Fatal("expected empty slices, got nil")
	}

	calls := audit.AppendCalls()
	if len(calls) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(calls))
	}
	e := calls[0].E
	if e.Action != domain.AuditActionCreate || e.EntityType != domain.EntityTypeCharacter {
		t.Fatalf("unexpected audit entry: %+v", e)
	}
	if e.ActorID != "writer-7" || e.EntityID != "c1" || e.SeriesID != "s1" {
		t.Fatalf("unexpected audit identity: %+v", e)
	}
	if e.Before != nil || e.After == nil {
		t.Fatalf("expected after-only snapshot, before=%s after=%s", e.Before, e.After)
	}
}

func TestCreate_ClientIDIgnored(t *testing.T) {
	t.Parallel()

	var seenID string
	store := &collectionMock[*domain.Character]{
		InsertFunc: func(ctx context.Context, v *domain.Character) (*domain.Character, error) {
			seenID = v.ID
			v.ID = "generated"
			return v, nil
		},
	}
	svc := newCharacterCRUD(store, seriesExists(true), defaultAuditMock(), 0)

	_, err := svc.Create(context.Background(), "s1", &domain.Character{
		Meta: domain.Meta{ID: "client-chosen"},
		Name: "Ada",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenID != "" {
		t.Fatalf("expected the store to assign the id, got %q", seenID)
	}
}

func TestCreate_AuditFailureFailsCreate(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		InsertFunc: func(ctx context.Context, v *domain.Character) (*domain.Character, error) {
			v.ID = "c1"
			return v, nil
		},
	}
	audit := &auditLogMock{
		AppendFunc: func(ctx context.Context, e domain.AuditEntry) (domain.AuditEntry, error) {
			return domain.AuditEntry{}, errors.New("audit down")
		},
	}
	svc := newCharacterCRUD(store, seriesExists(true), audit, 0)

	if _, err := svc.Create(context.Background(), "s1", &domain.Character{Name: "Ada"}); err == nil {
		t.Fatal("expected error when the audit append fails")
	}
}

// ---------------------------------------------------------------------------
// Update
// ---------------------------------------------------------------------------

func TestUpdate_SeriesNotFound(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{}
	svc := newCharacterCRUD(store, seriesExists(false), defaultAuditMock(), 0)

	_, err := svc.Update(context.Background(), "c1", "missing", domain.CharacterPatch{Name: domain.Set("B")})
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(store.GetCalls()) != 0 || len(store.UpdateCalls()) != 0 {
		t.Fatal("store must not be touched")
	}
}

func TestUpdate_NotFound(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		GetFunc: func(ctx context.Context, seriesID, id string) (*domain.Character, error) {
			return nil, domain.NotFoundError("character", id)
		},
	}
	svc := newCharacterCRUD(store, seriesExists(true), defaultAuditMock(), 0)

	_, err := svc.Update(context.Background(), "c1", "s1", domain.CharacterPatch{})
	if domain.CodeOf(err) != domain.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestUpdate_NullNameRejected(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{GetFunc: storedCharacter(1)}
	svc := newCharacterCRUD(store, seriesExists(true), defaultAuditMock(), 0)

	_, err := svc.Update(context.Background(), "c1", "s1", domain.CharacterPatch{Name: domain.Null[string]()})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(store.UpdateCalls()) != 0 {
		t.Fatal("update must not be called")
	}
}

func TestUpdate_RetriesOnConflict(t *testing.T) {
	t.Parallel()

	var attempts int
	store := &collectionMock[*domain.Character]{
		GetFunc: storedCharacter(4),
		UpdateFunc: func(ctx context.Context, v *domain.Character) (*domain.Character, error) {
			attempts++
			if attempts == 1 {
				return v, fmt.Errorf("character %s: %w", v.ID, domain.ErrConflict)
			}
			v.Revision++
			return v, nil
		},
	}
	audit := defaultAuditMock()
	svc := newCharacterCRUD(store, seriesExists(true), audit, 3)

	got, err := svc.Update(context.Background(), "c1", "s1", domain.CharacterPatch{Traits: domain.Set([]string{})})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 update attempts, got %d", attempts)
	}
	if len(store.GetCalls()) != 2 {
		t.Fatalf("expected a reload per attempt, got %d gets", len(store.GetCalls()))
	}
	if len(got.Traits) != 0 {
		t.Fatalf("expected traits cleared, got %v", got.Traits)
	}
	if len(audit.AppendCalls()) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(audit.AppendCalls()))
	}
	e := audit.AppendCalls()[0].E
	if e.Action != domain.AuditActionUpdate || e.Before == nil || e.After == nil {
		t.Fatalf("expected before and after snapshots, got %+v", e)
	}
}

func TestUpdate_GivesUpAfterMaxRetries(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		GetFunc: storedCharacter(1),
		UpdateFunc: func(ctx context.Context, v *domain.Character) (*domain.Character, error) {
			return v, domain.ErrConflict
		},
	}
	audit := defaultAuditMock()
	svc := newCharacterCRUD(store, seriesExists(true), audit, 2)

	_, err := svc.Update(context.Background(), "c1", "s1", domain.CharacterPatch{Name: domain.Set("B")})
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}
	if len(store.UpdateCalls()) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(store.UpdateCalls()))
	}
	if len(audit.AppendCalls()) != 0 {
		t.Fatal("no audit entry expected for a failed update")
	}
}

func TestUpdate_OtherErrorNotRetried(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		GetFunc: storedCharacter(1),
		UpdateFunc: func(ctx context.Context, v *domain.Character) (*domain.Character, error) {
			return v, errors.New("disk full")
		},
	}
	svc := newCharacterCRUD(store, seriesExists(true), defaultAuditMock(), 5)

	if _, err := svc.Update(context.Background(), "c1", "s1", domain.CharacterPatch{}); err == nil {
		t.Fatal("expected error")
	}
	if len(store.UpdateCalls()) != 1 {
		t.Fatalf("expected 1 attempt, got %d", len(store.UpdateCalls()))
	}
}

// ---------------------------------------------------------------------------
// Remove / List
// ---------------------------------------------------------------------------

func TestRemove_Success(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		GetFunc:    storedCharacter(2),
		DeleteFunc: func(ctx context.Context, seriesID, id string) error { return nil },
	}
	audit := defaultAuditMock()
	svc := newCharacterCRUD(store, seriesExists(true), audit, 0)

	ok, err := svc.Remove(context.Background(), "c1", "s1")
	if err != nil || !ok {
		t.Fatalf("expected true, nil; got %v, %v", ok, err)
	}
	e := audit.AppendCalls()[0].E
	if e.Action != domain.AuditActionDelete || e.Before == nil || e.After != nil {
		t.Fatalf("expected before-only delete entry, got %+v", e)
	}
}

func TestRemove_NotFound(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		GetFunc: func(ctx context.Context, seriesID, id string) (*domain.Character, error) {
			return nil, domain.NotFoundError("character", id)
		},
	}
	svc := newCharacterCRUD(store, seriesExists(true), defaultAuditMock(), 0)

	ok, err := svc.Remove(context.Background(), "c1", "s1")
	if ok || !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected false, ErrNotFound; got %v, %v", ok, err)
	}
	if len(store.DeleteCalls()) != 0 {
		t.Fatal("delete must not be called")
	}
}

func TestList_NormalizesPage(t *testing.T) {
	t.Parallel()

	store := &collectionMock[*domain.Character]{
		ListFunc: func(ctx context.Context, seriesID string, limit, offset int) ([]*domain.Character, int, error) {
			return nil, 0, nil
		},
	}
	svc := newCharacterCRUD(store, seriesExists(true), defaultAuditMock(), 0)

	page, err := svc.List(context.Background(), "s1", 1000, -5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	call := store.ListCalls()[0]
	if call.Limit != domain.MaxPageLimit || call.Offset != 0 {
		t.Fatalf("expected limit=%d offset=0, got %d/%d", domain.MaxPageLimit, call.Limit, call.Offset)
	}
	if page.Items == nil || page.Total != 0 {
		t.Fatalf("expected empty non-nil page, got %+v", page)
	}
}
