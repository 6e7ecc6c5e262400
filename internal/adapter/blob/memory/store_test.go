package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/heartmarshall/storybible-backend/internal/adapter/blob"
)

func TestStore_PutGetDelete(t *testing.T) {
	t.Parallel()
	s := New()
	ctx := context.Background()

	info, err := s.Put(ctx, "a/b.png", strings.NewReader("png"), "image/png")
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 3 || info.ContentType != "image/png" {
		t.Errorf("unexpected info: %+v", info)
	}

	_, rc, err := s.Get(ctx, "a/b.png")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	data, _ := io.ReadAll(rc)
	_ = rc.Close()
	if string(data) != "png" {
		t.Errorf("data: got %q", data)
	}

	if ok, _ := s.Delete(ctx, "a/b.png"); !ok {
		t.Error("Delete: expected existed=true")
	}
	if ok, _ := s.Delete(ctx, "a/b.png"); ok {
		t.Error("second Delete: expected existed=false")
	}
	if _, _, err := s.Get(ctx, "a/b.png"); !errors.Is(err, blob.ErrNotFound) {
		t.Errorf("Get after delete: expected ErrNotFound, got %v", err)
	}
}

func TestStore_PresignUnsupported(t *testing.T) {
	t.Parallel()
	if _, err := New().PresignURL(context.Background(), "k", 0); !errors.Is(err, blob.ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported, got %v", err)
	}
}
