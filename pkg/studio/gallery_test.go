package studio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/vocalis-ai/vocalis/pkg/storage"
)

func newTestGallery(t *testing.T) *Gallery {
	t.Helper()
	blobs, err := storage.NewLocal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	g, err := OpenGallery(GalleryOptions{InMemory: true, Blobs: blobs})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { g.Close() })
	return g
}

func TestGalleryAddAndOpen(t *testing.T) {
	g := newTestGallery(t)
	ctx := context.Background()

	data := []byte("png bytes")
	item, err := g.Add(ctx, KindImage, "a red fox", "imagen-3.0-generate-002", "image/png", data)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if item.ID == "" {
		t.Error("item has no id")
	}
	if item.Path != "images/"+item.ID+".png" {
		t.Errorf("item path = %q, want images/<id>.png", item.Path)
	}

	r, got, err := g.Open(ctx, item.ID)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()
	blob, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	if string(blob) != string(data) {
		t.Errorf("blob = %q, want %q", blob, data)
	}
	if got.Prompt != "a red fox" || got.Kind != KindImage || got.MIMEType != "image/png" {
		t.Errorf("record round-trip mismatch: %+v", got)
	}
	if got.CreatedAt.IsZero() {
		t.Error("record has zero creation time")
	}
}

func TestGalleryGetNotFound(t *testing.T) {
	g := newTestGallery(t)
	if _, err := g.Get(context.Background(), "missing"); !errors.Is(err, ErrItemNotFound) {
		t.Fatalf("Get = %v, want ErrItemNotFound", err)
	}
}

func TestGalleryListNewestFirst(t *testing.T) {
	g := newTestGallery(t)
	ctx := context.Background()

	first, err := g.Add(ctx, KindImage, "first", "m", "image/png", []byte("a"))
	if err != nil {
		t.Fatal(err)
	}
	time.Sleep(5 * time.Millisecond)
	second, err := g.Add(ctx, KindVideo, "second", "m", "video/mp4", []byte("b"))
	if err != nil {
		t.Fatal(err)
	}

	items, err := g.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 2 {
		t.Fatalf("List returned %d items, want 2", len(items))
	}
	if items[0].ID != second.ID || items[1].ID != first.ID {
		t.Errorf("List order = [%s %s], want newest first [%s %s]",
			items[0].ID, items[1].ID, second.ID, first.ID)
	}
}

func TestGalleryDelete(t *testing.T) {
	g := newTestGallery(t)
	ctx := context.Background()

	item, err := g.Add(ctx, KindImage, "p", "m", "image/png", []byte("x"))
	if err != nil {
		t.Fatal(err)
	}

	if err := g.Delete(ctx, item.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := g.Get(ctx, item.ID); !errors.Is(err, ErrItemNotFound) {
		t.Errorf("Get after delete = %v, want ErrItemNotFound", err)
	}
	if ok, _ := g.blobs.Exists(ctx, item.Path); ok {
		t.Error("media blob still present after delete")
	}

	// Deleting an unknown id is a no-op.
	if err := g.Delete(ctx, "missing"); err != nil {
		t.Errorf("Delete(missing) = %v, want nil", err)
	}
}

func TestExtForMIME(t *testing.T) {
	tests := []struct {
		mime string
		want string
	}{
		{"image/png", ".png"},
		{"image/jpeg", ".jpg"},
		{"video/mp4", ".mp4"},
		{"application/octet-stream", ".bin"},
	}
	for _, tt := range tests {
		if got := extForMIME(tt.mime); got != tt.want {
			t.Errorf("extForMIME(%q) = %q, want %q", tt.mime, got, tt.want)
		}
	}
}
