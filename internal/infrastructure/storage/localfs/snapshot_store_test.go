package localfs

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

func TestSnapshotStoreRoundTrip(t *testing.T) {
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "embeddings.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	want := &domain.EmbeddingSnapshot{
		Vectors: []domain.EmbeddingVector{{ID: "a", Values: []float32{0.1, 0.2}}},
		Dim:     2,
		BuiltAt: time.Now().UTC().Truncate(time.Second),
	}
	if err := store.Save(context.Background(), want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got == nil || len(got.Vectors) != 1 || got.Vectors[0].ID != "a" || got.Dim != 2 {
		t.Fatalf("unexpected snapshot: %+v", got)
	}
}

func TestSnapshotStoreLoadMissingFile(t *testing.T) {
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "embeddings.json"))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil snapshot before first save, got %+v", got)
	}
}
