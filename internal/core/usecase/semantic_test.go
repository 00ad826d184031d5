package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

type fakeEmbedder struct {
	vectors    map[string][]float32
	queryVec   []float32
	queryErr   error
	embedCalls int
}

func (e *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	e.embedCalls++
	out := make([][]float32, len(texts))
	for i := range texts {
		if v, ok := e.vectors[texts[i]]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 1}
		}
	}
	return out, nil
}

func (e *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return e.queryVec, e.queryErr
}

type memSnapshotStore struct {
	snapshot *domain.EmbeddingSnapshot
	saves    int
}

func (s *memSnapshotStore) Load(ctx context.Context) (*domain.EmbeddingSnapshot, error) {
	return s.snapshot, nil
}

func (s *memSnapshotStore) Save(ctx context.Context, snapshot *domain.EmbeddingSnapshot) error {
	s.snapshot = snapshot
	s.saves++
	return nil
}

func semanticEntries() []domain.KnowledgeEntry {
	return []domain.KnowledgeEntry{
		{ID: "a", Title: "A", Question: "qa", Answer: "aa"},
		{ID: "b", Title: "B", Question: "qb", Answer: "ab"},
	}
}

func TestEnsureSnapshotRebuildsOnCountMismatch(t *testing.T) {
	entries := semanticEntries()
	store := &memSnapshotStore{snapshot: &domain.EmbeddingSnapshot{
		Vectors: []domain.EmbeddingVector{{ID: "stale", Values: []float32{1, 0, 0}}},
		Dim:     3,
	}}
	embedder := &fakeEmbedder{vectors: map[string][]float32{}}
	r := newSemanticRetriever(embedder, store, 16)

	snapshot, err := r.ensureSnapshot(context.Background(), entries)
	if err != nil {
		t.Fatalf("ensure snapshot: %v", err)
	}
	if len(snapshot.Vectors) != len(entries) {
		t.Fatalf("expected full rebuild to %d vectors, got %d", len(entries), len(snapshot.Vectors))
	}
	if store.saves != 1 {
		t.Fatalf("expected rebuilt snapshot persisted once, got %d saves", store.saves)
	}
}

func TestEnsureSnapshotReusesMatchingSnapshot(t *testing.T) {
	entries := semanticEntries()
	store := &memSnapshotStore{snapshot: &domain.EmbeddingSnapshot{
		Vectors: []domain.EmbeddingVector{
			{ID: "a", Values: []float32{1, 0, 0}},
			{ID: "b", Values: []float32{0, 1, 0}},
		},
		Dim: 3,
	}}
	embedder := &fakeEmbedder{}
	r := newSemanticRetriever(embedder, store, 16)

	if _, err := r.ensureSnapshot(context.Background(), entries); err != nil {
		t.Fatalf("ensure snapshot: %v", err)
	}
	if embedder.embedCalls != 0 {
		t.Fatalf("expected no re-embedding for a matching snapshot, got %d calls", embedder.embedCalls)
	}
}

func TestRebuildBatchesEmbeddingCalls(t *testing.T) {
	entries := make([]domain.KnowledgeEntry, 33)
	for i := range entries {
		entries[i] = domain.KnowledgeEntry{ID: string(rune('a' + i))}
	}
	embedder := &fakeEmbedder{}
	store := &memSnapshotStore{}
	r := newSemanticRetriever(embedder, store, 16)

	if _, err := r.rebuild(context.Background(), entries); err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if embedder.embedCalls != 3 {
		t.Fatalf("expected 3 batched calls for 33 entries, got %d", embedder.embedCalls)
	}
}

func TestRetrieveRanksByCosine(t *testing.T) {
	entries := semanticEntries()
	byID := map[string]domain.KnowledgeEntry{"a": entries[0], "b": entries[1]}
	snapshot := &domain.EmbeddingSnapshot{Vectors: []domain.EmbeddingVector{
		{ID: "a", Values: []float32{1, 0, 0}},
		{ID: "b", Values: []float32{0, 1, 0}},
	}}
	embedder := &fakeEmbedder{queryVec: []float32{0.1, 0.9, 0}}
	r := newSemanticRetriever(embedder, &memSnapshotStore{}, 16)

	got := r.retrieve(context.Background(), snapshot, byID, "query", 2)
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(got))
	}
	if got[0].Entry.ID != "b" {
		t.Fatalf("expected b first, got %s", got[0].Entry.ID)
	}
	if got[0].Mode != domain.ModeSemantic {
		t.Fatalf("expected semantic mode, got %s", got[0].Mode)
	}
}

func TestRetrieveDegradesOnEmbedderFailure(t *testing.T) {
	snapshot := &domain.EmbeddingSnapshot{Vectors: []domain.EmbeddingVector{{ID: "a", Values: []float32{1}}}}
	embedder := &fakeEmbedder{queryErr: errors.New("service down")}
	r := newSemanticRetriever(embedder, &memSnapshotStore{}, 16)

	if got := r.retrieve(context.Background(), snapshot, nil, "query", 2); got != nil {
		t.Fatalf("expected empty result on embedder failure, got %d", len(got))
	}
}

func TestCosine32ZeroNorm(t *testing.T) {
	if got := cosine32([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("expected 0 for zero-norm vector, got %v", got)
	}
}

func TestCatalogReloadSwapsSnapshot(t *testing.T) {
	repo := &fakeEntryRepo{entries: semanticEntries()}
	catalog := NewCatalog(repo, nil, nil, 0, testLogger())
	if err := catalog.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	before := catalog.current()

	repo.entries = append(repo.entries, domain.KnowledgeEntry{ID: "c", Title: "C"})
	if err := catalog.Reload(context.Background()); err != nil {
		t.Fatalf("reload: %v", err)
	}
	after := catalog.current()

	if before == after {
		t.Fatal("expected reload to publish a new state")
	}
	if len(before.entries) != 2 || len(after.entries) != 3 {
		t.Fatalf("old state mutated: before=%d after=%d", len(before.entries), len(after.entries))
	}
}
