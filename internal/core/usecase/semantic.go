package usecase

import (
	"context"
	"math"
	"sort"
	"time"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/core/ports"
)

const defaultEmbedBatchSize = 16

// semanticRetriever answers similarity queries against a persisted
// embedding snapshot. It is optional: when no embedder is configured
// the catalog runs lexical-only.
type semanticRetriever struct {
	embedder  ports.Embedder
	store     ports.VectorSnapshotStore
	batchSize int
}

func newSemanticRetriever(embedder ports.Embedder, store ports.VectorSnapshotStore, batchSize int) *semanticRetriever {
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &semanticRetriever{embedder: embedder, store: store, batchSize: batchSize}
}

// ensureSnapshot loads the persisted snapshot and rebuilds it when the
// vector count does not match the current entries. Incremental updates
// are deliberately not attempted.
func (r *semanticRetriever) ensureSnapshot(ctx context.Context, entries []domain.KnowledgeEntry) (*domain.EmbeddingSnapshot, error) {
	snapshot, err := r.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if snapshot != nil && len(snapshot.Vectors) == len(entries) && len(snapshot.Vectors) > 0 {
		return snapshot, nil
	}
	return r.rebuild(ctx, entries)
}

func (r *semanticRetriever) rebuild(ctx context.Context, entries []domain.KnowledgeEntry) (*domain.EmbeddingSnapshot, error) {
	snapshot := &domain.EmbeddingSnapshot{BuiltAt: time.Now().UTC()}
	for start := 0; start < len(entries); start += r.batchSize {
		end := start + r.batchSize
		if end > len(entries) {
			end = len(entries)
		}
		texts := make([]string, 0, end-start)
		for _, entry := range entries[start:end] {
			texts = append(texts, entry.IndexText())
		}
		vectors, err := r.embedder.Embed(ctx, texts)
		if err != nil {
			return nil, domain.WrapError(domain.ErrTemporary, "semantic rebuild", err)
		}
		for i, vec := range vectors {
			snapshot.Vectors = append(snapshot.Vectors, domain.EmbeddingVector{ID: entries[start+i].ID, Values: vec})
			if snapshot.Dim == 0 {
				snapshot.Dim = len(vec)
			}
		}
	}
	if err := r.store.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// retrieve embeds the query and ranks entries by cosine similarity.
// Embedder failures degrade to an empty result so the caller falls
// back to lexical ranking.
func (r *semanticRetriever) retrieve(ctx context.Context, snapshot *domain.EmbeddingSnapshot, byID map[string]domain.KnowledgeEntry, query string, k int) []domain.Candidate {
	if snapshot == nil || len(snapshot.Vectors) == 0 || k <= 0 {
		return nil
	}
	qvec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil || len(qvec) == 0 {
		return nil
	}
	candidates := make([]domain.Candidate, 0, len(snapshot.Vectors))
	for _, v := range snapshot.Vectors {
		entry, ok := byID[v.ID]
		if !ok {
			continue
		}
		candidates = append(candidates, domain.Candidate{
			Entry: entry,
			Score: cosine32(qvec, v.Values),
			Mode:  domain.ModeSemantic,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// cosine32 compares over the shorter prefix when dimensions disagree,
// which happens transiently when the embedding model changes.
func cosine32(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
