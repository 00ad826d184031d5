package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/core/ports"
)

// catalogState is one immutable view of the knowledge base with its
// retrieval indices. Readers pin a state for the whole request; a
// rebuild swaps the pointer and never touches a published state.
type catalogState struct {
	entries  []domain.KnowledgeEntry
	byID     map[string]domain.KnowledgeEntry
	lexical  *lexicalIndex
	semantic *domain.EmbeddingSnapshot
}

// Catalog owns the current knowledge snapshot. There is no incremental
// update path: any change reloads entries and rebuilds both indices.
type Catalog struct {
	repo      ports.EntryRepository
	retriever *semanticRetriever
	logger    *slog.Logger

	buildMu sync.Mutex
	state   atomic.Pointer[catalogState]
}

func NewCatalog(repo ports.EntryRepository, embedder ports.Embedder, store ports.VectorSnapshotStore, batchSize int, logger *slog.Logger) *Catalog {
	c := &Catalog{repo: repo, logger: logger}
	if embedder != nil && store != nil {
		c.retriever = newSemanticRetriever(embedder, store, batchSize)
	}
	c.state.Store(&catalogState{
		byID:    map[string]domain.KnowledgeEntry{},
		lexical: buildLexicalIndex(nil),
	})
	return c
}

// Reload fetches entries and builds a fresh state. A failed semantic
// rebuild degrades to lexical-only rather than failing the reload.
func (c *Catalog) Reload(ctx context.Context) error {
	c.buildMu.Lock()
	defer c.buildMu.Unlock()

	entries, err := c.repo.ListEntries(ctx)
	if err != nil {
		return domain.WrapError(domain.ErrTemporary, "catalog reload", err)
	}

	next := &catalogState{
		entries: entries,
		byID:    make(map[string]domain.KnowledgeEntry, len(entries)),
		lexical: buildLexicalIndex(entries),
	}
	for _, entry := range entries {
		next.byID[entry.ID] = entry
	}

	if c.retriever != nil {
		snapshot, err := c.retriever.ensureSnapshot(ctx, entries)
		if err != nil {
			c.logger.Warn("semantic snapshot rebuild failed, serving lexical only", "error", err)
		} else {
			next.semantic = snapshot
		}
	}

	c.state.Store(next)
	c.logger.Info("knowledge snapshot rebuilt", "entries", len(entries), "semantic", next.semantic != nil)
	return nil
}

func (c *Catalog) current() *catalogState {
	return c.state.Load()
}

// Retrieve runs hybrid retrieval against the pinned state.
func (c *Catalog) Retrieve(ctx context.Context, query string, k int) []domain.Candidate {
	state := c.current()
	var semantic []domain.Candidate
	if c.retriever != nil && state.semantic != nil {
		semantic = c.retriever.retrieve(ctx, state.semantic, state.byID, query, k)
	}
	lexical := state.lexical.Query(query, k)
	return fuseCandidates(semantic, lexical, k)
}

// Entries returns the pinned snapshot's entries in stable order.
func (c *Catalog) Entries() []domain.KnowledgeEntry {
	return c.current().entries
}

// TitleSuggestions returns up to limit non-empty entry titles in
// knowledge-base order, used for greeting and no-source fallbacks.
func (c *Catalog) TitleSuggestions(limit int) []string {
	var out []string
	for _, entry := range c.current().entries {
		if entry.Title == "" {
			continue
		}
		out = append(out, entry.Title)
		if len(out) == limit {
			break
		}
	}
	return out
}
