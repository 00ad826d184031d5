package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/core/ports"
)

// KnowledgeAdminUseCase manages knowledge-base contents. Every write
// rebuilds the local snapshot and broadcasts a change notification so
// other replicas rebuild theirs.
type KnowledgeAdminUseCase struct {
	repo    ports.EntryRepository
	catalog *Catalog
	feed    ports.ChangeFeed
	logger  *slog.Logger
}

func NewKnowledgeAdminUseCase(repo ports.EntryRepository, catalog *Catalog, feed ports.ChangeFeed, logger *slog.Logger) *KnowledgeAdminUseCase {
	return &KnowledgeAdminUseCase{repo: repo, catalog: catalog, feed: feed, logger: logger}
}

func (uc *KnowledgeAdminUseCase) List(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	return uc.repo.ListEntries(ctx)
}

// Replace stores the normalized entries, replacing or appending, and
// returns the resulting knowledge-base size.
func (uc *KnowledgeAdminUseCase) Replace(ctx context.Context, entries []domain.KnowledgeEntry, appendOnly bool) (int, error) {
	if len(entries) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "knowledge replace", fmt.Errorf("entries are required"))
	}
	normalized := NormalizeEntries(entries)

	if appendOnly {
		if err := uc.repo.AppendEntries(ctx, normalized); err != nil {
			return 0, err
		}
	} else {
		if err := uc.repo.ReplaceEntries(ctx, normalized); err != nil {
			return 0, err
		}
	}

	if err := uc.catalog.Reload(ctx); err != nil {
		return 0, err
	}
	if uc.feed != nil {
		if err := uc.feed.PublishKnowledgeUpdated(ctx); err != nil {
			uc.logger.Warn("knowledge change broadcast failed", "error", err)
		}
	}

	count := len(uc.catalog.Entries())
	uc.logger.Info("knowledge base updated", "appended", appendOnly, "entries", count)
	return count, nil
}

// NormalizeEntries fills missing ids and titles so downstream code can
// rely on every field being present. Titles default to a question
// prefix.
func NormalizeEntries(entries []domain.KnowledgeEntry) []domain.KnowledgeEntry {
	out := make([]domain.KnowledgeEntry, len(entries))
	for i, entry := range entries {
		if strings.TrimSpace(entry.ID) == "" {
			entry.ID = uuid.NewString()
		}
		if strings.TrimSpace(entry.Title) == "" {
			entry.Title = titleFromQuestion(entry.Question, i)
		}
		if entry.Tags == nil {
			entry.Tags = []string{}
		}
		out[i] = entry
	}
	return out
}

func titleFromQuestion(question string, i int) string {
	q := strings.TrimSpace(question)
	if q == "" {
		return fmt.Sprintf("FAQ %d", i+1)
	}
	if len(q) > 60 {
		return q[:60]
	}
	return q
}
