package ports

import (
	"context"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// ChatService is the primary inbound port. Stream drives the
// token/meta/done protocol through emit; Answer is the buffered
// single-response equivalent.
type ChatService interface {
	Answer(ctx context.Context, req domain.ChatRequest) (domain.Answer, error)
	Stream(ctx context.Context, req domain.ChatRequest, emit func(domain.StreamEvent) error) error
	Search(ctx context.Context, query string, k int) ([]domain.Candidate, error)
}

// KnowledgeAdmin manages the knowledge base contents and triggers
// snapshot rebuilds.
type KnowledgeAdmin interface {
	List(ctx context.Context) ([]domain.KnowledgeEntry, error)
	Replace(ctx context.Context, entries []domain.KnowledgeEntry, appendOnly bool) (int, error)
}
