package ports

import (
	"context"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// EntryRepository persists the knowledge base. ListEntries returns
// entries in stable insertion order; ReplaceEntries swaps the whole
// set atomically.
type EntryRepository interface {
	ListEntries(ctx context.Context) ([]domain.KnowledgeEntry, error)
	ReplaceEntries(ctx context.Context, entries []domain.KnowledgeEntry) error
	AppendEntries(ctx context.Context, entries []domain.KnowledgeEntry) error
}

// AuditLog is the sink for safety and quality records. Append failures
// for adverse records are hard errors: the pipeline must not continue
// when an urgent determination cannot be recorded.
type AuditLog interface {
	AppendAdverse(ctx context.Context, rec domain.AdverseRecord) error
	AppendUnanswered(ctx context.Context, message string) error
	AppendFeedback(ctx context.Context, rec domain.FeedbackRecord) error
}

type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Generator produces model text from a system instruction and a
// grounded prompt. GenerateStream calls emit once per token chunk and
// stops on the first emit error.
type Generator interface {
	Generate(ctx context.Context, instruction, prompt string) (string, error)
	GenerateStream(ctx context.Context, instruction, prompt string, emit func(token string) error) error
}

// Confirmer is an optional external second opinion on adverse intent.
// It may escalate a verdict but never overturns a local positive.
type Confirmer interface {
	ConfirmAdverse(ctx context.Context, message string) (adverse bool, confidence float64, err error)
}

// ChangeFeed broadcasts knowledge-base updates so replicas rebuild
// their retrieval snapshots.
type ChangeFeed interface {
	PublishKnowledgeUpdated(ctx context.Context) error
	SubscribeKnowledgeUpdated(ctx context.Context, handler func(ctx context.Context)) error
}

// VectorSnapshotStore persists the semantic index between restarts.
// Load returns (nil, nil) when no snapshot exists yet.
type VectorSnapshotStore interface {
	Load(ctx context.Context) (*domain.EmbeddingSnapshot, error)
	Save(ctx context.Context, snapshot *domain.EmbeddingSnapshot) error
}

// FAQExtractor turns free-form document text into knowledge entries.
type FAQExtractor interface {
	ExtractEntries(ctx context.Context, text string) ([]domain.KnowledgeEntry, error)
}
