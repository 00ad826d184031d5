package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// AuditRepository is the append-only sink for safety and quality
// records. Nothing here is ever updated or deleted by the service.
type AuditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082802)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS adverse_events (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL,
	caller TEXT NOT NULL DEFAULT '',
	user_agent TEXT NOT NULL DEFAULT '',
	message TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS unanswered_queries (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL,
	message TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS feedback (
	id BIGSERIAL PRIMARY KEY,
	at TIMESTAMPTZ NOT NULL,
	vote TEXT NOT NULL,
	message TEXT NOT NULL,
	answer TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_adverse_events_at ON adverse_events(at DESC);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *AuditRepository) AppendAdverse(ctx context.Context, rec domain.AdverseRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO adverse_events (at, caller, user_agent, message, confidence, reason)
VALUES ($1,$2,$3,$4,$5,$6)
`, rec.At, rec.Caller, rec.UserAgent, rec.Message, rec.Confidence, rec.ReasonTag)
	if err != nil {
		return fmt.Errorf("insert adverse event: %w", err)
	}
	return nil
}

func (r *AuditRepository) AppendUnanswered(ctx context.Context, message string) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO unanswered_queries (at, message)
VALUES ($1,$2)
`, time.Now().UTC(), message)
	if err != nil {
		return fmt.Errorf("insert unanswered query: %w", err)
	}
	return nil
}

func (r *AuditRepository) AppendFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO feedback (at, vote, message, answer)
VALUES ($1,$2,$3,$4)
`, rec.At, string(rec.Vote), rec.Message, rec.Answer)
	if err != nil {
		return fmt.Errorf("insert feedback: %w", err)
	}
	return nil
}
