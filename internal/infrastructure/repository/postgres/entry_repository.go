package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// EntryRepository persists the knowledge base. Entries carry an
// explicit position so ListEntries returns them in a stable order the
// indices can rely on.
type EntryRepository struct {
	db *sql.DB
}

func NewEntryRepository(db *sql.DB) *EntryRepository {
	return &EntryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *EntryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS faq_entries (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	question TEXT NOT NULL,
	answer TEXT NOT NULL,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	position BIGSERIAL
);

CREATE INDEX IF NOT EXISTS idx_faq_entries_position ON faq_entries(position);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

func (r *EntryRepository) ListEntries(ctx context.Context) ([]domain.KnowledgeEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, title, question, answer, tags
FROM faq_entries
ORDER BY position
`)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.KnowledgeEntry
	for rows.Next() {
		var entry domain.KnowledgeEntry
		var tagsRaw []byte
		if err := rows.Scan(&entry.ID, &entry.Title, &entry.Question, &entry.Answer, &tagsRaw); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if err := json.Unmarshal(tagsRaw, &entry.Tags); err != nil {
			return nil, fmt.Errorf("unmarshal tags: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// ReplaceEntries swaps the whole knowledge base in one transaction so
// readers never observe a partial set.
func (r *EntryRepository) ReplaceEntries(ctx context.Context, entries []domain.KnowledgeEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM faq_entries`); err != nil {
		return fmt.Errorf("clear entries: %w", err)
	}
	if err := insertEntries(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func (r *EntryRepository) AppendEntries(ctx context.Context, entries []domain.KnowledgeEntry) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := insertEntries(ctx, tx, entries); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit append tx: %w", err)
	}
	return nil
}

func insertEntries(ctx context.Context, tx *sql.Tx, entries []domain.KnowledgeEntry) error {
	for _, entry := range entries {
		tagsJSON, err := json.Marshal(entry.Tags)
		if err != nil {
			return fmt.Errorf("marshal tags: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO faq_entries (id, title, question, answer, tags)
VALUES ($1,$2,$3,$4,$5)
`, entry.ID, entry.Title, entry.Question, entry.Answer, tagsJSON); err != nil {
			return fmt.Errorf("insert entry %s: %w", entry.ID, err)
		}
	}
	return nil
}
