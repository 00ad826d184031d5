package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

func TestListEntriesOrdersByPosition(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"id", "title", "question", "answer", "tags"}).
		AddRow("1", "Password reset", "How do I reset?", "Use the link.", []byte(`["account"]`)).
		AddRow("2", "Retention", "How long?", "7 days.", []byte(`[]`))
	mock.ExpectQuery(`SELECT id, title, question, answer, tags\s+FROM faq_entries\s+ORDER BY position`).WillReturnRows(rows)

	repo := NewEntryRepository(db)
	got, err := repo.ListEntries(context.Background())
	if err != nil {
		t.Fatalf("ListEntries() error = %v", err)
	}
	if len(got) != 2 || got[0].ID != "1" || got[1].ID != "2" {
		t.Fatalf("unexpected entries: %+v", got)
	}
	if got[0].Tags[0] != "account" {
		t.Fatalf("tags not decoded: %+v", got[0].Tags)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceEntriesRunsInOneTransaction(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM faq_entries`).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`INSERT INTO faq_entries`).
		WithArgs("a", "T", "Q", "A", []byte(`["x"]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEntryRepository(db)
	err = repo.ReplaceEntries(context.Background(), []domain.KnowledgeEntry{
		{ID: "a", Title: "T", Question: "Q", Answer: "A", Tags: []string{"x"}},
	})
	if err != nil {
		t.Fatalf("ReplaceEntries() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestReplaceEntriesRollsBackOnInsertFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM faq_entries`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO faq_entries`).WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	repo := NewEntryRepository(db)
	err = repo.ReplaceEntries(context.Background(), []domain.KnowledgeEntry{{ID: "a", Tags: []string{}}})
	if err == nil {
		t.Fatal("expected insert failure to surface")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendEntriesInserts(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO faq_entries`).
		WithArgs("b", "T2", "Q2", "A2", []byte(`[]`)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	repo := NewEntryRepository(db)
	err = repo.AppendEntries(context.Background(), []domain.KnowledgeEntry{
		{ID: "b", Title: "T2", Question: "Q2", Answer: "A2", Tags: []string{}},
	})
	if err != nil {
		t.Fatalf("AppendEntries() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
