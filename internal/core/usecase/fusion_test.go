package usecase

import (
	"math"
	"testing"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

func candidate(id string, score float64, mode domain.RetrievalMode) domain.Candidate {
	return domain.Candidate{Entry: domain.KnowledgeEntry{ID: id, Title: id}, Score: score, Mode: mode}
}

func TestFuseCandidatesMaxWinsPerID(t *testing.T) {
	semantic := []domain.Candidate{candidate("a", 0.5, domain.ModeSemantic)}
	lexical := []domain.Candidate{candidate("a", 0.9, domain.ModeLexical)}

	fused := fuseCandidates(semantic, lexical, 8)
	if len(fused) != 1 {
		t.Fatalf("expected dedup to 1 candidate, got %d", len(fused))
	}
	want := math.Max(0.5, 0.9*lexicalDamping)
	if math.Abs(fused[0].Score-want) > 1e-9 {
		t.Fatalf("fused score: got %v want %v", fused[0].Score, want)
	}
	if fused[0].Mode != domain.ModeLexical {
		t.Fatalf("expected winning lexical candidate kept, got %s", fused[0].Mode)
	}
}

func TestFuseCandidatesSemanticWinsOnEqualRaw(t *testing.T) {
	semantic := []domain.Candidate{candidate("a", 0.8, domain.ModeSemantic)}
	lexical := []domain.Candidate{candidate("a", 0.8, domain.ModeLexical)}

	fused := fuseCandidates(semantic, lexical, 8)
	if fused[0].Mode != domain.ModeSemantic {
		t.Fatalf("expected damping to favor semantic on equal raw score, got %s", fused[0].Mode)
	}
	if math.Abs(fused[0].Score-0.8) > 1e-9 {
		t.Fatalf("expected native semantic score, got %v", fused[0].Score)
	}
}

func TestFuseCandidatesLexicalOnlyPassthrough(t *testing.T) {
	lexical := []domain.Candidate{
		candidate("a", 0.9, domain.ModeLexical),
		candidate("b", 0.4, domain.ModeLexical),
	}

	fused := fuseCandidates(nil, lexical, 8)
	if len(fused) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(fused))
	}
	if fused[0].Entry.ID != "a" || fused[1].Entry.ID != "b" {
		t.Fatalf("lexical-only ranking reordered: %s, %s", fused[0].Entry.ID, fused[1].Entry.ID)
	}
}

func TestFuseCandidatesTruncatesToK(t *testing.T) {
	semantic := []domain.Candidate{
		candidate("a", 0.9, domain.ModeSemantic),
		candidate("b", 0.8, domain.ModeSemantic),
		candidate("c", 0.7, domain.ModeSemantic),
	}
	fused := fuseCandidates(semantic, nil, 2)
	if len(fused) != 2 {
		t.Fatalf("expected truncation to 2, got %d", len(fused))
	}
}

func TestFuseCandidatesStableTies(t *testing.T) {
	semantic := []domain.Candidate{candidate("first", 0.5, domain.ModeSemantic)}
	lexical := []domain.Candidate{candidate("second", 0.5/lexicalDamping, domain.ModeLexical)}

	fused := fuseCandidates(semantic, lexical, 8)
	if len(fused) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(fused))
	}
	if fused[0].Entry.ID != "first" {
		t.Fatalf("tie broke against insertion order: got %s first", fused[0].Entry.ID)
	}
}
