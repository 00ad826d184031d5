package safety

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

const testRulesYAML = `products:
  default:
    policy:
      - label: file_recovery
        patterns:
          - '\b(lost|recover|restore)\b.*\b(file|document)s?\b'
        examples:
          - I lost my uploaded file
          - how do I recover a deleted document
          - can you restore my missing files
    adverse:
      - label: self_harm
        patterns:
          - '\b(suicide|kill myself|end my life)\b'
        examples:
          - I want to end my life
          - thinking about suicide
      - label: medical_emergency
        patterns:
          - '\b(anaphylaxis|chest pain|unconscious)\b'
        examples:
          - severe chest pain right now
          - he is unconscious and not breathing
  acme:
    policy:
      - label: file_recovery
        patterns:
          - '\bacme vault\b.*\blost\b'
        examples:
          - my acme vault backup is lost
`

func writeRules(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intents.yaml")
	if err := os.WriteFile(path, []byte(testRulesYAML), 0o644); err != nil {
		t.Fatalf("write rules: %v", err)
	}
	return path
}

func newTestClassifier(t *testing.T, confirmer *stubConfirmer) *Classifier {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	var c *Classifier
	var err error
	if confirmer != nil {
		c, err = NewClassifier(writeRules(t), confirmer, logger)
	} else {
		c, err = NewClassifier(writeRules(t), nil, logger)
	}
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	return c
}

type stubConfirmer struct {
	adverse    bool
	confidence float64
	err        error
	calls      int
}

func (s *stubConfirmer) ConfirmAdverse(ctx context.Context, message string) (bool, float64, error) {
	s.calls++
	return s.adverse, s.confidence, s.err
}

func TestClassifyIntentRuleFirstMatchWins(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.ClassifyIntent("I lost my uploaded file yesterday", "default")
	if got.Label != domain.IntentFileRecovery {
		t.Fatalf("expected file_recovery, got %s", got.Label)
	}
	if got.Score != 0.6 || got.Source != domain.IntentSourceRule {
		t.Fatalf("rule matches are fixed at 0.6/rule, got %+v", got)
	}
}

func TestClassifyIntentUnknownProductFallsBackToDefault(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.ClassifyIntent("I lost my uploaded file yesterday", "no-such-product")
	if got.Label != domain.IntentFileRecovery {
		t.Fatalf("expected default-bucket fallback, got %s", got.Label)
	}
}

func TestClassifyIntentProductSpecificRules(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.ClassifyIntent("my acme vault backup got lost", "acme")
	if got.Label != domain.IntentFileRecovery || got.Source != domain.IntentSourceRule {
		t.Fatalf("expected acme rule match, got %+v", got)
	}
}

func TestClassifyIntentNoneWhenNothingMatches(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.ClassifyIntent("what are the pricing tiers", "default")
	if got.Label != domain.IntentNone {
		t.Fatalf("expected none, got %s (score %v, source %s)", got.Label, got.Score, got.Source)
	}
}

func TestClassifyIntentEmptyMessage(t *testing.T) {
	c := newTestClassifier(t, nil)
	if got := c.ClassifyIntent("   ", "default"); got.Label != domain.IntentNone {
		t.Fatalf("expected none for empty message, got %s", got.Label)
	}
}

func TestDetectAdverseSevereCueDominatesNegation(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.DetectAdverse(context.Background(), "no idea what happened but she has anaphylaxis")
	if !got.IsAdverse {
		t.Fatal("severe cue must mark the message adverse despite a negation term")
	}
}

func TestDetectAdverseNeutralMessage(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.DetectAdverse(context.Background(), "where can I change my billing address")
	if got.IsAdverse {
		t.Fatalf("neutral message flagged adverse: %+v", got)
	}
	if got.Confidence < 0.2 || got.Confidence > 1 {
		t.Fatalf("confidence outside clamp range: %v", got.Confidence)
	}
}

func TestDetectAdverseAllergicReaction(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.DetectAdverse(context.Background(), "I think I might have had an allergic reaction")
	if !got.IsAdverse {
		t.Fatal("expected allergic reaction to be adverse")
	}
	if got.ReasonTag != "heuristic" {
		t.Fatalf("expected heuristic reason without confirmer, got %s", got.ReasonTag)
	}
}

func TestDetectAdverseExternalCannotVetoPositive(t *testing.T) {
	confirmer := &stubConfirmer{adverse: false, confidence: 0.1}
	c := newTestClassifier(t, confirmer)

	got := c.DetectAdverse(context.Background(), "severe allergic reaction and swelling")
	if !got.IsAdverse {
		t.Fatal("external confirmation must never veto a local positive")
	}
	if confirmer.calls != 1 {
		t.Fatalf("expected one confirmation call, got %d", confirmer.calls)
	}
	if got.ReasonTag != "llm+heuristic" {
		t.Fatalf("expected combined reason tag, got %s", got.ReasonTag)
	}
}

func TestDetectAdverseExternalCanEscalate(t *testing.T) {
	confirmer := &stubConfirmer{adverse: true, confidence: 0.9}
	c := newTestClassifier(t, confirmer)

	got := c.DetectAdverse(context.Background(), "something feels wrong after the procedure")
	if !got.IsAdverse {
		t.Fatal("external positive vote must escalate")
	}
	if got.Confidence != 0.9 {
		t.Fatalf("expected external confidence to win the max, got %v", got.Confidence)
	}
}

func TestDetectAdverseConfirmerFailureFallsBack(t *testing.T) {
	confirmer := &stubConfirmer{err: errors.New("service down")}
	c := newTestClassifier(t, confirmer)

	got := c.DetectAdverse(context.Background(), "I have a rash and swelling after use")
	if !got.IsAdverse {
		t.Fatal("expected heuristic decision to stand")
	}
	if got.ReasonTag != "heuristic" {
		t.Fatalf("expected heuristic fallback tag, got %s", got.ReasonTag)
	}
}

func TestDetectAdverseLostFilePattern(t *testing.T) {
	c := newTestClassifier(t, nil)

	got := c.DetectAdverse(context.Background(), "I accidentally deleted my important files")
	if !got.IsAdverse {
		t.Fatal("lost-file pattern must mark the message adverse")
	}
}

func TestReloadPicksUpNewRules(t *testing.T) {
	path := writeRules(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c, err := NewClassifier(path, nil, logger)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}

	updated := testRulesYAML + `  zen:
    policy:
      - label: billing_dispute
        patterns:
          - '\bwrong charge\b'
        examples:
          - there is a wrong charge on my invoice
`
	if err := os.WriteFile(path, []byte(updated), 0o644); err != nil {
		t.Fatalf("rewrite rules: %v", err)
	}
	if err := c.Reload(); err != nil {
		t.Fatalf("reload: %v", err)
	}

	got := c.ClassifyIntent("I found a wrong charge today", "zen")
	if got.Label != "billing_dispute" {
		t.Fatalf("expected reloaded rule to match, got %s", got.Label)
	}
}
