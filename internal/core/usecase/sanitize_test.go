package usecase

import (
	"strings"
	"testing"
)

func TestSanitizeTokenDropsSuggestionFragment(t *testing.T) {
	got := sanitizeToken("See FAQ #2 for details. Related topics might include X.")
	if strings.TrimSpace(got) != "" {
		t.Fatalf("expected empty fragment, got %q", got)
	}
}

func TestSanitizeTokenStripsCitations(t *testing.T) {
	got := sanitizeToken("Upload the file again [#1] and retry ([2]).")
	if strings.Contains(got, "[") || strings.Contains(got, "#") {
		t.Fatalf("citation survived: %q", got)
	}
	if !strings.Contains(got, "Upload the file again") {
		t.Fatalf("content lost: %q", got)
	}
}

func TestSanitizeTokenKeepsPlainText(t *testing.T) {
	in := "Files are retained for 7 days."
	if got := sanitizeToken(in); got != in {
		t.Fatalf("plain token altered: %q", got)
	}
}

func TestSanitizeTokenDropsResidualCueWords(t *testing.T) {
	if got := sanitizeToken("Perhaps this is what you wanted"); got != "" {
		t.Fatalf("expected cue-word fragment dropped, got %q", got)
	}
}

func TestSanitizeAnswerRemovesRelatedTopicsParagraph(t *testing.T) {
	in := "You can reset your password from settings.\n\nRelated topics: billing, account recovery."
	got := sanitizeAnswer(in)
	if strings.Contains(strings.ToLower(got), "related topics") {
		t.Fatalf("related-topics paragraph survived: %q", got)
	}
	if !strings.Contains(got, "reset your password") {
		t.Fatalf("answer body lost: %q", got)
	}
}

func TestSanitizeAnswerStripsFAQReferences(t *testing.T) {
	got := sanitizeAnswer("Check the retention policy (FAQ #3) before deleting.")
	if strings.Contains(strings.ToLower(got), "faq") {
		t.Fatalf("faq reference survived: %q", got)
	}
}

func TestSanitizeAnswerCollapsesBlankLines(t *testing.T) {
	got := sanitizeAnswer("First.\n\n\n\nSecond.")
	if strings.Contains(got, "\n\n\n") {
		t.Fatalf("blank lines not collapsed: %q", got)
	}
}
