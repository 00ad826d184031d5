package usecase

import (
	"regexp"
	"strings"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// Retention and deletion facts must never be left to open-ended
// generation. When the user asks about lost or deleted files and the
// retrieved entries mention a retention or deletion policy, the answer
// is synthesized from a fixed template instead.
var (
	policyIntentRe    = regexp.MustCompile(`(?i)(lost|lose|recover|restore|deleted?|missing|find my (file|document))`)
	retentionCueRe    = regexp.MustCompile(`(?i)(retain|kept|store|stored|save|saved).*\b(hour|day|week|month)s?`)
	deletionCueRe     = regexp.MustCompile(`(?i)(delete|deleted|removed|purge|destroy)`)
	retentionWindowRe = regexp.MustCompile(`(?i)\b\d+\s*(minute|hour|day|week|month)s?\b`)
)

// synthesizePolicyAnswer returns a deterministic retention/deletion
// answer, or "" when the query or the candidates give no policy
// grounds.
func synthesizePolicyAnswer(query string, candidates []domain.Candidate) string {
	if !policyIntentRe.MatchString(query) {
		return ""
	}
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts = append(parts, c.Entry.Question+"\n"+c.Entry.Answer)
	}
	text := strings.ToLower(strings.Join(parts, "\n\n"))

	mentionsRetention := retentionCueRe.MatchString(text)
	mentionsDeletion := deletionCueRe.MatchString(text)
	if !mentionsRetention && !mentionsDeletion {
		return ""
	}

	var lines []string
	if window := retentionWindowRe.FindString(text); window != "" {
		lines = append(lines, "Files are retained for up to "+window+" for download.")
	} else {
		lines = append(lines, "Files are retained for a limited time for download.")
	}
	if mentionsDeletion {
		lines = append(lines,
			"After the retention period or if you delete a file, it is removed from our systems.",
			"Once deleted, files cannot be recovered.")
	}
	lines = append(lines, "If you still have the original file, please re-upload it.")
	return strings.Join(lines, " ")
}
