package usecase

import (
	"regexp"
	"strings"
)

// The generation prompt forbids citations and inline suggestion
// sections, but models leak them anyway. Tokens are scrubbed as they
// stream and the full answer is scrubbed once more before the done
// event.
var (
	parenBracketCiteRe = regexp.MustCompile(`\(\s*\[\s*#?\d+\s*\]\s*\)`)
	bracketCiteRe      = regexp.MustCompile(`\[\s*#?\d+\s*\]`)
	parenFAQRefRe      = regexp.MustCompile(`(?i)\(\s*faq\s*#?\d+\s*\)`)
	faqRefRe           = regexp.MustCompile(`(?i)faq\s*#?\d+`)

	seeFAQSentenceRe     = regexp.MustCompile(`(?i)(^|\n)[^\n]*\bsee\b[^\n]*\bfaq\s*#?\d+[^\n]*(\.|\n)`)
	seeBracketSentenceRe = regexp.MustCompile(`(?i)(^|\n)[^\n]*\bsee\b[^\n]*\[\s*#?\d+\s*\][^\n]*(\.|\n)`)
	bracketSentenceRe    = regexp.MustCompile(`(^|\n)[^\n]*\[\s*#?\d+\s*\][^\n]*(\.|\n)`)

	relatedParagraphRe    = regexp.MustCompile(`(?i)^\s*(related topics|you might also ask)`)
	relatedSentenceRe     = regexp.MustCompile(`(?i)(^|\n)\s*(related topics|you might also ask)[^.\n]*(\.|\n)`)
	relatedIncludeRe      = regexp.MustCompile(`(?i)(^|\n)\s*related topics\s+include[^\n]*(\.|\n)`)
	helpfulSentenceRe     = regexp.MustCompile(`(?i)(^|\n)[^\n]*\b(perhaps|maybe)\b[^\n]*\bmight be helpful\b[^\n]*(\.|\n)`)
	mightHelpSentenceRe   = regexp.MustCompile(`(?i)(^|\n)[^\n]*(\b(perhaps|maybe)\b)?[^\n]*\bmight help\b[^\n]*(\.|\n)`)
	topicsMightHelpLineRe = regexp.MustCompile(`(?i)(^|\n)[^\n]*\btopics\b[^\n]*\bmight help\b[^\n]*(\.|\n)`)

	relatedInlineRe    = regexp.MustCompile(`(?i)\b(related topics|you might also ask)\b[^\n]*`)
	suggestionInlineRe = regexp.MustCompile(`(?i)\b(perhaps|maybe)\b[^\n]*(you\s+(meant\s+to\s+ask|might\s+mean|may\s+mean)|might\s+be\s+helpful|might\s+help)[^\n]*`)
	topicsInlineRe     = regexp.MustCompile(`(?i)\btopics\b[^\n]*\bmight\s+help\b[^\n]*`)
	suggestionCueRe    = regexp.MustCompile(`(?i)\b(perhaps|maybe|related topics|faq|might\s+help)\b`)

	paragraphSplitRe = regexp.MustCompile(`\n\n+`)
	blankLinesRe     = regexp.MustCompile(`\n{3,}`)
	spaceRunsRe      = regexp.MustCompile(`\s{3,}`)
)

// sanitizeToken scrubs one streamed fragment. When suggestion cues
// survive the inline scrubbing the whole fragment is dropped rather
// than risk a half-removed suggestion reaching the client.
func sanitizeToken(tok string) string {
	s := tok
	s = seeFAQSentenceRe.ReplaceAllString(s, "${1}")
	s = parenBracketCiteRe.ReplaceAllString(s, "")
	s = bracketCiteRe.ReplaceAllString(s, "")
	s = faqRefRe.ReplaceAllString(s, "")
	s = relatedInlineRe.ReplaceAllString(s, "")
	s = suggestionInlineRe.ReplaceAllString(s, "")
	s = topicsInlineRe.ReplaceAllString(s, "")
	if suggestionCueRe.MatchString(s) {
		return ""
	}
	return s
}

// sanitizeAnswer scrubs a complete answer before the done event. It is
// more thorough than sanitizeToken because it can see sentence and
// paragraph boundaries the token stream splits apart.
func sanitizeAnswer(text string) string {
	paragraphs := paragraphSplitRe.Split(text, -1)
	kept := paragraphs[:0]
	for _, p := range paragraphs {
		if relatedParagraphRe.MatchString(strings.TrimSpace(p)) {
			continue
		}
		kept = append(kept, p)
	}
	t := strings.Join(kept, "\n\n")

	t = relatedSentenceRe.ReplaceAllString(t, "${1}")
	t = helpfulSentenceRe.ReplaceAllString(t, "${1}")
	t = mightHelpSentenceRe.ReplaceAllString(t, "${1}")
	t = parenFAQRefRe.ReplaceAllString(t, "")
	t = faqRefRe.ReplaceAllString(t, "")
	t = parenBracketCiteRe.ReplaceAllString(t, "")
	t = bracketCiteRe.ReplaceAllString(t, "")
	t = bracketSentenceRe.ReplaceAllString(t, "${1}")
	t = seeFAQSentenceRe.ReplaceAllString(t, "${1}")
	t = seeBracketSentenceRe.ReplaceAllString(t, "${1}")
	t = relatedIncludeRe.ReplaceAllString(t, "${1}")
	t = topicsMightHelpLineRe.ReplaceAllString(t, "${1}")

	t = strings.TrimSpace(blankLinesRe.ReplaceAllString(t, "\n\n"))
	t = spaceRunsRe.ReplaceAllString(t, " ")
	return t
}
