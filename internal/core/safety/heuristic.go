package safety

import (
	"regexp"
	"strings"
)

// Cue lists for the heuristic adverse stage. Substring matching on the
// lowercased message, scored additively with negation discounts.
var adversePositiveCues = []string{
	"adverse", "side effect", "side-effect", "allergy", "allergic", "injury", "injuries", "harm", "unsafe", "danger", "dangerous",
	"emergency", "accident", "medical issue", "reaction", "rash", "swelling", "bleeding", "pain", "dizzy", "nausea", "vomit", "faint", "burn", "shock",
	"lost document", "lost file", "missing document", "missing file", "data loss", "deleted file", "deleted document", "cannot find document", "cannot find file",
	"lost my mind", "suicide", "suicidal", "self harm", "self-harm", "harm myself", "kill myself", "want to die", "end my life", "panic attack", "anxiety attack",
}

var adverseSevereCues = []string{
	"emergency", "severe", "anaphylaxis", "unconscious", "bleeding", "chest pain", "stroke",
}

var adverseNegationCues = []string{
	"no ", "didn't", "not ", "hasn't", "haven't", "without", "never",
}

var (
	lostItemRe     = regexp.MustCompile(`(lost|missing|deleted|removed)[^\n]{0,40}\b(document|file|files|doc|docs|data)\b`)
	cannotFindRe   = regexp.MustCompile(`(can\s*not|cannot|can['’]t)\s+find[^\n]{0,40}\b(document|file|files|doc|docs|data)\b`)
	mentalCrisisRe = regexp.MustCompile(`(?i)(lost\s+my\s+mind|suicid(e|al)|self[-\s]?harm|harm\s+myself|kill\s+myself|want\s+to\s+die|end\s+my\s+life|panic\s+attack|anxiety\s+attack)`)
)

// adverseHeuristicScore computes the additive cue score for a message.
// Severe cues outweigh negations (+2 vs -0.8) so explicit emergencies
// never get negated away. The floor is zero.
func adverseHeuristicScore(message string) float64 {
	text := strings.ToLower(message)
	var score float64
	for _, cue := range adversePositiveCues {
		if strings.Contains(text, cue) {
			score++
		}
	}
	for _, cue := range adverseSevereCues {
		if strings.Contains(text, cue) {
			score += 2
		}
	}
	for _, cue := range adverseNegationCues {
		if strings.Contains(text, cue) {
			score -= 0.8
		}
	}
	if score < 0 {
		score = 0
	}
	if lostItemRe.MatchString(text) || cannotFindRe.MatchString(text) {
		score += 2.5
	}
	if mentalCrisisRe.MatchString(text) {
		score += 3.0
	}
	return score
}
