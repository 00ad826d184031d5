package usecase

import (
	"sort"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// lexicalDamping lightly discounts lexical scores so semantic hits win
// ties, while still letting lexical matches surface when embeddings
// are weak or absent.
const lexicalDamping = 0.9

// fuseCandidates merges semantic and lexical candidate lists into one
// ranking deduplicated by entry id. Semantic scores are taken as-is;
// lexical scores are damped. On id collision the higher score wins.
// Ties keep first-insertion order, semantic before lexical.
func fuseCandidates(semantic, lexical []domain.Candidate, k int) []domain.Candidate {
	if k <= 0 {
		return nil
	}
	merged := make([]domain.Candidate, 0, len(semantic)+len(lexical))
	byID := make(map[string]int, len(semantic)+len(lexical))

	for _, c := range semantic {
		if at, ok := byID[c.Entry.ID]; ok {
			if c.Score > merged[at].Score {
				merged[at] = c
			}
			continue
		}
		byID[c.Entry.ID] = len(merged)
		merged = append(merged, c)
	}
	for _, c := range lexical {
		damped := domain.Candidate{Entry: c.Entry, Score: min(1, c.Score*lexicalDamping), Mode: domain.ModeLexical}
		if at, ok := byID[c.Entry.ID]; ok {
			if damped.Score > merged[at].Score {
				merged[at] = damped
			}
			continue
		}
		byID[c.Entry.ID] = len(merged)
		merged = append(merged, damped)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	return merged
}
