package usecase

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// lexicalIndex is a TF-IDF index over one immutable knowledge
// snapshot. It is built once per snapshot and never mutated.
type lexicalIndex struct {
	entries []domain.KnowledgeEntry
	idf     map[string]float64
	docs    []sparseVector
}

type sparseVector struct {
	weights map[string]float64
	norm    float64
}

func buildLexicalIndex(entries []domain.KnowledgeEntry) *lexicalIndex {
	df := make(map[string]int)
	tokenized := make([][]string, len(entries))
	for i, entry := range entries {
		tokens := tokenize(entry.IndexText())
		tokenized[i] = tokens
		seen := make(map[string]struct{}, len(tokens))
		for _, t := range tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}

	n := float64(len(entries))
	idf := make(map[string]float64, len(df))
	for term, count := range df {
		idf[term] = math.Log((n+1)/float64(count+1)) + 1
	}

	docs := make([]sparseVector, len(entries))
	for i, tokens := range tokenized {
		docs[i] = weighVector(tokens, idf)
	}

	return &lexicalIndex{entries: entries, idf: idf, docs: docs}
}

// Query scores every entry against the query and returns the top k,
// zero scores included. Ties keep knowledge-base order.
func (ix *lexicalIndex) Query(text string, k int) []domain.Candidate {
	if len(ix.entries) == 0 || k <= 0 {
		return nil
	}
	query := weighVector(tokenize(text), ix.idf)

	candidates := make([]domain.Candidate, len(ix.entries))
	for i, entry := range ix.entries {
		candidates[i] = domain.Candidate{
			Entry: entry,
			Score: cosineSparse(query, ix.docs[i]),
			Mode:  domain.ModeLexical,
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	return candidates
}

// tokenize lowercases, replaces everything outside letters, digits,
// hyphens and whitespace with a space, and splits on whitespace.
func tokenize(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}

// weighVector builds a raw-tf times idf vector. Terms absent from the
// idf table carry zero weight, so queries made only of unseen words
// score zero everywhere.
func weighVector(tokens []string, idf map[string]float64) sparseVector {
	tf := make(map[string]float64, len(tokens))
	for _, t := range tokens {
		tf[t]++
	}
	weights := make(map[string]float64, len(tf))
	var sumSquares float64
	for term, count := range tf {
		weight := count * idf[term]
		if weight == 0 {
			continue
		}
		weights[term] = weight
		sumSquares += weight * weight
	}
	return sparseVector{weights: weights, norm: math.Sqrt(sumSquares)}
}

func cosineSparse(a, b sparseVector) float64 {
	if a.norm == 0 || b.norm == 0 {
		return 0
	}
	// Iterate the smaller map.
	small, large := a.weights, b.weights
	if len(large) < len(small) {
		small, large = large, small
	}
	var dot float64
	for term, w := range small {
		if other, ok := large[term]; ok {
			dot += w * other
		}
	}
	return dot / (a.norm * b.norm)
}
