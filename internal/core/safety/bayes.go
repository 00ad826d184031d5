package safety

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

type trainingDoc struct {
	label string
	text  string
}

type scoredLabel struct {
	label string
	score float64
}

// bayesModel is a multinomial naive Bayes text classifier with Laplace
// smoothing. Scores are posterior probabilities normalized over the
// trained labels.
type bayesModel struct {
	labels      []string
	docCount    map[string]float64
	tokenCount  map[string]map[string]float64
	totalTokens map[string]float64
	vocab       map[string]struct{}
	totalDocs   float64
}

func trainBayes(docs []trainingDoc) *bayesModel {
	m := &bayesModel{
		docCount:    make(map[string]float64),
		tokenCount:  make(map[string]map[string]float64),
		totalTokens: make(map[string]float64),
		vocab:       make(map[string]struct{}),
	}
	for _, doc := range docs {
		if _, seen := m.docCount[doc.label]; !seen {
			m.labels = append(m.labels, doc.label)
			m.tokenCount[doc.label] = make(map[string]float64)
		}
		m.docCount[doc.label]++
		m.totalDocs++
		for _, tok := range classifierTokens(doc.text) {
			m.tokenCount[doc.label][tok]++
			m.totalTokens[doc.label]++
			m.vocab[tok] = struct{}{}
		}
	}
	sort.Strings(m.labels)
	return m
}

// classify returns every label with its posterior, highest first.
func (m *bayesModel) classify(text string) []scoredLabel {
	if m == nil || m.totalDocs == 0 {
		return nil
	}
	tokens := classifierTokens(text)
	vocabSize := float64(len(m.vocab))

	logPosteriors := make([]float64, len(m.labels))
	for i, label := range m.labels {
		lp := math.Log(m.docCount[label] / m.totalDocs)
		denom := m.totalTokens[label] + vocabSize
		for _, tok := range tokens {
			lp += math.Log((m.tokenCount[label][tok] + 1) / denom)
		}
		logPosteriors[i] = lp
	}

	// Exp-normalize against the max to avoid underflow.
	maxLP := logPosteriors[0]
	for _, lp := range logPosteriors[1:] {
		if lp > maxLP {
			maxLP = lp
		}
	}
	var sum float64
	probs := make([]float64, len(logPosteriors))
	for i, lp := range logPosteriors {
		probs[i] = math.Exp(lp - maxLP)
		sum += probs[i]
	}

	out := make([]scoredLabel, len(m.labels))
	for i, label := range m.labels {
		out[i] = scoredLabel{label: label, score: probs[i] / sum}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].score > out[j].score })
	return out
}

func (m *bayesModel) probability(text, label string) float64 {
	for _, s := range m.classify(text) {
		if s.label == label {
			return s.score
		}
	}
	return 0
}

func classifierTokens(text string) []string {
	lowered := strings.ToLower(text)
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || unicode.IsSpace(r) {
			return r
		}
		return ' '
	}, lowered)
	return strings.Fields(cleaned)
}

// Seed corpus for the binary adverse blend. Deliberately tiny: the
// model only nudges the heuristic score, it never decides alone below
// the flip threshold.
var adverseSeedDocs = func() []trainingDoc {
	adverse := []string{
		"I had an adverse reaction with swelling and dizziness",
		"This is an emergency, I am injured",
		"Severe allergic reaction and rash",
		"I lost my document and cannot find the file",
		"Data loss: deleted my document by accident",
	}
	neutral := []string{
		"How do I upload a file",
		"Can I work from the cloud",
		"What are the system requirements",
		"Where is the pricing page",
		"No side effects, everything is fine",
	}
	docs := make([]trainingDoc, 0, len(adverse)+len(neutral))
	for _, t := range adverse {
		docs = append(docs, trainingDoc{label: labelAdverse, text: t})
	}
	for _, t := range neutral {
		docs = append(docs, trainingDoc{label: labelNeutral, text: t})
	}
	return docs
}()

const (
	labelAdverse = "adverse"
	labelNeutral = "neutral"
)
