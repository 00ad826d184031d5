package safety

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/bubble-support/faq-bot/internal/core/domain"
	"github.com/bubble-support/faq-bot/internal/core/ports"
)

const (
	adverseThreshold  = 1.0
	blendWeight       = 1.5
	blendFlipProb     = 0.65
	trainedAcceptMin  = 0.5
	confidenceDivisor = 4.0
)

// Classifier is the layered safety and intent pipeline. Every stage
// may only add a positive verdict, never veto one, which keeps the
// policy false-negative averse by construction.
type Classifier struct {
	rulesPath string
	confirmer ports.Confirmer
	logger    *slog.Logger

	rules        atomic.Pointer[ruleSet]
	intentModel  atomic.Pointer[bayesModel]
	adverseModel *bayesModel
}

func NewClassifier(rulesPath string, confirmer ports.Confirmer, logger *slog.Logger) (*Classifier, error) {
	c := &Classifier{
		rulesPath:    rulesPath,
		confirmer:    confirmer,
		logger:       logger,
		adverseModel: trainBayes(adverseSeedDocs),
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the rules file and retrains the intent model from
// its examples. In-flight classifications keep the set they started
// with.
func (c *Classifier) Reload() error {
	rs, err := loadRuleSet(c.rulesPath)
	if err != nil {
		return err
	}
	c.rules.Store(rs)
	if len(rs.examples) > 0 {
		c.intentModel.Store(trainBayes(rs.examples))
	}
	c.logger.Info("intent rules loaded", "products", len(rs.products), "examples", len(rs.examples))
	return nil
}

// ClassifyIntent runs the rule stage then the trained stage. The rule
// stage wins on first pattern match at a fixed 0.6 score; the trained
// stage accepts only its top in-namespace label at >= 0.5.
func (c *Classifier) ClassifyIntent(text, product string) domain.IntentResult {
	none := domain.IntentResult{Label: domain.IntentNone, Source: domain.IntentSourceRule}
	if strings.TrimSpace(text) == "" {
		return none
	}
	rs := c.rules.Load()
	if rs == nil {
		return none
	}
	if res, ok := rs.match(text, product); ok {
		return res
	}
	model := c.intentModel.Load()
	if model == nil {
		return none
	}
	for _, scored := range model.classify(text) {
		if !strings.HasPrefix(scored.label, product+".") && !strings.HasPrefix(scored.label, "default.") {
			continue
		}
		if scored.score < trainedAcceptMin {
			return none
		}
		_, label, _ := strings.Cut(scored.label, ".")
		return domain.IntentResult{Label: label, Score: scored.score, Source: domain.IntentSourceTrained}
	}
	return none
}

// DetectAdverse blends the cue heuristic with the trained binary model
// and, when configured, an external confirmation. The external stage
// can escalate but never overturns a local positive.
func (c *Classifier) DetectAdverse(ctx context.Context, message string) domain.ClassificationResult {
	score := adverseHeuristicScore(message)
	adverse := score >= adverseThreshold

	prob := c.adverseModel.probability(message, labelAdverse)
	score += prob * blendWeight
	if !adverse && prob >= blendFlipProb {
		adverse = true
	}

	if c.confirmer != nil {
		external, confidence, err := c.confirmer.ConfirmAdverse(ctx, message)
		if err == nil {
			conf := clamp(max(confidence, score/confidenceDivisor), 0.2, 1)
			return domain.ClassificationResult{
				IsAdverse:  adverse || external,
				Confidence: conf,
				ReasonTag:  "llm+heuristic",
			}
		}
		c.logger.Debug("external adverse confirmation unavailable", "error", err)
	}

	return domain.ClassificationResult{
		IsAdverse:  adverse,
		Confidence: clamp(score/confidenceDivisor, 0.2, 1),
		ReasonTag:  "heuristic",
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

