package safety

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/bubble-support/faq-bot/internal/core/domain"
)

// IntentRule is one labeled intent with its trigger patterns and
// training examples for the trained stage.
type IntentRule struct {
	Label    string   `yaml:"label"`
	Patterns []string `yaml:"patterns"`
	Examples []string `yaml:"examples"`
}

// ProductRules groups a product's intents. Policy intents drive
// deterministic answers; adverse intents short-circuit the pipeline.
type ProductRules struct {
	Policy  []IntentRule `yaml:"policy"`
	Adverse []IntentRule `yaml:"adverse"`
}

type rulesFile struct {
	Products map[string]ProductRules `yaml:"products"`
}

type compiledRule struct {
	label    string
	patterns []*regexp.Regexp
}

// ruleSet holds compiled per-product rules in declared order, policy
// before adverse. First pattern match wins; declaration order is the
// only tie-break.
type ruleSet struct {
	products map[string][]compiledRule
	examples []trainingDoc
}

func loadRuleSet(path string) (*ruleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent rules: %w", err)
	}
	var file rulesFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse intent rules: %w", err)
	}

	rs := &ruleSet{products: make(map[string][]compiledRule, len(file.Products))}
	for product, cfg := range file.Products {
		ordered := make([]IntentRule, 0, len(cfg.Policy)+len(cfg.Adverse))
		ordered = append(ordered, cfg.Policy...)
		ordered = append(ordered, cfg.Adverse...)
		for _, rule := range ordered {
			compiled := compiledRule{label: rule.Label}
			for _, pat := range rule.Patterns {
				re, err := regexp.Compile("(?i)" + pat)
				if err != nil {
					return nil, fmt.Errorf("intent rule %q pattern %q: %w", rule.Label, pat, err)
				}
				compiled.patterns = append(compiled.patterns, re)
			}
			rs.products[product] = append(rs.products[product], compiled)
			for _, example := range rule.Examples {
				rs.examples = append(rs.examples, trainingDoc{
					label: product + "." + rule.Label,
					text:  example,
				})
			}
		}
	}
	return rs, nil
}

// match runs the rule stage. A product without its own rules falls
// back to the default bucket.
func (rs *ruleSet) match(text, product string) (domain.IntentResult, bool) {
	rules, ok := rs.products[product]
	if !ok {
		rules = rs.products["default"]
	}
	for _, rule := range rules {
		for _, re := range rule.patterns {
			if re.MatchString(text) {
				return domain.IntentResult{Label: rule.label, Score: 0.6, Source: domain.IntentSourceRule}, true
			}
		}
	}
	return domain.IntentResult{}, false
}
