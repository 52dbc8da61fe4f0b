// Package classify turns a (company, article) pair into a scored Signal
// using a data-driven table of keyword rules. Classification is a pure
// function: no network, no persistence, identical inputs always produce the
// identical Signal.
package classify

import (
	"regexp"
	"strings"

	"radar/internal/core"
)

// Pattern is one trigger for a category: a case-insensitive, word-boundary
// regular expression plus the confidence weight it contributes when matched.
type Pattern struct {
	Expr   *regexp.Regexp
	Weight float64
}

// CategoryRule groups the patterns and base severity for one event category.
// Rule order in the table is the fixed tie-break priority order.
type CategoryRule struct {
	Category     core.EventCategory
	BaseSeverity float64
	Patterns     []Pattern
}

// titleMentionBonus is added to confidence when the company name appears in
// the headline.
const titleMentionBonus = 0.1

// severityStep is added to severity for each matched pattern beyond the first.
const severityStep = 0.05

// authorityBonus is added to severity for articles from high-authority outlets.
const authorityBonus = 0.1

// authorityDomains are outlets whose coverage raises event severity.
var authorityDomains = []string{
	"techcrunch.com", "theverge.com", "wsj.com", "ft.com", "reuters.com", "bloomberg.com",
}

// NewPattern compiles a case-insensitive trigger pattern.
func NewPattern(expr string, weight float64) Pattern {
	return Pattern{Expr: regexp.MustCompile(`(?i)` + expr), Weight: weight}
}

func pat(expr string, weight float64) Pattern {
	return NewPattern(expr, weight)
}

// defaultRules is the ruleset consumed by the generic scorer. Table order is
// the tie-break priority: FUNDING > EXEC_CHANGE > PRODUCT_LAUNCH > AWARD >
// SECURITY_INCIDENT > LAYOFFS > HIRING.
var defaultRules = []CategoryRule{
	{
		Category:     core.CategoryFunding,
		BaseSeverity: 0.85,
		Patterns: []Pattern{
			pat(`\bseries\s+[a-e]\b`, 0.9),
			pat(`\bseed\b`, 0.9),
			pat(`\bpre-seed\b`, 0.9),
			pat(`\bfunding\s+round\b|\braises?\b|\braised\b`, 0.9),
			pat(`\$\s?\d+(\.\d+)?\s?(m|b)\b`, 0.9),
			pat(`\b\d+\s?(million|billion)\b`, 0.9),
		},
	},
	{
		Category:     core.CategoryExecChange,
		BaseSeverity: 0.75,
		Patterns: []Pattern{
			pat(`\bceo\b|\bcto\b|\bcfo\b|\bchief\s+\w+`, 0.75),
			pat(`\bappoints?\b|\bnames\s+new\b|\bsteps\s+down\b|\bresigns?\b`, 0.75),
		},
	},
	{
		Category:     core.CategoryProductLaunch,
		BaseSeverity: 0.65,
		Patterns: []Pattern{
			pat(`\blaunch(es|ed|ing)?\b`, 0.8),
			pat(`\brelease(s|d|ing)?\b`, 0.8),
			pat(`\bunveil(s|ed|ing)?\b`, 0.8),
		},
	},
	{
		Category:     core.CategoryAward,
		BaseSeverity: 0.6,
		Patterns: []Pattern{
			pat(`\baward(s)?\b`, 0.8),
			pat(`\bwinner\b`, 0.8),
			pat(`\brecognition\b|\bhonor(ed)?\b`, 0.8),
		},
	},
	{
		Category:     core.CategorySecurityIncident,
		BaseSeverity: 0.95,
		Patterns: []Pattern{
			pat(`\bdata\s+breach\b`, 0.9),
			pat(`\bsecurity\s+incident\b`, 0.9),
			pat(`\bcyber\s?attack\b|\bransomware\b`, 0.9),
			pat(`\bhacked\b|\bcompromised?\b`, 0.85),
		},
	},
	{
		Category:     core.CategoryLayoffs,
		BaseSeverity: 0.9,
		Patterns: []Pattern{
			pat(`\blayoff(s)?\b`, 0.9),
			pat(`\bworkforce\s+reduction\b|\bheadcount\s+reduction\b`, 0.9),
			pat(`\bstaff\s+cuts?\b|\bjob\s+cuts?\b`, 0.9),
			pat(`\bredundanc(y|ies)\b|\bdownsizing\b`, 0.85),
		},
	},
	{
		Category:     core.CategoryHiring,
		BaseSeverity: 0.55,
		Patterns: []Pattern{
			pat(`\bhiring\b|\bnow\s+hiring\b`, 0.8),
			pat(`\bopen\s+roles\b`, 0.8),
			pat(`\bgrowing\s+team\b|\bexpanding\b`, 0.7),
		},
	},
}

// Classifier scores articles against the category rule table.
type Classifier struct {
	rules []CategoryRule
}

// New creates a classifier with the default ruleset.
func New() *Classifier {
	return &Classifier{rules: defaultRules}
}

// NewWithRules creates a classifier with a custom ruleset, used by tests and
// future per-deployment tuning.
func NewWithRules(rules []CategoryRule) *Classifier {
	return &Classifier{rules: rules}
}

// Classify scans the article's title and snippet against every category's
// patterns and returns the scored Signal. The category with the highest
// aggregate matched weight wins; ties resolve to the earliest rule in the
// table. No match at all yields CategoryNone with zero scores.
func (c *Classifier) Classify(article core.Article, company *core.Company) core.Signal {
	text := article.Title + " " + article.Snippet

	signal := core.Signal{
		Company:  company,
		Article:  article,
		Category: core.CategoryNone,
	}

	var (
		bestWeight  float64
		bestMatches []string
		bestRule    *CategoryRule
	)

	for i := range c.rules {
		rule := &c.rules[i]
		weight := 0.0
		var matches []string
		for _, p := range rule.Patterns {
			if m := p.Expr.FindString(text); m != "" {
				weight += p.Weight
				matches = append(matches, strings.ToLower(m))
			}
		}
		// Strictly-greater keeps the earliest (highest-priority) rule on ties.
		if len(matches) > 0 && weight > bestWeight {
			bestWeight = weight
			bestMatches = matches
			bestRule = rule
		}
	}

	if bestRule == nil {
		return signal
	}

	signal.Category = bestRule.Category
	signal.MatchedTerms = bestMatches
	signal.Confidence = c.scoreConfidence(bestWeight, article, company)
	signal.Severity = c.scoreSeverity(bestRule, len(bestMatches), article.URL)
	return signal
}

// scoreConfidence caps the aggregate matched weight at 1.0 and adds a fixed
// bonus when the company name appears in the headline. Recency never feeds
// confidence; the lookback window is a pipeline-level cutoff.
func (c *Classifier) scoreConfidence(weight float64, article core.Article, company *core.Company) float64 {
	confidence := clamp01(weight)
	if company != nil && company.Name != "" &&
		strings.Contains(strings.ToLower(article.Title), strings.ToLower(company.Name)) {
		confidence += titleMentionBonus
	}
	return clamp01(confidence)
}

// scoreSeverity starts from the category base, adds a step per independent
// matched pattern beyond the first and a bonus for high-authority outlets.
func (c *Classifier) scoreSeverity(rule *CategoryRule, matchCount int, articleURL string) float64 {
	severity := rule.BaseSeverity
	if matchCount > 1 {
		severity += float64(matchCount-1) * severityStep
	}
	lowered := strings.ToLower(articleURL)
	for _, domain := range authorityDomains {
		if strings.Contains(lowered, domain) {
			severity += authorityBonus
			break
		}
	}
	return clamp01(severity)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
