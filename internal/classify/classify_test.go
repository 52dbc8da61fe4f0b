package classify

import (
	"reflect"
	"testing"

	"radar/internal/core"
)

func testCompany(name string, domains ...string) *core.Company {
	return &core.Company{Name: name, Domains: domains}
}

func TestClassify_FundingHeadline(t *testing.T) {
	classifier := New()
	article := core.Article{
		Title: "Toma raises $20M Series A",
		URL:   "https://techcrunch.com/2026/08/01/toma-raises-20m",
	}

	signal := classifier.Classify(article, testCompany("Toma", "toma.ai"))

	if signal.Category != core.CategoryFunding {
		t.Fatalf("expected FUNDING, got %s", signal.Category)
	}
	if signal.Confidence < 0.8 {
		t.Errorf("expected confidence >= 0.8, got %f", signal.Confidence)
	}
	if signal.Severity < 0.6 {
		t.Errorf("expected severity >= 0.6, got %f", signal.Severity)
	}
	if len(signal.MatchedTerms) == 0 {
		t.Error("a classified signal must carry at least one matched term")
	}
}

func TestClassify_NoMatchYieldsNone(t *testing.T) {
	classifier := New()
	article := core.Article{Title: "Weather stays mild this weekend"}

	signal := classifier.Classify(article, testCompany("Toma"))

	if signal.Category != core.CategoryNone {
		t.Errorf("expected NONE, got %s", signal.Category)
	}
	if len(signal.MatchedTerms) != 0 {
		t.Errorf("NONE must carry no matched terms, got %v", signal.MatchedTerms)
	}
	if signal.Confidence != 0 || signal.Severity != 0 {
		t.Errorf("NONE must have zero scores, got conf=%f sev=%f", signal.Confidence, signal.Severity)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	classifier := New()
	article := core.Article{
		Title:   "Acme appoints new CEO after layoffs",
		Snippet: "The company announced staff cuts last month.",
		URL:     "https://example.com/acme",
	}
	company := testCompany("Acme", "acme.io")

	first := classifier.Classify(article, company)
	for i := 0; i < 5; i++ {
		again := classifier.Classify(article, company)
		if again.Category != first.Category ||
			again.Confidence != first.Confidence ||
			again.Severity != first.Severity ||
			!reflect.DeepEqual(again.MatchedTerms, first.MatchedTerms) {
			t.Fatalf("classification is not deterministic: %+v vs %+v", first, again)
		}
	}
}

func TestClassify_HighestAggregateWeightWins(t *testing.T) {
	classifier := New()
	// Two layoffs patterns outweigh one exec-change pattern.
	article := core.Article{Title: "Acme CEO confirms layoffs and job cuts"}

	signal := classifier.Classify(article, testCompany("Acme"))

	if signal.Category != core.CategoryLayoffs {
		t.Errorf("expected LAYOFFS to win on aggregate weight, got %s", signal.Category)
	}
}

func TestClassify_TieBreaksByPriorityOrder(t *testing.T) {
	rules := []CategoryRule{
		{Category: core.CategoryFunding, BaseSeverity: 0.85, Patterns: []Pattern{pat(`\bfoo\b`, 0.9)}},
		{Category: core.CategoryHiring, BaseSeverity: 0.55, Patterns: []Pattern{pat(`\bbar\b`, 0.9)}},
	}
	classifier := NewWithRules(rules)

	signal := classifier.Classify(core.Article{Title: "foo bar"}, testCompany("Acme"))

	if signal.Category != core.CategoryFunding {
		t.Errorf("tied weights should resolve by table order, got %s", signal.Category)
	}
}

func TestClassify_TitleMentionBonus(t *testing.T) {
	classifier := New()
	withMention := classifier.Classify(core.Article{Title: "Acme unveils new platform"}, testCompany("Acme"))
	withoutMention := classifier.Classify(core.Article{Title: "Startup unveils new platform"}, testCompany("Acme"))

	if withMention.Confidence <= withoutMention.Confidence {
		t.Errorf("headline mention should raise confidence: %f vs %f",
			withMention.Confidence, withoutMention.Confidence)
	}
}

func TestClassify_AuthorityDomainRaisesSeverity(t *testing.T) {
	classifier := New()
	authority := classifier.Classify(core.Article{
		Title: "Acme announces layoffs", URL: "https://techcrunch.com/a",
	}, testCompany("Acme"))
	unknown := classifier.Classify(core.Article{
		Title: "Acme announces layoffs", URL: "https://smallblog.example.com/a",
	}, testCompany("Acme"))

	if authority.Severity <= unknown.Severity {
		t.Errorf("authority outlet should raise severity: %f vs %f",
			authority.Severity, unknown.Severity)
	}
}

func TestClassify_SeverityOrderingAcrossCategories(t *testing.T) {
	classifier := New()
	incident := classifier.Classify(core.Article{Title: "Acme hit by data breach"}, testCompany("Acme"))
	hiring := classifier.Classify(core.Article{Title: "Acme is hiring"}, testCompany("Acme"))

	if incident.Severity <= hiring.Severity {
		t.Errorf("security incidents must outrank hiring: %f vs %f",
			incident.Severity, hiring.Severity)
	}
}
