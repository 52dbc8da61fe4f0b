package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"radar/internal/classify"
	"radar/internal/core"
	"radar/internal/index"
	"radar/internal/sources"
	"radar/internal/store"
)

// fakeSource returns a fixed article set for every query.
type fakeSource struct {
	name     string
	articles []core.Article
	err      error
}

func (f *fakeSource) Name() string { return f.name }

func (f *fakeSource) Fetch(ctx context.Context, query string, since time.Time) ([]core.Article, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.articles, nil
}

var _ sources.Source = (*fakeSource)(nil)

// recordingSink captures delivered messages and can fail on demand.
type recordingSink struct {
	mu       sync.Mutex
	messages []string
	failNext int
}

func (r *recordingSink) Deliver(ctx context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failNext > 0 {
		r.failNext--
		return errors.New("sink unavailable")
	}
	r.messages = append(r.messages, message)
	return nil
}

func (r *recordingSink) delivered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.messages...)
}

func tomaCompany() *core.Company {
	return &core.Company{
		Name:    "Toma",
		Domains: []string{"toma.ai", "get-toma.com"},
		LocationsWithCounts: []core.LocationCount{
			{Name: "Industrious - Midtown on 50th", Count: 12},
			{Name: "Industrious - Bryant Park", Count: 7},
		},
	}
}

func tomaArticle() core.Article {
	return core.Article{
		SourceName:  "google_news_rss",
		Title:       "Toma raises $20M Series A",
		URL:         "https://techcrunch.com/2026/08/01/toma-raises-20m",
		PublishedAt: time.Now().Add(-24 * time.Hour),
		Snippet:     "The dealership AI startup announced the round today.",
	}
}

func newPipeline(companies []*core.Company, src sources.Source, sink *recordingSink, s store.Store, opts Options) *Pipeline {
	if opts.MinConfidence == 0 {
		opts.MinConfidence = 0.8
	}
	if opts.MinSeverity == 0 {
		opts.MinSeverity = 0.6
	}
	if opts.Lookback == 0 {
		opts.Lookback = 14 * 24 * time.Hour
	}
	return New(index.Build(companies), classify.New(), s, []sources.Source{src}, sink, nil, opts)
}

func TestRun_EndToEndTomaScenario(t *testing.T) {
	companies := []*core.Company{tomaCompany()}
	src := &fakeSource{name: "google_news_rss", articles: []core.Article{tomaArticle()}}
	sink := &recordingSink{}
	memStore := store.NewMemStore()

	p := newPipeline(companies, src, sink, memStore, Options{})
	stats, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Accepted != 1 {
		t.Fatalf("expected exactly 1 accepted event, got %d (%+v)", stats.Accepted, stats)
	}
	messages := sink.delivered()
	if len(messages) != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", len(messages))
	}

	message := messages[0]
	for _, want := range []string{
		"FUNDING: Toma in Industrious - Midtown on 50th",
		"Congratulate them!",
		"https://techcrunch.com/2026/08/01/toma-raises-20m",
	} {
		if !strings.Contains(message, want) {
			t.Errorf("alert missing %q:\n%s", want, message)
		}
	}

	// A later run over the same article must not re-alert.
	p2 := newPipeline(companies, src, sink, memStore, Options{})
	stats2, err := p2.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if stats2.Accepted != 0 || stats2.RejectedDuplicate == 0 {
		t.Errorf("second run should dedup everything: %+v", stats2)
	}
	if len(sink.delivered()) != 1 {
		t.Errorf("expected still 1 delivery after rerun, got %d", len(sink.delivered()))
	}
}

func TestRun_ThresholdBoundaryIsInclusive(t *testing.T) {
	company := &core.Company{Name: "Acme", Domains: []string{"acme.io"}}
	article := core.Article{
		Title:       "industry event coverage",
		URL:         "https://news.example.com/a",
		PublishedAt: time.Now().Add(-time.Hour),
		Snippet:     "acme.io mention",
	}
	// The article must still match the company; give it the domain in the URL.
	article.URL = "https://acme.io/press/a"

	cases := []struct {
		weight float64
		accept bool
	}{
		{0.79, false},
		{0.80, true},
	}
	for _, tc := range cases {
		rules := []classify.CategoryRule{{
			Category:     core.CategoryFunding,
			BaseSeverity: 0.9,
			Patterns:     []classify.Pattern{classify.NewPattern(`\bevent\b`, tc.weight)},
		}}
		sink := &recordingSink{}
		p := New(
			index.Build([]*core.Company{company}),
			classify.NewWithRules(rules),
			store.NewMemStore(),
			[]sources.Source{&fakeSource{name: "fake", articles: []core.Article{article}}},
			sink,
			nil,
			Options{MinConfidence: 0.8, MinSeverity: 0.6, Lookback: 14 * 24 * time.Hour},
		)

		stats, err := p.Run(context.Background(), []*core.Company{company})
		if err != nil {
			t.Fatalf("Run failed: %v", err)
		}
		if got := stats.Accepted == 1; got != tc.accept {
			t.Errorf("weight %.2f: accepted=%v, want %v (%+v)", tc.weight, got, tc.accept, stats)
		}
	}
}

func TestRun_MultiMatchProducesIndependentAlerts(t *testing.T) {
	acme := &core.Company{Name: "Acme", Domains: []string{"acme.io"}}
	toma := &core.Company{Name: "Toma", Domains: []string{"toma.ai"}}
	companies := []*core.Company{acme, toma}

	shared := core.Article{
		Title:       "Acme and Toma announce joint funding round of $50 million",
		URL:         "https://news.example.com/joint",
		PublishedAt: time.Now().Add(-time.Hour),
	}
	src := &fakeSource{name: "fake", articles: []core.Article{shared}}
	sink := &recordingSink{}

	p := newPipeline(companies, src, sink, store.NewMemStore(), Options{})
	stats, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Accepted != 2 {
		t.Fatalf("expected one alert per matched company, got %d (%+v)", stats.Accepted, stats)
	}
	joined := strings.Join(sink.delivered(), "\n---\n")
	if !strings.Contains(joined, "Acme") || !strings.Contains(joined, "Toma") {
		t.Errorf("expected alerts for both companies:\n%s", joined)
	}
}

func TestRun_FetchFailureIsIsolatedPerCompany(t *testing.T) {
	working := tomaCompany()
	companies := []*core.Company{
		{Name: "Broken Co", Domains: []string{"broken.example"}},
		working,
	}

	src := &flakySource{failFor: "Broken Co", articles: []core.Article{tomaArticle()}}
	sink := &recordingSink{}

	p := newPipeline(companies, src, sink, store.NewMemStore(), Options{})
	stats, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.FetchFailures == 0 {
		t.Error("expected fetch failures to be counted")
	}
	if stats.Accepted != 1 {
		t.Errorf("failure for one company must not abort the rest: %+v", stats)
	}
}

// flakySource fails only for queries mentioning one company.
type flakySource struct {
	failFor  string
	articles []core.Article
}

func (f *flakySource) Name() string { return "flaky" }

func (f *flakySource) Fetch(ctx context.Context, query string, since time.Time) ([]core.Article, error) {
	if strings.Contains(query, f.failFor) || strings.Contains(query, "broken.example") {
		return nil, errors.New("transport error")
	}
	return f.articles, nil
}

func TestRun_FailedDeliveryIsRetriedNextRun(t *testing.T) {
	companies := []*core.Company{tomaCompany()}
	src := &fakeSource{name: "fake", articles: []core.Article{tomaArticle()}}
	sink := &recordingSink{failNext: 100} // Every delivery fails this run
	memStore := store.NewMemStore()

	p := newPipeline(companies, src, sink, memStore, Options{})
	stats, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Accepted != 0 || stats.DeliveryFailures == 0 {
		t.Fatalf("expected failed delivery, got %+v", stats)
	}

	// The fingerprint must not be marked, so the next run re-sends.
	sink2 := &recordingSink{}
	p2 := newPipeline(companies, src, sink2, memStore, Options{})
	stats2, err := p2.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if stats2.Accepted != 1 || len(sink2.delivered()) != 1 {
		t.Errorf("expected retry to deliver exactly once: %+v", stats2)
	}
}

func TestRun_OldArticlesAreCutOff(t *testing.T) {
	companies := []*core.Company{tomaCompany()}
	stale := tomaArticle()
	stale.PublishedAt = time.Now().Add(-30 * 24 * time.Hour)

	src := &fakeSource{name: "fake", articles: []core.Article{stale}}
	sink := &recordingSink{}

	p := newPipeline(companies, src, sink, store.NewMemStore(), Options{Lookback: 14 * 24 * time.Hour})
	stats, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if stats.Accepted != 0 || len(sink.delivered()) != 0 {
		t.Errorf("articles outside the lookback window must be dropped: %+v", stats)
	}
}

func TestRun_DryRunDoesNotMarkFingerprints(t *testing.T) {
	companies := []*core.Company{tomaCompany()}
	src := &fakeSource{name: "fake", articles: []core.Article{tomaArticle()}}
	sink := &recordingSink{}
	memStore := store.NewMemStore()

	p := newPipeline(companies, src, sink, memStore, Options{DryRun: true})
	if _, err := p.Run(context.Background(), companies); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(sink.delivered()) != 1 {
		t.Fatalf("dry run should still preview the alert")
	}

	stats, err := memStore.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 0 {
		t.Errorf("dry run must not write dedup records, got %d", stats.Total)
	}
}

func TestRun_ParallelCompaniesStayDeduplicated(t *testing.T) {
	// Many companies share one domain, so the same article fingerprints
	// identically for the shared company and must alert once.
	shared := &core.Company{Name: "Toma", Domains: []string{"toma.ai"}}
	companies := []*core.Company{shared}
	for i := 0; i < 7; i++ {
		companies = append(companies, &core.Company{
			Name:    "Filler " + string(rune('A'+i)),
			Domains: []string{"filler" + string(rune('a'+i)) + ".example"},
		})
	}

	article := tomaArticle()
	src := &fakeSource{name: "fake", articles: []core.Article{article}}
	sink := &recordingSink{}

	p := newPipeline(companies, src, sink, store.NewMemStore(), Options{MaxParallel: 4})
	stats, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.Accepted != 1 {
		t.Errorf("concurrent duplicates must collapse to one alert, got %d accepted", stats.Accepted)
	}
	if len(sink.delivered()) != 1 {
		t.Errorf("expected exactly one delivery, got %d", len(sink.delivered()))
	}
}

// erroringStore fails every dedup lookup while delegating the rest.
type erroringStore struct {
	store.Store
}

func (e *erroringStore) HasAlerted(fingerprint string) (bool, error) {
	return false, errors.New("database is locked")
}

func TestRun_StoreFaultIsCountedSeparatelyFromDelivery(t *testing.T) {
	companies := []*core.Company{tomaCompany()}
	src := &fakeSource{name: "fake", articles: []core.Article{tomaArticle()}}
	sink := &recordingSink{}

	p := newPipeline(companies, src, sink, &erroringStore{Store: store.NewMemStore()}, Options{})
	stats, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if stats.StoreFailures == 0 {
		t.Errorf("expected store failures to be counted: %+v", stats)
	}
	if stats.DeliveryFailures != 0 {
		t.Errorf("a dedup lookup fault is not a delivery fault: %+v", stats)
	}
	if stats.Accepted != 0 || len(sink.delivered()) != 0 {
		t.Errorf("an unverifiable fingerprint must not alert: %+v", stats)
	}
}

func TestRun_AlertsCarryVerificationAndTone(t *testing.T) {
	companies := []*core.Company{tomaCompany()}
	src := &fakeSource{name: "fake", articles: []core.Article{tomaArticle()}}
	sink := &recordingSink{}

	p := newPipeline(companies, src, sink, store.NewMemStore(), Options{})
	if _, err := p.Run(context.Background(), companies); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	messages := sink.delivered()
	if len(messages) != 1 {
		t.Fatalf("expected exactly 1 delivery, got %d", len(messages))
	}
	if !strings.Contains(messages[0], "*VERIFIED*") {
		t.Errorf("alert missing a verification line:\n%s", messages[0])
	}
	if !strings.Contains(messages[0], "Tone:") {
		t.Errorf("alert missing a tone line:\n%s", messages[0])
	}
}

func TestBuildQueries(t *testing.T) {
	queries := buildQueries(tomaCompany())
	want := []string{`"Toma"`, "toma.ai", "get-toma.com"}
	if len(queries) != len(want) {
		t.Fatalf("expected %d queries, got %v", len(want), queries)
	}
	for i := range want {
		if queries[i] != want[i] {
			t.Errorf("query %d = %q, want %q", i, queries[i], want[i])
		}
	}
}
