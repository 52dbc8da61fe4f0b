// Package pipeline orchestrates one batch scan: fetch news per company,
// match articles back to the roster, classify, gate on thresholds, dedup,
// and deliver accepted events.
package pipeline

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"radar/internal/alert"
	"radar/internal/classify"
	"radar/internal/core"
	"radar/internal/index"
	"radar/internal/locations"
	"radar/internal/logger"
	"radar/internal/sources"
	"radar/internal/store"
	"radar/internal/verify"
)

// Options configures one pipeline instance.
type Options struct {
	MinConfidence float64       // Inclusive acceptance boundary
	MinSeverity   float64       // Inclusive acceptance boundary
	Lookback      time.Duration // Hard publication-window cutoff
	MaxParallel   int           // Company-level fetch parallelism, >= 1
	DryRun        bool          // Deliver previews without marking fingerprints
	Now           func() time.Time
}

// RunStats summarizes one pipeline run.
type RunStats struct {
	Companies         int `json:"companies"`
	Articles          int `json:"articles"`
	Signals           int `json:"signals"`
	Accepted          int `json:"accepted"`
	RejectedNone      int `json:"rejected_none"`
	RejectedThreshold int `json:"rejected_threshold"`
	RejectedDuplicate int `json:"rejected_duplicate"`
	FetchFailures     int `json:"fetch_failures"`
	DeliveryFailures  int `json:"delivery_failures"`
	StoreFailures     int `json:"store_failures"`
}

// Pipeline drives the scan. The dedup store is the only shared mutable
// state; delivery and dedup bookkeeping run single-writer behind deliverMu
// so parallel company fetches cannot double-alert one fingerprint.
type Pipeline struct {
	index      *index.Index
	classifier *classify.Classifier
	store      store.Store
	sources    []sources.Source
	sink       alert.Sink
	verifier   verify.MentionVerifier
	opts       Options

	deliverMu sync.Mutex
	seen      map[string]bool // In-run guard for dry runs, which never write the store
}

// New assembles a pipeline over the given collaborators. A nil verifier
// falls back to offline mention verification over the text already fetched.
func New(idx *index.Index, classifier *classify.Classifier, s store.Store, srcs []sources.Source, sink alert.Sink, verifier verify.MentionVerifier, opts Options) *Pipeline {
	if opts.MaxParallel < 1 {
		opts.MaxParallel = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if verifier == nil {
		verifier = verify.Offline{}
	}
	return &Pipeline{
		index:      idx,
		classifier: classifier,
		store:      s,
		sources:    srcs,
		sink:       sink,
		verifier:   verifier,
		opts:       opts,
		seen:       make(map[string]bool),
	}
}

// Run processes every company. A fetch or delivery failure for one company
// degrades that company's contribution and never aborts the rest; the only
// returned error is context cancellation.
func (p *Pipeline) Run(ctx context.Context, companies []*core.Company) (RunStats, error) {
	cutoff := p.opts.Now().Add(-p.opts.Lookback)

	var statsMu sync.Mutex
	stats := RunStats{Companies: len(companies)}

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(p.opts.MaxParallel)

	for _, company := range companies {
		company := company
		group.Go(func() error {
			companyStats := p.processCompany(ctx, company, cutoff)
			statsMu.Lock()
			stats.add(companyStats)
			statsMu.Unlock()
			return ctx.Err()
		})
	}

	if err := group.Wait(); err != nil {
		return stats, fmt.Errorf("scan interrupted: %w", err)
	}
	return stats, nil
}

// processCompany fetches and evaluates all articles for one company.
func (p *Pipeline) processCompany(ctx context.Context, company *core.Company, cutoff time.Time) RunStats {
	var stats RunStats

	for _, article := range p.fetchArticles(ctx, company, cutoff, &stats) {
		if !article.PublishedAt.IsZero() && article.PublishedAt.Before(cutoff) {
			continue
		}
		stats.Articles++

		// The index match confirms the mention and may surface additional
		// roster companies named in the same article; each match is
		// evaluated independently.
		for _, matched := range p.index.Match(article) {
			p.evaluate(ctx, matched, article, &stats)
		}
	}
	return stats
}

// fetchArticles queries every configured source with every company query.
// Failures are logged and isolated per company/source.
func (p *Pipeline) fetchArticles(ctx context.Context, company *core.Company, cutoff time.Time, stats *RunStats) []core.Article {
	var articles []core.Article
	for _, source := range p.sources {
		for _, query := range buildQueries(company) {
			fetched, err := source.Fetch(ctx, query, cutoff)
			if err != nil {
				stats.FetchFailures++
				logger.Warn("fetch failed, skipping source for company", map[string]interface{}{
					"company": company.Name,
					"source":  source.Name(),
					"query":   query,
					"error":   err.Error(),
				})
				continue
			}
			articles = append(articles, fetched...)
		}
	}
	return articles
}

// evaluate runs one (company, article) pair through classify, thresholds,
// dedup and delivery.
func (p *Pipeline) evaluate(ctx context.Context, company *core.Company, article core.Article, stats *RunStats) {
	signal := p.classifier.Classify(article, company)
	if signal.Category == core.CategoryNone {
		stats.RejectedNone++
		return
	}
	stats.Signals++

	// Boundaries are inclusive: a signal exactly at the threshold passes.
	if signal.Confidence < p.opts.MinConfidence || signal.Severity < p.opts.MinSeverity {
		stats.RejectedThreshold++
		logger.Debug("signal below thresholds", map[string]interface{}{
			"company":    company.Name,
			"category":   string(signal.Category),
			"confidence": signal.Confidence,
			"severity":   signal.Severity,
		})
		return
	}

	fingerprint := store.Fingerprint(company, signal)

	// Cheap duplicate pre-check so known repeats skip the verification
	// fetch. The authoritative check still runs under the delivery lock.
	if alerted, err := p.store.HasAlerted(fingerprint); err == nil && alerted {
		stats.RejectedDuplicate++
		return
	}

	verdict := p.verifier.Verify(ctx, company, article)
	tone, toneConfidence := verify.AnalyzeTone(article.Title, article.Snippet)

	// Gate, deliver and mark under one lock: two concurrently processed
	// duplicates must not both pass the has-alerted check.
	p.deliverMu.Lock()
	defer p.deliverMu.Unlock()

	if p.seen[fingerprint] {
		stats.RejectedDuplicate++
		return
	}
	alerted, err := p.store.HasAlerted(fingerprint)
	if err != nil {
		stats.StoreFailures++
		logger.Error("dedup lookup failed", err, map[string]interface{}{"company": company.Name})
		return
	}
	if alerted {
		stats.RejectedDuplicate++
		return
	}

	event := p.buildEvent(company, signal, verdict, tone, toneConfidence)
	if err := p.sink.Deliver(ctx, alert.Format(event)); err != nil {
		// The fingerprint stays unmarked so the next scheduled run retries.
		stats.DeliveryFailures++
		logger.Error("alert delivery failed", err, map[string]interface{}{
			"company":  company.Name,
			"category": string(signal.Category),
		})
		return
	}

	p.seen[fingerprint] = true
	if !p.opts.DryRun {
		now := p.opts.Now().UTC()
		if _, err := p.store.MarkAlerted(core.DedupRecord{
			Fingerprint: fingerprint,
			CompanyName: company.Name,
			Category:    signal.Category,
			SourceURL:   article.URL,
			FirstSeenAt: now,
			AlertedAt:   &now,
		}); err != nil {
			stats.StoreFailures++
			logger.Error("failed to record alerted fingerprint", err, map[string]interface{}{
				"company": company.Name,
			})
		}
	}

	stats.Accepted++
	logger.Info("alert delivered", map[string]interface{}{
		"company":  company.Name,
		"category": string(signal.Category),
		"url":      article.URL,
	})
}

// buildEvent enriches an accepted signal with its primary location, flair,
// verification verdict and tone.
func (p *Pipeline) buildEvent(company *core.Company, signal core.Signal, verdict verify.Verdict, tone verify.Tone, toneConfidence float64) core.AlertEvent {
	primaryLocation, _ := locations.SelectPrimary(*company)
	return core.AlertEvent{
		CompanyName:      company.Name,
		Category:         signal.Category,
		Confidence:       signal.Confidence,
		Severity:         signal.Severity,
		PrimaryLocation:  primaryLocation,
		SourceURL:        signal.Article.URL,
		Headline:         signal.Article.Title,
		MatchedTerms:     signal.MatchedTerms,
		FlairText:        alert.Flair(signal.Category),
		PublishedAt:      signal.Article.PublishedAt,
		Verified:         verdict.Verified,
		VerifyConfidence: verdict.Confidence,
		VerifyNote:       verdict.Note,
		Tone:             string(tone),
		ToneConfidence:   toneConfidence,
	}
}

// buildQueries derives the news queries for one company: the quoted name
// plus each domain.
func buildQueries(company *core.Company) []string {
	queries := make([]string, 0, len(company.Domains)+1)
	if strings.TrimSpace(company.Name) != "" {
		queries = append(queries, fmt.Sprintf("%q", company.Name))
	}
	queries = append(queries, company.Domains...)
	return queries
}

func (s *RunStats) add(other RunStats) {
	s.Articles += other.Articles
	s.Signals += other.Signals
	s.Accepted += other.Accepted
	s.RejectedNone += other.RejectedNone
	s.RejectedThreshold += other.RejectedThreshold
	s.RejectedDuplicate += other.RejectedDuplicate
	s.FetchFailures += other.FetchFailures
	s.DeliveryFailures += other.DeliveryFailures
	s.StoreFailures += other.StoreFailures
}
