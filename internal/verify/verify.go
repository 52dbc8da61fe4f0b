// Package verify adds two heuristic credibility checks to accepted signals:
// whether the article demonstrably concerns the roster company (mention
// verification) and the overall tone of the coverage. Both are pattern
// heuristics over the article text, no model calls.
package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"radar/internal/core"
)

// Verdict is the outcome of mention verification for one accepted signal.
type Verdict struct {
	Verified   bool    `json:"verified"`
	Confidence float64 `json:"confidence"`
	Note       string  `json:"note"`
}

// MentionVerifier decides whether an article demonstrably concerns a
// company. Implementations may fetch the article body or work offline from
// the title and snippet alone.
type MentionVerifier interface {
	Verify(ctx context.Context, company *core.Company, article core.Article) Verdict
}

// businessContext are indicators that a text is about a company rather than
// a person or place sharing the name. Two or more hits count as context.
var businessContext = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bcompany\b|\bcorporation\b|\binc\b|\bllc\b|\bltd\b`),
	regexp.MustCompile(`(?i)\bstartup\b|\btech\b|\bsoftware\b|\bplatform\b|\bservice\b`),
	regexp.MustCompile(`(?i)\bannounce[sd]?\b|\blaunch(es|ed)?\b|\braise[sd]?\b|\bfunding\b`),
	regexp.MustCompile(`(?i)\bpartnership\b|\bmerger\b|\bacquisition\b`),
	regexp.MustCompile(`(?i)\bappoints?\b|\bceo\b|\bcto\b`),
	regexp.MustCompile(`(?i)\bheadquarters\b|\boffice\b|\bexpansion\b`),
}

// genericTerms are single words too common to count as a company mention on
// their own.
var genericTerms = map[string]bool{
	"the": true, "and": true, "or": true, "for": true, "with": true,
	"from": true, "about": true, "new": true, "old": true, "big": true,
	"small": true, "good": true, "bad": true, "high": true, "low": true,
	"open": true, "close": true, "start": true, "stop": true, "first": true,
	"last": true, "next": true,
}

// personName matches "First Last" shaped names, which are usually people,
// not companies.
var personName = regexp.MustCompile(`^[A-Z][a-z]+\s+[A-Z][a-z]+$`)

var personTitles = map[string]bool{
	"mr": true, "mrs": true, "ms": true, "dr": true,
	"professor": true, "prof": true, "sir": true, "madam": true,
}

// Offline verifies mentions from the article title and snippet alone, with
// no network access. Used by tests and wherever page fetches are unwanted.
type Offline struct{}

var _ MentionVerifier = Offline{}

// Verify scores the mention against the text already in hand.
func (Offline) Verify(ctx context.Context, company *core.Company, article core.Article) Verdict {
	return scoreMention(company, article.Title+" "+article.Snippet)
}

// Verifier fetches the article page and scores the mention against the full
// body text, falling back to title and snippet when the fetch fails.
type Verifier struct {
	client *http.Client
}

var _ MentionVerifier = (*Verifier)(nil)

// NewVerifier creates a page-fetching mention verifier.
func NewVerifier(timeout time.Duration) *Verifier {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Verifier{client: &http.Client{Timeout: timeout}}
}

// Verify fetches the article and scores the mention. Fetch failures are not
// errors; they just degrade to the offline text.
func (v *Verifier) Verify(ctx context.Context, company *core.Company, article core.Article) Verdict {
	body, ok := v.fetchBody(ctx, article.URL)
	if !ok {
		return scoreMention(company, article.Title+" "+article.Snippet)
	}
	return scoreMention(company, body)
}

// fetchBody downloads the article page and flattens it to text.
func (v *Verifier) fetchBody(ctx context.Context, articleURL string) (string, bool) {
	if articleURL == "" {
		return "", false
	}
	req, err := http.NewRequestWithContext(ctx, "GET", articleURL, nil)
	if err != nil {
		return "", false
	}
	req.Header.Set("User-Agent", "radar/1.0")

	resp, err := v.client.Do(req)
	if err != nil {
		return "", false
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", false
	}
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", false
	}
	return doc.Text(), true
}

// scoreMention combines domain presence, name similarity and a person-name
// penalty into one verdict over the lowercased article text.
func scoreMention(company *core.Company, text string) Verdict {
	lowered := strings.ToLower(text)

	domainFound := false
	domainNote := "company domain not found in article"
	for _, domain := range company.Domains {
		if domain != "" && strings.Contains(lowered, strings.ToLower(domain)) {
			domainFound = true
			domainNote = fmt.Sprintf("domain %q found in article", domain)
			break
		}
	}

	similarity, matchType := nameSimilarity(company.Name, lowered)

	var verdict Verdict
	switch {
	case domainFound && similarity > 0.8:
		verdict = Verdict{Confidence: 0.9, Note: "high confidence: " + domainNote + ", " + matchType}
	case domainFound && similarity > 0.6:
		verdict = Verdict{Confidence: 0.7, Note: "medium confidence: " + domainNote + ", " + matchType}
	case domainFound:
		verdict = Verdict{Confidence: 0.5, Note: "low confidence: " + domainNote + ", " + matchType}
	case similarity > 0.9 && hasBusinessContext(lowered):
		verdict = Verdict{Confidence: 0.6, Note: "domain not verified, strong name match with business context: " + matchType}
	default:
		verdict = Verdict{Confidence: 0.2, Note: "domain not verified, weak name match: " + matchType}
	}

	if looksLikePersonName(company.Name) {
		verdict.Confidence *= 0.5
		verdict.Note += " (company name resembles a person)"
	}

	verdict.Verified = verdict.Confidence >= 0.6
	return verdict
}

// nameSimilarity scores how strongly the lowercased text mentions the
// company name.
func nameSimilarity(name, lowered string) (float64, string) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, "no name"
	}

	if strings.Contains(lowered, name) {
		return 1.0, "exact match"
	}

	words := strings.Fields(name)
	if len(words) > 1 {
		present := 0
		for _, word := range words {
			if strings.Contains(lowered, word) {
				present++
			}
		}
		if present == len(words) {
			return 0.95, "all name words present"
		}
		if float64(present) >= float64(len(words))*0.67 {
			return 0.8, "most name words present"
		}
		return 0, "no match"
	}

	// Single-word names need business context to count.
	word := words[0]
	if genericTerms[word] || !strings.Contains(lowered, word) {
		return 0, "no match"
	}
	if hasBusinessContext(lowered) {
		return 0.7, "single word in business context"
	}
	return 0.3, "single word without business context"
}

// hasBusinessContext reports whether the text carries at least two business
// indicators.
func hasBusinessContext(lowered string) bool {
	hits := 0
	for _, pattern := range businessContext {
		if pattern.MatchString(lowered) {
			hits++
			if hits >= 2 {
				return true
			}
		}
	}
	return false
}

// looksLikePersonName reports whether a roster name is probably a person.
func looksLikePersonName(name string) bool {
	name = strings.TrimSpace(name)
	if fields := strings.Fields(strings.ToLower(name)); len(fields) > 0 && personTitles[fields[0]] {
		return true
	}
	return personName.MatchString(name)
}

// StatusEmoji decorates the verification line in an alert.
func StatusEmoji(verified bool, confidence float64) string {
	if !verified {
		return "❌"
	}
	switch {
	case confidence >= 0.8:
		return "✅"
	case confidence >= 0.6:
		return "⚠️"
	default:
		return "❓"
	}
}
