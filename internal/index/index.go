// Package index provides the in-memory lookup that ties articles back to
// roster companies by source domain and by company-name mention.
package index

import (
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"radar/internal/core"
)

// Index maps normalized domains and company names onto roster records.
// Built once per run; read-only afterwards.
type Index struct {
	companies []*core.Company
	byDomain  map[string][]*core.Company
	namePats  []namePattern
}

type namePattern struct {
	company *core.Company
	expr    *regexp.Regexp
}

// Build constructs an index over the roster. Domains are expected to be
// normalized already by the roster loader; normalization is applied again
// here so hand-built test rosters behave the same way.
func Build(companies []*core.Company) *Index {
	idx := &Index{
		companies: companies,
		byDomain:  make(map[string][]*core.Company),
	}
	for _, company := range companies {
		for _, domain := range company.Domains {
			domain = NormalizeDomain(domain)
			if domain == "" {
				continue
			}
			idx.byDomain[domain] = append(idx.byDomain[domain], company)
		}
		if name := trimNonWordEdges(company.Name); name != "" {
			expr := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(name) + `\b`)
			idx.namePats = append(idx.namePats, namePattern{company: company, expr: expr})
		}
	}
	return idx
}

// Match returns every company the article plausibly mentions: the union of
// source-domain matches and word-boundary name matches in title+snippet.
// Results keep roster order and contain no duplicates. A malformed article
// URL simply contributes no domain match.
func (idx *Index) Match(article core.Article) []*core.Company {
	seen := make(map[*core.Company]bool)

	if domain := DomainFromURL(article.URL); domain != "" {
		for _, company := range idx.byDomain[domain] {
			seen[company] = true
		}
	}

	text := article.Title + " " + article.Snippet
	for _, np := range idx.namePats {
		if seen[np.company] {
			continue
		}
		if np.expr.MatchString(text) {
			seen[np.company] = true
		}
	}

	var matched []*core.Company
	for _, company := range idx.companies {
		if seen[company] {
			matched = append(matched, company)
		}
	}
	return matched
}

// trimNonWordEdges strips leading and trailing non-word runes from a company
// name. A \b boundary next to punctuation only matches when a word character
// sits on the other side, so names like "Toma Inc." or "Yahoo!" would never
// match their own headlines without the trim.
func trimNonWordEdges(name string) string {
	return strings.TrimFunc(strings.TrimSpace(name), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_'
	})
}

// NormalizeDomain lowercases a domain and strips scheme, www. prefix, path
// and port, so roster values and article hosts compare equal.
func NormalizeDomain(raw string) string {
	domain := strings.ToLower(strings.TrimSpace(raw))
	domain = strings.TrimPrefix(domain, "https://")
	domain = strings.TrimPrefix(domain, "http://")
	if i := strings.IndexAny(domain, "/?#"); i >= 0 {
		domain = domain[:i]
	}
	if i := strings.Index(domain, ":"); i >= 0 {
		domain = domain[:i]
	}
	domain = strings.TrimPrefix(domain, "www.")
	return strings.Trim(domain, ".")
}

// DomainFromURL extracts the normalized host from an article URL. Returns ""
// for malformed or schemeless URLs rather than an error.
func DomainFromURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" {
		return ""
	}
	return NormalizeDomain(parsed.Host)
}
