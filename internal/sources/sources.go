// Package sources implements the news fetchers that feed the signal
// pipeline. Each source turns a query plus a lookback cutoff into raw
// articles; failure isolation across companies is the pipeline's job.
package sources

import (
	"context"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"radar/internal/core"
)

// Source is a single news capability (search API, RSS search, ...).
type Source interface {
	// Name identifies the source in logs and article records.
	Name() string
	// Fetch returns articles for the query. Implementations pass the since
	// cutoff to the upstream API when it supports one, but the pipeline
	// still applies the hard window filter on published_at.
	Fetch(ctx context.Context, query string, since time.Time) ([]core.Article, error)
}

// stripHTML flattens an HTML fragment (feed descriptions arrive as markup)
// into plain text.
func stripHTML(fragment string) string {
	if fragment == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// parseTime tries the timestamp layouts seen across feed and API responses.
func parseTime(raw string) time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}
	}
	layouts := []string{
		time.RFC1123Z,
		time.RFC1123,
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"Mon, 2 Jan 2006 15:04:05 -0700",
		"Mon, 2 Jan 2006 15:04:05 MST",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
