package core

import "time"

// EventCategory is a business-event kind detected in a news article.
type EventCategory string

const (
	CategoryFunding          EventCategory = "FUNDING"
	CategoryExecChange       EventCategory = "EXEC_CHANGE"
	CategoryProductLaunch    EventCategory = "PRODUCT_LAUNCH"
	CategoryAward            EventCategory = "AWARD"
	CategorySecurityIncident EventCategory = "SECURITY_INCIDENT"
	CategoryLayoffs          EventCategory = "LAYOFFS"
	CategoryHiring           EventCategory = "HIRING"
	CategoryNone             EventCategory = "NONE"
)

// Categories lists every real category in the fixed tie-break priority order:
// a tied aggregate weight resolves to the earliest entry.
var Categories = []EventCategory{
	CategoryFunding,
	CategoryExecChange,
	CategoryProductLaunch,
	CategoryAward,
	CategorySecurityIncident,
	CategoryLayoffs,
	CategoryHiring,
}

// LocationCount is one "<name> (<count>)" entry from a roster locations field.
type LocationCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Company represents one roster entry being watched for news mentions.
// Records are built once per run by the roster loader and are immutable
// afterwards; a record with no normalized domains never reaches the pipeline.
type Company struct {
	Name                string          `json:"company_name"`                    // Canonical company name
	Website             string          `json:"website"`                         // Company homepage URL
	Domains             []string        `json:"domains"`                         // Normalized domains (lowercase, no scheme/www/path)
	LocationsWithCounts []LocationCount `json:"locations_with_counts,omitempty"` // Parsed "<name> (<count>)" pairs, roster order
	Locations           []string        `json:"locations,omitempty"`             // Plain location names, roster order
	Notes               string          `json:"notes,omitempty"`                 // Free-form roster notes
}

// PrimaryDomain returns the first normalized domain, the company's identity
// for fingerprinting and the locations-CSV join.
func (c Company) PrimaryDomain() string {
	if len(c.Domains) == 0 {
		return ""
	}
	return c.Domains[0]
}

// Article represents a single raw news item returned by a source fetch.
type Article struct {
	SourceName  string    `json:"source_name"`  // Which fetcher produced this (e.g., "google_news_rss")
	Title       string    `json:"title"`        // Headline
	URL         string    `json:"url"`          // Canonical article URL
	PublishedAt time.Time `json:"published_at"` // Publication timestamp (zero if the source omitted it)
	Snippet     string    `json:"snippet"`      // Description/body excerpt, HTML stripped
}

// Signal is a candidate event derived from one (company, article) pair,
// before thresholding and dedup. Category NONE means no rule matched and the
// pipeline rejects it; any other category carries at least one matched term.
type Signal struct {
	Company      *Company      `json:"-"`
	Article      Article       `json:"article"`
	Category     EventCategory `json:"category"`
	Confidence   float64       `json:"confidence"`    // [0,1]
	Severity     float64       `json:"severity"`      // [0,1]
	MatchedTerms []string      `json:"matched_terms"` // Pattern evidence, rule-table order
}

// AlertEvent is an accepted, enriched signal ready for formatting. It lives
// only for the duration of one delivery.
type AlertEvent struct {
	CompanyName     string        `json:"company_name"`
	Category        EventCategory `json:"category"`
	Confidence      float64       `json:"confidence"`
	Severity        float64       `json:"severity"`
	PrimaryLocation string        `json:"primary_location,omitempty"` // Empty when the roster has no locations
	SourceURL       string        `json:"source_url"`
	Headline        string        `json:"headline"`
	MatchedTerms    []string      `json:"matched_terms"`
	FlairText       string        `json:"flair_text"`
	PublishedAt     time.Time     `json:"published_at"`

	// Mention-verification and tone enrichment, heuristic only.
	Verified         bool    `json:"verified"`
	VerifyConfidence float64 `json:"verify_confidence"`
	VerifyNote       string  `json:"verify_note,omitempty"`
	Tone             string  `json:"tone,omitempty"`
	ToneConfidence   float64 `json:"tone_confidence"`
}

// DedupRecord tracks one fingerprinted real-world event across runs.
type DedupRecord struct {
	ID          string        `json:"id"`          // Record identifier
	Fingerprint string        `json:"fingerprint"` // Deterministic event key
	CompanyName string        `json:"company_name"`
	Category    EventCategory `json:"category"`
	SourceURL   string        `json:"source_url"`
	FirstSeenAt time.Time     `json:"first_seen_at"`
	AlertedAt   *time.Time    `json:"alerted_at,omitempty"` // Nil until an alert was delivered
}
