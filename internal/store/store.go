// Package store persists which fingerprinted events have already produced an
// alert, so a run today never re-alerts an event from a prior run.
package store

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"radar/internal/core"
)

// Store is the durable dedup record set. Implementations must survive
// process restarts (SQLiteStore) or explicitly opt out for tests (MemStore).
// MarkAlerted is first-write-wins: when two concurrently processed duplicate
// signals race, exactly one caller observes won=true.
type Store interface {
	// HasAlerted reports whether the fingerprint already produced an alert.
	HasAlerted(fingerprint string) (bool, error)
	// MarkAlerted records the fingerprint as alerted. The returned bool is
	// true only for the call that actually inserted the record.
	MarkAlerted(record core.DedupRecord) (bool, error)
	// Record returns the stored record for a fingerprint, or nil.
	Record(fingerprint string) (*core.DedupRecord, error)
	// List returns the most recently alerted records, newest first.
	List(limit int) ([]core.DedupRecord, error)
	// Stats summarizes the record set.
	Stats() (Stats, error)
	Close() error
}

// Stats summarizes the dedup record set.
type Stats struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
}

// Fingerprint derives the deterministic dedup key for an accepted signal:
// a sha256 over (primary company domain, event category, normalized article
// URL). When the article has no usable URL the normalized headline stands in,
// so the same story without a link still collapses to one event.
func Fingerprint(company *core.Company, signal core.Signal) string {
	evidence := normalizeURL(signal.Article.URL)
	if evidence == "" {
		evidence = normalizeHeadline(signal.Article.Title)
	}

	h := sha256.New()
	h.Write([]byte(company.PrimaryDomain()))
	h.Write([]byte{0})
	h.Write([]byte(signal.Category))
	h.Write([]byte{0})
	h.Write([]byte(evidence))
	return hex.EncodeToString(h.Sum(nil))
}

// normalizeURL lowercases the URL and strips scheme, www. prefix, query,
// fragment and trailing slash so syntactic variants of one link collide.
func normalizeURL(raw string) string {
	u := strings.ToLower(strings.TrimSpace(raw))
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	u = strings.TrimPrefix(u, "www.")
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	return strings.TrimSuffix(u, "/")
}

// normalizeHeadline collapses whitespace and case so minor headline edits
// still fingerprint identically.
func normalizeHeadline(title string) string {
	return strings.Join(strings.Fields(strings.ToLower(title)), " ")
}
