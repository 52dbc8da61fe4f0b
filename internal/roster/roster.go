// Package roster loads the watched-company CSV (plain or enriched format)
// into immutable Company records, optionally joining location fields from a
// second CSV by normalized domain.
package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"radar/internal/core"
	"radar/internal/index"
	"radar/internal/locations"
)

// fieldAliases maps each canonical roster field to its accepted header
// names, in resolution order. Resolved once per file; the rest of the loader
// never re-inspects raw headers.
var fieldAliases = map[string][]string{
	"company_name":          {"company_name", "enriched_company_name"},
	"website":               {"website", "wikidata_official_site", "homepage_url"},
	"domains":               {"domains", "domain"},
	"locations":             {"locations"},
	"locations_with_counts": {"locations_with_counts"},
	"notes":                 {"notes"},
}

var (
	numericName  = regexp.MustCompile(`^[\d\s\-\.]+$`)
	initialsName = regexp.MustCompile(`^[A-Z]\s*[A-Z]\s*[A-Z]?$`)
)

// genericNames are one-word names too ambiguous to search news for.
var genericNames = map[string]bool{
	"the": true, "and": true, "or": true, "for": true,
	"new": true, "old": true, "big": true, "small": true,
}

// SkippedRow explains why a roster row was dropped.
type SkippedRow struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// LoadResult is the outcome of one roster load.
type LoadResult struct {
	Companies []*core.Company `json:"companies"`
	Skipped   []SkippedRow    `json:"skipped"`
	Columns   []string        `json:"columns"` // Raw header as detected
	Delimiter rune            `json:"-"`
}

// Load reads the roster CSV at path. If locationsPath is non-empty, that CSV
// is read first and its location fields are joined onto companies by
// normalized primary domain (roster-local fields win). Malformed rows are
// skipped with a reason, never fatal.
func Load(path, locationsPath string) (*LoadResult, error) {
	locMap, err := loadLocationsByDomain(locationsPath)
	if err != nil {
		return nil, err
	}

	rows, header, delim, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	result := &LoadResult{Columns: header, Delimiter: delim}

	for i, row := range rows {
		line := i + 2 // header is line 1
		company, reason := buildCompany(row, locMap)
		if reason != "" {
			result.Skipped = append(result.Skipped, SkippedRow{
				Line:   line,
				Name:   strings.TrimSpace(row["company_name"]),
				Reason: reason,
			})
			continue
		}
		result.Companies = append(result.Companies, company)
	}
	return result, nil
}

// buildCompany maps one CSV row onto a Company, applying the same
// false-positive filters on every load. Returns a non-empty reason when the
// row should be dropped.
func buildCompany(row map[string]string, locMap map[string]locationFields) (*core.Company, string) {
	name := strings.TrimSpace(row["company_name"])
	domains := parseDomains(row["domains"])

	if len(domains) == 0 {
		return nil, "no usable domain"
	}
	if name == "" {
		// Derive a display name from the first domain.
		base := strings.SplitN(domains[0], ".", 2)[0]
		base = strings.NewReplacer("-", " ", "_", " ").Replace(base)
		name = titleCase(base)
	}
	switch {
	case numericName.MatchString(name):
		return nil, "numeric-only name"
	case len(strings.TrimSpace(name)) <= 2:
		return nil, "name too short"
	case initialsName.MatchString(strings.TrimSpace(name)):
		return nil, "initials-only name"
	case genericNames[strings.ToLower(strings.TrimSpace(name))]:
		return nil, "generic name"
	}

	locsRaw := strings.TrimSpace(row["locations"])
	locsWCRaw := strings.TrimSpace(row["locations_with_counts"])
	if locsRaw == "" && locsWCRaw == "" {
		if lf, ok := locMap[domains[0]]; ok {
			locsRaw = lf.locations
			locsWCRaw = lf.locationsWithCounts
		}
	}

	return &core.Company{
		Name:                name,
		Website:             strings.TrimSpace(row["website"]),
		Domains:             domains,
		Notes:               strings.TrimSpace(row["notes"]),
		Locations:           locations.ParseList(locsRaw),
		LocationsWithCounts: locations.ParseWithCounts(locsWCRaw),
	}, ""
}

// titleCase capitalizes the first rune of each space-separated word.
func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		r, size := utf8.DecodeRuneInString(w)
		if r == utf8.RuneError && size <= 1 {
			continue
		}
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return strings.Join(words, " ")
}

// parseDomains splits a raw domains field on ';' or ',' and normalizes every
// part. Empty results are dropped.
func parseDomains(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	sep := ";"
	if !strings.Contains(raw, ";") && strings.Contains(raw, ",") {
		sep = ","
	}
	var domains []string
	for _, part := range strings.Split(raw, sep) {
		if domain := index.NormalizeDomain(part); domain != "" {
			domains = append(domains, domain)
		}
	}
	return domains
}

type locationFields struct {
	locations           string
	locationsWithCounts string
}

// loadLocationsByDomain reads the auxiliary locations CSV into a
// domain-keyed map. An empty path yields an empty map.
func loadLocationsByDomain(path string) (map[string]locationFields, error) {
	locMap := make(map[string]locationFields)
	if path == "" {
		return locMap, nil
	}

	rows, _, _, err := readCSV(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read locations CSV: %w", err)
	}
	for _, row := range rows {
		domains := parseDomains(row["domains"])
		if len(domains) == 0 {
			continue
		}
		locMap[domains[0]] = locationFields{
			locations:           strings.TrimSpace(row["locations"]),
			locationsWithCounts: strings.TrimSpace(row["locations_with_counts"]),
		}
	}
	return locMap, nil
}

// readCSV reads the whole file with an inferred delimiter and returns rows
// as canonical-field → value maps plus the raw header.
func readCSV(path string) ([]map[string]string, []string, rune, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to open CSV %s: %w", path, err)
	}
	defer f.Close()

	sample := make([]byte, 4096)
	n, _ := f.Read(sample)
	delim := inferDelimiter(string(sample[:n]))
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, nil, 0, fmt.Errorf("failed to rewind CSV %s: %w", path, err)
	}

	reader := csv.NewReader(f)
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, 0, fmt.Errorf("failed to parse CSV %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil, delim, nil
	}

	header := records[0]
	fields := resolveFields(header)

	var rows []map[string]string
	for _, record := range records[1:] {
		row := make(map[string]string, len(fields))
		for canonical, col := range fields {
			if col < len(record) {
				row[canonical] = record[col]
			}
		}
		rows = append(rows, row)
	}
	return rows, header, delim, nil
}

// resolveFields maps canonical field names to column indexes using the alias
// table. First alias present in the header wins.
func resolveFields(header []string) map[string]int {
	byName := make(map[string]int, len(header))
	for i, h := range header {
		byName[strings.ToLower(strings.TrimSpace(h))] = i
	}

	fields := make(map[string]int)
	for canonical, aliases := range fieldAliases {
		for _, alias := range aliases {
			if col, ok := byName[alias]; ok {
				fields[canonical] = col
				break
			}
		}
	}
	return fields
}

// inferDelimiter prefers comma, then tab, then semicolon, based on counts in
// the file's leading sample.
func inferDelimiter(sample string) rune {
	commas := strings.Count(sample, ",")
	tabs := strings.Count(sample, "\t")
	semis := strings.Count(sample, ";")
	if commas >= tabs && commas >= semis {
		return ','
	}
	if tabs >= semis {
		return '\t'
	}
	return ';'
}
