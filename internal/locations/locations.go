// Package locations selects the single primary location string used to
// enrich an alert from a company's roster location fields.
package locations

import (
	"regexp"
	"strconv"
	"strings"

	"radar/internal/core"
)

// countedEntry matches "<name> (<count>)". Anything else in a
// locations_with_counts field is kept as a name with count 0.
var countedEntry = regexp.MustCompile(`^(.*)\s+\((\d+)\)$`)

// ParseWithCounts parses a raw locations_with_counts field of the form
// "Location A (12); Location B (7)". Entries whose count fails to parse are
// kept with count 0 rather than dropped, so they still serve as fallback
// candidates. Never returns an error.
func ParseWithCounts(raw string) []core.LocationCount {
	var result []core.LocationCount
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if m := countedEntry.FindStringSubmatch(part); m != nil {
			count, err := strconv.Atoi(m[2])
			if err != nil {
				count = 0
			}
			result = append(result, core.LocationCount{Name: strings.TrimSpace(m[1]), Count: count})
			continue
		}
		// Strip a trailing "(...)" with a non-numeric count but keep the entry.
		if open := strings.LastIndex(part, "("); open > 0 && strings.HasSuffix(part, ")") {
			name := strings.TrimSpace(part[:open])
			if name != "" {
				result = append(result, core.LocationCount{Name: name, Count: 0})
				continue
			}
		}
		result = append(result, core.LocationCount{Name: part, Count: 0})
	}
	return result
}

// ParseList parses a plain semicolon-separated locations field.
func ParseList(raw string) []string {
	var result []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part != "" {
			result = append(result, part)
		}
	}
	return result
}

// SelectPrimary picks the company's primary location. Priority:
//  1. the locations_with_counts entry with the highest count, earliest entry
//     winning ties;
//  2. the first plain locations entry;
//  3. none (ok=false).
func SelectPrimary(company core.Company) (string, bool) {
	if len(company.LocationsWithCounts) > 0 {
		best := company.LocationsWithCounts[0]
		for _, lc := range company.LocationsWithCounts[1:] {
			if lc.Count > best.Count {
				best = lc
			}
		}
		return best.Name, true
	}
	if len(company.Locations) > 0 {
		return company.Locations[0], true
	}
	return "", false
}
