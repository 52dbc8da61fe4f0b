package index

import (
	"testing"

	"radar/internal/core"
)

func TestMatch_ByDomain(t *testing.T) {
	toma := &core.Company{Name: "Toma", Domains: []string{"toma.ai", "get-toma.com"}}
	idx := Build([]*core.Company{toma})

	matched := idx.Match(core.Article{
		Title: "A startup update",
		URL:   "https://www.toma.ai/blog/update",
	})

	if len(matched) != 1 || matched[0] != toma {
		t.Fatalf("expected domain match for toma.ai, got %v", matched)
	}
}

func TestMatch_ByNameToken(t *testing.T) {
	toma := &core.Company{Name: "Toma", Domains: []string{"toma.ai"}}
	idx := Build([]*core.Company{toma})

	matched := idx.Match(core.Article{
		Title: "Toma raises $20M Series A",
		URL:   "https://techcrunch.com/2026/08/01/toma-raises-20m",
	})

	if len(matched) != 1 || matched[0] != toma {
		t.Fatalf("expected name-token match, got %v", matched)
	}
}

func TestMatch_PunctuatedNames(t *testing.T) {
	cases := []struct {
		name  string
		title string
	}{
		{"Toma Inc.", "Toma Inc. raises $20M Series A"},
		{"Yahoo!", "Yahoo! announces new search features"},
		{"(Acme)", "Acme expands to Europe"},
	}
	for _, tc := range cases {
		company := &core.Company{Name: tc.name, Domains: []string{"example.com"}}
		idx := Build([]*core.Company{company})

		matched := idx.Match(core.Article{Title: tc.title, URL: "https://news.example.org/a"})
		if len(matched) != 1 {
			t.Errorf("name %q should match title %q, got %d matches", tc.name, tc.title, len(matched))
		}
	}
}

func TestMatch_NameRequiresWordBoundary(t *testing.T) {
	idx := Build([]*core.Company{{Name: "Toma", Domains: []string{"toma.ai"}}})

	matched := idx.Match(core.Article{Title: "Automatic tomato harvesting takes off"})

	if len(matched) != 0 {
		t.Errorf("substring inside another word must not match, got %v", matched)
	}
}

func TestMatch_MultipleCompanies(t *testing.T) {
	acme := &core.Company{Name: "Acme", Domains: []string{"acme.io"}}
	toma := &core.Company{Name: "Toma", Domains: []string{"toma.ai"}}
	idx := Build([]*core.Company{acme, toma})

	matched := idx.Match(core.Article{Title: "Acme partners with Toma on dealership AI"})

	if len(matched) != 2 {
		t.Fatalf("expected both companies to match, got %d", len(matched))
	}
	// Roster order is preserved.
	if matched[0] != acme || matched[1] != toma {
		t.Errorf("expected roster order [Acme, Toma], got [%s, %s]", matched[0].Name, matched[1].Name)
	}
}

func TestMatch_MalformedURLFailsSilently(t *testing.T) {
	idx := Build([]*core.Company{{Name: "Acme", Domains: []string{"acme.io"}}})

	matched := idx.Match(core.Article{Title: "nothing relevant", URL: "::not a url::"})

	if len(matched) != 0 {
		t.Errorf("malformed URL should yield an empty match set, got %v", matched)
	}
}

func TestMatch_NoDuplicateWhenDomainAndNameBothHit(t *testing.T) {
	toma := &core.Company{Name: "Toma", Domains: []string{"toma.ai"}}
	idx := Build([]*core.Company{toma})

	matched := idx.Match(core.Article{
		Title: "Toma announces expansion",
		URL:   "https://toma.ai/news",
	})

	if len(matched) != 1 {
		t.Errorf("company matching by both domain and name must appear once, got %d", len(matched))
	}
}

func TestNormalizeDomain(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"https://www.Toma.AI/pricing", "toma.ai"},
		{"http://get-toma.com", "get-toma.com"},
		{"WWW.Example.com/", "example.com"},
		{"example.com:8080", "example.com"},
		{"  toma.ai  ", "toma.ai"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := NormalizeDomain(tc.in); got != tc.want {
			t.Errorf("NormalizeDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestDomainFromURL(t *testing.T) {
	if got := DomainFromURL("https://www.techcrunch.com/2026/08/a-story"); got != "techcrunch.com" {
		t.Errorf("expected techcrunch.com, got %q", got)
	}
	if got := DomainFromURL("not-a-url"); got != "" {
		t.Errorf("expected empty domain for schemeless input, got %q", got)
	}
}
