package citations

import (
	"errors"
	"testing"

	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/archival"
	"github.com/MarcoPoloResearchLab/linkrot/backend/internal/wikitext"
)

const (
	liveURL    = "http://example.com/paper.pdf"
	archiveURL = "https://web.archive.org/web/20210101000000/http://example.com/paper.pdf"
)

func TestMatchURLPair(t *testing.T) {
	testCases := []struct {
		name     string
		urls     []archival.URLRecord
		wantPair *URLPair
	}{
		{
			name: "primary-and-webarchive",
			urls: []archival.URLRecord{{URL: liveURL, Rel: "primary"}, {URL: archiveURL, Rel: "webarchive"}},
			wantPair: &URLPair{
				Web:     liveURL,
				Archive: archiveURL,
			},
		},
		{
			name: "webarchive-first",
			urls: []archival.URLRecord{{URL: archiveURL, Rel: "webarchive"}, {URL: liveURL, Rel: "repository"}},
			wantPair: &URLPair{
				Web:     liveURL,
				Archive: archiveURL,
			},
		},
		{name: "empty"},
		{name: "single", urls: []archival.URLRecord{{URL: archiveURL, Rel: "webarchive"}}},
		{
			name: "three",
			urls: []archival.URLRecord{{URL: liveURL, Rel: "web"}, {URL: archiveURL, Rel: "webarchive"}, {URL: "http://mirror", Rel: "web"}},
		},
		{name: "no-webarchive", urls: []archival.URLRecord{{URL: liveURL, Rel: "web"}, {URL: "http://mirror", Rel: "repository"}}},
		{name: "two-webarchive", urls: []archival.URLRecord{{URL: archiveURL, Rel: "webarchive"}, {URL: archiveURL + "x", Rel: "webarchive"}}},
		{name: "same-url", urls: []archival.URLRecord{{URL: archiveURL, Rel: "web"}, {URL: archiveURL, Rel: "webarchive"}}},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			pair, ok := MatchURLPair(testCase.urls)
			if testCase.wantPair == nil {
				if ok {
					t.Fatalf("expected no pair, got %#v", pair)
				}
				return
			}
			if !ok {
				t.Fatalf("expected a pair")
			}
			if pair != *testCase.wantPair {
				t.Fatalf("got %#v want %#v", pair, *testCase.wantPair)
			}
			if pair.Web == pair.Archive {
				t.Fatalf("pair must hold two distinct urls")
			}
		})
	}
}

func TestParseArchiveDate(t *testing.T) {
	date, err := ParseArchiveDate("https://web.archive.org/web/20210101000000/http://example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if date != "2021-01-01" {
		t.Fatalf("got %q", date)
	}

	date, err = ParseArchiveDate("https://web.archive.org/web/19991231/x")
	if err != nil || date != "1999-12-31" {
		t.Fatalf("expected bare eight digit stamp to parse, got %q %v", date, err)
	}

	malformed := []string{
		"http://web.archive.org/web/20210101000000/http://example.com",
		"https://archive.today/20210101000000/http://example.com",
		"https://web.archive.org/web/2021010/",
		"https://web.archive.org/web/2021",
		"https://web.archive.org/web/2021O101000000/http://example.com",
		"",
	}
	for _, input := range malformed {
		_, err := ParseArchiveDate(input)
		if !errors.Is(err, ErrMalformedArchiveURL) {
			t.Fatalf("%q: expected malformed archive url, got %v", input, err)
		}
		if KindOf(err) != KindMalformedArchiveURL {
			t.Fatalf("%q: unexpected kind %q", input, KindOf(err))
		}
	}
}

func TestExtractDOITemplatesKeepsDocumentOrder(t *testing.T) {
	document := wikitext.Parse(`Intro.<ref>{{cite journal |doi=10.1/a |title=A}}</ref>
{{cite book |title=No DOI}}
{{cite journal |doi=   |title=Blank}}
{{Infobox |note={{cite journal|doi=10.1/b|title=B}}}}
<!-- {{cite journal|doi=10.1/hidden}} -->
{{cite journal|doi= 10.1/c }}`)

	templates := ExtractDOITemplates(document)
	want := []string{"10.1/a", "10.1/b", "10.1/c"}
	if len(templates) != len(want) {
		t.Fatalf("expected %d templates, got %d", len(want), len(templates))
	}
	for index, template := range templates {
		if got := fieldValue(template, fieldDOI); got != want[index] {
			t.Fatalf("template %d: got doi %q want %q", index, got, want[index])
		}
	}
}
