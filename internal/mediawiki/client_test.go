package mediawiki

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(WithAPIURL(server.URL), WithRateLimit(0), WithUserAgent("linkrot-test"))
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", expectedContentType)
	_, _ = w.Write([]byte(body))
}

func TestFetchContentReturnsMainSlot(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		query := r.URL.Query()
		if query.Get("action") != "query" || query.Get("formatversion") != "2" || query.Get("titles") != "Alan Turing" {
			t.Errorf("unexpected query %s", r.URL.RawQuery)
		}
		writeJSON(w, `{"query":{"pages":[{"pageid":1,"title":"Alan Turing","revisions":[{"slots":{"main":{"content":"{{cite journal|doi=10.1/x}}"}}}]}]}}`)
	})

	content, found, err := client.FetchContent(context.Background(), "Alan Turing")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !found {
		t.Fatalf("expected article to be found")
	}
	if content != "{{cite journal|doi=10.1/x}}" {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestFetchContentMissingPage(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, `{"query":{"pages":[{"title":"Nope","missing":true}]}}`)
	})

	_, found, err := client.FetchContent(context.Background(), "Nope")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if found {
		t.Fatalf("expected missing page")
	}
}

func TestFetchContentRejectsUnexpectedReplies(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		contentType string
		body        string
	}{
		{name: "status", status: http.StatusServiceUnavailable, contentType: expectedContentType, body: `{}`},
		{name: "content-type", status: http.StatusOK, contentType: "text/html", body: `<html></html>`},
		{name: "title-mismatch", status: http.StatusOK, contentType: expectedContentType, body: `{"query":{"pages":[{"title":"Other","revisions":[{"content":"x"}]}]}}`},
		{name: "no-query", status: http.StatusOK, contentType: expectedContentType, body: `{"error":{"code":"badvalue"}}`},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", testCase.contentType)
				w.WriteHeader(testCase.status)
				_, _ = w.Write([]byte(testCase.body))
			})
			_, _, err := client.FetchContent(context.Background(), "Title")
			if !errors.Is(err, ErrUnexpectedResponse) {
				t.Fatalf("expected unexpected response error, got %v", err)
			}
		})
	}
}

func TestArticlePropsAndCategoryMembers(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list") == "categorymembers" {
			if r.URL.Query().Get("cmtitle") != "Category:Logicians" {
				t.Errorf("unexpected cmtitle %q", r.URL.Query().Get("cmtitle"))
			}
			writeJSON(w, `{"query":{"categorymembers":[{"pageid":7,"ns":0,"title":"Kurt Gödel"}]}}`)
			return
		}
		writeJSON(w, `{"query":{"pages":[{"title":"Alan Turing","extract":"<p>Mathematician</p>","categories":[{"title":"Category:Logicians"},{"title":"Category:Hidden maintenance","hidden":true}]}]}}`)
	})

	props, err := client.ArticleProps(context.Background(), "Alan Turing")
	if err != nil {
		t.Fatalf("article props failed: %v", err)
	}
	if props.Extract != "<p>Mathematician</p>" || len(props.Categories) != 2 {
		t.Fatalf("unexpected props: %#v", props)
	}
	if props.Categories[0].Name != "Logicians" || !props.Categories[1].Hidden {
		t.Fatalf("unexpected categories: %#v", props.Categories)
	}

	members, err := client.CategoryMembers(context.Background(), "Logicians")
	if err != nil {
		t.Fatalf("category members failed: %v", err)
	}
	if len(members) != 1 || members[0].Title != "Kurt Gödel" {
		t.Fatalf("unexpected members: %#v", members)
	}
}
