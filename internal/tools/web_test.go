package tools

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"toolgate/internal/archive"
	"toolgate/internal/domain"
	"toolgate/internal/upstream"
)

func newTestWebService(t *testing.T) *WebService {
	t.Helper()
	store, err := archive.Open(filepath.Join(t.TempDir(), "archive.db"))
	if err != nil {
		t.Fatalf("Open archive: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	client := upstream.NewClient(domain.UpstreamConfig{MaxRetries: 0, TimeoutSeconds: 5}, zerolog.Nop())
	return NewWebService(client, "key", "cx", store, "http://short.local/s", 3)
}

// =============================================================================
// composeSearchTerm
// =============================================================================

func TestComposeSearchTerm_WithBareQuery_ShouldPassThrough(t *testing.T) {
	got := composeSearchTerm(domain.Args{"search_term": "golang concurrency"})
	if got != "golang concurrency" {
		t.Errorf("Expected bare term, got %q", got)
	}
}

func TestComposeSearchTerm_WithOperators_ShouldComposeInOrder(t *testing.T) {
	got := composeSearchTerm(domain.Args{
		"search_term": "release notes",
		"before":      "2024-06-01",
		"after":       "2024-01-01",
		"intext":      "changelog",
		"must_have":   "breaking change",
	})
	want := `release notes before:2024-06-01 after:2024-01-01 intext:changelog "breaking change"`
	if got != want {
		t.Errorf("Expected %q, got %q", want, got)
	}
}

func TestComposeSearchTerm_WithAndCondition_ShouldAppendAndClause(t *testing.T) {
	got := composeSearchTerm(domain.Args{
		"search_term":   "kubernetes",
		"and_condition": "helm",
	})
	if !strings.Contains(got, "kubernetes AND helm") {
		t.Errorf("Expected AND clause, got %q", got)
	}
}

// =============================================================================
// page fetching
// =============================================================================

func TestFetchPages_ShouldExtractContentAndKeepInputOrder(t *testing.T) {
	svc := newTestWebService(t)

	page := func(title, body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Write([]byte("<html><head><title>" + title + "</title></head><body><article><p>" +
				body + "</p></article></body></html>"))
		}
	}
	first := httptest.NewServer(page("First", strings.Repeat("alpha content here. ", 30)))
	defer first.Close()
	second := httptest.NewServer(page("Second", strings.Repeat("beta content here. ", 30)))
	defer second.Close()

	results := svc.fetchPages(context.Background(), []string{first.URL, second.URL}, false)
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}
	if results[0].Error != "" || results[1].Error != "" {
		t.Fatalf("Expected clean fetches, got errors: %+v", results)
	}
	if !strings.Contains(results[0].Content, "alpha") || !strings.Contains(results[1].Content, "beta") {
		t.Errorf("Results out of input order: %+v", results)
	}
}

func TestFetchPage_WhenPageMentionsError_ShouldStillBeSuccess(t *testing.T) {
	svc := newTestWebService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>Error handling in Go</title></head><body><article><p>" +
			strings.Repeat("This error handling article discusses error values. ", 20) +
			"</p></article></body></html>"))
	}))
	defer srv.Close()

	got := svc.fetchPage(context.Background(), srv.URL, false)
	if got.Error != "" {
		t.Fatalf("Page text must never be inspected to infer failure, got error: %q", got.Error)
	}
	if !strings.Contains(got.Content, "error handling") {
		t.Errorf("Expected extracted content, got: %+v", got)
	}
}

func TestFetchPage_WhenServerFails_ShouldSetErrorOnly(t *testing.T) {
	svc := newTestWebService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	got := svc.fetchPage(context.Background(), srv.URL, false)
	if got.Error == "" {
		t.Fatal("Expected fetch failure to set Error")
	}
	if got.Content != "" || got.Title != "" {
		t.Errorf("Failed fetch must carry no content: %+v", got)
	}
}

func TestFetchPage_WhenContentTypeUnsupported_ShouldFail(t *testing.T) {
	svc := newTestWebService(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/pdf")
		w.Write([]byte("%PDF-1.4"))
	}))
	defer srv.Close()

	got := svc.fetchPage(context.Background(), srv.URL, false)
	if got.Error == "" {
		t.Error("Expected unsupported content type to set Error")
	}
}

func TestFetchPage_WhenSummarized_ShouldTruncateOnRunes(t *testing.T) {
	svc := newTestWebService(t)

	long := strings.Repeat("é paragraph with accents. ", 200)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("<html><head><title>Long</title></head><body><article><p>" + long + "</p></article></body></html>"))
	}))
	defer srv.Close()

	summary := svc.fetchPage(context.Background(), srv.URL, false)
	if n := len([]rune(summary.Content)); n > summaryRunes {
		t.Errorf("Summary should be at most %d runes, got %d", summaryRunes, n)
	}

	full := svc.fetchPage(context.Background(), srv.URL, true)
	if len([]rune(full.Content)) <= len([]rune(summary.Content)) {
		t.Error("Full text should exceed the summary")
	}
}

// =============================================================================
// shorten_url
// =============================================================================

func TestShortenURL_ShouldReturnCodeAndShortURL(t *testing.T) {
	svc := newTestWebService(t)

	payload, err := svc.shortenURL(context.Background(), domain.Args{
		"url":         "https://example.com/very/long/path",
		"custom_code": "mylink",
	})
	if err != nil {
		t.Fatalf("shortenURL: %v", err)
	}
	result := payload.(map[string]any)
	if result["code"] != "mylink" {
		t.Errorf("Expected custom code, got %v", result["code"])
	}
	if result["short_url"] != "http://short.local/s/mylink" {
		t.Errorf("Expected composed short URL, got %v", result["short_url"])
	}
}

func TestShortenURL_WithBadInput_ShouldBeInvalidArguments(t *testing.T) {
	svc := newTestWebService(t)

	cases := []domain.Args{
		{"url": "not a url"},
		{"url": "ftp://example.com/file"},
		{"url": "https://example.com", "custom_code": "has space"},
		{"url": "https://example.com", "custom_code": "slash/inside"},
	}
	for _, args := range cases {
		_, err := svc.shortenURL(context.Background(), args)
		var f *domain.Fault
		if !errors.As(err, &f) || f.Kind != domain.FaultInvalidArguments {
			t.Errorf("Args %v: expected InvalidArguments fault, got: %v", args, err)
		}
	}
}
