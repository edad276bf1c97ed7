package sitemap

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"
)

// TestFetchURLSet tests parsing of a plain urlset sitemap.
func TestFetchURLSet(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url><loc>https://example.com/</loc></url>
	<url><loc>https://example.com/about</loc></url>
	<url><loc> https://example.com/contact </loc></url>
</urlset>`)
	}))
	defer server.Close()

	f := NewFetcher()
	result, err := f.Fetch(context.Background(), server.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SitemapsProcessed != 1 {
		t.Errorf("expected 1 sitemap processed, got %d", result.SitemapsProcessed)
	}
	if len(result.URLs) != 3 {
		t.Fatalf("expected 3 URLs, got %d: %v", len(result.URLs), result.URLs)
	}
	if result.URLs[2] != "https://example.com/contact" {
		t.Errorf("expected loc to be trimmed, got %q", result.URLs[2])
	}
	if len(result.Errors) != 0 {
		t.Errorf("expected no errors, got %v", result.Errors)
	}
}

// TestFetchSitemapIndex tests recursive sitemap-index traversal with a
// failing branch.
func TestFetchSitemapIndex(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var server *httptest.Server
	mux.HandleFunc("/sitemap.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `<sitemapindex>
	<sitemap><loc>%s/pages.xml</loc></sitemap>
	<sitemap><loc>%s/posts.xml</loc></sitemap>
	<sitemap><loc>%s/broken.xml</loc></sitemap>
</sitemapindex>`, server.URL, server.URL, server.URL)
	})
	mux.HandleFunc("/pages.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/a</loc></url></urlset>`)
	})
	mux.HandleFunc("/posts.xml", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `<urlset><url><loc>https://example.com/b</loc></url><url><loc>https://example.com/c</loc></url></urlset>`)
	})
	mux.HandleFunc("/broken.xml", func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	f := NewFetcher(WithMaxDepth(3))
	result, err := f.Fetch(context.Background(), server.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Root index plus two working children.
	if result.SitemapsProcessed != 3 {
		t.Errorf("expected 3 sitemaps processed, got %d", result.SitemapsProcessed)
	}

	urls := append([]string(nil), result.URLs...)
	sort.Strings(urls)
	want := []string{"https://example.com/a", "https://example.com/b", "https://example.com/c"}
	if len(urls) != len(want) {
		t.Fatalf("expected %d URLs, got %v", len(want), urls)
	}
	for i := range want {
		if urls[i] != want[i] {
			t.Errorf("URL %d: expected %q, got %q", i, want[i], urls[i])
		}
	}

	// The broken branch is a non-fatal error, not an abort.
	if len(result.Errors) != 1 {
		t.Errorf("expected 1 branch error, got %v", result.Errors)
	}
}

// TestFetchDepthBound tests that recursion stops at the depth bound.
func TestFetchDepthBound(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	var server *httptest.Server
	// Every document points at the next level of index.
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<sitemapindex><sitemap><loc>%s%s/next</loc></sitemap></sitemapindex>`, server.URL, r.URL.Path)
	})
	server = httptest.NewServer(mux)
	defer server.Close()

	f := NewFetcher(WithMaxDepth(2))
	result, err := f.Fetch(context.Background(), server.URL+"/sitemap.xml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.SitemapsProcessed != 2 {
		t.Errorf("expected recursion bounded to 2 documents, got %d", result.SitemapsProcessed)
	}
}

// TestFetchTotalFailure tests that a completely unreachable sitemap
// returns an error with partial state preserved.
func TestFetchTotalFailure(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer server.Close()

	f := NewFetcher()
	result, err := f.Fetch(context.Background(), server.URL+"/sitemap.xml")
	if err == nil {
		t.Fatal("expected error when no sitemap could be fetched")
	}
	if result == nil || len(result.Errors) == 0 {
		t.Error("expected partial result with recorded errors")
	}
}

// TestDefaultURL tests the conventional sitemap location.
func TestDefaultURL(t *testing.T) {
	t.Parallel()

	if got := DefaultURL("https://example.com/"); got != "https://example.com/sitemap.xml" {
		t.Errorf("unexpected default sitemap URL %q", got)
	}
	if got := DefaultURL("https://example.com"); got != "https://example.com/sitemap.xml" {
		t.Errorf("unexpected default sitemap URL %q", got)
	}
}
