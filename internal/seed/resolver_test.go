package seed

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/urlutil"
)

// stubFetcher returns a canned sitemap result or error.
type stubFetcher struct {
	result *model.SitemapResult
	err    error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (*model.SitemapResult, error) {
	return s.result, s.err
}

// TestResolveDefaultFrontier tests the sole-seed default.
func TestResolveDefaultFrontier(t *testing.T) {
	t.Parallel()

	r := NewResolver("https://example.com", 10)
	res := r.Resolve(context.Background())

	if len(res.Targets) != 1 {
		t.Fatalf("expected 1 seed, got %d", len(res.Targets))
	}
	if res.Targets[0].URL != "https://example.com" {
		t.Errorf("unexpected seed %q", res.Targets[0].URL)
	}
	if res.Targets[0].Depth != 0 || res.Targets[0].Source != model.SourceSeed {
		t.Errorf("unexpected seed attributes %+v", res.Targets[0])
	}
}

// TestResolveSitemapSeeding tests sitemap-driven frontier construction.
func TestResolveSitemapSeeding(t *testing.T) {
	t.Parallel()

	t.Run("sitemap urls replace the default frontier", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{result: &model.SitemapResult{
			URLs: []string{
				"https://example.com/a",
				"https://www.example.com/b",
				"https://unrelated.org/x",
				"https://example.com/admin/panel",
			},
			SitemapsProcessed: 1,
		}}

		r := NewResolver("https://example.com", 10,
			WithSitemap(fetcher),
			WithExcludePatterns([]string{"/admin/*"}),
		)
		res := r.Resolve(context.Background())

		if len(res.Targets) != 2 {
			t.Fatalf("expected 2 seeds (domain+exclude filtered), got %d: %+v", len(res.Targets), res.Targets)
		}
		for _, target := range res.Targets {
			if target.Source != model.SourceSitemap {
				t.Errorf("expected sitemap source, got %q", target.Source)
			}
		}
		if res.Sitemap == nil {
			t.Error("expected sitemap result to be recorded")
		}
	})

	t.Run("sitemap failure falls back to base url", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{err: errors.New("boom")}
		r := NewResolver("https://example.com", 10, WithSitemap(fetcher))
		res := r.Resolve(context.Background())

		if len(res.Targets) != 1 || res.Targets[0].URL != "https://example.com" {
			t.Errorf("expected fallback to base URL, got %+v", res.Targets)
		}
		if res.Sitemap != nil {
			t.Error("expected no sitemap result on total failure")
		}
	})

	t.Run("fully filtered sitemap falls back to base url", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{result: &model.SitemapResult{
			URLs:              []string{"https://geo-redirect.example.org/x"},
			SitemapsProcessed: 1,
		}}
		r := NewResolver("https://example.com", 10, WithSitemap(fetcher))
		res := r.Resolve(context.Background())

		if len(res.Targets) != 1 || res.Targets[0].URL != "https://example.com" {
			t.Errorf("expected fallback to base URL, got %+v", res.Targets)
		}
	})

	t.Run("sitemap truncated to page budget", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{result: &model.SitemapResult{
			URLs: []string{
				"https://example.com/1",
				"https://example.com/2",
				"https://example.com/3",
				"https://example.com/4",
			},
			SitemapsProcessed: 1,
		}}
		r := NewResolver("https://example.com", 2, WithSitemap(fetcher))
		res := r.Resolve(context.Background())

		if len(res.Targets) != 2 {
			t.Errorf("expected frontier truncated to budget 2, got %d", len(res.Targets))
		}
	})
}

// TestResolvePrunedParents tests parent-seed synthesis for prune patterns.
func TestResolvePrunedParents(t *testing.T) {
	t.Parallel()

	r := NewResolver("https://example.com", 10,
		WithPrunePatterns([]string{"/products/*", "/blog/*"}),
	)
	res := r.Resolve(context.Background())

	urls := make(map[string]bool)
	for _, target := range res.Targets {
		urls[target.URL] = true
	}
	if !urls["https://example.com/products"] {
		t.Errorf("expected synthesized parent /products, got %v", urls)
	}
	if !urls["https://example.com/blog"] {
		t.Errorf("expected synthesized parent /blog, got %v", urls)
	}
}

// TestResolvePrioritySeeds tests that explicit seed paths are prepended
// and tracked.
func TestResolvePrioritySeeds(t *testing.T) {
	t.Parallel()

	r := NewResolver("https://example.com", 10,
		WithSeedPaths([]string{"/pricing", "/docs"}),
	)
	res := r.Resolve(context.Background())

	if len(res.Targets) != 3 {
		t.Fatalf("expected 3 seeds, got %d", len(res.Targets))
	}
	if res.Targets[0].URL != "https://example.com/pricing" {
		t.Errorf("expected priority seed first, got %q", res.Targets[0].URL)
	}
	if res.Targets[1].URL != "https://example.com/docs" {
		t.Errorf("expected second priority seed, got %q", res.Targets[1].URL)
	}

	if !res.PrioritySeeds[urlutil.Normalize("https://example.com/pricing")] {
		t.Error("expected /pricing in the priority seed set")
	}
	if len(res.PrioritySeeds) != 2 {
		t.Errorf("expected 2 priority seeds, got %d", len(res.PrioritySeeds))
	}
}

// TestResolveDeduplicates tests normalized-form deduplication across
// sources.
func TestResolveDeduplicates(t *testing.T) {
	t.Parallel()

	fetcher := &stubFetcher{result: &model.SitemapResult{
		URLs:              []string{"https://example.com/pricing/", "https://example.com/a"},
		SitemapsProcessed: 1,
	}}
	r := NewResolver("https://example.com", 10,
		WithSitemap(fetcher),
		WithSeedPaths([]string{"/pricing"}),
	)
	res := r.Resolve(context.Background())

	count := 0
	for _, target := range res.Targets {
		if urlutil.Normalize(target.URL) == "https://example.com/pricing" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("expected /pricing to appear once, got %d", count)
	}
	// The priority copy wins over the sitemap copy.
	if res.Targets[0].URL != "https://example.com/pricing" {
		t.Errorf("expected priority /pricing first, got %q", res.Targets[0].URL)
	}
}
