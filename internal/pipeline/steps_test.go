package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/render"
)

// stubRenderer returns one canned HTML body for every URL.
type stubRenderer struct {
	html string
}

func (s *stubRenderer) Render(_ context.Context, url string) (*render.Result, error) {
	return &render.Result{
		RequestedURL: url,
		LoadedURL:    url,
		HTML:         s.html,
		Settled:      true,
		Attempts:     1,
	}, nil
}

// stubFetcher serves a fixed sitemap result.
type stubFetcher struct {
	result *model.SitemapResult
	err    error
}

func (s *stubFetcher) Fetch(_ context.Context, _ string) (*model.SitemapResult, error) {
	return s.result, s.err
}

// stubStore records saved results.
type stubStore struct {
	saved []*model.CrawlResult
	err   error
}

func (s *stubStore) SaveCrawl(_ context.Context, result *model.CrawlResult) error {
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, result)
	return nil
}

func testConfig() *config.Config {
	cfg := config.NewConfig()
	cfg.Targets = []string{"https://example.com"}
	cfg.MaxPages = 5
	cfg.MaxDepth = 1
	cfg.Concurrency = 2
	cfg.MinPacing = 0
	cfg.MaxPacing = 0
	// No network in tests: sitemap seeding would fetch sitemap.xml.
	cfg.UseSitemap = false
	return cfg
}

func TestResolveSeedsStep(t *testing.T) {
	t.Parallel()

	t.Run("without sitemap the base URL is the sole seed", func(t *testing.T) {
		t.Parallel()

		step := NewResolveSeedsStep(10, WithSeedLogger(testLogger()))
		result := model.NewCrawlResult("https://example.com")
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}

		if len(result.Seeds) != 1 || result.Seeds[0].URL != "https://example.com" {
			t.Errorf("seeds = %+v, want the base URL alone", result.Seeds)
		}
		if result.Structure.Sitemap != nil {
			t.Error("sitemap result should be nil when seeding is disabled")
		}
	})

	t.Run("sitemap URLs replace the base seed", func(t *testing.T) {
		t.Parallel()

		fetcher := &stubFetcher{result: &model.SitemapResult{
			URLs: []string{
				"https://example.com/products",
				"https://example.com/about",
			},
			SitemapsProcessed: 1,
		}}

		step := NewResolveSeedsStep(10,
			WithSeedSitemap(fetcher),
			WithSeedLogger(testLogger()),
		)
		result := model.NewCrawlResult("https://example.com")
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}

		if len(result.Seeds) != 2 {
			t.Fatalf("seeds = %+v, want the sitemap URLs", result.Seeds)
		}
		if result.Structure.Sitemap == nil {
			t.Error("sitemap result should be stored")
		}
	})

	t.Run("explicit seed paths are carried as priority seeds", func(t *testing.T) {
		t.Parallel()

		step := NewResolveSeedsStep(10,
			WithSeedPaths([]string{"/docs"}),
			WithSeedLogger(testLogger()),
		)
		result := model.NewCrawlResult("https://example.com")
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}

		if len(result.Seeds) != 2 || result.Seeds[0].URL != "https://example.com/docs" {
			t.Fatalf("seeds = %+v, want the seed path prepended", result.Seeds)
		}
		if !result.PrioritySeeds["https://example.com/docs"] {
			t.Errorf("priority seeds = %v, want the resolved seed path", result.PrioritySeeds)
		}
	})

	t.Run("sitemap failure falls back to the base URL", func(t *testing.T) {
		t.Parallel()

		step := NewResolveSeedsStep(10,
			WithSeedSitemap(&stubFetcher{err: errors.New("unreachable")}),
			WithSeedLogger(testLogger()),
		)
		result := model.NewCrawlResult("https://example.com")
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("fetch failure must not fail the step: %v", err)
		}
		if len(result.Seeds) != 1 || result.Seeds[0].URL != "https://example.com" {
			t.Errorf("seeds = %+v, want the base URL fallback", result.Seeds)
		}
	})
}

func TestCrawlStep(t *testing.T) {
	t.Parallel()

	t.Run("assembles pages, state, and timing", func(t *testing.T) {
		t.Parallel()

		renderer := &stubRenderer{html: `<html><head><title>Home</title></head>
<body><a href="/about">About</a></body></html>`}

		step := NewCrawlStep(renderer, testConfig(), WithCrawlLogger(testLogger()))
		result := model.NewCrawlResult("https://example.com")
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}

		if len(result.Pages) != 2 {
			t.Fatalf("pages = %d, want seed plus linked page", len(result.Pages))
		}
		if len(result.State.Visited) != 2 {
			t.Errorf("visited = %v", result.State.Visited)
		}
		if result.CompletedAt.Before(result.StartedAt) {
			t.Error("completion must not precede the start")
		}
		if result.Config.MaxPages != 5 {
			t.Errorf("config echo = %+v, want the resolved budgets", result.Config)
		}
	})

	t.Run("priority seeds survive result assembly", func(t *testing.T) {
		t.Parallel()

		renderer := &stubRenderer{html: "<html><head><title>Docs</title></head><body></body></html>"}
		step := NewCrawlStep(renderer, testConfig(), WithCrawlLogger(testLogger()))

		result := model.NewCrawlResult("https://example.com")
		result.Seeds = []model.CrawlTarget{
			model.NewCrawlTarget("https://example.com/docs", 0, model.SourceSeed),
			model.NewCrawlTarget("https://example.com", 0, model.SourceSeed),
		}
		result.PrioritySeeds = map[string]bool{"https://example.com/docs": true}

		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}
		if !result.PrioritySeeds["https://example.com/docs"] {
			t.Errorf("priority seeds = %v, want them preserved across assembly", result.PrioritySeeds)
		}
	})

	t.Run("synthesizes the base seed when resolution was skipped", func(t *testing.T) {
		t.Parallel()

		renderer := &stubRenderer{html: "<html><head><title>Solo</title></head><body></body></html>"}
		step := NewCrawlStep(renderer, testConfig(), WithCrawlLogger(testLogger()))

		result := model.NewCrawlResult("https://example.com")
		result.Seeds = nil
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}
		if len(result.Pages) != 1 {
			t.Errorf("pages = %d, want the base URL crawl", len(result.Pages))
		}
	})
}

func TestBuildStructureStep(t *testing.T) {
	t.Parallel()

	t.Run("builds and prunes the hierarchy", func(t *testing.T) {
		t.Parallel()

		result := model.NewCrawlResult("https://example.com")
		result.Pages = []*model.CrawledPage{
			{URL: "https://example.com"},
			{URL: "https://example.com/blog"},
			{URL: "https://example.com/blog/post-1"},
		}

		step := NewBuildStructureStep([]string{"/blog/*"})
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}

		tree := result.Structure.Hierarchy
		if tree == nil {
			t.Fatal("hierarchy should be set")
		}
		blog := tree.Children["blog"]
		if blog == nil {
			t.Fatal("pruned branch keeps its parent")
		}
		if len(blog.Children) != 0 {
			t.Error("pruned descendants should be removed")
		}
	})
}

func TestDetectPlatformStep(t *testing.T) {
	t.Parallel()

	t.Run("sets the detected platform", func(t *testing.T) {
		t.Parallel()

		result := model.NewCrawlResult("https://example.com")
		result.Pages = []*model.CrawledPage{
			{
				URL:      "https://example.com",
				Metadata: model.PageMetadata{Generator: "WordPress 6.4"},
				HTML:     `<link href="/wp-content/style.css">`,
			},
		}

		step := NewDetectPlatformStep()
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}
		if result.Platform == nil || result.Platform.Name != "wordpress" {
			t.Errorf("platform = %+v, want wordpress", result.Platform)
		}
	})

	t.Run("unrecognized site leaves platform nil", func(t *testing.T) {
		t.Parallel()

		result := model.NewCrawlResult("https://example.com")
		result.Pages = []*model.CrawledPage{{URL: "https://example.com", HTML: "<p>plain</p>"}}

		if err := NewDetectPlatformStep().Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}
		if result.Platform != nil {
			t.Errorf("platform = %+v, want nil", result.Platform)
		}
	})
}

func TestSaveHistoryStep(t *testing.T) {
	t.Parallel()

	t.Run("saves the result", func(t *testing.T) {
		t.Parallel()

		store := &stubStore{}
		step := NewSaveHistoryStep(store, testLogger())

		result := model.NewCrawlResult("https://example.com")
		if err := step.Do(context.Background(), result); err != nil {
			t.Fatalf("step returned error: %v", err)
		}
		if len(store.saved) != 1 {
			t.Errorf("saved = %d, want 1", len(store.saved))
		}
	})

	t.Run("store error propagates", func(t *testing.T) {
		t.Parallel()

		step := NewSaveHistoryStep(&stubStore{err: errors.New("disk full")}, testLogger())
		if err := step.Do(context.Background(), model.NewCrawlResult("https://example.com")); err == nil {
			t.Error("store failure should surface")
		}
	})

	t.Run("nil store is a no-op", func(t *testing.T) {
		t.Parallel()

		step := NewSaveHistoryStep(nil, testLogger())
		if err := step.Do(context.Background(), model.NewCrawlResult("https://example.com")); err != nil {
			t.Errorf("nil store should not error: %v", err)
		}
	})
}

func TestDefaultPipeline(t *testing.T) {
	t.Parallel()

	t.Run("wires the standard step sequence", func(t *testing.T) {
		t.Parallel()

		renderer := &stubRenderer{html: "<html></html>"}
		p := DefaultPipeline(renderer, testConfig(), &stubStore{}, WithLogger(testLogger()))

		want := []string{"resolve_seeds", "crawl", "build_structure", "detect_platform", "save_history"}
		got := p.StepNames()
		if len(got) != len(want) {
			t.Fatalf("steps = %v, want %v", got, want)
		}
		for i := range want {
			if got[i] != want[i] {
				t.Errorf("step[%d] = %q, want %q", i, got[i], want[i])
			}
		}
	})

	t.Run("nil store drops the persistence step", func(t *testing.T) {
		t.Parallel()

		p := DefaultPipeline(&stubRenderer{}, testConfig(), nil, WithLogger(testLogger()))
		for _, name := range p.StepNames() {
			if name == "save_history" {
				t.Error("persistence step should be absent without a store")
			}
		}
	})

	t.Run("end to end over a stub renderer", func(t *testing.T) {
		t.Parallel()

		renderer := &stubRenderer{html: `<html><head><title>Home</title></head>
<body><a href="/docs">Docs</a></body></html>`}

		store := &stubStore{}
		p := DefaultPipeline(renderer, testConfig(), store, WithLogger(testLogger()))

		result := model.NewCrawlResult("https://example.com")
		if err := p.Execute(context.Background(), result); err != nil {
			t.Fatalf("pipeline returned error: %v", err)
		}

		if len(result.Pages) == 0 {
			t.Error("pipeline should produce pages")
		}
		if result.Structure.Hierarchy == nil {
			t.Error("pipeline should derive the hierarchy")
		}
		if len(store.saved) != 1 {
			t.Errorf("saved results = %d, want 1", len(store.saved))
		}
	})
}
