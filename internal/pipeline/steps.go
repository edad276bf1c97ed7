package pipeline

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/crawler"
	"github.com/nao1215/sitegraph/internal/extract"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/platform"
	"github.com/nao1215/sitegraph/internal/render"
	"github.com/nao1215/sitegraph/internal/seed"
	"github.com/nao1215/sitegraph/internal/sitemap"
	"github.com/nao1215/sitegraph/internal/structure"
)

// ResolveSeedsStep builds the initial frontier for the crawl: the base
// URL, optional sitemap-discovered URLs, explicit seed paths, and the
// parent pages of pruned branches.
//
// Design decision: Seed resolution is a separate step because:
// 1. Sitemap discovery is network work independent of the browser
// 2. Its failure modes (unreachable sitemap) never fail the crawl
// 3. Batch mode can skip it per site via configuration
type ResolveSeedsStep struct {
	// fetcher discovers URLs from sitemap.xml. Nil disables sitemap
	// seeding.
	fetcher seed.SitemapFetcher

	// maxPages bounds the resolved frontier.
	maxPages int

	// seedPaths, excludePatterns, and prunePatterns come from
	// configuration.
	seedPaths       []string
	excludePatterns []string
	prunePatterns   []string

	// logger for structured logging.
	logger *slog.Logger
}

// ResolveSeedsStepOption configures a ResolveSeedsStep.
type ResolveSeedsStepOption func(*ResolveSeedsStep)

// WithSeedSitemap enables sitemap seeding with the given fetcher.
func WithSeedSitemap(fetcher seed.SitemapFetcher) ResolveSeedsStepOption {
	return func(s *ResolveSeedsStep) {
		s.fetcher = fetcher
	}
}

// WithSeedPaths sets explicit priority seed paths.
func WithSeedPaths(paths []string) ResolveSeedsStepOption {
	return func(s *ResolveSeedsStep) {
		s.seedPaths = paths
	}
}

// WithSeedExcludePatterns sets flat exclude patterns applied to sitemap
// seeds.
func WithSeedExcludePatterns(patterns []string) ResolveSeedsStepOption {
	return func(s *ResolveSeedsStep) {
		s.excludePatterns = patterns
	}
}

// WithSeedPrunePatterns sets hierarchical-exclude patterns; their parents
// are added as seeds.
func WithSeedPrunePatterns(patterns []string) ResolveSeedsStepOption {
	return func(s *ResolveSeedsStep) {
		s.prunePatterns = patterns
	}
}

// WithSeedLogger sets a custom logger for the seed step.
func WithSeedLogger(logger *slog.Logger) ResolveSeedsStepOption {
	return func(s *ResolveSeedsStep) {
		s.logger = logger
	}
}

// NewResolveSeedsStep creates a seed-resolution step bounded by the given
// page budget.
func NewResolveSeedsStep(maxPages int, opts ...ResolveSeedsStepOption) *ResolveSeedsStep {
	s := &ResolveSeedsStep{
		maxPages: maxPages,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ResolveSeedsStep) Name() string {
	return "resolve_seeds"
}

// Do resolves the initial frontier and stores it on the result.
func (s *ResolveSeedsStep) Do(ctx context.Context, result *model.CrawlResult) error {
	opts := []seed.Option{
		seed.WithSeedPaths(s.seedPaths),
		seed.WithExcludePatterns(s.excludePatterns),
		seed.WithPrunePatterns(s.prunePatterns),
		seed.WithLogger(s.logger),
	}
	if s.fetcher != nil {
		opts = append(opts, seed.WithSitemap(s.fetcher))
	}

	resolution := seed.NewResolver(result.BaseURL, s.maxPages, opts...).Resolve(ctx)
	result.Seeds = resolution.Targets
	result.PrioritySeeds = resolution.PrioritySeeds
	result.Structure.Sitemap = resolution.Sitemap

	s.logger.Debug("seeds resolved",
		"site", result.BaseURL,
		"seeds", len(resolution.Targets),
		"priority", len(resolution.PrioritySeeds),
		"sitemap", resolution.Sitemap != nil,
	)
	return nil
}

// CrawlStep runs the bounded crawl loop and assembles the committed pages,
// asset manifest, and outcome ledgers into the result.
type CrawlStep struct {
	// renderer produces the DOM snapshot per target. It should already be
	// wrapped with retry behavior.
	renderer render.Renderer

	// cfg is the validated crawl configuration.
	cfg *config.Config

	// robots is the optional robots.txt gate.
	robots *crawler.RobotsGate

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlRobotsGate enables robots.txt gating during the crawl.
func WithCrawlRobotsGate(gate *crawler.RobotsGate) CrawlStepOption {
	return func(s *CrawlStep) {
		s.robots = gate
	}
}

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates the crawl step around a renderer and configuration.
func NewCrawlStep(renderer render.Renderer, cfg *config.Config, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		renderer: renderer,
		cfg:      cfg,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl and replaces the result with the assembled output.
// A context cancellation is returned as the step error; everything
// committed before cancellation is still assembled into the result.
func (s *CrawlStep) Do(ctx context.Context, result *model.CrawlResult) error {
	startedAt := time.Now()

	seeds := result.Seeds
	if len(seeds) == 0 {
		seeds = []model.CrawlTarget{model.NewCrawlTarget(result.BaseURL, 0, model.SourceSeed)}
	}

	manifest := structure.NewManifestBuilder()
	extractor := extract.New(hostOf(result.BaseURL), extract.OptionsForProfile(s.cfg.Profile))

	crawlOpts := []crawler.Option{
		crawler.WithMaxPages(s.cfg.MaxPages),
		crawler.WithMaxDepth(s.cfg.MaxDepth),
		crawler.WithConcurrency(s.cfg.Concurrency),
		crawler.WithExcludePatterns(s.cfg.ExcludePatterns),
		crawler.WithPrunePatterns(s.cfg.PrunePatterns),
		crawler.WithRetryAttempts(s.cfg.RetryAttempts),
		crawler.WithPacer(crawler.NewPacer(s.cfg.MinPacing, s.cfg.MaxPacing)),
		crawler.WithAssetSink(manifest),
		crawler.WithLogger(s.logger),
	}
	if s.robots != nil {
		crawlOpts = append(crawlOpts, crawler.WithRobotsGate(s.robots))
	}

	pages, state, err := crawler.New(s.renderer, extractor, crawlOpts...).Crawl(ctx, seeds)

	assembled := model.AssembleResult(
		result.BaseURL,
		startedAt,
		time.Now(),
		s.cfg.Resolved(),
		pages,
		manifest.Manifest(),
		state,
		result.Structure.Sitemap,
		result.Structure.Hierarchy,
	)
	assembled.Seeds = seeds
	assembled.PrioritySeeds = result.PrioritySeeds
	*result = *assembled

	s.logger.Info("crawl finished",
		"site", result.BaseURL,
		"pages", len(pages),
		"failed", len(state.Failed),
		"skipped", len(state.Skipped),
		"duration", result.Duration,
	)
	return err
}

// BuildStructureStep derives the URL hierarchy from the crawled pages and
// applies the hierarchical-exclude filter to it.
type BuildStructureStep struct {
	// prunePatterns are removed from the derived tree.
	prunePatterns []string
}

// NewBuildStructureStep creates the structure-derivation step.
func NewBuildStructureStep(prunePatterns []string) *BuildStructureStep {
	return &BuildStructureStep{prunePatterns: prunePatterns}
}

// Name returns the step name.
func (s *BuildStructureStep) Name() string {
	return "build_structure"
}

// Do folds the visited pages into the hierarchy tree.
func (s *BuildStructureStep) Do(_ context.Context, result *model.CrawlResult) error {
	hierarchy := structure.BuildHierarchy(result.BaseURL, result.Pages)
	result.Structure.Hierarchy = structure.FilterHierarchy(hierarchy, s.prunePatterns)
	return nil
}

// DetectPlatformStep identifies the site's platform from the crawled
// pages. Detection failure is simply a nil platform, never an error.
type DetectPlatformStep struct {
	detector *platform.Detector
}

// NewDetectPlatformStep creates the platform-detection step.
func NewDetectPlatformStep() *DetectPlatformStep {
	return &DetectPlatformStep{detector: platform.NewDetector()}
}

// Name returns the step name.
func (s *DetectPlatformStep) Name() string {
	return "detect_platform"
}

// Do runs signature matching over the crawled pages.
func (s *DetectPlatformStep) Do(_ context.Context, result *model.CrawlResult) error {
	result.Platform = s.detector.Detect(result.Pages)
	return nil
}

// HistoryStore persists finished crawl results. The database package
// provides the SQLite implementation.
type HistoryStore interface {
	SaveCrawl(ctx context.Context, result *model.CrawlResult) error
}

// SaveHistoryStep persists the finished result to the crawl-history store.
//
// Design decision: Persistence is a pipeline step so a failing database
// write surfaces in the step log but, combined with WithContinueOnError,
// never discards the crawl output itself.
type SaveHistoryStep struct {
	store  HistoryStore
	logger *slog.Logger
}

// NewSaveHistoryStep creates the persistence step.
func NewSaveHistoryStep(store HistoryStore, logger *slog.Logger) *SaveHistoryStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &SaveHistoryStep{store: store, logger: logger}
}

// Name returns the step name.
func (s *SaveHistoryStep) Name() string {
	return "save_history"
}

// Do writes the result to the history store.
func (s *SaveHistoryStep) Do(ctx context.Context, result *model.CrawlResult) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveCrawl(ctx, result); err != nil {
		return err
	}
	s.logger.Debug("crawl saved to history", "site", result.BaseURL)
	return nil
}

// DefaultPipeline wires the standard step sequence for one site: resolve
// seeds, crawl, build structure, detect platform, and optionally persist.
//
// The renderer is shared across calls so batch mode reuses one browser
// allocator. A nil store skips the persistence step entirely.
func DefaultPipeline(renderer render.Renderer, cfg *config.Config, store HistoryStore, pipelineOpts ...Option) *Pipeline {
	logger := slog.Default()

	p := New(pipelineOpts...)
	if p.logger != nil {
		logger = p.logger
	}

	seedOpts := []ResolveSeedsStepOption{
		WithSeedPaths(cfg.SeedPaths),
		WithSeedExcludePatterns(cfg.ExcludePatterns),
		WithSeedPrunePatterns(cfg.PrunePatterns),
		WithSeedLogger(logger),
	}
	if cfg.UseSitemap {
		seedOpts = append(seedOpts, WithSeedSitemap(sitemap.NewFetcher(
			sitemap.WithMaxDepth(cfg.SitemapDepth),
			sitemap.WithUserAgent(cfg.UserAgent),
		)))
	}
	p.AddStep(NewResolveSeedsStep(cfg.MaxPages, seedOpts...))

	crawlOpts := []CrawlStepOption{WithCrawlLogger(logger)}
	if cfg.RespectRobots {
		crawlOpts = append(crawlOpts, WithCrawlRobotsGate(crawler.NewRobotsGate(nil, cfg.UserAgent)))
	}
	p.AddStep(NewCrawlStep(renderer, cfg, crawlOpts...))

	p.AddStep(NewBuildStructureStep(cfg.PrunePatterns))
	p.AddStep(NewDetectPlatformStep())

	if store != nil {
		p.AddStep(NewSaveHistoryStep(store, logger))
	}

	return p
}

// hostOf extracts the hostname used for internal-link classification.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
