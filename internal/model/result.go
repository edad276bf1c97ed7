package model

import "time"

// CrawlResult is the intermediate representation handed to downstream
// consumers. It combines the crawled pages, the accumulated state ledgers,
// the derived structures, and timing metadata.
//
// Design decision: We use a single large struct rather than many small ones
// to simplify serialization and database storage, following the same shape
// the report and history store expect.
type CrawlResult struct {
	// BaseURL is the crawl's seed URL.
	BaseURL string `json:"baseUrl"`

	// StartedAt is when the crawl began.
	StartedAt time.Time `json:"startedAt"`

	// CompletedAt is when the crawl finished.
	CompletedAt time.Time `json:"completedAt"`

	// Duration is CompletedAt minus StartedAt.
	Duration time.Duration `json:"duration"`

	// Config echoes the resolved configuration the crawl ran with.
	Config ResolvedConfig `json:"config"`

	// Seeds is the resolved initial frontier. Populated by the
	// orchestration pipeline for the crawl step; never serialized.
	Seeds []CrawlTarget `json:"-"`

	// PrioritySeeds is the set of normalized URLs resolved from explicit
	// seed paths. Populated alongside Seeds; never serialized.
	PrioritySeeds map[string]bool `json:"-"`

	// Pages contains every successfully crawled page.
	Pages []*CrawledPage `json:"pages"`

	// Assets is the deduplicated asset manifest derived from Pages.
	Assets []*ManifestAsset `json:"assets,omitempty"`

	// State holds the crawl outcome ledgers.
	State CrawlState `json:"state"`

	// Structure holds the derived site-structure views.
	Structure SiteStructure `json:"structure"`

	// Platform holds the detected platform, when detection ran.
	Platform *PlatformInfo `json:"platform,omitempty"`

	// Error contains a crawl-level error, if one escaped the loop's
	// safety boundary. Excluded from JSON; ErrorMessage carries the text.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// SiteStructure groups the derived structural views of the crawled site.
type SiteStructure struct {
	// Sitemap is the result of sitemap.xml discovery, if it ran.
	Sitemap *SitemapResult `json:"sitemap,omitempty"`

	// Hierarchy is the URL path prefix tree rooted at the base origin.
	Hierarchy *URLHierarchyNode `json:"hierarchy,omitempty"`
}

// SitemapResult is the outcome of recursive sitemap discovery.
type SitemapResult struct {
	// URLs are the page URLs discovered across all processed sitemaps.
	URLs []string `json:"urls"`

	// SitemapsProcessed counts the sitemap documents fetched, including
	// sitemap-index children.
	SitemapsProcessed int `json:"sitemapsProcessed"`

	// Errors lists non-fatal per-branch failures. Partial results are
	// still returned when some branches fail.
	Errors []string `json:"errors,omitempty"`
}

// PlatformInfo describes the detected site platform or CMS.
type PlatformInfo struct {
	// Name is the platform name (e.g. "wordpress", "shopify").
	Name string `json:"name"`

	// Confidence is the detection confidence in [0, 1].
	Confidence float64 `json:"confidence"`

	// Signals lists the matched detection signals, for transparency.
	Signals []string `json:"signals,omitempty"`
}

// ResolvedConfig echoes the effective crawl configuration into the result
// so downstream consumers can interpret budgets and filters without access
// to the CLI invocation.
type ResolvedConfig struct {
	// MaxPages is the page budget that bounded the crawl.
	MaxPages int `json:"maxPages"`

	// MaxDepth is the depth budget that bounded the crawl.
	MaxDepth int `json:"maxDepth"`

	// Concurrency is the worker-pool size used.
	Concurrency int `json:"concurrency"`

	// Profile is the output profile name (minimal, standard, full).
	Profile string `json:"profile"`

	// ExcludePatterns are the flat exclude patterns applied.
	ExcludePatterns []string `json:"excludePatterns,omitempty"`

	// PrunePatterns are the hierarchical-exclude patterns applied.
	PrunePatterns []string `json:"prunePatterns,omitempty"`

	// SeedPaths are the explicit priority seed paths applied.
	SeedPaths []string `json:"seedPaths,omitempty"`

	// UseSitemap records whether sitemap seeding was enabled.
	UseSitemap bool `json:"useSitemap"`
}

// NewCrawlResult creates an empty result for the given base URL.
// The orchestration pipeline fills it in step by step.
func NewCrawlResult(baseURL string) *CrawlResult {
	return &CrawlResult{BaseURL: baseURL}
}

// AssembleResult combines the crawl inputs into the final immutable result.
// It is a pure function: no side effects, always succeeds on well-typed
// inputs. Duration is computed from the two timestamps.
func AssembleResult(
	baseURL string,
	startedAt, completedAt time.Time,
	cfg ResolvedConfig,
	pages []*CrawledPage,
	assets []*ManifestAsset,
	state CrawlState,
	sitemap *SitemapResult,
	hierarchy *URLHierarchyNode,
) *CrawlResult {
	return &CrawlResult{
		BaseURL:     baseURL,
		StartedAt:   startedAt,
		CompletedAt: completedAt,
		Duration:    completedAt.Sub(startedAt),
		Config:      cfg,
		Pages:       pages,
		Assets:      assets,
		State:       state,
		Structure: SiteStructure{
			Sitemap:   sitemap,
			Hierarchy: hierarchy,
		},
	}
}
