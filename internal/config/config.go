package config

import (
	"net/url"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"

	"github.com/nao1215/sitegraph/internal/model"
)

// Default configuration values.
// These values are chosen to keep a first crawl fast and polite while still
// producing a useful structure map; large sites can raise the budgets via
// CLI flags.
const (
	// DefaultMaxPages bounds the total number of pages crawled per site.
	// Websites can be effectively infinite through dynamic routes, so a
	// hard page budget is the primary termination guarantee.
	DefaultMaxPages = 50

	// DefaultMaxDepth bounds link-hop distance from the seed. Three hops
	// reach the vast majority of navigable pages on typical sites without
	// descending into archives and pagination tails.
	DefaultMaxDepth = 3

	// DefaultConcurrency is the worker-pool size. A modest value keeps the
	// crawl fast without looking like a flood to the target server or
	// exhausting local Chrome sessions.
	DefaultConcurrency = 5

	// DefaultRenderTimeout is the per-page render budget. Headless Chrome
	// with JS execution and network-idle detection needs more headroom
	// than a plain HTTP fetch.
	DefaultRenderTimeout = 45 * time.Second

	// DefaultSettleTimeout is the bounded network-idle wait after
	// navigation. Exceeding it is non-fatal; extraction proceeds on the
	// DOM as-is.
	DefaultSettleTimeout = 5 * time.Second

	// DefaultRetryAttempts is the number of render attempts per target
	// before the target is recorded as failed.
	DefaultRetryAttempts = 2

	// DefaultMinPacing and DefaultMaxPacing bound the randomized
	// per-target delay used to avoid detection as automated traffic.
	DefaultMinPacing = 500 * time.Millisecond
	DefaultMaxPacing = 1500 * time.Millisecond

	// DefaultSitemapDepth bounds recursion through sitemap-index files.
	DefaultSitemapDepth = 3

	// DefaultUserAgent identifies sitegraph in HTTP requests made outside
	// the browser (sitemap and robots fetches).
	DefaultUserAgent = "sitegraph/1.0 (+https://github.com/nao1215/sitegraph)"

	// DefaultAcceptLanguage is sent with sitemap fetches so localized
	// sites return a stable variant.
	DefaultAcceptLanguage = "en-US,en;q=0.9"

	// AppName is the application name used for XDG directory paths.
	AppName = "sitegraph"

	// MaxConcurrency is the upper bound accepted for the worker pool.
	MaxConcurrency = 100
)

// Output profile names. The profile controls which extraction fields are
// populated on each crawled page.
const (
	// ProfileMinimal extracts title, metadata, and links only.
	ProfileMinimal = "minimal"

	// ProfileStandard adds assets and structured data.
	ProfileStandard = "standard"

	// ProfileFull adds page text and rendered HTML.
	ProfileFull = "full"
)

// Config holds all configuration options for a crawl.
// This struct is populated from CLI flags and passed through the
// application via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., CrawlConfig, RenderConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant
// benefit.
type Config struct {
	// Targets is the list of base URLs to crawl. Each must be an absolute
	// http or https URL.
	Targets []string

	// MaxPages is the page budget per crawl.
	MaxPages int

	// MaxDepth is the link-hop budget per crawl. Depth 0 crawls only the
	// seeds themselves.
	MaxDepth int

	// Concurrency is the number of targets rendered simultaneously.
	// Bounded to [1, MaxConcurrency] by Validate.
	Concurrency int

	// Profile selects the extraction output profile
	// (minimal, standard, full).
	Profile string

	// ExcludePatterns are flat exclude patterns. A URL matching any is
	// never dispatched.
	ExcludePatterns []string

	// PrunePatterns are hierarchical-exclude patterns. Children of a
	// pruned branch are skipped while the branch's parent page is kept.
	PrunePatterns []string

	// SeedPaths are explicit paths prepended to the frontier and
	// prioritized for traversal.
	SeedPaths []string

	// UseSitemap enables sitemap.xml seeding. Sitemap failure is
	// non-fatal; the crawl falls back to the base URL as sole seed.
	UseSitemap bool

	// SitemapDepth bounds recursion through sitemap-index files.
	SitemapDepth int

	// RespectRobots enables the robots.txt gate. Disallowed paths are
	// recorded as skipped instead of dispatched.
	RespectRobots bool

	// RenderTimeout is the per-page render budget.
	RenderTimeout time.Duration

	// SettleTimeout is the bounded network-idle wait; non-fatal on expiry.
	SettleTimeout time.Duration

	// RetryAttempts is the number of render attempts per target.
	RetryAttempts int

	// MinPacing and MaxPacing bound the randomized per-target delay.
	MinPacing time.Duration
	MaxPacing time.Duration

	// UserAgent is sent with non-browser HTTP requests and installed in
	// the browser sessions.
	UserAgent string

	// Headless controls whether Chrome runs headless. Disabled only for
	// debugging.
	Headless bool

	// Verbose enables slog.LevelDebug output.
	Verbose bool

	// JSONReport selects compact JSON output; PrettyJSON selects indented
	// JSON. MarkdownReport selects the Markdown/Mermaid report.
	JSONReport     bool
	PrettyJSON     bool
	MarkdownReport bool

	// ReportFile is the output path for the report. Empty means stdout.
	ReportFile string

	// DBDir is the directory for the crawl-history database. Empty
	// disables persistence.
	DBDir string

	// SaveToDB indicates whether to persist finished crawls.
	SaveToDB bool

	// ConfigFilePath is the explicit path of the site-configuration file.
	ConfigFilePath string

	// SiteConfigs holds site-specific settings loaded from the
	// configuration file.
	SiteConfigs *File
}

// NewConfig creates a Config with default values.
// All fields are set to safe, sensible defaults that work for most use
// cases; callers override specific values from flags after creation.
//
// Design decision: We use a constructor function instead of relying on
// zero values because many defaults are non-zero (budgets, timeouts).
// This also serves as documentation of what the defaults are.
func NewConfig() *Config {
	return &Config{
		MaxPages:      DefaultMaxPages,
		MaxDepth:      DefaultMaxDepth,
		Concurrency:   DefaultConcurrency,
		Profile:       ProfileStandard,
		UseSitemap:    true,
		SitemapDepth:  DefaultSitemapDepth,
		RenderTimeout: DefaultRenderTimeout,
		SettleTimeout: DefaultSettleTimeout,
		RetryAttempts: DefaultRetryAttempts,
		MinPacing:     DefaultMinPacing,
		MaxPacing:     DefaultMaxPacing,
		UserAgent:     DefaultUserAgent,
		Headless:      true,
	}
}

// Validate checks the configuration for invalid combinations.
// It is called once before the crawl starts; a crawl never begins with an
// invalid configuration.
func (c *Config) Validate() error {
	if len(c.Targets) == 0 {
		return ErrNoTarget
	}

	for _, target := range c.Targets {
		u, err := url.Parse(target)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return ErrInvalidTargetURL
		}
	}

	if c.MaxPages <= 0 {
		return ErrInvalidMaxPages
	}

	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}

	if c.Concurrency < 1 || c.Concurrency > MaxConcurrency {
		return ErrInvalidConcurrency
	}

	switch c.Profile {
	case ProfileMinimal, ProfileStandard, ProfileFull:
	default:
		return ErrInvalidProfile
	}

	if c.RenderTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MinPacing < 0 || c.MaxPacing < c.MinPacing {
		return ErrInvalidPacing
	}

	// JSONReport and MarkdownReport are mutually exclusive.
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	return nil
}

// Resolved echoes the effective crawl settings into the serializable form
// embedded in the crawl result.
func (c *Config) Resolved() model.ResolvedConfig {
	return model.ResolvedConfig{
		MaxPages:        c.MaxPages,
		MaxDepth:        c.MaxDepth,
		Concurrency:     c.Concurrency,
		Profile:         c.Profile,
		ExcludePatterns: c.ExcludePatterns,
		PrunePatterns:   c.PrunePatterns,
		SeedPaths:       c.SeedPaths,
		UseSitemap:      c.UseSitemap,
	}
}

// XDGDataDir returns the XDG data directory for sitegraph.
// On Linux: ~/.local/share/sitegraph
// On macOS: ~/Library/Application Support/sitegraph
// On Windows: %LOCALAPPDATA%\sitegraph
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}
