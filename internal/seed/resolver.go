package seed

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"

	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/urlutil"
)

// SitemapFetcher is the sitemap capability consumed by the resolver.
// It matches the sitemap package's Fetcher without importing it, so tests
// can stub sitemap behavior per scenario.
type SitemapFetcher interface {
	Fetch(ctx context.Context, sitemapURL string) (*model.SitemapResult, error)
}

// Resolution is the resolved initial frontier.
type Resolution struct {
	// Targets is the ordered initial frontier: priority seeds first, then
	// base/sitemap seeds and synthesized prune parents. Its length never
	// exceeds the page budget and it contains no duplicate normalized URL.
	Targets []model.CrawlTarget

	// PrioritySeeds is the set of normalized URLs of the explicit seed
	// paths, for special handling downstream.
	PrioritySeeds map[string]bool

	// Sitemap is the sitemap discovery result, nil when sitemap seeding
	// was disabled or failed entirely.
	Sitemap *model.SitemapResult
}

// Resolver builds the initial frontier.
type Resolver struct {
	// baseURL is the crawl's seed URL.
	baseURL string

	// fetcher is the optional sitemap capability. Nil disables sitemap
	// seeding.
	fetcher SitemapFetcher

	// maxPages truncates the frontier to the page budget.
	maxPages int

	// seedPaths are explicit paths prepended to the frontier.
	seedPaths []string

	// excludePatterns filter sitemap-discovered URLs.
	excludePatterns []string

	// prunePatterns contribute synthesized parent seeds.
	prunePatterns []string

	// logger is used for resolution logging.
	logger *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithSitemap enables sitemap seeding through the given fetcher.
func WithSitemap(fetcher SitemapFetcher) Option {
	return func(r *Resolver) {
		r.fetcher = fetcher
	}
}

// WithSeedPaths sets explicit priority seed paths.
func WithSeedPaths(paths []string) Option {
	return func(r *Resolver) {
		r.seedPaths = paths
	}
}

// WithExcludePatterns sets flat exclude patterns applied to discovered
// seeds.
func WithExcludePatterns(patterns []string) Option {
	return func(r *Resolver) {
		r.excludePatterns = patterns
	}
}

// WithPrunePatterns sets hierarchical-exclude patterns whose parents are
// synthesized as seeds.
func WithPrunePatterns(patterns []string) Option {
	return func(r *Resolver) {
		r.prunePatterns = patterns
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// NewResolver creates a Resolver for the given base URL and page budget.
func NewResolver(baseURL string, maxPages int, opts ...Option) *Resolver {
	r := &Resolver{
		baseURL:  baseURL,
		maxPages: maxPages,
	}

	for _, opt := range opts {
		opt(r)
	}

	if r.logger == nil {
		r.logger = slog.Default()
	}

	return r
}

// Resolve produces the ordered initial frontier.
//
// The default frontier is the base URL alone. When sitemap seeding is
// enabled, discovered URLs replace it after same-domain filtering, exclude
// filtering, and budget truncation; an empty or failed sitemap falls back
// to the default. Prune-pattern parents are appended so pruned branches
// keep their root page, and explicit seed paths are prepended and tracked
// as priority seeds.
func (r *Resolver) Resolve(ctx context.Context) *Resolution {
	resolution := &Resolution{PrioritySeeds: make(map[string]bool)}

	frontier := []model.CrawlTarget{model.NewCrawlTarget(r.baseURL, 0, model.SourceSeed)}

	if r.fetcher != nil {
		if sitemapSeeds, result := r.sitemapSeeds(ctx); len(sitemapSeeds) > 0 {
			frontier = sitemapSeeds
			resolution.Sitemap = result
		} else if result != nil {
			resolution.Sitemap = result
		}
	}

	// Synthesize each pruned branch's parent as a seed so the branch root
	// is still represented in the hierarchy.
	for _, parent := range urlutil.PrunedParents(r.prunePatterns) {
		if parentURL := r.resolvePath(parent); parentURL != "" {
			frontier = append(frontier, model.NewCrawlTarget(parentURL, 0, model.SourceSeed))
		}
	}

	// Explicit seed paths are prepended, not appended: they are
	// prioritized for traversal.
	var prioritized []model.CrawlTarget
	for _, path := range r.seedPaths {
		seedURL := r.resolvePath(path)
		if seedURL == "" {
			continue
		}
		prioritized = append(prioritized, model.NewCrawlTarget(seedURL, 0, model.SourceSeed))
		resolution.PrioritySeeds[urlutil.Normalize(seedURL)] = true
	}
	frontier = append(prioritized, frontier...)

	// Deduplicate by normalized URL, first occurrence wins, and enforce
	// the page budget.
	seen := make(map[string]bool, len(frontier))
	for _, target := range frontier {
		key := urlutil.Normalize(target.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		resolution.Targets = append(resolution.Targets, target)
		if len(resolution.Targets) >= r.maxPages {
			break
		}
	}

	r.logger.Debug("seed resolution complete",
		"seeds", len(resolution.Targets),
		"priority", len(resolution.PrioritySeeds),
		"sitemap_used", resolution.Sitemap != nil,
	)

	return resolution
}

// sitemapSeeds fetches the sitemap and converts discovered URLs into seed
// targets. Any fetch failure is swallowed; the caller falls back to the
// base URL.
func (r *Resolver) sitemapSeeds(ctx context.Context) ([]model.CrawlTarget, *model.SitemapResult) {
	result, err := r.fetcher.Fetch(ctx, strings.TrimSuffix(r.baseURL, "/")+"/sitemap.xml")
	if err != nil {
		r.logger.Debug("sitemap fetch failed, falling back to base URL", "error", err)
		return nil, nil
	}

	// Filter to the same registrable domain as the base URL. Sitemaps of
	// geo-redirected domains can list URLs unrelated to the crawl target.
	var targets []model.CrawlTarget
	for _, raw := range result.URLs {
		if !r.sameRegistrableDomain(raw) {
			continue
		}
		if urlutil.MatchesExclude(raw, r.excludePatterns) {
			continue
		}
		targets = append(targets, model.NewCrawlTarget(raw, 0, model.SourceSitemap))
		if len(targets) >= r.maxPages {
			break
		}
	}

	if len(targets) == 0 {
		// Same-domain filtering removed everything; fall back.
		return nil, result
	}

	return targets, result
}

// sameRegistrableDomain reports whether a sitemap URL belongs to the same
// registrable domain as the base URL, ignoring "www." prefixes.
func (r *Resolver) sameRegistrableDomain(rawURL string) bool {
	baseHost := hostOf(r.baseURL)
	host := hostOf(rawURL)
	if baseHost == "" || host == "" {
		return false
	}

	baseDomain, err := publicsuffix.EffectiveTLDPlusOne(strings.TrimPrefix(baseHost, "www."))
	if err != nil {
		// Hosts without a public suffix (e.g. "localhost" in tests)
		// compare as bare hosts.
		baseDomain = strings.TrimPrefix(baseHost, "www.")
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(strings.TrimPrefix(host, "www."))
	if err != nil {
		domain = strings.TrimPrefix(host, "www.")
	}

	return strings.EqualFold(baseDomain, domain)
}

// resolvePath resolves a path against the base URL.
// Returns empty string when the base URL cannot be parsed.
func (r *Resolver) resolvePath(path string) string {
	base, err := url.Parse(r.baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(path)
	if err != nil {
		return ""
	}
	return base.ResolveReference(ref).String()
}

// hostOf returns the hostname of a URL, or empty string if unparseable.
func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}
