package model

import "github.com/google/uuid"

// DiscoverySource indicates how a crawl target was discovered.
type DiscoverySource string

// Discovery source constants.
const (
	// SourceSeed marks targets supplied directly by the user or synthesized
	// during seed resolution (base URL, explicit seed paths).
	SourceSeed DiscoverySource = "seed"

	// SourceSitemap marks targets discovered from sitemap.xml.
	SourceSitemap DiscoverySource = "sitemap"

	// SourceLink marks targets discovered from links on crawled pages.
	SourceLink DiscoverySource = "link"
)

// CrawlTarget is a URL queued for visitation.
//
// A target is created when discovered via seed resolution or link extraction,
// consumed exactly once by the frontier, and never mutated after creation.
type CrawlTarget struct {
	// ID uniquely identifies this target for logging and debugging.
	ID uuid.UUID `json:"id"`

	// URL is the absolute URL to visit.
	URL string `json:"url"`

	// Depth is the distance in link-hops from the seed.
	// Seeds have depth 0.
	Depth int `json:"depth"`

	// Source indicates how this target was discovered.
	Source DiscoverySource `json:"source"`
}

// NewCrawlTarget creates a CrawlTarget with a fresh ID.
func NewCrawlTarget(url string, depth int, source DiscoverySource) CrawlTarget {
	return CrawlTarget{
		ID:     uuid.New(),
		URL:    url,
		Depth:  depth,
		Source: source,
	}
}

// VisitOutcome is the terminal result of attempting one CrawlTarget.
// Exactly one of Page, Failure, or Skip is set.
//
// Design decision: We use a tagged struct rather than an interface with
// three implementations because outcomes are consumed in a single place
// (the crawl loop's commit handler) and a flat struct keeps the commit
// logic to a simple switch on Kind.
type VisitOutcome struct {
	// Kind discriminates the outcome variant.
	Kind OutcomeKind

	// Target is the target this outcome belongs to. Zero for skips
	// recorded before a target was constructed.
	Target CrawlTarget

	// Page is the crawled page. Set only when Kind is OutcomeSuccess.
	Page *CrawledPage

	// Failure describes the terminal failure. Set only when Kind is
	// OutcomeFailure.
	Failure *FailureRecord

	// Skip describes why the target was skipped. Set only when Kind is
	// OutcomeSkipped.
	Skip *SkipRecord

	// Redirect is a side-record attached when the final loaded URL differs
	// from the requested URL. It may accompany a success or a failure; a
	// redirect is not an outcome of its own.
	Redirect *RedirectRecord
}

// OutcomeKind identifies a VisitOutcome variant.
type OutcomeKind int

// Outcome kinds.
const (
	// OutcomeSuccess means the page was rendered and extracted.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeFailure means rendering failed after exhausting retries.
	OutcomeFailure

	// OutcomeSkipped means the target was filtered before dispatch.
	OutcomeSkipped
)

// String returns the outcome kind name for logging.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeFailure:
		return "failure"
	case OutcomeSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}
