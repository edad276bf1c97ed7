package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitegraph/internal/extract"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/render"
	"github.com/nao1215/sitegraph/internal/urlutil"
)

// AssetSink receives each committed page's asset references. The manifest
// builder satisfies this; the indirection keeps the scheduler free of any
// dependency on the structure package.
type AssetSink interface {
	Fold(pageURL string, assets []model.AssetRef)
}

// Crawler runs the bounded-concurrency crawl loop over a frontier of
// targets and accumulates pages and outcome ledgers.
//
// Design decision: The renderer and extractor are injected rather than
// constructed here because:
//  1. Browser lifecycle and flags belong to the render package
//  2. Tests substitute a stub renderer without touching the scheduler
//  3. Batch crawls can share one renderer across crawler instances
type Crawler struct {
	// renderer produces the live DOM snapshot for each target.
	renderer render.Renderer

	// extractor pulls links, assets, and content from rendered markup.
	extractor *extract.Extractor

	// pacer spaces out dispatches across the pool.
	pacer *Pacer

	// robots is the optional robots.txt gate. Nil means no gating.
	robots *RobotsGate

	// logger receives per-target progress events.
	logger *slog.Logger

	// maxPages bounds total dispatched targets.
	maxPages int

	// maxDepth bounds link-hop distance from the seeds.
	maxDepth int

	// concurrency is the worker-pool size.
	concurrency int

	// retryAttempts is the fallback attempt count for failure records
	// whose render error carries no attempt information; the retry itself
	// is the renderer decorator's concern.
	retryAttempts int

	// excludePatterns and prunePatterns filter discovered links.
	excludePatterns []string
	prunePatterns   []string

	// policy selects dynamic-pattern handling.
	policy DynamicPolicy

	// sink receives committed asset references. Nil disables folding.
	sink AssetSink

	// frontier, acc, and patterns are per-crawl state created by Crawl.
	frontier *Frontier
	acc      *Accumulator
	patterns *SeenPatternSet

	// dispatched counts budget reservations.
	dispatched atomic.Int64
}

// Option configures a Crawler.
type Option func(*Crawler)

// WithMaxPages sets the page budget.
func WithMaxPages(n int) Option {
	return func(c *Crawler) {
		c.maxPages = n
	}
}

// WithMaxDepth sets the link-hop budget. Depth 0 crawls only the seeds.
func WithMaxDepth(n int) Option {
	return func(c *Crawler) {
		c.maxDepth = n
	}
}

// WithConcurrency sets the worker-pool size.
func WithConcurrency(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithPacer sets the dispatch pacer.
func WithPacer(p *Pacer) Option {
	return func(c *Crawler) {
		c.pacer = p
	}
}

// WithRobotsGate enables robots.txt gating at push decisions.
func WithRobotsGate(g *RobotsGate) Option {
	return func(c *Crawler) {
		c.robots = g
	}
}

// WithExcludePatterns sets flat exclude patterns for discovered links.
func WithExcludePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.excludePatterns = patterns
	}
}

// WithPrunePatterns sets hierarchical-exclude patterns for discovered
// links.
func WithPrunePatterns(patterns []string) Option {
	return func(c *Crawler) {
		c.prunePatterns = patterns
	}
}

// WithRetryAttempts sets the fallback attempt count reported in failure
// records when the render error does not carry the actual count.
func WithRetryAttempts(n int) Option {
	return func(c *Crawler) {
		if n > 0 {
			c.retryAttempts = n
		}
	}
}

// WithAssetSink installs the sink fed on every page commit.
func WithAssetSink(sink AssetSink) Option {
	return func(c *Crawler) {
		c.sink = sink
	}
}

// WithLogger sets the progress logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Crawler) {
		c.logger = logger
	}
}

// New creates a Crawler around the given renderer and extractor.
func New(renderer render.Renderer, extractor *extract.Extractor, opts ...Option) *Crawler {
	c := &Crawler{
		renderer:      renderer,
		extractor:     extractor,
		pacer:         NewPacer(0, 0),
		logger:        slog.Default(),
		maxPages:      50,
		maxDepth:      3,
		concurrency:   5,
		retryAttempts: 1,
		policy:        PolicySkipAfterFirst,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Crawl dispatches the seed targets and runs the worker pool to
// completion. It returns the committed pages and the frozen state ledgers.
//
// The loop terminates when the frontier drains, the page budget is
// exhausted, or ctx is canceled. Cancellation keeps everything committed
// so far and returns ctx's error.
//
// Design decision: Workers never return errors through the pool. A render
// failure is a per-target outcome (a failed-ledger record), and anything
// that escapes a worker, panics included, is converted to a failure record
// at the safety boundary. The crawl as a whole only fails by cancellation.
func (c *Crawler) Crawl(ctx context.Context, seeds []model.CrawlTarget) ([]*model.CrawledPage, model.CrawlState, error) {
	c.frontier = NewFrontier()
	c.acc = NewAccumulator()
	c.patterns = NewSeenPatternSet()
	c.dispatched.Store(0)

	for _, seed := range seeds {
		norm := urlutil.Normalize(seed.URL)
		if c.robots != nil && !c.robots.Allowed(ctx, norm) {
			if c.frontier.MarkSeen(norm) {
				c.acc.Commit(model.VisitOutcome{
					Kind:   model.OutcomeSkipped,
					Target: seed,
					Skip:   &model.SkipRecord{URL: norm, Reason: "robots"},
				})
			}
			continue
		}
		if cls := urlutil.ClassifyDynamic(norm); cls.IsDynamic {
			// Seed URLs claim their pattern so discovered siblings
			// collapse onto them.
			c.patterns.MarkSeen(cls.Pattern)
		}
		c.frontier.Push(seed)
	}

	var eg errgroup.Group
	for i := 0; i < c.concurrency; i++ {
		eg.Go(func() error {
			c.worker(ctx)
			return nil
		})
	}
	_ = eg.Wait() //nolint:errcheck // workers never return errors

	if err := ctx.Err(); err != nil {
		return c.acc.Pages(), c.acc.Snapshot(), err
	}
	return c.acc.Pages(), c.acc.Snapshot(), nil
}

// worker loops on the frontier until it closes.
func (c *Crawler) worker(ctx context.Context) {
	for {
		target, ok := c.frontier.Pop()
		if !ok {
			return
		}

		// Reserve a budget slot before any network work. Exceeding the
		// budget closes the frontier; in-flight targets on other workers
		// still complete and commit.
		if n := c.dispatched.Add(1); c.maxPages > 0 && n > int64(c.maxPages) {
			c.frontier.Close()
			c.frontier.Done()
			continue
		}

		c.visit(ctx, target)
		c.frontier.Done()
	}
}

// visit runs the render, extract, commit, expand cycle for one target.
func (c *Crawler) visit(ctx context.Context, target model.CrawlTarget) {
	norm := urlutil.Normalize(target.URL)

	// Safety boundary: a panic in rendering or extraction becomes a
	// failure record for this target, never a dead worker.
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("crawl worker recovered", "url", norm, "panic", fmt.Sprint(r))
			c.acc.Commit(model.VisitOutcome{
				Kind:   model.OutcomeFailure,
				Target: target,
				Failure: &model.FailureRecord{
					URL:      norm,
					Error:    fmt.Sprintf("internal error: %v", r),
					Attempts: 1,
				},
			})
		}
	}()

	if err := c.pacer.Wait(ctx); err != nil {
		// Cancellation during pacing: stop dispatching, commit nothing.
		c.frontier.Close()
		return
	}

	res, err := c.renderer.Render(ctx, target.URL)
	if err != nil {
		if ctx.Err() != nil {
			c.frontier.Close()
			return
		}
		c.logger.Warn("render failed", "url", norm, "error", err)
		c.acc.Commit(model.VisitOutcome{
			Kind:   model.OutcomeFailure,
			Target: target,
			Failure: &model.FailureRecord{
				URL:      norm,
				Error:    err.Error(),
				Attempts: c.renderAttempts(err),
			},
		})
		return
	}

	pageURL := res.LoadedURL
	if pageURL == "" {
		pageURL = target.URL
	}

	var redirect *model.RedirectRecord
	if loadedNorm := urlutil.Normalize(pageURL); loadedNorm != norm {
		// The render layer follows redirects transparently, so only the
		// fact of the redirect is observable, not its status code.
		redirect = &model.RedirectRecord{From: norm, To: pageURL, Status: model.RedirectStatusUnknown}
		// The destination's content is now captured under the requested
		// URL; never dispatch it separately.
		c.frontier.MarkSeen(loadedNorm)
	}

	ext := c.extractor.Extract(res.HTML, pageURL)

	page := &model.CrawledPage{
		URL:            norm,
		LocalPath:      model.SynthesizeLocalPath(norm),
		VisitedAt:      time.Now(),
		Depth:          target.Depth,
		Title:          ext.Title,
		Metadata:       ext.Metadata,
		Links:          ext.Links,
		Assets:         ext.Assets,
		Text:           ext.Text,
		HTML:           ext.HTML,
		StructuredData: ext.StructuredData,
	}

	c.acc.Commit(model.VisitOutcome{
		Kind:     model.OutcomeSuccess,
		Target:   target,
		Page:     page,
		Redirect: redirect,
	})
	if c.sink != nil {
		c.sink.Fold(page.URL, page.Assets)
	}
	c.logger.Debug("page crawled",
		"url", norm,
		"depth", target.Depth,
		"links", len(ext.Links),
		"settled", res.Settled,
	)

	if target.Depth < c.maxDepth {
		c.expand(ctx, page, target.Depth+1)
	}
}

// expand pushes a committed page's internal links through the filter
// chain: dedup, exclude, prune, dynamic-pattern gate, robots gate.
// Each filtered URL is recorded in the skip ledger exactly once.
func (c *Crawler) expand(ctx context.Context, page *model.CrawledPage, depth int) {
	for _, link := range page.Links {
		if !link.IsInternal {
			continue
		}

		norm := urlutil.Normalize(link.URL)
		if c.frontier.Seen(norm) {
			continue
		}

		if urlutil.MatchesExclude(norm, c.excludePatterns) {
			c.skip(norm, "excluded")
			continue
		}

		if urlutil.MatchesHierarchicalExclude(norm, c.prunePatterns) {
			c.skip(norm, "pruned")
			continue
		}

		if cls := urlutil.ClassifyDynamic(norm); cls.IsDynamic && c.policy == PolicySkipAfterFirst {
			if !c.patterns.MarkSeen(cls.Pattern) {
				c.skip(norm, "dynamic:"+cls.Pattern)
				continue
			}
		}

		if c.robots != nil && !c.robots.Allowed(ctx, norm) {
			c.skip(norm, "robots")
			continue
		}

		c.frontier.Push(model.NewCrawlTarget(norm, depth, model.SourceLink))
	}
}

// skip records one skipped URL, first marker wins so each normalized URL
// appears in the skip ledger at most once. Filtered links are rejected
// before a target exists, so the outcome carries none.
func (c *Crawler) skip(norm, reason string) {
	if c.frontier.MarkSeen(norm) {
		c.acc.Commit(model.VisitOutcome{
			Kind: model.OutcomeSkipped,
			Skip: &model.SkipRecord{URL: norm, Reason: reason},
		})
	}
}

// renderAttempts reads the attempts actually made from a terminal render
// error. Errors without attempt information fall back to the configured
// retry budget.
func (c *Crawler) renderAttempts(err error) int {
	var attemptErr *render.AttemptError
	if errors.As(err, &attemptErr) {
		return attemptErr.Attempts
	}
	return c.retryAttempts
}
