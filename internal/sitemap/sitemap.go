package sitemap

import (
	"compress/gzip"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitegraph/internal/model"
)

// maxSitemapBody limits how much of a sitemap document is read.
// 10MB covers the sitemap.org size limit of 50,000 URLs per file.
const maxSitemapBody = 10 * 1024 * 1024

// indexFanout bounds how many sitemap-index children are fetched
// concurrently.
const indexFanout = 4

// Fetcher retrieves and parses sitemaps over plain HTTP.
//
// Design decision: Sitemap fetches bypass the browser. Sitemaps are static
// XML with no JS to execute, and a plain HTTP client is both faster and
// cheaper than a Chrome session.
type Fetcher struct {
	// client is the HTTP client used for all sitemap requests.
	client *http.Client

	// maxDepth bounds recursion through sitemap-index files. Depth 1
	// means only the root sitemap document is read.
	maxDepth int

	// userAgent and acceptLanguage are sent with every request.
	userAgent      string
	acceptLanguage string
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets a custom HTTP client.
func WithClient(client *http.Client) Option {
	return func(f *Fetcher) {
		f.client = client
	}
}

// WithMaxDepth bounds sitemap-index recursion.
func WithMaxDepth(depth int) Option {
	return func(f *Fetcher) {
		if depth > 0 {
			f.maxDepth = depth
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithAcceptLanguage sets the Accept-Language header.
func WithAcceptLanguage(lang string) Option {
	return func(f *Fetcher) {
		f.acceptLanguage = lang
	}
}

// NewFetcher creates a Fetcher with the given options.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		client:         &http.Client{Timeout: 30 * time.Second},
		maxDepth:       3,
		userAgent:      "sitegraph/1.0",
		acceptLanguage: "en-US,en;q=0.9",
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// urlSet mirrors the <urlset> sitemap document shape.
type urlSet struct {
	URLs []struct {
		Loc string `xml:"loc"`
	} `xml:"url"`
}

// sitemapIndex mirrors the <sitemapindex> document shape.
type sitemapIndex struct {
	Sitemaps []struct {
		Loc string `xml:"loc"`
	} `xml:"sitemap"`
}

// Fetch retrieves the sitemap at sitemapURL and returns all page URLs
// discovered, following sitemap-index children recursively up to the depth
// bound. Per-branch failures accumulate in the result's Errors and never
// abort sibling branches; partial results are always returned.
func (f *Fetcher) Fetch(ctx context.Context, sitemapURL string) (*model.SitemapResult, error) {
	result := &model.SitemapResult{}
	var mu sync.Mutex
	seen := make(map[string]bool)

	var walk func(ctx context.Context, loc string, depth int) error
	walk = func(ctx context.Context, loc string, depth int) error {
		mu.Lock()
		if depth > f.maxDepth || seen[loc] {
			mu.Unlock()
			return nil
		}
		seen[loc] = true
		mu.Unlock()

		body, err := f.get(ctx, loc)
		if err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", loc, err))
			mu.Unlock()
			return nil
		}

		mu.Lock()
		result.SitemapsProcessed++
		mu.Unlock()

		// Try the urlset shape first; fall back to sitemapindex.
		var set urlSet
		if err := xml.Unmarshal(body, &set); err == nil && len(set.URLs) > 0 {
			mu.Lock()
			for _, u := range set.URLs {
				if loc := strings.TrimSpace(u.Loc); loc != "" {
					result.URLs = append(result.URLs, loc)
				}
			}
			mu.Unlock()
			return nil
		}

		var index sitemapIndex
		if err := xml.Unmarshal(body, &index); err != nil {
			mu.Lock()
			result.Errors = append(result.Errors, fmt.Sprintf("%s: not a recognized sitemap document", loc))
			mu.Unlock()
			return nil
		}

		// Fan out over index children; each child failure is already
		// recorded as non-fatal inside the recursive call.
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(indexFanout)
		for _, child := range index.Sitemaps {
			childLoc := strings.TrimSpace(child.Loc)
			if childLoc == "" {
				continue
			}
			g.Go(func() error {
				return walk(gctx, childLoc, depth+1)
			})
		}
		return g.Wait()
	}

	if err := walk(ctx, sitemapURL, 1); err != nil {
		return result, err
	}

	if result.SitemapsProcessed == 0 {
		return result, fmt.Errorf("sitemap fetch failed: %s", strings.Join(result.Errors, "; "))
	}

	return result, nil
}

// get performs one sitemap HTTP request, transparently decompressing
// gzip-suffixed documents.
func (f *Fetcher) get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept-Language", f.acceptLanguage)
	req.Header.Set("Accept", "application/xml,text/xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close() //nolint:errcheck // Read-only body close

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	var reader io.Reader = io.LimitReader(resp.Body, maxSitemapBody)
	if strings.HasSuffix(rawURL, ".gz") || resp.Header.Get("Content-Type") == "application/x-gzip" {
		gz, err := gzip.NewReader(reader)
		if err != nil {
			return nil, fmt.Errorf("gzip: %w", err)
		}
		defer gz.Close() //nolint:errcheck // Read-only reader close
		reader = gz
	}

	return io.ReadAll(reader)
}

// DefaultURL returns the conventional sitemap location for a base URL.
func DefaultURL(baseURL string) string {
	return strings.TrimSuffix(baseURL, "/") + "/sitemap.xml"
}
