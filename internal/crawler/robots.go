package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/temoto/robotstxt"
)

// RobotsGate fetches and caches robots.txt rules per host and answers
// whether a path may be dispatched.
//
// Design decision: The gate fails open. A robots.txt that cannot be
// fetched or parsed never blocks the crawl; the cache stores a nil entry
// so the host is not re-fetched on every push decision. Disallowed URLs
// are recorded as skipped, never as failures.
type RobotsGate struct {
	// client performs the robots.txt fetches.
	client *http.Client

	// userAgent is the agent token tested against the rules.
	userAgent string

	// cache maps host to *robotsEntry.
	cache sync.Map
}

// robotsEntry is one cached per-host rule set. A nil data means allow-all.
type robotsEntry struct {
	data      *robotstxt.RobotsData
	fetchedAt time.Time
}

// robotsCacheTTL bounds how long a per-host entry is reused.
const robotsCacheTTL = time.Hour

// NewRobotsGate creates a robots.txt gate for the given user agent.
// A nil client falls back to a client with a short timeout.
func NewRobotsGate(client *http.Client, userAgent string) *RobotsGate {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsGate{
		client:    client,
		userAgent: userAgent,
	}
}

// Allowed reports whether the URL may be crawled. Fetch and parse errors
// allow the URL and cache an allow-all entry for the host.
func (g *RobotsGate) Allowed(ctx context.Context, rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return true
	}

	if cached, ok := g.cache.Load(u.Host); ok {
		entry := cached.(*robotsEntry)
		if time.Since(entry.fetchedAt) < robotsCacheTTL {
			if entry.data == nil {
				return true
			}
			return entry.data.TestAgent(u.Path, g.userAgent)
		}
		g.cache.Delete(u.Host)
	}

	data := g.fetch(ctx, u)
	g.cache.Store(u.Host, &robotsEntry{data: data, fetchedAt: time.Now()})
	if data == nil {
		return true
	}
	return data.TestAgent(u.Path, g.userAgent)
}

// fetch retrieves and parses the host's robots.txt. Any failure returns
// nil, which the caller treats as allow-all.
func (g *RobotsGate) fetch(ctx context.Context, u *url.URL) *robotstxt.RobotsData {
	robotsURL := fmt.Sprintf("%s://%s/robots.txt", u.Scheme, u.Host)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close() //nolint:errcheck // response body close failure is not actionable

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil
	}

	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}
	return data
}
