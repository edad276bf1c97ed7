package render

import "context"

// Result is the outcome of rendering one URL.
type Result struct {
	// RequestedURL is the URL the render was asked for.
	RequestedURL string

	// LoadedURL is the final URL after any redirects. When it differs
	// from RequestedURL the crawler records a redirect.
	LoadedURL string

	// HTML is the rendered document markup after JS execution.
	HTML string

	// Settled is false when the network-settle wait timed out. The DOM is
	// still usable; extraction proceeds best-effort.
	Settled bool

	// Attempts is the number of render attempts made, filled in by the
	// retry wrapper. A direct renderer reports 1.
	Attempts int
}

// Renderer renders one URL into a live DOM snapshot.
//
// Implementations must honor ctx cancellation and return an error on
// navigation failure. The crawler treats any returned error as a transient
// per-target failure; it never aborts the crawl.
type Renderer interface {
	Render(ctx context.Context, url string) (*Result, error)
}
