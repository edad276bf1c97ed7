package model

// CrawlState holds the four append-only ledgers accumulated during a crawl.
//
// Invariant: a given normalized URL appears in at most one of Visited/Failed
// as a terminal record, though it may appear in Skipped if excluded before
// dispatch, and in Redirects independently if its fetch followed a redirect
// chain.
//
// Design decision: This struct is the frozen, serializable snapshot embedded
// in the final result. The concurrency-safe accumulator that builds it lives
// in the crawler package; keeping the snapshot free of mutexes means it can
// be marshalled and stored without copying.
type CrawlState struct {
	// Visited lists the normalized URLs of successfully crawled pages,
	// in commit order. Under concurrency this is completion order, not
	// discovery or breadth-first order.
	Visited []string `json:"visited"`

	// Failed lists targets whose rendering failed after exhausting retries.
	Failed []FailureRecord `json:"failed"`

	// Redirects lists observed redirects. A URL may appear here in
	// addition to Visited or Failed.
	Redirects []RedirectRecord `json:"redirects"`

	// Skipped lists targets filtered before dispatch, with reasons.
	Skipped []SkipRecord `json:"skipped"`
}

// FailureRecord describes one terminally failed target.
type FailureRecord struct {
	// URL is the normalized URL that failed.
	URL string `json:"url"`

	// Error is the final error message.
	Error string `json:"error"`

	// Attempts is the number of render attempts made before giving up.
	Attempts int `json:"attempts"`
}

// RedirectRecord describes one observed redirect.
type RedirectRecord struct {
	// From is the requested URL.
	From string `json:"from"`

	// To is the final loaded URL.
	To string `json:"to"`

	// Status is the HTTP redirect status. The render backend does not
	// expose the precise status per hop, so 301 is recorded as a
	// placeholder when the true status is unknown.
	Status int `json:"status"`
}

// RedirectStatusUnknown is the placeholder status recorded when the render
// backend cannot report the actual redirect status code.
const RedirectStatusUnknown = 301

// SkipRecord describes one target that was filtered before dispatch.
type SkipRecord struct {
	// URL is the URL that was skipped.
	URL string `json:"url"`

	// Reason explains the skip. Dynamic-pattern skips use the form
	// "dynamic:<pattern>" (e.g. "dynamic:/product/:id"); exclude-pattern
	// skips use "excluded"; depth skips use "depth".
	Reason string `json:"reason"`
}
