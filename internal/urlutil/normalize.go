package urlutil

import (
	"net/url"
	"strings"
)

// Normalize canonicalizes a URL for deduplication.
//
// It lowercases the host, strips the default port for the scheme (80 for
// http, 443 for https), drops the query string and fragment, and removes a
// single trailing slash from non-root paths. Malformed input is returned
// unchanged; Normalize never fails.
//
// Design decision: We strip query strings because the crawl treats
// parameterized variants of a page as one page for dedup purposes. The
// dynamic-pattern classifier handles the cases where a query parameter is
// the page's identity.
func Normalize(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)

	// Strip default ports so http://host:80/ and http://host/ compare equal.
	host, port, found := strings.Cut(u.Host, ":")
	if found {
		if (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
			u.Host = host
		}
	}

	u.RawQuery = ""
	u.Fragment = ""
	u.RawFragment = ""

	// Remove a single trailing slash from non-root paths.
	if len(u.Path) > 1 && strings.HasSuffix(u.Path, "/") {
		u.Path = strings.TrimSuffix(u.Path, "/")
		u.RawPath = strings.TrimSuffix(u.RawPath, "/")
	}

	return u.String()
}

// SameOrSubdomain reports whether host is the base hostname or a subdomain
// of it. The comparison is case-insensitive and ignores a "www." prefix on
// either side.
func SameOrSubdomain(baseHost, host string) bool {
	base := strings.TrimPrefix(strings.ToLower(baseHost), "www.")
	h := strings.TrimPrefix(strings.ToLower(host), "www.")
	if base == "" || h == "" {
		return false
	}
	return h == base || strings.HasSuffix(h, "."+base)
}
