// Package sitemap fetches and parses sitemap.xml documents, following
// sitemap-index files recursively up to a depth bound.
//
// Failures are non-fatal by design: a branch of a sitemap index that cannot
// be fetched or parsed contributes an error string to the result while
// sibling branches still complete. The seed resolver treats a fully failed
// sitemap the same way, falling back to the base URL as sole seed.
package sitemap
