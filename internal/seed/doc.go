// Package seed resolves the initial URL frontier for a crawl from the base
// URL, optional sitemap discovery, hierarchical-exclude parents, and
// explicit priority seed paths.
//
// Sitemap failure is swallowed at this boundary: the crawl falls back to
// the base URL as sole seed rather than propagating the error.
package seed
