// Package model defines the core data structures used throughout sitegraph.
//
// This package contains the following main types:
//   - CrawlTarget: A URL queued for visitation with depth and discovery source
//   - CrawledPage: One successfully visited page with extracted content
//   - CrawlState: The append-only ledgers of crawl outcomes
//   - URLHierarchyNode: A node in the derived site-structure tree
//   - ManifestAsset: One distinct asset URL with its referencing pages
//   - CrawlResult: The final intermediate representation handed downstream
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, structure, report, database) need
// to use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
