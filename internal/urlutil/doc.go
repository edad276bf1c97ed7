// Package urlutil provides URL canonicalization and pattern matching for
// the crawl engine.
//
// # Components
//
//   - Normalize: canonicalizes URLs into the dedup key used everywhere two
//     URLs must be compared
//   - ClassifyDynamic: recognizes parameterized URL families (numeric IDs,
//     UUIDs, ObjectIds) and collapses them into pattern strings
//   - MatchesExclude / MatchesHierarchicalExclude: evaluate user-supplied
//     exclude and prune patterns
//
// Design decision: All functions in this package are total over string
// input. A URL that fails to parse is returned unchanged by Normalize and
// treated as non-matching by the matchers; parsing failures must never
// abort the crawl loop.
package urlutil
