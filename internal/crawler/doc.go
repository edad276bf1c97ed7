// Package crawler implements the crawl scheduler: the frontier of URLs to
// visit, the bounded-concurrency worker pool, and the accumulation of crawl
// state.
//
// # Architecture
//
// The Crawler coordinates a fixed pool of workers over a shared Frontier.
// Each worker's unit of work is one full render, extract, commit, expand
// cycle for one target; workers are symmetric and stateless between
// targets. Contention exists only on the frontier, the state accumulator,
// the seen-pattern set, and the asset manifest, all of which need only
// short append-or-insert critical sections.
//
// # Bounding
//
// Websites can be effectively infinite through parameterized routes, so
// three independent bounds govern the loop:
//   - a page budget on total dispatched targets
//   - a depth budget on link-hop distance from the seed
//   - a seen-pattern set that collapses dynamic URL families (/product/123,
//     /product/456 → /product/:id) and dispatches only the first member
//
// # Ordering
//
// The visited ledger records commit order, which under concurrency is
// completion order, never discovery or breadth-first order. Callers must
// not assume any ordering across workers.
//
// Design decision: We implement our own scheduler rather than adopting a
// crawling framework because the frontier semantics (normalized dedup,
// pattern gating, priority seeds, per-target outcome ledgers) are the
// product itself, not incidental plumbing.
package crawler
