package crawler

import "sync"

// DynamicPolicy selects how URLs collapsing to an already-seen dynamic
// pattern are treated.
//
// Design decision: Only the skip-all-but-first policy is implemented. The
// type exists as the extension point for collecting one sample per pattern
// or all members, which are deliberately deferred.
type DynamicPolicy string

// Dynamic policies.
const (
	// PolicySkipAfterFirst dispatches the first URL of each dynamic
	// pattern and routes every subsequent same-pattern URL to the skip
	// ledger.
	PolicySkipAfterFirst DynamicPolicy = "skip-after-first"
)

// SeenPatternSet tracks dynamic URL patterns that have been dispatched at
// least once. Once a pattern is in the set, all subsequent same-pattern
// URLs are skipped instead of dispatched, bounding the otherwise-unbounded
// space of parameterized pages.
//
// The set is scoped to one crawl run.
type SeenPatternSet struct {
	mu       sync.Mutex
	patterns map[string]bool
}

// NewSeenPatternSet creates an empty pattern set.
func NewSeenPatternSet() *SeenPatternSet {
	return &SeenPatternSet{patterns: make(map[string]bool)}
}

// MarkSeen records a pattern as dispatched. Returns true when this was the
// pattern's first occurrence, meaning the caller should dispatch the URL.
// The check-and-set is atomic so concurrent workers cannot both win.
func (s *SeenPatternSet) MarkSeen(pattern string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.patterns[pattern] {
		return false
	}
	s.patterns[pattern] = true
	return true
}

// Seen reports whether a pattern has been dispatched before.
func (s *SeenPatternSet) Seen(pattern string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.patterns[pattern]
}

// Len returns the number of distinct patterns seen.
func (s *SeenPatternSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.patterns)
}
