package crawler

import (
	"sync"

	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/urlutil"
)

// Frontier is the set of discovered-but-not-yet-terminal crawl targets.
//
// Membership is tested on the normalized URL: once a URL has been pushed
// (or marked seen as a skip), no same-normalized URL is ever accepted
// again, which guarantees that no target producing a terminal outcome is
// re-dispatched.
//
// The frontier also tracks the number of outstanding targets (queued plus
// in-flight). When the last outstanding target completes, the frontier
// closes itself and all blocked Pop calls return, terminating the worker
// pool without a separate coordinator.
type Frontier struct {
	mu          sync.Mutex
	cond        *sync.Cond
	queue       []model.CrawlTarget
	seen        map[string]bool
	outstanding int
	closed      bool
}

// NewFrontier creates an empty frontier.
func NewFrontier() *Frontier {
	f := &Frontier{seen: make(map[string]bool)}
	f.cond = sync.NewCond(&f.mu)
	return f
}

// Push enqueues a target unless its normalized URL has been seen before or
// the frontier is closed. Returns true when the target was accepted.
func (f *Frontier) Push(target model.CrawlTarget) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}

	key := urlutil.Normalize(target.URL)
	if f.seen[key] {
		return false
	}
	f.seen[key] = true

	f.queue = append(f.queue, target)
	f.outstanding++
	f.cond.Signal()
	return true
}

// Pop returns the next target in FIFO order, blocking while the queue is
// empty but targets are still in flight (their expansion may refill the
// queue). Returns false when the frontier has closed or drained.
func (f *Frontier) Pop() (model.CrawlTarget, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if f.closed {
			return model.CrawlTarget{}, false
		}
		if len(f.queue) > 0 {
			target := f.queue[0]
			f.queue = f.queue[1:]
			return target, true
		}
		if f.outstanding == 0 {
			f.closed = true
			f.cond.Broadcast()
			return model.CrawlTarget{}, false
		}
		f.cond.Wait()
	}
}

// Done marks one popped target as terminally processed. When the last
// outstanding target is done and the queue is empty, the frontier closes.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.outstanding--
	if f.outstanding == 0 && len(f.queue) == 0 {
		f.closed = true
	}
	f.cond.Broadcast()
}

// Close shuts the frontier down: queued targets are discarded and all
// blocked Pop calls return. Used when the page budget is exhausted;
// in-flight targets still complete.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.closed = true
	f.queue = nil
	f.cond.Broadcast()
}

// MarkSeen records a normalized URL as seen without enqueueing it, so a
// URL skipped before dispatch is recorded at most once and never enqueued
// later. Returns false when the URL was already seen.
func (f *Frontier) MarkSeen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := urlutil.Normalize(rawURL)
	if f.seen[key] {
		return false
	}
	f.seen[key] = true
	return true
}

// Seen reports whether a URL's normalized form has been seen.
func (f *Frontier) Seen(rawURL string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[urlutil.Normalize(rawURL)]
}

// Len returns the number of queued targets.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}
