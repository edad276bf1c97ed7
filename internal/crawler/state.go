package crawler

import (
	"sync"

	"github.com/nao1215/sitegraph/internal/model"
)

// Accumulator is the shared mutable crawl aggregate: the page list and the
// four append-only outcome ledgers.
//
// Commit is the only writer; no deletions or in-place updates are ever
// performed. Readers consume the snapshot only after the loop has fully
// terminated, so no concurrent-read-during-write contract is needed.
//
// Design decision: The accumulator is passed explicitly into the scheduler
// rather than living as package state, so concurrent crawls (batch mode)
// cannot share ledgers by accident.
type Accumulator struct {
	mu    sync.Mutex
	pages []*model.CrawledPage
	state model.CrawlState
}

// NewAccumulator creates an empty accumulator.
func NewAccumulator() *Accumulator {
	return &Accumulator{}
}

// Commit records one visit outcome in the appropriate ledgers. A success
// appends the page and its URL in commit order; a failure or skip appends
// its record. The redirect side-record is appended whenever present,
// whichever outcome kind it accompanies.
func (a *Accumulator) Commit(outcome model.VisitOutcome) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if outcome.Redirect != nil {
		a.state.Redirects = append(a.state.Redirects, *outcome.Redirect)
	}

	switch outcome.Kind {
	case model.OutcomeSuccess:
		a.pages = append(a.pages, outcome.Page)
		a.state.Visited = append(a.state.Visited, outcome.Page.URL)
	case model.OutcomeFailure:
		a.state.Failed = append(a.state.Failed, *outcome.Failure)
	case model.OutcomeSkipped:
		a.state.Skipped = append(a.state.Skipped, *outcome.Skip)
	}
}

// Pages returns the committed pages. Call only after the crawl loop has
// terminated.
func (a *Accumulator) Pages() []*model.CrawledPage {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pages
}

// Snapshot returns the frozen crawl state. Call only after the crawl loop
// has terminated.
func (a *Accumulator) Snapshot() model.CrawlState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Terminal returns the number of terminal outcomes recorded (visited plus
// failed), used to assert the page budget.
func (a *Accumulator) Terminal() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.state.Visited) + len(a.state.Failed)
}
