package structure

import (
	"sync"

	"github.com/nao1215/sitegraph/internal/model"
)

// ManifestBuilder folds per-page asset references into a deduplicated
// asset manifest keyed by asset URL.
//
// Design decision: Unlike the hierarchy, the manifest is built
// incrementally as pages commit, because the crawl loop already holds the
// page's asset list at commit time and a second full pass over every page
// would re-walk data we just had in hand. Fold is safe for concurrent use;
// Manifest must only be called after the crawl loop has drained.
//
// The first page to reference an asset fixes its Kind. ReferencedBy
// preserves discovery order across pages; within a single page's asset
// list, duplicate references to the same URL add the page only once.
type ManifestBuilder struct {
	mu     sync.Mutex
	assets map[string]*model.ManifestAsset
	order  []string
}

// NewManifestBuilder returns an empty manifest builder.
func NewManifestBuilder() *ManifestBuilder {
	return &ManifestBuilder{
		assets: map[string]*model.ManifestAsset{},
	}
}

// Fold merges one page's asset references into the manifest.
func (b *ManifestBuilder) Fold(pageURL string, assets []model.AssetRef) {
	if len(assets) == 0 {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ref := range assets {
		if ref.URL == "" {
			continue
		}
		entry, ok := b.assets[ref.URL]
		if !ok {
			entry = &model.ManifestAsset{
				URL:  ref.URL,
				Kind: ref.Kind,
			}
			b.assets[ref.URL] = entry
			b.order = append(b.order, ref.URL)
		}
		// Repeated references on the same page collapse to one entry;
		// assets list order within a page makes the last element the
		// only candidate for the duplicate.
		if n := len(entry.ReferencedBy); n > 0 && entry.ReferencedBy[n-1] == pageURL {
			continue
		}
		entry.ReferencedBy = append(entry.ReferencedBy, pageURL)
	}
}

// Manifest returns the accumulated assets in discovery order.
func (b *ManifestBuilder) Manifest() []*model.ManifestAsset {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]*model.ManifestAsset, 0, len(b.order))
	for _, u := range b.order {
		out = append(out, b.assets[u])
	}
	return out
}

// Len reports the number of distinct asset URLs folded so far.
func (b *ManifestBuilder) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.order)
}
