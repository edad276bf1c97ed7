package structure

import (
	"fmt"
	"sync"
	"testing"

	"github.com/nao1215/sitegraph/internal/model"
)

func TestManifestBuilder(t *testing.T) {
	t.Parallel()

	t.Run("deduplicates assets across pages and tracks referrers", func(t *testing.T) {
		t.Parallel()

		b := NewManifestBuilder()
		b.Fold("https://example.com", []model.AssetRef{
			{URL: "https://example.com/logo.png", Kind: model.AssetImage},
			{URL: "https://example.com/app.js", Kind: model.AssetScript},
		})
		b.Fold("https://example.com/about", []model.AssetRef{
			{URL: "https://example.com/logo.png", Kind: model.AssetImage},
		})

		manifest := b.Manifest()
		if len(manifest) != 2 {
			t.Fatalf("manifest length = %d, want 2", len(manifest))
		}

		logo := manifest[0]
		if logo.URL != "https://example.com/logo.png" {
			t.Fatalf("first asset = %q, want discovery order preserved", logo.URL)
		}
		if len(logo.ReferencedBy) != 2 {
			t.Fatalf("logo referencedBy = %v, want both pages", logo.ReferencedBy)
		}
		if logo.ReferencedBy[0] != "https://example.com" || logo.ReferencedBy[1] != "https://example.com/about" {
			t.Errorf("logo referencedBy order = %v", logo.ReferencedBy)
		}

		script := manifest[1]
		if script.Kind != model.AssetScript {
			t.Errorf("script kind = %q", script.Kind)
		}
		if len(script.ReferencedBy) != 1 {
			t.Errorf("script referencedBy = %v, want one page", script.ReferencedBy)
		}
	})

	t.Run("same page referencing an asset twice appears once", func(t *testing.T) {
		t.Parallel()

		b := NewManifestBuilder()
		b.Fold("https://example.com", []model.AssetRef{
			{URL: "https://example.com/style.css", Kind: model.AssetStylesheet},
			{URL: "https://example.com/style.css", Kind: model.AssetStylesheet},
		})

		manifest := b.Manifest()
		if len(manifest) != 1 {
			t.Fatalf("manifest length = %d, want 1", len(manifest))
		}
		if got := manifest[0].ReferencedBy; len(got) != 1 {
			t.Errorf("referencedBy = %v, want a single entry", got)
		}
	})

	t.Run("first reference fixes the asset kind", func(t *testing.T) {
		t.Parallel()

		b := NewManifestBuilder()
		b.Fold("https://example.com/a", []model.AssetRef{
			{URL: "https://example.com/thing", Kind: model.AssetImage},
		})
		b.Fold("https://example.com/b", []model.AssetRef{
			{URL: "https://example.com/thing", Kind: model.AssetOther},
		})

		if got := b.Manifest()[0].Kind; got != model.AssetImage {
			t.Errorf("kind = %q, want the first page's classification", got)
		}
	})

	t.Run("empty asset URLs are skipped", func(t *testing.T) {
		t.Parallel()

		b := NewManifestBuilder()
		b.Fold("https://example.com", []model.AssetRef{{URL: ""}})
		if b.Len() != 0 {
			t.Errorf("len = %d, want 0", b.Len())
		}
	})

	t.Run("concurrent folds are safe", func(t *testing.T) {
		t.Parallel()

		b := NewManifestBuilder()
		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				b.Fold(fmt.Sprintf("https://example.com/page-%d", i), []model.AssetRef{
					{URL: "https://example.com/shared.js", Kind: model.AssetScript},
					{URL: fmt.Sprintf("https://example.com/unique-%d.png", i), Kind: model.AssetImage},
				})
			}(i)
		}
		wg.Wait()

		if b.Len() != 11 {
			t.Fatalf("distinct assets = %d, want 11", b.Len())
		}
		for _, asset := range b.Manifest() {
			if asset.URL == "https://example.com/shared.js" {
				if len(asset.ReferencedBy) != 10 {
					t.Errorf("shared referencedBy = %d, want 10", len(asset.ReferencedBy))
				}
			}
		}
	})
}
