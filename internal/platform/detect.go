package platform

import (
	"regexp"
	"strings"

	"github.com/nao1215/sitegraph/internal/model"
)

// signal is one weighted piece of evidence for a platform.
type signal struct {
	// regex is tested against the page corpus (HTML plus asset URLs).
	regex *regexp.Regexp

	// label names the signal in the detection report.
	label string

	// weight is the signal's contribution to the platform score.
	weight float64
}

// signature is the evidence table for one platform.
type signature struct {
	name    string
	signals []signal
}

// Detector matches crawled pages against known platform signatures.
type Detector struct {
	signatures []signature

	// maxPages bounds how many pages contribute to the corpus. Platform
	// markers repeat on every page, so a handful is enough.
	maxPages int
}

// NewDetector creates a detector with the built-in signature table.
func NewDetector() *Detector {
	return &Detector{
		signatures: builtinSignatures(),
		maxPages:   5,
	}
}

// Detect scores every signature against the crawled pages and returns the
// best match, or nil when no signal matched at all.
func (d *Detector) Detect(pages []*model.CrawledPage) *model.PlatformInfo {
	corpus := d.buildCorpus(pages)
	if corpus == "" {
		return nil
	}

	var best *model.PlatformInfo
	var bestScore float64
	for _, sig := range d.signatures {
		var matched, total float64
		var signals []string
		for _, s := range sig.signals {
			total += s.weight
			if s.regex.MatchString(corpus) {
				matched += s.weight
				signals = append(signals, s.label)
			}
		}
		if matched == 0 {
			continue
		}
		if matched > bestScore {
			bestScore = matched
			best = &model.PlatformInfo{
				Name:       sig.name,
				Confidence: matched / total,
				Signals:    signals,
			}
		}
	}
	return best
}

// buildCorpus concatenates the detection-relevant material of the first
// few pages: rendered markup when retained, generator metadata, and asset
// URLs.
func (d *Detector) buildCorpus(pages []*model.CrawledPage) string {
	var b strings.Builder
	for i, page := range pages {
		if i >= d.maxPages {
			break
		}
		if page.Metadata.Generator != "" {
			b.WriteString(`<meta name="generator" content="` + page.Metadata.Generator + `">`)
			b.WriteString("\n")
		}
		if page.HTML != "" {
			b.WriteString(page.HTML)
			b.WriteString("\n")
		}
		for _, asset := range page.Assets {
			b.WriteString(asset.URL)
			b.WriteString("\n")
		}
	}
	return b.String()
}

// builtinSignatures is the evidence table for the platforms worth telling
// apart. Generator tags weigh most; path conventions corroborate.
func builtinSignatures() []signature {
	return []signature{
		{
			name: "wordpress",
			signals: []signal{
				{regexp.MustCompile(`(?i)generator[^>]*content="WordPress`), "generator meta tag", 3},
				{regexp.MustCompile(`/wp-content/`), "wp-content asset path", 2},
				{regexp.MustCompile(`/wp-includes/`), "wp-includes asset path", 2},
				{regexp.MustCompile(`/wp-json/`), "wp-json API reference", 1},
			},
		},
		{
			name: "shopify",
			signals: []signal{
				{regexp.MustCompile(`cdn\.shopify\.com`), "Shopify CDN", 3},
				{regexp.MustCompile(`(?i)Shopify\.theme`), "Shopify theme object", 2},
				{regexp.MustCompile(`/cdn/shop/`), "shop CDN path", 1},
			},
		},
		{
			name: "wix",
			signals: []signal{
				{regexp.MustCompile(`(?i)generator[^>]*content="Wix`), "generator meta tag", 3},
				{regexp.MustCompile(`static\.wixstatic\.com`), "Wix static CDN", 2},
				{regexp.MustCompile(`(?i)wix-code|wixBiSession`), "Wix runtime globals", 1},
			},
		},
		{
			name: "squarespace",
			signals: []signal{
				{regexp.MustCompile(`(?i)generator[^>]*content="Squarespace`), "generator meta tag", 3},
				{regexp.MustCompile(`static1\.squarespace\.com`), "Squarespace static CDN", 2},
			},
		},
		{
			name: "drupal",
			signals: []signal{
				{regexp.MustCompile(`(?i)generator[^>]*content="Drupal`), "generator meta tag", 3},
				{regexp.MustCompile(`/sites/default/files/`), "Drupal files path", 2},
				{regexp.MustCompile(`(?i)drupal-settings-json`), "Drupal settings block", 1},
			},
		},
		{
			name: "nextjs",
			signals: []signal{
				{regexp.MustCompile(`/_next/static/`), "_next static assets", 3},
				{regexp.MustCompile(`id="__NEXT_DATA__"`), "__NEXT_DATA__ script", 3},
			},
		},
		{
			name: "gatsby",
			signals: []signal{
				{regexp.MustCompile(`id="___gatsby"`), "gatsby root element", 3},
				{regexp.MustCompile(`/page-data/`), "gatsby page-data path", 2},
			},
		},
		{
			name: "nuxt",
			signals: []signal{
				{regexp.MustCompile(`id="__nuxt"|window\.__NUXT__`), "nuxt root or state", 3},
				{regexp.MustCompile(`/_nuxt/`), "_nuxt asset path", 2},
			},
		},
		{
			name: "webflow",
			signals: []signal{
				{regexp.MustCompile(`(?i)generator[^>]*content="Webflow`), "generator meta tag", 3},
				{regexp.MustCompile(`assets(-global)?\.website-files\.com`), "Webflow asset CDN", 2},
			},
		},
		{
			name: "ghost",
			signals: []signal{
				{regexp.MustCompile(`(?i)generator[^>]*content="Ghost`), "generator meta tag", 3},
				{regexp.MustCompile(`/ghost/assets/|ghost-sdk`), "ghost asset path", 1},
			},
		},
	}
}
