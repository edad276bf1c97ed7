package extract

import (
	"encoding/json"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/urlutil"
)

// IncludeOptions selects which extraction fields are populated, driven by
// the configured output profile.
type IncludeOptions struct {
	// Assets enables asset-reference extraction.
	Assets bool

	// Text enables visible-text extraction.
	Text bool

	// HTML retains the rendered markup on the page.
	HTML bool

	// StructuredData enables JSON-LD extraction.
	StructuredData bool
}

// Extraction is the result of extracting one rendered page.
type Extraction struct {
	// Title is the page title.
	Title string

	// Metadata holds head metadata.
	Metadata model.PageMetadata

	// Links contains all anchors, internal and external.
	Links []model.Link

	// Assets contains asset references, when requested.
	Assets []model.AssetRef

	// Text is the visible text, when requested.
	Text string

	// HTML is the rendered markup, when requested.
	HTML string

	// StructuredData contains JSON-LD blocks, when requested.
	StructuredData []model.StructuredData
}

// Extractor extracts page content from rendered markup.
type Extractor struct {
	// baseHost is the crawl's base hostname used for internal-link
	// classification.
	baseHost string

	// include selects the populated fields.
	include IncludeOptions
}

// New creates an Extractor for a crawl rooted at the given base hostname.
func New(baseHost string, include IncludeOptions) *Extractor {
	return &Extractor{baseHost: baseHost, include: include}
}

// Extract parses the rendered markup of the page at pageURL and produces
// the extraction. Parsing failures yield a mostly-empty extraction rather
// than an error: by the time markup reaches this point the render already
// succeeded, and a page we cannot parse still counts as visited.
func (e *Extractor) Extract(html, pageURL string) *Extraction {
	ex := &Extraction{}
	if e.include.HTML {
		ex.HTML = html
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ex
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		return ex
	}

	ex.Title = strings.TrimSpace(doc.Find("title").First().Text())
	ex.Metadata = e.extractMetadata(doc, base)
	ex.Links = e.extractLinks(doc, base)

	if e.include.Assets {
		ex.Assets = e.extractAssets(doc, base)
	}
	if e.include.Text {
		ex.Text = extractText(doc)
	}
	if e.include.StructuredData {
		ex.StructuredData = extractStructuredData(doc)
	}

	return ex
}

// extractMetadata pulls head metadata from the document.
func (e *Extractor) extractMetadata(doc *goquery.Document, base *url.URL) model.PageMetadata {
	meta := model.PageMetadata{}

	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, ok := s.Attr("content")
		if !ok {
			return
		}
		switch name, _ := s.Attr("name"); strings.ToLower(name) {
		case "description":
			meta.Description = strings.TrimSpace(content)
		case "robots":
			meta.Robots = strings.TrimSpace(content)
		case "generator":
			meta.Generator = strings.TrimSpace(content)
		}

		if prop, ok := s.Attr("property"); ok && strings.HasPrefix(strings.ToLower(prop), "og:") {
			if meta.OpenGraph == nil {
				meta.OpenGraph = make(map[string]string)
			}
			meta.OpenGraph[strings.TrimPrefix(strings.ToLower(prop), "og:")] = content
		}
	})

	if href, ok := doc.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		meta.Canonical = resolveURL(base, href)
	}
	if lang, ok := doc.Find("html").First().Attr("lang"); ok {
		meta.Language = lang
	}

	return meta
}

// extractLinks pulls all anchors and classifies them against the base host.
func (e *Extractor) extractLinks(doc *goquery.Document, base *url.URL) []model.Link {
	var links []model.Link

	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") ||
			strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "tel:") ||
			strings.HasPrefix(href, "javascript:") {
			return
		}

		abs := resolveURL(base, href)
		if abs == "" {
			return
		}

		target, err := url.Parse(abs)
		if err != nil || (target.Scheme != "http" && target.Scheme != "https") {
			return
		}

		rel, _ := s.Attr("rel")
		links = append(links, model.Link{
			URL:        abs,
			Text:       collapseWhitespace(s.Text()),
			IsInternal: urlutil.SameOrSubdomain(e.baseHost, target.Hostname()),
			Rel:        rel,
		})
	})

	return links
}

// assetSelectors maps CSS selectors to the asset kind and URL attribute
// they contribute.
var assetSelectors = []struct {
	selector string
	attr     string
	kind     model.AssetKind
}{
	{"img[src]", "src", model.AssetImage},
	{"script[src]", "src", model.AssetScript},
	{`link[rel="stylesheet"][href]`, "href", model.AssetStylesheet},
	{`link[rel="preload"][as="font"][href]`, "href", model.AssetFont},
	{"video[src]", "src", model.AssetMedia},
	{"audio[src]", "src", model.AssetMedia},
	{"source[src]", "src", model.AssetMedia},
	{`link[rel="icon"][href]`, "href", model.AssetOther},
	{`link[rel="manifest"][href]`, "href", model.AssetOther},
}

// extractAssets pulls asset references from the document.
// Only URLs are collected; asset content is never fetched.
func (e *Extractor) extractAssets(doc *goquery.Document, base *url.URL) []model.AssetRef {
	var assets []model.AssetRef

	for _, sel := range assetSelectors {
		doc.Find(sel.selector).Each(func(_ int, s *goquery.Selection) {
			raw, _ := s.Attr(sel.attr)
			raw = strings.TrimSpace(raw)
			if raw == "" || strings.HasPrefix(raw, "data:") {
				return
			}
			abs := resolveURL(base, raw)
			if abs == "" {
				return
			}
			ref := model.AssetRef{URL: abs, Kind: sel.kind}
			if sel.kind == model.AssetImage {
				ref.Alt, _ = s.Attr("alt")
			}
			assets = append(assets, ref)
		})
	}

	return assets
}

// extractText returns the visible text of the document body with scripts
// and styles removed and whitespace collapsed.
func extractText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template").Remove()
	return collapseWhitespace(body.Text())
}

// extractStructuredData collects JSON-LD blocks. Only blocks that parse as
// JSON are kept; the @type of the top-level object is recorded when present.
func extractStructuredData(doc *goquery.Document) []model.StructuredData {
	var blocks []model.StructuredData

	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" {
			return
		}

		var payload map[string]any
		if err := json.Unmarshal([]byte(raw), &payload); err != nil {
			// Also accept top-level arrays of objects.
			var list []map[string]any
			if err := json.Unmarshal([]byte(raw), &list); err != nil {
				return
			}
			blocks = append(blocks, model.StructuredData{Format: "json-ld", Raw: raw})
			return
		}

		block := model.StructuredData{Format: "json-ld", Raw: raw}
		if t, ok := payload["@type"].(string); ok {
			block.Type = t
		}
		blocks = append(blocks, block)
	})

	return blocks
}

// resolveURL resolves a possibly-relative reference against the page URL.
// Returns empty string when the reference cannot be parsed.
func resolveURL(base *url.URL, ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return ""
	}
	return base.ResolveReference(u).String()
}

// collapseWhitespace trims and collapses runs of whitespace into single
// spaces.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
