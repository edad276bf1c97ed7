package model

import (
	"net/url"
	"path"
	"strings"
	"time"
)

// CrawledPage represents one successfully visited page.
//
// A page is created once by the crawl loop upon successful extraction and is
// immutable thereafter. It owns all of its extracted values; there are no
// cross-page references, so pages can be serialized and compared in isolation.
type CrawledPage struct {
	// URL is the canonical URL of the page (the URL that was requested,
	// normalized). When the visit followed a redirect, the final loaded URL
	// is recorded separately in the crawl state's redirect ledger.
	URL string `json:"url"`

	// LocalPath is a synthesized file-system-friendly path derived from the
	// URL path. It is used only for offline naming (e.g. screenshot files)
	// and carries no crawl semantics.
	LocalPath string `json:"localPath"`

	// VisitedAt is the timestamp when the page was committed.
	VisitedAt time.Time `json:"visitedAt"`

	// Depth is the link-hop distance from the seed at which this page
	// was discovered.
	Depth int `json:"depth"`

	// Title is the page title extracted from the <title> tag.
	Title string `json:"title,omitempty"`

	// Metadata holds extracted head metadata.
	Metadata PageMetadata `json:"metadata"`

	// Links contains all anchors found on the page.
	Links []Link `json:"links,omitempty"`

	// Assets contains asset references found on the page.
	// Populated only when the output profile includes assets.
	Assets []AssetRef `json:"assets,omitempty"`

	// Text is the visible text content of the page.
	// Populated only when the output profile includes text.
	Text string `json:"text,omitempty"`

	// HTML is the rendered document markup.
	// Populated only when the output profile includes HTML.
	HTML string `json:"html,omitempty"`

	// StructuredData contains JSON-LD and microdata blocks found on the page.
	StructuredData []StructuredData `json:"structuredData,omitempty"`
}

// PageMetadata holds metadata extracted from a page's head section.
type PageMetadata struct {
	// Description is the meta description content.
	Description string `json:"description,omitempty"`

	// Canonical is the canonical link href, resolved to an absolute URL.
	Canonical string `json:"canonical,omitempty"`

	// Robots is the meta robots directive (e.g. "noindex, nofollow").
	Robots string `json:"robots,omitempty"`

	// Generator is the meta generator content, useful for platform detection.
	Generator string `json:"generator,omitempty"`

	// Language is the document language from the html lang attribute.
	Language string `json:"language,omitempty"`

	// OpenGraph holds og:* properties keyed by property name without
	// the "og:" prefix.
	OpenGraph map[string]string `json:"openGraph,omitempty"`
}

// Link represents one anchor element found on a page.
type Link struct {
	// URL is the absolute link target, resolved against the page URL.
	URL string `json:"url"`

	// Text is the anchor's visible text, whitespace-collapsed.
	Text string `json:"text,omitempty"`

	// IsInternal is true when the link host is the crawl's base hostname
	// or a subdomain of it.
	IsInternal bool `json:"isInternal"`

	// Rel is the anchor's rel attribute, if present.
	Rel string `json:"rel,omitempty"`
}

// AssetKind classifies an asset reference.
type AssetKind string

// Asset kinds.
const (
	// AssetImage is an image reference (img, picture source, og:image).
	AssetImage AssetKind = "image"
	// AssetScript is a script reference.
	AssetScript AssetKind = "script"
	// AssetStylesheet is a CSS reference.
	AssetStylesheet AssetKind = "stylesheet"
	// AssetFont is a font reference.
	AssetFont AssetKind = "font"
	// AssetMedia is an audio or video reference.
	AssetMedia AssetKind = "media"
	// AssetOther is any other asset reference (favicons, manifests).
	AssetOther AssetKind = "other"
)

// AssetRef represents one asset reference on a page.
// Only the URL is tracked; asset content is never downloaded.
type AssetRef struct {
	// URL is the absolute asset URL.
	URL string `json:"url"`

	// Kind is the asset classification.
	Kind AssetKind `json:"type"`

	// Alt is the alt text for images, if present.
	Alt string `json:"alt,omitempty"`
}

// StructuredData represents one structured-data block found on a page.
type StructuredData struct {
	// Format is the serialization format ("json-ld" or "microdata").
	Format string `json:"format"`

	// Type is the schema.org @type, when present.
	Type string `json:"type,omitempty"`

	// Raw is the raw JSON payload of the block.
	Raw string `json:"raw"`
}

// SynthesizeLocalPath derives a file-system-friendly relative path from a
// page URL. The root path maps to "index", other paths map to their segments
// joined with the OS-agnostic "/" separator. Query strings and fragments are
// dropped. A URL that fails to parse maps to "index".
//
// The result is used only for offline artifact naming, never for dedup or
// frontier decisions.
func SynthesizeLocalPath(pageURL string) string {
	u, err := url.Parse(pageURL)
	if err != nil {
		return "index"
	}

	p := strings.Trim(u.EscapedPath(), "/")
	if p == "" {
		return "index"
	}

	// Collapse any path traversal and replace characters that are not
	// safe in file names.
	p = path.Clean(p)
	replacer := strings.NewReplacer("..", "", ":", "-", "?", "-", "&", "-", "=", "-", "%", "-")
	p = replacer.Replace(p)
	p = strings.Trim(p, "/")
	if p == "" {
		return "index"
	}
	return p
}
