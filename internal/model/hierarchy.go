package model

// URLHierarchyNode is a node in the derived site-structure tree: a prefix
// tree of URL path segments rooted at the base origin.
//
// The tree is built once, post-crawl, by folding every visited URL's path
// segments into a shared root. It is purely derived and never separately
// mutated.
type URLHierarchyNode struct {
	// Segment is this node's path segment. The root node uses the base
	// origin (scheme plus host) as its segment.
	Segment string `json:"segment"`

	// Path is the cumulative path from the root to this node,
	// starting with "/".
	Path string `json:"path"`

	// URL is the full URL of a crawled page whose path terminates exactly
	// at this node. Empty if no crawled page ends here (the node exists
	// only as an ancestor of deeper pages).
	URL string `json:"url,omitempty"`

	// Children maps each child segment to its node. Segments are unique
	// per parent.
	Children map[string]*URLHierarchyNode `json:"children,omitempty"`
}

// ManifestAsset is one distinct asset URL in the deduplicated manifest.
type ManifestAsset struct {
	// URL is the asset URL, the manifest key.
	URL string `json:"url"`

	// Kind is the asset classification from the first page that
	// referenced it.
	Kind AssetKind `json:"type"`

	// ReferencedBy lists the URLs of pages referencing this asset, in
	// discovery order. The same page URL is not repeated for a single
	// extraction pass, but distinct pages each appear once.
	ReferencedBy []string `json:"referencedBy"`
}
