package structure

import (
	"net/url"
	"strings"

	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/urlutil"
)

// BuildHierarchy folds the visited page URLs into a path-segment prefix
// tree rooted at the crawl's base origin.
//
// Design decision: The tree is derived from the final page list rather
// than maintained during the crawl. Pages commit concurrently, and a
// post-crawl fold over an already-ordered slice is both simpler and
// deterministic: when two visited URLs normalize to the same path, the
// later one in visit order wins the node's URL attachment.
//
// Each page contributes one leaf (or interior) node per path segment.
// Intermediate nodes that no page terminates at exist with an empty URL.
// The root node's Segment is the base origin (scheme plus host) and its
// Path is "/".
func BuildHierarchy(baseURL string, pages []*model.CrawledPage) *model.URLHierarchyNode {
	root := &model.URLHierarchyNode{
		Segment:  originOf(baseURL),
		Path:     "/",
		Children: map[string]*model.URLHierarchyNode{},
	}

	for _, page := range pages {
		segments := pathSegments(page.URL)
		if len(segments) == 0 {
			root.URL = page.URL
			continue
		}

		node := root
		cumulative := ""
		for _, segment := range segments {
			cumulative += "/" + segment
			child, ok := node.Children[segment]
			if !ok {
				child = &model.URLHierarchyNode{
					Segment:  segment,
					Path:     cumulative,
					Children: map[string]*model.URLHierarchyNode{},
				}
				node.Children[segment] = child
			}
			node = child
		}
		node.URL = page.URL
	}

	return root
}

// FilterHierarchy returns a copy of the tree with every node whose path
// matches a hierarchical-exclude pattern removed, along with its subtree.
// The parent page of a "/*" pattern survives because the matcher keeps it.
//
// A nil tree or empty pattern list is returned unchanged.
func FilterHierarchy(root *model.URLHierarchyNode, patterns []string) *model.URLHierarchyNode {
	if root == nil || len(patterns) == 0 {
		return root
	}
	return filterNode(root, patterns)
}

func filterNode(node *model.URLHierarchyNode, patterns []string) *model.URLHierarchyNode {
	copied := &model.URLHierarchyNode{
		Segment:  node.Segment,
		Path:     node.Path,
		URL:      node.URL,
		Children: map[string]*model.URLHierarchyNode{},
	}
	for segment, child := range node.Children {
		// A bare path parses as a path-only URL, which is all the
		// hierarchical matcher looks at.
		if urlutil.MatchesHierarchicalExclude(child.Path, patterns) {
			continue
		}
		copied.Children[segment] = filterNode(child, patterns)
	}
	return copied
}

// originOf extracts "scheme://host" from a URL, falling back to the raw
// string when it does not parse.
func originOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return rawURL
	}
	return u.Scheme + "://" + u.Host
}

// pathSegments splits a URL's path into its non-empty segments. The root
// path yields nil.
func pathSegments(rawURL string) []string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil
	}
	trimmed := strings.Trim(u.Path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}
