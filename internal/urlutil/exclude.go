package urlutil

import (
	"net/url"
	"regexp"
	"strings"
)

// MatchesExclude reports whether a URL matches any of the flat exclude
// patterns.
//
// A pattern containing "*" is compiled to a regular expression (every other
// character literal-escaped, "*" becoming ".*") and tested against both the
// lowercase pathname and the full lowercase URL. A pattern without "*" is a
// case-insensitive substring test against either. Any match excludes.
//
// A URL that fails to parse never matches.
func MatchesExclude(rawURL string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	lowerPath := strings.ToLower(u.Path)
	if lowerPath == "" {
		lowerPath = "/"
	}
	lowerURL := strings.ToLower(rawURL)

	for _, pattern := range patterns {
		p := strings.ToLower(pattern)
		if strings.Contains(p, "*") {
			re, err := compileWildcard(p)
			if err != nil {
				continue
			}
			if re.MatchString(lowerPath) || re.MatchString(lowerURL) {
				return true
			}
			continue
		}
		if strings.Contains(lowerPath, p) || strings.Contains(lowerURL, p) {
			return true
		}
	}

	return false
}

// MatchesHierarchicalExclude reports whether a URL is excluded by any of
// the hierarchical-exclude ("prune") patterns.
//
// A pattern ending in "/*" denotes "exclude children, keep the parent":
// the URL is kept when its normalized pathname equals the parent path
// (with or without trailing slash) and excluded when it is a strict
// descendant. The root pattern "/*" excludes every non-root path. A
// pattern without "*" requires an exact pathname match to exclude; it is
// never hierarchical.
func MatchesHierarchicalExclude(rawURL string, patterns []string) bool {
	if len(patterns) == 0 {
		return false
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	path := strings.ToLower(u.Path)
	if path == "" {
		path = "/"
	}
	// Normalize a single trailing slash so "/products/" and "/products"
	// compare equal.
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}

	for _, pattern := range patterns {
		p := strings.ToLower(strings.TrimSpace(pattern))

		if strings.HasSuffix(p, "/*") {
			parent := strings.TrimSuffix(p, "/*")
			if parent == "" {
				// Root pattern: every non-root path is a descendant.
				if path != "/" {
					return true
				}
				continue
			}
			if path == parent {
				// The parent page itself is kept.
				continue
			}
			if strings.HasPrefix(path, parent+"/") {
				return true
			}
			continue
		}

		if !strings.Contains(p, "*") {
			if len(p) > 1 {
				p = strings.TrimSuffix(p, "/")
			}
			if path == p {
				return true
			}
		}
	}

	return false
}

// PrunedParents returns the parent path of every hierarchical pattern that
// carries a wildcard. The seed resolver uses these to keep pruned branches
// represented by their root page.
func PrunedParents(patterns []string) []string {
	parents := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		p := strings.TrimSpace(pattern)
		if !strings.HasSuffix(p, "/*") {
			continue
		}
		parent := strings.TrimSuffix(p, "/*")
		if parent == "" {
			continue
		}
		parents = append(parents, parent)
	}
	return parents
}

// compileWildcard compiles an exclude pattern into a regular expression,
// escaping every character except "*", which matches any run of characters.
func compileWildcard(pattern string) (*regexp.Regexp, error) {
	var b strings.Builder
	for i, part := range strings.Split(pattern, "*") {
		if i > 0 {
			b.WriteString(".*")
		}
		b.WriteString(regexp.QuoteMeta(part))
	}
	return regexp.Compile(b.String())
}
