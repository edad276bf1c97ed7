package config

// SiteConfig holds site-specific configuration for a single hostname.
// This allows customizing crawl behavior per site when crawling several
// sites from one invocation.
type SiteConfig struct {
	// Cookie is an HTTP cookie to seed browser sessions for this site.
	// Format: "name=value" or "name1=value1; name2=value2".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are custom HTTP headers to include in requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// MaxDepth overrides the global depth budget for this site.
	// If zero, the global MaxDepth is used.
	MaxDepth int `yaml:"maxDepth,omitempty"`

	// ExcludePatterns are additional flat exclude patterns for this site.
	ExcludePatterns []string `yaml:"excludePatterns,omitempty"`

	// PrunePatterns are additional hierarchical-exclude patterns for
	// this site.
	PrunePatterns []string `yaml:"prunePatterns,omitempty"`
}

// File represents the structure of the .sitegraph configuration file.
type File struct {
	// Sites maps hostnames to their site-specific configurations.
	// Keys are bare hostnames without scheme (e.g. "example.com").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults contains default site configuration applied to all sites
	// unless overridden in the site-specific configuration.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig returns the configuration for a specific hostname.
// It merges the site-specific configuration with defaults.
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults

	// The result starts as a shallow copy of Defaults, so the merge must
	// never write through the shared Headers map: one host's headers would
	// leak into every later lookup. Always hand back a fresh map.
	if len(cf.Defaults.Headers) > 0 {
		result.Headers = make(map[string]string, len(cf.Defaults.Headers))
		for k, v := range cf.Defaults.Headers {
			result.Headers[k] = v
		}
	}

	if siteConfig, ok := cf.Sites[host]; ok {
		if siteConfig.Cookie != "" {
			result.Cookie = siteConfig.Cookie
		}
		if siteConfig.MaxDepth != 0 {
			result.MaxDepth = siteConfig.MaxDepth
		}
		if len(siteConfig.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string, len(siteConfig.Headers))
			}
			for k, v := range siteConfig.Headers {
				result.Headers[k] = v
			}
		}
		if len(siteConfig.ExcludePatterns) > 0 {
			result.ExcludePatterns = siteConfig.ExcludePatterns
		}
		if len(siteConfig.PrunePatterns) > 0 {
			result.PrunePatterns = siteConfig.PrunePatterns
		}
	}

	return result
}
