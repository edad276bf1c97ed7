// Package main provides the entry point for the sitegraph CLI.
//
// Sitegraph crawls a website in a headless browser and produces a
// structured map of its pages, links, assets, and URL hierarchy.
//
// Usage:
//
//	sitegraph crawl <url>
//	sitegraph history list
//
// See --help for all available options.
package main

// main is the entry point for sitegraph.
func main() {
	Execute()
}
