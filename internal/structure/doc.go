// Package structure derives structural views from accumulated crawl
// results: the URL hierarchy prefix tree and the deduplicated asset
// manifest.
//
// The hierarchy build is a pure post-crawl transform over the visited page
// list. The manifest builder is fed incrementally by the crawl loop's
// commit step, so it guards its map with a mutex; everything else in this
// package is side-effect free.
package structure
