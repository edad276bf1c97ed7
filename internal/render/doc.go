// Package render provides the page-rendering capability consumed by the
// crawl loop.
//
// # Components
//
//   - Renderer: the interface the crawler depends on. One call renders one
//     URL and returns the final loaded URL plus the rendered markup.
//   - ChromeRenderer: a headless-Chrome implementation built on chromedp
//     with JS execution, bounded network-settle waiting, and cookie seeding.
//   - RetryRenderer: a wrapper adding exponential-backoff retries and
//     attempt counting around any Renderer.
//
// Design decision: The crawler sees only the Renderer interface. Tests use
// stub renderers, and the Chrome specifics (allocator flags, settle
// polling) stay contained here.
package render
