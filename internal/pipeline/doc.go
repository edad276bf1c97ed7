// Package pipeline provides a framework for executing crawl stages in
// sequence.
//
// A site crawl moves through several stages: seed resolution, the crawl
// loop itself, structure derivation, platform detection, and history
// persistence. Each stage is implemented as a Step that receives the
// accumulating result and can modify it.
//
// Design decision: We use a pipeline pattern instead of direct function calls
// because:
// 1. It allows easy addition/removal of steps without modifying core logic
// 2. It provides consistent error handling and logging across steps
// 3. It supports cancellation via context for long-running crawls
// 4. Batch mode reuses the same step wiring per site via a factory
//
// The pipeline supports both single-site crawls and batch processing with
// concurrency control using errgroup.
package pipeline
