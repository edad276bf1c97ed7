// Package log provides a sanitizing slog handler for crawl logging.
//
// Crawls may carry seeded session cookies and custom auth headers from the
// site configuration, and page URLs may embed tokens. The SecureHandler
// wrapper masks such values before they reach the underlying handler, so
// verbose crawl logs can be shared without leaking credentials.
package log
