// Package extract pulls structured data out of a rendered DOM snapshot.
//
// All extraction functions are pure over the snapshot: given the rendered
// markup and the page URL they produce owned value types with no references
// back into the document. Relative URLs are resolved against the page URL,
// and links are classified as internal by a same-or-subdomain test against
// the crawl's base hostname.
//
// Design decision: We parse with goquery rather than walking x/net/html
// nodes by hand because the selector style keeps each extractor a few
// lines, and goquery tolerates the malformed markup that real sites serve.
package extract
