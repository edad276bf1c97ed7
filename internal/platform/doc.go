// Package platform identifies the software a crawled site is built on.
//
// Detection is signal-based: each known platform carries a table of
// weighted signals (generator meta tags, characteristic asset paths,
// markup fragments), and the platform whose matched signal weight is
// highest wins. Confidence reflects the matched share of that platform's
// total signal weight, so a site matching every WordPress signal scores
// higher than one matching only the generator tag.
package platform
