// Package report renders crawl results for humans and tools.
//
// Three formats are provided: JSON for programmatic consumption, Markdown
// with Mermaid diagrams for documentation and sharing, and a plain-text
// summary for the terminal. A MultiWriter fans one result out to several
// destinations, so a crawl can print a summary and save a JSON file in
// one pass.
package report
