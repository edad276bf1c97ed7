package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitegraph/internal/model"
)

// SummaryWriter outputs human-readable text summaries.
// This format is designed for terminal display with clear section
// formatting.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SummaryWriter struct {
	baseWriter

	// showEmpty controls whether sections with no entries are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SummaryWriterOption configures a SummaryWriter.
type SummaryWriterOption func(*SummaryWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SummaryWriterOption {
	return func(w *SummaryWriter) {
		w.verbose = verbose
	}
}

// NewSummaryWriter creates a SummaryWriter that outputs to the given writer.
func NewSummaryWriter(output io.Writer, opts ...SummaryWriterOption) *SummaryWriter {
	w := &SummaryWriter{
		baseWriter: newBaseWriter(output),
		showEmpty:  false,
		verbose:    false,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the crawl result in human-readable format.
func (w *SummaryWriter) Write(result *model.CrawlResult) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, result)
	w.writeOutcomes(&sb, result)
	w.writePlatform(&sb, result)
	w.writePages(&sb, result)
	w.writeFailures(&sb, result)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with crawl information.
func (w *SummaryWriter) writeHeader(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        SITE CRAWL REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:          %s\n", result.BaseURL))
	sb.WriteString(fmt.Sprintf("Crawl Date:    %s\n", result.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:      %s\n", result.Duration.Round(10*time.Millisecond)))
	sb.WriteString(fmt.Sprintf("Pages:         %d\n", len(result.Pages)))

	if result.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Status:        ERROR - %s\n", result.ErrorMessage))
	} else if len(result.State.Failed) > 0 {
		sb.WriteString(fmt.Sprintf("Status:        Complete (%d failed)\n", len(result.State.Failed)))
	} else {
		sb.WriteString("Status:        Complete\n")
	}

	sb.WriteString("\n")
}

// writeOutcomes writes the crawl outcome summary section.
func (w *SummaryWriter) writeOutcomes(sb *strings.Builder, result *model.CrawlResult) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("CRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	state := result.State
	sb.WriteString(fmt.Sprintf("  VISITED:    %d\n", len(state.Visited)))
	sb.WriteString(fmt.Sprintf("  FAILED:     %d\n", len(state.Failed)))
	sb.WriteString(fmt.Sprintf("  SKIPPED:    %d\n", len(state.Skipped)))
	sb.WriteString(fmt.Sprintf("  REDIRECTED: %d\n", len(state.Redirects)))
	sb.WriteString(fmt.Sprintf("  ASSETS:     %d\n", len(result.Assets)))
	sb.WriteString("\n")
}

// writePlatform writes the detected platform section.
func (w *SummaryWriter) writePlatform(sb *strings.Builder, result *model.CrawlResult) {
	if result.Platform == nil && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DETECTED PLATFORM\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if result.Platform == nil {
		sb.WriteString("  No platform detected\n")
	} else {
		sb.WriteString(fmt.Sprintf("  [+] %s (confidence %.0f%%)\n",
			result.Platform.Name, result.Platform.Confidence*100))
		if w.verbose {
			for _, signal := range result.Platform.Signals {
				sb.WriteString(fmt.Sprintf("      signal: %s\n", signal))
			}
		}
	}
	sb.WriteString("\n")
}

// writePages writes the crawled page listing.
func (w *SummaryWriter) writePages(sb *strings.Builder, result *model.CrawlResult) {
	if len(result.Pages) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(result.Pages) == 0 {
		sb.WriteString("  No pages crawled\n")
	} else {
		for _, page := range result.Pages {
			title := page.Title
			if title == "" {
				title = "(untitled)"
			}
			sb.WriteString(fmt.Sprintf("  * %s\n", page.URL))
			sb.WriteString(fmt.Sprintf("    Title: %s\n", truncateString(title, 60)))
			if w.verbose {
				sb.WriteString(fmt.Sprintf("    Depth: %d  Links: %d  Assets: %d\n",
					page.Depth, len(page.Links), len(page.Assets)))
			}
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes the failed page section.
func (w *SummaryWriter) writeFailures(sb *strings.Builder, result *model.CrawlResult) {
	if len(result.State.Failed) == 0 && !w.showEmpty {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED PAGES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	if len(result.State.Failed) == 0 {
		sb.WriteString("  No failures\n")
	} else {
		for _, f := range result.State.Failed {
			sb.WriteString(fmt.Sprintf("  [!] %s\n", f.URL))
			sb.WriteString(fmt.Sprintf("      %s (after %d attempt(s))\n",
				truncateString(f.Error, 60), f.Attempts))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the report footer.
func (w *SummaryWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitegraph\n")
	sb.WriteString("https://github.com/nao1215/sitegraph\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
