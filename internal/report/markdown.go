package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nao1215/sitegraph/internal/model"
)

// maxDiagramNodes caps the hierarchy flowchart size. Very large crawls
// would otherwise produce diagrams no renderer can lay out.
const maxDiagramNodes = 50

// maxTableRows caps the per-ledger tables in the Markdown output.
const maxTableRows = 25

// MarkdownWriter outputs crawl results in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter

	// titler capitalizes platform names for display.
	titler cases.Caser
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
		titler:     cases.Title(language.English),
	}
}

// Write outputs the result in Markdown format.
func (w *MarkdownWriter) Write(result *model.CrawlResult) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, result)
	w.writeSummary(md, result)
	w.writePlatform(md, result)
	w.writeHierarchy(md, result)
	w.writeAssets(md, result)
	w.writeLedgers(md, result)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with crawl information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, result *model.CrawlResult) {
	md.H1("Site Crawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Site", "`" + result.BaseURL + "`"},
			{"Crawled At", result.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", result.Duration.Round(10 * time.Millisecond).String()},
			{"Pages", strconv.Itoa(len(result.Pages))},
			{"Status", w.statusText(result)},
		},
	})
	md.PlainText("")
}

// statusText returns the status text based on the result state.
func (w *MarkdownWriter) statusText(result *model.CrawlResult) string {
	if result.ErrorMessage != "" {
		return "❌ Error - " + result.ErrorMessage
	}
	if len(result.State.Failed) > 0 {
		return fmt.Sprintf("⚠️ Complete with %d failed page(s)", len(result.State.Failed))
	}
	return "✅ Complete"
}

// writeSummary writes the outcome summary section with a pie chart.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, result *model.CrawlResult) {
	state := result.State

	md.H2("Crawl Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 Visited", strconv.Itoa(len(state.Visited))},
			{"🔴 Failed", strconv.Itoa(len(state.Failed))},
			{"🟡 Skipped", strconv.Itoa(len(state.Skipped))},
			{"🔵 Redirected", strconv.Itoa(len(state.Redirects))},
		},
	})
	md.PlainText("")

	if len(state.Visited)+len(state.Failed)+len(state.Skipped) > 0 {
		chart := piechart.NewPieChart(
			io.Discard,
			piechart.WithTitle("Crawl Outcome Distribution"),
			piechart.WithShowData(true),
		)
		if n := len(state.Visited); n > 0 {
			chart.LabelAndIntValue("Visited", uint64(n))
		}
		if n := len(state.Failed); n > 0 {
			chart.LabelAndIntValue("Failed", uint64(n))
		}
		if n := len(state.Skipped); n > 0 {
			chart.LabelAndIntValue("Skipped", uint64(n))
		}

		md.PlainText("")
		md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
		md.PlainText("")
	}
}

// writePlatform writes the detected platform section.
func (w *MarkdownWriter) writePlatform(md *markdown.Markdown, result *model.CrawlResult) {
	if result.Platform == nil {
		return
	}

	md.H2("Platform")
	md.PlainText("")
	md.PlainTextf("Detected **%s** (confidence %.0f%%) from:",
		w.titler.String(result.Platform.Name),
		result.Platform.Confidence*100,
	)
	md.PlainText("")
	md.BulletList(result.Platform.Signals...)
	md.PlainText("")
}

// writeHierarchy writes the URL hierarchy as a Mermaid flowchart.
func (w *MarkdownWriter) writeHierarchy(md *markdown.Markdown, result *model.CrawlResult) {
	root := result.Structure.Hierarchy
	if root == nil {
		return
	}

	md.H2("Site Structure")
	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, hierarchyFlowchart(root))
	md.PlainText("")
}

// hierarchyFlowchart renders the hierarchy tree as Mermaid flowchart text.
// Children are emitted in sorted segment order so the output is stable.
func hierarchyFlowchart(root *model.URLHierarchyNode) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	counter := 0
	var walk func(node *model.URLHierarchyNode, parentID string)
	walk = func(node *model.URLHierarchyNode, parentID string) {
		if counter >= maxDiagramNodes {
			return
		}
		id := fmt.Sprintf("n%d", counter)
		counter++

		label := node.Segment
		if label == "" {
			label = "/"
		}
		fmt.Fprintf(&b, "    %s[\"%s\"]\n", id, strings.ReplaceAll(label, `"`, "'"))
		if parentID != "" {
			fmt.Fprintf(&b, "    %s --> %s\n", parentID, id)
		}

		segments := make([]string, 0, len(node.Children))
		for segment := range node.Children {
			segments = append(segments, segment)
		}
		sort.Strings(segments)
		for _, segment := range segments {
			walk(node.Children[segment], id)
		}
	}
	walk(root, "")

	return b.String()
}

// writeAssets writes the asset manifest section.
func (w *MarkdownWriter) writeAssets(md *markdown.Markdown, result *model.CrawlResult) {
	if len(result.Assets) == 0 {
		return
	}

	md.H2("Assets")
	md.PlainText("")

	rows := make([][]string, 0, len(result.Assets))
	for i, asset := range result.Assets {
		if i >= maxTableRows {
			break
		}
		rows = append(rows, []string{
			truncateString(asset.URL, 60),
			string(asset.Kind),
			strconv.Itoa(len(asset.ReferencedBy)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Type", "Referenced By"},
		Rows:   rows,
	})
	if len(result.Assets) > maxTableRows {
		md.PlainTextf("*… and %d more assets*", len(result.Assets)-maxTableRows)
	}
	md.PlainText("")
}

// writeLedgers writes the failure, redirect, and skip sections.
func (w *MarkdownWriter) writeLedgers(md *markdown.Markdown, result *model.CrawlResult) {
	state := result.State

	if len(state.Failed) > 0 {
		md.H2("Failed Pages")
		md.PlainText("")
		rows := make([][]string, 0, len(state.Failed))
		for i, f := range state.Failed {
			if i >= maxTableRows {
				break
			}
			rows = append(rows, []string{
				truncateString(f.URL, 50),
				truncateString(f.Error, 60),
				strconv.Itoa(f.Attempts),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Error", "Attempts"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(state.Redirects) > 0 {
		md.H2("Redirects")
		md.PlainText("")
		rows := make([][]string, 0, len(state.Redirects))
		for i, r := range state.Redirects {
			if i >= maxTableRows {
				break
			}
			rows = append(rows, []string{
				truncateString(r.From, 50),
				truncateString(r.To, 50),
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"From", "To"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if len(state.Skipped) > 0 {
		md.H2("Skipped URLs")
		md.PlainText("")
		rows := make([][]string, 0, len(state.Skipped))
		for i, s := range state.Skipped {
			if i >= maxTableRows {
				break
			}
			rows = append(rows, []string{
				truncateString(s.URL, 60),
				s.Reason,
			})
		}
		md.Table(markdown.TableSet{
			Header: []string{"URL", "Reason"},
			Rows:   rows,
		})
		if len(state.Skipped) > maxTableRows {
			md.PlainTextf("*… and %d more skipped URLs*", len(state.Skipped)-maxTableRows)
		}
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainText("*Report generated by [sitegraph](https://github.com/nao1215/sitegraph)*")
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
