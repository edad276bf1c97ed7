package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/report"
)

// NewHistoryCmd creates the history command.
// This command inspects crawl results stored in the local database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [url]",
		Short: "Inspect stored crawl results",
		Long: `History lists and replays crawl results stored in the local database.

Every crawl is recorded automatically unless --no-save was used. This
command retrieves stored crawls and shows:
- The crawl history for a site, with page and failure counts
- A full stored result, re-rendered in any report format

Examples:
  # List all stored crawls
  sitegraph history

  # List stored crawls for one site
  sitegraph history https://example.com

  # Show a stored crawl by ID (use the list to see available IDs)
  sitegraph history --show-id 5

  # Show the latest stored crawl for a site as Markdown
  sitegraph history --latest --markdown https://example.com

  # List all sites in the database
  sitegraph history --list-sites`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Retrieval flags
	cmd.Flags().Int64P("show-id", "i", 0,
		"Show a stored crawl by ID")
	cmd.Flags().BoolP("latest", "l", false,
		"Show the latest stored crawl for the specified site")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List all sites in the database")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output the stored crawl in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output the stored crawl in Markdown format")

	// Database location
	cmd.Flags().String("db-dir", "",
		"Database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Open read-only: inspecting history should never create a database.
	db, err := database.Open(dbDir, database.Options{EnableWAL: true})
	if err != nil {
		return fmt.Errorf("no crawl history found (crawl a site first): %w", err)
	}
	defer db.Close() //nolint:errcheck // read-only access

	ctx := context.Background()

	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}
	if listSites {
		return printSites(ctx, cmd, db)
	}

	showID, err := cmd.Flags().GetInt64("show-id")
	if err != nil {
		return err
	}
	if showID > 0 {
		result, err := db.GetCrawl(ctx, showID)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no stored crawl with ID %d", showID)
		}
		if err != nil {
			return err
		}
		return outputStoredResult(cmd, result)
	}

	site := ""
	if len(args) > 0 {
		site = args[0]
	}

	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}
	if latest {
		if site == "" {
			return errors.New("--latest requires a site URL argument")
		}
		result, err := db.GetLatestCrawl(ctx, site)
		if errors.Is(err, database.ErrNotFound) {
			return fmt.Errorf("no stored crawls for %s", site)
		}
		if err != nil {
			return err
		}
		return outputStoredResult(cmd, result)
	}

	return printCrawlList(ctx, cmd, db, site)
}

// printSites lists the distinct sites with stored crawls.
func printSites(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return err
	}

	if len(sites) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No stored crawls")
		return nil
	}

	for _, site := range sites {
		fmt.Fprintln(cmd.OutOrStdout(), site)
	}
	return nil
}

// printCrawlList lists stored crawls, newest first.
func printCrawlList(ctx context.Context, cmd *cobra.Command, db *database.HistoryDB, site string) error {
	crawls, err := db.ListCrawls(ctx, site)
	if err != nil {
		return err
	}

	if len(crawls) == 0 {
		if site != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "No stored crawls for %s\n", site)
		} else {
			fmt.Fprintln(cmd.OutOrStdout(), "No stored crawls")
		}
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-5s %-40s %-20s %6s %6s  %s\n",
		"ID", "SITE", "CRAWLED", "PAGES", "FAILED", "PLATFORM")
	fmt.Fprintln(out, strings.Repeat("-", 90))
	for _, c := range crawls {
		platform := c.Platform
		if platform == "" {
			platform = "-"
		}
		fmt.Fprintf(out, "%-5d %-40s %-20s %6d %6d  %s\n",
			c.ID,
			truncateString(c.Site, 40),
			c.CompletedAt.Local().Format(time.DateTime),
			c.PageCount,
			c.FailedCount,
			platform,
		)
	}
	return nil
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

// outputStoredResult re-renders a stored crawl in the requested format.
func outputStoredResult(cmd *cobra.Command, result *model.CrawlResult) error {
	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOut && markdownOut {
		return config.ErrConflictingReportFormats
	}

	output := cmd.OutOrStdout()
	switch {
	case jsonOut:
		_, err = report.NewJSONWriter(output, report.WithPrettyPrint()).Write(result)
	case markdownOut:
		_, err = report.NewMarkdownWriter(output).Write(result)
	default:
		_, err = report.NewSummaryWriter(output, report.WithVerbose(true)).Write(result)
	}
	return err
}
