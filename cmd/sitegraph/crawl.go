package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/log"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/nao1215/sitegraph/internal/pipeline"
	"github.com/nao1215/sitegraph/internal/render"
	"github.com/nao1215/sitegraph/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url]",
		Short: "Crawl a website and map its structure",
		Long: `Crawl renders a website's pages in headless Chrome and produces a
structured map of the site:

- Crawled pages with titles, metadata, links, and assets
- A deduplicated asset manifest across the whole site
- The URL hierarchy as a path prefix tree
- Crawl-state ledgers (visited, failed, skipped, redirects)
- The detected platform or CMS, when recognizable

Examples:
  # Crawl a single site
  sitegraph crawl https://example.com

  # Crawl several sites concurrently
  sitegraph crawl https://example.com https://example.org

  # Deeper crawl with a larger page budget
  sitegraph crawl -d 5 -p 200 https://example.com

  # Output a Markdown report with Mermaid diagrams
  sitegraph crawl --markdown -o report.md https://example.com

  # Use a custom configuration file
  sitegraph crawl -c myconfig.yaml https://example.com

Configuration file (.sitegraph) example:
  sites:
    example.com:
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"
      maxDepth: 5
    example.org:
      prunePatterns:
        - /blog/archive`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Budget flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to crawl per site")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link-hop depth from the seeds")
	cmd.Flags().Int("concurrency", config.DefaultConcurrency,
		"Number of pages rendered simultaneously per crawl")

	// Extraction flags
	cmd.Flags().String("profile", config.ProfileStandard,
		"Output profile: minimal, standard, or full")

	// Scope flags
	cmd.Flags().StringSlice("exclude", nil,
		"URL patterns excluded from the crawl (repeatable)")
	cmd.Flags().StringSlice("prune", nil,
		"URL patterns whose children are excluded while the match itself is kept (repeatable)")
	cmd.Flags().StringSlice("seed", nil,
		"Extra seed paths crawled before discovered links (repeatable)")
	cmd.Flags().Bool("no-sitemap", false,
		"Disable sitemap.xml seeding")
	cmd.Flags().Bool("no-robots", false,
		"Ignore robots.txt directives")

	// Render flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultRenderTimeout,
		"Per-page render budget")
	cmd.Flags().Duration("settle-timeout", config.DefaultSettleTimeout,
		"Bounded wait for the page's network activity to settle")
	cmd.Flags().Int("retries", config.DefaultRetryAttempts,
		"Number of render attempts per page")
	cmd.Flags().Duration("pacing-min", config.DefaultMinPacing,
		"Minimum delay between page visits")
	cmd.Flags().Duration("pacing-max", config.DefaultMaxPacing,
		"Maximum delay between page visits")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent sent with HTTP requests and browser sessions")

	// Batch crawling flags
	cmd.Flags().IntP("batch", "b", 1,
		"Number of sites crawled concurrently")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitegraph in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().Bool("pretty", false,
		"Indent JSON output (implies --json)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")
	cmd.Flags().Bool("no-save", false,
		"Do not record the crawl in the local history database")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	// Build config from flags
	cfg, batchSize, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	// Set up structured logging with sensitive-value masking
	logger := log.NewSecureLogger(os.Stderr, getVerboseFlag(cmd))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, batchSize, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
// The batch size is returned separately because it controls how many
// crawls run at once, not the behavior of any single crawl.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, int, error) {
	cfg := config.NewConfig()

	var err error

	if cfg.MaxPages, err = cmd.Flags().GetInt("max-pages"); err != nil {
		return nil, 0, err
	}
	if cfg.MaxDepth, err = cmd.Flags().GetInt("depth"); err != nil {
		return nil, 0, err
	}
	if cfg.Concurrency, err = cmd.Flags().GetInt("concurrency"); err != nil {
		return nil, 0, err
	}
	if cfg.Profile, err = cmd.Flags().GetString("profile"); err != nil {
		return nil, 0, err
	}
	if cfg.ExcludePatterns, err = cmd.Flags().GetStringSlice("exclude"); err != nil {
		return nil, 0, err
	}
	if cfg.PrunePatterns, err = cmd.Flags().GetStringSlice("prune"); err != nil {
		return nil, 0, err
	}
	if cfg.SeedPaths, err = cmd.Flags().GetStringSlice("seed"); err != nil {
		return nil, 0, err
	}

	noSitemap, err := cmd.Flags().GetBool("no-sitemap")
	if err != nil {
		return nil, 0, err
	}
	cfg.UseSitemap = !noSitemap

	noRobots, err := cmd.Flags().GetBool("no-robots")
	if err != nil {
		return nil, 0, err
	}
	cfg.RespectRobots = !noRobots

	if cfg.RenderTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, 0, err
	}
	if cfg.SettleTimeout, err = cmd.Flags().GetDuration("settle-timeout"); err != nil {
		return nil, 0, err
	}
	if cfg.RetryAttempts, err = cmd.Flags().GetInt("retries"); err != nil {
		return nil, 0, err
	}
	if cfg.MinPacing, err = cmd.Flags().GetDuration("pacing-min"); err != nil {
		return nil, 0, err
	}
	if cfg.MaxPacing, err = cmd.Flags().GetDuration("pacing-max"); err != nil {
		return nil, 0, err
	}
	if cfg.UserAgent, err = cmd.Flags().GetString("user-agent"); err != nil {
		return nil, 0, err
	}

	batchSize, err := cmd.Flags().GetInt("batch")
	if err != nil {
		return nil, 0, err
	}

	if cfg.ConfigFilePath, err = cmd.Flags().GetString("config"); err != nil {
		return nil, 0, err
	}

	// Load site-specific configurations from config file.
	// If user explicitly specified a config file path, error if not found.
	// If no path specified, silently use empty config if no file found.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)

	if configPath != "" {
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if explicitConfigPath {
		return nil, 0, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	} else {
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, 0, err
	}
	if cfg.PrettyJSON, err = cmd.Flags().GetBool("pretty"); err != nil {
		return nil, 0, err
	}
	if cfg.PrettyJSON {
		cfg.JSONReport = true
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, 0, err
	}
	if cfg.ReportFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, 0, err
	}

	noSave, err := cmd.Flags().GetBool("no-save")
	if err != nil {
		return nil, 0, err
	}
	cfg.SaveToDB = !noSave
	if cfg.SaveToDB {
		cfg.DBDir = config.XDGDataDir()
	}

	// Get positional arguments (site URLs)
	cfg.Targets = args

	return cfg, batchSize, nil
}

// runCrawl executes the crawl.
func runCrawl(ctx context.Context, cfg *config.Config, batchSize int, logger *slog.Logger) error {
	if len(cfg.Targets) == 0 {
		return errors.New("no targets provided (specify one or more URLs as arguments)")
	}

	logger.Info("starting crawl",
		"targets", cfg.Targets,
		"maxPages", cfg.MaxPages,
		"maxDepth", cfg.MaxDepth,
		"batchSize", batchSize,
		"saveToDB", cfg.SaveToDB,
	)

	// Open database connection if saving is enabled
	var db *database.HistoryDB
	if cfg.SaveToDB {
		var err error
		db, err = database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close() //nolint:errcheck // Best effort cleanup
		logger.Info("database opened", "dir", cfg.DBDir)
	}

	// Use batch processor for parallel crawling if multiple targets
	if len(cfg.Targets) > 1 && batchSize > 1 {
		return runBatchCrawl(ctx, cfg, batchSize, db, logger)
	}

	return runSequentialCrawl(ctx, cfg, db, logger)
}

// runSequentialCrawl crawls targets one at a time.
func runSequentialCrawl(ctx context.Context, cfg *config.Config, db *database.HistoryDB, logger *slog.Logger) error {
	for _, target := range cfg.Targets {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		// Create pipeline with site-specific options
		p := createPipelineForTarget(cfg, target, db, logger)

		result := model.NewCrawlResult(target)

		fmt.Printf("Crawling %s...\n", target)
		startTime := time.Now()

		// Execute the pipeline
		if err := p.Execute(ctx, result); err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			logger.Error("crawl failed", "target", target, "error", err)
			fmt.Fprintf(os.Stderr, "Crawl error for %s: %v\n", target, err)
			continue
		}

		elapsed := time.Since(startTime)
		fmt.Printf("Crawl completed in %s (%d pages)\n\n",
			elapsed.Round(time.Millisecond), len(result.Pages))

		// Generate and output report
		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "target", target, "error", err)
		}
	}

	return nil
}

// runBatchCrawl crawls multiple targets concurrently using BatchProcessor.
func runBatchCrawl(ctx context.Context, cfg *config.Config, batchSize int, db *database.HistoryDB, logger *slog.Logger) error {
	fmt.Printf("Starting batch crawl of %d sites (concurrency: %d)...\n\n",
		len(cfg.Targets), batchSize)

	startTime := time.Now()

	// Warn user about batch processing limitation
	if cfg.SiteConfigs != nil && len(cfg.SiteConfigs.Sites) > 0 {
		logger.Warn("batch mode uses default site config only; site-specific settings (cookies, headers, depth) are ignored",
			"siteCount", len(cfg.SiteConfigs.Sites))
		fmt.Fprintf(os.Stderr, "Warning: Site-specific configurations are ignored in batch mode. Use sequential mode (--batch 1) to apply per-site settings.\n\n")
	}

	// Create batch processor with pipeline factory
	bp := pipeline.NewBatchProcessor(
		func() *pipeline.Pipeline {
			// Batch mode shares one pipeline shape across sites, so only
			// the config-file defaults apply.
			return createPipeline(cfg, defaultSiteConfig(cfg), "", db, logger)
		},
		pipeline.WithBatchConcurrency(batchSize),
		pipeline.WithBatchLogger(logger),
	)

	// Process with callback for streaming output
	var mu sync.Mutex
	err := bp.ProcessBatchWithCallback(ctx, cfg.Targets, func(result *model.CrawlResult, index int) {
		mu.Lock()
		defer mu.Unlock()

		fmt.Printf("[%d/%d] Crawl completed: %s (%d pages)\n",
			index+1, len(cfg.Targets), result.BaseURL, len(result.Pages))

		if err := outputReport(cfg, result); err != nil {
			logger.Error("report failed", "target", result.BaseURL, "error", err)
		}
	})

	elapsed := time.Since(startTime)
	fmt.Printf("\nBatch crawl completed in %s\n", elapsed.Round(time.Millisecond))

	return err
}

// defaultSiteConfig returns the config-file defaults, or a zero value when
// no config file was loaded.
func defaultSiteConfig(cfg *config.Config) config.SiteConfig {
	if cfg.SiteConfigs == nil {
		return config.SiteConfig{}
	}
	return cfg.SiteConfigs.Defaults
}

// createPipelineForTarget creates a pipeline with the target's
// site-specific configuration applied.
func createPipelineForTarget(cfg *config.Config, target string, db *database.HistoryDB, logger *slog.Logger) *pipeline.Pipeline {
	siteConfig := defaultSiteConfig(cfg)
	host := hostOf(target)
	if cfg.SiteConfigs != nil && host != "" {
		siteConfig = cfg.SiteConfigs.GetSiteConfig(host)
	}
	return createPipeline(cfg, siteConfig, host, db, logger)
}

// createPipeline wires the renderer and pipeline for one crawl.
func createPipeline(cfg *config.Config, siteConfig config.SiteConfig, host string, db *database.HistoryDB, logger *slog.Logger) *pipeline.Pipeline {
	// Apply site-specific overrides to a copy of the global config
	crawlCfg := *cfg
	if siteConfig.MaxDepth > 0 {
		crawlCfg.MaxDepth = siteConfig.MaxDepth
	}
	if len(siteConfig.ExcludePatterns) > 0 {
		crawlCfg.ExcludePatterns = append(crawlCfg.ExcludePatterns, siteConfig.ExcludePatterns...)
	}
	if len(siteConfig.PrunePatterns) > 0 {
		crawlCfg.PrunePatterns = append(crawlCfg.PrunePatterns, siteConfig.PrunePatterns...)
	}

	chromeOpts := []render.ChromeOption{
		render.WithTimeout(crawlCfg.RenderTimeout),
		render.WithSettleTimeout(crawlCfg.SettleTimeout),
		render.WithUserAgent(crawlCfg.UserAgent),
		render.WithHeadless(crawlCfg.Headless),
		render.WithLogger(logger),
	}
	if siteConfig.Cookie != "" && host != "" {
		chromeOpts = append(chromeOpts, render.WithCookie(siteConfig.Cookie, host))
	}
	if len(siteConfig.Headers) > 0 {
		chromeOpts = append(chromeOpts, render.WithExtraHeaders(siteConfig.Headers))
	}

	policy := render.DefaultRetryPolicy()
	policy.MaxAttempts = crawlCfg.RetryAttempts
	renderer := render.NewRetryRenderer(render.NewChromeRenderer(chromeOpts...), policy)

	var store pipeline.HistoryStore
	if db != nil {
		store = db
	}

	return pipeline.DefaultPipeline(renderer, &crawlCfg, store,
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
}

// hostOf extracts the hostname from a target URL for site-config lookup
// and cookie scoping.
func hostOf(target string) string {
	u, err := url.Parse(target)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// outputReport outputs the crawl report in the requested format.
func outputReport(cfg *config.Config, result *model.CrawlResult) error {
	// Determine output destination
	var output *os.File
	if cfg.ReportFile != "" {
		// Create directories if they don't exist
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close() //nolint:errcheck // Best effort cleanup
		output = f
	} else {
		output = os.Stdout
	}

	// JSON output (complete result with all data)
	if cfg.JSONReport {
		var opts []report.JSONWriterOption
		if cfg.PrettyJSON {
			opts = append(opts, report.WithPrettyPrint())
		}
		_, err := report.NewFullJSONWriter(output, getVersion(), opts...).Write(result)
		return err
	}

	// Markdown output
	if cfg.MarkdownReport {
		_, err := report.NewMarkdownWriter(output).Write(result)
		return err
	}

	// Human-readable report (default)
	_, err := report.NewSummaryWriter(output).Write(result)
	return err
}
