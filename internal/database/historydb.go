package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitegraph/internal/model"
)

// HistoryDB provides SQLite-based storage for finished crawls.
// It manages connection pooling and provides methods for saving and
// retrieving crawl history.
//
// Design decision: We store the full result as JSON plus a few summary
// columns rather than fully normalizing the schema. The result is consumed
// whole (re-rendering reports, diffing crawls), and summary columns cover
// the list queries the CLI needs.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging for better concurrent
	// performance. This is recommended for most use cases.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// ErrNotFound is returned when a requested crawl does not exist.
var ErrNotFound = errors.New("crawl not found")

// Open opens or creates a HistoryDB at the specified directory.
// If CreateIfNotExists is true, the directory and database file are created.
// If CreateIfNotExists is false and the database doesn't exist, an error is
// returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, "sitegraph.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection strings: mode=rw prevents creating new
	// files, mode=rwc allows creation.
	var dsn string
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	} else {
		dsn = dbPath + "?mode=rw"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer; multiple readers go through WAL.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

// createTables creates the database schema if it doesn't exist.
func (hdb *HistoryDB) createTables() error {
	schema := `
	-- Crawl results store complete crawls as JSON with summary columns
	CREATE TABLE IF NOT EXISTS crawl_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		site TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		completed_at DATETIME NOT NULL,
		page_count INTEGER NOT NULL,
		failed_count INTEGER NOT NULL,
		platform TEXT,
		result_json TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_results_site ON crawl_results(site);
	CREATE INDEX IF NOT EXISTS idx_results_completed ON crawl_results(completed_at);

	-- Page rows allow URL and title queries without unpacking the JSON
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		crawl_id INTEGER NOT NULL REFERENCES crawl_results(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		title TEXT,
		depth INTEGER NOT NULL,
		visited_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_pages_crawl ON pages(crawl_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawl persists a finished crawl result and its per-page rows.
func (hdb *HistoryDB) SaveCrawl(ctx context.Context, result *model.CrawlResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to serialize crawl result: %w", err)
	}

	platformName := ""
	if result.Platform != nil {
		platformName = result.Platform.Name
	}

	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	res, err := tx.ExecContext(ctx, `
	INSERT INTO crawl_results (site, started_at, completed_at, page_count, failed_count, platform, result_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)`,
		result.BaseURL,
		result.StartedAt.UTC().Format(time.RFC3339Nano),
		result.CompletedAt.UTC().Format(time.RFC3339Nano),
		len(result.Pages),
		len(result.State.Failed),
		platformName,
		string(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to insert crawl result: %w", err)
	}

	crawlID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get crawl id: %w", err)
	}

	for _, page := range result.Pages {
		if _, err := tx.ExecContext(ctx, `
		INSERT INTO pages (crawl_id, url, title, depth, visited_at)
		VALUES (?, ?, ?, ?, ?)`,
			crawlID,
			page.URL,
			page.Title,
			page.Depth,
			page.VisitedAt.UTC().Format(time.RFC3339Nano),
		); err != nil {
			return fmt.Errorf("failed to insert page row: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit crawl: %w", err)
	}
	return nil
}

// CrawlMetadata summarizes one stored crawl without its payload.
type CrawlMetadata struct {
	// ID is the stored crawl's row ID.
	ID int64

	// Site is the crawl's base URL.
	Site string

	// StartedAt and CompletedAt bound the crawl.
	StartedAt   time.Time
	CompletedAt time.Time

	// PageCount and FailedCount summarize the outcome.
	PageCount   int
	FailedCount int

	// Platform is the detected platform name, empty when unknown.
	Platform string
}

// ListCrawls returns the stored crawls for a site, newest first.
// An empty site lists crawls across all sites.
func (hdb *HistoryDB) ListCrawls(ctx context.Context, site string) ([]CrawlMetadata, error) {
	query := `
	SELECT id, site, started_at, completed_at, page_count, failed_count, platform
	FROM crawl_results`
	args := []any{}
	if site != "" {
		query += " WHERE site = ?"
		args = append(args, site)
	}
	query += " ORDER BY completed_at DESC"

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawls: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var list []CrawlMetadata
	for rows.Next() {
		var m CrawlMetadata
		var startedAt, completedAt string
		if err := rows.Scan(&m.ID, &m.Site, &startedAt, &completedAt, &m.PageCount, &m.FailedCount, &m.Platform); err != nil {
			return nil, fmt.Errorf("failed to scan crawl row: %w", err)
		}
		m.StartedAt = parseTimestamp(startedAt)
		m.CompletedAt = parseTimestamp(completedAt)
		list = append(list, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate crawl rows: %w", err)
	}

	return list, nil
}

// GetCrawl retrieves one stored crawl by its row ID.
func (hdb *HistoryDB) GetCrawl(ctx context.Context, id int64) (*model.CrawlResult, error) {
	var payload string
	err := hdb.db.QueryRowContext(ctx,
		"SELECT result_json FROM crawl_results WHERE id = ?", id,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl %d: %w", id, err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to deserialize crawl %d: %w", id, err)
	}
	return &result, nil
}

// GetLatestCrawl retrieves the most recently completed crawl for a site.
func (hdb *HistoryDB) GetLatestCrawl(ctx context.Context, site string) (*model.CrawlResult, error) {
	var payload string
	err := hdb.db.QueryRowContext(ctx, `
	SELECT result_json FROM crawl_results
	WHERE site = ?
	ORDER BY completed_at DESC
	LIMIT 1`, site,
	).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest crawl for %s: %w", site, err)
	}

	var result model.CrawlResult
	if err := json.Unmarshal([]byte(payload), &result); err != nil {
		return nil, fmt.Errorf("failed to deserialize latest crawl for %s: %w", site, err)
	}
	return &result, nil
}

// ListSites returns the distinct sites with stored crawls.
func (hdb *HistoryDB) ListSites(ctx context.Context) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx,
		"SELECT DISTINCT site FROM crawl_results ORDER BY site")
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close() //nolint:errcheck // read-only rows

	var sites []string
	for rows.Next() {
		var site string
		if err := rows.Scan(&site); err != nil {
			return nil, fmt.Errorf("failed to scan site row: %w", err)
		}
		sites = append(sites, site)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate site rows: %w", err)
	}

	return sites, nil
}

// parseTimestamp parses a stored timestamp, tolerating both RFC3339 and
// SQLite's default format.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
