package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/model"
)

// testLogger returns a logger that discards all output.
func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// seedHistoryDB creates a database in a temp directory with one stored
// crawl and returns the directory.
func seedHistoryDB(t *testing.T) string {
	t.Helper()

	dbDir := t.TempDir()
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close() //nolint:errcheck // test cleanup

	started := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	result := model.AssembleResult(
		"https://example.com",
		started, started.Add(30*time.Second),
		model.ResolvedConfig{MaxPages: 50, MaxDepth: 3, Concurrency: 5, Profile: "standard"},
		[]*model.CrawledPage{
			{URL: "https://example.com/", Title: "Home", VisitedAt: started},
		},
		nil,
		model.CrawlState{Visited: []string{"https://example.com/"}},
		nil, nil,
	)
	result.Platform = &model.PlatformInfo{Name: "wordpress", Confidence: 0.8}

	if err := db.SaveCrawl(context.Background(), result); err != nil {
		t.Fatalf("failed to save crawl: %v", err)
	}
	return dbDir
}

// TestNewHistoryCmd tests the history command creation.
func TestNewHistoryCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHistoryCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "history [url]" {
			t.Errorf("expected use 'history [url]', got %q", cmd.Use)
		}
	})

	t.Run("has show-id flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("show-id")
		if flag == nil {
			t.Fatal("expected show-id flag")
		}
		if flag.Shorthand != "i" {
			t.Errorf("expected shorthand 'i', got %q", flag.Shorthand)
		}
	})

	t.Run("has latest flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("latest") == nil {
			t.Error("expected latest flag")
		}
	})

	t.Run("has list-sites flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("list-sites") == nil {
			t.Error("expected list-sites flag")
		}
	})

	t.Run("has db-dir flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("db-dir") == nil {
			t.Error("expected db-dir flag")
		}
	})
}

// TestRunHistoryCmd tests history retrieval against a real database file.
func TestRunHistoryCmd(t *testing.T) {
	t.Run("errors when no database exists", func(t *testing.T) {
		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", t.TempDir())

		if err := runHistoryCmd(cmd, nil); err == nil {
			t.Error("expected error when database is missing")
		}
	})

	t.Run("lists stored crawls", func(t *testing.T) {
		dbDir := seedHistoryDB(t)

		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", dbDir)
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := runHistoryCmd(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "https://example.com") {
			t.Error("expected listed crawl for the site")
		}
		if !strings.Contains(output, "wordpress") {
			t.Error("expected platform column")
		}
	})

	t.Run("filters list by site", func(t *testing.T) {
		dbDir := seedHistoryDB(t)

		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", dbDir)
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := runHistoryCmd(cmd, []string{"https://other.example.com"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "No stored crawls for") {
			t.Error("expected empty list message for unknown site")
		}
	})

	t.Run("lists sites", func(t *testing.T) {
		dbDir := seedHistoryDB(t)

		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", dbDir)
		_ = cmd.Flags().Set("list-sites", "true")
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := runHistoryCmd(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if strings.TrimSpace(buf.String()) != "https://example.com" {
			t.Errorf("expected single site, got %q", buf.String())
		}
	})

	t.Run("shows stored crawl by ID", func(t *testing.T) {
		dbDir := seedHistoryDB(t)

		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", dbDir)
		_ = cmd.Flags().Set("show-id", "1")
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := runHistoryCmd(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), "SITE CRAWL REPORT") {
			t.Error("expected summary report output")
		}
	})

	t.Run("errors for unknown ID", func(t *testing.T) {
		dbDir := seedHistoryDB(t)

		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", dbDir)
		_ = cmd.Flags().Set("show-id", "999")

		if err := runHistoryCmd(cmd, nil); err == nil {
			t.Error("expected error for unknown crawl ID")
		}
	})

	t.Run("shows latest crawl as JSON", func(t *testing.T) {
		dbDir := seedHistoryDB(t)

		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", dbDir)
		_ = cmd.Flags().Set("latest", "true")
		_ = cmd.Flags().Set("json", "true")
		var buf bytes.Buffer
		cmd.SetOut(&buf)

		if err := runHistoryCmd(cmd, []string{"https://example.com"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !strings.Contains(buf.String(), `"baseUrl": "https://example.com"`) {
			t.Error("expected JSON output with base URL")
		}
	})

	t.Run("latest requires a site argument", func(t *testing.T) {
		dbDir := seedHistoryDB(t)

		cmd := NewHistoryCmd()
		_ = cmd.Flags().Set("db-dir", dbDir)
		_ = cmd.Flags().Set("latest", "true")

		if err := runHistoryCmd(cmd, nil); err == nil {
			t.Error("expected error without site argument")
		}
	})
}
