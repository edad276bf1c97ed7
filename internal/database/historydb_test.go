package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nao1215/sitegraph/internal/model"
)

func openTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	hdb, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := hdb.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})
	return hdb
}

func sampleResult(site string) *model.CrawlResult {
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := started.Add(42 * time.Second)
	return model.AssembleResult(
		site,
		started,
		completed,
		model.ResolvedConfig{MaxPages: 50, MaxDepth: 3, Concurrency: 5, Profile: "standard"},
		[]*model.CrawledPage{
			{URL: site, Title: "Home", Depth: 0, VisitedAt: started.Add(time.Second)},
			{URL: site + "/about", Title: "About", Depth: 1, VisitedAt: started.Add(2 * time.Second)},
		},
		nil,
		model.CrawlState{
			Visited: []string{site, site + "/about"},
			Failed: []model.FailureRecord{
				{URL: site + "/broken", Error: "render timeout", Attempts: 2},
			},
		},
		nil,
		nil,
	)
}

func TestHistoryDBSaveAndGet(t *testing.T) {
	t.Parallel()

	t.Run("round-trips a crawl result", func(t *testing.T) {
		t.Parallel()

		hdb := openTestDB(t)
		ctx := context.Background()

		if err := hdb.SaveCrawl(ctx, sampleResult("https://example.com")); err != nil {
			t.Fatalf("failed to save crawl: %v", err)
		}

		list, err := hdb.ListCrawls(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("failed to list crawls: %v", err)
		}
		if len(list) != 1 {
			t.Fatalf("crawls = %d, want 1", len(list))
		}
		meta := list[0]
		if meta.PageCount != 2 || meta.FailedCount != 1 {
			t.Errorf("metadata = %+v, want 2 pages and 1 failure", meta)
		}

		got, err := hdb.GetCrawl(ctx, meta.ID)
		if err != nil {
			t.Fatalf("failed to get crawl: %v", err)
		}
		if got.BaseURL != "https://example.com" {
			t.Errorf("base URL = %q", got.BaseURL)
		}
		if len(got.Pages) != 2 || got.Pages[0].Title != "Home" {
			t.Errorf("pages = %+v", got.Pages)
		}
		if len(got.State.Failed) != 1 {
			t.Errorf("failed ledger = %+v", got.State.Failed)
		}
	})

	t.Run("latest crawl wins for a site", func(t *testing.T) {
		t.Parallel()

		hdb := openTestDB(t)
		ctx := context.Background()

		older := sampleResult("https://example.com")
		if err := hdb.SaveCrawl(ctx, older); err != nil {
			t.Fatalf("failed to save older crawl: %v", err)
		}

		newer := sampleResult("https://example.com")
		newer.StartedAt = older.StartedAt.Add(time.Hour)
		newer.CompletedAt = older.CompletedAt.Add(time.Hour)
		newer.Pages = newer.Pages[:1]
		if err := hdb.SaveCrawl(ctx, newer); err != nil {
			t.Fatalf("failed to save newer crawl: %v", err)
		}

		got, err := hdb.GetLatestCrawl(ctx, "https://example.com")
		if err != nil {
			t.Fatalf("failed to get latest crawl: %v", err)
		}
		if len(got.Pages) != 1 {
			t.Errorf("latest crawl pages = %d, want the newer crawl", len(got.Pages))
		}
	})

	t.Run("missing crawl returns ErrNotFound", func(t *testing.T) {
		t.Parallel()

		hdb := openTestDB(t)
		if _, err := hdb.GetCrawl(context.Background(), 9999); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
		if _, err := hdb.GetLatestCrawl(context.Background(), "https://nowhere.example.com"); !errors.Is(err, ErrNotFound) {
			t.Errorf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("lists distinct sites", func(t *testing.T) {
		t.Parallel()

		hdb := openTestDB(t)
		ctx := context.Background()

		for _, site := range []string{"https://a.example.com", "https://b.example.com", "https://a.example.com"} {
			if err := hdb.SaveCrawl(ctx, sampleResult(site)); err != nil {
				t.Fatalf("failed to save crawl: %v", err)
			}
		}

		sites, err := hdb.ListSites(ctx)
		if err != nil {
			t.Fatalf("failed to list sites: %v", err)
		}
		if len(sites) != 2 {
			t.Errorf("sites = %v, want the two distinct sites", sites)
		}
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("refuses a missing database without create option", func(t *testing.T) {
		t.Parallel()

		opts := Options{CreateIfNotExists: false}
		if _, err := Open(t.TempDir(), opts); err == nil {
			t.Error("expected an error for a missing database")
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		hdb, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := hdb.SaveCrawl(context.Background(), sampleResult("https://example.com")); err != nil {
			t.Fatalf("failed to save crawl: %v", err)
		}
		if err := hdb.Close(); err != nil {
			t.Fatalf("failed to close database: %v", err)
		}

		reopened, err := Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer func() {
			if err := reopened.Close(); err != nil {
				t.Errorf("failed to close database: %v", err)
			}
		}()

		list, err := reopened.ListCrawls(context.Background(), "")
		if err != nil {
			t.Fatalf("failed to list crawls: %v", err)
		}
		if len(list) != 1 {
			t.Errorf("crawls after reopen = %d, want 1", len(list))
		}
	})
}
