package crawler

import (
	"sync"
	"testing"
	"time"

	"github.com/nao1215/sitegraph/internal/model"
)

func TestFrontierPush(t *testing.T) {
	t.Parallel()

	t.Run("accepts distinct normalized URLs", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if !f.Push(model.NewCrawlTarget("https://example.com/a", 0, model.SourceSeed)) {
			t.Error("first push should be accepted")
		}
		if !f.Push(model.NewCrawlTarget("https://example.com/b", 0, model.SourceSeed)) {
			t.Error("distinct URL should be accepted")
		}
		if f.Len() != 2 {
			t.Errorf("queue length = %d, want 2", f.Len())
		}
	})

	t.Run("rejects URLs that normalize to a seen URL", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push(model.NewCrawlTarget("https://example.com/a", 0, model.SourceSeed))

		duplicates := []string{
			"https://example.com/a",
			"https://EXAMPLE.com/a",
			"https://example.com/a/",
			"https://example.com/a?utm_source=x",
			"https://example.com/a#section",
			"https://example.com:443/a",
		}
		for _, d := range duplicates {
			if f.Push(model.NewCrawlTarget(d, 1, model.SourceLink)) {
				t.Errorf("duplicate %q should be rejected", d)
			}
		}
	})

	t.Run("rejects pushes after close", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Close()
		if f.Push(model.NewCrawlTarget("https://example.com", 0, model.SourceSeed)) {
			t.Error("push after close should be rejected")
		}
	})
}

func TestFrontierPop(t *testing.T) {
	t.Parallel()

	t.Run("returns targets in FIFO order", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push(model.NewCrawlTarget("https://example.com/a", 0, model.SourceSeed))
		f.Push(model.NewCrawlTarget("https://example.com/b", 0, model.SourceSeed))

		first, ok := f.Pop()
		if !ok || first.URL != "https://example.com/a" {
			t.Fatalf("first pop = %q, %v", first.URL, ok)
		}
		second, ok := f.Pop()
		if !ok || second.URL != "https://example.com/b" {
			t.Fatalf("second pop = %q, %v", second.URL, ok)
		}
	})

	t.Run("closes itself when the last outstanding target completes", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push(model.NewCrawlTarget("https://example.com", 0, model.SourceSeed))

		if _, ok := f.Pop(); !ok {
			t.Fatal("pop should return the queued target")
		}

		done := make(chan struct{})
		go func() {
			// Blocks while the popped target is in flight, then returns
			// not-ok once Done drains the frontier.
			if _, ok := f.Pop(); ok {
				t.Error("pop after drain should report closed")
			}
			close(done)
		}()

		// Give the blocked Pop a moment to park before completing the
		// in-flight target.
		time.Sleep(20 * time.Millisecond)
		f.Done()

		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("pop did not unblock after the frontier drained")
		}
	})

	t.Run("blocked pop receives a target pushed by an in-flight worker", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.Push(model.NewCrawlTarget("https://example.com", 0, model.SourceSeed))

		if _, ok := f.Pop(); !ok {
			t.Fatal("pop should return the seed")
		}

		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			target, ok := f.Pop()
			if !ok {
				t.Error("pop should receive the expanded target")
				return
			}
			if target.URL != "https://example.com/child" {
				t.Errorf("pop = %q, want the expanded child", target.URL)
			}
			f.Done()
		}()

		f.Push(model.NewCrawlTarget("https://example.com/child", 1, model.SourceLink))
		f.Done()
		wg.Wait()
	})
}

func TestFrontierMarkSeen(t *testing.T) {
	t.Parallel()

	t.Run("first marker wins", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		if !f.MarkSeen("https://example.com/skip") {
			t.Error("first mark should report true")
		}
		if f.MarkSeen("https://example.com/skip") {
			t.Error("second mark should report false")
		}
	})

	t.Run("marked URLs are rejected by push", func(t *testing.T) {
		t.Parallel()

		f := NewFrontier()
		f.MarkSeen("https://example.com/skip")
		if f.Push(model.NewCrawlTarget("https://example.com/skip", 0, model.SourceLink)) {
			t.Error("push of a marked URL should be rejected")
		}
	})
}
