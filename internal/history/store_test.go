package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"restream/internal/history"
	"restream/internal/relay"
)

func openStore(t *testing.T) *history.Store {
	t.Helper()
	store, err := history.Open(filepath.Join(t.TempDir(), "nested", "history.db"))
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestRecordAndRecent(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	runs := []history.Run{
		{
			RunID:       "run-1",
			SourceURL:   "https://www.youtube.com/watch?v=live1",
			Destination: "rtmp://a.rtmp.youtube.com/live2/secret-key",
			Extractor:   "yt-dlp",
			Quality:     "best",
			StartedAt:   base,
			FinishedAt:  base.Add(90 * time.Minute),
			Reason:      relay.NormalCompletion,
			ExitCode:    0,
			Chunks:      3,
			Bytes:       3584,
			Digest:      "abc123",
		},
		{
			RunID:        "run-2",
			SourceURL:    "https://example.com/ended",
			Destination:  "rtmp://ingest.example.com/app/other-key",
			Extractor:    "yt-dlp",
			Quality:      "720p",
			StartedAt:    base.Add(2 * time.Hour),
			FinishedAt:   base.Add(2*time.Hour + time.Second),
			Reason:       relay.SourceFailure,
			ExitCode:     0,
			ErrorMessage: "source unavailable: yt-dlp exited with status 1",
		},
	}
	for _, run := range runs {
		if _, err := store.Record(ctx, run); err != nil {
			t.Fatalf("Record returned error: %v", err)
		}
	}

	got, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 runs, got %d", len(got))
	}
	if got[0].RunID != "run-2" || got[1].RunID != "run-1" {
		t.Fatalf("expected newest first, got %s then %s", got[0].RunID, got[1].RunID)
	}
	if got[0].Reason != relay.SourceFailure || got[0].ErrorMessage == "" {
		t.Fatalf("unexpected failure record: %+v", got[0])
	}
	if got[1].Destination != "rtmp://a.rtmp.youtube.com/live2/****" {
		t.Fatalf("expected redacted destination, got %q", got[1].Destination)
	}
	if got[1].Duration() != 90*time.Minute {
		t.Fatalf("unexpected duration %s", got[1].Duration())
	}
	if got[1].Bytes != 3584 || got[1].Digest != "abc123" {
		t.Fatalf("unexpected totals: %+v", got[1])
	}

	limited, err := store.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestRecordRequiresRunID(t *testing.T) {
	store := openStore(t)
	if _, err := store.Record(context.Background(), history.Run{}); err == nil {
		t.Fatal("expected error without run id")
	}
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	store, err := history.Open(path)
	if err != nil {
		t.Fatalf("Open returned error: %v", err)
	}
	now := time.Now()
	if _, err := store.Record(context.Background(), history.Run{RunID: "r", StartedAt: now, FinishedAt: now, Reason: relay.BrokenPipe}); err != nil {
		t.Fatalf("Record returned error: %v", err)
	}
	_ = store.Close()

	reopened, err := history.Open(path)
	if err != nil {
		t.Fatalf("reopen returned error: %v", err)
	}
	defer reopened.Close()
	runs, err := reopened.Recent(context.Background(), 5)
	if err != nil {
		t.Fatalf("Recent returned error: %v", err)
	}
	if len(runs) != 1 || runs[0].Reason != relay.BrokenPipe {
		t.Fatalf("unexpected runs after reopen: %+v", runs)
	}

	deleted, err := reopened.Clear(context.Background())
	if err != nil {
		t.Fatalf("Clear returned error: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected one deleted run, got %d", deleted)
	}
}
