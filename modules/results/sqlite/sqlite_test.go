package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Aisuko/rp-needle/internal/results"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStore_RoundTrip(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	rec := results.Record{
		Model:     "test-model",
		Length:    4000,
		Depth:     62.5,
		Repeat:    1,
		Needles:   []string{"The secret ingredient is basil."},
		Question:  "What is the secret ingredient?",
		Response:  "Basil.",
		Score:     results.ScoreOf(10),
		Status:    results.StatusOK,
		Attempts:  2,
		Duration:  3 * time.Second,
		StartedAt: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	loaded, err := store.Records(ctx, "test-model")
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d records, want 1", len(loaded))
	}

	got := loaded[0]
	if got.Length != rec.Length || got.Depth != rec.Depth || got.Repeat != rec.Repeat {
		t.Errorf("cell = (%d, %v, %d), want (%d, %v, %d)",
			got.Length, got.Depth, got.Repeat, rec.Length, rec.Depth, rec.Repeat)
	}
	if len(got.Needles) != 1 || got.Needles[0] != rec.Needles[0] {
		t.Errorf("Needles = %v, want round-tripped", got.Needles)
	}
	if got.Score != rec.Score {
		t.Errorf("Score = %+v, want %+v", got.Score, rec.Score)
	}
	if got.Status != results.StatusOK || got.Attempts != 2 {
		t.Errorf("Status/Attempts = %q/%d, want ok/2", got.Status, got.Attempts)
	}
	if got.Duration != rec.Duration {
		t.Errorf("Duration = %v, want %v", got.Duration, rec.Duration)
	}
	if !got.StartedAt.Equal(rec.StartedAt) {
		t.Errorf("StartedAt = %v, want %v", got.StartedAt, rec.StartedAt)
	}
}

func TestStore_NullScore(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	rec := results.Record{
		Model:  "test-model",
		Length: 1000,
		Depth:  0,
		Score:  results.NullScore(),
		Status: results.StatusFailed,
		Error:  "provider unavailable",
	}
	if err := store.Record(ctx, rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	loaded, err := store.Records(ctx, "test-model")
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("got %d records, want 1", len(loaded))
	}

	// NULL in the database must come back as a null score, not zero.
	if loaded[0].Score.Valid {
		t.Errorf("Score = %+v, want null", loaded[0].Score)
	}
	if loaded[0].Status != results.StatusFailed || loaded[0].Error == "" {
		t.Errorf("record = %+v, want failure details preserved", loaded[0])
	}
}

func TestStore_FiltersByModel(t *testing.T) {
	t.Parallel()

	store := openTestStore(t)
	ctx := context.Background()

	for _, model := range []string{"model-a", "model-a", "model-b"} {
		rec := results.Record{Model: model, Length: 1000, Depth: 50, Status: results.StatusOK, Score: results.ScoreOf(10)}
		if err := store.Record(ctx, rec); err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	loaded, err := store.Records(ctx, "model-a")
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(loaded) != 2 {
		t.Errorf("got %d records for model-a, want 2", len(loaded))
	}
}

func TestOpen_MigrationIdempotent(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "results.db")

	first, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	rec := results.Record{Model: "m", Length: 1000, Depth: 50, Status: results.StatusOK, Score: results.ScoreOf(5)}
	if err := first.Record(context.Background(), rec); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	// Reopening re-runs migration against the existing schema.
	second, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer func() { _ = second.Close() }()

	loaded, err := second.Records(context.Background(), "m")
	if err != nil {
		t.Fatalf("Records() error = %v", err)
	}
	if len(loaded) != 1 {
		t.Errorf("got %d records after reopen, want 1", len(loaded))
	}
}
