//go:build sqlite

package track

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()

	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.Init(context.Background()); err != nil {
		t.Fatalf("init: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return store
}

func TestSQLiteStore_RunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	run := Run{
		ID:        "run-1",
		Name:      "lstm-baseline",
		StartedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		Config:    map[string]string{"cell": "lstm", "hidden": "256"},
	}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if diff := cmp.Diff([]Run{run}, runs); diff != "" {
		t.Errorf("runs mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_SaveRunUpserts(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	started := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	if err := store.SaveRun(ctx, Run{ID: "run-1", Name: "first", StartedAt: started, Config: map[string]string{}}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, Run{ID: "run-1", Name: "second", StartedAt: started, Config: map[string]string{}}); err != nil {
		t.Fatalf("save run again: %v", err)
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("expected one run after upsert, got %d", len(runs))
	}
	if runs[0].Name != "second" {
		t.Errorf("run name = %q, want %q", runs[0].Name, "second")
	}
}

func TestSQLiteStore_MetricsFilteredAndOrdered(t *testing.T) {
	ctx := context.Background()
	store := newTestSQLiteStore(t)

	at := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	for _, m := range []Metric{
		{RunID: "run-1", Name: "train_loss", Step: 2, Value: 1.5, At: at},
		{RunID: "run-1", Name: "train_loss", Step: 1, Value: 2.0, At: at},
		{RunID: "run-1", Name: "val_loss", Step: 1, Value: 2.2, At: at},
		{RunID: "run-2", Name: "train_loss", Step: 1, Value: 9.9, At: at},
	} {
		if err := store.LogMetric(ctx, m); err != nil {
			t.Fatalf("log metric: %v", err)
		}
	}

	series, err := store.Metrics(ctx, "run-1", "train_loss")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}

	want := []Metric{
		{RunID: "run-1", Name: "train_loss", Step: 1, Value: 2.0, At: at},
		{RunID: "run-1", Name: "train_loss", Step: 2, Value: 1.5, At: at},
	}
	if diff := cmp.Diff(want, series); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestSQLiteStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "runs.db")

	store := NewSQLiteStore(path)
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}
	run := NewRun("persisted", map[string]string{"cell": "gru"})
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.LogMetric(ctx, Metric{RunID: run.ID, Name: "train_loss", Step: 1, Value: 3.1, At: run.StartedAt}); err != nil {
		t.Fatalf("log metric: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	reopened := NewSQLiteStore(path)
	if err := reopened.Init(ctx); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()

	runs, err := reopened.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != run.ID {
		t.Fatalf("run did not survive reopen: %+v", runs)
	}

	series, err := reopened.Metrics(ctx, run.ID, "train_loss")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if len(series) != 1 || series[0].Value != 3.1 {
		t.Fatalf("metric did not survive reopen: %+v", series)
	}
}

func TestSQLiteStore_RequiresPath(t *testing.T) {
	store := NewSQLiteStore("")
	if err := store.Init(context.Background()); err == nil {
		t.Fatal("Init without a path should fail")
	}
}

func TestSQLiteStore_RequiresInit(t *testing.T) {
	store := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	if err := store.SaveRun(context.Background(), Run{ID: "run-1", Config: map[string]string{}}); err == nil {
		t.Fatal("SaveRun on an uninitialized store should fail")
	}
}
