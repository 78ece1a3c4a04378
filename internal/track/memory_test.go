package track

import (
	"context"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestMemoryStore_RunRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

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

func TestMemoryStore_SaveRunCopiesConfig(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	config := map[string]string{"cell": "gru"}
	run := Run{ID: "run-1", Name: "r", Config: config}
	if err := store.SaveRun(ctx, run); err != nil {
		t.Fatalf("save run: %v", err)
	}

	config["cell"] = "mutated"

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if got := runs[0].Config["cell"]; got != "gru" {
		t.Errorf("stored config follows caller mutation: got %q, want %q", got, "gru")
	}
}

func TestMemoryStore_SaveRunUpserts(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	if err := store.SaveRun(ctx, Run{ID: "run-1", Name: "first"}); err != nil {
		t.Fatalf("save run: %v", err)
	}
	if err := store.SaveRun(ctx, Run{ID: "run-1", Name: "second"}); err != nil {
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

func TestMemoryStore_RunsOrderedByStart(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for _, run := range []Run{
		{ID: "later", StartedAt: base.Add(time.Hour)},
		{ID: "earlier", StartedAt: base},
	} {
		if err := store.SaveRun(ctx, run); err != nil {
			t.Fatalf("save run %s: %v", run.ID, err)
		}
	}

	runs, err := store.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if runs[0].ID != "earlier" || runs[1].ID != "later" {
		t.Errorf("runs out of order: %s, %s", runs[0].ID, runs[1].ID)
	}
}

func TestMemoryStore_MetricsFilteredAndOrdered(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	// Two series on one run plus a foreign run that must not leak in.
	for _, m := range []Metric{
		{RunID: "run-1", Name: "train_loss", Step: 2, Value: 1.5},
		{RunID: "run-1", Name: "train_loss", Step: 1, Value: 2.0},
		{RunID: "run-1", Name: "val_loss", Step: 1, Value: 2.2},
		{RunID: "run-2", Name: "train_loss", Step: 1, Value: 9.9},
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
		{RunID: "run-1", Name: "train_loss", Step: 1, Value: 2.0},
		{RunID: "run-1", Name: "train_loss", Step: 2, Value: 1.5},
	}
	if diff := cmp.Diff(want, series); diff != "" {
		t.Errorf("series mismatch (-want +got):\n%s", diff)
	}
}

func TestMemoryStore_MetricsEmptySeries(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	if err := store.Init(ctx); err != nil {
		t.Fatalf("init: %v", err)
	}

	series, err := store.Metrics(ctx, "nope", "train_loss")
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if len(series) != 0 {
		t.Errorf("expected empty series, got %d entries", len(series))
	}
}

func TestMemoryStore_RequiresInit(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	if err := store.SaveRun(ctx, Run{ID: "run-1"}); err == nil {
		t.Error("SaveRun on an uninitialized store should fail")
	}
	if err := store.LogMetric(ctx, Metric{RunID: "run-1"}); err == nil {
		t.Error("LogMetric on an uninitialized store should fail")
	}
	if _, err := store.Runs(ctx); err == nil {
		t.Error("Runs on an uninitialized store should fail")
	}
}

func TestNewRun_FreshIDs(t *testing.T) {
	a := NewRun("a", nil)
	b := NewRun("b", nil)

	if a.ID == "" || b.ID == "" {
		t.Fatal("NewRun returned an empty ID")
	}
	if a.ID == b.ID {
		t.Errorf("two runs share ID %q", a.ID)
	}
	if a.StartedAt.IsZero() {
		t.Error("NewRun left StartedAt zero")
	}
}
