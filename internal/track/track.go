// Package track records training runs and their metric curves.
//
// A Run is one training invocation: a unique ID, the hyperparameters it
// was launched with, and a start time. Metrics are named scalar series
// logged against a run as training proceeds (train_loss, val_loss,
// grad_norm, ...). The Store interface persists both; the memory store
// backs tests and one-off runs, the sqlite store (build tag "sqlite")
// keeps history across processes.
package track

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Run is one training invocation.
type Run struct {
	// ID uniquely identifies the run across processes.
	ID string
	// Name is the human-readable label, not necessarily unique.
	Name string
	// StartedAt is when the run began.
	StartedAt time.Time
	// Config holds the flattened hyperparameters the run was launched
	// with, for later comparison across runs.
	Config map[string]string
}

// NewRun creates a run with a fresh ID, started now.
func NewRun(name string, config map[string]string) Run {
	return Run{
		ID:        uuid.NewString(),
		Name:      name,
		StartedAt: time.Now().UTC(),
		Config:    config,
	}
}

// Metric is one scalar observation in a named series.
type Metric struct {
	RunID string
	// Name identifies the series, e.g. "train_loss".
	Name string
	// Step is the training step or epoch the value was measured at.
	Step int64
	// Value is the observation.
	Value float64
	// At is when the value was logged.
	At time.Time
}

// Store persists runs and metrics.
//
// Implementations must be safe for concurrent use. Init must be called
// before any other method and Close when the store is no longer needed.
type Store interface {
	// Init prepares the store (opens files, creates tables).
	Init(ctx context.Context) error

	// SaveRun inserts or updates a run by ID.
	SaveRun(ctx context.Context, run Run) error

	// LogMetric appends one observation.
	LogMetric(ctx context.Context, metric Metric) error

	// Metrics returns a run's series in step order.
	Metrics(ctx context.Context, runID, name string) ([]Metric, error)

	// Runs returns all runs ordered by start time.
	Runs(ctx context.Context) ([]Run, error)

	// Close releases the store's resources.
	Close() error
}
