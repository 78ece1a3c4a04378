package track

import (
	"context"
	"errors"
	"sort"
	"sync"
)

// MemoryStore keeps runs and metrics in process memory. The zero value is
// not usable; call Init first, as with every Store.
type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]Run
	metrics     map[string][]Metric // keyed by runID
}

// NewMemoryStore creates an in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]Run)
	s.metrics = make(map[string][]Metric)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}

	copied := run
	if run.Config != nil {
		copied.Config = make(map[string]string, len(run.Config))
		for k, v := range run.Config {
			copied.Config[k] = v
		}
	}
	s.runs[run.ID] = copied
	return nil
}

func (s *MemoryStore) LogMetric(_ context.Context, metric Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}

	s.metrics[metric.RunID] = append(s.metrics[metric.RunID], metric)
	return nil
}

func (s *MemoryStore) Metrics(_ context.Context, runID, name string) ([]Metric, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}

	var series []Metric
	for _, m := range s.metrics[runID] {
		if m.Name == name {
			series = append(series, m)
		}
	}
	sort.SliceStable(series, func(i, j int) bool { return series[i].Step < series[j].Step })
	return series, nil
}

func (s *MemoryStore) Runs(_ context.Context) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.initialized {
		return nil, errors.New("store is not initialized")
	}

	runs := make([]Run, 0, len(s.runs))
	for _, run := range s.runs {
		runs = append(runs, run)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].StartedAt.Before(runs[j].StartedAt) })
	return runs, nil
}

func (s *MemoryStore) Close() error {
	return nil
}
