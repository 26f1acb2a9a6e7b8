package metrics

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"
)

// Snapshot holds crawl statistics for export on exit
type Snapshot struct {
	StartTime         time.Time      `json:"start_time"`
	EndTime           time.Time      `json:"end_time"`
	PagesFetched      map[string]int `json:"pages_fetched"`
	PagesFailed       map[string]int `json:"pages_failed"`
	ProductsParsed    int            `json:"products_parsed"`
	ProductsSaved     int            `json:"products_saved"`
	SaveFailures      int            `json:"save_failures"`
	DiscoveryRuns     int            `json:"discovery_runs"`
	CyclesCompleted   int            `json:"cycles_completed"`
	CycleErrors       int            `json:"cycle_errors"`
	TerminationReason string         `json:"termination_reason"`
}

// Tracker holds and manages scraper metrics
type Tracker struct {
	mu   sync.Mutex
	data Snapshot
}

// NewTracker creates a new metrics tracker
func NewTracker() *Tracker {
	return &Tracker{
		data: Snapshot{
			StartTime:    time.Now(),
			PagesFetched: make(map[string]int),
			PagesFailed:  make(map[string]int),
		},
	}
}

// RecordFetch records a fetch outcome keyed by page type
func (t *Tracker) RecordFetch(pageType string, success bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if success {
		t.data.PagesFetched[pageType]++
	} else {
		t.data.PagesFailed[pageType]++
	}
}

// IncrementProductsParsed increments the parsed products counter
func (t *Tracker) IncrementProductsParsed() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.ProductsParsed++
}

// IncrementProductsSaved increments the persisted products counter
func (t *Tracker) IncrementProductsSaved() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.ProductsSaved++
}

// IncrementSaveFailures increments the failed persistence counter
func (t *Tracker) IncrementSaveFailures() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.SaveFailures++
}

// IncrementDiscoveryRuns increments the category discovery counter
func (t *Tracker) IncrementDiscoveryRuns() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.DiscoveryRuns++
}

// IncrementCyclesCompleted increments the completed cycles counter
func (t *Tracker) IncrementCyclesCompleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.CyclesCompleted++
}

// IncrementCycleErrors increments the failed cycles counter
func (t *Tracker) IncrementCycleErrors() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.data.CycleErrors++
}

// GetSnapshot returns a copy of current metrics
func (t *Tracker) GetSnapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.copySnapshot()
}

// WriteToFile exports metrics to a JSON file
func (t *Tracker) WriteToFile(path, reason string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	// Finalize metrics
	t.data.EndTime = time.Now()
	t.data.TerminationReason = reason

	jsonData, err := json.MarshalIndent(t.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}

	return nil
}

// LogProgress returns a one-line summary for periodic progress logging
func (t *Tracker) LogProgress() string {
	t.mu.Lock()
	defer t.mu.Unlock()

	fetched, failed := 0, 0
	for _, n := range t.data.PagesFetched {
		fetched += n
	}
	for _, n := range t.data.PagesFailed {
		failed += n
	}

	return fmt.Sprintf("Pages: %d fetched, %d failed | Products: %d parsed, %d saved (%d failures) | Cycles: %d completed, %d errors",
		fetched,
		failed,
		t.data.ProductsParsed,
		t.data.ProductsSaved,
		t.data.SaveFailures,
		t.data.CyclesCompleted,
		t.data.CycleErrors,
	)
}

// copySnapshot duplicates the snapshot including its maps; callers must hold t.mu
func (t *Tracker) copySnapshot() Snapshot {
	snapshot := t.data
	snapshot.PagesFetched = make(map[string]int, len(t.data.PagesFetched))
	for k, v := range t.data.PagesFetched {
		snapshot.PagesFetched[k] = v
	}
	snapshot.PagesFailed = make(map[string]int, len(t.data.PagesFailed))
	for k, v := range t.data.PagesFailed {
		snapshot.PagesFailed[k] = v
	}
	return snapshot
}
