package enrich

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultReportInterval is how often the background reporter emits progress.
const DefaultReportInterval = 15 * time.Second

// StatusTracker holds per-batch progress for one run. The map is mutated by
// concurrent batch goroutines, so every access goes through the mutex.
type StatusTracker struct {
	mu       sync.Mutex
	statuses map[int]*BatchStatus
	interval time.Duration
	done     chan struct{}
}

// NewStatusTracker creates a tracker whose reporter wakes on the given
// interval. Non-positive intervals fall back to DefaultReportInterval.
func NewStatusTracker(interval time.Duration) *StatusTracker {
	if interval <= 0 {
		interval = DefaultReportInterval
	}
	return &StatusTracker{
		statuses: make(map[int]*BatchStatus),
		interval: interval,
	}
}

// Reset clears all tracked batches, starting a fresh tracking scope.
func (t *StatusTracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses = make(map[int]*BatchStatus)
}

// Register records a batch as pending before any work starts.
func (t *StatusTracker) Register(batchID, unitCount int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.statuses[batchID] = &BatchStatus{
		BatchID:   batchID,
		State:     StatePending,
		UnitCount: unitCount,
	}
}

// MarkProcessing transitions a batch to processing and stamps its start time.
func (t *StatusTracker) MarkProcessing(batchID int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if s, ok := t.statuses[batchID]; ok {
		s.State = StateProcessing
		s.StartedAt = time.Now()
	}
}

// MarkDone transitions a batch to its terminal state.
func (t *StatusTracker) MarkDone(batchID int, ok bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, found := t.statuses[batchID]
	if !found {
		return
	}
	if ok {
		s.State = StateCompleted
	} else {
		s.State = StateFailed
	}
	s.Err = err
}

// Snapshot returns a copy of every tracked batch status.
func (t *StatusTracker) Snapshot() []BatchStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]BatchStatus, 0, len(t.statuses))
	for _, s := range t.statuses {
		out = append(out, *s)
	}
	return out
}

// Report emits one progress line: counts per state plus elapsed time for
// every batch still in flight.
func (t *StatusTracker) Report() {
	var pending, processing, completed, failed int
	var inFlight []string

	for _, s := range t.Snapshot() {
		switch s.State {
		case StatePending:
			pending++
		case StateProcessing:
			processing++
			inFlight = append(inFlight,
				fmt.Sprintf("batch %d: %s", s.BatchID, time.Since(s.StartedAt).Round(time.Second)))
		case StateCompleted:
			completed++
		case StateFailed:
			failed++
		}
	}

	zap.L().Info("enrichment progress",
		zap.Int("pending", pending),
		zap.Int("processing", processing),
		zap.Int("completed", completed),
		zap.Int("failed", failed),
		zap.Strings("in_flight", inFlight),
	)
}

// StartReporter launches the periodic reporter goroutine. It runs until ctx
// is cancelled; Wait blocks until it has exited so shutdown is deterministic.
func (t *StatusTracker) StartReporter(ctx context.Context) {
	done := make(chan struct{})
	t.done = done

	go func() {
		defer close(done)
		ticker := time.NewTicker(t.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				t.Report()
			}
		}
	}()
}

// Wait blocks until the reporter goroutine has exited. It is a no-op if the
// reporter was never started.
func (t *StatusTracker) Wait() {
	if t.done != nil {
		<-t.done
	}
}
