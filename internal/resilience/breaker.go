package resilience

import "sync"

// CycleBreaker trips after a fixed number of consecutive failed cycles.
// The enrichment loop records one observation per fetch cycle; a cycle where
// every unit errored and none enriched is the observable signature of a bad
// credential, so once the breaker opens the loop stops issuing fetches.
type CycleBreaker struct {
	mu          sync.Mutex
	threshold   int
	consecutive int
	open        bool
}

// DefaultCycleThreshold is the number of consecutive all-error cycles
// tolerated before a run is aborted.
const DefaultCycleThreshold = 3

// NewCycleBreaker creates a breaker with the given threshold.
// Non-positive thresholds fall back to DefaultCycleThreshold.
func NewCycleBreaker(threshold int) *CycleBreaker {
	if threshold <= 0 {
		threshold = DefaultCycleThreshold
	}
	return &CycleBreaker{threshold: threshold}
}

// Record observes the outcome of one cycle. A success resets the consecutive
// counter; a failure increments it and opens the breaker at the threshold.
// An open breaker never closes again for the lifetime of the run.
func (b *CycleBreaker) Record(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !failed {
		b.consecutive = 0
		return
	}
	b.consecutive++
	if b.consecutive >= b.threshold {
		b.open = true
	}
}

// Open reports whether the breaker has tripped.
func (b *CycleBreaker) Open() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// Failures returns the current consecutive-failure count.
func (b *CycleBreaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.consecutive
}
