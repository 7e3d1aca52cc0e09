// Package enrich implements the bounded-concurrency LLM batch-enrichment
// pipeline: batching, provider calls, tolerant response parsing, persistence,
// and live progress tracking.
package enrich

import (
	"time"

	"github.com/jobsift/enrich-cli/internal/model"
)

// Batch is a fixed-size slice of postings processed in one provider call.
// BatchIDs are synthetic, numbered 1..N within a run.
type Batch struct {
	BatchID int
	Units   []model.JobPosting
}

// BatchState is the lifecycle state of one batch.
type BatchState string

const (
	StatePending    BatchState = "pending"
	StateProcessing BatchState = "processing"
	StateCompleted  BatchState = "completed"
	StateFailed     BatchState = "failed"
)

// BatchStatus records the progress of one batch. Terminal states
// (completed, failed) are never revisited.
type BatchStatus struct {
	BatchID   int
	State     BatchState
	StartedAt time.Time
	UnitCount int
	Err       error
}
