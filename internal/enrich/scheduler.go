package enrich

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jobsift/enrich-cli/internal/model"
	"github.com/jobsift/enrich-cli/internal/resilience"
	"github.com/jobsift/enrich-cli/internal/store"
)

// ErrRunAborted signals that the enrichment loop stopped early because
// consecutive cycles produced only errors, the observable signature of a bad
// credential.
var ErrRunAborted = eris.New("enrich: run aborted after consecutive failed cycles")

// Runner abstracts BatchRunner for tests.
type Runner interface {
	Run(ctx context.Context, batch Batch) model.RunStats
}

// Scheduler partitions a backlog into batches, bounds how many run
// concurrently, and aggregates their outcomes.
type Scheduler struct {
	runner  Runner
	store   store.Store
	tracker *StatusTracker
}

// NewScheduler wires a scheduler to its collaborators.
func NewScheduler(runner Runner, st store.Store, tracker *StatusTracker) *Scheduler {
	return &Scheduler{runner: runner, store: st, tracker: tracker}
}

// SplitBatches partitions units into batches of batchSize in original order,
// numbering them 1..N. The last batch may be short.
func SplitBatches(units []model.JobPosting, batchSize int) []Batch {
	var batches []Batch
	for start := 0; start < len(units); start += batchSize {
		end := min(start+batchSize, len(units))
		batches = append(batches, Batch{
			BatchID: len(batches) + 1,
			Units:   units[start:end],
		})
	}
	return batches
}

// RunAll enriches one backlog slice: ceil(n/batchSize) batches, at most
// maxConcurrent in flight. Batch failures are absorbed into the aggregated
// stats; the only error is caller misuse.
func (s *Scheduler) RunAll(ctx context.Context, units []model.JobPosting, batchSize, maxConcurrent int) (model.RunStats, error) {
	if batchSize <= 0 || maxConcurrent <= 0 {
		return model.RunStats{}, eris.Errorf(
			"enrich: invalid run parameters: batch size %d, max concurrent %d", batchSize, maxConcurrent)
	}

	batches := SplitBatches(units, batchSize)
	s.tracker.Reset()
	for _, b := range batches {
		s.tracker.Register(b.BatchID, len(b.Units))
	}

	zap.L().Info("starting enrichment cycle",
		zap.Int("units", len(units)),
		zap.Int("batches", len(batches)),
		zap.Int("max_concurrent", maxConcurrent),
	)

	reporterCtx, stopReporter := context.WithCancel(ctx)
	s.tracker.StartReporter(reporterCtx)

	var mu sync.Mutex
	var total model.RunStats

	g := new(errgroup.Group)
	g.SetLimit(maxConcurrent)
	for _, batch := range batches {
		g.Go(func() error {
			stats := s.runBatch(ctx, batch)
			mu.Lock()
			total.Add(stats)
			mu.Unlock()
			// Always nil: a failed batch must not cancel its siblings.
			return nil
		})
	}
	_ = g.Wait()

	// Cancel the reporter and await it so the final report includes every
	// terminal state and no output trails the run.
	stopReporter()
	s.tracker.Wait()
	s.tracker.Report()

	return total, nil
}

// runBatch converts any runner panic into an errored batch.
func (s *Scheduler) runBatch(ctx context.Context, batch Batch) (stats model.RunStats) {
	defer func() {
		if r := recover(); r != nil {
			zap.L().Error("batch runner panicked",
				zap.Int("batch_id", batch.BatchID),
				zap.Any("panic", r),
			)
			n := len(batch.Units)
			stats = model.RunStats{Processed: n, Errors: n}
			s.tracker.MarkDone(batch.BatchID, false, eris.Errorf("batch %d panicked: %v", batch.BatchID, r))
		}
	}()
	return s.runner.Run(ctx, batch)
}

// PendingOptions configures an EnrichAllPending run.
type PendingOptions struct {
	// Source optionally scopes the run to one job board.
	Source string

	BatchSize     int
	MaxConcurrent int

	// MaxFailedCycles is the circuit-breaker threshold; <= 0 uses
	// resilience.DefaultCycleThreshold.
	MaxFailedCycles int
}

// EnrichAllPending drains the pending backlog: it repeatedly fetches up to
// BatchSize*MaxConcurrent units, runs them through RunAll, and stops when a
// fetch comes back empty. Cycles that produce only errors trip the circuit
// breaker. Accumulated stats are returned even when the run aborts.
func (s *Scheduler) EnrichAllPending(ctx context.Context, opts PendingOptions) (model.RunStats, error) {
	var total model.RunStats
	if opts.BatchSize <= 0 || opts.MaxConcurrent <= 0 {
		return total, eris.Errorf(
			"enrich: invalid run parameters: batch size %d, max concurrent %d", opts.BatchSize, opts.MaxConcurrent)
	}

	breaker := resilience.NewCycleBreaker(opts.MaxFailedCycles)
	fetchLimit := opts.BatchSize * opts.MaxConcurrent

	for {
		if err := ctx.Err(); err != nil {
			return total, eris.Wrap(err, "enrich: run cancelled")
		}

		units, err := s.store.FetchPending(ctx, fetchLimit, opts.Source)
		if err != nil {
			return total, eris.Wrap(err, "enrich: fetch pending")
		}
		if len(units) == 0 {
			zap.L().Info("backlog drained",
				zap.Int("processed", total.Processed),
				zap.Int("enriched", total.Enriched),
				zap.Int("errors", total.Errors),
			)
			return total, nil
		}

		stats, err := s.RunAll(ctx, units, opts.BatchSize, opts.MaxConcurrent)
		total.Add(stats)
		if err != nil {
			return total, err
		}

		breaker.Record(stats.Errors > 0 && stats.Enriched == 0)
		if breaker.Open() {
			zap.L().Error("aborting run: consecutive cycles with errors and no enrichments",
				zap.Int("consecutive_failures", breaker.Failures()),
			)
			return total, eris.Wrapf(ErrRunAborted, "%d consecutive failed cycles", breaker.Failures())
		}

		// A cycle that neither enriched nor errored would refetch the same
		// units forever; stop instead and leave them for a later run.
		if stats.Enriched == 0 && stats.Errors == 0 {
			zap.L().Warn("cycle made no progress, stopping",
				zap.Int("units", len(units)),
			)
			return total, nil
		}
	}
}
