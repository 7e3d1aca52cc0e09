package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/jobsift/enrich-cli/internal/model"
	"github.com/jobsift/enrich-cli/internal/store"
)

// Caller abstracts EnrichmentClient so tests can substitute a fake provider.
type Caller interface {
	Call(ctx context.Context, prompt string, batchLen int) (string, error)
}

// BatchRunner processes one batch end to end: prompt, provider call, parse,
// persist. A batch's failure is absorbed into its stats and never propagates,
// so sibling batches are unaffected.
type BatchRunner struct {
	caller            Caller
	store             store.Store
	tracker           *StatusTracker
	descriptionBudget int
}

// NewBatchRunner wires a runner to its collaborators. descriptionBudget <= 0
// uses DefaultDescriptionBudget.
func NewBatchRunner(caller Caller, st store.Store, tracker *StatusTracker, descriptionBudget int) *BatchRunner {
	if descriptionBudget <= 0 {
		descriptionBudget = DefaultDescriptionBudget
	}
	return &BatchRunner{
		caller:            caller,
		store:             st,
		tracker:           tracker,
		descriptionBudget: descriptionBudget,
	}
}

// Run enriches one batch and returns its stats. Processed always counts every
// unit; Errors counts all units when the provider call fails, plus any unit
// whose upsert fails; Enriched counts persisted results. Units whose result
// carries no data are skipped so a later run can retry them.
func (r *BatchRunner) Run(ctx context.Context, batch Batch) model.RunStats {
	n := len(batch.Units)
	stats := model.RunStats{Processed: n}

	r.tracker.MarkProcessing(batch.BatchID)

	prompt := BuildBatchPrompt(batch.Units, r.descriptionBudget)
	raw, err := r.caller.Call(ctx, prompt, n)
	if err != nil {
		zap.L().Error("batch provider call failed",
			zap.Int("batch_id", batch.BatchID),
			zap.Int("units", n),
			zap.Error(err),
		)
		stats.Errors = n
		r.tracker.MarkDone(batch.BatchID, false, err)
		return stats
	}

	for i, result := range ParseResults(raw, n) {
		if !result.HasData() {
			continue
		}
		unit := batch.Units[i]
		if err := r.store.UpsertEnrichment(ctx, unit.ID, result); err != nil {
			zap.L().Error("enrichment upsert failed",
				zap.Int("batch_id", batch.BatchID),
				zap.String("job_id", unit.ID),
				zap.Error(err),
			)
			stats.Errors++
			continue
		}
		stats.Enriched++
	}

	r.tracker.MarkDone(batch.BatchID, true, nil)

	zap.L().Debug("batch completed",
		zap.Int("batch_id", batch.BatchID),
		zap.Int("processed", stats.Processed),
		zap.Int("enriched", stats.Enriched),
		zap.Int("errors", stats.Errors),
	)
	return stats
}
