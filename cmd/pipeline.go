package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/jobsift/enrich-cli/internal/config"
	"github.com/jobsift/enrich-cli/internal/enrich"
	"github.com/jobsift/enrich-cli/internal/resilience"
	"github.com/jobsift/enrich-cli/internal/store"
	"github.com/jobsift/enrich-cli/pkg/llm"
)

// openStore creates the configured store backend.
func openStore(ctx context.Context, cfg config.StoreConfig) (store.Store, error) {
	switch cfg.Driver {
	case "postgres":
		return store.NewPostgres(ctx, cfg.DatabaseURL, cfg.Pool)
	case "sqlite", "":
		return store.NewSQLite(cfg.SQLitePath)
	default:
		return nil, eris.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// newProvider creates the configured LLM transport.
func newProvider(cfg config.LLMConfig) (llm.Client, error) {
	switch cfg.Provider {
	case "anthropic":
		return llm.NewAnthropic(cfg.Key, cfg.Model), nil
	case "openai", "":
		opts := []llm.Option{llm.WithModel(cfg.Model)}
		if cfg.BaseURL != "" {
			opts = append(opts, llm.WithBaseURL(cfg.BaseURL))
		}
		if cfg.RequestsPerMin > 0 {
			opts = append(opts, llm.WithRateLimit(cfg.RequestsPerMin))
		}
		return llm.NewClient(cfg.Key, opts...), nil
	default:
		return nil, eris.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

// newScheduler wires the full pipeline on top of an open store.
func newScheduler(st store.Store, cfg *config.Config) (*enrich.Scheduler, error) {
	provider, err := newProvider(cfg.LLM)
	if err != nil {
		return nil, err
	}

	client := enrich.NewEnrichmentClient(provider, cfg.LLM.Model,
		enrich.WithStructuredOutput(cfg.LLM.StructuredOutput),
		enrich.WithRetryConfig(resilience.RetryConfig{
			MaxAttempts: cfg.LLM.MaxRetries,
			OnRetry:     resilience.RetryLogger("llm", "chat completion"),
		}),
	)

	tracker := enrich.NewStatusTracker(time.Duration(cfg.Enrich.ReportIntervalSecs) * time.Second)
	runner := enrich.NewBatchRunner(client, st, tracker, cfg.Enrich.DescriptionBudget)
	return enrich.NewScheduler(runner, st, tracker), nil
}

// pendingOptions maps config onto the scheduler's run options.
func pendingOptions(cfg config.EnrichConfig, source string) enrich.PendingOptions {
	return enrich.PendingOptions{
		Source:          source,
		BatchSize:       cfg.BatchSize,
		MaxConcurrent:   cfg.MaxConcurrent,
		MaxFailedCycles: cfg.MaxFailedCycles,
	}
}
