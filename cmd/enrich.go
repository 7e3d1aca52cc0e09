package main

import (
	"encoding/json"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsift/enrich-cli/internal/enrich"
)

var (
	enrichSource        string
	enrichBatchSize     int
	enrichMaxConcurrent int
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Enrich all pending job postings",
	Long:  "Fetches postings without an enrichment record and drives them through the LLM batch pipeline until the backlog is drained.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		scheduler, err := newScheduler(st, cfg)
		if err != nil {
			return err
		}

		enrichCfg := cfg.Enrich
		if enrichBatchSize > 0 {
			enrichCfg.BatchSize = enrichBatchSize
		}
		if enrichMaxConcurrent > 0 {
			enrichCfg.MaxConcurrent = enrichMaxConcurrent
		}

		stats, runErr := scheduler.EnrichAllPending(ctx, pendingOptions(enrichCfg, enrichSource))

		// The stats summary is printed even when the run aborts.
		out, _ := json.MarshalIndent(stats, "", "  ")
		os.Stdout.Write(append(out, '\n'))

		if runErr != nil {
			if errors.Is(runErr, enrich.ErrRunAborted) {
				zap.L().Error("run aborted", zap.Error(runErr))
			}
			return runErr
		}
		return nil
	},
}

func init() {
	enrichCmd.Flags().StringVar(&enrichSource, "source", "", "only enrich postings from this job board")
	enrichCmd.Flags().IntVar(&enrichBatchSize, "batch-size", 0, "postings per provider call (default from config)")
	enrichCmd.Flags().IntVar(&enrichMaxConcurrent, "max-concurrent", 0, "batches in flight at once (default from config)")
	rootCmd.AddCommand(enrichCmd)
}
