package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jobsift/enrich-cli/internal/fetcher"
)

var (
	importSource string
	importSheet  string
)

var importCmd = &cobra.Command{
	Use:   "import <file.xlsx>",
	Short: "Import job postings from an XLSX backlog export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		postings, err := fetcher.ReadPostingsXLSX(args[0], fetcher.XLSXOptions{
			SheetName: importSheet,
			Source:    importSource,
		})
		if err != nil {
			return err
		}

		st, err := openStore(ctx, cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		inserted, err := st.InsertPostings(ctx, postings)
		if err != nil {
			return err
		}

		zap.L().Info("import complete",
			zap.String("file", args[0]),
			zap.Int("parsed", len(postings)),
			zap.Int("inserted", inserted),
			zap.Int("skipped", len(postings)-inserted),
		)
		return nil
	},
}

func init() {
	importCmd.Flags().StringVar(&importSource, "source", "", "source label stamped on imported postings")
	importCmd.Flags().StringVar(&importSheet, "sheet", "", "worksheet name (default first sheet)")
	rootCmd.AddCommand(importCmd)
}
