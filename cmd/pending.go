package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var pendingSource string

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Show how many postings await enrichment",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(cmd.Context(), cfg.Store)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		n, err := st.CountPending(cmd.Context(), pendingSource)
		if err != nil {
			return err
		}
		fmt.Printf("%d postings pending enrichment\n", n)
		return nil
	},
}

func init() {
	pendingCmd.Flags().StringVar(&pendingSource, "source", "", "count only postings from this job board")
	rootCmd.AddCommand(pendingCmd)
}
