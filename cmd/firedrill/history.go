package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/firedrill-labs/firedrill/internal/output"
	"github.com/firedrill-labs/firedrill/internal/storage"
)

func newHistoryCommand() *cobra.Command {
	var (
		path  string
		limit int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and inspect past performance runs",
	}
	cmd.PersistentFlags().StringVar(&path, "history", "firedrill-history.db", "path to the run history database")

	list := &cobra.Command{
		Use:   "list",
		Short: "List stored runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			outcomes, err := store.List(limit)
			if err != nil {
				return err
			}
			if len(outcomes) == 0 {
				fmt.Println("no stored runs")
				return nil
			}
			for _, o := range outcomes {
				fmt.Printf("%s  %-7s %-24s requests=%d success=%.1f%% duration=%.1fs\n",
					o.ID, o.Status, o.Name, o.Summary.TotalRequests, o.Summary.SuccessRate, o.DurationSecs)
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 20, "maximum runs to list (0 for all)")

	show := &cobra.Command{
		Use:   "show <run-id>",
		Short: "Show the full report of one stored run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := storage.Open(path)
			if err != nil {
				return err
			}
			defer store.Close()

			outcome, err := store.Get(args[0])
			if err != nil {
				return err
			}
			output.PrintReport(os.Stdout, outcome, nil)
			return nil
		},
	}

	cmd.AddCommand(list, show)
	return cmd
}
