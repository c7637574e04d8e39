// runs.go declares 'restack runs', listing journaled invocations.
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/example/restack/internal/journal"
)

func newRunsCommand() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:           "runs",
		Short:         "Show recent restart runs recorded in the journal",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := journal.Open(".")
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			entries, err := store.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet.")
				return nil
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			defer tw.Flush()
			fmt.Fprintln(tw, "ID\tSTARTED\tPROJECT\tSTRATEGY\tMODE\tTARGETS\tOUTCOME\tELAPSED")
			for _, e := range entries {
				mode := "live"
				if e.DryRun {
					mode = "dry-run"
				}
				targets := strings.Join(e.Targets, ",")
				if len(targets) > 60 {
					targets = targets[:60] + "…"
				}
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					e.ID, e.StartedAt.Local().Format(time.DateTime), e.Project,
					e.Strategy, mode, targets, e.Outcome, e.Elapsed.Round(time.Millisecond))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "How many recent runs to show")
	return cmd
}
