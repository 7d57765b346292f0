package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHistoryCmd(c *cli) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show archived run reports",
		Long:  "Lists recent run summaries, or prints one archived report as JSON when a run id is given.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				rep, ok, err := c.poster.ArchivedReport(args[0])
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no archived report for run %q", args[0])
				}
				raw, err := rep.JSON()
				if err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
				fmt.Fprintln(out, string(raw))
				return nil
			}

			reports, err := c.poster.History(limit)
			if err != nil {
				return err
			}
			if len(reports) == 0 {
				fmt.Fprintln(out, "no archived runs")
				return nil
			}
			for _, rep := range reports {
				fmt.Fprintf(out, "%s  %s  %s\n", rep.StartedAt.Format("2006-01-02 15:04"), rep.RunID, rep.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of runs to list")
	return cmd
}
