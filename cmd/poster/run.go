package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRunCmd(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Validate credentials and publish every post",
		Long: "Loads the rendered images, paginates them into posts, validates each platform's " +
			"credential and publishes the posts in order. Exits non-zero when any post failed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rep, err := c.poster.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				raw, err := rep.JSON()
				if err != nil {
					return fmt.Errorf("encode report: %w", err)
				}
				fmt.Fprintln(out, string(raw))
			} else {
				fmt.Fprintf(out, "run %s\n", rep.RunID)
				for _, line := range rep.Lines() {
					fmt.Fprintln(out, line)
				}
				for _, f := range rep.Failures {
					fmt.Fprintf(out, "  post %d on %s: %s %s\n", f.PostIndex, f.Platform, f.Kind, f.Message)
				}
			}

			if rep.HasFailures() {
				return errRunFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return cmd
}
