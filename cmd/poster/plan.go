package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
	"github.com/spf13/cobra"
)

func newPlanCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "plan",
		Short: "Show how images would be grouped into posts",
		Long:  "Loads and paginates the rendered images and checks every artifact without calling any platform.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			posts, err := c.poster.Plan(cmd.Context())
			if err != nil {
				return err
			}
			printPlan(cmd.OutOrStdout(), posts)
			return nil
		},
	}
}

func printPlan(w io.Writer, posts []domain.Post) {
	if len(posts) == 0 {
		fmt.Fprintln(w, "nothing to publish")
		return
	}
	for _, p := range posts {
		kind := "single image"
		if p.Size() > 1 {
			kind = fmt.Sprintf("%d images", p.Size())
		}
		fmt.Fprintf(w, "post %d: %s [%s]\n", p.Index, kind, strings.Join(p.ItemIDs, ", "))
		for _, img := range p.Images {
			fmt.Fprintf(w, "  %s\n", filepath.Base(img.Path))
		}
	}
}
