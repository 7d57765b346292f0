package main

import (
	"errors"
	"fmt"

	"github.com/Adda-Baaj/khobor-poster/internal/app"
	"github.com/Adda-Baaj/khobor-poster/internal/config"
	"github.com/Adda-Baaj/khobor-poster/internal/logger"
	"github.com/spf13/cobra"
)

// errRunFailed signals a non-zero exit after the command already reported
// what went wrong.
var errRunFailed = errors.New("one or more operations failed")

// cli carries state shared by subcommands once the root pre-run has loaded
// configuration.
type cli struct {
	cfg    *config.Config
	log    logger.Logger
	poster *app.Poster

	itemsFile string
	imagesDir string
	parallel  bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "poster",
		Short:         "Publish rendered news images to Facebook and Instagram",
		Long:          "Groups rendered news images into posts and publishes them as albums and carousels.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.itemsFile, "items-file", "", "Manifest of summarized items (overrides ITEMS_FILE)")
	root.PersistentFlags().StringVar(&c.imagesDir, "images-dir", "", "Directory of rendered PNG images (overrides IMAGES_DIR)")
	root.PersistentFlags().BoolVar(&c.parallel, "parallel", false, "Publish to platforms concurrently (overrides PARALLEL_PLATFORMS)")

	root.AddCommand(newRunCmd(c), newValidateCmd(c), newPlanCmd(c), newHistoryCmd(c))
	return root
}

func (c *cli) setup(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	flags := cmd.Flags()
	if flags.Changed("items-file") {
		cfg.ItemsFile = c.itemsFile
	}
	if flags.Changed("images-dir") {
		cfg.ImagesDir = c.imagesDir
	}
	if flags.Changed("parallel") {
		cfg.ParallelPlatforms = c.parallel
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	poster, err := app.NewPoster(cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize poster", "error", err)
		return err
	}

	c.cfg = cfg
	c.log = log
	c.poster = poster
	log.InfoObj("poster starting", "config", cfg)
	return nil
}
