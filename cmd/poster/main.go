package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/khobor-poster/internal/logger"
)

func main() {
	if err := run(); err != nil {
		if !errors.Is(err, errRunFailed) {
			fmt.Fprintf(os.Stderr, "poster failed: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	return execute(os.Args[1:], logger.Close)
}

// execute runs the CLI and always calls flush before returning; cobra skips
// post-run hooks when a command fails.
func execute(args []string, flush func() error) error {
	defer func() { _ = flush() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}
