package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/foxhole/internal/shared"
	"github.com/desertthunder/foxhole/internal/ui"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})
	defer runner.close()

	app := &cli.Command{
		Name:     "foxhole",
		Usage:    "Keep per-channel reaction playlists up to date on YouTube",
		Version:  "0.1.0",
		Flags:    globalFlags(),
		Before:   runner.before,
		Commands: runner.register(),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, os.Args); err != nil {
		runner.close()
		if errors.Is(err, context.Canceled) {
			logger.Warn("interrupted")
			os.Exit(130)
		}
		if msg, ok := ui.QuotaMessage(err); ok {
			fmt.Fprint(os.Stderr, msg)
			logger.Fatal("quota exhausted", "err", err)
		}
		logger.Fatalf("application error: %v", err)
	}
}
