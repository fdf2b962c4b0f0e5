// Command fishtrack is the command line client of the FishTrack API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"

	"github.com/iliyamo/fishtrack/internal/cli"
	"github.com/iliyamo/fishtrack/internal/logging"
)

func main() {
	// The CLI logs warnings only; FISHTRACK_LOG=debug shows more.
	level := os.Getenv("FISHTRACK_LOG")
	if level == "" {
		level = "warn"
	}
	log, err := logging.New("dev", level)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	root := cli.NewRootCommand(cli.NewApp(log))
	if err := root.ExecuteContext(ctx); err != nil {
		if !errors.Is(err, cli.ErrShown) {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}
