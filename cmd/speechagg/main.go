package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/kailas-cloud/speechagg/internal/cli"
)

func main() {
	// Graceful shutdown: stop scheduling keys, let in-flight ones finish.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		if errors.Is(err, cli.ErrRunIncomplete) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
