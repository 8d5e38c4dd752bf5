package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"duologue/internal/dialogue"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, dialogue.StatusLine(nil, err))
		os.Exit(1)
	}
}
