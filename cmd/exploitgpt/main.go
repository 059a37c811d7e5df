package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MaineK00n/exploitgpt/pkg/cmd/root"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.NewCmdRoot().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "failed to exec exploitgpt: %s\n", fmt.Sprintf("%+v", err))
		os.Exit(1)
	}
}
