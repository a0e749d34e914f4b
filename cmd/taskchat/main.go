package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	wiring := defaultCommandWiring(os.Stdout, os.Stderr)
	err := buildRootCommand(wiring).ExecuteContext(ctx)
	stop()
	exitOnErr("taskchat", err, wiring.stderr)
}
