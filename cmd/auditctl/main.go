// Command auditctl inspects a JSONL audit log without running the server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
)

var version = "v0.0.1-default"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newApp().Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "auditctl: %v\n", err)
		os.Exit(1)
	}
}
