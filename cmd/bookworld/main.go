// Command bookworld browses the catalog and manages the signed-in reader's list from a
// terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(buildEnv).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "bookworld:", err)
		os.Exit(1)
	}
}
