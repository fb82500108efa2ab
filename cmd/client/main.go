// Package main is the wardrobe command-line client: it manages clothes,
// wear history, events and the profile in a local store, and reaches the AI
// features through the gateway proxy.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
)

var (
	version   string
	buildDate string
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := &app{getenv: os.Getenv}
	root := newRootCmd(a)
	root.SetIn(os.Stdin)
	if err := execute(ctx, a, root); err != nil {
		stop()
		os.Exit(1)
	}
}

// execute runs root and then closes the app. Cobra skips PersistentPostRunE
// when a command fails, so the store would otherwise stay open.
func execute(ctx context.Context, a *app, root *cobra.Command) error {
	err := root.ExecuteContext(ctx)
	return multierr.Append(err, a.close())
}
