// Package main provides the bump-version CLI, which applies the +twdN local
// version scheme to the Python and JS packages of a jupyter-chat checkout.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"jupyterchat/cmd/bump-version/commands"

	"github.com/fatih/color"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := commands.NewRootCmd(commands.DefaultEnv()).ExecuteContext(ctx); err != nil {
		color.Red("\nError: %s\n", err)
		stop()
		os.Exit(1)
	}
}
