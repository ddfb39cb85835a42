// Package main provides the admin CLI for the chat config server.
package main

import (
	"context"
	"fmt"
	"os"

	"jupyterchat/cmd/adm/commands"
	"jupyterchat/internal/config"
	"jupyterchat/internal/observability"
	"jupyterchat/internal/version"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/cobra"
)

func main() {
	ctx := context.Background()

	cfg, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Disable all OpenTelemetry features for admin CLI to avoid connection errors
	cfg.OpenTelemetry.EnableTracing = false
	cfg.OpenTelemetry.EnableMetrics = false
	cfg.OpenTelemetry.EnableLogging = false

	tp, mp, logger, err := observability.SetupObservability(&cfg.OpenTelemetry, "jupyterchat-adm", "error")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize observability: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := observability.Shutdown(ctx, tp, mp); err != nil {
			logger.Warn(ctx, "Error shutting down telemetry providers", map[string]interface{}{"error": err.Error()})
		}
	}()

	rootCmd := &cobra.Command{
		Use:   "adm",
		Short: "Chat config server administration tool",
		Long: heredoc.Doc(`
			Chat config server administration tool

			Generates credentials for the server and inspects the configuration it
			would run with.
		`),
		Version:      version.Info("adm").String(),
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, _ []string) {
			if err := cmd.Help(); err != nil {
				fmt.Printf("Error showing help: %v\n", err)
			}
		},
	}

	rootCmd.AddCommand(commands.PasswordCommand(commands.TerminalPrompter{}, logger))
	rootCmd.AddCommand(commands.ConfigCommands(cfg, logger))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
