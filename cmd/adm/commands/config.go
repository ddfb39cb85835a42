package commands

import (
	"fmt"

	"jupyterchat/internal/config"
	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// ConfigCommands returns the config inspection commands
func ConfigCommands(cfg *config.Config, logger *observability.Logger) *cobra.Command {
	configCmd := &cobra.Command{
		Use:          "config",
		Short:        "Inspect the effective configuration",
		SilenceUsage: true,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the configuration after env overrides, with secrets masked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, err := yaml.Marshal(maskedConfig(cfg))
			if err != nil {
				return contextutils.WrapError(err, "failed to render configuration")
			}
			_, _ = cmd.OutOrStdout().Write(out)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "validate",
		Short: "Check that the server can start with this configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := cfg.ValidateServer(); err != nil {
				logger.Error(cmd.Context(), "Configuration is invalid", err)
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "configuration OK")
			return nil
		},
	})

	return configCmd
}

// maskedConfig copies cfg with credentials and the feedback flow URL masked
func maskedConfig(cfg *config.Config) config.Config {
	masked := *cfg
	masked.Server.SessionSecret = contextutils.MaskSecret(cfg.Server.SessionSecret)
	masked.Server.Token = contextutils.MaskSecret(cfg.Server.Token)
	masked.Server.PasswordHash = contextutils.MaskSecret(cfg.Server.PasswordHash)
	masked.Chat.PowerAutomateFlows.FeedbackLogging.URL = contextutils.MaskSecret(cfg.FeedbackURL())

	if len(cfg.OpenTelemetry.Headers) > 0 {
		masked.OpenTelemetry.Headers = make(map[string]string, len(cfg.OpenTelemetry.Headers))
		for k, v := range cfg.OpenTelemetry.Headers {
			masked.OpenTelemetry.Headers[k] = contextutils.MaskSecret(v)
		}
	}
	return masked
}
