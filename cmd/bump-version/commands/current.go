package commands

import (
	"fmt"

	"jupyterchat/internal/release"

	"github.com/spf13/cobra"
)

func currentCmd(env Env, root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "current",
		Short: "Print the current version in both spellings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, repoRoot, err := resolve(cmd, env, root)
			if err != nil {
				return err
			}

			bumper := release.NewBumper(env.Fs, env.Runner, cfg.Release, newLogger(root.verbose))
			current, err := bumper.CurrentVersion(cmd.Context(), repoRoot)
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintf(env.Out, "python: %s\nnpm:    %s\n", current.Python(), current.NPM())
			return nil
		},
	}
}
