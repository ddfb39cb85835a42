// Package commands implements the bump-version command tree.
package commands

import (
	"io"
	"os"

	"jupyterchat/internal/config"
	"jupyterchat/internal/observability"
	"jupyterchat/internal/release"
	"jupyterchat/internal/version"

	"github.com/MakeNowJust/heredoc"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Env carries the process-level dependencies of the commands
type Env struct {
	Fs         afero.Fs
	Runner     release.CommandRunner
	Out        io.Writer
	Err        io.Writer
	LoadConfig func() (*config.Config, error)
}

// DefaultEnv uses the OS filesystem, real processes and the standard config loader
func DefaultEnv() Env {
	return Env{
		Fs:         afero.NewOsFs(),
		Runner:     &release.ExecRunner{Stdout: os.Stderr, Stderr: os.Stderr},
		Out:        os.Stdout,
		Err:        os.Stderr,
		LoadConfig: config.NewConfig,
	}
}

type rootOptions struct {
	repoRoot string
	verbose  bool
}

// NewRootCmd builds the bump-version command. Running it without a subcommand bumps the version.
func NewRootCmd(env Env) *cobra.Command {
	root := &rootOptions{}
	bump := &release.Options{}

	cmd := &cobra.Command{
		Use:   "bump-version",
		Short: "Apply the next +twd build tag to the local packages",
		Long: heredoc.Doc(`
			Apply the next +twd build tag to the local packages

			Reads the current version from the Python version files, adds +twd1
			(or increments an existing +twdN), rewrites every version file, runs the
			JS version bump and install commands, and updates package.json.

			The working tree must be clean unless --force or --skip-if-dirty is given.
		`),
		Example: heredoc.Doc(`
			bump-version --dry-run
			bump-version --skip-if-dirty
			bump-version current
			bump-version convert --to npm 0.19.90a1+twd1
		`),
		Version:       version.Info("bump-version").String(),
		Args:          cobra.NoArgs,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBump(cmd, env, root, *bump)
		},
	}

	cmd.SetOut(env.Out)
	cmd.SetErr(env.Err)

	cmd.PersistentFlags().StringVar(&root.repoRoot, "repo-root", "", "repository root (default: release.repo_root, then the enclosing git checkout)")
	cmd.PersistentFlags().BoolVarP(&root.verbose, "verbose", "v", false, "log progress to stderr")

	cmd.Flags().BoolVar(&bump.Force, "force", false, "bump even with uncommitted changes and answer yes to the JS version prompt")
	cmd.Flags().BoolVar(&bump.SkipIfDirty, "skip-if-dirty", false, "do nothing when the working tree is dirty")
	cmd.Flags().BoolVar(&bump.DryRun, "dry-run", false, "print the plan without writing files or running commands")
	cmd.Flags().BoolVar(&bump.KeepPatch, "keep-patch", false, "keep the patch number when adding the first build tag")

	cmd.AddCommand(currentCmd(env, root))
	cmd.AddCommand(convertCmd(env))

	return cmd
}

// newLogger logs to stderr, at debug level with --verbose and errors only otherwise
func newLogger(verbose bool) *observability.Logger {
	if verbose {
		return observability.NewConsoleLogger(zap.DebugLevel)
	}
	return observability.NewConsoleLogger(zap.ErrorLevel)
}

// resolve loads configuration and finds the repository the command operates on
func resolve(cmd *cobra.Command, env Env, root *rootOptions) (*config.Config, string, error) {
	cfg, err := env.LoadConfig()
	if err != nil {
		return nil, "", err
	}
	repoRoot, err := release.ResolveRepoRoot(cmd.Context(), env.Runner, root.repoRoot, cfg.Release.RepoRoot)
	if err != nil {
		return nil, "", err
	}
	return cfg, repoRoot, nil
}
