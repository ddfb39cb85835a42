package commands

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"jupyterchat/internal/release"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgHiYellow, color.Bold)
)

func runBump(cmd *cobra.Command, env Env, root *rootOptions, opts release.Options) error {
	cfg, repoRoot, err := resolve(cmd, env, root)
	if err != nil {
		return err
	}

	logger := newLogger(root.verbose)
	defer func() { _ = logger.Sync() }()

	bumper := release.NewBumper(env.Fs, env.Runner, cfg.Release, logger)
	result, err := bumper.Bump(cmd.Context(), repoRoot, opts)
	if err != nil {
		return err
	}
	if result.Skipped {
		return nil
	}

	printPlan(env.Out, result)
	return nil
}

// printPlan describes what the bump did, or would do for a dry run
func printPlan(w io.Writer, result *release.Result) {
	plan := result.Plan

	if !result.Applied {
		_, _ = yellow.Fprintln(w, "Dry run, nothing was changed")
	}
	_, _ = fmt.Fprintf(w, "%s %s -> %s (npm %s)\n",
		bold.Sprint("Version"), plan.Current.Python(), green.Sprint(plan.Next.Python()), plan.Next.NPM())

	for _, vf := range plan.VersionFiles {
		_, _ = fmt.Fprintf(w, "  write %s\n", relativeTo(plan.RepoRoot, vf.Path))
	}
	_, _ = fmt.Fprintf(w, "  run   %s\n", strings.Join(plan.BumpCommand, " "))
	_, _ = fmt.Fprintf(w, "  run   %s\n", strings.Join(plan.InstallCmd, " "))
	_, _ = fmt.Fprintf(w, "  write %s\n", relativeTo(plan.RepoRoot, plan.ManifestPath))
}

func relativeTo(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	return rel
}
