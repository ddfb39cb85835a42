package release

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"jupyterchat/internal/config"
	"jupyterchat/internal/localversion"
	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"github.com/spf13/afero"
	"go.opentelemetry.io/otel/attribute"
)

// Options control a single bump run
type Options struct {
	// Force skips the clean tree check and answers yes to the JS version prompt
	Force bool
	// SkipIfDirty turns a dirty tree into a silent no-op instead of an error
	SkipIfDirty bool
	// DryRun stops after planning
	DryRun bool
	// KeepPatch leaves the patch component alone when adding the first build tag
	KeepPatch bool
}

// Plan is everything a bump will do, computed before any write
type Plan struct {
	RepoRoot     string
	Current      localversion.Version
	Next         localversion.Version
	VersionFiles []VersionFile
	ManifestPath string
	BumpCommand  []string
	InstallCmd   []string
}

// Result reports the outcome of Bump
type Result struct {
	Plan *Plan
	// Skipped is set when the tree was dirty and SkipIfDirty was requested
	Skipped bool
	// Applied is false for dry runs and skipped runs
	Applied bool
}

// Bumper runs the version bump workflow against a repository
type Bumper struct {
	fs     afero.Fs
	runner CommandRunner
	cfg    config.ReleaseConfig
	logger *observability.Logger
}

// NewBumper creates a Bumper. A nil logger discards log output.
func NewBumper(fs afero.Fs, runner CommandRunner, cfg config.ReleaseConfig, logger *observability.Logger) *Bumper {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &Bumper{fs: fs, runner: runner, cfg: cfg, logger: logger}
}

// ResolveRepoRoot picks the repository root: the explicit flag value, then the
// configured release.repo_root, then the top level of the enclosing git checkout
func ResolveRepoRoot(ctx context.Context, runner CommandRunner, flagValue, configured string) (string, error) {
	for _, candidate := range []string{flagValue, configured} {
		if candidate != "" {
			return filepath.Abs(candidate)
		}
	}

	out, err := runner.Output(ctx, "", "git", "rev-parse", "--show-toplevel")
	if err != nil {
		return "", contextutils.WrapError(err, "could not determine repository root; pass --repo-root")
	}
	root := strings.TrimSpace(out)
	if root == "" {
		return "", contextutils.WrapError(contextutils.ErrMissingRequired, "git reported an empty repository root")
	}
	return root, nil
}

// IsDirty runs the status command and reports whether it printed anything
func (b *Bumper) IsDirty(ctx context.Context, repoRoot string) (result bool, err error) {
	ctx, span := observability.TraceReleaseFunction(ctx, "is_dirty", attribute.String("release.repo_root", repoRoot))
	defer observability.FinishSpan(span, &err)

	name, args, err := splitCommand(b.cfg.StatusCommand)
	if err != nil {
		return false, err
	}
	out, err := b.runner.Output(ctx, repoRoot, name, args...)
	if err != nil {
		return false, err
	}
	dirty := strings.TrimSpace(out) != ""
	span.SetAttributes(attribute.Bool("release.dirty", dirty))
	return dirty, nil
}

// CurrentVersion reads the version the repository is at: the value shared by all
// version files, or the manifest version when there are none
func (b *Bumper) CurrentVersion(ctx context.Context, repoRoot string) (localversion.Version, error) {
	current, _, err := b.readCurrent(ctx, repoRoot)
	return current, err
}

func (b *Bumper) readCurrent(ctx context.Context, repoRoot string) (result0 localversion.Version, result1 []VersionFile, err error) {
	ctx, span := observability.TraceReleaseFunction(ctx, "read_current", attribute.String("release.repo_root", repoRoot))
	defer observability.FinishSpan(span, &err)

	paths, err := MatchFiles(b.fs, repoRoot, b.cfg.VersionFileGlob)
	if err != nil {
		return localversion.Version{}, nil, err
	}

	files := make([]VersionFile, 0, len(paths))
	var current *localversion.Version
	for _, p := range paths {
		vf, err := ReadVersionFile(b.fs, p, b.cfg.VersionVariable)
		if err != nil {
			return localversion.Version{}, nil, err
		}
		v, err := localversion.ParsePython(vf.Value)
		if err != nil {
			return localversion.Version{}, nil, contextutils.WrapErrorf(err, "version file %s: %w", p, err)
		}
		if current != nil && *current != v {
			return localversion.Version{}, nil, contextutils.WrapErrorf(contextutils.ErrValidationFailed,
				"version files disagree: %s has %s, expected %s", p, v.Python(), current.Python())
		}
		current = &v
		files = append(files, vf)
	}

	if current != nil {
		b.logger.Debug(ctx, "Read current version from version files", map[string]interface{}{
			"version": current.Python(),
			"files":   len(files),
		})
		return *current, files, nil
	}

	data, err := b.readManifest(repoRoot)
	if err != nil {
		return localversion.Version{}, nil, err
	}
	raw, err := ManifestVersion(data)
	if err != nil {
		return localversion.Version{}, nil, err
	}
	v, err := localversion.ParseNPM(raw)
	if err != nil {
		return localversion.Version{}, nil, err
	}
	b.logger.Debug(ctx, "No version files found, using manifest version", map[string]interface{}{"version": raw})
	return v, files, nil
}

func (b *Bumper) manifestPath(repoRoot string) string {
	return filepath.Join(repoRoot, b.cfg.Manifest)
}

func (b *Bumper) readManifest(repoRoot string) ([]byte, error) {
	path := b.manifestPath(repoRoot)
	exists, err := afero.Exists(b.fs, path)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to stat %s: %w", path, err)
	}
	if !exists {
		return nil, contextutils.WrapErrorf(contextutils.ErrFileNotFound, "could not find %s under dir %s", b.cfg.Manifest, repoRoot)
	}
	data, err := afero.ReadFile(b.fs, path)
	if err != nil {
		return nil, contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to read %s: %w", path, err)
	}
	return data, nil
}

// Plan reads and validates everything the bump needs without writing anything
func (b *Bumper) Plan(ctx context.Context, repoRoot string, opts Options) (result0 *Plan, err error) {
	ctx, span := observability.TraceReleaseFunction(ctx, "plan", attribute.String("release.repo_root", repoRoot))
	defer observability.FinishSpan(span, &err)

	current, files, err := b.readCurrent(ctx, repoRoot)
	if err != nil {
		return nil, err
	}

	// The manifest is rewritten last, so make sure it is there and valid up front.
	data, err := b.readManifest(repoRoot)
	if err != nil {
		return nil, err
	}
	if _, err := SetManifestVersion(data, current.NPM()); err != nil {
		return nil, err
	}

	next, err := current.Bump(localversion.BumpOptions{KeepPatch: opts.KeepPatch || b.cfg.KeepPatch})
	if err != nil {
		return nil, err
	}
	if !localversion.IsValidSemver(next.NPM()) {
		return nil, contextutils.WrapErrorf(contextutils.ErrInvalidFormat, "next version %q is not valid semver", next.NPM())
	}
	if localversion.Compare(next, current) < 0 {
		// Normalizing the patch to 90 goes backwards when upstream is already past it
		b.logger.Warn(ctx, "Next version sorts below the current version", map[string]interface{}{
			"current": current.Python(),
			"next":    next.Python(),
		})
	}

	bumpName, bumpArgs, err := splitCommand(b.cfg.BumpCommand)
	if err != nil {
		return nil, err
	}
	bumpCommand := append(append([]string{bumpName}, bumpArgs...), next.NPM())
	if opts.Force {
		bumpCommand = append(bumpCommand, "--yes")
	}

	installName, installArgs, err := splitCommand(b.cfg.InstallCommand)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(
		observability.AttributeVersion("current", current.Python()),
		observability.AttributeVersion("next", next.Python()),
	)

	return &Plan{
		RepoRoot:     repoRoot,
		Current:      current,
		Next:         next,
		VersionFiles: files,
		ManifestPath: b.manifestPath(repoRoot),
		BumpCommand:  bumpCommand,
		InstallCmd:   append([]string{installName}, installArgs...),
	}, nil
}

// Bump runs the whole workflow
func (b *Bumper) Bump(ctx context.Context, repoRoot string, opts Options) (result0 *Result, err error) {
	ctx, span := observability.TraceReleaseFunction(ctx, "bump",
		attribute.String("release.repo_root", repoRoot),
		attribute.Bool("release.force", opts.Force),
		attribute.Bool("release.dry_run", opts.DryRun),
	)
	defer observability.FinishSpan(span, &err)

	if !opts.Force {
		dirty, err := b.IsDirty(ctx, repoRoot)
		if err != nil {
			return nil, err
		}
		if dirty {
			if opts.SkipIfDirty {
				b.logger.Info(ctx, "Working tree is dirty, skipping version bump", map[string]interface{}{"repo_root": repoRoot})
				return &Result{Skipped: true}, nil
			}
			return nil, contextutils.WrapErrorf(contextutils.ErrDirtyWorkTree, "%s has uncommitted or untracked changes", repoRoot)
		}
	}

	plan, err := b.Plan(ctx, repoRoot, opts)
	if err != nil {
		return nil, err
	}

	b.logger.Info(ctx, "Planned version bump", map[string]interface{}{
		"current":       plan.Current.Python(),
		"next_python":   plan.Next.Python(),
		"next_npm":      plan.Next.NPM(),
		"version_files": len(plan.VersionFiles),
		"dry_run":       opts.DryRun,
	})

	if opts.DryRun {
		return &Result{Plan: plan}, nil
	}

	if err := b.apply(ctx, plan); err != nil {
		return nil, err
	}
	return &Result{Plan: plan, Applied: true}, nil
}

func (b *Bumper) apply(ctx context.Context, plan *Plan) (err error) {
	ctx, span := observability.TraceReleaseFunction(ctx, "apply", observability.AttributeVersion("next", plan.Next.Python()))
	defer observability.FinishSpan(span, &err)

	for _, vf := range plan.VersionFiles {
		if err := b.writeFile(vf.Path, vf.Render(plan.Next.Python())); err != nil {
			return err
		}
		b.logger.Debug(ctx, "Updated version file", map[string]interface{}{"path": vf.Path})
	}

	for _, command := range [][]string{plan.BumpCommand, plan.InstallCmd} {
		b.logger.Info(ctx, "Running command", map[string]interface{}{"command": strings.Join(command, " ")})
		if _, err := b.runner.Run(ctx, plan.RepoRoot, command[0], command[1:]...); err != nil {
			return err
		}
	}

	// Re-read the manifest since the JS tooling may have touched it.
	data, err := b.readManifest(plan.RepoRoot)
	if err != nil {
		return err
	}
	updated, err := SetManifestVersion(data, plan.Next.NPM())
	if err != nil {
		return err
	}
	if err := b.writeFile(plan.ManifestPath, updated); err != nil {
		return err
	}

	b.logger.Info(ctx, "Version bumped", map[string]interface{}{
		"python": plan.Next.Python(),
		"npm":    plan.Next.NPM(),
	})
	return nil
}

func (b *Bumper) writeFile(path string, data []byte) error {
	perm := os.FileMode(0o644)
	if info, err := b.fs.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := afero.WriteFile(b.fs, path, data, perm); err != nil {
		return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to write %s: %w", path, err)
	}
	return nil
}
