package release

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"

	contextutils "jupyterchat/internal/utils"
)

// CommandRunner runs external programs in dir and returns their standard output.
// Run is for commands whose progress the user should see; Output is for queries
// whose output is only parsed and never shown.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (string, error)
	Output(ctx context.Context, dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec. When Stdout or Stderr is set, the output
// of Run is streamed there as well as captured. Output never streams.
type ExecRunner struct {
	Stdout io.Writer
	Stderr io.Writer
}

// Run implements CommandRunner
func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, error) {
	return r.exec(ctx, r.Stdout, r.Stderr, dir, name, args...)
}

// Output implements CommandRunner
func (r *ExecRunner) Output(ctx context.Context, dir, name string, args ...string) (string, error) {
	return r.exec(ctx, nil, nil, dir, name, args...)
}

func (r *ExecRunner) exec(ctx context.Context, streamOut, streamErr io.Writer, dir, name string, args ...string) (string, error) {
	var stdout, stderr bytes.Buffer

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if streamOut != nil {
		cmd.Stdout = io.MultiWriter(&stdout, streamOut)
	}
	if streamErr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, streamErr)
	}

	if err := cmd.Run(); err != nil {
		return stdout.String(), contextutils.WrapErrorf(contextutils.ErrCommandFailed, "%s: %w: %s",
			strings.Join(append([]string{name}, args...), " "), err, strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}

// splitCommand turns a configured command line into program and arguments
func splitCommand(command string) (string, []string, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return "", nil, contextutils.WrapError(contextutils.ErrMissingRequired, "empty command line")
	}
	return fields[0], fields[1:], nil
}
