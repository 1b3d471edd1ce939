package git

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Runner executes git subcommands.
type Runner interface {
	// Run executes git with args in dir (the process working directory when
	// empty) and returns its standard output.
	Run(ctx context.Context, dir string, args ...string) ([]byte, error)
}

// Ensure ExecRunner implements Runner at compile time.
var _ Runner = (*ExecRunner)(nil)

// ExecRunner runs the git executable found on PATH.
type ExecRunner struct {
	// Path to the git executable. Defaults to "git".
	Path string
}

func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) ([]byte, error) {
	bin := r.Path
	if bin == "" {
		bin = "git"
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Never block on credential prompts.
	cmd.Env = append(cmd.Environ(), "GIT_TERMINAL_PROMPT=0")

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("git %s: %w", args[0], err)
		}
		return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
	}
	return stdout.Bytes(), nil
}
