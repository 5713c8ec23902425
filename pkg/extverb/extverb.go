// Package extverb dispatches unrecognized CLI verbs to external dura-<verb>
// binaries on PATH, the way git passes "git foo" through to "git-foo" (§6).
package extverb

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// ErrNotFound means no dura-<verb> binary exists on PATH.
var ErrNotFound = errors.New("external verb not found on PATH")

// Runner executes a resolved external verb binary. The default
// implementation inherits stdin/stdout/stderr so a passthrough verb behaves
// like any other command invoked directly; tests substitute a fake.
type Runner interface {
	Run(ctx context.Context, path string, args []string) (exitCode int, err error)
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, path string, args []string) (int, error) {
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}
	return -1, fmt.Errorf("run external verb %s: %w", path, err)
}

// Dispatcher locates and runs dura-<verb> binaries from PATH.
type Dispatcher struct {
	lookPath func(string) (string, error)
	runner   Runner
}

// NewDispatcher returns a Dispatcher using the real PATH and os/exec.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{lookPath: exec.LookPath, runner: execRunner{}}
}

// Dispatch looks up "dura-<verb>" on PATH and, if found, runs it with args,
// returning its exit code. Returns ErrNotFound if no such binary exists, so
// the caller can fall back to printing its own usage.
func (d *Dispatcher) Dispatch(ctx context.Context, verb string, args []string) (int, error) {
	path, err := d.lookPath("dura-" + verb)
	if err != nil {
		return 0, ErrNotFound
	}
	return d.runner.Run(ctx, path, args)
}
