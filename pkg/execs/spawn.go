package execs

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os/exec"
)

// ProcessSpec describes one external process invocation.
type ProcessSpec struct {
	// Executable is the program to run, resolved via PATH if not absolute.
	Executable string
	// Args contains the command line arguments, in order.
	Args []string
	// Env contains the process environment as KEY=VALUE pairs.
	// A nil Env inherits the caller's environment.
	Env []string
	// Stdin is piped to the process's standard input.
	Stdin []byte
}

// Handle exposes the two terminal events of a spawned process. Exactly one of
// the channels delivers a value; the bridge settles on whichever arrives
// first.
type Handle interface {
	// Exited delivers the process exit status once the process terminates.
	Exited() <-chan int
	// Failed delivers a spawn or runtime failure, e.g. executable not found.
	Failed() <-chan error
}

// Spawner is the process-spawning capability injected into a [Bridge].
// Output produced by the process must be written to stdout and stderr in
// emission order per stream.
type Spawner interface {
	Spawn(ctx context.Context, spec ProcessSpec, stdout, stderr io.Writer) Handle
}

// OSSpawner spawns real processes via [os/exec].
type OSSpawner struct{}

func (OSSpawner) Spawn(ctx context.Context, spec ProcessSpec, stdout, stderr io.Writer) Handle {
	h := &osHandle{
		exited: make(chan int, 1),
		failed: make(chan error, 1),
	}

	//nolint:gosec // G204: Subprocess launched with a potential tainted input or cmd arguments.
	cmd := exec.CommandContext(ctx, spec.Executable, spec.Args...)
	cmd.Env = spec.Env
	cmd.Stdin = bytes.NewReader(spec.Stdin)
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	go func() {
		err := cmd.Run()

		var exitErr *exec.ExitError

		switch {
		case err == nil:
			h.exited <- 0
		case errors.As(err, &exitErr):
			h.exited <- exitErr.ExitCode()
		default:
			h.failed <- err
		}
	}()

	return h
}

type osHandle struct {
	exited chan int
	failed chan error
}

func (h *osHandle) Exited() <-chan int   { return h.exited }
func (h *osHandle) Failed() <-chan error { return h.failed }
