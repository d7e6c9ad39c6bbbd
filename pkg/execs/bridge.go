package execs

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"kubeapply/pkg/log"
)

// MsgSpawnUnavailable is returned in [Result.Stderr] when the bridge has no
// process-spawning capability.
const MsgSpawnUnavailable = "command execution is not available in this environment"

// Result represents the outcome of a command execution. It is always
// produced, even when the command could not be started at all; in that case
// Stderr describes what went wrong.
type Result struct {
	Stdout string
	Stderr string
}

// Bridge executes external commands on behalf of the rest of the system.
//
// Every call owns an independent process; the bridge imposes no queuing,
// throttling, or timeouts. Callers wanting at-most-one-in-flight or bounded
// waits must layer that above.
type Bridge struct {
	tracer  trace.Tracer
	spawner Spawner
}

// BridgeOpt configures a [Bridge].
type BridgeOpt func(*Bridge)

// WithSpawner sets the process-spawning capability. Passing nil produces a
// bridge whose executions resolve immediately with [MsgSpawnUnavailable].
func WithSpawner(s Spawner) BridgeOpt {
	return func(b *Bridge) {
		b.spawner = s
	}
}

// NewBridge creates a new [Bridge]. By default it spawns real processes via
// [OSSpawner].
func NewBridge(opts ...BridgeOpt) *Bridge {
	b := &Bridge{
		tracer:  otel.Tracer("execs"),
		spawner: OSSpawner{},
	}
	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Execute runs the given executable with the given arguments and resolves to
// a [Result]. It never returns an error and never panics: spawn failures,
// nonzero exits, and internal faults are all encoded into Result.Stderr.
func (b *Bridge) Execute(ctx context.Context, executable string, args ...string) Result {
	return b.ExecuteWithStdin(ctx, nil, executable, args...)
}

// ExecuteWithStdin is [Bridge.Execute] with data piped to the process's
// standard input.
func (b *Bridge) ExecuteWithStdin(ctx context.Context, stdin []byte, executable string, args ...string) (res Result) {
	ctx, span := b.tracer.Start(ctx, "execute", trace.WithAttributes(
		attribute.String("command", commandString(executable, args)),
	))
	defer span.End()

	// Hard contract: this function never panics. Faults in the orchestration
	// itself degrade to a Result like everything else.
	defer func() {
		if r := recover(); r != nil {
			res = Result{Stderr: fmt.Sprint(r)}
		}
	}()

	logger := log.WithContext(ctx).With(
		slog.String("command", commandString(executable, args)),
	)

	if b.spawner == nil {
		logger.DebugContext(ctx, "no spawner configured")

		return Result{Stderr: MsgSpawnUnavailable}
	}

	start := time.Now()

	var stdout, stderr streamBuffer

	h := b.spawner.Spawn(ctx, ProcessSpec{
		Executable: executable,
		Args:       args,
		Stdin:      stdin,
	}, &stdout, &stderr)

	t := awaitTerminal(h)
	if t.err != nil {
		logger.DebugContext(ctx, "command failed to run",
			slog.Duration("duration", time.Since(start)),
			slog.Any("error", t.err),
		)

		return Result{Stderr: errorText(t.err)}
	}

	res = Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if t.code != 0 && res.Stderr == "" {
		// The process failed silently; synthesize a diagnosable message.
		res.Stderr = fmt.Sprintf("Command exited with code %d", t.code)
	}

	logger.DebugContext(ctx, "command executed",
		slog.Duration("duration", time.Since(start)),
		slog.Int("code", t.code),
	)

	return res
}

// Run executes a configured [Command], applying its environment definition.
func (b *Bridge) Run(ctx context.Context, cmd Command) (res Result) {
	ctx, span := b.tracer.Start(ctx, "run", trace.WithAttributes(
		attribute.String("command", cmd.String()),
	))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			res = Result{Stderr: fmt.Sprint(r)}
		}
	}()

	if b.spawner == nil {
		return Result{Stderr: MsgSpawnUnavailable}
	}

	var stdout, stderr streamBuffer

	h := b.spawner.Spawn(ctx, ProcessSpec{
		Executable: cmd.Command,
		Args:       cmd.Args,
		Env:        cmd.Environment(),
	}, &stdout, &stderr)

	t := awaitTerminal(h)
	if t.err != nil {
		return Result{Stderr: errorText(t.err)}
	}

	res = Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}
	if t.code != 0 && res.Stderr == "" {
		res.Stderr = fmt.Sprintf("Command exited with code %d", t.code)
	}

	return res
}

// terminal is the first terminal event observed for a process: either an exit
// status or a runtime error.
type terminal struct {
	err  error
	code int
}

// awaitTerminal settles on whichever terminal event arrives first. A [Handle]
// delivers exactly one event, so a single select is a one-shot resolution of
// the race and leaves no receiver behind on the channel that never fires.
func awaitTerminal(h Handle) terminal {
	select {
	case code := <-h.Exited():
		return terminal{code: code}
	case err := <-h.Failed():
		return terminal{err: err}
	}
}

// streamBuffer accumulates stream output in emission order. Writes arrive
// from the spawner's goroutine, reads happen after resolution, so access is
// guarded.
type streamBuffer struct {
	buf bytes.Buffer
	mu  sync.Mutex
}

func (sb *streamBuffer) Write(p []byte) (int, error) {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.buf.Write(p) //nolint:wrapcheck // Return the original error.
}

func (sb *streamBuffer) String() string {
	sb.mu.Lock()
	defer sb.mu.Unlock()

	return sb.buf.String()
}

func errorText(err error) string {
	if msg := err.Error(); msg != "" {
		return msg
	}

	return fmt.Sprintf("%v", err)
}

func commandString(executable string, args []string) string {
	if len(args) == 0 {
		return executable
	}

	return executable + " " + strings.Join(args, " ")
}
