package execs_test

import (
	"context"
	"errors"
	"io"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubeapply/pkg/execs"
)

// fakeSpawner is a deterministic Spawner for driving the bridge's terminal
// event handling.
type fakeSpawner struct {
	spawnErr  error
	stdout    string
	stderr    string
	exitCode  int
	fireExit  bool
	fireError bool
	panics    bool
}

type fakeHandle struct {
	exited chan int
	failed chan error
}

func (h fakeHandle) Exited() <-chan int   { return h.exited }
func (h fakeHandle) Failed() <-chan error { return h.failed }

func (f *fakeSpawner) Spawn(_ context.Context, _ execs.ProcessSpec, stdout, stderr io.Writer) execs.Handle {
	if f.panics {
		panic("spawner exploded")
	}

	if f.stdout != "" {
		_, _ = io.WriteString(stdout, f.stdout)
	}
	if f.stderr != "" {
		_, _ = io.WriteString(stderr, f.stderr)
	}

	h := fakeHandle{
		exited: make(chan int, 1),
		failed: make(chan error, 1),
	}
	if f.fireExit {
		h.exited <- f.exitCode
	}
	if f.fireError {
		h.failed <- f.spawnErr
	}

	return h
}

func TestBridge_Execute(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		spawner  *fakeSpawner
		expected execs.Result
	}{
		"clean exit passes streams through": {
			spawner: &fakeSpawner{
				stdout:   "hello\n",
				stderr:   "",
				fireExit: true,
			},
			expected: execs.Result{Stdout: "hello\n"},
		},
		"clean exit preserves stderr emissions": {
			spawner: &fakeSpawner{
				stdout:   "out",
				stderr:   "warning: something\n",
				fireExit: true,
			},
			expected: execs.Result{Stdout: "out", Stderr: "warning: something\n"},
		},
		"nonzero exit with silent stderr synthesizes message": {
			spawner: &fakeSpawner{
				stdout:   "partial",
				exitCode: 2,
				fireExit: true,
			},
			expected: execs.Result{Stdout: "partial", Stderr: "Command exited with code 2"},
		},
		"nonzero exit keeps process stderr": {
			spawner: &fakeSpawner{
				stderr:   "fatal: bad flag\n",
				exitCode: 1,
				fireExit: true,
			},
			expected: execs.Result{Stderr: "fatal: bad flag\n"},
		},
		"runtime error discards stdout": {
			spawner: &fakeSpawner{
				stdout:    "ignored",
				spawnErr:  errors.New("executable file not found in $PATH"),
				fireError: true,
			},
			expected: execs.Result{Stderr: "executable file not found in $PATH"},
		},
		"spawner panic degrades to result": {
			spawner:  &fakeSpawner{panics: true},
			expected: execs.Result{Stderr: "spawner exploded"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			b := execs.NewBridge(execs.WithSpawner(tc.spawner))
			res := b.Execute(t.Context(), "some-command", "arg")
			assert.Equal(t, tc.expected, res)
		})
	}
}

func TestBridge_ExecuteWithoutSpawner(t *testing.T) {
	t.Parallel()

	b := execs.NewBridge(execs.WithSpawner(nil))
	res := b.Execute(t.Context(), "kubectl", "version")
	assert.Empty(t, res.Stdout)
	assert.Equal(t, execs.MsgSpawnUnavailable, res.Stderr)
}

func TestBridge_ExecuteResolvesOnce(t *testing.T) {
	t.Parallel()

	// Fire both terminal events; the bridge must settle on exactly one
	// without blocking or panicking.
	spawner := &fakeSpawner{
		exitCode:  0,
		fireExit:  true,
		spawnErr:  errors.New("late failure"),
		fireError: true,
	}

	b := execs.NewBridge(execs.WithSpawner(spawner))

	done := make(chan execs.Result, 1)
	go func() {
		done <- b.Execute(t.Context(), "racy")
	}()

	select {
	case res := <-done:
		// Either terminal event is acceptable; there must be exactly one.
		if res.Stderr != "" {
			assert.Equal(t, "late failure", res.Stderr)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("execute did not resolve")
	}
}

func TestBridge_ExecuteRealProcesses(t *testing.T) {
	t.Parallel()

	b := execs.NewBridge()

	t.Run("exit zero", func(t *testing.T) {
		t.Parallel()

		res := b.Execute(t.Context(), "sh", "-c", "printf out; printf err >&2")
		assert.Equal(t, "out", res.Stdout)
		assert.Equal(t, "err", res.Stderr)
	})

	t.Run("nonzero exit without stderr", func(t *testing.T) {
		t.Parallel()

		res := b.Execute(t.Context(), "sh", "-c", "exit 3")
		assert.Empty(t, res.Stdout)
		assert.Equal(t, "Command exited with code 3", res.Stderr)
	})

	t.Run("nonexistent executable", func(t *testing.T) {
		t.Parallel()

		res := b.Execute(t.Context(), "definitely-not-a-real-binary-kubeapply")
		assert.Empty(t, res.Stdout)
		assert.NotEmpty(t, res.Stderr)
	})

	t.Run("stdin is piped", func(t *testing.T) {
		t.Parallel()

		res := b.ExecuteWithStdin(t.Context(), []byte("kind: Pod\n"), "cat")
		assert.Equal(t, "kind: Pod\n", res.Stdout)
		assert.Empty(t, res.Stderr)
	})

	t.Run("stream order is preserved", func(t *testing.T) {
		t.Parallel()

		res := b.Execute(t.Context(), "sh", "-c", "printf a; printf b; printf c")
		assert.Equal(t, "abc", res.Stdout)
	})
}

func TestBridge_Run(t *testing.T) {
	t.Parallel()

	spawner := &fakeSpawner{stdout: "v1.0.0\n", fireExit: true}
	b := execs.NewBridge(execs.WithSpawner(spawner))

	cmd := execs.NewCommand("az", "extension", "show")
	res := b.Run(t.Context(), cmd)
	require.Equal(t, "v1.0.0\n", res.Stdout)
	assert.Empty(t, res.Stderr)
}

func TestBridge_ExecuteDoesNotLeakGoroutines(t *testing.T) {
	// Counts goroutines, so this test must not run in parallel.
	b := execs.NewBridge()

	// Warm up the runtime so pool goroutines don't skew the baseline.
	b.Execute(t.Context(), "true")

	before := runtime.NumGoroutine()

	for range 50 {
		res := b.Execute(t.Context(), "true")
		require.Empty(t, res.Stderr)
	}

	// Give finished spawner goroutines a moment to unwind.
	after := runtime.NumGoroutine()
	for range 50 {
		if after <= before+2 {
			break
		}

		time.Sleep(10 * time.Millisecond)

		after = runtime.NumGoroutine()
	}

	assert.LessOrEqual(t, after, before+2,
		"goroutines before=%d after=%d", before, after)
}

func TestBridge_ConcurrentExecutes(t *testing.T) {
	t.Parallel()

	b := execs.NewBridge()

	results := make(chan execs.Result, 10)
	for range 10 {
		go func() {
			results <- b.Execute(t.Context(), "sh", "-c", "printf ok")
		}()
	}

	for range 10 {
		res := <-results
		assert.Equal(t, "ok", res.Stdout)
	}
}
