package extension_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubeapply/pkg/execs"
	"kubeapply/pkg/extension"
)

func newShellClient(t *testing.T, checkScript, installScript string) *extension.CommandClient {
	t.Helper()

	bridge := execs.NewBridge()
	check := execs.NewCommand("sh", "-c", checkScript)
	install := execs.NewCommand("sh", "-c", installScript)

	return extension.NewCommandClient(bridge, check, install)
}

func TestCommandClient_IsInstalled(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		script    string
		installed bool
		errText   string
	}{
		"clean exit means installed": {
			script:    "printf '{\"name\": \"aks-preview\"}'",
			installed: true,
		},
		"plain nonzero exit means not installed": {
			script: "exit 1",
		},
		"stderr output is an error": {
			script:  "printf 'az: not logged in' >&2; exit 1",
			errText: "az: not logged in",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			client := newShellClient(t, tc.script, "true")

			installed, err := client.IsInstalled(t.Context())
			if tc.errText != "" {
				require.EqualError(t, err, tc.errText)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.installed, installed)
		})
	}
}

func TestCommandClient_Install(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()

		client := newShellClient(t, "true", "printf installed")
		require.NoError(t, client.Install(t.Context()))
	})

	t.Run("failure reports stderr", func(t *testing.T) {
		t.Parallel()

		client := newShellClient(t, "true", "printf 'no such extension' >&2; exit 1")
		require.EqualError(t, client.Install(t.Context()), "no such extension")
	})

	t.Run("silent failure reports exit code", func(t *testing.T) {
		t.Parallel()

		client := newShellClient(t, "true", "exit 7")
		require.EqualError(t, client.Install(t.Context()), "Command exited with code 7")
	})
}
