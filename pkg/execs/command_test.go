package execs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubeapply/pkg/execs"
)

func TestCommand_Environment(t *testing.T) {
	t.Parallel()

	baseEnv := []string{
		"PATH=/usr/bin",
		"HOME=/home/dev",
		"USER=dev",
		"KUBECONFIG=/home/dev/.kube/config",
		"AWS_REGION=us-east-1",
		"AWS_PROFILE=default",
		"SECRET_TOKEN=hunter2",
	}

	tcs := map[string]struct {
		cmd      execs.Command
		expected []string
		excluded []string
	}{
		"essential variables always pass through": {
			cmd: execs.Command{Command: "kubectl"},
			expected: []string{
				"PATH=/usr/bin",
				"HOME=/home/dev",
				"USER=dev",
				"KUBECONFIG=/home/dev/.kube/config",
			},
			excluded: []string{"AWS_REGION=us-east-1", "SECRET_TOKEN=hunter2"},
		},
		"inherit patterns match by prefix": {
			cmd: execs.Command{
				Command: "kubectl",
				Inherit: []string{"^AWS_.+"},
			},
			expected: []string{"AWS_REGION=us-east-1", "AWS_PROFILE=default"},
			excluded: []string{"SECRET_TOKEN=hunter2"},
		},
		"static env overrides inherited values": {
			cmd: execs.Command{
				Command: "kubectl",
				Inherit: []string{"^AWS_REGION$"},
				Env: []execs.EnvVar{
					{Name: "AWS_REGION", Value: "eu-west-1"},
				},
			},
			expected: []string{"AWS_REGION=eu-west-1"},
			excluded: []string{"AWS_REGION=us-east-1"},
		},
		"invalid inherit pattern is skipped": {
			cmd: execs.Command{
				Command: "kubectl",
				Inherit: []string{"["},
			},
			expected: []string{"PATH=/usr/bin"},
			excluded: []string{"AWS_REGION=us-east-1"},
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cmd := tc.cmd
			cmd.SetBaseEnv(baseEnv)

			env := cmd.Environment()
			for _, kv := range tc.expected {
				assert.Contains(t, env, kv)
			}
			for _, kv := range tc.excluded {
				assert.NotContains(t, env, kv)
			}
		})
	}
}

func TestCommand_Validate(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		cmd     execs.Command
		wantErr bool
	}{
		"no patterns": {
			cmd: execs.NewCommand("kubectl", "apply"),
		},
		"valid patterns": {
			cmd: execs.Command{
				Command: "az",
				Inherit: []string{"^AZURE_.+", "^ARM_.+"},
			},
		},
		"invalid pattern": {
			cmd: execs.Command{
				Command: "az",
				Inherit: []string{"("},
			},
			wantErr: true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cmd := tc.cmd
			err := cmd.Validate()
			if tc.wantErr {
				require.Error(t, err)

				return
			}
			require.NoError(t, err)
		})
	}
}

func TestCommand_String(t *testing.T) {
	t.Parallel()

	cmd := execs.NewCommand("az", "extension", "add", "--name", "aks-preview")
	assert.Equal(t, "az extension add --name aks-preview", cmd.String())
}

func TestLazyRegexp(t *testing.T) {
	t.Parallel()

	t.Run("compiles once", func(t *testing.T) {
		t.Parallel()

		lr := execs.NewLazyRegexp("^KUBE.+")

		first, err := lr.Get()
		require.NoError(t, err)

		second, err := lr.Get()
		require.NoError(t, err)
		assert.Same(t, first, second)
	})

	t.Run("caches compile error", func(t *testing.T) {
		t.Parallel()

		lr := execs.NewLazyRegexp("[")

		_, err := lr.Get()
		require.Error(t, err)

		_, again := lr.Get()
		assert.Equal(t, err, again)
	})
}
