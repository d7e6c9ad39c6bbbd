package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kubeapply/pkg/config"
)

func TestNew(t *testing.T) {
	t.Parallel()

	cfg := config.New()

	assert.Equal(t, "kubeapply.dev/v1beta1", cfg.APIVersion)
	assert.Equal(t, "Configuration", cfg.Kind)

	require.NotNil(t, cfg.Deploy)
	assert.Equal(t, "kubectl", cfg.Deploy.CLI)

	require.NotNil(t, cfg.Extension)
	assert.Equal(t, "aks-preview", cfg.Extension.Name)

	require.NotNil(t, cfg.Extension.Check)
	assert.Equal(t, "az", cfg.Extension.Check.Command)
	assert.Equal(t, []string{"extension", "show", "--name", "aks-preview"}, cfg.Extension.Check.Args)

	require.NotNil(t, cfg.Extension.Install)
	assert.Equal(t, []string{"extension", "add", "--name", "aks-preview"}, cfg.Extension.Install.Args)
}

func TestEnsureDefaults(t *testing.T) {
	t.Parallel()

	t.Run("keeps explicit values", func(t *testing.T) {
		t.Parallel()

		cfg := config.New()
		cfg.Deploy.CLI = "oc"
		cfg.Extension.Name = "custom-ext"
		cfg.EnsureDefaults()

		assert.Equal(t, "oc", cfg.Deploy.CLI)
		assert.Equal(t, "custom-ext", cfg.Extension.Name)
	})

	t.Run("derives commands from extension name", func(t *testing.T) {
		t.Parallel()

		cfg := &config.Config{
			Extension: &config.Extension{Name: "other"},
		}
		cfg.EnsureDefaults()

		assert.Equal(t, []string{"extension", "show", "--name", "other"}, cfg.Extension.Check.Args)
		assert.Equal(t, []string{"extension", "add", "--name", "other"}, cfg.Extension.Install.Args)
	})
}

func TestDefaultConfigYAMLIsValid(t *testing.T) {
	t.Parallel()

	loader := config.NewLoaderFromBytes(config.DefaultConfigYAML())

	cfg, err := loader.Load()
	require.NoError(t, err)
	assert.Equal(t, "kubectl", cfg.Deploy.CLI)
	assert.Equal(t, "aks-preview", cfg.Extension.Name)
}

func TestLoader(t *testing.T) {
	t.Parallel()

	tcs := map[string]struct {
		data    string
		wantErr string
	}{
		"minimal config": {
			data: "apiVersion: kubeapply.dev/v1beta1\nkind: Configuration\n",
		},
		"full config": {
			data: `apiVersion: kubeapply.dev/v1beta1
kind: Configuration
deploy:
  cli: kubectl
  context: staging
  namespace: team-a
extension:
  name: aks-preview
  check:
    command: az
    args: [extension, show, --name, aks-preview]
    inherit: ["^AZURE_.+"]
`,
		},
		"missing apiVersion": {
			data:    "kind: Configuration\n",
			wantErr: "validate config",
		},
		"wrong apiVersion": {
			data:    "apiVersion: kubeapply.dev/v2\nkind: Configuration\n",
			wantErr: "validate config",
		},
		"unknown field": {
			data:    "apiVersion: kubeapply.dev/v1beta1\nkind: Configuration\nbogus: true\n",
			wantErr: "validate config",
		},
		"command with whitespace": {
			data: `apiVersion: kubeapply.dev/v1beta1
kind: Configuration
extension:
  check:
    command: "az extension"
`,
			wantErr: "validate config",
		},
		"malformed yaml": {
			data:    "{broken",
			wantErr: "decode config",
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			loader := config.NewLoaderFromBytes([]byte(tc.data))

			cfg, err := loader.Load()
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)

				return
			}
			require.NoError(t, err)

			// Defaults are always applied after load.
			assert.NotNil(t, cfg.Deploy)
			assert.NotNil(t, cfg.Extension)
			assert.NotEmpty(t, cfg.Deploy.CLI)
		})
	}
}

func TestLoaderFromFile(t *testing.T) {
	t.Parallel()

	t.Run("reads file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, config.DefaultConfigYAML(), 0o600))

		loader, err := config.NewLoaderFromFile(path)
		require.NoError(t, err)

		_, err = loader.Load()
		require.NoError(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := config.NewLoaderFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
		require.ErrorContains(t, err, "read config file")
	})
}

func TestConfig_Write(t *testing.T) {
	t.Parallel()

	t.Run("writes new file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "nested", "config.yaml")

		require.NoError(t, config.New().Write(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Contains(t, string(data), "kubeapply.dev/v1beta1")
	})

	t.Run("does not overwrite", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("keep: me\n"), 0o600))

		require.NoError(t, config.New().Write(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "keep: me\n", string(data))
	})

	t.Run("rejects directory", func(t *testing.T) {
		t.Parallel()

		require.ErrorContains(t, config.New().Write(t.TempDir()), "path is a directory")
	})
}

func TestConfig_MarshalYAML(t *testing.T) {
	t.Parallel()

	data, err := config.New().MarshalYAML()
	require.NoError(t, err)

	loader := config.NewLoaderFromBytes(data)
	_, err = loader.Load()
	require.NoError(t, err)
}
