package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"kubeapply/pkg/config"
	"kubeapply/pkg/execs"
	"kubeapply/pkg/extension"
	"kubeapply/pkg/manifest"
)

// loadConfig loads the configuration file, falling back to built-in defaults
// when no file exists.
func loadConfig(ra *RootArgs) (*config.Config, error) {
	path := ra.ConfigPath
	if path == "" {
		path = config.GetPath()
	}

	if path == "" {
		return config.New(), nil
	}

	_, err := os.Stat(path)
	if err != nil {
		if ra.ConfigPath != "" {
			// An explicitly requested config must exist.
			return nil, fmt.Errorf("config %q: %w", path, err)
		}

		return config.New(), nil
	}

	loader, err := config.NewLoaderFromFile(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // Loader errors carry the path.
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}

	return cfg, nil
}

// newExtensionManager builds the lifecycle manager from the configured
// check/install commands.
func newExtensionManager(cfg *config.Config, bridge *execs.Bridge) *extension.Manager {
	client := extension.NewCommandClient(bridge, *cfg.Extension.Check, *cfg.Extension.Install)

	return extension.NewManager(client)
}

// assembleManifest reads each path (or stdin for "-") and combines the
// documents into one manifest, each prefixed with its source name.
func assembleManifest(cmd *cobra.Command, paths []string) (string, error) {
	b := manifest.NewBuilder("")

	for _, path := range paths {
		if path == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return "", fmt.Errorf("read stdin: %w", err)
			}

			b.Append(manifest.Upload{Name: "stdin", Content: string(data)})

			continue
		}

		data, err := os.ReadFile(path) //nolint:gosec // G304: Path is user-provided by design.
		if err != nil {
			return "", fmt.Errorf("read manifest: %w", err)
		}

		b.Append(manifest.Upload{Name: filepath.Base(path), Content: string(data)})
	}

	return b.String(), nil
}
