// Package config defines the kubeapply configuration file: the deploy
// target, and the commands used to check for and install the required CLI
// extension.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/invopop/jsonschema"

	_ "embed"

	"kubeapply/pkg/deploy"
	"kubeapply/pkg/execs"
	"kubeapply/pkg/yaml"
)

//go:generate go run ../../internal/schemagen -o config.v1beta1.json

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed config.v1beta1.json
	schemaJSON []byte

	ValidAPIVersions = []string{
		"kubeapply.dev/v1beta1",
	}
	ValidKinds = []string{
		"Configuration",
	}

	DefaultValidator = yaml.MustNewValidator("/config.v1beta1.json", schemaJSON)
)

//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// Deploy configures the apply target.
	Deploy *deploy.Target `json:"deploy,omitempty" jsonschema:"title=Deploy Target"`
	// Extension configures the required CLI extension.
	Extension *Extension `json:"extension,omitempty" jsonschema:"title=Extension"`
	// APIVersion specifies the API version for this configuration.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of configuration.
	Kind string `json:"kind" jsonschema:"title=Kind"`
}

// Extension configures how the required CLI extension is detected and
// installed.
type Extension struct {
	// Check is the command that reports whether the extension is installed.
	Check *execs.Command `json:"check,omitempty" jsonschema:"title=Check Command"`
	// Install is the command that installs the extension.
	Install *execs.Command `json:"install,omitempty" jsonschema:"title=Install Command"`
	// Name identifies the extension, for display purposes.
	Name string `json:"name,omitempty" jsonschema:"title=Name"`
}

// New creates a [Config] with defaults applied.
func New() *Config {
	c := &Config{
		APIVersion: ValidAPIVersions[0],
		Kind:       ValidKinds[0],
	}
	c.EnsureDefaults()

	return c
}

// EnsureDefaults fills in any unset sections with the built-in defaults.
func (c *Config) EnsureDefaults() {
	if c.Deploy == nil {
		c.Deploy = &deploy.Target{}
	}
	if c.Deploy.CLI == "" {
		c.Deploy.CLI = "kubectl"
	}

	if c.Extension == nil {
		c.Extension = &Extension{}
	}
	if c.Extension.Name == "" {
		c.Extension.Name = "aks-preview"
	}
	if c.Extension.Check == nil {
		check := execs.NewCommand("az", "extension", "show", "--name", c.Extension.Name)
		c.Extension.Check = &check
	}
	if c.Extension.Install == nil {
		install := execs.NewCommand("az", "extension", "add", "--name", c.Extension.Name)
		c.Extension.Install = &install
	}
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	apiVersion, ok := jss.Properties.Get("apiVersion")
	if !ok {
		panic("apiVersion property not found in schema")
	}

	for _, version := range ValidAPIVersions {
		apiVersion.OneOf = append(apiVersion.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: version,
			Title: "API Version",
		})
	}

	_, _ = jss.Properties.Set("apiVersion", apiVersion)

	kind, ok := jss.Properties.Get("kind")
	if !ok {
		panic("kind property not found in schema")
	}

	for _, kindValue := range ValidKinds {
		kind.OneOf = append(kind.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: kindValue,
			Title: "Kind",
		})
	}

	_, _ = jss.Properties.Set("kind", kind)
}

func (c *Config) MarshalYAML() ([]byte, error) {
	b := &bytes.Buffer{}

	enc := yaml.NewEncoder(b)

	err := enc.Encode(*c)
	if err != nil {
		return nil, fmt.Errorf("marshal yaml: %w", err)
	}

	return b.Bytes(), nil
}

// Write writes the default configuration to path unless a file already
// exists there.
func (c Config) Write(path string) error {
	pathInfo, err := os.Stat(path)
	if pathInfo != nil {
		if err == nil && pathInfo.Mode().IsRegular() {
			return nil // Config already exists.
		}
		if pathInfo.IsDir() {
			return fmt.Errorf("%s: path is a directory", path)
		}

		return fmt.Errorf("%s: unknown file state", path)
	}

	err = os.MkdirAll(filepath.Dir(path), 0o700)
	if err != nil {
		return fmt.Errorf("create directories: %w", err)
	}

	b, err := c.MarshalYAML()
	if err != nil {
		return err
	}

	err = os.WriteFile(path, b, 0o600)
	if err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}

// GetPath returns the default configuration file path, honoring
// XDG_CONFIG_HOME.
func GetPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}

		configDir = filepath.Join(home, ".config")
	}

	return filepath.Join(configDir, "kubeapply", "config.yaml")
}

// DefaultConfigYAML returns the embedded default configuration file content.
func DefaultConfigYAML() []byte {
	return defaultConfigYAML
}
