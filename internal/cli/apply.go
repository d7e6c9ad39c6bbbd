package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"kubeapply/pkg/deploy"
	"kubeapply/pkg/execs"
)

const (
	cmdExamples = `  # Apply one or more manifest files:
  kubeapply apply ./deployment.yaml ./service.yaml

  # Apply into a specific namespace, overriding manifest namespaces:
  kubeapply apply ./manifests.yaml -n team-a

  # Server-side dry run against a named context:
  kubeapply apply ./manifests.yaml --context staging --dry-run

  # Read from stdin:
  cat manifests.yaml | kubeapply apply -

  # Print the combined manifest without applying:
  kubeapply combine ./a.yaml ./b.yaml`
)

type ApplyArgs struct {
	*RootArgs

	Namespace          string
	Context            string
	DryRun             bool
	SkipExtensionCheck bool
}

func NewApplyArgs(rootArgs *RootArgs) *ApplyArgs {
	return &ApplyArgs{
		RootArgs: rootArgs,
	}
}

func (aa *ApplyArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&aa.Namespace, "namespace", "n", "", "Namespace to stamp onto every resource")
	cmd.Flags().StringVar(&aa.Context, "context", "", "Kubeconfig context to apply against")
	cmd.Flags().BoolVar(&aa.DryRun, "dry-run", false, "Perform a server-side dry run")
	cmd.Flags().BoolVar(&aa.SkipExtensionCheck, "skip-extension-check", false,
		"Apply without checking for the required CLI extension")
}

func NewApplyCmd(aa *ApplyArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "apply [file]...",
		Short:   "Assemble manifest files and apply them to the cluster",
		Example: cmdExamples,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runApply(cmd, aa, args)
		},
	}
	aa.AddFlags(cmd)

	return cmd
}

func runApply(cmd *cobra.Command, aa *ApplyArgs, paths []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(aa.RootArgs)
	if err != nil {
		return err
	}

	manifestText, err := assembleManifest(cmd, paths)
	if err != nil {
		return err
	}

	bridge := execs.NewBridge()

	opts := []deploy.DeployerOpt{}
	if !aa.SkipExtensionCheck {
		mgr := newExtensionManager(cfg, bridge)
		mgr.Start(ctx)

		opts = append(opts, deploy.WithExtensionGate(mgr))
	}

	target := *cfg.Deploy
	if aa.Context != "" {
		target.Context = aa.Context
	}

	namespace := aa.Namespace
	if namespace == "" {
		namespace = target.Namespace
	}

	deployer := deploy.NewDeployer(bridge, target, opts...)

	var out deploy.Output
	if aa.DryRun {
		out = deployer.DryRun(ctx, manifestText, namespace)
	} else {
		out = deployer.Apply(ctx, manifestText, namespace)
	}

	return writeOutput(cmd, out)
}

func writeOutput(cmd *cobra.Command, out deploy.Output) error {
	if out.Stdout != "" {
		_, err := fmt.Fprint(cmd.OutOrStdout(), out.Stdout)
		if err != nil {
			return fmt.Errorf("write to stdout: %w", err)
		}
	}

	if out.Error != nil {
		return out.Error
	}

	if out.Stderr != "" {
		return errors.New(strings.TrimSpace(out.Stderr))
	}

	// Only decorate interactive sessions; piped output stays machine-readable.
	if term.IsTerminal(int(os.Stdout.Fd())) {
		verb := "applied"
		if out.Type == deploy.TypeDryRun {
			verb = "validated"
		}

		footer := lipgloss.NewStyle().Faint(true).
			Render(fmt.Sprintf("%s in %s", verb, time.Since(out.Timestamp).Round(time.Millisecond)))
		mustN(fmt.Fprintln(cmd.OutOrStdout(), footer))
	}

	return nil
}
