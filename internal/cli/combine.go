package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"kubeapply/pkg/kube"
)

type CombineArgs struct {
	*RootArgs

	Namespace string
}

func NewCombineArgs(rootArgs *RootArgs) *CombineArgs {
	return &CombineArgs{
		RootArgs: rootArgs,
	}
}

func (ca *CombineArgs) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&ca.Namespace, "namespace", "n", "", "Namespace to stamp onto every resource")
}

func NewCombineCmd(ca *CombineArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "combine [file]...",
		Short: "Print the combined multi-document manifest without applying it",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCombine(cmd, ca, args)
		},
	}
	ca.AddFlags(cmd)

	return cmd
}

func runCombine(cmd *cobra.Command, ca *CombineArgs, paths []string) error {
	manifestText, err := assembleManifest(cmd, paths)
	if err != nil {
		return err
	}

	if ca.Namespace != "" {
		manifestText, err = kube.OverrideManifestNamespace(manifestText, ca.Namespace)
		if err != nil {
			return fmt.Errorf("override namespace: %w", err)
		}
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), manifestText)
	if err != nil {
		return fmt.Errorf("write to stdout: %w", err)
	}

	return nil
}
