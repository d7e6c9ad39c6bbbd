package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"kubeapply/pkg/execs"
	"kubeapply/pkg/extension"
)

func NewExtensionCmd(ra *RootArgs) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extension",
		Short: "Manage the CLI extension required for applying manifests",
	}

	cmd.AddCommand(
		newExtensionStatusCmd(ra),
		newExtensionInstallCmd(ra),
	)

	return cmd
}

func newExtensionStatusCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check whether the required extension is installed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(ra)
			if err != nil {
				return err
			}

			mgr := newExtensionManager(cfg, execs.NewBridge())
			mgr.Start(cmd.Context())

			status := mgr.Status()
			mustN(fmt.Fprintf(cmd.OutOrStdout(), "extension %s: %s\n",
				cfg.Extension.Name, status.Installed))

			if status.Installed != extension.Installed && status.Error != "" {
				return errors.New(status.Error)
			}

			return nil
		},
	}
}

func newExtensionInstallCmd(ra *RootArgs) *cobra.Command {
	return &cobra.Command{
		Use:   "install",
		Short: "Install the required extension",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(ra)
			if err != nil {
				return err
			}

			mgr := newExtensionManager(cfg, execs.NewBridge())

			err = mgr.Install(cmd.Context())
			if err != nil {
				return fmt.Errorf("install extension: %w", err)
			}

			status := mgr.Status()
			if status.Error != "" {
				return errors.New(status.Error)
			}

			mustN(fmt.Fprintf(cmd.OutOrStdout(), "extension %s installed\n", cfg.Extension.Name))

			return nil
		},
	}
}
