package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quocvuong92/omni-cli/internal/config"
	"github.com/quocvuong92/omni-cli/internal/display"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the omni config file",
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a commented default config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.CreateDefaultConfigFile()
			if err != nil {
				display.ShowError(err.Error())
				return err
			}
			display.ShowSuccess(fmt.Sprintf("Config file created at %s", path))
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "paths",
		Short: "List the locations searched for a config file",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.GetConfigPaths() {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
		},
	})

	return configCmd
}
