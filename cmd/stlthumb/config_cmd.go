package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Faultbox/stlthumb/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the stlthumb configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Write the default configuration",
	Long: `Write the default configuration to path, or to the user configuration
directory when no path is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()

		var path string
		var err error
		if len(args) == 1 {
			path = args[0]
			err = cfg.SaveTo(path)
		} else {
			path, err = cfg.Save()
		}
		if err != nil {
			return fmt.Errorf("writing config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}
