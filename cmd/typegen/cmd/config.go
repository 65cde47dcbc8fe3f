package cmd

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nodetool-ai/nodetool-sdk/config"
)

// ConfigCmd groups configuration helpers
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage typegen configuration",
}

var configInitPath string

// ConfigInitCmd writes a commented typegen.toml with the defaults
var ConfigInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a typegen.toml template",
	Long: `Write a commented typegen.toml holding every key with its default value.
An existing file is never overwritten.`,
	// Template writing needs neither config nor logging
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.WriteTemplate(configInitPath); err != nil {
			return err
		}
		pterm.Success.Printf("Wrote %s\n", configInitPath)
		return nil
	},
}

func init() {
	ConfigInitCmd.Flags().StringVar(&configInitPath, "path", config.FileName, "Where to write the template")
	ConfigCmd.AddCommand(ConfigInitCmd)
}
