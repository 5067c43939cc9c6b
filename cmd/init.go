package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repolens/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize repolens configuration with an interactive wizard",
	Long:  `Runs an interactive wizard to configure repolens and writes the config file (.repolens.yml by default).`,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := config.RunWizard(cfgFile)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
