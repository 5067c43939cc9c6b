package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repolens/internal/config"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "repolens",
	Short: "Batch research tools over GitHub and package registries for AI agents",
	Long: `repolens is an MCP server that lets AI agents research code on GitHub
and in package registries. Every tool takes a batch of queries, runs them
concurrently and answers with one compact response carrying a status and
next-step hints per query.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
