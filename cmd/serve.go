package cmd

import (
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio for AI agent integration",
	Long:  `Starts a Model Context Protocol (MCP) server on stdio, exposing the batch research tools to AI agents.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		a.logger.Info("repolens MCP server started on stdio",
			"version", Version,
			"tools", len(a.mcp.Tools()),
			"query_timeout", cfg.QueryTimeout,
			"tool_timeout", cfg.ToolTimeout,
		)
		return a.mcp.Serve()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
