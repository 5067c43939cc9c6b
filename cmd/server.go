package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/repolens/internal/server"
)

var (
	serverPort     int
	serverAllowAll bool
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the MCP server over streamable HTTP",
	Long: `Starts the repolens HTTP server: MCP over streamable HTTP on /mcp,
Prometheus metrics on /metrics and tool call history on /api/invocations.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("port") {
			cfg.HTTP.Port = serverPort
		}
		if cmd.Flags().Changed("allow-all-origins") {
			cfg.HTTP.AllowAllOrigins = serverAllowAll
		}

		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := server.New(server.Config{
			Port:         cfg.HTTP.Port,
			AllowAll:     cfg.HTTP.AllowAllOrigins,
			WriteTimeout: cfg.ToolTimeout + 30*time.Second,
		}, a.mcp.HTTPHandler(), a.audit, a.logger)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Warn("server shutdown", "error", err)
			}
		}()

		a.logger.Info("repolens server starting",
			"version", Version,
			"port", cfg.HTTP.Port,
			"database", cfg.DatabasePath(),
			"history", a.audit != nil,
		)
		return srv.Start()
	},
}

func init() {
	serverCmd.Flags().IntVar(&serverPort, "port", 8090, "Port to listen on (overrides http.port)")
	serverCmd.Flags().BoolVar(&serverAllowAll, "allow-all-origins", false, "Allow all CORS origins (overrides http.allow_all_origins)")
	rootCmd.AddCommand(serverCmd)
}
