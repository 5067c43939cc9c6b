package mcp

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/repolens/internal/audit"
	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/tools"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Recorder persists tool call records.
type Recorder interface {
	Log(ctx context.Context, inv audit.Invocation) error
}

// Deps are the collaborators of a Server.
type Deps struct {
	Tools  []tools.Tool
	Engine *bulk.Engine
	Guard  *bulk.Guard
	// Audit is optional.
	Audit  Recorder
	Logger *slog.Logger
}

// Server wraps an MCP server that exposes the bulk query tools.
type Server struct {
	tools  []tools.Tool
	engine *bulk.Engine
	guard  *bulk.Guard
	audit  Recorder
	logger *slog.Logger
	mcp    *server.MCPServer
}

// NewServer creates a new MCP server with the given dependencies.
func NewServer(d Deps) *Server {
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	s := &Server{
		tools:  d.Tools,
		engine: d.Engine,
		guard:  d.Guard,
		audit:  d.Audit,
		logger: d.Logger,
	}

	s.mcp = server.NewMCPServer(
		"repolens",
		Version,
		server.WithToolCapabilities(false),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)

	s.registerTools()

	return s
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp,
		server.WithErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError)),
		server.WithStdioContextFunc(func(ctx context.Context) context.Context {
			return withTransport(ctx, audit.TransportStdio)
		}),
	)
}

// HTTPHandler returns a streamable HTTP handler serving the same tools.
func (s *Server) HTTPHandler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcp,
		server.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			return withTransport(ctx, audit.TransportHTTP)
		}),
	)
}
