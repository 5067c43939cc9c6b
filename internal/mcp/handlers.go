package mcp

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/ziadkadry99/repolens/internal/audit"
	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/metrics"
	"github.com/ziadkadry99/repolens/internal/sanitize"
	"github.com/ziadkadry99/repolens/internal/tools"
)

type transportKey struct{}

func withTransport(ctx context.Context, t audit.Transport) context.Context {
	return context.WithValue(ctx, transportKey{}, t)
}

func transportFrom(ctx context.Context) audit.Transport {
	if t, ok := ctx.Value(transportKey{}).(audit.Transport); ok {
		return t
	}
	return ""
}

// handleTool returns the MCP handler of t. Tool failures are reported as
// error results, never as Go errors.
func (s *Server) handleTool(t tools.Tool) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		out := s.Invoke(ctx, t, request.GetRawArguments())
		if out.Response.IsError {
			return mcp.NewToolResultError(out.Response.Text), nil
		}
		return mcp.NewToolResultText(out.Response.Text), nil
	}
}

// Invocation is the result of one tool call.
type Invocation struct {
	bulk.Outcome
	// Rejected is set when the arguments were refused before any query ran.
	Rejected bool
}

// Invoke validates args, runs t inside the guard and records the call. args
// must be a JSON object holding a queries array.
func (s *Server) Invoke(ctx context.Context, t tools.Tool, args any, opts ...bulk.ExecOption) Invocation {
	id := t.ID()

	validation := sanitize.ValidateInputParameters(args)
	if len(validation.Warnings) > 0 {
		s.logger.Warn("tool arguments sanitized", "tool", id, "warnings", strings.Join(validation.Warnings, "; "))
	}
	var (
		raw []any
		err error
	)
	if validation.IsValid {
		raw, err = tools.QueriesFromArgs(validation.SanitizedParams)
	}
	if !validation.IsValid || err != nil {
		reason := "parameters must be an object"
		if err != nil {
			reason = err.Error()
		}
		inv := Invocation{Outcome: bulk.Outcome{State: bulk.StateCompleted, Response: s.engine.Reject(id, reason)}, Rejected: true}
		s.record(ctx, id, 0, inv, reason)
		return inv
	}

	outcome := s.guard.Run(ctx, id, func(ctx context.Context) bulk.Response {
		return t.Run(ctx, s.engine, raw, opts...)
	})
	inv := Invocation{Outcome: outcome}
	detail := ""
	if outcome.State != bulk.StateCompleted {
		detail = string(outcome.State)
	} else if outcome.Response.IsError {
		inv.Rejected = true
		detail = "batch rejected"
	}
	s.record(ctx, id, len(raw), inv, detail)
	return inv
}

func (s *Server) record(ctx context.Context, id bulk.ToolID, queries int, inv Invocation, detail string) {
	state := audit.State(inv.State)
	if inv.Rejected {
		state = audit.StateRejected
	}
	counts := inv.Response.Counts

	metrics.RecordTool(string(id), string(state), inv.Duration)
	metrics.RecordQueryResults(string(id), string(bulk.StatusHasResults), counts.HasResults)
	metrics.RecordQueryResults(string(id), string(bulk.StatusEmpty), counts.Empty)
	metrics.RecordQueryResults(string(id), string(bulk.StatusError), counts.Failed)

	s.logger.Info("tool call",
		"tool", id,
		"state", state,
		"queries", queries,
		"summary", counts.Summary(),
		"duration", inv.Duration,
	)

	if s.audit == nil {
		return
	}
	// The caller's context may already be cancelled; the record must still
	// be written.
	err := s.audit.Log(context.WithoutCancel(ctx), audit.Invocation{
		Tool:       string(id),
		State:      state,
		QueryCount: queries,
		HasResults: counts.HasResults,
		Empty:      counts.Empty,
		Failed:     counts.Failed,
		DurationMS: inv.Duration.Milliseconds(),
		Transport:  transportFrom(ctx),
		Detail:     detail,
	})
	if err != nil {
		s.logger.Warn("recording tool call", "tool", id, "error", err)
	}
}

// Tools returns the registered tools.
func (s *Server) Tools() []tools.Tool { return s.tools }

// WithTransport tags ctx with the transport a call arrived on, for callers
// that invoke tools outside the MCP transports.
func WithTransport(ctx context.Context, t audit.Transport) context.Context {
	return withTransport(ctx, t)
}
