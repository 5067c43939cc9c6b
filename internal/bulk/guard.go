package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// DefaultToolTimeout is the outer deadline of one tool call.
const DefaultToolTimeout = 60 * time.Second

// State is the terminal state of a guarded tool call.
type State string

const (
	StateCompleted State = "completed"
	StateTimedOut  State = "timed_out"
	StateCancelled State = "cancelled"
)

// Outcome is what a guarded call resolves to.
type Outcome struct {
	State State
	// Response is the wrapped call's response when State is StateCompleted,
	// and a single error envelope otherwise.
	Response Response
	Duration time.Duration
}

// Call is the unit of work a Guard wraps. The context is cancelled once the
// guard settles on a timeout or a cancellation.
type Call func(ctx context.Context) Response

// Guard bounds a whole tool call with a deadline and the caller's
// cancellation signal, independently of any per-query ceiling.
type Guard struct {
	timeout   time.Duration
	compactor *Compactor
	logger    *slog.Logger
}

// NewGuard creates a Guard. A non-positive timeout means DefaultToolTimeout.
func NewGuard(timeout time.Duration, compactor *Compactor, logger *slog.Logger) *Guard {
	if timeout <= 0 {
		timeout = DefaultToolTimeout
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{timeout: timeout, compactor: compactor, logger: logger}
}

// Timeout returns the configured deadline.
func (g *Guard) Timeout() time.Duration { return g.timeout }

// Run executes call and returns whichever happens first: the call settling,
// the deadline firing or ctx being cancelled. It never blocks past the
// deadline; a call still running at that point is abandoned and its context
// cancelled.
func (g *Guard) Run(ctx context.Context, tool ToolID, call Call) Outcome {
	ctx, span := otel.Tracer("github.com/ziadkadry99/repolens/internal/bulk").Start(ctx, "tool "+string(tool))
	defer span.End()

	start := time.Now()
	finish := func(state State, resp Response) Outcome {
		span.SetAttributes(
			attribute.String("tool", string(tool)),
			attribute.String("state", string(state)),
			attribute.Int("queries", resp.Counts.Total()),
		)
		if state != StateCompleted {
			span.SetStatus(codes.Error, string(state))
		}
		return Outcome{State: state, Response: resp, Duration: time.Since(start)}
	}

	if err := ctx.Err(); err != nil {
		return finish(StateCancelled, g.cancelled(tool, context.Cause(ctx)))
	}

	callCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	timer := time.NewTimer(g.timeout)
	defer timer.Stop()

	done := make(chan Response, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				g.logger.Error("tool call panicked", "tool", tool, "panic", fmt.Sprint(r))
				done <- g.errorResponse(tool, fmt.Sprintf("Tool %s failed unexpectedly: %v", tool, r))
			}
		}()
		done <- call(callCtx)
	}()

	select {
	case resp := <-done:
		return finish(StateCompleted, resp)
	case <-timer.C:
		cancel()
		g.logger.Warn("tool call timed out", "tool", tool, "timeout", g.timeout)
		return finish(StateTimedOut, g.errorResponse(tool,
			fmt.Sprintf("Tool %s timed out after %s. Retry with fewer or narrower queries.", tool, g.timeout)))
	case <-ctx.Done():
		cancel()
		g.logger.Info("tool call cancelled", "tool", tool)
		return finish(StateCancelled, g.cancelled(tool, context.Cause(ctx)))
	}
}

func (g *Guard) cancelled(tool ToolID, cause error) Response {
	msg := fmt.Sprintf("Tool %s was cancelled", tool)
	if cause != nil && cause != context.Canceled {
		msg += ": " + cause.Error()
	}
	return g.errorResponse(tool, msg)
}

func (g *Guard) errorResponse(tool ToolID, message string) Response {
	return errorResponse(g.compactor, tool, message)
}
