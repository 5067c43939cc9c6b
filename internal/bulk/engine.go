package bulk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Counts tallies the statuses of one batch.
type Counts struct {
	HasResults int
	Empty      int
	Failed     int
}

// Total returns the number of results counted.
func (c Counts) Total() int { return c.HasResults + c.Empty + c.Failed }

func (c *Counts) add(s Status) {
	switch s {
	case StatusHasResults:
		c.HasResults++
	case StatusEmpty:
		c.Empty++
	default:
		c.Failed++
	}
}

// Summary renders the non-zero counts, e.g. "1 hasResults, 1 failed".
func (c Counts) Summary() string {
	var parts []string
	if c.HasResults > 0 {
		parts = append(parts, fmt.Sprintf("%d hasResults", c.HasResults))
	}
	if c.Empty > 0 {
		parts = append(parts, fmt.Sprintf("%d empty", c.Empty))
	}
	if c.Failed > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", c.Failed))
	}
	if len(parts) == 0 {
		return "no results"
	}
	return strings.Join(parts, ", ")
}

// Response is the serialized envelope of one tool call.
type Response struct {
	Text    string
	Counts  Counts
	IsError bool
}

// ValidationError rejects a batch before any query is dispatched.
type ValidationError struct {
	Tool   ToolID
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: invalid request: %s", e.Tool, e.Reason)
}

// Tool describes a tool to the engine.
type Tool struct {
	ID ToolID
	// ExtraFields are the tool's own payload fields, serialized after the
	// universal and per-result fields in this order.
	ExtraFields []string
}

// EngineConfig holds the batch limits shared by every tool.
type EngineConfig struct {
	QueryTimeout time.Duration
	// MaxQueries rejects larger batches. Zero disables the check.
	MaxQueries int
	// Concurrency caps in-flight workers per batch. Zero means unbounded.
	Concurrency int
}

// Engine executes bulk tool calls.
type Engine struct {
	registry  *Registry
	compactor *Compactor
	cfg       EngineConfig
	logger    *slog.Logger
}

// NewEngine creates an Engine using registry for hints and compactor for
// the final envelope.
func NewEngine(registry *Registry, compactor *Compactor, cfg EngineConfig, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, compactor: compactor, cfg: cfg, logger: logger}
}

// Compactor returns the engine's compactor.
func (e *Engine) Compactor() *Compactor { return e.compactor }

// ExecOption customizes a single Execute call.
type ExecOption func(*execOptions)

type execOptions struct {
	onSettled func(done, total int)
}

// WithProgress reports each settled query to fn.
func WithProgress(fn func(done, total int)) ExecOption {
	return func(o *execOptions) { o.onSettled = fn }
}

// resultEntry is one element of the envelope's results list.
type resultEntry struct {
	Query  any    `json:"query,omitempty"`
	Status Status `json:"status"`
	Data   any    `json:"data,omitempty"`
	Error  string `json:"error,omitempty"`
	Research
}

type envelope struct {
	Instructions          string        `json:"instructions"`
	Results               []resultEntry `json:"results"`
	HasResultsStatusHints []string      `json:"hasResultsStatusHints"`
	EmptyStatusHints      []string      `json:"emptyStatusHints"`
	ErrorStatusHints      []string      `json:"errorStatusHints"`
}

// Execute validates queries, runs worker for each of them and returns the
// compacted envelope. Per-query failures end up as error entries in the
// envelope; only a rejected batch produces an error response.
func Execute[Q Query, T any](ctx context.Context, e *Engine, tool Tool, queries []Q, worker Worker[Q, T], opts ...ExecOption) Response {
	var o execOptions
	for _, opt := range opts {
		opt(&o)
	}

	compactor := e.compactor
	if len(tool.ExtraFields) > 0 {
		schema, err := compactor.schema.Extend(tool.ExtraFields...)
		if err != nil {
			e.logger.Error("invalid tool schema", "tool", tool.ID, "error", err)
		} else {
			compactor = compactor.WithSchema(schema)
		}
	}

	if err := e.validate(tool.ID, len(queries)); err != nil {
		return errorResponse(compactor, tool.ID, err.Error())
	}

	dispatched := Dispatch(ctx, DispatchOptions{
		QueryTimeout: e.cfg.QueryTimeout,
		Concurrency:  e.cfg.Concurrency,
		OnSettled:    o.onSettled,
		Logger:       e.logger,
	}, queries, worker)

	entries := make([]resultEntry, len(queries))
	statuses := make([]Status, len(queries))
	workerHints := make([][]string, len(queries))
	for _, s := range dispatched.Results {
		entries[s.Index] = resultEntry{
			Status: s.Result.Status(),
			Data:   ToTree(s.Result.Data()),
			Error:  s.Result.Error(),
		}
		statuses[s.Index] = s.Result.Status()
		workerHints[s.Index] = s.Result.Hints()
	}
	for _, qe := range dispatched.Errors {
		entries[qe.Index] = resultEntry{Status: StatusError, Error: qe.Message}
		statuses[qe.Index] = StatusError
	}

	var counts Counts
	buckets := NewHintBuckets()
	for i, q := range queries {
		entries[i].Query = queryTree(q)
		entries[i].Research = q.ResearchMeta()
		if entries[i].Status == StatusError {
			entries[i].Data = nil
		}
		counts.add(statuses[i])
		buckets.Add(e.registry.Hints(tool.ID, statuses[i], workerHints[i]))
	}

	env := envelope{
		Instructions: fmt.Sprintf(
			"Bulk response with %d results: %s. Each result echoes its query with a status and either data or an error. Use the status hints to plan follow-up queries.",
			len(queries), counts.Summary()),
		Results:               entries,
		HasResultsStatusHints: buckets.Get(StatusHasResults),
		EmptyStatusHints:      buckets.Get(StatusEmpty),
		ErrorStatusHints:      buckets.Get(StatusError),
	}

	e.logger.Debug("bulk call settled", "tool", tool.ID, "queries", len(queries), "summary", counts.Summary())
	text, err := compactor.Render(env)
	if err != nil {
		e.logger.Error("serializing response", "tool", tool.ID, "error", err)
		return errorResponse(compactor, tool.ID, "failed to serialize response")
	}
	return Response{Text: text, Counts: counts}
}

// Reject returns the error response for a batch refused before dispatch,
// such as one whose queries could not be decoded.
func (e *Engine) Reject(tool ToolID, reason string) Response {
	err := &ValidationError{Tool: tool, Reason: reason}
	e.logger.Debug("bulk call rejected", "tool", tool, "reason", reason)
	return errorResponse(e.compactor, tool, err.Error())
}

func (e *Engine) validate(tool ToolID, n int) error {
	if n == 0 {
		return &ValidationError{Tool: tool, Reason: "queries must contain at least one query"}
	}
	if e.cfg.MaxQueries > 0 && n > e.cfg.MaxQueries {
		return &ValidationError{Tool: tool, Reason: fmt.Sprintf("at most %d queries are allowed per call, got %d", e.cfg.MaxQueries, n)}
	}
	return nil
}

// queryTree echoes a query without its research metadata, which is lifted
// onto the result entry instead.
func queryTree(q Query) any {
	tree := ToTree(q)
	if m, ok := tree.(map[string]any); ok {
		delete(m, FieldResearchGoal)
		delete(m, FieldReasoning)
		delete(m, FieldResearchSuggestions)
	}
	return tree
}

// errorEnvelope is the single payload returned instead of per-query results
// when a batch is rejected or abandoned.
type errorEnvelope struct {
	Instructions string `json:"instructions"`
	Error        string `json:"error"`
}

func errorResponse(c *Compactor, tool ToolID, message string) Response {
	env := errorEnvelope{
		Instructions: fmt.Sprintf("Tool %s returned no results. No partial results are included.", tool),
		Error:        message,
	}
	return Response{Text: c.Compact(env), IsError: true}
}
