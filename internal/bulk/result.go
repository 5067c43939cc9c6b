// Package bulk runs batches of independent tool queries, isolates their
// failures and shapes the aggregated outcome into a compact envelope for
// automated callers.
package bulk

// Status classifies the outcome of a single query.
type Status string

const (
	StatusHasResults Status = "hasResults"
	StatusEmpty      Status = "empty"
	StatusError      Status = "error"
)

// Statuses lists every valid status in envelope order.
var Statuses = []Status{StatusHasResults, StatusEmpty, StatusError}

// Valid reports whether s is one of the three known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusHasResults, StatusEmpty, StatusError:
		return true
	}
	return false
}

// Research is the optional research metadata a caller attaches to a query.
// It is copied to the output untouched, including for failed queries.
type Research struct {
	ResearchGoal        string   `json:"researchGoal,omitempty"`
	Reasoning           string   `json:"reasoning,omitempty"`
	ResearchSuggestions []string `json:"researchSuggestions,omitempty"`
}

// ResearchMeta returns the metadata itself so that query types can satisfy
// Query by embedding Research.
func (r Research) ResearchMeta() Research { return r }

// Query is one unit of requested work. Query types embed Research and are
// treated as immutable once submitted.
type Query interface {
	ResearchMeta() Research
}

// Result is the outcome a worker produces for one query. Its fields are
// unexported so that a status can only be assigned through HasResults, Empty
// or Failed.
type Result[T any] struct {
	status Status
	data   T
	err    string
	hints  []string
}

// HasResults returns a result carrying data that matched the query.
func HasResults[T any](data T, hints ...string) Result[T] {
	return Result[T]{status: StatusHasResults, data: data, hints: hints}
}

// Empty returns a result for a query that ran successfully but matched nothing.
func Empty[T any](data T, hints ...string) Result[T] {
	return Result[T]{status: StatusEmpty, data: data, hints: hints}
}

// Failed returns an error result with a human readable message. Workers use it
// for expected domain failures such as "not found" or "rate limited".
func Failed[T any](message string, hints ...string) Result[T] {
	if message == "" {
		message = "query failed"
	}
	return Result[T]{status: StatusError, err: message, hints: hints}
}

// Status returns the result classification.
func (r Result[T]) Status() Status { return r.status }

// Data returns the payload. It is the zero value for error results.
func (r Result[T]) Data() T { return r.data }

// Error returns the failure message of an error result.
func (r Result[T]) Error() string { return r.err }

// Hints returns the worker supplied hints.
func (r Result[T]) Hints() []string { return r.hints }
