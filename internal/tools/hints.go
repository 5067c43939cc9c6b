package tools

import (
	"context"

	"github.com/ziadkadry99/repolens/internal/bulk"
	"github.com/ziadkadry99/repolens/internal/github"
)

// BaseHints apply to every tool.
var BaseHints = bulk.HintTable{
	bulk.StatusHasResults: {
		"Check each result's researchGoal before planning the next step.",
	},
	bulk.StatusEmpty: {
		"Broaden the query: fewer keywords, drop filters or widen the scope.",
	},
	bulk.StatusError: {
		"Read the error of each failed query; fix that query and retry only it.",
	},
}

// Worker hints attached to specific failures.
const (
	hintRateLimited = "GitHub rate limit reached; wait for the reset or configure a token."
	hintAuth        = "Authentication failed; check that the configured GitHub token is valid."
	hintNotFound    = "Verify owner, repo, branch and path; names are case sensitive."
	hintInvalid     = "GitHub rejected the query syntax; remove special characters or qualifiers."
)

// failure converts a client error into a result. Context errors are returned
// as worker errors so the dispatcher reports them as timeouts or
// cancellations.
func failure[T any](ctx context.Context, err error) (bulk.Result[T], error) {
	if ctx.Err() != nil {
		return bulk.Result[T]{}, err
	}
	switch {
	case github.IsRateLimited(err):
		return bulk.Failed[T](github.Describe(err), hintRateLimited), nil
	case github.IsUnauthorized(err):
		return bulk.Failed[T](github.Describe(err), hintAuth), nil
	case github.IsNotFound(err):
		return bulk.Failed[T](github.Describe(err), hintNotFound), nil
	case github.IsValidationFailed(err):
		return bulk.Failed[T](github.Describe(err), hintInvalid), nil
	}
	return bulk.Failed[T](github.Describe(err)), nil
}

// invalid reports a query that decoded but cannot be run.
func invalid[T any](message string) (bulk.Result[T], error) {
	return bulk.Failed[T](message, "Fix the query parameters named in the error."), nil
}
