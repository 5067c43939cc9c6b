package bulk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultQueryTimeout is the per-query ceiling applied when none is configured.
const DefaultQueryTimeout = 60 * time.Second

// Worker maps one query to its result. The context is cancelled when the
// per-query ceiling expires or the surrounding tool call is abandoned, so
// workers should pass it to every remote call they make.
//
// Expected domain failures are reported with Failed. A returned error or a
// panic is isolated and converted into a QueryError for that index only.
type Worker[Q Query, T any] func(ctx context.Context, query Q, index int) (Result[T], error)

// QueryError records a query whose worker failed instead of producing a
// well-formed result.
type QueryError struct {
	Index   int
	Message string
}

func (e QueryError) Error() string {
	return fmt.Sprintf("query %d: %s", e.Index, e.Message)
}

// Settled is a worker result tagged with the index of its query.
type Settled[T any] struct {
	Index  int
	Result Result[T]
}

// Dispatched holds the outcome of one Dispatch call. Results and Errors are
// both ordered by query index and together cover every submitted index
// exactly once.
type Dispatched[T any] struct {
	Results []Settled[T]
	Errors  []QueryError
}

// DispatchOptions tunes a Dispatch call.
type DispatchOptions struct {
	// QueryTimeout bounds each worker invocation. Zero means DefaultQueryTimeout.
	QueryTimeout time.Duration
	// Concurrency caps the number of workers in flight. Zero runs every
	// query at once.
	Concurrency int
	// OnSettled is invoked after each query settles. It may be called from
	// several goroutines at once.
	OnSettled func(done, total int)
	Logger    *slog.Logger
}

// Dispatch runs worker for every query concurrently and waits for all of them
// to settle. A failing query never prevents the others from completing.
func Dispatch[Q Query, T any](ctx context.Context, opts DispatchOptions, queries []Q, worker Worker[Q, T]) Dispatched[T] {
	timeout := opts.QueryTimeout
	if timeout <= 0 {
		timeout = DefaultQueryTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	type slot struct {
		result Result[T]
		err    *QueryError
	}
	slots := make([]slot, len(queries))
	total := len(queries)
	var settled atomic.Int64

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}
	for i, q := range queries {
		g.Go(func() error {
			res, qerr := runQuery(ctx, timeout, q, i, worker)
			// Each goroutine owns its own slot.
			slots[i] = slot{result: res, err: qerr}
			if qerr != nil {
				logger.Debug("query isolated", "index", i, "error", qerr.Message)
			}
			done := settled.Add(1)
			if opts.OnSettled != nil {
				opts.OnSettled(int(done), total)
			}
			// Individual failure is not fatal to the batch.
			return nil
		})
	}
	_ = g.Wait()

	var out Dispatched[T]
	for i, s := range slots {
		if s.err != nil {
			out.Errors = append(out.Errors, *s.err)
			continue
		}
		out.Results = append(out.Results, Settled[T]{Index: i, Result: s.result})
	}
	return out
}

// runQuery invokes the worker for a single query under the per-query ceiling.
// The worker runs in its own goroutine so that a worker ignoring its context
// is still abandoned when the ceiling fires.
func runQuery[Q Query, T any](ctx context.Context, timeout time.Duration, q Q, index int, worker Worker[Q, T]) (Result[T], *QueryError) {
	var zero Result[T]

	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		res Result[T]
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("worker panicked: %v", r)}
			}
		}()
		res, err := worker(qctx, q, index)
		done <- outcome{res: res, err: err}
	}()

	select {
	case o := <-done:
		if o.err != nil {
			if ctx.Err() != nil {
				return zero, cancelledError(ctx, index)
			}
			if errors.Is(qctx.Err(), context.DeadlineExceeded) {
				return zero, timeoutError(index, timeout)
			}
			return zero, newQueryError(index, o.err.Error())
		}
		if !o.res.status.Valid() {
			return zero, newQueryError(index, "worker returned a result without a status")
		}
		return o.res, nil
	case <-qctx.Done():
		if ctx.Err() != nil {
			return zero, cancelledError(ctx, index)
		}
		return zero, timeoutError(index, timeout)
	}
}

func cancelledError(ctx context.Context, index int) *QueryError {
	return newQueryError(index, fmt.Sprintf("query cancelled: %v", context.Cause(ctx)))
}

func timeoutError(index int, timeout time.Duration) *QueryError {
	return newQueryError(index, fmt.Sprintf("query timed out after %s", timeout))
}

func newQueryError(index int, message string) *QueryError {
	if message == "" {
		message = "query failed"
	}
	return &QueryError{Index: index, Message: message}
}
