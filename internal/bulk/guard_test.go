package bulk

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testGuard(timeout time.Duration) *Guard {
	return NewGuard(timeout, NewCompactor(ResponseSchemaV1, nil, nil), nil)
}

func TestGuardCompleted(t *testing.T) {
	g := testGuard(time.Second)
	out := g.Run(context.Background(), "searchCode", func(ctx context.Context) Response {
		return Response{Text: "ok", Counts: Counts{HasResults: 2}}
	})
	require.Equal(t, StateCompleted, out.State)
	require.Equal(t, "ok", out.Response.Text)
	require.False(t, out.Response.IsError)
	require.Equal(t, 2, out.Response.Counts.Total())
}

func TestGuardTimeoutCancelsCall(t *testing.T) {
	g := testGuard(20 * time.Millisecond)
	callCancelled := make(chan struct{})
	start := time.Now()
	out := g.Run(context.Background(), "searchCode", func(ctx context.Context) Response {
		<-ctx.Done()
		close(callCancelled)
		return Response{Text: "late"}
	})

	elapsed := time.Since(start)
	require.Equal(t, StateTimedOut, out.State)
	require.GreaterOrEqual(t, elapsed, 20*time.Millisecond)
	require.Less(t, elapsed, 120*time.Millisecond)
	require.True(t, out.Response.IsError)
	require.Equal(t, []string{"instructions", "error"}, topKeys(t, out.Response.Text))
	got := decode(t, out.Response.Text)
	require.Contains(t, got["error"], "timed out after 20ms")
	require.Contains(t, got["instructions"], "No partial results are included")

	select {
	case <-callCancelled:
	case <-time.After(time.Second):
		t.Fatal("call context was not cancelled")
	}
}

func TestGuardCancellation(t *testing.T) {
	g := testGuard(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	start := time.Now()
	out := g.Run(ctx, "searchCode", func(ctx context.Context) Response {
		<-ctx.Done()
		return Response{Text: "late"}
	})
	require.Equal(t, StateCancelled, out.State)
	require.True(t, out.Response.IsError)
	require.Less(t, time.Since(start), 110*time.Millisecond)
	require.Contains(t, decode(t, out.Response.Text)["error"], "was cancelled")
}

func TestGuardTimeoutAbandonsUncooperativeCall(t *testing.T) {
	g := testGuard(30 * time.Millisecond)
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	out := g.Run(context.Background(), "searchCode", func(context.Context) Response {
		<-release
		return Response{Text: "late"}
	})
	elapsed := time.Since(start)

	require.Equal(t, StateTimedOut, out.State)
	require.Less(t, elapsed, 130*time.Millisecond)
	require.NotContains(t, out.Response.Text, "late")
}

func TestGuardCancellationIgnoredByCall(t *testing.T) {
	g := testGuard(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)
	release := make(chan struct{})
	defer close(release)

	start := time.Now()
	out := g.Run(ctx, "searchCode", func(context.Context) Response {
		<-release
		return Response{Text: "late"}
	})

	require.Equal(t, StateCancelled, out.State)
	require.Less(t, time.Since(start), 110*time.Millisecond)
}

func TestGuardAlreadyCancelled(t *testing.T) {
	g := testGuard(time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var called atomic.Bool
	out := g.Run(ctx, "searchCode", func(ctx context.Context) Response {
		called.Store(true)
		return Response{}
	})
	require.Equal(t, StateCancelled, out.State)
	require.False(t, called.Load())
}

func TestGuardRecoversPanics(t *testing.T) {
	g := testGuard(time.Second)
	out := g.Run(context.Background(), "searchCode", func(ctx context.Context) Response {
		panic("kaboom")
	})
	require.Equal(t, StateCompleted, out.State)
	require.True(t, out.Response.IsError)
	require.Contains(t, out.Response.Text, "kaboom")
}

func TestGuardDefaultTimeout(t *testing.T) {
	require.Equal(t, DefaultToolTimeout, testGuard(0).Timeout())
}
