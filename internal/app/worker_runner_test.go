package app

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"local-dispatch/internal/logx"
	testlog "local-dispatch/internal/testutil"
)

func TestWorkerRunner_MustRun_NoPanicOnNil(t *testing.T) {
	t.Parallel()

	r := &WorkerRunner{runFn: func(*dig.Container) error { return nil }}
	require.NotPanics(t, func() { r.MustRun(dig.New()) })
}

func TestWorkerRunner_MustRun_NoPanicOnCanceled(t *testing.T) {
	t.Parallel()

	r := &WorkerRunner{runFn: func(*dig.Container) error { return context.Canceled }}
	require.NotPanics(t, func() { r.MustRun(dig.New()) })
}

func TestWorkerRunner_MustRun_PanicsOnOtherError(t *testing.T) {
	t.Parallel()

	sentinel := errors.New("boom")
	r := &WorkerRunner{runFn: func(*dig.Container) error { return sentinel }}
	require.Panics(t, func() { r.MustRun(dig.New()) })
}

func TestRunTasks_FailureStopsTheRest(t *testing.T) {
	t.Parallel()

	boom := errors.New("listen failed")
	stopped := make(chan struct{})
	rec := testlog.New()

	err := runTasks(context.Background(), rec.Logger(), []task{
		{name: "blocking", run: func(ctx context.Context) error {
			<-ctx.Done()
			close(stopped)
			return ctx.Err()
		}},
		{name: "failing", run: func(context.Context) error { return boom }},
	})

	require.ErrorIs(t, err, boom)
	<-stopped

	e, ok := rec.Find("worker task stopped")
	require.True(t, ok)
	v, _ := e.Field("task")
	require.Equal(t, "failing", v)
}

func TestRunTasks_CancelIsQuiet(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := testlog.New()
	err := runTasks(ctx, rec.Logger(), []task{
		{name: "a", run: func(ctx context.Context) error { <-ctx.Done(); return ctx.Err() }},
	})
	require.ErrorIs(t, err, context.Canceled)
	require.False(t, rec.HasMsg("worker task stopped"))
}

type countingRedispatcher struct {
	calls atomic.Int32
	err   error
}

func (c *countingRedispatcher) RedispatchPending(context.Context) (int, error) {
	c.calls.Add(1)
	return 0, c.err
}

func TestRedispatchLoop_SweepsUntilCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	d := &countingRedispatcher{err: errors.New("db down")}
	rec := testlog.New()
	done := make(chan error, 1)
	go func() { done <- redispatchLoop(d, 5*time.Millisecond, rec.Logger())(ctx) }()

	require.Eventually(t, func() bool { return d.calls.Load() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
	require.True(t, rec.HasMsg("redispatch sweep failed"))
}

func TestCloseWorker_NilSafe(t *testing.T) {
	t.Parallel()

	require.NotPanics(t, func() { closeWorker(logx.Nop(), nil, nil, nil, nil) })
}
