package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"go.uber.org/dig"

	"local-dispatch/internal/events"
	notifier "local-dispatch/internal/gateway/notify"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/service/notify"
	testlog "local-dispatch/internal/testutil"
)

func containerWithLogger(t *testing.T, logger logx.Logger) *dig.Container {
	t.Helper()
	c := dig.New()
	require.NoError(t, c.Provide(func() logx.Logger { return logger }))
	return c
}

func TestRunner_MustRun_ShutdownRequested(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := &Runner{runFn: func(*dig.Container) error { return context.Canceled }}

	r.MustRun(containerWithLogger(t, rec.Logger()))
	require.True(t, rec.HasMsg("shutdown requested, exiting"))
}

func TestRunner_MustRun_StartupTimeout(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := &Runner{runFn: func(*dig.Container) error { return context.DeadlineExceeded }}

	r.MustRun(containerWithLogger(t, rec.Logger()))
	require.True(t, rec.HasMsg("startup aborted: startup timeout exceeded"))
}

func TestRunner_MustRun_ExitsOnError(t *testing.T) {
	code := -1
	old := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = old })

	rec := testlog.New()
	r := &Runner{runFn: func(*dig.Container) error { return errors.New("boom") }}

	r.MustRun(containerWithLogger(t, rec.Logger()))
	require.Equal(t, 1, code)
	e, ok := rec.Find("run error")
	require.True(t, ok)
	require.Equal(t, "error", e.Level)
}

func TestRunner_MustRun_NilErrorIsQuiet(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	r := &Runner{runFn: func(*dig.Container) error { return nil }}

	r.MustRun(containerWithLogger(t, rec.Logger()))
	require.Empty(t, rec.Entries())
}

func TestNewRunner_DefaultFields(t *testing.T) {
	t.Parallel()

	r := NewRunner()
	require.NotNil(t, r)
	require.Equal(t, fmt.Sprintf("%p", run), fmt.Sprintf("%p", r.runFn))
}

func TestResolveLogger_FallsBackToNop(t *testing.T) {
	t.Parallel()

	require.NotNil(t, resolveLogger(dig.New()))
}

func provideAPIDeps(t *testing.T, c *dig.Container, ctx context.Context, srv *http.Server, closed *bool) {
	t.Helper()
	require.NoError(t, provideAll(c,
		func() context.Context { return ctx },
		logx.Nop,
		func() *pgxpool.Pool { return nil },
		func() *http.Server { return srv },
		func() *events.Bus { return events.NewAsyncBus(logx.Nop(), 8) },
		func(logger logx.Logger) *notify.Fanout {
			return notify.NewFanout(notifier.NewLogSink(logger), notify.FanoutConfig{}, logger, nil)
		},
		func() sinkCloser {
			return func() error {
				*closed = true
				return nil
			}
		},
	))
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	closed := false
	c := dig.New()
	provideAPIDeps(t, c, ctx, &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}, &closed)

	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := run(c)
	require.ErrorIs(t, err, context.Canceled)
	require.True(t, closed)
}

func TestRun_ReturnsListenError(t *testing.T) {
	t.Parallel()

	closed := false
	c := dig.New()
	provideAPIDeps(t, c, context.Background(), &http.Server{Addr: "127.0.0.1:-1", Handler: http.NewServeMux()}, &closed)

	err := run(c)
	require.Error(t, err)
	require.NotErrorIs(t, err, context.Canceled)
	require.Contains(t, err.Error(), "api server")
	require.True(t, closed)
}

func TestGracefulShutdown_DoesNotPanic(t *testing.T) {
	t.Parallel()

	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NewServeMux()}
	require.NotPanics(t, func() {
		gracefulShutdown(srv, logx.Nop(), 100*time.Millisecond)
	})
}

func TestCloseResources_NilSafe(t *testing.T) {
	t.Parallel()

	rec := testlog.New()
	require.NotPanics(t, func() {
		closeResources(rec.Logger(), nil, nil, func() error { return errors.New("flush failed") })
	})
	require.True(t, rec.HasMsg("notification sink close error"))
}
