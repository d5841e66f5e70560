package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"

	"local-dispatch/internal/events"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/service/notify"
)

var exit = os.Exit

// Runner runs the HTTP API.
type Runner struct {
	runFn func(*dig.Container) error
}

// NewRunner returns a new Runner
func NewRunner() *Runner {
	return &Runner{runFn: run}
}

// MustRun starts the HTTP server using the provided DI container and exits
// the process on unexpected errors.
func (r *Runner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil {
		return
	}
	logger := resolveLogger(container)
	switch {
	case errors.Is(err, context.Canceled):
		logger.Info("shutdown requested, exiting")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("startup aborted: startup timeout exceeded")
	default:
		logger.Error("run error", logx.Err(err))
		exit(1)
	}
}

func resolveLogger(container *dig.Container) logx.Logger {
	logger := logx.Nop()
	_ = container.Invoke(func(l logx.Logger) { logger = l })
	return logger
}

func run(container *dig.Container) error {
	return container.Invoke(apiRun)
}

type apiIn struct {
	dig.In

	Ctx        context.Context
	Logger     logx.Logger
	Pool       *pgxpool.Pool
	Redis      *redis.Client `optional:"true"`
	Server     *http.Server
	Debug      *http.Server `name:"debug_server" optional:"true"`
	Bus        *events.Bus
	Fanout     *notify.Fanout
	SinkCloser sinkCloser `optional:"true"`
}

func apiRun(in apiIn) error {
	unsubscribe := in.Bus.Subscribe("notifications", in.Fanout.Handle)
	defer unsubscribe()

	runCtx, cancel := context.WithCancel(in.Ctx)
	defer cancel()
	busDone := startBus(runCtx, in.Bus)

	errCh := make(chan error, 2)
	startServer(in.Server, "api", in.Logger, errCh)
	if in.Debug != nil {
		startServer(in.Debug, "debug", in.Logger, errCh)
	}

	err := waitForShutdown(in.Ctx, in.Logger, errCh)
	gracefulShutdown(in.Server, in.Logger, 15*time.Second)
	if in.Debug != nil {
		gracefulShutdown(in.Debug, in.Logger, time.Second)
	}
	cancel()
	<-busDone
	closeResources(in.Logger, in.Pool, in.Redis, in.SinkCloser)
	return err
}

func startBus(ctx context.Context, bus *events.Bus) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = bus.Run(ctx)
	}()
	return done
}

func startServer(server *http.Server, name string, logger logx.Logger, errCh chan<- error) {
	go func() {
		logger.Info("http server listening", logx.String("server", name), logx.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("%s server: %w", name, err)
		}
	}()
}

func waitForShutdown(ctx context.Context, logger logx.Logger, errCh <-chan error) error {
	select {
	case <-ctx.Done():
		logger.Info("shutting down dispatch-api")
		return ctx.Err()
	case err := <-errCh:
		logger.Error("listen error", logx.Err(err))
		return err
	}
}

func gracefulShutdown(srv *http.Server, logger logx.Logger, timeout time.Duration) {
	shCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := srv.Shutdown(shCtx); err != nil {
		logger.Warn("graceful shutdown error", logx.Err(err))
	}
}

func closeResources(logger logx.Logger, pool *pgxpool.Pool, rdb *redis.Client, closeSink sinkCloser) {
	if closeSink != nil {
		if err := closeSink(); err != nil {
			logger.Warn("notification sink close error", logx.Err(err))
		}
	}
	if rdb != nil {
		if err := rdb.Close(); err != nil {
			logger.Warn("redis close error", logx.Err(err))
		}
	}
	if pool != nil {
		pool.Close()
	}
}
