package app

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/dig"
	"golang.org/x/sync/errgroup"

	"local-dispatch/internal/config"
	"local-dispatch/internal/events"
	"local-dispatch/internal/geoindex"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/repository"
	"local-dispatch/internal/service/courier"
	"local-dispatch/internal/service/dispatch"
	"local-dispatch/internal/service/locationsync"
	"local-dispatch/internal/service/notify"
	"local-dispatch/internal/transport/kafka"
)

// WorkerRunner runs the background worker
type WorkerRunner struct {
	runFn func(*dig.Container) error
}

// NewWorkerRunner returns a new WorkerRunner
func NewWorkerRunner() *WorkerRunner {
	return &WorkerRunner{runFn: runWorker}
}

// MustRun starts the worker using the provided DI container
func (r *WorkerRunner) MustRun(container *dig.Container) {
	err := r.runFn(container)
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	panic(err)
}

func runWorker(container *dig.Container) error {
	return container.Invoke(workerRun)
}

type redispatcher interface {
	RedispatchPending(ctx context.Context) (int, error)
}

type workerIn struct {
	dig.In

	Ctx        context.Context
	Cfg        *config.Config
	Logger     logx.Logger
	Pool       *pgxpool.Pool
	Redis      *redis.Client `optional:"true"`
	Consumer   *kafka.Consumer
	Feed       *repository.ChangeFeed
	Dispatch   *dispatch.Service
	Couriers   *courier.Service
	Index      *geoindex.Index `optional:"true"`
	Syncer     *locationsync.Syncer
	Bus        *events.Bus
	Fanout     *notify.Fanout
	SinkCloser sinkCloser `optional:"true"`
}

type task struct {
	name string
	run  func(context.Context) error
}

func workerRun(in workerIn) error {
	defer closeWorker(in.Logger, in.Consumer, in.Pool, in.Redis, in.SinkCloser)

	unsubscribe := in.Bus.Subscribe("notifications", in.Fanout.Handle)
	defer unsubscribe()

	var idx reindexer
	if in.Index != nil {
		idx = in.Couriers
	}

	tasks := []task{
		{name: "events", run: in.Bus.Run},
		{name: "order_changes", run: func(ctx context.Context) error {
			return in.Feed.Listen(ctx, newChangeHandler(in.Dispatch, idx, in.Logger))
		}},
		{name: "redispatch", run: redispatchLoop(in.Dispatch, in.Cfg.Dispatch.RedispatchInterval, in.Logger)},
	}
	if in.Consumer != nil {
		tasks = append(tasks, task{name: "kafka_orders", run: in.Consumer.Run})
	} else {
		in.Logger.Info("kafka consumer disabled")
	}
	if in.Syncer != nil {
		tasks = append(tasks, task{name: "location_sync", run: in.Syncer.Run})
	}

	in.Logger.Info("dispatch-worker started", logx.Int("tasks", len(tasks)))
	return runTasks(in.Ctx, in.Logger, tasks)
}

// runTasks runs every task until ctx is done or one of them fails; a failure
// stops the rest.
func runTasks(ctx context.Context, logger logx.Logger, tasks []task) error {
	g, gctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		t := t
		g.Go(func() error {
			err := t.run(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("worker task stopped", logx.String("task", t.name), logx.Err(err))
			}
			return err
		})
	}
	return g.Wait()
}

func redispatchLoop(d redispatcher, interval time.Duration, logger logx.Logger) func(context.Context) error {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return func(ctx context.Context) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticker.C:
				if _, err := d.RedispatchPending(ctx); err != nil && ctx.Err() == nil {
					logger.Warn("redispatch sweep failed", logx.Err(err))
				}
			}
		}
	}
}

func closeWorker(logger logx.Logger, consumer *kafka.Consumer, pool *pgxpool.Pool, rdb *redis.Client, closeSink sinkCloser) {
	if consumer != nil {
		if err := consumer.Close(); err != nil {
			logger.Error("kafka close error", logx.Err(err))
		}
	}
	closeResources(logger, pool, rdb, closeSink)
}
