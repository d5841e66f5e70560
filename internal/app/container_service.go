package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"local-dispatch/internal/config"
	"local-dispatch/internal/events"
	"local-dispatch/internal/geoindex"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/metrics"
	"local-dispatch/internal/repository"
	"local-dispatch/internal/service/courier"
	"local-dispatch/internal/service/courierpool"
	"local-dispatch/internal/service/dispatch"
	"local-dispatch/internal/service/orderflow"
)

type operationTimeout time.Duration

func registerDomainServices(container *dig.Container) error {
	return provideAll(container,
		func(cfg *config.Config) operationTimeout {
			return operationTimeout(cfg.OperationTimeout)
		},
		repository.NewCourierRepo,
		repository.NewOrderRepo,
		provideCourierService,
		provideCourierSource,
		func(cfg *config.Config, src courierpool.Source, logger logx.Logger, m *metrics.Dispatch) *courierpool.Pool {
			return courierpool.New(src, courierpool.Config{
				StaleAfter:        cfg.Dispatch.StaleAfter,
				MaxPickupRadiusKm: cfg.Dispatch.MaxPickupRadiusKm,
			}, logger, m)
		},
		provideOrderflow,
		func(
			cfg *config.Config,
			repo *repository.OrderRepo,
			pool *courierpool.Pool,
			bus *events.Bus,
			logger logx.Logger,
			m *metrics.Dispatch,
		) *dispatch.Service {
			return dispatch.NewService(repo, pool, bus, dispatch.Config{
				MaxAttempts:      cfg.Dispatch.MaxAttempts,
				RedispatchAfter:  cfg.Dispatch.RedispatchAfter,
				BatchSize:        cfg.Dispatch.BatchSize,
				OperationTimeout: cfg.OperationTimeout,
			}, logger, m)
		},
	)
}

func provideCourierService(
	repo *repository.CourierRepo,
	idx *geoindex.Index,
	timeout operationTimeout,
	logger logx.Logger,
) *courier.Service {
	if idx == nil {
		return courier.NewService(repo, nil, time.Duration(timeout), logger)
	}
	return courier.NewService(repo, idx, time.Duration(timeout), logger)
}

// provideCourierSource picks where dispatch reads available couriers from.
func provideCourierSource(cfg *config.Config, repo *repository.CourierRepo, idx *geoindex.Index) courierpool.Source {
	if cfg.Dispatch.PoolSource == config.PoolSourceRedis && idx != nil {
		return idx
	}
	return repo
}

type orderflowIn struct {
	dig.In

	Repo        *repository.OrderRepo
	Bus         *events.Bus
	Timeout     operationTimeout
	Logger      logx.Logger
	Transitions *prometheus.CounterVec `name:"order_transitions_total"`
}

func provideOrderflow(in orderflowIn) *orderflow.Service {
	return orderflow.NewService(in.Repo, in.Bus, time.Duration(in.Timeout), in.Logger, in.Transitions)
}
