package app

import (
	"fmt"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"local-dispatch/internal/config"
	"local-dispatch/internal/http/debugserver"
	"local-dispatch/internal/http/handlers"
	"local-dispatch/internal/http/middleware/ratelimit"
	"local-dispatch/internal/http/router"
	"local-dispatch/internal/identity"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/metrics"
)

type routerIn struct {
	dig.In

	Logger    logx.Logger
	Verifier  identity.Verifier
	RateLimit *ratelimit.Middleware
	Metrics   *metrics.HTTP
	Base      *handlers.Handlers
	Orders    *handlers.OrderHandler
	Couriers  *handlers.CourierHandler
}

func newRouter(in routerIn) http.Handler {
	return router.New(router.Deps{
		Logger:    in.Logger,
		Verifier:  in.Verifier,
		RateLimit: in.RateLimit,
		Metrics:   in.Metrics,
		Base:      in.Base,
		Orders:    in.Orders,
		Couriers:  in.Couriers,
	})
}

type serversOut struct {
	dig.Out

	Main  *http.Server
	Debug *http.Server `name:"debug_server"`
}

func newServers(cfg *config.Config, mux http.Handler) serversOut {
	return serversOut{
		Main: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		Debug: debugserver.New(debugserver.Config{
			Addr: cfg.Debug.Addr,
			User: cfg.Debug.User,
			Pass: cfg.Debug.Pass,
		}, prometheus.DefaultGatherer),
	}
}

func newBaseHandlers(logger logx.Logger, pool *pgxpool.Pool) *handlers.Handlers {
	if pool == nil {
		return handlers.New(logger, nil)
	}
	return handlers.New(logger, pool)
}

func registerHTTP(container *dig.Container) error {
	return provideAll(container,
		newBaseHandlers,
		handlers.NewOrderUsecase,
		handlers.NewDispatchUsecase,
		handlers.NewCourierUsecase,
		handlers.NewOrderHandler,
		handlers.NewCourierHandler,
		newRateLimitClock,
		newRateLimiter,
		newRateLimitMiddleware,
		newRouter,
		newServers,
	)
}
