package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"local-dispatch/internal/http/handlers"
	mw "local-dispatch/internal/http/middleware"
	"local-dispatch/internal/http/middleware/ratelimit"
	"local-dispatch/internal/identity"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/metrics"
)

// Deps groups everything the router mounts.
type Deps struct {
	Logger    logx.Logger
	Verifier  identity.Verifier
	RateLimit *ratelimit.Middleware
	Metrics   *metrics.HTTP
	Base      *handlers.Handlers
	Orders    *handlers.OrderHandler
	Couriers  *handlers.CourierHandler
}

// New constructs a chi-based http.Handler with base middleware and routes.
func New(d Deps) http.Handler {
	logger := d.Logger
	if logger == nil {
		logger = logx.Nop()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Access(logger, d.Metrics))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/ping", d.Base.Ping)
	r.Method(http.MethodHead, "/healthcheck", http.HandlerFunc(d.Base.HealthcheckHead))
	r.NotFound(http.HandlerFunc(d.Base.NotFound))

	r.Group(func(r chi.Router) {
		r.Use(mw.Auth(d.Verifier, logger))
		// after Auth so buckets are per actor
		if d.RateLimit != nil {
			r.Use(d.RateLimit.Handler())
		}

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", d.Orders.List)
			r.Get("/{id}", d.Orders.Get)
			r.Patch("/{id}/status", d.Orders.Transition)
			r.Post("/{id}/dispatch", d.Orders.Dispatch)
			r.Put("/{id}/notes", d.Orders.UpdateNotes)
		})

		r.Route("/couriers", func(r chi.Router) {
			r.Get("/", d.Couriers.List)
			r.Post("/", d.Couriers.Create)
			r.Get("/{id}", d.Couriers.GetByID)
			r.Put("/{id}", d.Couriers.Update)
			r.Put("/{id}/location", d.Couriers.UpdateLocation)
			r.Put("/{id}/availability", d.Couriers.SetAvailability)
		})
	})

	return r
}
