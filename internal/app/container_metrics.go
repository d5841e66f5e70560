package app

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/dig"

	"local-dispatch/internal/metrics"
)

type metricsOut struct {
	dig.Out

	RateLimitExceededTotal prometheus.Counter     `name:"rate_limit_exceeded_total"`
	SinkRetriesTotal       prometheus.Counter     `name:"notification_sink_retries_total"`
	OrderTransitionsTotal  *prometheus.CounterVec `name:"order_transitions_total"`
	Dispatch               *metrics.Dispatch
	Notifications          *metrics.Notifications
	HTTP                   *metrics.HTTP
}

// provideMetrics registers every collector in prometheus.DefaultRegisterer.
// A collector that is already registered is reused.
func provideMetrics() (metricsOut, error) {
	var (
		out metricsOut
		err error
	)
	if out.RateLimitExceededTotal, err = register("rate_limit_exceeded_total", metrics.NewRateLimitExceededTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.SinkRetriesTotal, err = register("notification_sink_retries_total", metrics.NewSinkRetriesTotal()); err != nil {
		return metricsOut{}, err
	}
	if out.OrderTransitionsTotal, err = register("order_transitions_total", metrics.NewOrderTransitionsTotal()); err != nil {
		return metricsOut{}, err
	}

	d := metrics.NewDispatch()
	if d.Assignments, err = register("dispatch_assignments_total", d.Assignments); err != nil {
		return metricsOut{}, err
	}
	if d.CostKm, err = register("dispatch_cost_km", d.CostKm); err != nil {
		return metricsOut{}, err
	}
	if d.Excluded, err = register("dispatch_candidates_excluded_total", d.Excluded); err != nil {
		return metricsOut{}, err
	}
	out.Dispatch = d

	n := metrics.NewNotifications()
	if n.Total, err = register("notifications_total", n.Total); err != nil {
		return metricsOut{}, err
	}
	out.Notifications = n

	h := metrics.NewHTTP()
	if h.Requests, err = register("dispatch_http_requests_total", h.Requests); err != nil {
		return metricsOut{}, err
	}
	if h.Latency, err = register("dispatch_http_request_seconds", h.Latency); err != nil {
		return metricsOut{}, err
	}
	out.HTTP = h
	return out, nil
}

func register[T prometheus.Collector](name string, c T) (T, error) {
	if err := prometheus.DefaultRegisterer.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register %s: %w", name, err)
	}
	return c, nil
}
