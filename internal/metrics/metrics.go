package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// NewRateLimitExceededTotal returns a Prometheus counter for the number of rejected HTTP requests due to rate limiting
func NewRateLimitExceededTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limit_exceeded_total",
		Help: "Total number of rejected HTTP requests due to rate limiting",
	})
}

// NewSinkRetriesTotal returns a Prometheus counter for the number of retry attempts performed by notification sinks
func NewSinkRetriesTotal() prometheus.Counter {
	return prometheus.NewCounter(prometheus.CounterOpts{
		Name: "notification_sink_retries_total",
		Help: "Total number of retry attempts performed by notification sinks",
	})
}

// Dispatch groups the collectors of the dispatch engine and the courier pool.
type Dispatch struct {
	Assignments *prometheus.CounterVec
	CostKm      prometheus.Histogram
	Excluded    *prometheus.CounterVec
}

// NewDispatch returns unregistered dispatch collectors.
func NewDispatch() *Dispatch {
	return &Dispatch{
		Assignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_assignments_total",
			Help: "Dispatch attempts by result",
		}, []string{"result"}),
		CostKm: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dispatch_cost_km",
			Help:    "Courier-to-business plus business-to-customer distance of assigned orders",
			Buckets: []float64{0.5, 1, 2, 3, 5, 8, 13, 21, 34},
		}),
		Excluded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_candidates_excluded_total",
			Help: "Couriers dropped from the candidate pool by reason",
		}, []string{"reason"}),
	}
}

// Collectors returns everything that has to be registered.
func (d *Dispatch) Collectors() []prometheus.Collector {
	return []prometheus.Collector{d.Assignments, d.CostKm, d.Excluded}
}

// Assignment counts one dispatch outcome.
func (d *Dispatch) Assignment(result string) {
	if d == nil {
		return
	}
	d.Assignments.WithLabelValues(result).Inc()
}

// Cost observes the total distance of an assignment.
func (d *Dispatch) Cost(km float64) {
	if d == nil {
		return
	}
	d.CostKm.Observe(km)
}

// Exclude counts a candidate dropped for reason.
func (d *Dispatch) Exclude(reason string) {
	if d == nil {
		return
	}
	d.Excluded.WithLabelValues(reason).Inc()
}

// Notifications counts notification sends.
type Notifications struct {
	Total *prometheus.CounterVec
}

// NewNotifications returns unregistered notification collectors.
func NewNotifications() *Notifications {
	return &Notifications{
		Total: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_total",
			Help: "Notification sends by channel and result",
		}, []string{"channel", "result"}),
	}
}

// Sent counts one send attempt.
func (n *Notifications) Sent(channel, result string) {
	if n == nil {
		return
	}
	n.Total.WithLabelValues(channel, result).Inc()
}

// NewOrderTransitionsTotal returns a counter of committed transitions by target status.
func NewOrderTransitionsTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Committed order status transitions by target status",
	}, []string{"to"})
}

// HTTP holds the request collectors of the API server.
type HTTP struct {
	Requests *prometheus.CounterVec
	Latency  *prometheus.HistogramVec
}

// NewHTTP returns unregistered HTTP collectors labelled by route pattern.
func NewHTTP() *HTTP {
	return &HTTP{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_http_requests_total",
			Help: "API requests by method, route and status code",
		}, []string{"method", "route", "code"}),
		Latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dispatch_http_request_seconds",
			Help:    "API request latency by method and route",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		}, []string{"method", "route"}),
	}
}

// Observe records one finished request.
func (h *HTTP) Observe(method, route string, code int, took float64) {
	if h == nil {
		return
	}
	h.Requests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	h.Latency.WithLabelValues(method, route).Observe(took)
}
