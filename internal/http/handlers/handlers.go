package handlers

import (
	"context"
	"net/http"
	"time"

	"local-dispatch/internal/logx"
)

const readinessTimeout = time.Second

// Pinger reports whether a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers serves the unauthenticated service endpoints.
type Handlers struct {
	logger logx.Logger
	store  Pinger
}

// New creates Handlers. A nil store makes the healthcheck report liveness only.
func New(logger logx.Logger, store Pinger) *Handlers {
	if logger == nil {
		logger = logx.Nop()
	}
	return &Handlers{logger: logger, store: store}
}

// Ping handles GET /ping.
func (h *Handlers) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(h.logger, w, r, http.StatusOK, map[string]string{"message": "pong"})
}

// HealthcheckHead handles HEAD /healthcheck: 204 when the store answers, 503 otherwise.
func (h *Handlers) HealthcheckHead(w http.ResponseWriter, r *http.Request) {
	if h.store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()
		if err := h.store.Ping(ctx); err != nil {
			h.logger.Warn("healthcheck: store unreachable", logx.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// NotFound answers unknown routes with a JSON 404.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	writeError(h.logger, w, r, http.StatusNotFound, "route not found")
}
