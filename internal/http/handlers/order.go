package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// OrderHandler serves the order lifecycle endpoints.
type OrderHandler struct {
	orders   orderUsecase
	dispatch dispatchUsecase
	logger   logx.Logger
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(logger logx.Logger, orders orderUsecase, dispatch dispatchUsecase) *OrderHandler {
	if logger == nil {
		logger = logx.Nop()
	}
	return &OrderHandler{orders: orders, dispatch: dispatch, logger: logger}
}

// Get handles GET /orders/{id}.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(h.logger, w, r)
	if !ok {
		return
	}
	o, err := h.orders.Get(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(*o, actor))
}

// List handles GET /orders. Results are scoped to what the actor may see.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(h.logger, w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	limit, offset, err := parsePage(q)
	if err != nil {
		writeError(h.logger, w, r, http.StatusBadRequest, err.Error())
		return
	}
	f := domain.OrderFilter{
		Status:     domain.OrderStatus(q.Get("status")),
		CustomerID: q.Get("customer_id"),
		BusinessID: q.Get("business_id"),
		CourierID:  q.Get("courier_id"),
		Limit:      limit,
		Offset:     offset,
	}
	if f.Status != "" && !f.Status.Valid() {
		writeError(h.logger, w, r, http.StatusBadRequest, "invalid status")
		return
	}

	list, err := h.orders.List(r.Context(), f, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, ordersToResponse(list, actor))
}

// Transition handles PATCH /orders/{id}/status.
func (h *OrderHandler) Transition(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(h.logger, w, r)
	if !ok {
		return
	}
	var req transitionRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}
	o, err := h.orders.Transition(r.Context(), chi.URLParam(r, "id"), domain.OrderStatus(req.Status), actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, actor))
}

// Dispatch handles POST /orders/{id}/dispatch.
func (h *OrderHandler) Dispatch(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(h.logger, w, r)
	if !ok {
		return
	}
	res, err := h.dispatch.AssignAs(r.Context(), chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, assignResultToResponse(res))
}

// UpdateNotes handles PUT /orders/{id}/notes.
func (h *OrderHandler) UpdateNotes(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFrom(h.logger, w, r)
	if !ok {
		return
	}
	var req notesRequest
	if !decodeJSON(h.logger, w, r, &req) {
		return
	}
	o, err := h.orders.UpdateNotes(r.Context(), chi.URLParam(r, "id"), req.InternalNote, req.PublicNote, actor)
	if err != nil {
		writeDomainError(h.logger, w, r, err)
		return
	}
	writeJSON(h.logger, w, r, http.StatusOK, orderToResponse(o, actor))
}
