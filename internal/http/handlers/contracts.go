package handlers

import (
	"context"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/service/courier"
	"local-dispatch/internal/service/dispatch"
	"local-dispatch/internal/service/orderflow"
)

type orderUsecase interface {
	Get(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter, actor domain.Actor) ([]domain.Order, error)
	Transition(ctx context.Context, orderID string, to domain.OrderStatus, actor domain.Actor) (domain.Order, error)
	UpdateNotes(ctx context.Context, orderID, internal, public string, actor domain.Actor) (domain.Order, error)
}

// NewOrderUsecase wires the order lifecycle service into an orderUsecase.
func NewOrderUsecase(svc *orderflow.Service) orderUsecase {
	return svc
}

type dispatchUsecase interface {
	AssignAs(ctx context.Context, orderID string, actor domain.Actor) (domain.AssignResult, error)
}

// NewDispatchUsecase wires the dispatch service into a dispatchUsecase.
func NewDispatchUsecase(svc *dispatch.Service) dispatchUsecase {
	return svc
}

type courierUsecase interface {
	Get(ctx context.Context, id string) (*domain.Courier, error)
	List(ctx context.Context, limit, offset *int) ([]domain.Courier, error)
	Create(ctx context.Context, c *domain.Courier, actor domain.Actor) error
	UpdatePartial(ctx context.Context, u domain.PartialCourierUpdate, actor domain.Actor) (bool, error)
	SetAvailability(ctx context.Context, id string, available bool, actor domain.Actor) (*domain.Courier, error)
	UpdateLocation(ctx context.Context, u domain.LocationUpdate, actor domain.Actor) (bool, error)
}

// NewCourierUsecase wires a courier Service into a courierUsecase.
func NewCourierUsecase(svc *courier.Service) courierUsecase {
	return svc
}
