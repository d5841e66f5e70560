package orderflow

import (
	"context"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/ports/ordertx"
)

type orderStore interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	List(ctx context.Context, f domain.OrderFilter) ([]domain.Order, error)
	Insert(ctx context.Context, o *domain.Order) (bool, error)
	UpdateNotes(ctx context.Context, id, internal, public string, expectedVersion int64) (bool, error)
	WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.OrderEvent)
}
