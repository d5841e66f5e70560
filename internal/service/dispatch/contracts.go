package dispatch

import (
	"context"
	"time"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/ports/ordertx"
)

type orderStore interface {
	Get(ctx context.Context, id string) (*domain.Order, error)
	ListWaiting(ctx context.Context, status domain.OrderStatus, cutoff time.Time, limit int) ([]domain.Order, error)
	WithTx(ctx context.Context, fn func(tx ordertx.Repository) error) error
}

type candidatePool interface {
	ListAvailable(ctx context.Context, pickup *domain.Location) ([]domain.CourierCandidate, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, ev domain.OrderEvent)
}
