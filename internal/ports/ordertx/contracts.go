package ordertx

import (
	"context"

	"local-dispatch/internal/domain"
)

// Repository is the transaction-scoped view of orders and the courier busy flag.
type Repository interface {
	// GetOrderForUpdate locks the order row. Returns nil, nil when absent.
	GetOrderForUpdate(ctx context.Context, id string) (*domain.Order, error)
	// UpdateOrder writes next if the stored order still has expectedStatus and expectedVersion.
	// It reports false when the compare-and-swap lost. On success next.Version is bumped.
	UpdateOrder(ctx context.Context, next *domain.Order, expectedStatus domain.OrderStatus, expectedVersion int64) (bool, error)
	// ReserveCourier flips the courier from available to busy. False means someone else holds it.
	ReserveCourier(ctx context.Context, courierID string) (bool, error)
	// ReleaseCourier flips the courier from busy back to available.
	ReleaseCourier(ctx context.Context, courierID string) error
	// PublishChange emits a change notification delivered only if the transaction commits.
	PublishChange(ctx context.Context, change domain.OrderChange) error
}

// Runner is a transaction runner
type Runner interface {
	WithTx(ctx context.Context, fn func(tx Repository) error) error
}
