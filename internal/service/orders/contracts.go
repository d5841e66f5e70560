//go:generate mockgen -source=contracts.go -destination=orders_mocks_test.go -package=orders_test

package orders

import (
	"context"

	"local-dispatch/internal/domain"
)

// Lifecycle is the subset of order lifecycle operations driven by upstream order events.
type Lifecycle interface {
	Ingest(ctx context.Context, o domain.Order) (domain.Order, bool, error)
	Transition(ctx context.Context, orderID string, to domain.OrderStatus, actor domain.Actor) (domain.Order, error)
}
