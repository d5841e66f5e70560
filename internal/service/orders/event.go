package orders

import (
	"time"

	"local-dispatch/internal/domain"
)

// Event types published on the orders topic.
const (
	TypeCreated       = "created"
	TypeStatusChanged = "status_changed"
	TypeCancelled     = "cancelled"
)

// Event is a single upstream order event
type Event struct {
	ID         string
	OrderID    string
	Type       string
	Status     domain.OrderStatus
	Actor      domain.Actor
	Order      *domain.Order
	OccurredAt time.Time
}
