package kafka

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"local-dispatch/internal/domain"
	"local-dispatch/internal/service/orders"
)

// EventDTO is the wire form of an order event on the orders topic.
type EventDTO struct {
	EventID    string    `json:"event_id"`
	OrderID    string    `json:"order_id"`
	Type       string    `json:"type"`
	Status     string    `json:"status,omitempty"`
	ActorID    string    `json:"actor_id,omitempty"`
	ActorRole  string    `json:"actor_role,omitempty"`
	Order      *OrderDTO `json:"order,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// OrderDTO is the order snapshot carried by created events.
type OrderDTO struct {
	ID               string           `json:"id"`
	CustomerID       string           `json:"customer_id"`
	BusinessIDs      []string         `json:"business_ids"`
	Items            []ItemDTO        `json:"items"`
	Total            decimal.Decimal  `json:"total"`
	Status           string           `json:"status,omitempty"`
	CustomerLocation *domain.Location `json:"customer_location,omitempty"`
	BusinessLocation *domain.Location `json:"business_location,omitempty"`
	InternalNote     string           `json:"internal_note,omitempty"`
	PublicNote       string           `json:"public_note,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// ItemDTO is one order line.
type ItemDTO struct {
	ProductRef string          `json:"product_ref"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

// ToDomain converts EventDTO to orders.Event
func ToDomain(dto EventDTO) orders.Event {
	ev := orders.Event{
		ID:         strings.TrimSpace(dto.EventID),
		OrderID:    strings.TrimSpace(dto.OrderID),
		Type:       strings.TrimSpace(dto.Type),
		Status:     domain.OrderStatus(strings.TrimSpace(dto.Status)),
		OccurredAt: dto.OccurredAt,
	}
	if role := strings.TrimSpace(dto.ActorRole); role != "" {
		ev.Actor = domain.Actor{UserID: strings.TrimSpace(dto.ActorID), Role: domain.Role(role)}
	}
	if dto.Order != nil {
		o := orderToDomain(*dto.Order)
		ev.Order = &o
	}
	return ev
}

func orderToDomain(dto OrderDTO) domain.Order {
	items := make([]domain.OrderItem, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, domain.OrderItem{
			ProductRef: it.ProductRef,
			Quantity:   it.Quantity,
			UnitPrice:  it.UnitPrice,
		})
	}
	return domain.Order{
		ID:               strings.TrimSpace(dto.ID),
		CustomerID:       dto.CustomerID,
		BusinessIDs:      dto.BusinessIDs,
		Items:            items,
		Total:            dto.Total,
		Status:           domain.OrderStatus(dto.Status),
		CustomerLocation: dto.CustomerLocation,
		BusinessLocation: dto.BusinessLocation,
		InternalNote:     dto.InternalNote,
		PublicNote:       dto.PublicNote,
		CreatedAt:        dto.CreatedAt,
	}
}
