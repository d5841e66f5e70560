package handlers

import (
	"time"

	"github.com/shopspring/decimal"

	"local-dispatch/internal/domain"
)

type orderItemDTO struct {
	ProductRef string          `json:"product_ref"`
	Quantity   int             `json:"quantity"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
}

type orderDTO struct {
	ID               string           `json:"id"`
	CustomerID       string           `json:"customer_id"`
	BusinessIDs      []string         `json:"business_ids"`
	Items            []orderItemDTO   `json:"items"`
	Total            decimal.Decimal  `json:"total"`
	Status           string           `json:"status"`
	DeliveryPersonID string           `json:"delivery_person_id,omitempty"`
	CustomerLocation *domain.Location `json:"customer_location,omitempty"`
	BusinessLocation *domain.Location `json:"business_location,omitempty"`
	InternalNote     string           `json:"internal_note,omitempty"`
	PublicNote       string           `json:"public_note,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	DeliveredAt      *time.Time       `json:"delivered_at,omitempty"`
	Version          int64            `json:"version"`
}

type transitionRequest struct {
	Status string `json:"status" validate:"required,oneof=pending preparing ready_for_pickup picked_up on_the_way delivered cancelled"`
}

type notesRequest struct {
	InternalNote string `json:"internal_note" validate:"max=2000"`
	PublicNote   string `json:"public_note" validate:"max=2000"`
}

type assignResponse struct {
	OrderID    string    `json:"order_id"`
	CourierID  string    `json:"courier_id"`
	PickupKm   float64   `json:"pickup_km"`
	DropoffKm  float64   `json:"dropoff_km"`
	TotalKm    float64   `json:"total_km"`
	AssignedAt time.Time `json:"assigned_at"`
}

// orderToResponse hides the internal note from actors that may not edit notes.
func orderToResponse(o domain.Order, actor domain.Actor) orderDTO {
	items := make([]orderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, orderItemDTO(it))
	}
	dto := orderDTO{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		BusinessIDs:      o.BusinessIDs,
		Items:            items,
		Total:            o.Total,
		Status:           string(o.Status),
		DeliveryPersonID: o.DeliveryPersonID,
		CustomerLocation: o.CustomerLocation,
		BusinessLocation: o.BusinessLocation,
		PublicNote:       o.PublicNote,
		CreatedAt:        o.CreatedAt,
		DeliveredAt:      o.DeliveredAt,
		Version:          o.Version,
	}
	if actor.MayEditNotes(o) {
		dto.InternalNote = o.InternalNote
	}
	return dto
}

func ordersToResponse(list []domain.Order, actor domain.Actor) []orderDTO {
	out := make([]orderDTO, 0, len(list))
	for _, o := range list {
		out = append(out, orderToResponse(o, actor))
	}
	return out
}

func assignResultToResponse(r domain.AssignResult) assignResponse {
	return assignResponse{
		OrderID:    r.OrderID,
		CourierID:  r.CourierID,
		PickupKm:   r.PickupKm,
		DropoffKm:  r.DropoffKm,
		TotalKm:    r.TotalKm(),
		AssignedAt: r.AssignedAt,
	}
}
