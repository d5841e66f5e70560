package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"local-dispatch/internal/apperr"
)

// OrderStatus is a state of the order lifecycle.
type OrderStatus string

// OrderItem is a single order line.
type OrderItem struct {
	ProductRef string
	Quantity   int
	UnitPrice  decimal.Decimal
}

// Order is a customer order fulfilled by one or more businesses.
type Order struct {
	ID               string
	CustomerID       string
	BusinessIDs      []string
	Items            []OrderItem
	Total            decimal.Decimal
	Status           OrderStatus
	DeliveryPersonID string
	CustomerLocation *Location
	BusinessLocation *Location
	CreatedAt        time.Time
	DeliveredAt      *time.Time
	InternalNote     string
	PublicNote       string
	Version          int64
}

// OrderFilter selects orders for listing. Empty fields do not filter.
type OrderFilter struct {
	Status     OrderStatus
	CustomerID string
	BusinessID string
	CourierID  string
	Limit      *int
	Offset     *int
}

// PrimaryBusinessID returns the business that hands the order to the courier.
func (o Order) PrimaryBusinessID() string {
	if len(o.BusinessIDs) == 0 {
		return ""
	}
	return o.BusinessIDs[0]
}

// HasBusiness reports whether id fulfils the order.
func (o Order) HasBusiness(id string) bool {
	for _, b := range o.BusinessIDs {
		if b == id {
			return true
		}
	}
	return false
}

// ItemsTotal returns Σ quantity × unitPrice.
func (o Order) ItemsTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, it := range o.Items {
		sum = sum.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return sum
}

// MoneyScale is the number of decimal places prices and totals are stored with.
const MoneyScale = 2

func fitsMoneyScale(d decimal.Decimal) bool {
	return d.Equal(d.Truncate(MoneyScale))
}

// Validate checks the invariants of a freshly created order.
func (o Order) Validate() error {
	if strings.TrimSpace(o.ID) == "" || strings.TrimSpace(o.CustomerID) == "" {
		return apperr.ErrInvalid
	}
	if len(o.BusinessIDs) == 0 {
		return apperr.ErrInvalid
	}
	for _, b := range o.BusinessIDs {
		if strings.TrimSpace(b) == "" {
			return apperr.ErrInvalid
		}
	}
	if len(o.Items) == 0 {
		return apperr.ErrInvalid
	}
	for _, it := range o.Items {
		if strings.TrimSpace(it.ProductRef) == "" || it.Quantity <= 0 || it.UnitPrice.IsNegative() || !fitsMoneyScale(it.UnitPrice) {
			return apperr.ErrInvalid
		}
	}
	if o.Total.IsNegative() || !fitsMoneyScale(o.Total) || !o.Total.Equal(o.ItemsTotal()) {
		return apperr.ErrInvalid
	}
	if o.CustomerLocation != nil && !o.CustomerLocation.Valid() {
		return apperr.ErrInvalid
	}
	if o.BusinessLocation != nil && !o.BusinessLocation.Valid() {
		return apperr.ErrInvalid
	}
	return nil
}

// Apply returns a copy of o moved to status to. It stamps DeliveredAt on delivery and
// clears the courier on cancellation. Version is left to the store.
func (o Order) Apply(to OrderStatus, now time.Time) (Order, error) {
	if !CanTransition(o.Status, to) {
		return Order{}, &apperr.TransitionError{From: string(o.Status), To: string(to)}
	}
	next := o
	next.Status = to
	switch to {
	case OrderCancelled:
		next.DeliveryPersonID = ""
	case OrderDelivered:
		t := now
		next.DeliveredAt = &t
	case OrderPickedUp:
		if next.DeliveryPersonID == "" {
			return Order{}, &apperr.TransitionError{From: string(o.Status), To: string(to)}
		}
	}
	return next, nil
}

// AssignCourier returns a copy of o handed to courierID and moved to picked_up.
func (o Order) AssignCourier(courierID string, now time.Time) (Order, error) {
	if o.DeliveryPersonID != "" {
		return Order{}, apperr.ErrAlreadyAssigned
	}
	if o.Status != OrderReadyForPickup {
		return Order{}, &apperr.TransitionError{From: string(o.Status), To: string(OrderPickedUp)}
	}
	if strings.TrimSpace(courierID) == "" {
		return Order{}, apperr.ErrInvalid
	}
	withCourier := o
	withCourier.DeliveryPersonID = courierID
	return withCourier.Apply(OrderPickedUp, now)
}

// AssignResult is the outcome of a successful dispatch.
type AssignResult struct {
	OrderID    string
	CourierID  string
	PickupKm   float64
	DropoffKm  float64
	AssignedAt time.Time
	Version    int64
}

// TotalKm is the two-leg cost of the assignment.
func (r AssignResult) TotalKm() float64 {
	return r.PickupKm + r.DropoffKm
}
