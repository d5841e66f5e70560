package domain

import "regexp"

// List of possible courier statuses
const (
	StatusAvailable CourierStatus = "available"
	StatusBusy      CourierStatus = "busy"
	StatusPaused    CourierStatus = "paused"
)

// List of possible courier transport types
const (
	TransportTypeFoot    CourierTransportType = "on_foot"
	TransportTypeScooter CourierTransportType = "scooter"
	TransportTypeCar     CourierTransportType = "car"
)

// List of possible order statuses
const (
	OrderPending        OrderStatus = "pending"
	OrderPreparing      OrderStatus = "preparing"
	OrderReadyForPickup OrderStatus = "ready_for_pickup"
	OrderPickedUp       OrderStatus = "picked_up"
	OrderOnTheWay       OrderStatus = "on_the_way"
	OrderDelivered      OrderStatus = "delivered"
	OrderCancelled      OrderStatus = "cancelled"
)

var allowedStatuses = [...]CourierStatus{
	StatusAvailable, StatusBusy, StatusPaused,
}

var allowedTransportTypes = [...]CourierTransportType{
	TransportTypeFoot, TransportTypeScooter, TransportTypeCar,
}

// happyPath is the linear order lifecycle; cancelled sits outside it.
var happyPath = [...]OrderStatus{
	OrderPending,
	OrderPreparing,
	OrderReadyForPickup,
	OrderPickedUp,
	OrderOnTheWay,
	OrderDelivered,
}

// Valid checks if the CourierStatus is valid
func (s CourierStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Valid checks if the CourierTransportType is valid
func (t CourierTransportType) Valid() bool {
	for _, v := range allowedTransportTypes {
		if t == v {
			return true
		}
	}
	return false
}

// OrderStatuses returns every known order status in lifecycle order, cancelled last.
func OrderStatuses() []OrderStatus {
	out := make([]OrderStatus, 0, len(happyPath)+1)
	out = append(out, happyPath[:]...)
	return append(out, OrderCancelled)
}

// Valid checks if the OrderStatus is known.
func (s OrderStatus) Valid() bool {
	return s == OrderCancelled || s.step() >= 0
}

// Terminal reports whether no transition may leave s.
func (s OrderStatus) Terminal() bool {
	return s == OrderDelivered || s == OrderCancelled
}

// HasCourier reports whether an order in status s must carry a delivery person.
func (s OrderStatus) HasCourier() bool {
	return s == OrderPickedUp || s == OrderOnTheWay || s == OrderDelivered
}

func (s OrderStatus) step() int {
	for i, v := range happyPath {
		if s == v {
			return i
		}
	}
	return -1
}

// CanTransition is the legal transition table: one step forward along the
// happy path, or a jump to cancelled from any non-terminal status.
func CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() || from.Terminal() {
		return false
	}
	if to == OrderCancelled {
		return true
	}
	return to.step() == from.step()+1
}

// rePhone is a regex to validate phone numbers
var rePhone = regexp.MustCompile(`^\+[0-9]{10,14}$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}
