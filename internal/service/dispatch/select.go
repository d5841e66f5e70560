package dispatch

import (
	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/geo"
)

// Choice is the courier picked for an order together with the legs it has to travel.
type Choice struct {
	CourierID string
	Location  domain.Location
	PickupKm  float64
	DropoffKm float64
}

// Cost is the total distance the courier covers.
func (c Choice) Cost() float64 { return c.PickupKm + c.DropoffKm }

// CheckAssignable reports whether o can be handed to a courier at all.
func CheckAssignable(o domain.Order) error {
	if o.DeliveryPersonID != "" {
		return apperr.ErrAlreadyAssigned
	}
	if o.Status != domain.OrderReadyForPickup {
		return &apperr.TransitionError{From: string(o.Status), To: string(domain.OrderPickedUp)}
	}
	if o.BusinessLocation == nil || o.CustomerLocation == nil {
		return apperr.ErrInvalid
	}
	if !o.BusinessLocation.Valid() || !o.CustomerLocation.Valid() {
		return apperr.ErrInvalid
	}
	return nil
}

// Select picks the candidate with the lowest courier→business→customer distance.
// Equal costs go to the lower courier id, so the result does not depend on pool order.
func Select(o domain.Order, pool []domain.CourierCandidate) (Choice, error) {
	if err := CheckAssignable(o); err != nil {
		return Choice{}, err
	}

	business := *o.BusinessLocation
	dropoff := geo.Distance(business, *o.CustomerLocation)

	var (
		best  Choice
		found bool
	)
	for _, c := range pool {
		if !c.Available || !c.Location.Valid() {
			continue
		}
		cand := Choice{
			CourierID: c.CourierID,
			Location:  c.Location,
			PickupKm:  geo.Distance(c.Location, business),
			DropoffKm: dropoff,
		}
		if !found || cand.Cost() < best.Cost() || (cand.Cost() == best.Cost() && cand.CourierID < best.CourierID) {
			best, found = cand, true
		}
	}
	if !found {
		return Choice{}, apperr.ErrNoCourierAvailable
	}
	return best, nil
}
