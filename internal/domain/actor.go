package domain

// Role is the role claim issued by the identity provider.
type Role string

// List of possible roles
const (
	RoleClient         Role = "client"
	RoleBusiness       Role = "business"
	RoleDeliveryPerson Role = "delivery_person"
	RoleAdmin          Role = "admin"
	// RoleSystem is used by the dispatcher and the worker; tokens never carry it.
	RoleSystem Role = "system"
)

var externalRoles = [...]Role{RoleClient, RoleBusiness, RoleDeliveryPerson, RoleAdmin}

// Valid reports whether r may appear in an identity token.
func (r Role) Valid() bool {
	for _, v := range externalRoles {
		if r == v {
			return true
		}
	}
	return false
}

// Actor is an authenticated user acting on an order.
type Actor struct {
	UserID string
	Role   Role
}

// SystemActor is the actor used for dispatch and trusted event replay.
var SystemActor = Actor{UserID: "system", Role: RoleSystem}

// MayRequest reports whether the actor is allowed to ask for order o to move to status to.
// Legality of the transition itself is checked separately by CanTransition.
func (a Actor) MayRequest(o Order, to OrderStatus) bool {
	switch a.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleBusiness:
		if !o.HasBusiness(a.UserID) {
			return false
		}
		return to == OrderPreparing || to == OrderReadyForPickup || to == OrderCancelled
	case RoleDeliveryPerson:
		if o.DeliveryPersonID == "" || o.DeliveryPersonID != a.UserID {
			return false
		}
		return to == OrderOnTheWay || to == OrderDelivered || to == OrderCancelled
	case RoleClient:
		return o.CustomerID == a.UserID && o.Status == OrderPending && to == OrderCancelled
	default:
		return false
	}
}

// MayEditNotes reports whether the actor may change the order notes.
func (a Actor) MayEditNotes(o Order) bool {
	switch a.Role {
	case RoleAdmin:
		return true
	case RoleBusiness:
		return o.HasBusiness(a.UserID)
	default:
		return false
	}
}

// MayView reports whether the actor may read the order.
func (a Actor) MayView(o Order) bool {
	switch a.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleBusiness:
		return o.HasBusiness(a.UserID)
	case RoleDeliveryPerson:
		return o.DeliveryPersonID == a.UserID
	case RoleClient:
		return o.CustomerID == a.UserID
	default:
		return false
	}
}

// MayDispatch reports whether the actor may trigger courier assignment for o.
func (a Actor) MayDispatch(o Order) bool {
	switch a.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleBusiness:
		return o.HasBusiness(a.UserID)
	default:
		return false
	}
}

// MayManageCourier reports whether the actor may change the directory entry,
// location or availability of courierID.
func (a Actor) MayManageCourier(courierID string) bool {
	switch a.Role {
	case RoleAdmin, RoleSystem:
		return true
	case RoleDeliveryPerson:
		return a.UserID != "" && a.UserID == courierID
	default:
		return false
	}
}
