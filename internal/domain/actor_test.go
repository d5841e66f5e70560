package domain_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"local-dispatch/internal/domain"
)

func TestActor_MayRequest(t *testing.T) {
	t.Parallel()

	order := domain.Order{
		ID:               "o-1",
		CustomerID:       "cust",
		BusinessIDs:      []string{"biz"},
		Status:           domain.OrderPickedUp,
		DeliveryPersonID: "courier",
	}
	pending := order
	pending.Status = domain.OrderPending
	pending.DeliveryPersonID = ""

	tests := []struct {
		name  string
		actor domain.Actor
		order domain.Order
		to    domain.OrderStatus
		want  bool
	}{
		{"admin anything", domain.Actor{UserID: "a", Role: domain.RoleAdmin}, order, domain.OrderDelivered, true},
		{"system pickup", domain.SystemActor, order, domain.OrderPickedUp, true},
		{"owner business ready", domain.Actor{UserID: "biz", Role: domain.RoleBusiness}, pending, domain.OrderReadyForPickup, true},
		{"foreign business", domain.Actor{UserID: "other", Role: domain.RoleBusiness}, pending, domain.OrderPreparing, false},
		{"business cannot deliver", domain.Actor{UserID: "biz", Role: domain.RoleBusiness}, order, domain.OrderDelivered, false},
		{"assigned courier on the way", domain.Actor{UserID: "courier", Role: domain.RoleDeliveryPerson}, order, domain.OrderOnTheWay, true},
		{"assigned courier cancels", domain.Actor{UserID: "courier", Role: domain.RoleDeliveryPerson}, order, domain.OrderCancelled, true},
		{"other courier", domain.Actor{UserID: "c2", Role: domain.RoleDeliveryPerson}, order, domain.OrderDelivered, false},
		{"courier on unassigned order", domain.Actor{UserID: "", Role: domain.RoleDeliveryPerson}, pending, domain.OrderCancelled, false},
		{"client cancels pending", domain.Actor{UserID: "cust", Role: domain.RoleClient}, pending, domain.OrderCancelled, true},
		{"client cannot cancel picked up", domain.Actor{UserID: "cust", Role: domain.RoleClient}, order, domain.OrderCancelled, false},
		{"unknown role", domain.Actor{UserID: "x", Role: "guest"}, pending, domain.OrderCancelled, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, tt.actor.MayRequest(tt.order, tt.to))
		})
	}
}

func TestActor_MayViewAndEditNotes(t *testing.T) {
	t.Parallel()

	o := domain.Order{CustomerID: "cust", BusinessIDs: []string{"biz"}, DeliveryPersonID: "courier"}

	require.True(t, domain.Actor{UserID: "cust", Role: domain.RoleClient}.MayView(o))
	require.False(t, domain.Actor{UserID: "cust2", Role: domain.RoleClient}.MayView(o))
	require.True(t, domain.Actor{UserID: "courier", Role: domain.RoleDeliveryPerson}.MayView(o))

	require.True(t, domain.Actor{UserID: "biz", Role: domain.RoleBusiness}.MayEditNotes(o))
	require.False(t, domain.Actor{UserID: "courier", Role: domain.RoleDeliveryPerson}.MayEditNotes(o))
	require.True(t, domain.Actor{UserID: "root", Role: domain.RoleAdmin}.MayEditNotes(o))
}

func TestRole_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, domain.RoleDeliveryPerson.Valid())
	require.False(t, domain.RoleSystem.Valid())
	require.False(t, domain.Role("").Valid())
}

func TestActor_MayDispatchAndManageCourier(t *testing.T) {
	t.Parallel()

	o := domain.Order{BusinessIDs: []string{"biz"}}

	require.True(t, domain.SystemActor.MayDispatch(o))
	require.True(t, domain.Actor{UserID: "biz", Role: domain.RoleBusiness}.MayDispatch(o))
	require.False(t, domain.Actor{UserID: "other", Role: domain.RoleBusiness}.MayDispatch(o))
	require.False(t, domain.Actor{UserID: "c1", Role: domain.RoleDeliveryPerson}.MayDispatch(o))

	require.True(t, domain.Actor{UserID: "c1", Role: domain.RoleDeliveryPerson}.MayManageCourier("c1"))
	require.False(t, domain.Actor{UserID: "c1", Role: domain.RoleDeliveryPerson}.MayManageCourier("c2"))
	require.True(t, domain.Actor{UserID: "root", Role: domain.RoleAdmin}.MayManageCourier("c2"))
	require.False(t, domain.Actor{UserID: "biz", Role: domain.RoleBusiness}.MayManageCourier("biz"))
}
