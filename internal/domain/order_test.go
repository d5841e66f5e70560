package domain_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
)

func validOrder() domain.Order {
	return domain.Order{
		ID:          "o-1",
		CustomerID:  "cust-1",
		BusinessIDs: []string{"biz-1"},
		Items: []domain.OrderItem{
			{ProductRef: "tacos", Quantity: 2, UnitPrice: decimal.RequireFromString("35.50")},
			{ProductRef: "agua", Quantity: 1, UnitPrice: decimal.RequireFromString("20")},
		},
		Total:            decimal.RequireFromString("91.00"),
		Status:           domain.OrderPending,
		CustomerLocation: domain.Location{Lat: 19.43, Lng: -99.13}.Ptr(),
		BusinessLocation: domain.Location{Lat: 19.42, Lng: -99.16}.Ptr(),
	}
}

func TestOrder_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(o *domain.Order)
		wantErr bool
	}{
		{name: "ok", mutate: func(*domain.Order) {}},
		{name: "no business", mutate: func(o *domain.Order) { o.BusinessIDs = nil }, wantErr: true},
		{name: "blank business", mutate: func(o *domain.Order) { o.BusinessIDs = []string{" "} }, wantErr: true},
		{name: "no items", mutate: func(o *domain.Order) { o.Items = nil; o.Total = decimal.Zero }, wantErr: true},
		{name: "zero quantity", mutate: func(o *domain.Order) { o.Items[1].Quantity = 0 }, wantErr: true},
		{name: "negative price", mutate: func(o *domain.Order) { o.Items[1].UnitPrice = decimal.NewFromInt(-1) }, wantErr: true},
		{name: "total mismatch", mutate: func(o *domain.Order) { o.Total = decimal.NewFromInt(90) }, wantErr: true},
		{name: "bad location", mutate: func(o *domain.Order) { o.CustomerLocation = &domain.Location{Lat: 91} }, wantErr: true},
		{name: "unknown location", mutate: func(o *domain.Order) { o.CustomerLocation = nil }},
		{name: "no customer", mutate: func(o *domain.Order) { o.CustomerID = "" }, wantErr: true},
		{name: "sub-cent price", mutate: func(o *domain.Order) {
			o.Items = []domain.OrderItem{{ProductRef: "chicle", Quantity: 1, UnitPrice: decimal.RequireFromString("1.005")}}
			o.Total = decimal.RequireFromString("1.005")
		}, wantErr: true},
		{name: "sub-cent total", mutate: func(o *domain.Order) { o.Total = decimal.RequireFromString("91.001") }, wantErr: true},
		{name: "trailing zeros are fine", mutate: func(o *domain.Order) {
			o.Items = []domain.OrderItem{{ProductRef: "chicle", Quantity: 2, UnitPrice: decimal.RequireFromString("1.500")}}
			o.Total = decimal.RequireFromString("3.0000")
		}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			o := validOrder()
			o.Items = append([]domain.OrderItem(nil), o.Items...)
			tt.mutate(&o)
			err := o.Validate()
			if tt.wantErr {
				require.ErrorIs(t, err, apperr.ErrInvalid)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestOrder_Apply_DeliveredStampsTime(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	o := validOrder()
	o.Status = domain.OrderOnTheWay
	o.DeliveryPersonID = "courier-1"

	next, err := o.Apply(domain.OrderDelivered, now)
	require.NoError(t, err)
	require.Equal(t, domain.OrderDelivered, next.Status)
	require.NotNil(t, next.DeliveredAt)
	require.True(t, next.DeliveredAt.Equal(now))
	require.Equal(t, "courier-1", next.DeliveryPersonID)
	require.Nil(t, o.DeliveredAt, "receiver must not change")
}

func TestOrder_Apply_CancelClearsCourier(t *testing.T) {
	t.Parallel()

	o := validOrder()
	o.Status = domain.OrderPickedUp
	o.DeliveryPersonID = "courier-c"

	next, err := o.Apply(domain.OrderCancelled, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.OrderCancelled, next.Status)
	require.Empty(t, next.DeliveryPersonID)
	require.Nil(t, next.DeliveredAt)
}

func TestOrder_Apply_SkippingStatesFails(t *testing.T) {
	t.Parallel()

	o := validOrder()
	_, err := o.Apply(domain.OrderDelivered, time.Now())
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	var te *apperr.TransitionError
	require.True(t, errors.As(err, &te))
	require.Equal(t, "pending", te.From)
	require.Equal(t, "delivered", te.To)
}

func TestOrder_Apply_TerminalIsFinal(t *testing.T) {
	t.Parallel()

	for _, terminal := range []domain.OrderStatus{domain.OrderDelivered, domain.OrderCancelled} {
		o := validOrder()
		o.Status = terminal
		for _, to := range domain.OrderStatuses() {
			_, err := o.Apply(to, time.Now())
			require.ErrorIsf(t, err, apperr.ErrInvalidTransition, "%s -> %s", terminal, to)
		}
	}
}

func TestOrder_Apply_PickedUpNeedsCourier(t *testing.T) {
	t.Parallel()

	o := validOrder()
	o.Status = domain.OrderReadyForPickup
	_, err := o.Apply(domain.OrderPickedUp, time.Now())
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestOrder_AssignCourier(t *testing.T) {
	t.Parallel()

	o := validOrder()
	o.Status = domain.OrderReadyForPickup

	next, err := o.AssignCourier("courier-b", time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.OrderPickedUp, next.Status)
	require.Equal(t, "courier-b", next.DeliveryPersonID)

	_, err = next.AssignCourier("courier-x", time.Now())
	require.ErrorIs(t, err, apperr.ErrAlreadyAssigned)

	cancelled := validOrder()
	cancelled.Status = domain.OrderCancelled
	_, err = cancelled.AssignCourier("courier-x", time.Now())
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)

	o.DeliveryPersonID = "courier-a"
	_, err = o.AssignCourier("courier-b", time.Now())
	require.ErrorIs(t, err, apperr.ErrAlreadyAssigned)
}

func TestOrder_ItemsTotal(t *testing.T) {
	t.Parallel()

	require.True(t, decimal.RequireFromString("91").Equal(validOrder().ItemsTotal()))
	require.Equal(t, "biz-1", validOrder().PrimaryBusinessID())
	require.Empty(t, domain.Order{}.PrimaryBusinessID())
}

func TestLocation_Valid(t *testing.T) {
	t.Parallel()

	require.True(t, domain.Location{}.Valid())
	require.True(t, domain.Location{Lat: -90, Lng: 180}.Valid())
	require.False(t, domain.Location{Lat: 90.1}.Valid())
	require.False(t, domain.Location{Lng: -180.5}.Valid())
	require.False(t, domain.Location{Lat: math.NaN()}.Valid())
}
