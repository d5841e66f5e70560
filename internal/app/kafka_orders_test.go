package app

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/service/orders"
	"local-dispatch/internal/transport/kafka"
)

type ctxKey struct{}

type spyHandler struct {
	called int
	ctx    context.Context
	event  orders.Event
	err    error
}

func (s *spyHandler) Handle(ctx context.Context, e orders.Event) error {
	s.called++
	s.ctx = ctx
	s.event = e
	return s.err
}

func TestMakeOrdersKafka_DelegatesWithDeadline(t *testing.T) {
	t.Parallel()

	spy := &spyHandler{}
	h := makeOrdersKafka(spy, 2*time.Second)

	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	in := orders.Event{ID: "e-1", OrderID: "order-1", Type: orders.TypeCreated}

	require.NoError(t, h(ctx, in))
	require.Equal(t, 1, spy.called)
	require.Equal(t, in, spy.event)
	require.Equal(t, "v", spy.ctx.Value(ctxKey{}))

	deadline, ok := spy.ctx.Deadline()
	require.True(t, ok)
	remaining := time.Until(deadline)
	require.Greater(t, remaining, time.Second)
	require.LessOrEqual(t, remaining, 2*time.Second)
	require.ErrorIs(t, spy.ctx.Err(), context.Canceled, "handler context is released after the call")
}

func TestMakeOrdersKafka_ErrorClassification(t *testing.T) {
	t.Parallel()

	transient := errors.New("db down")
	tests := []struct {
		name      string
		err       error
		permanent bool
	}{
		{"invalid event", fmt.Errorf("order event %q rejected: %w", "e-1", apperr.ErrInvalid), true},
		{"transient", transient, false},
		{"ok", nil, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			h := makeOrdersKafka(&spyHandler{err: tt.err}, 0)
			err := h(context.Background(), orders.Event{OrderID: "o-1"})
			if tt.err == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tt.err)

			require.Equal(t, tt.permanent, errors.Is(err, kafka.ErrPermanent))
		})
	}
}
