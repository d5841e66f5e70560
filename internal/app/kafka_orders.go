package app

import (
	"context"
	"errors"
	"time"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/service/orders"
	"local-dispatch/internal/transport/kafka"
)

type orderEventHandler interface {
	Handle(ctx context.Context, e orders.Event) error
}

// makeOrdersKafka bounds each event by timeout and marks invalid events as
// permanent so the consumer commits past them instead of retrying.
func makeOrdersKafka(h orderEventHandler, timeout time.Duration) kafka.HandleFunc {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return func(ctx context.Context, event orders.Event) error {
		hCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		err := h.Handle(hCtx, event)
		if err != nil && errors.Is(err, apperr.ErrInvalid) {
			return kafka.Permanent(err)
		}
		return err
	}
}
