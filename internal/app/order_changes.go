package app

import (
	"context"
	"errors"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

type assigner interface {
	Assign(ctx context.Context, orderID string) (domain.AssignResult, error)
}

type reindexer interface {
	Reindex(ctx context.Context, courierID string) error
}

// newChangeHandler reacts to committed order changes: a ready order is
// dispatched, and a courier whose busy flag changed is re-indexed.
// idx may be nil.
func newChangeHandler(a assigner, idx reindexer, logger logx.Logger) func(context.Context, domain.OrderChange) error {
	return func(ctx context.Context, ch domain.OrderChange) error {
		switch {
		case ch.To == domain.OrderReadyForPickup:
			res, err := a.Assign(ctx, ch.OrderID)
			switch {
			case err == nil:
				logger.Info("order auto-dispatched",
					logx.String("order_id", res.OrderID),
					logx.String("courier_id", res.CourierID),
				)
				return nil
			case errors.Is(err, apperr.ErrNoCourierAvailable):
				logger.Info("order waits for a courier", logx.String("order_id", ch.OrderID))
				return nil
			case errors.Is(err, apperr.ErrAlreadyAssigned),
				errors.Is(err, apperr.ErrInvalidTransition),
				errors.Is(err, apperr.ErrNotFound):
				return nil
			default:
				return err
			}
		case ch.CourierID != "" && (ch.To == domain.OrderPickedUp || ch.To.Terminal()):
			if idx == nil {
				return nil
			}
			return idx.Reindex(ctx, ch.CourierID)
		}
		return nil
	}
}
