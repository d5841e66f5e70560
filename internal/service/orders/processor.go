package orders

import (
	"context"
	"errors"
	"fmt"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
)

// Processor applies upstream order events to the order lifecycle.
type Processor struct {
	lifecycle Lifecycle
	logger    logx.Logger
	factory   *actionFactory
}

// NewProcessor creates a new orders.Processor
func NewProcessor(lifecycle Lifecycle, logger logx.Logger) *Processor {
	if logger == nil {
		logger = logx.Nop()
	}
	p := &Processor{
		lifecycle: lifecycle,
		logger:    logger,
	}
	p.factory = newActionFactory(p.onCreated, p.onStatusChanged, p.onCancelled)
	return p
}

// Handle processes a single orders.Event. Replays of already applied events
// return nil. Malformed or unauthorized events return an error matching apperr.ErrInvalid.
func (p *Processor) Handle(ctx context.Context, e Event) error {
	fn, ok := p.factory.get(e.Type)
	if !ok {
		p.logger.Debug("order event ignored",
			logx.String("event_id", e.ID),
			logx.String("type", e.Type),
		)
		return nil
	}
	err := fn(ctx, e)
	if errors.Is(err, apperr.ErrInvalidTransition) || errors.Is(err, apperr.ErrNotFound) {
		p.logger.Debug("order event already applied",
			logx.String("event_id", e.ID),
			logx.String("order_id", e.OrderID),
			logx.Err(err),
		)
		return nil
	}
	if errors.Is(err, apperr.ErrForbidden) {
		return fmt.Errorf("order event %q rejected: %w: %w", e.ID, apperr.ErrInvalid, err)
	}
	return err
}

func (p *Processor) onCreated(ctx context.Context, e Event) error {
	if e.Order == nil {
		return fmt.Errorf("created event %q without order: %w", e.ID, apperr.ErrInvalid)
	}
	o := *e.Order
	if o.ID == "" {
		o.ID = e.OrderID
	}
	if o.ID != e.OrderID {
		return fmt.Errorf("created event %q for order %q carries order %q: %w", e.ID, e.OrderID, o.ID, apperr.ErrInvalid)
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = e.OccurredAt
	}
	_, _, err := p.lifecycle.Ingest(ctx, o)
	return err
}

func (p *Processor) onStatusChanged(ctx context.Context, e Event) error {
	if !e.Status.Valid() {
		return fmt.Errorf("status_changed event %q with status %q: %w", e.ID, e.Status, apperr.ErrInvalid)
	}
	_, err := p.lifecycle.Transition(ctx, e.OrderID, e.Status, actorOf(e))
	return err
}

func (p *Processor) onCancelled(ctx context.Context, e Event) error {
	_, err := p.lifecycle.Transition(ctx, e.OrderID, domain.OrderCancelled, actorOf(e))
	return err
}

// actorOf returns the event actor, or the system actor for events without one.
func actorOf(e Event) domain.Actor {
	if e.Actor.Role == "" {
		return domain.SystemActor
	}
	return e.Actor
}
