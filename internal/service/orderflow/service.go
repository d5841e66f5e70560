// Package orderflow applies actor-requested status changes to stored orders.
package orderflow

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/ports/ordertx"
)

// MaxNoteLength bounds each note in characters.
const MaxNoteLength = 2000

// Service is the order state machine backed by a store.
type Service struct {
	store            orderStore
	bus              eventPublisher
	operationTimeout time.Duration
	logger           logx.Logger
	transitions      *prometheus.CounterVec
	now              func() time.Time
	newID            func() string
}

// NewService creates an order Service. transitions may be nil.
func NewService(store orderStore, bus eventPublisher, timeout time.Duration, logger logx.Logger, transitions *prometheus.CounterVec) *Service {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		store:            store,
		bus:              bus,
		operationTimeout: timeout,
		logger:           logger,
		transitions:      transitions,
		now:              func() time.Time { return time.Now().UTC() },
		newID:            uuid.NewString,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.operationTimeout)
}

// Transition moves the order to status to on behalf of actor. The write is a
// compare-and-swap on the status and version read under lock; leaving the active
// set releases the courier in the same transaction.
func (s *Service) Transition(ctx context.Context, orderID string, to domain.OrderStatus, actor domain.Actor) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" || !to.Valid() {
		return domain.Order{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var prev, next domain.Order
	err := s.store.WithTx(ctx, func(tx ordertx.Repository) error {
		current, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.ErrNotFound
		}
		if !domain.CanTransition(current.Status, to) {
			return &apperr.TransitionError{From: string(current.Status), To: string(to)}
		}
		if !actor.MayRequest(*current, to) {
			return apperr.ErrForbidden
		}

		next, err = current.Apply(to, s.now())
		if err != nil {
			return err
		}

		ok, err := tx.UpdateOrder(ctx, &next, current.Status, current.Version)
		if err != nil {
			return err
		}
		if !ok {
			return lostRace(ctx, tx, *current, to)
		}

		if to.Terminal() && current.DeliveryPersonID != "" {
			if err := tx.ReleaseCourier(ctx, current.DeliveryPersonID); err != nil {
				return err
			}
		}

		prev = *current
		return tx.PublishChange(ctx, domain.OrderChange{
			OrderID:   next.ID,
			From:      current.Status,
			To:        next.Status,
			CourierID: current.DeliveryPersonID,
			Version:   next.Version,
		})
	})
	if err != nil {
		return domain.Order{}, err
	}

	if s.transitions != nil {
		s.transitions.WithLabelValues(string(next.Status)).Inc()
	}
	s.logger.Info("order transitioned",
		logx.String("event", "order_transitioned"),
		logx.String("order_id", next.ID),
		logx.String("from", string(prev.Status)),
		logx.String("to", string(next.Status)),
		logx.String("actor_id", actor.UserID),
		logx.String("actor_role", string(actor.Role)),
	)

	if s.bus != nil {
		courierID := next.DeliveryPersonID
		if courierID == "" {
			courierID = prev.DeliveryPersonID
		}
		s.bus.Publish(ctx, domain.OrderEvent{
			ID:          s.newID(),
			Kind:        domain.EventTransition,
			OrderID:     next.ID,
			From:        prev.Status,
			To:          next.Status,
			Actor:       actor,
			CourierID:   courierID,
			CustomerID:  next.CustomerID,
			BusinessIDs: next.BusinessIDs,
			At:          s.now(),
		})
	}
	return next, nil
}

// lostRace explains a failed compare-and-swap from the state that won.
func lostRace(ctx context.Context, tx ordertx.Repository, seen domain.Order, to domain.OrderStatus) error {
	fresh, err := tx.GetOrderForUpdate(ctx, seen.ID)
	if err != nil {
		return err
	}
	if fresh == nil {
		return apperr.ErrNotFound
	}
	if fresh.DeliveryPersonID != "" && fresh.DeliveryPersonID != seen.DeliveryPersonID {
		return apperr.ErrAlreadyAssigned
	}
	if !domain.CanTransition(fresh.Status, to) {
		return &apperr.TransitionError{From: string(fresh.Status), To: string(to)}
	}
	return fmt.Errorf("order %q changed concurrently: %w", seen.ID, apperr.ErrConflict)
}

// Get returns the order if actor may see it.
func (s *Service) Get(ctx context.Context, orderID string, actor domain.Actor) (*domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperr.ErrInvalid
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return nil, apperr.ErrNotFound
	}
	if !actor.MayView(*o) {
		return nil, apperr.ErrForbidden
	}
	return o, nil
}

// List returns orders matching f, narrowed to what actor may see.
func (s *Service) List(ctx context.Context, f domain.OrderFilter, actor domain.Actor) ([]domain.Order, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, apperr.ErrInvalid
	}
	if (f.Limit != nil && *f.Limit < 0) || (f.Offset != nil && *f.Offset < 0) {
		return nil, apperr.ErrInvalid
	}
	scoped, err := scope(f, actor)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()
	return s.store.List(ctx, scoped)
}

func scope(f domain.OrderFilter, actor domain.Actor) (domain.OrderFilter, error) {
	pin := func(field *string) error {
		if *field != "" && *field != actor.UserID {
			return apperr.ErrForbidden
		}
		*field = actor.UserID
		return nil
	}
	switch actor.Role {
	case domain.RoleAdmin, domain.RoleSystem:
		return f, nil
	case domain.RoleBusiness:
		return f, pin(&f.BusinessID)
	case domain.RoleDeliveryPerson:
		return f, pin(&f.CourierID)
	case domain.RoleClient:
		return f, pin(&f.CustomerID)
	default:
		return f, apperr.ErrForbidden
	}
}

// UpdateNotes replaces the notes of an order. Notes live outside the state machine
// but still bump the version.
func (s *Service) UpdateNotes(ctx context.Context, orderID, internal, public string, actor domain.Actor) (domain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.Order{}, apperr.ErrInvalid
	}
	if utf8.RuneCountInString(internal) > MaxNoteLength || utf8.RuneCountInString(public) > MaxNoteLength {
		return domain.Order{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	o, err := s.store.Get(ctx, orderID)
	if err != nil {
		return domain.Order{}, err
	}
	if o == nil {
		return domain.Order{}, apperr.ErrNotFound
	}
	if !actor.MayEditNotes(*o) {
		return domain.Order{}, apperr.ErrForbidden
	}

	ok, err := s.store.UpdateNotes(ctx, orderID, internal, public, o.Version)
	if err != nil {
		return domain.Order{}, err
	}
	if !ok {
		return domain.Order{}, apperr.ErrConflict
	}
	o.InternalNote, o.PublicNote = internal, public
	o.Version++
	return *o, nil
}

// Ingest registers an order coming from checkout. It is idempotent on the order id:
// a repeated id returns the stored order and false.
func (s *Service) Ingest(ctx context.Context, o domain.Order) (domain.Order, bool, error) {
	if o.Status == "" {
		o.Status = domain.OrderPending
	}
	if o.Status != domain.OrderPending || o.DeliveryPersonID != "" {
		return domain.Order{}, false, apperr.ErrInvalid
	}
	if strings.TrimSpace(o.ID) == "" {
		o.ID = s.newID()
	}
	if o.CreatedAt.IsZero() {
		o.CreatedAt = s.now()
	}
	o.DeliveredAt = nil
	if err := o.Validate(); err != nil {
		return domain.Order{}, false, err
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	created, err := s.store.Insert(ctx, &o)
	if err != nil {
		return domain.Order{}, false, err
	}
	if !created {
		existing, err := s.store.Get(ctx, o.ID)
		if err != nil {
			return domain.Order{}, false, err
		}
		if existing == nil {
			return domain.Order{}, false, apperr.ErrConflict
		}
		return *existing, false, nil
	}

	s.logger.Info("order ingested",
		logx.String("event", "order_ingested"),
		logx.String("order_id", o.ID),
		logx.String("customer_id", o.CustomerID),
		logx.String("total", o.Total.StringFixed(2)),
	)
	return o, true, nil
}
