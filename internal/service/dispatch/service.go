package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"local-dispatch/internal/apperr"
	"local-dispatch/internal/domain"
	"local-dispatch/internal/logx"
	"local-dispatch/internal/metrics"
	"local-dispatch/internal/ports/ordertx"
)

// errCourierTaken means the chosen courier was reserved by someone else between
// the pool read and the reservation.
var errCourierTaken = errors.New("courier taken")

// Assignment results used as metric labels.
const (
	ResultAssigned        = "assigned"
	ResultNoCourier       = "no_courier"
	ResultAlreadyAssigned = "already_assigned"
	ResultInvalid         = "invalid"
	ResultError           = "error"
)

// Config tunes the dispatch engine.
type Config struct {
	MaxAttempts      int
	RedispatchAfter  time.Duration
	BatchSize        int
	OperationTimeout time.Duration
}

// Service assigns ready orders to the nearest available courier.
type Service struct {
	store   orderStore
	pool    candidatePool
	bus     eventPublisher
	cfg     Config
	logger  logx.Logger
	metrics *metrics.Dispatch
	now     func() time.Time
	newID   func() string
}

// NewService creates a dispatch Service.
func NewService(store orderStore, pool candidatePool, bus eventPublisher, cfg Config, logger logx.Logger, m *metrics.Dispatch) *Service {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RedispatchAfter <= 0 {
		cfg.RedispatchAfter = 2 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.OperationTimeout <= 0 {
		cfg.OperationTimeout = 3 * time.Second
	}
	if logger == nil {
		logger = logx.Nop()
	}
	return &Service{
		store:   store,
		pool:    pool,
		bus:     bus,
		cfg:     cfg,
		logger:  logger,
		metrics: m,
		now:     func() time.Time { return time.Now().UTC() },
		newID:   uuid.NewString,
	}
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.OperationTimeout)
}

// AssignAs checks that actor may dispatch the order and then assigns it.
func (s *Service) AssignAs(ctx context.Context, orderID string, actor domain.Actor) (domain.AssignResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.AssignResult{}, apperr.ErrInvalid
	}
	if actor.Role != domain.RoleSystem {
		lookupCtx, cancel := s.withTimeout(ctx)
		o, err := s.store.Get(lookupCtx, orderID)
		cancel()
		if err != nil {
			return domain.AssignResult{}, err
		}
		if o == nil {
			return domain.AssignResult{}, apperr.ErrNotFound
		}
		if !actor.MayDispatch(*o) {
			return domain.AssignResult{}, apperr.ErrForbidden
		}
	}
	return s.Assign(ctx, orderID)
}

// Assign picks the best courier for a ready_for_pickup order, reserves it and moves
// the order to picked_up in one transaction. A courier lost to a concurrent dispatch
// is skipped in favour of the next best, up to MaxAttempts.
// An empty pool publishes a dispatch_failed event so the business learns it must retry.
func (s *Service) Assign(ctx context.Context, orderID string) (domain.AssignResult, error) {
	return s.run(ctx, orderID, true)
}

// run performs one dispatch attempt. With announce unset an empty pool is only logged.
func (s *Service) run(ctx context.Context, orderID string, announce bool) (domain.AssignResult, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return domain.AssignResult{}, apperr.ErrInvalid
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	res, order, err := s.assign(ctx, orderID)
	s.metrics.Assignment(resultLabel(err))
	if err != nil {
		if announce && errors.Is(err, apperr.ErrNoCourierAvailable) && order != nil {
			s.publishFailed(ctx, *order)
		}
		s.logger.Warn("dispatch failed",
			logx.String("event", "dispatch_failed"),
			logx.String("order_id", orderID),
			logx.Err(err),
		)
		return domain.AssignResult{}, err
	}

	s.metrics.Cost(res.TotalKm())
	s.logger.Info("courier assigned",
		logx.String("event", "courier_assigned"),
		logx.String("order_id", res.OrderID),
		logx.String("courier_id", res.CourierID),
		logx.Float64("pickup_km", res.PickupKm),
		logx.Float64("dropoff_km", res.DropoffKm),
	)
	s.publishDispatched(ctx, *order, res)
	return res, nil
}

func (s *Service) assign(ctx context.Context, orderID string) (domain.AssignResult, *domain.Order, error) {
	order, err := s.store.Get(ctx, orderID)
	if err != nil {
		return domain.AssignResult{}, nil, err
	}
	if order == nil {
		return domain.AssignResult{}, nil, apperr.ErrNotFound
	}
	if err := CheckAssignable(*order); err != nil {
		return domain.AssignResult{}, nil, err
	}

	candidates, err := s.pool.ListAvailable(ctx, order.BusinessLocation)
	if err != nil {
		return domain.AssignResult{}, nil, err
	}

	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		choice, err := Select(*order, candidates)
		if err != nil {
			return domain.AssignResult{}, order, err
		}

		res, err := s.commit(ctx, orderID, choice)
		if errors.Is(err, errCourierTaken) {
			s.logger.Debug("courier reserved concurrently, trying next",
				logx.String("order_id", orderID),
				logx.String("courier_id", choice.CourierID),
				logx.Int("attempt", attempt),
			)
			candidates = without(candidates, choice.CourierID)
			continue
		}
		if err != nil {
			return domain.AssignResult{}, order, err
		}
		return res, order, nil
	}
	return domain.AssignResult{}, order, apperr.ErrNoCourierAvailable
}

func (s *Service) commit(ctx context.Context, orderID string, choice Choice) (domain.AssignResult, error) {
	var res domain.AssignResult
	err := s.store.WithTx(ctx, func(tx ordertx.Repository) error {
		current, err := tx.GetOrderForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return apperr.ErrNotFound
		}

		now := s.now()
		next, err := current.AssignCourier(choice.CourierID, now)
		if err != nil {
			return err
		}

		reserved, err := tx.ReserveCourier(ctx, choice.CourierID)
		if err != nil {
			return err
		}
		if !reserved {
			return errCourierTaken
		}

		ok, err := tx.UpdateOrder(ctx, &next, current.Status, current.Version)
		if err != nil {
			return err
		}
		if !ok {
			return apperr.ErrAlreadyAssigned
		}

		if err := tx.PublishChange(ctx, domain.OrderChange{
			OrderID:   next.ID,
			From:      current.Status,
			To:        next.Status,
			CourierID: next.DeliveryPersonID,
			Version:   next.Version,
		}); err != nil {
			return err
		}

		res = domain.AssignResult{
			OrderID:    next.ID,
			CourierID:  choice.CourierID,
			PickupKm:   choice.PickupKm,
			DropoffKm:  choice.DropoffKm,
			AssignedAt: now,
			Version:    next.Version,
		}
		return nil
	})
	if err != nil {
		return domain.AssignResult{}, fmt.Errorf("assign order %q: %w", orderID, err)
	}
	return res, nil
}

// RedispatchPending retries orders that have been waiting for a courier longer than
// RedispatchAfter. Per-order failures are logged and do not stop the sweep; an order
// that still finds no courier is not announced again.
func (s *Service) RedispatchPending(ctx context.Context) (int, error) {
	listCtx, cancel := s.withTimeout(ctx)
	cutoff := s.now().Add(-s.cfg.RedispatchAfter)
	waiting, err := s.store.ListWaiting(listCtx, domain.OrderReadyForPickup, cutoff, s.cfg.BatchSize)
	cancel()
	if err != nil {
		return 0, fmt.Errorf("list waiting orders: %w", err)
	}

	assigned := 0
	for _, o := range waiting {
		if ctx.Err() != nil {
			return assigned, ctx.Err()
		}
		if o.DeliveryPersonID != "" {
			continue
		}
		if _, err := s.run(ctx, o.ID, false); err != nil {
			continue
		}
		assigned++
	}
	if len(waiting) > 0 {
		s.logger.Info("redispatch sweep finished",
			logx.String("event", "redispatch_sweep"),
			logx.Int("waiting", len(waiting)),
			logx.Int("assigned", assigned),
		)
	}
	return assigned, nil
}

func (s *Service) publishDispatched(ctx context.Context, o domain.Order, res domain.AssignResult) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, domain.OrderEvent{
		ID:          s.newID(),
		Kind:        domain.EventDispatched,
		OrderID:     o.ID,
		From:        domain.OrderReadyForPickup,
		To:          domain.OrderPickedUp,
		Actor:       domain.SystemActor,
		CourierID:   res.CourierID,
		CustomerID:  o.CustomerID,
		BusinessIDs: o.BusinessIDs,
		At:          res.AssignedAt,
	})
}

func (s *Service) publishFailed(ctx context.Context, o domain.Order) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(ctx, domain.OrderEvent{
		ID:          s.newID(),
		Kind:        domain.EventDispatchFailed,
		OrderID:     o.ID,
		From:        o.Status,
		To:          o.Status,
		Actor:       domain.SystemActor,
		CustomerID:  o.CustomerID,
		BusinessIDs: o.BusinessIDs,
		At:          s.now(),
	})
}

func without(cs []domain.CourierCandidate, id string) []domain.CourierCandidate {
	out := make([]domain.CourierCandidate, 0, len(cs))
	for _, c := range cs {
		if c.CourierID != id {
			out = append(out, c)
		}
	}
	return out
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return ResultAssigned
	case errors.Is(err, apperr.ErrNoCourierAvailable):
		return ResultNoCourier
	case errors.Is(err, apperr.ErrAlreadyAssigned):
		return ResultAlreadyAssigned
	case errors.Is(err, apperr.ErrInvalid), errors.Is(err, apperr.ErrInvalidTransition), errors.Is(err, apperr.ErrNotFound):
		return ResultInvalid
	default:
		return ResultError
	}
}
